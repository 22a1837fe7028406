package domain

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// TextCommandPrefix marks a payload from an audio source as text that
// should skip transcription.
const TextCommandPrefix = "__TEXT__:"

// ToolCall is a single function invocation requested by the model.
// Arguments is the raw JSON payload exactly as the model produced it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Turn is one entry of a transcript. ToolCalls is only set on assistant
// turns; ToolCallID and Name are only set on tool turns.
type Turn struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

func SystemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content}
}

func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

func ToolResultTurn(call ToolCall, content string) Turn {
	return Turn{Role: RoleTool, Content: content, ToolCallID: call.ID, Name: call.Name}
}

// Exchange is one finished user/assistant round as seen by the session.
type Exchange struct {
	User      string
	Assistant string
	Failed    bool
}
