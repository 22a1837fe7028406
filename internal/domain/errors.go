package domain

import "errors"

var (
	// ErrToolArguments means the model sent an argument payload that is not valid JSON.
	ErrToolArguments = errors.New("malformed tool arguments")
	// ErrInvalidArguments means the payload parsed but does not satisfy the tool schema.
	ErrInvalidArguments = errors.New("invalid tool arguments")
	ErrUnknownTool      = errors.New("unknown tool")
	ErrNotFound         = errors.New("not found")
	// ErrService wraps any failure of the completion service. It ends the turn.
	ErrService = errors.New("completion service error")
	// ErrStorage wraps persistence failures. It ends the turn.
	ErrStorage = errors.New("storage error")
)
