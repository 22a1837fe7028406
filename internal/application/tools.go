package application

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"voice-assistant/internal/domain"
)

type ToolName string

const (
	ToolCreateTicket   ToolName = "create_ticket"
	ToolCancelTicket   ToolName = "cancel_ticket"
	ToolGetTickets     ToolName = "get_tickets"
	ToolAddListing     ToolName = "add_listing"
	ToolDeleteListing  ToolName = "delete_listing"
	ToolGetAllListings ToolName = "get_all_listings"
)

// Variant selects which record type the assistant manages.
type Variant string

const (
	VariantTickets     Variant = "tickets"
	VariantMarketplace Variant = "marketplace"
)

// ToolSpec is what the model sees for one tool. Parameters is the JSON
// Schema in generic form, ready to be embedded in a request body.
type ToolSpec struct {
	Name        ToolName
	Description string
	Parameters  map[string]any
}

// Invocation is a tool call whose arguments passed validation. The
// implementations below are the complete set; Executor switches over them.
type Invocation interface {
	Tool() ToolName
}

type CreateTicket struct {
	Title string `json:"title"`
}

type CancelTicket struct {
	TicketID int64 `json:"ticket_id"`
}

type GetTickets struct {
	Status domain.TicketStatus `json:"status,omitempty"`
}

type AddListing struct {
	ItemName      string  `json:"item_name"`
	Price         float64 `json:"price"`
	SellerName    string  `json:"seller_name,omitempty"`
	SellerContact string  `json:"seller_contact,omitempty"`
	Description   string  `json:"description,omitempty"`
}

type DeleteListing struct {
	ListingID string `json:"listing_id"`
}

type GetAllListings struct{}

func (CreateTicket) Tool() ToolName   { return ToolCreateTicket }
func (CancelTicket) Tool() ToolName   { return ToolCancelTicket }
func (GetTickets) Tool() ToolName     { return ToolGetTickets }
func (AddListing) Tool() ToolName     { return ToolAddListing }
func (DeleteListing) Tool() ToolName  { return ToolDeleteListing }
func (GetAllListings) Tool() ToolName { return ToolGetAllListings }

type toolDef struct {
	name        ToolName
	description string
	capability  string
	schema      *jsonschema.Schema
	decode      func(raw []byte) (Invocation, error)
}

// Registry is the static catalog of tools offered to the model for one
// variant.
type Registry struct {
	variant   Variant
	subject   string
	tools     []toolDef
	specs     []ToolSpec
	validator *validator
	index     map[ToolName]int
}

func NewRegistry(variant Variant) (*Registry, error) {
	switch variant {
	case VariantTickets:
		return newRegistry(variant, "support ticket database", ticketTools())
	case VariantMarketplace:
		return newRegistry(variant, "marketplace listing", marketplaceTools())
	default:
		return nil, fmt.Errorf("unknown variant: %s", variant)
	}
}

func newRegistry(variant Variant, subject string, defs []toolDef) (*Registry, error) {
	r := &Registry{
		variant:   variant,
		subject:   subject,
		tools:     defs,
		validator: newValidator(),
		index:     make(map[ToolName]int, len(defs)),
	}

	for i, def := range defs {
		params, err := schemaToMap(def.schema)
		if err != nil {
			return nil, fmt.Errorf("encoding schema for %s: %w", def.name, err)
		}
		if err := r.validator.add(def.name, params); err != nil {
			return nil, fmt.Errorf("compiling schema for %s: %w", def.name, err)
		}
		r.specs = append(r.specs, ToolSpec{
			Name:        def.name,
			Description: def.description,
			Parameters:  params,
		})
		r.index[def.name] = i
	}

	return r, nil
}

func (r *Registry) Variant() Variant {
	return r.variant
}

// Specs returns the tool declarations in registration order.
func (r *Registry) Specs() []ToolSpec {
	result := make([]ToolSpec, len(r.specs))
	copy(result, r.specs)
	return result
}

func (r *Registry) Has(name string) bool {
	_, ok := r.index[ToolName(name)]
	return ok
}

// SystemPrompt names the assistant's capabilities, one per registered tool.
func (r *Registry) SystemPrompt() string {
	caps := make([]string, 0, len(r.tools))
	for _, def := range r.tools {
		caps = append(caps, "'"+def.capability+"'")
	}

	var list string
	switch len(caps) {
	case 0:
		list = "none"
	case 1:
		list = caps[0]
	default:
		list = strings.Join(caps[:len(caps)-1], ", ") + " and " + caps[len(caps)-1]
	}

	return fmt.Sprintf("You are a helpful %s assistant with abilities such as %s.", r.subject, list)
}

// Decode turns a raw model tool call into a typed invocation. Errors wrap
// domain.ErrToolArguments, domain.ErrUnknownTool or domain.ErrInvalidArguments,
// checked in that order.
func (r *Registry) Decode(call domain.ToolCall) (Invocation, error) {
	raw := strings.TrimSpace(call.Arguments)
	if raw == "" {
		raw = "{}"
	}

	instance, err := parseInstance(raw)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %v", domain.ErrToolArguments, call.Name, err)
	}

	i, ok := r.index[ToolName(call.Name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTool, call.Name)
	}
	def := r.tools[i]

	if err := r.validator.validate(def.name, instance); err != nil {
		return nil, fmt.Errorf("%w for %s: %v", domain.ErrInvalidArguments, call.Name, err)
	}

	inv, err := def.decode([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %v", domain.ErrInvalidArguments, call.Name, err)
	}
	return inv, nil
}

func ticketTools() []toolDef {
	return []toolDef{
		{
			name:        ToolCreateTicket,
			description: "Create a new support ticket in the database.",
			capability:  "Create a support ticket",
			schema: objectSchema(map[string]*jsonschema.Schema{
				"title": {Type: "string", Description: "The title or description of the issue."},
			}, "title"),
			decode: decodeInto[CreateTicket],
		},
		{
			name:        ToolCancelTicket,
			description: "Cancel an existing support ticket by ID.",
			capability:  "Cancel a support ticket",
			schema: objectSchema(map[string]*jsonschema.Schema{
				"ticket_id": {Type: "integer", Description: "The unique ID of the ticket to cancel."},
			}, "ticket_id"),
			decode: decodeCancelTicket,
		},
		{
			name:        ToolGetTickets,
			description: "Get a list of support tickets from the database.",
			capability:  "List all support tickets",
			schema: objectSchema(map[string]*jsonschema.Schema{
				"status": {
					Type:        "string",
					Enum:        []any{string(domain.TicketOpen), string(domain.TicketClosed)},
					Description: "Filter by status (e.g. 'open')",
				},
			}),
			decode: decodeInto[GetTickets],
		},
	}
}

func marketplaceTools() []toolDef {
	return []toolDef{
		{
			name:        ToolAddListing,
			description: "Adds a new item listing to the marketplace with its name, price, and an optional description.",
			capability:  "Add a listing",
			schema: objectSchema(map[string]*jsonschema.Schema{
				"item_name":      {Type: "string", Description: "The name of the item to be listed."},
				"price":          {Type: "number", Description: "The price of the item."},
				"seller_name":    {Type: "string", Description: "Seller's name"},
				"seller_contact": {Type: "string", Description: "Seller's 10 digit phone number without any prefix."},
				"description":    {Type: "string", Description: "A detailed description of the item."},
			}, "item_name", "price"),
			decode: decodeInto[AddListing],
		},
		{
			name:        ToolDeleteListing,
			description: "Deletes an existing item listing using its unique listing ID.",
			capability:  "Delete a listing",
			schema: objectSchema(map[string]*jsonschema.Schema{
				"listing_id": {Type: "string", Description: "The unique ID of the listing to be marked as sold."},
			}, "listing_id"),
			decode: decodeInto[DeleteListing],
		},
		{
			name:        ToolGetAllListings,
			description: "Retrieves all active item listings in the marketplace.",
			capability:  "List all listings",
			schema:      objectSchema(map[string]*jsonschema.Schema{}),
			decode:      decodeInto[GetAllListings],
		},
	}
}

func objectSchema(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

func schemaToMap(s *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if _, ok := m["properties"]; !ok {
		m["properties"] = map[string]any{}
	}
	return m, nil
}

func decodeInto[T Invocation](raw []byte) (Invocation, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeCancelTicket accepts integral floats such as 3.0, which JSON Schema
// treats as integers but encoding/json refuses for int64.
func decodeCancelTicket(raw []byte) (Invocation, error) {
	var args struct {
		TicketID json.Number `json:"ticket_id"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	id, err := integerArg(args.TicketID)
	if err != nil {
		return nil, fmt.Errorf("ticket_id: %w", err)
	}
	return CancelTicket{TicketID: id}, nil
}
