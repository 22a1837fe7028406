package application

import (
	"context"
	"errors"
	"fmt"

	"voice-assistant/internal/domain"
)

// Executor runs decoded invocations against the stores. Either store may be
// nil when its variant is not in use.
type Executor struct {
	tickets  TicketStore
	listings ListingStore
}

func NewExecutor(tickets TicketStore, listings ListingStore) *Executor {
	return &Executor{tickets: tickets, listings: listings}
}

// Supports reports whether the stores backing a variant are configured.
func (e *Executor) Supports(variant Variant) bool {
	switch variant {
	case VariantTickets:
		return e.tickets != nil
	case VariantMarketplace:
		return e.listings != nil
	default:
		return false
	}
}

type toolError struct {
	Error string `json:"error"`
}

type ticketResult struct {
	TicketID int64  `json:"ticket_id"`
	Status   string `json:"status"`
}

type listingResult struct {
	ListingID string `json:"listing_id"`
	Status    string `json:"status"`
}

// Execute returns the value to serialize into the tool-result turn.
// A missing record is reported in the result; storage failures are returned
// as errors wrapping domain.ErrStorage.
func (e *Executor) Execute(ctx context.Context, inv Invocation) (any, error) {
	switch v := inv.(type) {
	case CreateTicket:
		if e.tickets == nil {
			return nil, errNoStore(v)
		}
		t, err := e.tickets.CreateTicket(ctx, v.Title)
		if err != nil {
			return nil, err
		}
		return ticketResult{TicketID: t.ID, Status: "created"}, nil

	case CancelTicket:
		if e.tickets == nil {
			return nil, errNoStore(v)
		}
		t, err := e.tickets.CloseTicket(ctx, v.TicketID)
		if errors.Is(err, domain.ErrNotFound) {
			return toolError{Error: fmt.Sprintf("Ticket ID %d not found.", v.TicketID)}, nil
		}
		if err != nil {
			return nil, err
		}
		return ticketResult{TicketID: t.ID, Status: string(t.Status)}, nil

	case GetTickets:
		if e.tickets == nil {
			return nil, errNoStore(v)
		}
		tickets, err := e.tickets.ListTickets(ctx, domain.TicketFilter{Status: v.Status})
		if err != nil {
			return nil, err
		}
		if tickets == nil {
			tickets = []domain.Ticket{}
		}
		return tickets, nil

	case AddListing:
		if e.listings == nil {
			return nil, errNoStore(v)
		}
		l, err := e.listings.AddListing(ctx, domain.NewListing{
			ItemName:      v.ItemName,
			Price:         v.Price,
			SellerName:    v.SellerName,
			SellerContact: v.SellerContact,
			Description:   v.Description,
		})
		if err != nil {
			return nil, err
		}
		return listingResult{ListingID: l.ID, Status: "created"}, nil

	case DeleteListing:
		if e.listings == nil {
			return nil, errNoStore(v)
		}
		err := e.listings.DeleteListing(ctx, v.ListingID)
		if errors.Is(err, domain.ErrNotFound) {
			return toolError{Error: fmt.Sprintf("Listing ID %s not found.", v.ListingID)}, nil
		}
		if err != nil {
			return nil, err
		}
		return listingResult{ListingID: v.ListingID, Status: "deleted"}, nil

	case GetAllListings:
		if e.listings == nil {
			return nil, errNoStore(v)
		}
		listings, err := e.listings.ListListings(ctx)
		if err != nil {
			return nil, err
		}
		if listings == nil {
			listings = []domain.Listing{}
		}
		return listings, nil

	default:
		return nil, fmt.Errorf("%w: no handler for %T", domain.ErrUnknownTool, inv)
	}
}

func errNoStore(inv Invocation) error {
	return fmt.Errorf("%w: no store configured for %s", domain.ErrStorage, inv.Tool())
}
