package application

import (
	"context"

	"voice-assistant/internal/domain"
)

// TicketStore persists support tickets. CloseTicket wraps domain.ErrNotFound
// for a missing id; every other error wraps domain.ErrStorage.
type TicketStore interface {
	CreateTicket(ctx context.Context, title string) (domain.Ticket, error)
	CloseTicket(ctx context.Context, id int64) (domain.Ticket, error)
	ListTickets(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error)
}

// ListingStore persists marketplace listings. DeleteListing wraps
// domain.ErrNotFound for a missing id.
type ListingStore interface {
	AddListing(ctx context.Context, listing domain.NewListing) (domain.Listing, error)
	DeleteListing(ctx context.Context, id string) error
	ListListings(ctx context.Context) ([]domain.Listing, error)
}
