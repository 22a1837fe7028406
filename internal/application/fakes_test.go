package application_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"voice-assistant/internal/application"
	"voice-assistant/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedCompleter returns its responses in order and records every request.
type scriptedCompleter struct {
	responses []application.Completion
	errs      []error
	requests  []application.CompletionRequest
}

func (s *scriptedCompleter) Complete(_ context.Context, req application.CompletionRequest) (application.Completion, error) {
	i := len(s.requests)
	turns := make([]domain.Turn, len(req.Turns))
	copy(turns, req.Turns)
	s.requests = append(s.requests, application.CompletionRequest{Turns: turns, Tools: req.Tools})

	if i < len(s.errs) && s.errs[i] != nil {
		return application.Completion{}, s.errs[i]
	}
	if i >= len(s.responses) {
		return application.Completion{}, fmt.Errorf("unexpected completion request %d", i+1)
	}
	return s.responses[i], nil
}

type memoryTickets struct {
	tickets []domain.Ticket
	writes  int
	failAll error
}

func (m *memoryTickets) CreateTicket(_ context.Context, title string) (domain.Ticket, error) {
	if m.failAll != nil {
		return domain.Ticket{}, m.failAll
	}
	m.writes++
	t := domain.Ticket{ID: int64(len(m.tickets) + 1), Title: title, Status: domain.TicketOpen}
	m.tickets = append(m.tickets, t)
	return t, nil
}

func (m *memoryTickets) CloseTicket(_ context.Context, id int64) (domain.Ticket, error) {
	if m.failAll != nil {
		return domain.Ticket{}, m.failAll
	}
	for i := range m.tickets {
		if m.tickets[i].ID == id {
			m.writes++
			m.tickets[i].Status = domain.TicketClosed
			return m.tickets[i], nil
		}
	}
	return domain.Ticket{}, fmt.Errorf("ticket %d: %w", id, domain.ErrNotFound)
}

func (m *memoryTickets) ListTickets(_ context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []domain.Ticket
	for _, t := range m.tickets {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

type memoryListings struct {
	listings []domain.Listing
}

func (m *memoryListings) AddListing(_ context.Context, in domain.NewListing) (domain.Listing, error) {
	l := domain.Listing{
		ID:            fmt.Sprintf("L%d", len(m.listings)+1),
		ItemName:      in.ItemName,
		Price:         in.Price,
		SellerName:    in.SellerName,
		SellerContact: in.SellerContact,
		Description:   in.Description,
	}
	m.listings = append(m.listings, l)
	return l, nil
}

func (m *memoryListings) DeleteListing(_ context.Context, id string) error {
	for i, l := range m.listings {
		if l.ID == id {
			m.listings = append(m.listings[:i], m.listings[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("listing %s: %w", id, domain.ErrNotFound)
}

func (m *memoryListings) ListListings(_ context.Context) ([]domain.Listing, error) {
	return m.listings, nil
}
