package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"voice-assistant/internal/domain"
)

type TicketStore struct {
	db *sql.DB
}

func (s *TicketStore) CreateTicket(ctx context.Context, title string) (domain.Ticket, error) {
	t := domain.Ticket{Title: title, Status: domain.TicketOpen}
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO tickets (title, status) VALUES ($1, $2) RETURNING id", title, t.Status,
	).Scan(&t.ID)
	if err != nil {
		return domain.Ticket{}, storageError("inserting ticket", err)
	}
	return t, nil
}

// CloseTicket is a single UPDATE; setting closed on a closed row leaves it
// unchanged, so repeated closes succeed.
func (s *TicketStore) CloseTicket(ctx context.Context, id int64) (domain.Ticket, error) {
	t := domain.Ticket{ID: id}
	err := s.db.QueryRowContext(ctx,
		"UPDATE tickets SET status = $1 WHERE id = $2 RETURNING title, status", domain.TicketClosed, id,
	).Scan(&t.Title, &t.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Ticket{}, fmt.Errorf("ticket %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Ticket{}, storageError("closing ticket", err)
	}
	return t, nil
}

func (s *TicketStore) ListTickets(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	query := "SELECT id, title, status FROM tickets"
	var args []any
	if filter.Status != "" {
		query += " WHERE status = $1"
		args = append(args, filter.Status)
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("listing tickets", err)
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.Title, &t.Status); err != nil {
			return nil, storageError("scanning ticket", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("listing tickets", err)
	}
	return tickets, nil
}
