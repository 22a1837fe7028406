package sqlite

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
	res, err := s.db.ExecContext(ctx, "INSERT INTO tickets (title) VALUES (?)", title)
	if err != nil {
		return domain.Ticket{}, storageError("inserting ticket", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Ticket{}, storageError("reading ticket id", err)
	}

	return domain.Ticket{ID: id, Title: title, Status: domain.TicketOpen}, nil
}

// CloseTicket marks the ticket closed. Closing a closed ticket succeeds
// without writing.
func (s *TicketStore) CloseTicket(ctx context.Context, id int64) (domain.Ticket, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Ticket{}, storageError("starting transaction", err)
	}
	defer tx.Rollback()

	t := domain.Ticket{ID: id}
	err = tx.QueryRowContext(ctx, "SELECT title, status FROM tickets WHERE id = ?", id).Scan(&t.Title, &t.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Ticket{}, fmt.Errorf("ticket %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Ticket{}, storageError("reading ticket", err)
	}

	if t.Status != domain.TicketClosed {
		if _, err := tx.ExecContext(ctx, "UPDATE tickets SET status = ? WHERE id = ?", domain.TicketClosed, id); err != nil {
			return domain.Ticket{}, storageError("closing ticket", err)
		}
		t.Status = domain.TicketClosed
	}

	if err := tx.Commit(); err != nil {
		return domain.Ticket{}, storageError("committing", err)
	}

	return t, nil
}

func (s *TicketStore) ListTickets(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	query := "SELECT id, title, status FROM tickets"
	var args []any
	if filter.Status != "" {
		query += " WHERE status = ?"
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
