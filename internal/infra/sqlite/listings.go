package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"voice-assistant/internal/domain"
)

type ListingStore struct {
	db *sql.DB
}

func (s *ListingStore) AddListing(ctx context.Context, in domain.NewListing) (domain.Listing, error) {
	l := domain.Listing{
		ID:            uuid.NewString(),
		ItemName:      in.ItemName,
		Price:         in.Price,
		SellerName:    in.SellerName,
		SellerContact: in.SellerContact,
		Description:   in.Description,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO listings (id, item_name, price, seller_name, seller_contact, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.ItemName, l.Price, l.SellerName, l.SellerContact, l.Description,
	)
	if err != nil {
		return domain.Listing{}, storageError("inserting listing", err)
	}

	return l, nil
}

// DeleteListing removes the row. A missing id is reported as
// domain.ErrNotFound, so deleting twice fails the second time.
func (s *ListingStore) DeleteListing(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM listings WHERE id = ?", id)
	if err != nil {
		return storageError("deleting listing", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return storageError("deleting listing", err)
	}
	if n == 0 {
		return fmt.Errorf("listing %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (s *ListingStore) ListListings(ctx context.Context) ([]domain.Listing, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, item_name, price, seller_name, seller_contact, description FROM listings ORDER BY rowid")
	if err != nil {
		return nil, storageError("listing listings", err)
	}
	defer rows.Close()

	listings := []domain.Listing{}
	for rows.Next() {
		var l domain.Listing
		if err := rows.Scan(&l.ID, &l.ItemName, &l.Price, &l.SellerName, &l.SellerContact, &l.Description); err != nil {
			return nil, storageError("scanning listing", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("listing listings", err)
	}

	return listings, nil
}
