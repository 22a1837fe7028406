//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"voice-assistant/internal/domain"
	"voice-assistant/internal/infra/postgres"
)

func openContainerDB(t *testing.T) *postgres.DB {
	t.Helper()
	ctx := context.Background()

	pg, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("assistant"),
		tcpostgres.WithUsername("assistant"),
		tcpostgres.WithPassword("assistant"),
		tcpostgres.WithSQLDriver("pgx"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skip: cannot start postgres: %v", err)
	}
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := postgres.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPostgres_TicketLifecycle(t *testing.T) {
	db := openContainerDB(t)
	store := db.Tickets()
	ctx := context.Background()

	first, err := store.CreateTicket(ctx, "printer jam")
	require.NoError(t, err)
	second, err := store.CreateTicket(ctx, "vpn down")
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	closed, err := store.CloseTicket(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketClosed, closed.Status)
	assert.Equal(t, "printer jam", closed.Title)

	again, err := store.CloseTicket(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, closed, again)

	_, err = store.CloseTicket(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	open, err := store.ListTickets(ctx, domain.TicketFilter{Status: domain.TicketOpen})
	require.NoError(t, err)
	assert.Equal(t, []domain.Ticket{second}, open)
}

func TestPostgres_ListingLifecycle(t *testing.T) {
	db := openContainerDB(t)
	store := db.Listings()
	ctx := context.Background()

	empty, err := store.ListListings(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	bike, err := store.AddListing(ctx, domain.NewListing{ItemName: "bike", Price: 120, SellerName: "Dana"})
	require.NoError(t, err)
	lamp, err := store.AddListing(ctx, domain.NewListing{ItemName: "lamp", Price: 15.5})
	require.NoError(t, err)

	all, err := store.ListListings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Listing{bike, lamp}, all)

	require.NoError(t, store.DeleteListing(ctx, bike.ID))
	assert.ErrorIs(t, store.DeleteListing(ctx, bike.ID), domain.ErrNotFound)
}
