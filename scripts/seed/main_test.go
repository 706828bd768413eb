package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/roster/internal/platform/db"
	"github.com/odyssey-erp/roster/internal/users"
)

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, db.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	store := users.NewSQLiteRepository(conn)
	require.NoError(t, store.EnsureSchema(ctx))
	svc := users.NewService(store)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	created, err := seed(ctx, svc, logger)
	require.NoError(t, err)
	require.Equal(t, len(demoUsers), created)

	created, err = seed(ctx, svc, logger)
	require.NoError(t, err)
	require.Zero(t, created)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(demoUsers))
}
