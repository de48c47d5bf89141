//go:build integration

package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/igad-hub/hubwriter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRepository_AppendAndList(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewAuditRepository(pool)
	resourceID := uuid.NewString()

	record := newRecord("editorial", "intro", "Intro writer")
	record.ResourceID = resourceID

	created, err := domain.NewAuditEntry(uuid.NewString(), resourceID, domain.OperationCreate, "alice", nil, record)
	require.NoError(t, err)
	created.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.Append(ctx, created))

	published, err := domain.NewAuditEntry(uuid.NewString(), resourceID, domain.OperationPublish, "bob", record, record)
	require.NoError(t, err)
	published.CreatedAt = created.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Append(ctx, published))

	entries, err := repo.ListByResource(ctx, resourceID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, domain.OperationPublish, entries[0].Operation)
	assert.Equal(t, "bob", entries[0].Actor)
	assert.Equal(t, domain.OperationCreate, entries[1].Operation)

	// Create has no prior state; the snapshot round-trips through jsonb.
	assert.JSONEq(t, "null", string(entries[1].Before))
	var after domain.PromptRecord
	require.NoError(t, json.Unmarshal(entries[1].After, &after))
	assert.Equal(t, "Intro writer", after.Name)
}

func TestAuditRepository_ListByResource_Limit(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewAuditRepository(pool)
	resourceID := uuid.NewString()

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 5; i++ {
		entry, err := domain.NewAuditEntry(uuid.NewString(), resourceID, domain.OperationUpdate, "alice", nil, nil)
		require.NoError(t, err)
		entry.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Append(ctx, entry))
	}

	entries, err := repo.ListByResource(ctx, resourceID, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.Equal(t, base.Add(4*time.Second), entries[0].CreatedAt)
}

func TestAuditRepository_ListByResource_Empty(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewAuditRepository(pool)

	entries, err := repo.ListByResource(ctx, uuid.NewString(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
