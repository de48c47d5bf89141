//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/igad-hub/hubwriter/internal/domain"
	"github.com/igad-hub/hubwriter/internal/pagination"
	"github.com/igad-hub/hubwriter/internal/service"
	"github.com/igad-hub/hubwriter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(section, subSection, name string) *domain.PromptRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.PromptRecord{
		ResourceID:         uuid.NewString(),
		Version:            1,
		Section:            section,
		SubSection:         subSection,
		Categories:         []string{"newsletter"},
		Name:               name,
		SystemPrompt:       "You are an editor.",
		UserPromptTemplate: "Write about {{topic}}.",
		OutputFormat:       "Respond in markdown.",
		Status:             domain.PromptStatusDraft,
		IsActive:           false,
		CreatedBy:          "alice",
		UpdatedBy:          "alice",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestPromptRepository_InsertAndGetLatest(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewPromptRepository(pool)

	rec := newRecord("editorial", "intro", "Intro writer")
	require.NoError(t, repo.Insert(ctx, rec))

	v2 := rec.Clone()
	v2.Version = 2
	v2.Name = "Intro writer v2"
	v2.UpdatedAt = rec.UpdatedAt.Add(time.Second)
	require.NoError(t, repo.Insert(ctx, v2))

	latest, err := repo.GetLatest(ctx, rec.ResourceID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, "Intro writer v2", latest.Name)
	assert.Equal(t, []string{"newsletter"}, latest.Categories)
	assert.Equal(t, "Respond in markdown.", latest.OutputFormat)
}

func TestPromptRepository_GetVersion(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewPromptRepository(pool)

	rec := newRecord("editorial", "intro", "Intro writer")
	require.NoError(t, repo.Insert(ctx, rec))

	got, err := repo.GetVersion(ctx, rec.ResourceID, 1)
	require.NoError(t, err)
	assert.Equal(t, rec.Name, got.Name)

	_, err = repo.GetVersion(ctx, rec.ResourceID, 9)
	assert.ErrorIs(t, err, domain.ErrPromptVersionNotFound)
}

func TestPromptRepository_GetLatest_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewPromptRepository(pool)

	_, err := repo.GetLatest(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrPromptNotFound)
}

func TestPromptRepository_UpdateVersion(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewPromptRepository(pool)

	rec := newRecord("editorial", "intro", "Intro writer")
	require.NoError(t, repo.Insert(ctx, rec))

	rec.Name = "Renamed"
	rec.Status = domain.PromptStatusPublished
	rec.IsActive = true
	rec.UpdatedBy = "bob"
	rec.UpdatedAt = rec.UpdatedAt.Add(time.Minute)
	require.NoError(t, repo.UpdateVersion(ctx, rec))

	got, err := repo.GetVersion(ctx, rec.ResourceID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, domain.PromptStatusPublished, got.Status)
	assert.True(t, got.IsActive)
	assert.Equal(t, "bob", got.UpdatedBy)
}

func TestPromptRepository_UpdateVersion_MissingRow(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewPromptRepository(pool)

	rec := newRecord("editorial", "intro", "Ghost")
	err := repo.UpdateVersion(ctx, rec)
	assert.ErrorIs(t, err, domain.ErrPromptVersionNotFound)
}

func TestPromptRepository_Delete(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewPromptRepository(pool)

	rec := newRecord("editorial", "intro", "Intro writer")
	require.NoError(t, repo.Insert(ctx, rec))
	v2 := rec.Clone()
	v2.Version = 2
	require.NoError(t, repo.Insert(ctx, v2))

	deleted, err := repo.DeleteVersion(ctx, rec.ResourceID, 1)
	require.NoError(t, err)
	assert.True(t, deleted)

	latest, err := repo.GetLatest(ctx, rec.ResourceID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)

	deleted, err = repo.DeleteAll(ctx, rec.ResourceID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteAll(ctx, rec.ResourceID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestPromptRepository_List_FiltersLatestVersions(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewPromptRepository(pool)

	editorial := newRecord("editorial", "intro", "Intro writer")
	require.NoError(t, repo.Insert(ctx, editorial))

	editorialV2 := editorial.Clone()
	editorialV2.Version = 2
	editorialV2.Name = "Intro writer v2"
	editorialV2.UpdatedAt = editorial.UpdatedAt.Add(time.Second)
	require.NoError(t, repo.Insert(ctx, editorialV2))

	digest := newRecord("digest", "summary", "Digest summarizer")
	require.NoError(t, repo.Insert(ctx, digest))

	items, total, err := repo.List(ctx, service.ListFilters{}, pagination.Page{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)

	items, total, err = repo.List(ctx, service.ListFilters{Section: "editorial"}, pagination.Page{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Intro writer v2", items[0].Name)
	assert.Equal(t, 2, items[0].Version)

	items, _, err = repo.List(ctx, service.ListFilters{Search: "summarizer"}, pagination.Page{Limit: 20})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, digest.ResourceID, items[0].ResourceID)

	items, _, err = repo.List(ctx, service.ListFilters{Tag: "newsletter"}, pagination.Page{Limit: 20})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, _, err = repo.List(ctx, service.ListFilters{Route: "digest/summary"}, pagination.Page{Limit: 20})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, digest.ResourceID, items[0].ResourceID)
}

func TestPromptRepository_List_Pagination(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewPromptRepository(pool)

	for i := 0; i < 3; i++ {
		rec := newRecord("editorial", "intro", "Prompt")
		rec.UpdatedAt = rec.UpdatedAt.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Insert(ctx, rec))
	}

	items, total, err := repo.List(ctx, service.ListFilters{}, pagination.Page{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 2)

	items, total, err = repo.List(ctx, service.ListFilters{}, pagination.Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 1)
}

func TestPromptRepository_FindActive(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewPromptRepository(pool)

	draft := newRecord("editorial", "intro", "Draft prompt")
	require.NoError(t, repo.Insert(ctx, draft))

	older := newRecord("editorial", "intro", "Older active")
	older.Status = domain.PromptStatusPublished
	older.IsActive = true
	require.NoError(t, repo.Insert(ctx, older))

	newer := newRecord("editorial", "intro", "Newer active")
	newer.Status = domain.PromptStatusPublished
	newer.IsActive = true
	newer.UpdatedAt = older.UpdatedAt.Add(time.Minute)
	require.NoError(t, repo.Insert(ctx, newer))

	got, err := repo.FindActive(ctx, "editorial", "intro")
	require.NoError(t, err)
	assert.Equal(t, newer.ResourceID, got.ResourceID)

	got, err = repo.FindActive(ctx, "editorial", "")
	require.NoError(t, err)
	assert.Equal(t, newer.ResourceID, got.ResourceID)

	_, err = repo.FindActive(ctx, "digest", "summary")
	assert.ErrorIs(t, err, domain.ErrNoActivePrompt)
}

func TestPromptRepository_NameExists(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewPromptRepository(pool)

	rec := newRecord("editorial", "intro", "Intro writer")
	rec.IsActive = true
	require.NoError(t, repo.Insert(ctx, rec))

	exists, err := repo.NameExists(ctx, "editorial", "intro", "Intro writer", uuid.NewString())
	require.NoError(t, err)
	assert.True(t, exists)

	// The record itself is excluded when checking its own rename.
	exists, err = repo.NameExists(ctx, "editorial", "intro", "Intro writer", rec.ResourceID)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.NameExists(ctx, "digest", "intro", "Intro writer", uuid.NewString())
	require.NoError(t, err)
	assert.False(t, exists)
}
