package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confscan/confscan/internal/conference"
	"github.com/confscan/confscan/internal/testutils"
	"github.com/confscan/confscan/internal/token"
)

func testConference(slug string) *conference.Conference {
	return &conference.Conference{
		Slug:   slug,
		Name:   "PGConf Europe 2026",
		Scheme: "https",
		Host:   "postgresql.eu",
		Token:  "cafe0123",
		Mode:   token.ModeCheckin,
	}
}

func TestConferenceRepository_UpsertAndGet(t *testing.T) {
	db := testutils.TestDB(t)
	repo := NewConferenceRepository(db)
	ctx := context.Background()

	conf := testConference("pgconf2026")
	require.NoError(t, repo.Upsert(ctx, conf))
	assert.False(t, conf.AddedAt.IsZero())

	got, err := repo.GetBySlug(ctx, "pgconf2026")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "PGConf Europe 2026", got.Name)
	assert.Equal(t, token.ModeCheckin, got.Mode)
}

func TestConferenceRepository_UpsertReplacesToken(t *testing.T) {
	db := testutils.TestDB(t)
	repo := NewConferenceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testConference("pgconf2026")))

	rotated := testConference("pgconf2026")
	rotated.Token = "beef4567"
	require.NoError(t, repo.Upsert(ctx, rotated))

	got, err := repo.GetBySlug(ctx, "pgconf2026")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "beef4567", got.Token)

	confs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, confs, 1)
}

func TestConferenceRepository_GetMissingReturnsNil(t *testing.T) {
	db := testutils.TestDB(t)
	repo := NewConferenceRepository(db)

	got, err := repo.GetBySlug(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConferenceRepository_List(t *testing.T) {
	db := testutils.TestDB(t)
	repo := NewConferenceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testConference("alpha")))
	require.NoError(t, repo.Upsert(ctx, testConference("beta")))

	confs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, confs, 2)
}

func TestConferenceRepository_Delete(t *testing.T) {
	db := testutils.TestDB(t)
	repo := NewConferenceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testConference("pgconf2026")))
	require.NoError(t, repo.Delete(ctx, "pgconf2026"))

	got, err := repo.GetBySlug(ctx, "pgconf2026")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, repo.Delete(ctx, "pgconf2026"), sql.ErrNoRows)
}
