package database

import (
	"context"
	"testing"

	"github.com/thegera4/cool-morning-tables-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertLocation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	loc := &models.Location{ID: 3, Slug: "jardin", Name: "Jardín", Price: 120000, IsActive: true}
	created, err := db.UpsertLocation(ctx, loc)
	require.NoError(t, err)
	assert.True(t, created)

	loc.Price = 130000
	created, err = db.UpsertLocation(ctx, loc)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := db.GetLocation(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(130000), got.Price)
	assert.Equal(t, "Jardín", got.Name)
	assert.Empty(t, got.BlockedDates)

	bySlug, err := db.GetLocationBySlug(ctx, "jardin")
	require.NoError(t, err)
	assert.Equal(t, int64(3), bySlug.ID)

	_, err = db.UpsertLocation(ctx, &models.Location{Name: "no id"})
	assert.Error(t, err)
}

func TestGetLocationNotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetLocation(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.GetLocationBySlug(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListActiveCatalog(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, l := range []*models.Location{
		{ID: 1, Slug: "b", Name: "B", Price: 1, SortOrder: 2, IsActive: true},
		{ID: 2, Slug: "a", Name: "A", Price: 1, SortOrder: 1, IsActive: true},
		{ID: 3, Slug: "c", Name: "C", Price: 1, SortOrder: 0, IsActive: false},
	} {
		_, err := db.UpsertLocation(ctx, l)
		require.NoError(t, err)
	}
	for _, e := range []*models.Extra{
		{ID: 10, Name: "Rosas", Price: 1, IsActive: true},
		{ID: 11, Name: "Vino", Price: 1, IsActive: false},
	} {
		_, err := db.UpsertExtra(ctx, e)
		require.NoError(t, err)
	}

	require.NoError(t, db.BlockDate(ctx, 1, "2026-01-10"))
	require.NoError(t, db.BlockDate(ctx, 1, "2026-03-10"))

	locs, err := db.ListActiveLocations(ctx, "2026-02-01")
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "A", locs[0].Name)
	assert.Equal(t, "B", locs[1].Name)
	assert.Equal(t, []string{"2026-03-10"}, locs[1].BlockedDates)

	extras, err := db.ListActiveExtras(ctx)
	require.NoError(t, err)
	require.Len(t, extras, 1)
	assert.Equal(t, "Rosas", extras[0].Name)

	byID, err := db.GetExtrasByIDs(ctx, []int64{10, 11, 99})
	require.NoError(t, err)
	assert.Len(t, byID, 2)
	assert.False(t, byID[11].IsActive)

	none, err := db.GetExtrasByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBlockDate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	loc, _ := seedCatalog(t, db)

	blocked, err := db.IsDateBlocked(ctx, loc.ID, "2026-02-14")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, db.BlockDate(ctx, loc.ID, "2026-02-14"))
	assert.ErrorIs(t, db.BlockDate(ctx, loc.ID, "2026-02-14"), ErrDateBlocked)

	blocked, err = db.IsDateBlocked(ctx, loc.ID, "2026-02-14")
	require.NoError(t, err)
	assert.True(t, blocked)

	dates, err := db.BlockedDatesBetween(ctx, loc.ID, "2026-02-01", "2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-14"}, dates)

	dates, err = db.BlockedDatesBetween(ctx, loc.ID, "2026-03-01", "")
	require.NoError(t, err)
	assert.Empty(t, dates)
}
