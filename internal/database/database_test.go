package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/thegera4/cool-morning-tables-sub000/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedCatalog(t *testing.T, db *DB) (*models.Location, *models.Extra) {
	t.Helper()
	ctx := context.Background()
	loc := &models.Location{ID: 1, Slug: "terraza", Name: "Terraza", Price: 150000, Capacity: 2, IsActive: true}
	_, err := db.UpsertLocation(ctx, loc)
	require.NoError(t, err)
	extra := &models.Extra{ID: 10, Name: "Globos", Price: 5000, HasQuantity: true, IsActive: true}
	_, err = db.UpsertExtra(ctx, extra)
	require.NoError(t, err)
	return loc, extra
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
	_, err = os.Stat(filepath.Join(tempDir, "nested", "dir"))
	assert.NoError(t, err)
}

func TestNewDB_InMemory(t *testing.T) {
	db, err := NewDB(":memory:", nil)
	require.NoError(t, err)
	defer db.Close()

	seedCatalog(t, db)
	locs, err := db.ListActiveLocations(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, locs, 1)
}

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.PingContext(context.Background()))
}

func TestCreateTablesIdempotent(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, createTables(db.DB))
}
