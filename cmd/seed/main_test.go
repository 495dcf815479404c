package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/thegera4/cool-morning-tables-sub000/internal/database"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
locations:
  - id: 1
    name: "Terraza Jardín"
    price: 150000
    capacity: 2
    is_active: true
    blocked_dates: ["2026-02-14"]
  - id: 2
    slug: "salon-privado"
    name: "Salón"
    price: 90000
    is_active: false
extras:
  - id: 10
    name: "Globos"
    price: 5000
    has_quantity: true
    is_active: true
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalog(t *testing.T) {
	cat, err := loadCatalog(writeCatalog(t, catalogYAML))
	require.NoError(t, err)
	require.Len(t, cat.Locations, 2)
	assert.Equal(t, "terraza-jardin", cat.Locations[0].Slug)
	assert.Equal(t, "salon-privado", cat.Locations[1].Slug)
	assert.Equal(t, []string{"2026-02-14"}, cat.Locations[0].BlockedDates)
	assert.True(t, cat.Extras[0].HasQuantity)
}

func TestLoadCatalogErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", "extras: []"},
		{"missing id", "locations:\n  - name: x\n"},
		{"duplicate id", "locations:\n  - {id: 1, name: a}\n  - {id: 1, name: b}\n"},
		{"bad date", "locations:\n  - {id: 1, name: a, blocked_dates: [\"14/02/2026\"]}\n"},
		{"bad extra", "locations:\n  - {id: 1, name: a}\nextras:\n  - {name: b}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadCatalog(writeCatalog(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := loadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSeedIsRepeatable(t *testing.T) {
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "seed.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	cat, err := loadCatalog(writeCatalog(t, catalogYAML))
	require.NoError(t, err)

	stats, err := seed(ctx, db, cat)
	require.NoError(t, err)
	assert.Equal(t, seedStats{created: 3, blocked: 1}, stats)

	stats, err = seed(ctx, db, cat)
	require.NoError(t, err)
	assert.Equal(t, seedStats{updated: 3}, stats)

	blocked, err := db.IsDateBlocked(ctx, 1, "2026-02-14")
	require.NoError(t, err)
	assert.True(t, blocked)

	l, err := db.GetLocationBySlug(ctx, "terraza-jardin")
	require.NoError(t, err)
	assert.Equal(t, int64(150000), l.Price)
}
