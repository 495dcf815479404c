package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/database"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// CatalogFile is the layout of configs/catalog.yaml.
type CatalogFile struct {
	Locations []SeedLocation `yaml:"locations"`
	Extras    []models.Extra `yaml:"extras"`
}

// SeedLocation adds manually closed dates to a location entry.
type SeedLocation struct {
	models.Location `yaml:",inline"`
	BlockedDates    []string `yaml:"blocked_dates"`
}

type seedStats struct {
	created, updated, blocked int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		catalogPath = flag.String("catalog", "configs/catalog.yaml", "path to catalog.yaml")
		dbPath      = flag.String("db", "./data/tables.db", "path to sqlite db")
	)
	flag.Parse()

	catalog, err := loadCatalog(*catalogPath)
	if err != nil {
		return err
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := seed(ctx, db, catalog)
	if err != nil {
		return err
	}

	logger.Info().
		Int("created", stats.created).
		Int("updated", stats.updated).
		Int("blocked_dates", stats.blocked).
		Msg("catalog seeded")
	return nil
}

func loadCatalog(path string) (*CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var cfg CatalogFile
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(cfg.Locations) == 0 {
		return nil, fmt.Errorf("no locations in yaml")
	}

	seen := make(map[int64]bool, len(cfg.Locations))
	for i := range cfg.Locations {
		l := &cfg.Locations[i].Location
		if l.ID <= 0 || strings.TrimSpace(l.Name) == "" {
			return nil, fmt.Errorf("location #%d needs an id and a name", i+1)
		}
		if seen[l.ID] {
			return nil, fmt.Errorf("duplicate location id %d", l.ID)
		}
		seen[l.ID] = true
		if l.Slug == "" {
			l.Slug = slug.Make(l.Name)
		}
		for _, d := range cfg.Locations[i].BlockedDates {
			if _, err := time.Parse(models.DateLayout, d); err != nil {
				return nil, fmt.Errorf("location %s: invalid blocked date %q", l.Slug, d)
			}
		}
	}
	for i, e := range cfg.Extras {
		if e.ID <= 0 || strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("extra #%d needs an id and a name", i+1)
		}
	}
	return &cfg, nil
}

func seed(ctx context.Context, db *database.DB, catalog *CatalogFile) (seedStats, error) {
	var stats seedStats
	count := func(created bool) {
		if created {
			stats.created++
		} else {
			stats.updated++
		}
	}

	for i := range catalog.Locations {
		l := &catalog.Locations[i]
		created, err := db.UpsertLocation(ctx, &l.Location)
		if err != nil {
			return stats, fmt.Errorf("upsert location %s: %w", l.Slug, err)
		}
		count(created)

		for _, d := range l.BlockedDates {
			err := db.BlockDate(ctx, l.ID, d)
			if errors.Is(err, database.ErrDateBlocked) {
				continue
			}
			if err != nil {
				return stats, fmt.Errorf("block %s on %s: %w", d, l.Slug, err)
			}
			stats.blocked++
		}
	}

	for i := range catalog.Extras {
		e := &catalog.Extras[i]
		created, err := db.UpsertExtra(ctx, e)
		if err != nil {
			return stats, fmt.Errorf("upsert extra %s: %w", e.Name, err)
		}
		count(created)
	}
	return stats, nil
}
