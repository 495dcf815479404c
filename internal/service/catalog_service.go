package service

import (
	"context"
	"fmt"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/domain"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"

	"github.com/rs/zerolog"
)

type CatalogService struct {
	repo   domain.CatalogRepository
	cache  domain.CatalogCache
	rules  BookingRules
	now    func() time.Time
	logger *zerolog.Logger
}

// NewCatalogService builds the public catalog reader. cache may be nil.
func NewCatalogService(repo domain.CatalogRepository, cache domain.CatalogCache, rules BookingRules, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		cache:  cache,
		rules:  rules,
		now:    time.Now,
		logger: logger,
	}
}

// ListLocations returns active locations with their upcoming blocked dates.
func (s *CatalogService) ListLocations(ctx context.Context) ([]*models.Location, error) {
	if s.cache != nil {
		locs, ok, err := s.cache.GetLocations(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("catalog cache read failed")
		} else if ok {
			return locs, nil
		}
	}

	since := s.rules.Today(s.now()).Format(models.DateLayout)
	locs, err := s.repo.ListActiveLocations(ctx, since)
	if err != nil {
		return nil, err
	}
	if locs == nil {
		locs = []*models.Location{}
	}

	if s.cache != nil {
		if err := s.cache.SetLocations(ctx, locs); err != nil {
			s.logger.Warn().Err(err).Msg("catalog cache write failed")
		}
	}
	return locs, nil
}

func (s *CatalogService) ListExtras(ctx context.Context) ([]*models.Extra, error) {
	if s.cache != nil {
		extras, ok, err := s.cache.GetExtras(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("catalog cache read failed")
		} else if ok {
			return extras, nil
		}
	}

	extras, err := s.repo.ListActiveExtras(ctx)
	if err != nil {
		return nil, err
	}
	if extras == nil {
		extras = []*models.Extra{}
	}

	if s.cache != nil {
		if err := s.cache.SetExtras(ctx, extras); err != nil {
			s.logger.Warn().Err(err).Msg("catalog cache write failed")
		}
	}
	return extras, nil
}

// Availability flags each day in [from, from+days) for the location. An
// empty from means today; days <= 0 means the default window.
func (s *CatalogService) Availability(ctx context.Context, locationID int64, from string, days int) ([]models.DayAvailability, error) {
	if _, err := s.repo.GetLocation(ctx, locationID); err != nil {
		return nil, err
	}

	start := s.rules.Today(s.now())
	if from != "" {
		t, err := time.ParseInLocation(models.DateLayout, from, s.rules.location())
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, from)
		}
		start = t
	}
	if days <= 0 {
		days = models.DefaultAvailabilityDays
	}
	if days > models.MaxAvailabilityDays {
		days = models.MaxAvailabilityDays
	}

	end := start.AddDate(0, 0, days-1)
	blocked, err := s.repo.BlockedDatesBetween(ctx, locationID, start.Format(models.DateLayout), end.Format(models.DateLayout))
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(blocked))
	for _, d := range blocked {
		set[d] = true
	}

	out := make([]models.DayAvailability, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(models.DateLayout)
		out = append(out, models.DayAvailability{Date: key, Blocked: set[key]})
	}
	return out, nil
}

// Invalidate drops cached listings after the catalog or its blocked dates change.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}
