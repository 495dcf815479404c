package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverIdempotencyStore uses the primary store and falls back to the
// secondary while the primary is failing, retrying it once a minute.
type FailoverIdempotencyStore struct {
	primary   domain.IdempotencyStore
	fallback  domain.IdempotencyStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverIdempotencyStore(primary, fallback domain.IdempotencyStore, logger *zerolog.Logger) *FailoverIdempotencyStore {
	return &FailoverIdempotencyStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if f.isDown.Load() && time.Since(time.Unix(0, f.lastCheck.Load())) > recoveryInterval {
		first, err := f.primary.MarkProcessed(ctx, key, ttl)
		if err == nil {
			f.isDown.Store(false)
			f.logger.Info().Msg("Primary idempotency store recovered")
			return first, nil
		}
		f.lastCheck.Store(time.Now().UnixNano())
	}

	if !f.isDown.Load() {
		first, err := f.primary.MarkProcessed(ctx, key, ttl)
		if err == nil {
			return first, nil
		}
		f.logger.Error().Err(err).Msg("Primary idempotency store failed, falling back to memory")
		f.isDown.Store(true)
		f.lastCheck.Store(time.Now().UnixNano())
	}

	return f.fallback.MarkProcessed(ctx, key, ttl)
}

// Forget clears key from both stores since a mark may live in either.
func (f *FailoverIdempotencyStore) Forget(ctx context.Context, key string) error {
	ferr := f.fallback.Forget(ctx, key)
	if f.isDown.Load() {
		return ferr
	}
	if err := f.primary.Forget(ctx, key); err != nil {
		return err
	}
	return ferr
}
