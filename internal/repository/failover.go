package repository

import (
	"context"
	"sync/atomic"
	"time"

	"crmdash/internal/domain"
	"crmdash/internal/session"

	"github.com/rs/zerolog"
)

const primaryRetryInterval = time.Minute

// FailoverSessionRepository serves from the primary store and drops to the
// fallback after the first primary error. The primary is retried once per
// primaryRetryInterval.
type FailoverSessionRepository struct {
	primary   domain.SessionRepository
	fallback  domain.SessionRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *FailoverSessionRepository) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary session store failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
}

// usePrimary reports whether the next call should go to the primary store.
func (r *FailoverSessionRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return r.now().Sub(time.Unix(0, r.lastCheck.Load())) > primaryRetryInterval
}

func (r *FailoverSessionRepository) recovered() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary session store recovered")
	}
}

func (r *FailoverSessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	if r.usePrimary() {
		s, err := r.primary.Get(ctx, id)
		if err == nil {
			r.recovered()
			if s != nil {
				return s, nil
			}
			// Sessions created while the primary was down live only in the
			// fallback.
			return r.fallback.Get(ctx, id)
		}
		r.markDown(err)
	}
	return r.fallback.Get(ctx, id)
}

func (r *FailoverSessionRepository) Save(ctx context.Context, s *session.Session) error {
	if r.usePrimary() {
		err := r.primary.Save(ctx, s)
		if err == nil {
			r.recovered()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.Save(ctx, s)
}

// Delete removes the session from both stores so a logout is honored
// whichever store served the login.
func (r *FailoverSessionRepository) Delete(ctx context.Context, id string) error {
	fbErr := r.fallback.Delete(ctx, id)
	if r.usePrimary() {
		err := r.primary.Delete(ctx, id)
		if err == nil {
			r.recovered()
			return fbErr
		}
		r.markDown(err)
	}
	return fbErr
}

func (r *FailoverSessionRepository) IsDegraded() bool {
	return r.isDown.Load()
}
