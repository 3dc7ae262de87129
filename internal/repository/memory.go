package repository

import (
	"context"
	"sync"
	"time"

	"crmdash/internal/session"
)

// MemorySessionRepository keeps sessions in process. It is used on its own
// when Redis is not configured and as the failover target otherwise.
type MemorySessionRepository struct {
	sessions sync.Map
	now      func() time.Time
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{now: time.Now}
}

func (r *MemorySessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	val, ok := r.sessions.Load(id)
	if !ok {
		return nil, nil
	}
	s := val.(*session.Session)
	if s.Expired(r.now()) {
		r.sessions.Delete(id)
		return nil, nil
	}
	return s, nil
}

func (r *MemorySessionRepository) Save(ctx context.Context, s *session.Session) error {
	r.sessions.Store(s.ID, s)
	return nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, id string) error {
	r.sessions.Delete(id)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (r *MemorySessionRepository) Sweep() int {
	now := r.now()
	removed := 0
	r.sessions.Range(func(key, val any) bool {
		if val.(*session.Session).Expired(now) {
			r.sessions.Delete(key)
			removed++
		}
		return true
	})
	return removed
}
