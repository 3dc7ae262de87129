package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"crmdash/internal/session"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Get(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *mockRepo) Save(ctx context.Context, s *session.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestFailoverSessionRepository(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	t.Run("PrimaryHealthy", func(t *testing.T) {
		primary := new(mockRepo)
		fallback := NewMemorySessionRepository()
		repo := NewFailoverSessionRepository(primary, fallback, &logger)

		sess := newSession("p1", time.Hour)
		primary.On("Save", ctx, sess).Return(nil).Once()
		primary.On("Get", ctx, "p1").Return(sess, nil).Once()

		require.NoError(t, repo.Save(ctx, sess))
		got, err := repo.Get(ctx, "p1")
		require.NoError(t, err)
		assert.Same(t, sess, got)
		assert.False(t, repo.IsDegraded())
		primary.AssertExpectations(t)

		fromFallback, _ := fallback.Get(ctx, "p1")
		assert.Nil(t, fromFallback)
	})

	t.Run("FallsBackAndRecovers", func(t *testing.T) {
		primary := new(mockRepo)
		fallback := NewMemorySessionRepository()
		repo := NewFailoverSessionRepository(primary, fallback, &logger)
		now := time.Now()
		repo.now = func() time.Time { return now }

		sess := newSession("f1", time.Hour)
		primary.On("Save", ctx, sess).Return(errors.New("connection refused")).Once()
		require.NoError(t, repo.Save(ctx, sess))
		assert.True(t, repo.IsDegraded())

		// Primary is not retried inside the window.
		got, err := repo.Get(ctx, "f1")
		require.NoError(t, err)
		assert.Same(t, sess, got)

		now = now.Add(2 * time.Minute)
		primary.On("Get", ctx, "f1").Return(nil, nil).Once()
		got, err = repo.Get(ctx, "f1")
		require.NoError(t, err)
		assert.Same(t, sess, got, "session created during the outage is still found")
		assert.False(t, repo.IsDegraded())
		primary.AssertExpectations(t)
	})

	t.Run("DeleteHitsBothStores", func(t *testing.T) {
		primary := new(mockRepo)
		fallback := NewMemorySessionRepository()
		repo := NewFailoverSessionRepository(primary, fallback, &logger)

		sess := newSession("d1", time.Hour)
		require.NoError(t, fallback.Save(ctx, sess))
		primary.On("Delete", ctx, "d1").Return(nil).Once()

		require.NoError(t, repo.Delete(ctx, "d1"))
		got, _ := fallback.Get(ctx, "d1")
		assert.Nil(t, got)
		primary.AssertExpectations(t)
	})

	t.Run("DeleteWithPrimaryDown", func(t *testing.T) {
		primary := new(mockRepo)
		repo := NewFailoverSessionRepository(primary, NewMemorySessionRepository(), &logger)

		primary.On("Delete", ctx, "d2").Return(errors.New("timeout")).Once()
		assert.NoError(t, repo.Delete(ctx, "d2"))
		assert.True(t, repo.IsDegraded())
	})
}
