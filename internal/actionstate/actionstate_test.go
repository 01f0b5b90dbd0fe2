package actionstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankramblings/socialfusion/internal/domain"
	apperrors "github.com/frankramblings/socialfusion/pkg/errors"
	"github.com/frankramblings/socialfusion/pkg/logger"
)

func testLogger() logger.Logger {
	return logger.New(logger.Opts{Env: "test"})
}

func snapshot(id string, unix int64, likes int) domain.PostActionState {
	return domain.PostActionState{
		ID:            id,
		Platform:      domain.PlatformMastodon,
		LikeCount:     likes,
		LastUpdatedAt: time.Unix(unix, 0).UTC(),
	}
}

func TestReconcile(t *testing.T) {
	t.Run("absent current adopts incoming", func(t *testing.T) {
		incoming := snapshot("m:a:1", 100, 5)
		result, adopted := Reconcile(nil, incoming)
		assert.True(t, adopted)
		assert.Equal(t, incoming, result)
	})

	t.Run("newer incoming wins wholesale", func(t *testing.T) {
		current := snapshot("m:a:1", 100, 5)
		incoming := snapshot("m:a:1", 200, 7)
		result, adopted := Reconcile(&current, incoming)
		assert.True(t, adopted)
		assert.Equal(t, incoming, result)
	})

	t.Run("equal timestamps adopt incoming", func(t *testing.T) {
		current := snapshot("m:a:1", 100, 5)
		incoming := snapshot("m:a:1", 100, 9)
		result, adopted := Reconcile(&current, incoming)
		assert.True(t, adopted)
		assert.Equal(t, 9, result.LikeCount)
	})

	t.Run("older incoming is suppressed", func(t *testing.T) {
		current := snapshot("m:a:1", 200, 7)
		incoming := snapshot("m:a:1", 100, 5)
		result, adopted := Reconcile(&current, incoming)
		assert.False(t, adopted)
		assert.Equal(t, current, result)
	})
}

func TestStoreMonotonicity(t *testing.T) {
	// Applied in any order, the store ends up holding exactly the
	// snapshot with the maximum timestamp.
	s := NewStore(testLogger())

	sequence := []domain.PostActionState{
		snapshot("m:a:1", 300, 9),
		snapshot("m:a:1", 100, 3),
		snapshot("m:a:1", 200, 6),
	}
	for _, snap := range sequence {
		s.Apply(snap)
	}

	held, ok := s.Get("m:a:1")
	require.True(t, ok)
	assert.Equal(t, sequence[0], held)
	assert.Equal(t, int64(2), s.StaleSuppressedCount())
}

func TestOptimisticToggles(t *testing.T) {
	t.Run("toggle like adjusts count and flag", func(t *testing.T) {
		s := NewStore(testLogger())
		s.now = func() time.Time { return time.Unix(1000, 0).UTC() }
		s.Apply(snapshot("m:a:1", 100, 5))

		held, err := s.ToggleLike("m:a:1")
		require.NoError(t, err)
		assert.True(t, held.IsLiked)
		assert.Equal(t, 6, held.LikeCount)
		assert.Equal(t, time.Unix(1000, 0).UTC(), held.LastUpdatedAt)
	})

	t.Run("late server snapshot never regresses a pending toggle", func(t *testing.T) {
		s := NewStore(testLogger())
		s.now = func() time.Time { return time.Unix(1000, 0).UTC() }
		s.Apply(snapshot("m:a:1", 100, 5))

		_, err := s.ToggleLike("m:a:1")
		require.NoError(t, err)

		// A server refresh from before the toggle arrives late.
		s.Apply(snapshot("m:a:1", 500, 5))

		held, _ := s.Get("m:a:1")
		assert.True(t, held.IsLiked)
		assert.Equal(t, 6, held.LikeCount)
		assert.Equal(t, int64(1), s.StaleSuppressedCount())
	})

	t.Run("unlike clamps count at zero", func(t *testing.T) {
		s := NewStore(testLogger())
		s.now = func() time.Time { return time.Unix(1000, 0).UTC() }

		seed := snapshot("m:a:1", 100, 0)
		seed.IsLiked = true
		s.Apply(seed)

		held, err := s.ToggleLike("m:a:1")
		require.NoError(t, err)
		assert.False(t, held.IsLiked)
		assert.Equal(t, 0, held.LikeCount)
	})

	t.Run("toggle repost", func(t *testing.T) {
		s := NewStore(testLogger())
		s.now = func() time.Time { return time.Unix(1000, 0).UTC() }
		s.Apply(snapshot("m:a:1", 100, 5))

		held, err := s.ToggleRepost("m:a:1")
		require.NoError(t, err)
		assert.True(t, held.IsReposted)
		assert.Equal(t, 1, held.RepostCount)

		held, err = s.ToggleRepost("m:a:1")
		require.NoError(t, err)
		assert.False(t, held.IsReposted)
		assert.Equal(t, 0, held.RepostCount)
	})

	t.Run("toggling an unknown post fails", func(t *testing.T) {
		s := NewStore(testLogger())
		_, err := s.ToggleLike("m:a:missing")
		assert.True(t, apperrors.IsNotFound(err))
	})
}
