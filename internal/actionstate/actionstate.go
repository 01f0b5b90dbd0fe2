// Package actionstate keeps per-post engagement snapshots current under
// one rule: whole-snapshot last-writer-wins by LastUpdatedAt. Optimistic
// local toggles and authoritative server refreshes flow through the same
// path, so races between them resolve uniformly.
package actionstate

import (
	"sync"
	"time"

	"github.com/frankramblings/socialfusion/internal/domain"
	apperrors "github.com/frankramblings/socialfusion/pkg/errors"
	"github.com/frankramblings/socialfusion/pkg/logger"
)

// Reconcile picks between the held snapshot and an incoming one. Absent
// current adopts incoming; otherwise incoming wins iff its timestamp is
// not older. Snapshots are adopted wholesale, never field-merged, so a
// stale IsLiked can never pair with a fresh LikeCount.
//
// The second return is true when incoming was adopted.
func Reconcile(current *domain.PostActionState, incoming domain.PostActionState) (domain.PostActionState, bool) {
	if current == nil {
		return incoming, true
	}
	if incoming.LastUpdatedAt.Before(current.LastUpdatedAt) {
		return *current, false
	}
	return incoming, true
}

// Store is the reconciled engagement table, one snapshot per stable id.
type Store struct {
	mu              sync.Mutex
	states          map[string]domain.PostActionState
	staleSuppressed int64
	logger          logger.Logger
	now             func() time.Time
}

func NewStore(log logger.Logger) *Store {
	return &Store{
		states: make(map[string]domain.PostActionState),
		logger: log.WithComponent("ActionStateStore"),
		now:    time.Now,
	}
}

// Apply feeds one snapshot through Reconcile and returns the snapshot the
// store holds afterwards. A suppressed stale overwrite is counted and
// logged, never treated as a failure.
func (s *Store) Apply(incoming domain.PostActionState) domain.PostActionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(incoming)
}

func (s *Store) applyLocked(incoming domain.PostActionState) domain.PostActionState {
	var current *domain.PostActionState
	if held, ok := s.states[incoming.ID]; ok {
		current = &held
	}

	result, adopted := Reconcile(current, incoming)
	if !adopted {
		s.staleSuppressed++
		s.logger.Debug("Stale engagement snapshot suppressed",
			"post_id", incoming.ID,
			"incoming_at", incoming.LastUpdatedAt,
			"held_at", result.LastUpdatedAt,
		)
		return result
	}

	s.states[incoming.ID] = result
	return result
}

// Get returns the held snapshot for a post.
func (s *Store) Get(id string) (domain.PostActionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	held, ok := s.states[id]
	return held, ok
}

// StaleSuppressedCount reports how many stale overwrites were dropped.
func (s *Store) StaleSuppressedCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.staleSuppressed
}

// ToggleLike applies an optimistic like/unlike: flipped flag, count
// adjusted and clamped at zero, stamped with now, then reconciled like
// any other snapshot.
func (s *Store) ToggleLike(id string) (domain.PostActionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	held, ok := s.states[id]
	if !ok {
		return domain.PostActionState{}, apperrors.Wrap(apperrors.ErrNotFound, "no engagement state for post "+id)
	}

	next := held
	next.IsLiked = !held.IsLiked
	if next.IsLiked {
		next.LikeCount = held.LikeCount + 1
	} else {
		next.LikeCount = clampZero(held.LikeCount - 1)
	}
	next.LastUpdatedAt = s.now()

	return s.applyLocked(next), nil
}

// ToggleRepost applies an optimistic repost/unrepost.
func (s *Store) ToggleRepost(id string) (domain.PostActionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	held, ok := s.states[id]
	if !ok {
		return domain.PostActionState{}, apperrors.Wrap(apperrors.ErrNotFound, "no engagement state for post "+id)
	}

	next := held
	next.IsReposted = !held.IsReposted
	if next.IsReposted {
		next.RepostCount = held.RepostCount + 1
	} else {
		next.RepostCount = clampZero(held.RepostCount - 1)
	}
	next.LastUpdatedAt = s.now()

	return s.applyLocked(next), nil
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
