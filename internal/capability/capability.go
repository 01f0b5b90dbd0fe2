// Package capability learns, per account and per search scope, whether a
// backend actually supports a search mode. Backends do not advertise
// this; it is inferred from observed query outcomes.
package capability

import (
	"context"
	"sync"
	"time"

	"github.com/frankramblings/socialfusion/internal/domain"
	"github.com/frankramblings/socialfusion/internal/repositories/capabilities"
	apperrors "github.com/frankramblings/socialfusion/pkg/errors"
	"github.com/frankramblings/socialfusion/pkg/logger"
)

// Evidence is what one executed search reports back: whether the queried
// scope had results, and whether sibling scopes of the same query did.
type Evidence struct {
	Scope           domain.SearchScope
	HasResults      bool
	HasOtherResults bool
}

// Next is the pure transition function for a single capability.
//
// Posts scope: results prove support; an empty scope next to non-empty
// siblings is evidence the backend works but this scope does not; an
// all-empty query is inconclusive and leaves the state unchanged (the
// query may simply match nothing anywhere). Users and tags scopes are
// deterministic enough that an empty result is itself a negative signal.
// No state is terminal: instance configuration can change, so yes and no
// both stay re-enterable.
func Next(current domain.CapabilitySupport, ev Evidence) domain.CapabilitySupport {
	switch ev.Scope {
	case domain.ScopePosts:
		if ev.HasResults {
			return domain.SupportYes
		}
		if ev.HasOtherResults {
			return domain.SupportLikelyNo
		}
		return current
	case domain.ScopeUsers, domain.ScopeTags:
		if ev.HasResults {
			return domain.SupportYes
		}
		return domain.SupportNo
	default:
		return current
	}
}

// Apply folds one piece of evidence into a capability record and stamps
// LastChecked.
func Apply(caps domain.SearchCapabilities, ev Evidence, now time.Time) domain.SearchCapabilities {
	switch ev.Scope {
	case domain.ScopePosts:
		caps.StatusSearch = Next(caps.StatusSearch, ev)
	case domain.ScopeUsers:
		caps.AccountSearch = Next(caps.AccountSearch, ev)
	case domain.ScopeTags:
		caps.HashtagSearch = Next(caps.HashtagSearch, ev)
	}
	caps.LastChecked = now
	return caps
}

// Store holds the per-account capability table and writes every update
// through the persistence collaborator.
type Store struct {
	mu        sync.Mutex
	byAccount map[string]domain.SearchCapabilities
	repo      capabilities.Repository
	logger    logger.Logger
	now       func() time.Time
}

func NewStore(repo capabilities.Repository, log logger.Logger) *Store {
	return &Store{
		byAccount: make(map[string]domain.SearchCapabilities),
		repo:      repo,
		logger:    log.WithComponent("CapabilityStore"),
		now:       time.Now,
	}
}

// Warm loads previously persisted capability records into memory.
func (s *Store) Warm(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	all, err := s.repo.GetAll(ctx)
	if err != nil {
		return apperrors.Wrap(err, "failed to warm capability store")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, caps := range all {
		s.byAccount[caps.AccountID] = *caps
	}
	s.logger.Info("Capability store warmed", "accounts", len(all))
	return nil
}

// Record folds the evidence of one executed search into the account's
// record, creating it on first query, and persists the result.
func (s *Store) Record(ctx context.Context, accountID, instanceDomain string, ev Evidence) (domain.SearchCapabilities, error) {
	s.mu.Lock()
	caps, ok := s.byAccount[accountID]
	if !ok {
		caps = domain.NewSearchCapabilities(accountID, instanceDomain)
	}
	caps = Apply(caps, ev, s.now())
	s.byAccount[accountID] = caps
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Upsert(ctx, caps); err != nil {
			// The in-memory table is still authoritative for this session.
			s.logger.Warn("Failed to persist capability record", "account_id", accountID, "error", err)
		}
	}

	return caps, nil
}

// Get returns the capability record for an account, if one exists yet.
func (s *Store) Get(accountID string) (domain.SearchCapabilities, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	caps, ok := s.byAccount[accountID]
	return caps, ok
}
