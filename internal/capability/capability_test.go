package capability

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankramblings/socialfusion/internal/domain"
	"github.com/frankramblings/socialfusion/pkg/logger"
)

func testLogger() logger.Logger {
	return logger.New(logger.Opts{Env: "test"})
}

// fakeRepo is an in-memory stand-in for the persistence collaborator.
type fakeRepo struct {
	mu      sync.Mutex
	records map[string]domain.SearchCapabilities
	upserts int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]domain.SearchCapabilities)}
}

func (f *fakeRepo) Upsert(_ context.Context, caps domain.SearchCapabilities) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[caps.AccountID] = caps
	f.upserts++
	return nil
}

func (f *fakeRepo) GetByAccountID(_ context.Context, accountID string) (*domain.SearchCapabilities, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	caps, ok := f.records[accountID]
	if !ok {
		return nil, nil
	}
	return &caps, nil
}

func (f *fakeRepo) GetAll(_ context.Context) ([]*domain.SearchCapabilities, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.SearchCapabilities, 0, len(f.records))
	for _, caps := range f.records {
		c := caps
		out = append(out, &c)
	}
	return out, nil
}

func TestNextTransitions(t *testing.T) {
	cases := []struct {
		name    string
		current domain.CapabilitySupport
		ev      Evidence
		want    domain.CapabilitySupport
	}{
		{
			name:    "posts with results proves support",
			current: domain.SupportUnknown,
			ev:      Evidence{Scope: domain.ScopePosts, HasResults: true, HasOtherResults: true},
			want:    domain.SupportYes,
		},
		{
			name:    "empty posts next to non-empty siblings is negative evidence",
			current: domain.SupportUnknown,
			ev:      Evidence{Scope: domain.ScopePosts, HasResults: false, HasOtherResults: true},
			want:    domain.SupportLikelyNo,
		},
		{
			name:    "all-empty query is inconclusive",
			current: domain.SupportUnknown,
			ev:      Evidence{Scope: domain.ScopePosts, HasResults: false, HasOtherResults: false},
			want:    domain.SupportUnknown,
		},
		{
			name:    "likelyNo recovers on later results",
			current: domain.SupportLikelyNo,
			ev:      Evidence{Scope: domain.ScopePosts, HasResults: true, HasOtherResults: true},
			want:    domain.SupportYes,
		},
		{
			name:    "no is not terminal",
			current: domain.SupportNo,
			ev:      Evidence{Scope: domain.ScopeUsers, HasResults: true},
			want:    domain.SupportYes,
		},
		{
			name:    "empty users scope is a negative signal on its own",
			current: domain.SupportYes,
			ev:      Evidence{Scope: domain.ScopeUsers, HasResults: false, HasOtherResults: true},
			want:    domain.SupportNo,
		},
		{
			name:    "empty tags scope is a negative signal on its own",
			current: domain.SupportUnknown,
			ev:      Evidence{Scope: domain.ScopeTags, HasResults: false},
			want:    domain.SupportNo,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Next(tc.current, tc.ev))
		})
	}
}

func TestApply(t *testing.T) {
	now := time.Unix(5000, 0).UTC()
	caps := domain.NewSearchCapabilities("acct-1", "mastodon.example")

	caps = Apply(caps, Evidence{Scope: domain.ScopePosts, HasResults: false, HasOtherResults: true}, now)
	assert.Equal(t, domain.SupportLikelyNo, caps.StatusSearch)
	assert.Equal(t, domain.SupportUnknown, caps.AccountSearch)
	assert.Equal(t, now, caps.LastChecked)

	t.Run("warning follows status search state", func(t *testing.T) {
		assert.True(t, caps.ShouldShowStatusSearchWarning())

		recovered := Apply(caps, Evidence{Scope: domain.ScopePosts, HasResults: true}, now)
		assert.False(t, recovered.ShouldShowStatusSearchWarning())
	})
}

func TestStore(t *testing.T) {
	t.Run("record creates on first query and persists", func(t *testing.T) {
		repo := newFakeRepo()
		s := NewStore(repo, testLogger())
		s.now = func() time.Time { return time.Unix(7000, 0).UTC() }

		caps, err := s.Record(context.Background(), "acct-1", "mastodon.example",
			Evidence{Scope: domain.ScopeUsers, HasResults: true})
		require.NoError(t, err)
		assert.Equal(t, domain.SupportYes, caps.AccountSearch)
		assert.Equal(t, time.Unix(7000, 0).UTC(), caps.LastChecked)
		assert.Equal(t, 1, repo.upserts)

		held, ok := s.Get("acct-1")
		require.True(t, ok)
		assert.Equal(t, caps, held)
	})

	t.Run("warm loads persisted records", func(t *testing.T) {
		repo := newFakeRepo()
		seeded := domain.NewSearchCapabilities("acct-2", "bsky.social")
		seeded.StatusSearch = domain.SupportNo
		require.NoError(t, repo.Upsert(context.Background(), seeded))

		s := NewStore(repo, testLogger())
		require.NoError(t, s.Warm(context.Background()))

		held, ok := s.Get("acct-2")
		require.True(t, ok)
		assert.Equal(t, domain.SupportNo, held.StatusSearch)
	})

	t.Run("evidence accumulates per account", func(t *testing.T) {
		s := NewStore(nil, testLogger())

		_, err := s.Record(context.Background(), "acct-3", "mastodon.example",
			Evidence{Scope: domain.ScopePosts, HasResults: false, HasOtherResults: true})
		require.NoError(t, err)

		caps, err := s.Record(context.Background(), "acct-3", "mastodon.example",
			Evidence{Scope: domain.ScopePosts, HasResults: true, HasOtherResults: true})
		require.NoError(t, err)
		assert.Equal(t, domain.SupportYes, caps.StatusSearch)
	})
}
