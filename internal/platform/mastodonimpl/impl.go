package mastodonimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/fx"

	"github.com/frankramblings/socialfusion/internal/domain"
	"github.com/frankramblings/socialfusion/internal/normalize"
	"github.com/frankramblings/socialfusion/internal/platform"
	"github.com/frankramblings/socialfusion/pkg/config"
	"github.com/frankramblings/socialfusion/pkg/logger"
	"github.com/frankramblings/socialfusion/pkg/retry"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

type MastodonImpl struct {
	httpClient *http.Client
	instance   string
	accountID  string
	token      string
	logger     logger.Logger
}

func New(opts Opts) *MastodonImpl {
	return &MastodonImpl{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		instance:   opts.Config.Mastodon.Instance,
		accountID:  opts.Config.Mastodon.AccountID,
		token:      opts.Config.Mastodon.AccessToken,
		logger:     opts.Logger.WithComponent("MastodonClient"),
	}
}

var _ platform.Client = (*MastodonImpl)(nil)

func (m *MastodonImpl) Platform() domain.Platform {
	return domain.PlatformMastodon
}

func (m *MastodonImpl) AccountID() string {
	return m.accountID
}

func (m *MastodonImpl) InstanceDomain() string {
	return m.instance
}

// FetchTimeline returns one page of the home timeline. Mastodon pages
// with max_id; the page token is the id of the oldest status seen.
func (m *MastodonImpl) FetchTimeline(ctx context.Context, sinceID, pageToken string, limit int) (*platform.Page, error) {
	params := url.Values{}
	if sinceID != "" {
		params.Set("since_id", sinceID)
	}
	if pageToken != "" {
		params.Set("max_id", pageToken)
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var statuses []*normalize.MastodonStatus
	if err := m.getJSON(ctx, "/api/v1/timelines/home", params, &statuses); err != nil {
		return nil, fmt.Errorf("mastodon timeline fetch: %w", err)
	}

	page := &platform.Page{
		Posts: make([]normalize.NativePost, 0, len(statuses)),
	}
	for _, status := range statuses {
		page.Posts = append(page.Posts, status)
	}
	if limit > 0 && len(statuses) == limit {
		page.HasNextPage = true
		page.NextPageToken = statuses[len(statuses)-1].ID
	}
	return page, nil
}

type searchResponse struct {
	Accounts []json.RawMessage           `json:"accounts"`
	Statuses []*normalize.MastodonStatus `json:"statuses"`
	Hashtags []json.RawMessage           `json:"hashtags"`
}

// Search runs one v2 search and reports the evidence the capability
// learner needs: whether the requested scope had results and whether the
// sibling scopes of the same query did.
func (m *MastodonImpl) Search(ctx context.Context, query string, scope domain.SearchScope) (*platform.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)

	var resp searchResponse
	if err := m.getJSON(ctx, "/api/v2/search", params, &resp); err != nil {
		return nil, fmt.Errorf("mastodon search: %w", err)
	}

	counts := map[domain.SearchScope]int{
		domain.ScopePosts: len(resp.Statuses),
		domain.ScopeUsers: len(resp.Accounts),
		domain.ScopeTags:  len(resp.Hashtags),
	}

	result := &platform.SearchResult{
		HasResults: counts[scope] > 0,
	}
	for s, n := range counts {
		if s != scope && n > 0 {
			result.HasOtherResults = true
		}
	}
	if scope == domain.ScopePosts {
		result.Posts = make([]normalize.NativePost, 0, len(resp.Statuses))
		for _, status := range resp.Statuses {
			result.Posts = append(result.Posts, status)
		}
	}
	return result, nil
}

type relationshipResponse struct {
	Following  bool `json:"following"`
	FollowedBy bool `json:"followed_by"`
	Muting     bool `json:"muting"`
	Blocking   bool `json:"blocking"`
	Requested  bool `json:"requested"`
}

func (m *MastodonImpl) Relationship(ctx context.Context, actorID string) (domain.RelationshipState, error) {
	params := url.Values{}
	params.Set("id[]", actorID)

	var resp []relationshipResponse
	if err := m.getJSON(ctx, "/api/v1/accounts/relationships", params, &resp); err != nil {
		return domain.RelationshipState{}, fmt.Errorf("mastodon relationship fetch: %w", err)
	}
	if len(resp) == 0 {
		return domain.RelationshipState{}, nil
	}

	r := resp[0]
	return domain.RelationshipState{
		IsFollowing:     r.Following,
		IsFollowedBy:    r.FollowedBy,
		IsMuting:        r.Muting,
		IsBlocking:      r.Blocking,
		FollowRequested: r.Requested,
	}, nil
}

func (m *MastodonImpl) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := fmt.Sprintf("https://%s%s", m.instance, path)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+m.token)

		resp, err := m.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	return retry.Do(ctx, m.logger, "mastodon "+path, operation, retry.DefaultConfig())
}
