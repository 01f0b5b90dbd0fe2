package blueskyimpl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
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

type BlueskyImpl struct {
	httpClient *http.Client
	service    string
	accountDID string
	token      string
	logger     logger.Logger
}

func New(opts Opts) *BlueskyImpl {
	return &BlueskyImpl{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		service:    strings.TrimSuffix(opts.Config.Bluesky.Service, "/"),
		accountDID: opts.Config.Bluesky.AccountDID,
		token:      opts.Config.Bluesky.AccessToken,
		logger:     opts.Logger.WithComponent("BlueskyClient"),
	}
}

var _ platform.Client = (*BlueskyImpl)(nil)

func (b *BlueskyImpl) Platform() domain.Platform {
	return domain.PlatformBluesky
}

func (b *BlueskyImpl) AccountID() string {
	return b.accountDID
}

func (b *BlueskyImpl) InstanceDomain() string {
	u, err := url.Parse(b.service)
	if err != nil {
		return b.service
	}
	return u.Host
}

type timelineResponse struct {
	Feed   []*normalize.BlueskyFeedViewPost `json:"feed"`
	Cursor string                           `json:"cursor"`
}

// FetchTimeline returns one page of app.bsky.feed.getTimeline. Bluesky
// pages with an opaque cursor; sinceID has no wire equivalent, so the
// caller trims already-known posts after the merge dedupes them anyway.
func (b *BlueskyImpl) FetchTimeline(ctx context.Context, sinceID, pageToken string, limit int) (*platform.Page, error) {
	params := url.Values{}
	if pageToken != "" {
		params.Set("cursor", pageToken)
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}

	var resp timelineResponse
	if err := b.getJSON(ctx, "app.bsky.feed.getTimeline", params, &resp); err != nil {
		return nil, fmt.Errorf("bluesky timeline fetch: %w", err)
	}

	page := &platform.Page{
		Posts:         make([]normalize.NativePost, 0, len(resp.Feed)),
		HasNextPage:   resp.Cursor != "",
		NextPageToken: resp.Cursor,
	}
	for _, fvp := range resp.Feed {
		page.Posts = append(page.Posts, fvp)
	}
	return page, nil
}

type searchPostsResponse struct {
	Posts []normalize.BlueskyPostView `json:"posts"`
}

type searchActorsResponse struct {
	Actors []normalize.BlueskyActor `json:"actors"`
}

// Search executes one scope's query. Bluesky exposes scope-specific
// endpoints, so sibling evidence needs a second cheap probe against the
// other scope.
func (b *BlueskyImpl) Search(ctx context.Context, query string, scope domain.SearchScope) (*platform.SearchResult, error) {
	posts, err := b.searchPosts(ctx, query)
	if err != nil {
		return nil, err
	}
	actors, err := b.searchActors(ctx, query)
	if err != nil {
		return nil, err
	}

	counts := map[domain.SearchScope]int{
		domain.ScopePosts: len(posts),
		domain.ScopeUsers: len(actors),
		// Tag search rides on post search with a #-prefixed query.
		domain.ScopeTags: len(posts),
	}

	result := &platform.SearchResult{
		HasResults: counts[scope] > 0,
	}
	for s, n := range counts {
		if s != scope && n > 0 {
			result.HasOtherResults = true
		}
	}
	if scope == domain.ScopePosts || scope == domain.ScopeTags {
		result.Posts = make([]normalize.NativePost, 0, len(posts))
		for i := range posts {
			result.Posts = append(result.Posts, &normalize.BlueskyFeedViewPost{Post: posts[i]})
		}
	}
	return result, nil
}

func (b *BlueskyImpl) searchPosts(ctx context.Context, query string) ([]normalize.BlueskyPostView, error) {
	params := url.Values{}
	params.Set("q", query)

	var resp searchPostsResponse
	if err := b.getJSON(ctx, "app.bsky.feed.searchPosts", params, &resp); err != nil {
		return nil, fmt.Errorf("bluesky post search: %w", err)
	}
	return resp.Posts, nil
}

func (b *BlueskyImpl) searchActors(ctx context.Context, query string) ([]normalize.BlueskyActor, error) {
	params := url.Values{}
	params.Set("q", query)

	var resp searchActorsResponse
	if err := b.getJSON(ctx, "app.bsky.actor.searchActors", params, &resp); err != nil {
		return nil, fmt.Errorf("bluesky actor search: %w", err)
	}
	return resp.Actors, nil
}

type profileResponse struct {
	Viewer struct {
		Following  string `json:"following"`
		FollowedBy string `json:"followedBy"`
		Muted      bool   `json:"muted"`
		Blocking   string `json:"blocking"`
	} `json:"viewer"`
}

func (b *BlueskyImpl) Relationship(ctx context.Context, actorID string) (domain.RelationshipState, error) {
	params := url.Values{}
	params.Set("actor", actorID)

	var resp profileResponse
	if err := b.getJSON(ctx, "app.bsky.actor.getProfile", params, &resp); err != nil {
		return domain.RelationshipState{}, fmt.Errorf("bluesky profile fetch: %w", err)
	}

	return domain.RelationshipState{
		IsFollowing:  resp.Viewer.Following != "",
		IsFollowedBy: resp.Viewer.FollowedBy != "",
		IsMuting:     resp.Viewer.Muted,
		IsBlocking:   resp.Viewer.Blocking != "",
	}, nil
}

func (b *BlueskyImpl) getJSON(ctx context.Context, method string, params url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/xrpc/%s", b.service, method)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+b.token)

		resp, err := b.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, method)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	return retry.Do(ctx, b.logger, "bluesky "+method, operation, retry.DefaultConfig())
}
