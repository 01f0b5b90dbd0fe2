// Package platform defines the fetch collaborator boundary. Each backend
// adapter delivers platform-native posts; the engine only ever touches
// them through the normalize package.
package platform

import (
	"context"

	"github.com/frankramblings/socialfusion/internal/domain"
	"github.com/frankramblings/socialfusion/internal/normalize"
)

// Page is one fetched slice of a timeline. NextPageToken is opaque to
// everything but the client that produced it.
type Page struct {
	Posts         []normalize.NativePost
	HasNextPage   bool
	NextPageToken string
}

// SearchResult reports one executed search: the native hits in the
// requested scope plus the capability evidence the query produced.
type SearchResult struct {
	Posts           []normalize.NativePost
	HasResults      bool
	HasOtherResults bool
}

type Client interface {
	Platform() domain.Platform

	// AccountID identifies the authenticated account this client fetches for.
	AccountID() string

	// InstanceDomain names the backend instance, used for capability records.
	InstanceDomain() string

	// FetchTimeline returns one page of the home timeline. sinceID limits
	// the fetch to posts newer than a known id; pageToken continues an
	// earlier page. Both may be empty.
	FetchTimeline(ctx context.Context, sinceID, pageToken string, limit int) (*Page, error)

	// Search executes a query in one scope and reports the evidence needed
	// by the capability learner.
	Search(ctx context.Context, query string, scope domain.SearchScope) (*SearchResult, error)

	// Relationship fetches the relationship flags toward another actor.
	Relationship(ctx context.Context, actorID string) (domain.RelationshipState, error)
}
