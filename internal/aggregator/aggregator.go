package aggregator

import (
	"context"

	"github.com/frankramblings/socialfusion/internal/domain"
	"github.com/frankramblings/socialfusion/internal/timeline"
)

type Client interface {
	// RefreshTimeline fans out to every configured backend, merges each
	// completed fetch into the timeline, and returns the final state.
	RefreshTimeline(ctx context.Context) (timeline.State, error)

	// Search runs a query against one account's backend, records the
	// capability evidence it produced, and returns the normalized hits.
	Search(ctx context.Context, accountID, query string, scope domain.SearchScope) ([]domain.UnifiedPost, error)

	// ApplyChatEvent folds one live backend event into its conversation
	// stream. Returns false when the event was a dropped duplicate.
	ApplyChatEvent(ev domain.UnifiedChatEvent) bool

	// ScheduleRefresh starts the periodic timeline refresh job.
	ScheduleRefresh(ctx context.Context) error

	// ScheduleMaintenance starts the daily preview-cache sweep and
	// saved-search cleanup job.
	ScheduleMaintenance(ctx context.Context) error
}
