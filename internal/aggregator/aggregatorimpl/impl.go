package aggregatorimpl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"

	"github.com/frankramblings/socialfusion/internal/actionstate"
	"github.com/frankramblings/socialfusion/internal/aggregator"
	"github.com/frankramblings/socialfusion/internal/capability"
	"github.com/frankramblings/socialfusion/internal/chat"
	"github.com/frankramblings/socialfusion/internal/domain"
	"github.com/frankramblings/socialfusion/internal/normalize"
	"github.com/frankramblings/socialfusion/internal/platform"
	"github.com/frankramblings/socialfusion/internal/previewcache"
	"github.com/frankramblings/socialfusion/internal/ratelimit"
	"github.com/frankramblings/socialfusion/internal/repositories/savedsearch"
	"github.com/frankramblings/socialfusion/internal/timeline"
	"github.com/frankramblings/socialfusion/pkg/config"
	apperrors "github.com/frankramblings/socialfusion/pkg/errors"
	"github.com/frankramblings/socialfusion/pkg/logger"
)

type Opts struct {
	fx.In

	Platforms       []platform.Client `group:"platforms"`
	Timeline        *timeline.Engine
	ActionState     *actionstate.Store
	Capabilities    *capability.Store
	ChatStream      *chat.Stream
	PreviewCache    *previewcache.Cache
	SavedSearchRepo savedsearch.Repository
	Logger          logger.Logger
	Config          *config.Config
}

type AggregatorImpl struct {
	clients         map[domain.Platform]platform.Client
	timeline        *timeline.Engine
	actionState     *actionstate.Store
	capabilities    *capability.Store
	chatStream      *chat.Stream
	previewCache    *previewcache.Cache
	savedSearchRepo savedsearch.Repository
	limiter         ratelimit.Limiter
	logger          logger.Logger
	config          *config.Config

	mu         sync.Mutex
	generation string
}

func New(opts Opts) *AggregatorImpl {
	clients := make(map[domain.Platform]platform.Client, len(opts.Platforms))
	for _, client := range opts.Platforms {
		clients[client.Platform()] = client
	}

	return &AggregatorImpl{
		clients:         clients,
		timeline:        opts.Timeline,
		actionState:     opts.ActionState,
		capabilities:    opts.Capabilities,
		chatStream:      opts.ChatStream,
		previewCache:    opts.PreviewCache,
		savedSearchRepo: opts.SavedSearchRepo,
		limiter:         ratelimit.NewInMemoryLimiter(1, 5*time.Second, 3),
		logger:          opts.Logger.WithComponent("Aggregator"),
		config:          opts.Config,
	}
}

var _ aggregator.Client = (*AggregatorImpl)(nil)

// RefreshTimeline fans out one concurrent fetch per backend. Each fetch
// hands its batch to the timeline engine as soon as it completes; the
// engine serializes the merges and merge order does not affect the final
// state. A refresh that has been superseded by a newer one discards its
// late batches instead of merging them.
func (a *AggregatorImpl) RefreshTimeline(ctx context.Context) (timeline.State, error) {
	generation := uuid.NewString()
	a.mu.Lock()
	a.generation = generation
	a.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, client := range a.clients {
		client := client
		g.Go(func() error {
			return a.refreshPlatform(gctx, client, generation)
		})
	}

	if err := g.Wait(); err != nil {
		// Per-platform failures are already logged; a partial refresh
		// still leaves the timeline valid.
		return a.timeline.Snapshot(), err
	}
	return a.timeline.Snapshot(), nil
}

func (a *AggregatorImpl) refreshPlatform(ctx context.Context, client platform.Client, generation string) error {
	accountID := client.AccountID()
	if !a.limiter.Allow(accountID) {
		a.logger.Debug("Refresh skipped by rate limiter", "platform", client.Platform(), "account_id", accountID)
		return nil
	}

	pageToken := ""
	for page := 0; page < a.config.Engine.MaxPages; page++ {
		fetched, err := client.FetchTimeline(ctx, "", pageToken, a.config.Engine.PageSize)
		if err != nil {
			a.logger.Error("Timeline fetch failed", "platform", client.Platform(), "error", err)
			return err
		}

		entries := a.normalizeBatch(client, fetched.Posts)

		if !a.isCurrent(generation) {
			a.logger.Debug("Discarding batch from superseded refresh",
				"platform", client.Platform(), "generation", generation)
			return nil
		}
		a.timeline.Merge(entries, true)

		if !fetched.HasNextPage {
			break
		}
		pageToken = fetched.NextPageToken
	}
	return nil
}

// normalizeBatch converts native posts, skipping malformed items; one bad
// post never blocks the rest of the batch. Engagement snapshots go to the
// reconciler here, independent of the timeline merge.
func (a *AggregatorImpl) normalizeBatch(client platform.Client, posts []normalize.NativePost) []domain.TimelineEntry {
	fetchedAt := time.Now()
	entries := make([]domain.TimelineEntry, 0, len(posts))
	for _, native := range posts {
		entry, actions, err := normalize.Entry(native, client.Platform(), client.AccountID(), fetchedAt)
		if err != nil {
			a.logger.Warn("Skipping malformed post", "platform", client.Platform(), "error", err)
			continue
		}
		entries = append(entries, entry)
		a.actionState.Apply(actions)
	}
	return entries
}

func (a *AggregatorImpl) isCurrent(generation string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation == generation
}

// Search runs one query, reports the outcome to the capability learner,
// and returns the normalized hits.
func (a *AggregatorImpl) Search(ctx context.Context, accountID, query string, scope domain.SearchScope) ([]domain.UnifiedPost, error) {
	client, err := a.clientForAccount(accountID)
	if err != nil {
		return nil, err
	}

	result, err := client.Search(ctx, query, scope)
	if err != nil {
		return nil, err
	}

	if _, err := a.capabilities.Record(ctx, accountID, client.InstanceDomain(), capability.Evidence{
		Scope:           scope,
		HasResults:      result.HasResults,
		HasOtherResults: result.HasOtherResults,
	}); err != nil {
		a.logger.Warn("Failed to record capability evidence", "account_id", accountID, "error", err)
	}

	posts := make([]domain.UnifiedPost, 0, len(result.Posts))
	for _, native := range result.Posts {
		post, err := normalize.Post(native, client.Platform(), accountID)
		if err != nil {
			a.logger.Warn("Skipping malformed search hit", "platform", client.Platform(), "error", err)
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (a *AggregatorImpl) clientForAccount(accountID string) (platform.Client, error) {
	for _, client := range a.clients {
		if client.AccountID() == accountID {
			return client, nil
		}
	}
	return nil, apperrors.Wrap(apperrors.ErrNotFound, fmt.Sprintf("no client for account %s", accountID))
}

// ApplyChatEvent folds one live backend event into its conversation
// stream.
func (a *AggregatorImpl) ApplyChatEvent(ev domain.UnifiedChatEvent) bool {
	return a.chatStream.Apply(ev)
}

// ScheduleRefresh starts the periodic timeline refresh job.
func (a *AggregatorImpl) ScheduleRefresh(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create refresh scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(a.config.Engine.RefreshInterval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			refreshCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()

			state, err := a.RefreshTimeline(refreshCtx)
			if err != nil {
				a.logger.Error("Scheduled refresh failed", "error", err)
				return
			}
			a.logger.Info("Timeline refreshed",
				"entries", len(state.Entries),
				"unread", state.UnreadCount,
			)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule timeline refresh: %w", err)
	}

	scheduler.Start()
	a.shutdownOnDone(ctx, scheduler, "refresh")
	return nil
}

// ScheduleMaintenance runs the daily cleanup: expired preview-cache
// entries and saved searches unused for 90 days.
func (a *AggregatorImpl) ScheduleMaintenance(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create maintenance scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0)),
		),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}

			dropped := a.previewCache.Sweep()
			a.logger.Info("Preview cache swept", "dropped", dropped)

			cleanupCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()

			const staleSavedSearch = 90 * 24 * time.Hour
			rows, err := a.savedSearchRepo.CleanupOldRecords(cleanupCtx, staleSavedSearch)
			if err != nil {
				a.logger.Error("Failed to clean up stale saved searches", "error", err)
				return
			}
			a.logger.Info("Stale saved searches removed", "rows_deleted", rows)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule maintenance: %w", err)
	}

	scheduler.Start()
	a.shutdownOnDone(ctx, scheduler, "maintenance")
	return nil
}

func (a *AggregatorImpl) shutdownOnDone(ctx context.Context, scheduler gocron.Scheduler, name string) {
	go func() {
		<-ctx.Done()
		a.logger.Info("Stopping scheduler", "scheduler", name)
		if err := scheduler.Shutdown(); err != nil {
			a.logger.Error("Failed to shut down scheduler", "scheduler", name, "error", err)
		}
	}()
}
