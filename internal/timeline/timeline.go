// Package timeline owns the unified, stably-ordered timeline and its
// read/unread and scroll-anchor bookkeeping. Merges are commutative and
// idempotent, so independent platform fetches can land in any order and
// converge on the same state.
package timeline

import (
	"sort"
	"sync"

	"github.com/frankramblings/socialfusion/internal/domain"
	"github.com/frankramblings/socialfusion/pkg/logger"
)

// State is a point-in-time snapshot of the timeline. Entries are ordered
// by CreatedAt descending, ties broken by stable id ascending.
// UnreadCount is always derived from Entries, never carried separately.
type State struct {
	Entries        []domain.TimelineEntry
	UnreadCount    int
	ScrollAnchorID string
	LastKnownTopID string
}

// Entry looks up an entry by stable id.
func (s State) Entry(id string) (domain.TimelineEntry, bool) {
	for _, e := range s.Entries {
		if e.ID() == id {
			return e, true
		}
	}
	return domain.TimelineEntry{}, false
}

// Engine serializes all mutations of the timeline. Fetches from distinct
// backends complete concurrently; each hands its batch to Merge as one
// discrete read-modify-write under the engine mutex.
type Engine struct {
	mu     sync.Mutex
	state  State
	logger logger.Logger
}

func NewEngine(log logger.Logger) *Engine {
	return &Engine{
		logger: log.WithComponent("TimelineEngine"),
	}
}

// Merge folds incoming entries into the timeline and returns the
// resulting snapshot.
//
// When an identity exists on both sides the incoming content wins but the
// stored IsRead flag survives; a refetch never resets read state. Entries
// absent from the incoming batch are kept: a batch is a partial upsert,
// never a replace (see Reset). When preservePosition is set and the saved
// scroll anchor vanished from the merged timeline, the anchor is cleared
// and the caller falls back to top.
func (e *Engine) Merge(incoming []domain.TimelineEntry, preservePosition bool) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Entries = mergeEntries(e.state.Entries, incoming)
	e.state.UnreadCount = countUnread(e.state.Entries)

	if len(e.state.Entries) > 0 {
		e.state.LastKnownTopID = e.state.Entries[0].ID()
	}

	if preservePosition && e.state.ScrollAnchorID != "" {
		if _, ok := e.state.Entry(e.state.ScrollAnchorID); !ok {
			e.logger.Debug("Scroll anchor gone after merge, falling back to top",
				"anchor_id", e.state.ScrollAnchorID)
			e.state.ScrollAnchorID = ""
		}
	}

	return e.snapshotLocked()
}

// Reset replaces the whole timeline, e.g. on a full pull-to-refresh.
// Read flags still survive for identities present before the reset.
func (e *Engine) Reset(incoming []domain.TimelineEntry) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Entries = mergeEntries(nil, carryReadFlags(e.state.Entries, incoming))
	e.state.UnreadCount = countUnread(e.state.Entries)
	if len(e.state.Entries) > 0 {
		e.state.LastKnownTopID = e.state.Entries[0].ID()
	} else {
		e.state.LastKnownTopID = ""
	}
	if e.state.ScrollAnchorID != "" {
		if _, ok := e.state.Entry(e.state.ScrollAnchorID); !ok {
			e.state.ScrollAnchorID = ""
		}
	}
	return e.snapshotLocked()
}

// MarkRead marks one entry read. Idempotent; unknown ids are ignored.
func (e *Engine) MarkRead(id string) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.state.Entries {
		if e.state.Entries[i].ID() == id && !e.state.Entries[i].IsRead {
			e.state.Entries[i].IsRead = true
			break
		}
	}
	e.state.UnreadCount = countUnread(e.state.Entries)
	return e.snapshotLocked()
}

// MarkAllRead marks every entry read. Idempotent.
func (e *Engine) MarkAllRead() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.state.Entries {
		e.state.Entries[i].IsRead = true
	}
	e.state.UnreadCount = 0
	return e.snapshotLocked()
}

// SaveScrollPosition records the anchor unconditionally, even for an id
// not currently present, so the position can be restored after a later
// merge reintroduces it.
func (e *Engine) SaveScrollPosition(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.ScrollAnchorID = id
}

// RestoreScrollPosition returns the saved anchor verbatim.
func (e *Engine) RestoreScrollPosition() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.ScrollAnchorID
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() State {
	out := e.state
	out.Entries = make([]domain.TimelineEntry, len(e.state.Entries))
	copy(out.Entries, e.state.Entries)
	return out
}

// mergeEntries unions existing and incoming by stable id. Incoming
// content wins, stored read flags win. The result is re-sorted from
// scratch, which is what makes the merge commutative and idempotent.
func mergeEntries(existing, incoming []domain.TimelineEntry) []domain.TimelineEntry {
	byID := make(map[string]domain.TimelineEntry, len(existing)+len(incoming))
	for _, entry := range existing {
		byID[entry.ID()] = entry
	}
	for _, entry := range incoming {
		if stored, ok := byID[entry.ID()]; ok {
			entry.IsRead = stored.IsRead
		}
		byID[entry.ID()] = entry
	}

	merged := make([]domain.TimelineEntry, 0, len(byID))
	for _, entry := range byID {
		merged = append(merged, entry)
	}
	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].CreatedAt.After(merged[j].CreatedAt)
		}
		return merged[i].ID() < merged[j].ID()
	})
	return merged
}

// carryReadFlags applies existing read flags onto incoming entries
// without keeping entries that are absent from incoming.
func carryReadFlags(existing, incoming []domain.TimelineEntry) []domain.TimelineEntry {
	read := make(map[string]bool, len(existing))
	for _, entry := range existing {
		if entry.IsRead {
			read[entry.ID()] = true
		}
	}
	out := make([]domain.TimelineEntry, len(incoming))
	for i, entry := range incoming {
		if read[entry.ID()] {
			entry.IsRead = true
		}
		out[i] = entry
	}
	return out
}

func countUnread(entries []domain.TimelineEntry) int {
	n := 0
	for _, entry := range entries {
		if !entry.IsRead {
			n++
		}
	}
	return n
}
