package domain

import "time"

type EntryKind string

const (
	KindNormal EntryKind = "normal"
	KindBoost  EntryKind = "boost"
	KindReply  EntryKind = "reply"
)

// TimelineEntry wraps a UnifiedPost for display in the unified timeline.
// CreatedAt is the ordering timestamp and may differ from the wrapped
// post's own time: a boost is ordered by when it was boosted, not by when
// the boosted post was written. IsRead is owned by the timeline engine.
type TimelineEntry struct {
	Post      UnifiedPost
	Kind      EntryKind
	BoostedBy string // handle of the booster, set when Kind == KindBoost
	ParentID  string // stable id of the parent, set when Kind == KindReply
	CreatedAt time.Time
	IsRead    bool
}

func (e TimelineEntry) ID() string {
	return e.Post.ID
}
