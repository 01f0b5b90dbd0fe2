// Package chat unifies heterogeneous live events from multiple backends
// into ordered, keyed per-conversation streams. Structurally this is the
// timeline merge discipline applied to an append-only stream: identity
// first, then order.
package chat

import (
	"fmt"
	"sort"
	"sync"

	"github.com/frankramblings/socialfusion/internal/domain"
	"github.com/frankramblings/socialfusion/pkg/logger"
)

// Route returns the conversation an event belongs to.
func Route(ev domain.UnifiedChatEvent) string {
	return ev.ConversationID
}

// DedupeKey composes the identity a redelivered event collapses on.
//
// Messages and deletions key by message id. Conversation updates key by
// (conversation, kind): a conversation can be started once and left once,
// and both are distinct meaningful events. Read receipts key by
// (conversation, account) and typing by (conversation, sender), since
// only the latest of each matters. Reactions key by (message, reactor,
// value) so distinct reaction values from the same source are retained.
func DedupeKey(ev domain.UnifiedChatEvent) string {
	switch ev.Kind {
	case domain.ChatEventMessageNew:
		return "msg:" + ev.MessageID
	case domain.ChatEventMessageDeleted:
		return "del:" + ev.MessageID
	case domain.ChatEventConversationUpdate:
		return fmt.Sprintf("conv:%s:%s", ev.ConversationID, ev.UpdateKind)
	case domain.ChatEventReadReceipt:
		return fmt.Sprintf("read:%s:%s", ev.ConversationID, ev.SenderID)
	case domain.ChatEventTyping:
		return fmt.Sprintf("typing:%s:%s", ev.ConversationID, ev.SenderID)
	case domain.ChatEventReactionAdded, domain.ChatEventReactionRemoved:
		return fmt.Sprintf("react:%s:%s:%s", ev.MessageID, ev.SenderID, ev.Reaction)
	default:
		return fmt.Sprintf("%s:%s:%s", ev.Kind, ev.ConversationID, ev.MessageID)
	}
}

// overwriteOnRedelivery marks the variants where a later event with the
// same key replaces the earlier one instead of being dropped: receipts
// and typing only care about the latest state, and a reaction key toggles
// between added and removed.
var overwriteOnRedelivery = map[domain.ChatEventKind]bool{
	domain.ChatEventReadReceipt:     true,
	domain.ChatEventTyping:          true,
	domain.ChatEventReactionAdded:   true,
	domain.ChatEventReactionRemoved: true,
}

// Stream is the fan-in consumer. Events from all backends are applied
// one at a time; duplicates are dropped by key so a platform redelivering
// an event never double-applies it.
type Stream struct {
	mu             sync.Mutex
	byConversation map[string]map[string]domain.UnifiedChatEvent
	logger         logger.Logger
}

func NewStream(log logger.Logger) *Stream {
	return &Stream{
		byConversation: make(map[string]map[string]domain.UnifiedChatEvent),
		logger:         log.WithComponent("ChatStream"),
	}
}

// Apply folds one event into its conversation stream. Returns false when
// the event was a dropped duplicate.
func (s *Stream) Apply(ev domain.UnifiedChatEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	convID := Route(ev)
	key := DedupeKey(ev)

	conv, ok := s.byConversation[convID]
	if !ok {
		conv = make(map[string]domain.UnifiedChatEvent)
		s.byConversation[convID] = conv
	}

	if _, seen := conv[key]; seen && !overwriteOnRedelivery[ev.Kind] {
		s.logger.Debug("Duplicate chat event dropped", "conversation_id", convID, "key", key)
		return false
	}

	conv[key] = ev
	return true
}

// Conversation returns the events of one conversation ordered by
// timestamp ascending, ties broken by dedupe key for determinism.
func (s *Stream) Conversation(id string) []domain.UnifiedChatEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.byConversation[id]
	out := make([]domain.UnifiedChatEvent, 0, len(conv))
	for _, ev := range conv {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return DedupeKey(out[i]) < DedupeKey(out[j])
	})
	return out
}

// Conversations lists the ids of all conversations seen so far.
func (s *Stream) Conversations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.byConversation))
	for id := range s.byConversation {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
