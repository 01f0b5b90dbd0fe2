package domain

import "time"

type ChatEventKind string

const (
	ChatEventMessageNew         ChatEventKind = "message_new"
	ChatEventMessageDeleted     ChatEventKind = "message_deleted"
	ChatEventConversationUpdate ChatEventKind = "conversation_update"
	ChatEventReadReceipt        ChatEventKind = "read_receipt"
	ChatEventReactionAdded      ChatEventKind = "reaction_added"
	ChatEventReactionRemoved    ChatEventKind = "reaction_removed"
	ChatEventTyping             ChatEventKind = "typing"
)

type ChatMessage struct {
	ID             string
	ConversationID string
	SenderID       string
	Body           string
	SentAt         time.Time
}

// UnifiedChatEvent is the tagged union delivered by live backend event
// collaborators. Which fields are meaningful depends on Kind:
// message events carry MessageID (and Message for new messages),
// conversation updates carry UpdateKind, read receipts and typing carry
// SenderID, reactions carry MessageID, SenderID and Reaction.
type UnifiedChatEvent struct {
	Kind           ChatEventKind
	Platform       Platform
	ConversationID string
	MessageID      string
	SenderID       string
	Reaction       string
	UpdateKind     string
	Timestamp      time.Time
	Message        *ChatMessage
}
