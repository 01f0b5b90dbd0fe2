package domain

import (
	"fmt"
	"time"
)

// Platform tags the backend a post originated from. The platform value
// owns the namespace of its native ids: two platforms never share one.
type Platform string

const (
	PlatformMastodon Platform = "mastodon"
	PlatformBluesky  Platform = "bluesky"
)

// StableID derives the cross-platform identity of a post. The same native
// post fetched through the same account always yields the same key, and
// keys from distinct platforms can never collide because the platform tag
// is part of the key.
func StableID(platform Platform, accountID, nativeID string) string {
	return fmt.Sprintf("%s:%s:%s", platform, accountID, nativeID)
}

type Author struct {
	Name      string
	Handle    string
	AvatarURL string
}

type AttachmentType string

const (
	AttachmentImage       AttachmentType = "image"
	AttachmentVideo       AttachmentType = "video"
	AttachmentAudio       AttachmentType = "audio"
	AttachmentAnimatedGIF AttachmentType = "animatedGIF"
	AttachmentUnknown     AttachmentType = "unknown"
)

type Attachment struct {
	Type       AttachmentType
	URL        string
	PreviewURL string
	AltText    string
}

// UnifiedPost is the platform-agnostic form of a post. Values are
// immutable once constructed; a refetch of the "same" post produces a new
// value compared by ID, never by reference.
type UnifiedPost struct {
	ID          string
	Platform    Platform
	AccountID   string
	Author      Author
	Body        string
	CreatedAt   time.Time
	OriginURL   string
	Attachments []Attachment
	Mentions    []string
	Tags        []string
}
