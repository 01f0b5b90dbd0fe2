package normalize

import (
	"time"

	"github.com/frankramblings/socialfusion/internal/domain"
	apperrors "github.com/frankramblings/socialfusion/pkg/errors"
)

// MastodonStatus mirrors the subset of the Mastodon v1 status entity the
// engine consumes. Native id namespace: instance-local snowflake ids,
// unique per instance, scoped here by account id.
type MastodonStatus struct {
	ID               string            `json:"id"`
	URL              string            `json:"url"`
	Content          string            `json:"content"`
	CreatedAt        time.Time         `json:"created_at"`
	InReplyToID      string            `json:"in_reply_to_id"`
	Account          MastodonAccount   `json:"account"`
	Reblog           *MastodonStatus   `json:"reblog"`
	MediaAttachments []MastodonMedia   `json:"media_attachments"`
	Mentions         []MastodonMention `json:"mentions"`
	Tags             []MastodonTag     `json:"tags"`
	FavouritesCount  int               `json:"favourites_count"`
	ReblogsCount     int               `json:"reblogs_count"`
	RepliesCount     int               `json:"replies_count"`
	Favourited       bool              `json:"favourited"`
	Reblogged        bool              `json:"reblogged"`
}

type MastodonAccount struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Acct        string `json:"acct"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
}

type MastodonMedia struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	PreviewURL  string `json:"preview_url"`
	Description string `json:"description"`
}

type MastodonMention struct {
	Acct string `json:"acct"`
}

type MastodonTag struct {
	Name string `json:"name"`
}

func (s *MastodonStatus) NativePlatform() domain.Platform {
	return domain.PlatformMastodon
}

func normalizeMastodon(native NativePost, accountID string, fetchedAt time.Time) (domain.TimelineEntry, domain.PostActionState, error) {
	status, ok := native.(*MastodonStatus)
	if !ok {
		return domain.TimelineEntry{}, domain.PostActionState{},
			apperrors.Wrap(apperrors.ErrNormalization, "not a mastodon status")
	}

	kind := domain.KindNormal
	boostedBy := ""
	parentID := ""
	displayedAt := status.CreatedAt

	// A boost displays the boosted status but is ordered by the boost's
	// own timestamp; engagement belongs to the boosted status too.
	subject := status
	if status.Reblog != nil {
		kind = domain.KindBoost
		boostedBy = status.Account.Acct
		subject = status.Reblog
	} else if status.InReplyToID != "" {
		kind = domain.KindReply
		parentID = domain.StableID(domain.PlatformMastodon, accountID, status.InReplyToID)
	}

	if subject.ID == "" {
		return domain.TimelineEntry{}, domain.PostActionState{},
			apperrors.Wrap(apperrors.ErrNormalization, "mastodon status missing id")
	}
	if subject.Account.Acct == "" {
		return domain.TimelineEntry{}, domain.PostActionState{},
			apperrors.Wrap(apperrors.ErrNormalization, "mastodon status missing author handle")
	}

	id := domain.StableID(domain.PlatformMastodon, accountID, subject.ID)

	attachments := make([]domain.Attachment, 0, len(subject.MediaAttachments))
	for _, m := range subject.MediaAttachments {
		attachments = append(attachments, domain.Attachment{
			Type:       mastodonAttachmentType(m.Type),
			URL:        m.URL,
			PreviewURL: m.PreviewURL,
			AltText:    m.Description,
		})
	}

	mentions := make([]string, 0, len(subject.Mentions))
	for _, m := range subject.Mentions {
		mentions = append(mentions, m.Acct)
	}

	tags := make([]string, 0, len(subject.Tags))
	for _, t := range subject.Tags {
		tags = append(tags, t.Name)
	}

	post := domain.UnifiedPost{
		ID:        id,
		Platform:  domain.PlatformMastodon,
		AccountID: accountID,
		Author: domain.Author{
			Name:      subject.Account.DisplayName,
			Handle:    subject.Account.Acct,
			AvatarURL: subject.Account.Avatar,
		},
		Body:        subject.Content,
		CreatedAt:   subject.CreatedAt,
		OriginURL:   subject.URL,
		Attachments: attachments,
		Mentions:    mentions,
		Tags:        tags,
	}

	entry := domain.TimelineEntry{
		Post:      post,
		Kind:      kind,
		BoostedBy: boostedBy,
		ParentID:  parentID,
		CreatedAt: displayedAt,
	}

	actions := domain.PostActionState{
		ID:            id,
		Platform:      domain.PlatformMastodon,
		IsLiked:       subject.Favourited,
		IsReposted:    subject.Reblogged,
		LikeCount:     subject.FavouritesCount,
		RepostCount:   subject.ReblogsCount,
		ReplyCount:    subject.RepliesCount,
		LastUpdatedAt: fetchedAt,
	}

	return entry, actions, nil
}

func mastodonAttachmentType(t string) domain.AttachmentType {
	switch t {
	case "image":
		return domain.AttachmentImage
	case "video":
		return domain.AttachmentVideo
	case "audio":
		return domain.AttachmentAudio
	case "gifv":
		return domain.AttachmentAnimatedGIF
	default:
		return domain.AttachmentUnknown
	}
}
