package normalize

import (
	"time"

	"github.com/frankramblings/socialfusion/internal/domain"
	apperrors "github.com/frankramblings/socialfusion/pkg/errors"
)

// BlueskyFeedViewPost mirrors app.bsky.feed.defs#feedViewPost. Native id
// namespace: AT URIs (at://did/collection/rkey), globally unique on their
// own but still scoped by account id for uniformity with other platforms.
type BlueskyFeedViewPost struct {
	Post   BlueskyPostView `json:"post"`
	Reason *BlueskyReason  `json:"reason"`
	Reply  *BlueskyReply   `json:"reply"`
}

type BlueskyPostView struct {
	URI         string         `json:"uri"`
	CID         string         `json:"cid"`
	Author      BlueskyActor   `json:"author"`
	Record      BlueskyRecord  `json:"record"`
	Embed       *BlueskyEmbed  `json:"embed"`
	LikeCount   int            `json:"likeCount"`
	RepostCount int            `json:"repostCount"`
	ReplyCount  int            `json:"replyCount"`
	IndexedAt   time.Time      `json:"indexedAt"`
	Viewer      *BlueskyViewer `json:"viewer"`
}

type BlueskyActor struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

type BlueskyRecord struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Tags      []string  `json:"tags"`
}

type BlueskyEmbed struct {
	Images []BlueskyImage `json:"images"`
	Video  *BlueskyVideo  `json:"video"`
}

type BlueskyImage struct {
	Fullsize string `json:"fullsize"`
	Thumb    string `json:"thumb"`
	Alt      string `json:"alt"`
}

type BlueskyVideo struct {
	Playlist  string `json:"playlist"`
	Thumbnail string `json:"thumbnail"`
	Alt       string `json:"alt"`
}

type BlueskyViewer struct {
	Like   string `json:"like"`
	Repost string `json:"repost"`
}

type BlueskyReason struct {
	By        BlueskyActor `json:"by"`
	IndexedAt time.Time    `json:"indexedAt"`
}

type BlueskyReply struct {
	Parent BlueskyPostView `json:"parent"`
}

func (p *BlueskyFeedViewPost) NativePlatform() domain.Platform {
	return domain.PlatformBluesky
}

func normalizeBluesky(native NativePost, accountID string, fetchedAt time.Time) (domain.TimelineEntry, domain.PostActionState, error) {
	fvp, ok := native.(*BlueskyFeedViewPost)
	if !ok {
		return domain.TimelineEntry{}, domain.PostActionState{},
			apperrors.Wrap(apperrors.ErrNormalization, "not a bluesky feed view post")
	}

	post := fvp.Post
	if post.URI == "" {
		return domain.TimelineEntry{}, domain.PostActionState{},
			apperrors.Wrap(apperrors.ErrNormalization, "bluesky post missing uri")
	}
	if post.Author.Handle == "" {
		return domain.TimelineEntry{}, domain.PostActionState{},
			apperrors.Wrap(apperrors.ErrNormalization, "bluesky post missing author handle")
	}

	id := domain.StableID(domain.PlatformBluesky, accountID, post.URI)

	kind := domain.KindNormal
	boostedBy := ""
	parentID := ""
	displayedAt := post.Record.CreatedAt

	if fvp.Reason != nil {
		kind = domain.KindBoost
		boostedBy = fvp.Reason.By.Handle
		// Order reposts by repost time, not by the original post's time.
		displayedAt = fvp.Reason.IndexedAt
	} else if fvp.Reply != nil && fvp.Reply.Parent.URI != "" {
		kind = domain.KindReply
		parentID = domain.StableID(domain.PlatformBluesky, accountID, fvp.Reply.Parent.URI)
	}

	var attachments []domain.Attachment
	if post.Embed != nil {
		for _, img := range post.Embed.Images {
			attachments = append(attachments, domain.Attachment{
				Type:       domain.AttachmentImage,
				URL:        img.Fullsize,
				PreviewURL: img.Thumb,
				AltText:    img.Alt,
			})
		}
		if v := post.Embed.Video; v != nil {
			attachments = append(attachments, domain.Attachment{
				Type:       domain.AttachmentVideo,
				URL:        v.Playlist,
				PreviewURL: v.Thumbnail,
				AltText:    v.Alt,
			})
		}
	}

	unified := domain.UnifiedPost{
		ID:        id,
		Platform:  domain.PlatformBluesky,
		AccountID: accountID,
		Author: domain.Author{
			Name:      post.Author.DisplayName,
			Handle:    post.Author.Handle,
			AvatarURL: post.Author.Avatar,
		},
		Body:        post.Record.Text,
		CreatedAt:   post.Record.CreatedAt,
		OriginURL:   webURLFromATURI(post.URI, post.Author.Handle),
		Attachments: attachments,
		Tags:        post.Record.Tags,
	}

	entry := domain.TimelineEntry{
		Post:      unified,
		Kind:      kind,
		BoostedBy: boostedBy,
		ParentID:  parentID,
		CreatedAt: displayedAt,
	}

	actions := domain.PostActionState{
		ID:            id,
		Platform:      domain.PlatformBluesky,
		IsLiked:       fvp.Post.Viewer != nil && fvp.Post.Viewer.Like != "",
		IsReposted:    fvp.Post.Viewer != nil && fvp.Post.Viewer.Repost != "",
		LikeCount:     post.LikeCount,
		RepostCount:   post.RepostCount,
		ReplyCount:    post.ReplyCount,
		LastUpdatedAt: fetchedAt,
	}

	return entry, actions, nil
}

// webURLFromATURI maps at://did:plc:x/app.bsky.feed.post/rkey to the
// public bsky.app permalink.
func webURLFromATURI(uri, handle string) string {
	const prefix = "at://"
	if len(uri) <= len(prefix) {
		return ""
	}
	rest := uri[len(prefix):]
	var rkey string
	for i := len(rest) - 1; i >= 0; i-- {
		if rest[i] == '/' {
			rkey = rest[i+1:]
			break
		}
	}
	if rkey == "" || handle == "" {
		return ""
	}
	return "https://bsky.app/profile/" + handle + "/post/" + rkey
}
