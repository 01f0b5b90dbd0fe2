package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankramblings/socialfusion/internal/domain"
	apperrors "github.com/frankramblings/socialfusion/pkg/errors"
)

func mastodonStatus() *MastodonStatus {
	return &MastodonStatus{
		ID:        "111",
		URL:       "https://mastodon.example/@alice/111",
		Content:   "<p>hello fediverse</p>",
		CreatedAt: time.Unix(1000, 0).UTC(),
		Account: MastodonAccount{
			ID:          "9",
			Username:    "alice",
			Acct:        "alice@mastodon.example",
			DisplayName: "Alice",
			Avatar:      "https://mastodon.example/avatars/alice.png",
		},
		MediaAttachments: []MastodonMedia{
			{Type: "image", URL: "https://files/1.png", PreviewURL: "https://files/1-small.png", Description: "a cat"},
			{Type: "gifv", URL: "https://files/2.mp4"},
		},
		Mentions:        []MastodonMention{{Acct: "bob@other.example"}},
		Tags:            []MastodonTag{{Name: "cats"}},
		FavouritesCount: 3,
		ReblogsCount:    1,
		RepliesCount:    2,
		Favourited:      true,
	}
}

func blueskyPost() *BlueskyFeedViewPost {
	return &BlueskyFeedViewPost{
		Post: BlueskyPostView{
			URI: "at://did:plc:abc/app.bsky.feed.post/3k44",
			CID: "bafy123",
			Author: BlueskyActor{
				DID:         "did:plc:abc",
				Handle:      "carol.bsky.social",
				DisplayName: "Carol",
				Avatar:      "https://cdn/avatar.jpg",
			},
			Record: BlueskyRecord{
				Text:      "hello atmosphere",
				CreatedAt: time.Unix(2000, 0).UTC(),
				Tags:      []string{"intro"},
			},
			LikeCount:   4,
			RepostCount: 2,
			ReplyCount:  1,
			Viewer:      &BlueskyViewer{Like: "at://did:plc:me/app.bsky.feed.like/1"},
		},
	}
}

func TestNormalizeMastodon(t *testing.T) {
	fetchedAt := time.Unix(5000, 0).UTC()

	t.Run("plain status", func(t *testing.T) {
		entry, actions, err := Entry(mastodonStatus(), domain.PlatformMastodon, "acct-1", fetchedAt)
		require.NoError(t, err)

		assert.Equal(t, "mastodon:acct-1:111", entry.ID())
		assert.Equal(t, domain.KindNormal, entry.Kind)
		assert.Equal(t, "alice@mastodon.example", entry.Post.Author.Handle)
		assert.Equal(t, time.Unix(1000, 0).UTC(), entry.CreatedAt)
		assert.Equal(t, []string{"bob@other.example"}, entry.Post.Mentions)
		assert.Equal(t, []string{"cats"}, entry.Post.Tags)

		require.Len(t, entry.Post.Attachments, 2)
		assert.Equal(t, domain.AttachmentImage, entry.Post.Attachments[0].Type)
		assert.Equal(t, "a cat", entry.Post.Attachments[0].AltText)
		assert.Equal(t, domain.AttachmentAnimatedGIF, entry.Post.Attachments[1].Type)

		assert.True(t, actions.IsLiked)
		assert.Equal(t, 3, actions.LikeCount)
		assert.Equal(t, fetchedAt, actions.LastUpdatedAt)
	})

	t.Run("boost wraps the boosted status", func(t *testing.T) {
		boosted := mastodonStatus()
		boost := &MastodonStatus{
			ID:        "222",
			CreatedAt: time.Unix(3000, 0).UTC(),
			Account: MastodonAccount{
				ID:   "10",
				Acct: "booster@mastodon.example",
			},
			Reblog: boosted,
		}

		entry, _, err := Entry(boost, domain.PlatformMastodon, "acct-1", fetchedAt)
		require.NoError(t, err)

		assert.Equal(t, domain.KindBoost, entry.Kind)
		assert.Equal(t, "booster@mastodon.example", entry.BoostedBy)
		// Identity follows the boosted status; ordering follows the boost.
		assert.Equal(t, "mastodon:acct-1:111", entry.ID())
		assert.Equal(t, time.Unix(3000, 0).UTC(), entry.CreatedAt)
		assert.Equal(t, time.Unix(1000, 0).UTC(), entry.Post.CreatedAt)
	})

	t.Run("reply carries parent identity", func(t *testing.T) {
		status := mastodonStatus()
		status.InReplyToID = "110"

		entry, _, err := Entry(status, domain.PlatformMastodon, "acct-1", fetchedAt)
		require.NoError(t, err)
		assert.Equal(t, domain.KindReply, entry.Kind)
		assert.Equal(t, "mastodon:acct-1:110", entry.ParentID)
	})

	t.Run("missing id fails normalization", func(t *testing.T) {
		status := mastodonStatus()
		status.ID = ""
		_, _, err := Entry(status, domain.PlatformMastodon, "acct-1", fetchedAt)
		assert.True(t, apperrors.IsNormalization(err))
	})

	t.Run("missing author handle fails normalization", func(t *testing.T) {
		status := mastodonStatus()
		status.Account.Acct = ""
		_, _, err := Entry(status, domain.PlatformMastodon, "acct-1", fetchedAt)
		assert.True(t, apperrors.IsNormalization(err))
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		first, _, err := Entry(mastodonStatus(), domain.PlatformMastodon, "acct-1", fetchedAt)
		require.NoError(t, err)
		second, _, err := Entry(mastodonStatus(), domain.PlatformMastodon, "acct-1", fetchedAt)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestNormalizeBluesky(t *testing.T) {
	fetchedAt := time.Unix(5000, 0).UTC()

	t.Run("plain post", func(t *testing.T) {
		entry, actions, err := Entry(blueskyPost(), domain.PlatformBluesky, "did:plc:me", fetchedAt)
		require.NoError(t, err)

		assert.Equal(t, "bluesky:did:plc:me:at://did:plc:abc/app.bsky.feed.post/3k44", entry.ID())
		assert.Equal(t, domain.KindNormal, entry.Kind)
		assert.Equal(t, "carol.bsky.social", entry.Post.Author.Handle)
		assert.Equal(t, "https://bsky.app/profile/carol.bsky.social/post/3k44", entry.Post.OriginURL)

		assert.True(t, actions.IsLiked)
		assert.False(t, actions.IsReposted)
		assert.Equal(t, 4, actions.LikeCount)
	})

	t.Run("repost is ordered by repost time", func(t *testing.T) {
		fvp := blueskyPost()
		fvp.Reason = &BlueskyReason{
			By:        BlueskyActor{Handle: "dan.bsky.social"},
			IndexedAt: time.Unix(4000, 0).UTC(),
		}

		entry, _, err := Entry(fvp, domain.PlatformBluesky, "did:plc:me", fetchedAt)
		require.NoError(t, err)
		assert.Equal(t, domain.KindBoost, entry.Kind)
		assert.Equal(t, "dan.bsky.social", entry.BoostedBy)
		assert.Equal(t, time.Unix(4000, 0).UTC(), entry.CreatedAt)
	})

	t.Run("reply carries parent identity", func(t *testing.T) {
		fvp := blueskyPost()
		fvp.Reply = &BlueskyReply{
			Parent: BlueskyPostView{URI: "at://did:plc:abc/app.bsky.feed.post/3k40"},
		}

		entry, _, err := Entry(fvp, domain.PlatformBluesky, "did:plc:me", fetchedAt)
		require.NoError(t, err)
		assert.Equal(t, domain.KindReply, entry.Kind)
		assert.Equal(t, "bluesky:did:plc:me:at://did:plc:abc/app.bsky.feed.post/3k40", entry.ParentID)
	})

	t.Run("missing uri fails normalization", func(t *testing.T) {
		fvp := blueskyPost()
		fvp.Post.URI = ""
		_, _, err := Entry(fvp, domain.PlatformBluesky, "did:plc:me", fetchedAt)
		assert.True(t, apperrors.IsNormalization(err))
	})
}

func TestIdentityNamespaces(t *testing.T) {
	t.Run("platforms never collide on equal native ids", func(t *testing.T) {
		a := domain.StableID(domain.PlatformMastodon, "acct", "42")
		b := domain.StableID(domain.PlatformBluesky, "acct", "42")
		assert.NotEqual(t, a, b)
	})

	t.Run("accounts partition the native id namespace", func(t *testing.T) {
		a := domain.StableID(domain.PlatformMastodon, "acct-1", "42")
		b := domain.StableID(domain.PlatformMastodon, "acct-2", "42")
		assert.NotEqual(t, a, b)
	})
}

func TestUnsupportedPlatform(t *testing.T) {
	_, _, err := Entry(mastodonStatus(), domain.Platform("friendster"), "acct-1", time.Time{})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnsupported))
}
