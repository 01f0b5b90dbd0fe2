// Package normalize is the only boundary through which platform-native
// post shapes cross into the engine. Everything in here is pure: the same
// native input always yields the same unified output.
package normalize

import (
	"time"

	"github.com/frankramblings/socialfusion/internal/domain"
	apperrors "github.com/frankramblings/socialfusion/pkg/errors"
)

// NativePost marks a platform-native post shape. Concrete types live in
// this package so the rest of the engine never sees backend payloads.
type NativePost interface {
	NativePlatform() domain.Platform
}

type normalizeFunc func(native NativePost, accountID string, fetchedAt time.Time) (domain.TimelineEntry, domain.PostActionState, error)

// Per-platform dispatch table. Adding a backend means adding its native
// shape and one entry here.
var registry = map[domain.Platform]normalizeFunc{
	domain.PlatformMastodon: normalizeMastodon,
	domain.PlatformBluesky:  normalizeBluesky,
}

// Post converts a native post into a UnifiedPost.
func Post(native NativePost, platform domain.Platform, accountID string) (domain.UnifiedPost, error) {
	entry, _, err := Entry(native, platform, accountID, time.Time{})
	if err != nil {
		return domain.UnifiedPost{}, err
	}
	return entry.Post, nil
}

// Entry converts a native post into a timeline entry plus the engagement
// snapshot observed at fetch time. fetchedAt stamps the snapshot's
// LastUpdatedAt so the reconciler can order it against optimistic local
// mutations; it is never stored on the post itself.
func Entry(native NativePost, platform domain.Platform, accountID string, fetchedAt time.Time) (domain.TimelineEntry, domain.PostActionState, error) {
	fn, ok := registry[platform]
	if !ok {
		return domain.TimelineEntry{}, domain.PostActionState{},
			apperrors.Wrap(apperrors.ErrUnsupported, string(platform))
	}
	return fn(native, accountID, fetchedAt)
}
