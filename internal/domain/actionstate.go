package domain

import "time"

// PostActionState is one engagement snapshot for a post. Both optimistic
// local mutations and authoritative server refreshes produce values of
// this type; whichever carries the newer LastUpdatedAt wins wholesale.
type PostActionState struct {
	ID            string
	Platform      Platform
	IsLiked       bool
	IsReposted    bool
	LikeCount     int
	RepostCount   int
	ReplyCount    int
	LastUpdatedAt time.Time
}
