package domain

// RelationshipState holds the follow graph flags between the
// authenticated actor and another actor. Supplied wholesale by a backend
// query; the engine only consumes it.
type RelationshipState struct {
	IsFollowing     bool
	IsFollowedBy    bool
	IsMuting        bool
	IsBlocking      bool
	FollowRequested bool
}

func (r RelationshipState) IsMutual() bool {
	return r.IsFollowing && r.IsFollowedBy
}

func (r RelationshipState) CanFollow() bool {
	return !r.IsBlocking
}
