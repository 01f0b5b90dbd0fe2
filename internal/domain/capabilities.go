package domain

import "time"

// CapabilitySupport is the learned answer to "does this backend support
// this search scope". It is not totally ordered; transitions are driven
// by the rules in the capability package.
type CapabilitySupport string

const (
	SupportUnknown  CapabilitySupport = "unknown"
	SupportLikely   CapabilitySupport = "likely"
	SupportLikelyNo CapabilitySupport = "likelyNo"
	SupportYes      CapabilitySupport = "yes"
	SupportNo       CapabilitySupport = "no"
)

type SearchScope string

const (
	ScopePosts SearchScope = "posts"
	ScopeUsers SearchScope = "users"
	ScopeTags  SearchScope = "tags"
)

// SearchCapabilities records what we have learned empirically about one
// account's backend. Backends do not advertise this; it is inferred from
// observed query outcomes and can change when an instance is
// reconfigured, so no state is terminal.
type SearchCapabilities struct {
	AccountID      string            `json:"accountId"`
	InstanceDomain string            `json:"instanceDomain"`
	AccountSearch  CapabilitySupport `json:"accountSearch"`
	HashtagSearch  CapabilitySupport `json:"hashtagSearch"`
	StatusSearch   CapabilitySupport `json:"statusSearch"`
	SupportsTrends bool              `json:"supportsTrends"`
	LastChecked    time.Time         `json:"lastChecked"`
}

func NewSearchCapabilities(accountID, instanceDomain string) SearchCapabilities {
	return SearchCapabilities{
		AccountID:      accountID,
		InstanceDomain: instanceDomain,
		AccountSearch:  SupportUnknown,
		HashtagSearch:  SupportUnknown,
		StatusSearch:   SupportUnknown,
	}
}

// ShouldShowStatusSearchWarning reports whether the user should be warned
// before relying on post search for this account.
func (c SearchCapabilities) ShouldShowStatusSearchWarning() bool {
	return c.StatusSearch == SupportLikelyNo || c.StatusSearch == SupportNo
}
