package domain

import "time"

type SavedSearch struct {
	ID         int
	AccountID  string
	Query      string
	Scope      SearchScope
	CreatedAt  time.Time
	LastUsedAt time.Time
}
