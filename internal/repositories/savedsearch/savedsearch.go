package savedsearch

import (
	"context"
	"errors"
	"time"

	"github.com/frankramblings/socialfusion/internal/domain"
)

var (
	ErrAlreadyExists = errors.New("saved search already exists")
	ErrNotFound      = errors.New("saved search not found")
)

//go:generate go run go.uber.org/mock/mockgen -source=savedsearch.go -destination=mocks/mock.go
type Repository interface {
	// Create stores a new saved search for an account
	Create(ctx context.Context, search domain.SavedSearch) error

	// Delete removes one saved search
	Delete(ctx context.Context, accountID, query string, scope domain.SearchScope) error

	// GetByAccountID returns an account's saved searches, most recently used first
	GetByAccountID(ctx context.Context, accountID string) ([]*domain.SavedSearch, error)

	// Touch bumps last_used_at when a saved search is re-executed
	Touch(ctx context.Context, id int) error

	// CleanupOldRecords deletes searches not used within the given duration
	CleanupOldRecords(ctx context.Context, olderThan time.Duration) (int64, error)
}
