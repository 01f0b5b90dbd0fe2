package capabilities

import (
	"context"
	"errors"

	"github.com/frankramblings/socialfusion/internal/domain"
)

var ErrNotFound = errors.New("capability record not found")

//go:generate go run go.uber.org/mock/mockgen -source=capabilities.go -destination=mocks/mock.go
type Repository interface {
	// Upsert stores the capability record for an account, replacing any
	// previous one.
	Upsert(ctx context.Context, caps domain.SearchCapabilities) error

	// GetByAccountID returns the record for one account.
	GetByAccountID(ctx context.Context, accountID string) (*domain.SearchCapabilities, error)

	// GetAll returns every persisted record, used to warm the in-memory table.
	GetAll(ctx context.Context) ([]*domain.SearchCapabilities, error)
}
