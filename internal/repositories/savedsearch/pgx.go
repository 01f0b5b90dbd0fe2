package savedsearch

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/frankramblings/socialfusion/internal/domain"
	"github.com/frankramblings/socialfusion/internal/repositories"
	"github.com/frankramblings/socialfusion/pkg/logger"

	sq "github.com/Masterminds/squirrel"
)

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("SavedSearchRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

// Create stores a new saved search for an account
func (p *Pgx) Create(ctx context.Context, search domain.SavedSearch) error {
	now := time.Now()
	query, args, err := repositories.SqBuilder.
		Insert("saved_searches").
		Columns("account_id", "query", "scope", "created_at", "last_used_at").
		Values(search.AccountID, search.Query, string(search.Scope), now, now).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Delete removes one saved search
func (p *Pgx) Delete(ctx context.Context, accountID, searchQuery string, scope domain.SearchScope) error {
	query, args, err := repositories.SqBuilder.
		Delete("saved_searches").
		Where(sq.Eq{"account_id": accountID, "query": searchQuery, "scope": string(scope)}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	result, err := p.pg.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByAccountID returns an account's saved searches, most recently used first
func (p *Pgx) GetByAccountID(ctx context.Context, accountID string) ([]*domain.SavedSearch, error) {
	query, args, err := repositories.SqBuilder.
		Select("id", "account_id", "query", "scope", "created_at", "last_used_at").
		From("saved_searches").
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("last_used_at DESC").
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var searches []*domain.SavedSearch
	for rows.Next() {
		var search domain.SavedSearch
		var scope string
		if err := rows.Scan(&search.ID, &search.AccountID, &search.Query, &scope, &search.CreatedAt, &search.LastUsedAt); err != nil {
			return nil, err
		}
		search.Scope = domain.SearchScope(scope)
		searches = append(searches, &search)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return searches, nil
}

// Touch bumps last_used_at when a saved search is re-executed
func (p *Pgx) Touch(ctx context.Context, id int) error {
	query, args, err := repositories.SqBuilder.
		Update("saved_searches").
		Set("last_used_at", time.Now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	result, err := p.pg.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CleanupOldRecords deletes searches not used within the given duration
func (p *Pgx) CleanupOldRecords(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	query, args, err := repositories.SqBuilder.
		Delete("saved_searches").
		Where(sq.Lt{"last_used_at": cutoffTime}).
		ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	result, err := p.pg.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
