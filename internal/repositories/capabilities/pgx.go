package capabilities

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
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
		logger: logger.WithComponent("CapabilitiesRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

// Upsert stores the capability record for an account, replacing any
// previous one. The record itself is serialized by this layer; storage
// only sees the account key and an opaque payload.
func (p *Pgx) Upsert(ctx context.Context, caps domain.SearchCapabilities) error {
	payload, err := json.Marshal(caps)
	if err != nil {
		return err
	}

	query, args, err := repositories.SqBuilder.
		Insert("search_capabilities").
		Columns("account_id", "payload", "updated_at").
		Values(caps.AccountID, payload, time.Now()).
		Suffix("ON CONFLICT (account_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	return err
}

// GetByAccountID returns the record for one account.
func (p *Pgx) GetByAccountID(ctx context.Context, accountID string) (*domain.SearchCapabilities, error) {
	query, args, err := repositories.SqBuilder.
		Select("payload").
		From("search_capabilities").
		Where(sq.Eq{"account_id": accountID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	var payload []byte
	err = p.pg.QueryRow(ctx, query, args...).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var caps domain.SearchCapabilities
	if err := json.Unmarshal(payload, &caps); err != nil {
		return nil, err
	}
	return &caps, nil
}

// GetAll returns every persisted record.
func (p *Pgx) GetAll(ctx context.Context) ([]*domain.SearchCapabilities, error) {
	query, args, err := repositories.SqBuilder.
		Select("payload").
		From("search_capabilities").
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.SearchCapabilities
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var caps domain.SearchCapabilities
		if err := json.Unmarshal(payload, &caps); err != nil {
			p.logger.Warn("Skipping undecodable capability record", "error", err)
			continue
		}
		records = append(records, &caps)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
