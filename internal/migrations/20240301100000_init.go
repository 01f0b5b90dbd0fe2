package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upInit, downInit)
}

func upInit(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE search_capabilities (
		account_id VARCHAR PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE saved_searches (
		id SERIAL PRIMARY KEY,
		account_id VARCHAR NOT NULL,
		query VARCHAR NOT NULL,
		scope VARCHAR NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		last_used_at TIMESTAMPTZ NOT NULL,
		UNIQUE (account_id, query, scope)
	);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downInit(tx *sql.Tx) error {
	_, err := tx.Exec(`
	DROP TABLE saved_searches;
	DROP TABLE search_capabilities;
	`)
	if err != nil {
		return err
	}
	return nil
}
