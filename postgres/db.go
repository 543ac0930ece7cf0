package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to postgres through the pgx stdlib driver and verifies the
// connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("ouverture de la connexion postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// CreateSchema applies the schema. Statements are idempotent so repeated
// startups are safe.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sirene_jobs (
			id UUID PRIMARY KEY,
			parent_id UUID,
			priority INT NOT NULL DEFAULT 0,
			payload_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			status TEXT NOT NULL DEFAULT 'new',
			child_jobs_count INT NOT NULL DEFAULT 0,
			child_jobs_completed INT NOT NULL DEFAULT 0,
			child_jobs_failed INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS sirene_jobs_status_idx ON sirene_jobs (status, priority, created_at)`,
		`CREATE TABLE IF NOT EXISTS company_lists (
			id UUID PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_archived BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS list_companies (
			id UUID PRIMARY KEY,
			list_id UUID NOT NULL REFERENCES company_lists(id) ON DELETE CASCADE,
			siren TEXT NOT NULL,
			siret TEXT NOT NULL DEFAULT '',
			denomination TEXT NOT NULL DEFAULT '',
			activite_principale TEXT NOT NULL DEFAULT '',
			categorie_juridique TEXT NOT NULL DEFAULT '',
			etat_administratif TEXT NOT NULL DEFAULT '',
			code_postal TEXT NOT NULL DEFAULT '',
			commune TEXT NOT NULL DEFAULT '',
			date_creation TEXT NOT NULL DEFAULT '',
			enriched_at TIMESTAMPTZ,
			added_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (list_id, siren, siret)
		)`,
		`CREATE TABLE IF NOT EXISTS search_history (
			id UUID PRIMARY KEY,
			owner_id TEXT NOT NULL,
			query TEXT NOT NULL,
			total INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("création du schéma: %w", err)
		}
	}

	return nil
}
