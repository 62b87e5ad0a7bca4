package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/tcgworld/tcg-engine/internal/game/card"
)

// Schema creates the card definition table.
const Schema = `
CREATE TABLE IF NOT EXISTS card_definitions (
	id          INTEGER PRIMARY KEY,
	name        TEXT    NOT NULL,
	card_type   TEXT    NOT NULL,
	cost        INTEGER NOT NULL DEFAULT 0,
	attack      INTEGER NOT NULL DEFAULT 0,
	health      INTEGER NOT NULL DEFAULT 0,
	description TEXT    NOT NULL DEFAULT '',
	tags        TEXT[]  NOT NULL DEFAULT '{}',
	artwork_url TEXT    NOT NULL DEFAULT ''
)`

const selectDefinitions = `
SELECT id, name, card_type, cost, attack, health, description, tags, artwork_url
FROM card_definitions
ORDER BY id`

const upsertDefinition = `
INSERT INTO card_definitions (id, name, card_type, cost, attack, health, description, tags, artwork_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	card_type = EXCLUDED.card_type,
	cost = EXCLUDED.cost,
	attack = EXCLUDED.attack,
	health = EXCLUDED.health,
	description = EXCLUDED.description,
	tags = EXCLUDED.tags,
	artwork_url = EXCLUDED.artwork_url`

// DB is the part of pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CatalogStore keeps card definitions in PostgreSQL.
type CatalogStore struct {
	db     DB
	logger *zap.Logger
}

// NewCatalogStore creates a store over db.
func NewCatalogStore(db DB, logger *zap.Logger) *CatalogStore {
	return &CatalogStore{db: db, logger: logger}
}

// EnsureSchema creates the definition table if it is missing.
func (s *CatalogStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create card_definitions: %w", err)
	}
	return nil
}

// LoadCatalog reads every definition and builds a catalog from them. Rows are
// validated the same way the JSON loader validates entries.
func (s *CatalogStore) LoadCatalog(ctx context.Context) (*card.Catalog, error) {
	rows, err := s.db.Query(ctx, selectDefinitions)
	if err != nil {
		return nil, fmt.Errorf("query card_definitions: %w", err)
	}
	defs, err := scanDefinitions(rows)
	if err != nil {
		return nil, err
	}

	catalog, err := card.NewCatalog(defs)
	if err != nil {
		return nil, fmt.Errorf("build catalog from database: %w", err)
	}
	s.logger.Info("catalog loaded from database", zap.Int("definitions", catalog.Len()))
	return catalog, nil
}

func scanDefinitions(rows pgx.Rows) ([]card.Definition, error) {
	defer rows.Close()

	var defs []card.Definition
	for rows.Next() {
		var d card.Definition
		if err := rows.Scan(&d.ID, &d.Name, &d.Type, &d.Cost, &d.Attack, &d.Health, &d.Description, &d.Tags, &d.ArtworkURL); err != nil {
			return nil, fmt.Errorf("scan card definition: %w", err)
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read card_definitions: %w", err)
	}
	return defs, nil
}

// UpsertDefinitions writes defs in one transaction, replacing rows with the
// same id.
func (s *CatalogStore) UpsertDefinitions(ctx context.Context, defs []card.Definition) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	batch := &pgx.Batch{}
	for _, d := range defs {
		tags := d.Tags
		if tags == nil {
			tags = []string{}
		}
		batch.Queue(upsertDefinition, d.ID, d.Name, d.Type, d.Cost, d.Attack, d.Health, d.Description, tags, d.ArtworkURL)
	}

	results := tx.SendBatch(ctx, batch)
	written := 0
	for _, d := range defs {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("upsert card %d (%s): %w", d.ID, d.Name, err)
		}
		written++
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("card definitions upserted", zap.Int("count", written))
	return written, nil
}

// Count returns the number of stored definitions.
func (s *CatalogStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM card_definitions").Scan(&n); err != nil {
		return 0, fmt.Errorf("count card_definitions: %w", err)
	}
	return n, nil
}
