package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/charconsole/statengine/internal/sheet"
)

// PGStore is the Postgres character store. JSON bodies live in JSONB
// columns.
type PGStore struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func (r *PGStore) Put(ctx context.Context, c *Character) error {
	levels, err := encodeLevelStats(c.LevelStats)
	if err != nil {
		return err
	}
	body, etag, err := encodeSheet(c.StatSheet)
	if err != nil {
		return err
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO characters (id, name, gang, species, level_stats, stat_sheet, sheet_etag)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		     name = EXCLUDED.name,
		     gang = EXCLUDED.gang,
		     species = EXCLUDED.species,
		     level_stats = EXCLUDED.level_stats,
		     stat_sheet = EXCLUDED.stat_sheet,
		     sheet_etag = EXCLUDED.sheet_etag,
		     revision = characters.revision + 1,
		     updated_at = now()
		 RETURNING revision, updated_at`,
		c.ID, c.Name, c.Gang, c.Species, levels, body, etag,
	).Scan(&c.Revision, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put character %s: %w", c.ID, err)
	}
	c.SheetETag = etag
	c.Converted = false
	return nil
}

const pgSelect = `SELECT id, name, gang, species, revision, updated_at, level_stats, stat_sheet, sheet_etag
	FROM characters`

func (r *PGStore) scan(row pgx.Row) (*Character, error) {
	var (
		c                  Character
		levelRaw, sheetRaw []byte
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Gang, &c.Species, &c.Revision, &c.UpdatedAt,
		&levelRaw, &sheetRaw, &c.SheetETag); err != nil {
		return nil, err
	}
	if err := decodeBodies(&c, levelRaw, sheetRaw, r.log); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGStore) Get(ctx context.Context, id string) (*Character, error) {
	c, err := r.scan(r.pool.QueryRow(ctx, pgSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("character %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get character %s: %w", id, err)
	}
	return c, nil
}

func (r *PGStore) List(ctx context.Context) ([]*Character, error) {
	rows, err := r.pool.Query(ctx, pgSelect+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var result []*Character
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("list characters: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *PGStore) IDsWithoutSheet(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM characters WHERE stat_sheet IS NULL AND level_stats IS NOT NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list legacy characters: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PGStore) SaveStatSheet(ctx context.Context, id string, sh *sheet.Sheet, expected int64) (int64, error) {
	body, etag, err := encodeSheet(sh)
	if err != nil {
		return 0, err
	}
	var rev int64
	err = r.pool.QueryRow(ctx,
		`UPDATE characters
		 SET stat_sheet = $2, sheet_etag = $3, revision = revision + 1, updated_at = now()
		 WHERE id = $1 AND revision = $4
		 RETURNING revision`,
		id, body, etag, expected,
	).Scan(&rev)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, r.missOrConflict(ctx, id, expected)
	}
	if err != nil {
		return 0, fmt.Errorf("save stat sheet %s: %w", id, err)
	}
	return rev, nil
}

func (r *PGStore) missOrConflict(ctx context.Context, id string, expected int64) error {
	var current int64
	err := r.pool.QueryRow(ctx, `SELECT revision FROM characters WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("character %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("save stat sheet %s: %w", id, err)
	}
	return fmt.Errorf("character %s at revision %d, expected %d: %w", id, current, expected, ErrRevisionConflict)
}

func (r *PGStore) Close() error {
	r.pool.Close()
	return nil
}
