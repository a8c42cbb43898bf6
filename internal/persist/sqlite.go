package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/charconsole/statengine/internal/sheet"
)

// SQLiteStore is the SQLite character store. JSON bodies are TEXT columns
// and updated_at is stored as unix milliseconds.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

// OpenSQLite opens the database file at path and applies migrations.
func OpenSQLite(ctx context.Context, path string, log *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; keeps pragmas on a single connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite init %q: %w", stmt, err)
		}
	}
	if err := runSQLiteMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("opened sqlite store", zap.String("path", path))
	return &SQLiteStore{db: db, log: log}, nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// nullable turns an empty body into SQL NULL.
func nullable(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

func (s *SQLiteStore) Put(ctx context.Context, c *Character) error {
	levels, err := encodeLevelStats(c.LevelStats)
	if err != nil {
		return err
	}
	body, etag, err := encodeSheet(c.StatSheet)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put character %s: %w", c.ID, err)
	}
	defer tx.Rollback()

	now := toMillis(time.Now())
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO characters (id, name, gang, species, level_stats, stat_sheet, sheet_etag, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     name = excluded.name,
		     gang = excluded.gang,
		     species = excluded.species,
		     level_stats = excluded.level_stats,
		     stat_sheet = excluded.stat_sheet,
		     sheet_etag = excluded.sheet_etag,
		     revision = characters.revision + 1,
		     updated_at = excluded.updated_at`,
		c.ID, c.Name, c.Gang, c.Species, nullable(levels), nullable(body), etag, now,
	); err != nil {
		return fmt.Errorf("put character %s: %w", c.ID, err)
	}

	var updated int64
	if err := tx.QueryRowContext(ctx,
		`SELECT revision, updated_at FROM characters WHERE id = ?`, c.ID,
	).Scan(&c.Revision, &updated); err != nil {
		return fmt.Errorf("put character %s: %w", c.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put character %s: %w", c.ID, err)
	}
	c.UpdatedAt = fromMillis(updated)
	c.SheetETag = etag
	c.Converted = false
	return nil
}

const sqliteSelect = `SELECT id, name, gang, species, revision, updated_at, level_stats, stat_sheet, sheet_etag
	FROM characters`

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scan(row scanner) (*Character, error) {
	var (
		c                  Character
		updated            int64
		levelRaw, sheetRaw []byte
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Gang, &c.Species, &c.Revision, &updated,
		&levelRaw, &sheetRaw, &c.SheetETag); err != nil {
		return nil, err
	}
	c.UpdatedAt = fromMillis(updated)
	if err := decodeBodies(&c, levelRaw, sheetRaw, s.log); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Character, error) {
	c, err := s.scan(s.db.QueryRowContext(ctx, sqliteSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("character %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get character %s: %w", id, err)
	}
	return c, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*Character, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelect+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var result []*Character
	for rows.Next() {
		c, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("list characters: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) IDsWithoutSheet(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
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

func (s *SQLiteStore) SaveStatSheet(ctx context.Context, id string, sh *sheet.Sheet, expected int64) (int64, error) {
	body, etag, err := encodeSheet(sh)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE characters
		 SET stat_sheet = ?, sheet_etag = ?, revision = revision + 1, updated_at = ?
		 WHERE id = ? AND revision = ?`,
		nullable(body), etag, toMillis(time.Now()), id, expected,
	)
	if err != nil {
		return 0, fmt.Errorf("save stat sheet %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("save stat sheet %s: %w", id, err)
	}
	if n == 0 {
		return 0, s.missOrConflict(ctx, id, expected)
	}
	return expected + 1, nil
}

func (s *SQLiteStore) missOrConflict(ctx context.Context, id string, expected int64) error {
	var current int64
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM characters WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("character %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("save stat sheet %s: %w", id, err)
	}
	return fmt.Errorf("character %s at revision %d, expected %d: %w", id, current, expected, ErrRevisionConflict)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
