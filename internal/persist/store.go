// Package persist stores character records and the stat sheet embedded in
// each. Two backends share one contract: Postgres (pgx) for deployments and
// SQLite (modernc) for local use and tests.
package persist

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/charconsole/statengine/internal/config"
	"github.com/charconsole/statengine/internal/sheet"
)

var (
	ErrNotFound         = errors.New("character not found")
	ErrRevisionConflict = errors.New("revision conflict")
)

// Character is one stored record. The store only interprets LevelStats and
// StatSheet; the identity fields ride along.
type Character struct {
	ID         string
	Name       string
	Gang       string
	Species    string
	Revision   int64
	UpdatedAt  time.Time
	LevelStats []sheet.LevelStat
	StatSheet  *sheet.Sheet
	SheetETag  string

	// Converted is set by Get when StatSheet was built from LevelStats
	// on read and has not been stored yet.
	Converted bool
}

// Store is the character record store.
type Store interface {
	// Put inserts or replaces a record and bumps its revision.
	Put(ctx context.Context, c *Character) error
	// Get loads a record, converting legacy level stats when no sheet is
	// stored. Nothing is written back.
	Get(ctx context.Context, id string) (*Character, error)
	// List returns every record ordered by id.
	List(ctx context.Context) ([]*Character, error)
	// IDsWithoutSheet lists records still carrying only legacy stats.
	IDsWithoutSheet(ctx context.Context) ([]string, error)
	// SaveStatSheet replaces the sheet if the stored revision matches
	// expected, returning the new revision.
	SaveStatSheet(ctx context.Context, id string, sh *sheet.Sheet, expected int64) (int64, error)
	Close() error
}

// Open connects the backend named in cfg and applies migrations.
func Open(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "postgres":
		st, err := OpenPG(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "sqlite":
		st, err := OpenSQLite(ctx, cfg.DSN, log)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// ETag fingerprints an exported sheet: blake2b-256, hex encoded.
func ETag(exported []byte) string {
	sum := blake2b.Sum256(exported)
	return hex.EncodeToString(sum[:])
}

// encodeSheet returns the exported sheet and its etag; a nil sheet
// encodes as NULL.
func encodeSheet(sh *sheet.Sheet) ([]byte, string, error) {
	if sh == nil {
		return nil, "", nil
	}
	raw, err := sheet.ExportJSON(sh)
	if err != nil {
		return nil, "", err
	}
	return raw, ETag(raw), nil
}

func encodeLevelStats(levels []sheet.LevelStat) ([]byte, error) {
	if levels == nil {
		return nil, nil
	}
	raw, err := json.Marshal(levels)
	if err != nil {
		return nil, fmt.Errorf("encode level stats: %w", err)
	}
	return raw, nil
}

// decodeBodies fills the JSON-backed fields of c and applies the legacy
// conversion when needed.
func decodeBodies(c *Character, levelRaw, sheetRaw []byte, log *zap.Logger) error {
	if len(levelRaw) > 0 {
		if err := json.Unmarshal(levelRaw, &c.LevelStats); err != nil {
			return fmt.Errorf("decode level stats of %s: %w", c.ID, err)
		}
	}
	if len(sheetRaw) > 0 {
		sh, err := sheet.ImportJSON(sheetRaw)
		if err != nil {
			return fmt.Errorf("decode stat sheet of %s: %w", c.ID, err)
		}
		c.StatSheet = sh
		return nil
	}
	if c.LevelStats != nil {
		c.StatSheet = sheet.FromLegacy(c.LevelStats)
		c.Converted = true
		log.Debug("converted legacy level stats on read",
			zap.String("id", c.ID), zap.Int("levels", len(c.LevelStats)))
	}
	return nil
}
