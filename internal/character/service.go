// Package character loads character records with their stat sheet and
// writes sheet edits back under optimistic concurrency.
package character

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/charconsole/statengine/internal/config"
	"github.com/charconsole/statengine/internal/core/event"
	"github.com/charconsole/statengine/internal/grid"
	"github.com/charconsole/statengine/internal/persist"
	"github.com/charconsole/statengine/internal/sheet"
)

// EditFunc produces the next sheet from the stored one. It may be called
// more than once when a concurrent writer wins the race.
type EditFunc func(*sheet.Sheet) (*sheet.Sheet, error)

type Service struct {
	store   persist.Store
	sheets  *sheet.Service
	bus     *event.Bus
	retries int
	workers int
	log     *zap.Logger
}

func NewService(store persist.Store, sheets *sheet.Service, bus *event.Bus, cfg config.EditorConfig, log *zap.Logger) *Service {
	return &Service{
		store:   store,
		sheets:  sheets,
		bus:     bus,
		retries: max(cfg.EditRetries, 1),
		workers: max(cfg.MigrateWorkers, 1),
		log:     log,
	}
}

// Load returns the record with a usable sheet. Records with neither a sheet
// nor legacy stats get an empty sheet; nothing is written.
func (s *Service) Load(ctx context.Context, id string) (*persist.Character, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.StatSheet == nil {
		c.StatSheet = sheet.Empty()
	}
	return c, nil
}

// EditSheet runs fn against the stored sheet and saves the result, retrying
// from a fresh read on revision conflicts.
func (s *Service) EditSheet(ctx context.Context, id string, fn EditFunc) (*persist.Character, error) {
	for attempt := 1; attempt <= s.retries; attempt++ {
		c, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		next, err := fn(c.StatSheet.Clone())
		if err != nil {
			return nil, fmt.Errorf("edit %s: %w", id, err)
		}

		rev, err := s.store.SaveStatSheet(ctx, id, next, c.Revision)
		if errors.Is(err, persist.ErrRevisionConflict) {
			s.log.Debug("sheet edit lost race, retrying",
				zap.String("id", id), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}

		c.StatSheet = next
		c.Revision = rev
		c.Converted = false
		s.saved(c)
		return c, nil
	}
	return nil, fmt.Errorf("edit %s after %d attempts: %w", id, s.retries, persist.ErrRevisionConflict)
}

func (s *Service) saved(c *persist.Character) {
	warnings := s.sheets.Validate(c.StatSheet)
	event.Publish(s.bus, event.SheetSaved{
		ID:         c.ID,
		Revision:   c.Revision,
		GrandTotal: grid.GrandTotal(c.StatSheet.Stats),
		Warnings:   warnings,
	})
}

// MigrateAll stores a converted sheet for every record that only has legacy
// level stats and returns how many were written. Records changed by another
// writer meanwhile are re-read and skipped once they carry a sheet.
func (s *Service) MigrateAll(ctx context.Context) (int, error) {
	ids, err := s.store.IDsWithoutSheet(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Info("migrating legacy characters", zap.Int("count", len(ids)), zap.Int("workers", s.workers))

	var migrated atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, id := range ids {
		g.Go(func() error {
			ok, err := s.migrateOne(gctx, id)
			if err != nil {
				return fmt.Errorf("migrate %s: %w", id, err)
			}
			if ok {
				migrated.Add(1)
			}
			return nil
		})
	}
	err = g.Wait()
	return int(migrated.Load()), err
}

func (s *Service) migrateOne(ctx context.Context, id string) (bool, error) {
	for attempt := 1; attempt <= s.retries; attempt++ {
		c, err := s.store.Get(ctx, id)
		if err != nil {
			return false, err
		}
		if !c.Converted {
			return false, nil
		}

		rev, err := s.store.SaveStatSheet(ctx, id, c.StatSheet, c.Revision)
		if errors.Is(err, persist.ErrRevisionConflict) {
			continue
		}
		if err != nil {
			return false, err
		}

		s.log.Debug("migrated legacy sheet", zap.String("id", id), zap.Int64("revision", rev))
		event.Publish(s.bus, event.SheetMigrated{ID: id, Revision: rev})
		return true, nil
	}
	return false, persist.ErrRevisionConflict
}
