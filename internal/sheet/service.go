package sheet

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/charconsole/statengine/internal/data"
	"github.com/charconsole/statengine/internal/grid"
	"github.com/charconsole/statengine/internal/tag"
)

// Service applies edits to sheets. It holds no sheet state; the tag
// registry is only read.
type Service struct {
	tags *tag.Registry
	log  *zap.Logger
}

func NewService(tags *tag.Registry, log *zap.Logger) *Service {
	return &Service{tags: tags, log: log}
}

// Tags returns the registry the service resolves tags against.
func (s *Service) Tags() *tag.Registry {
	return s.tags
}

func lookup(key string) (data.StatDefinition, error) {
	def, ok := data.Stats().Get(key)
	if !ok {
		return data.StatDefinition{}, fmt.Errorf("stat %q: %w", key, ErrInvalidKey)
	}
	return def, nil
}

func checkLevel(level int) error {
	if level < 0 || level >= grid.LevelCount {
		return fmt.Errorf("level %d not in [0,%d]: %w", level, grid.LevelCount-1, ErrInvalidIndex)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// recomputed finishes a grid-changing edit on a clone.
func recomputed(out *Sheet) *Sheet {
	out.Stats = out.Recompute()
	out.Tracked = nil
	return out
}

// UpdateStatValue pins one cell as a manual override. The value is clamped
// to [lowest, limit], and to lv1Limit at level 0.
func (s *Service) UpdateStatValue(sh *Sheet, key string, level, value int) (*Sheet, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}
	if err := checkLevel(level); err != nil {
		return nil, err
	}

	v := clamp(value, def.Lowest, def.Limit)
	if level == 0 {
		v = min(v, def.Lv1Limit)
	}

	out := sh.Clone()
	if out.Manual == nil {
		out.Manual = grid.Manual{}
	}
	if out.Manual[key] == nil {
		out.Manual[key] = map[int]string{}
	}
	out.Manual[key][level] = strconv.Itoa(v)

	s.log.Debug("manual override set",
		zap.String("stat", key), zap.Int("level", level), zap.Int("value", v))
	return recomputed(out), nil
}

// UpdateMultiplier stores the raw multiplier string of one transition.
func (s *Service) UpdateMultiplier(sh *Sheet, key string, transition int, value string) (*Sheet, error) {
	if _, err := lookup(key); err != nil {
		return nil, err
	}
	if transition < 0 || transition >= grid.TransitionCount {
		return nil, fmt.Errorf("transition %d not in [0,%d]: %w", transition, grid.TransitionCount-1, ErrInvalidIndex)
	}

	out := sh.Clone()
	if out.Multipliers == nil {
		out.Multipliers = grid.Multipliers{}
	}
	row, ok := out.Multipliers[key]
	if !ok {
		row = grid.UniformMultipliers(DefaultMultiplier)
	}
	row[transition] = value
	out.Multipliers[key] = row
	return recomputed(out), nil
}

// UpdateBoundary sets the level-1 base of a stat, clamped to
// [lv1Low, lv1Limit].
func (s *Service) UpdateBoundary(sh *Sheet, key string, value int) (*Sheet, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}

	out := sh.Clone()
	if out.Boundaries == nil {
		out.Boundaries = grid.Boundaries{}
	}
	out.Boundaries[key] = clamp(value, def.Lv1Low, def.Lv1Limit)
	return recomputed(out), nil
}

// ToggleLock flips the lock on a stat. Unlocking removes the entry.
func (s *Service) ToggleLock(sh *Sheet, key string) (*Sheet, error) {
	if _, err := lookup(key); err != nil {
		return nil, err
	}

	out := sh.Clone()
	if out.Locks[key] {
		delete(out.Locks, key)
		if len(out.Locks) == 0 {
			out.Locks = nil
		}
	} else {
		if out.Locks == nil {
			out.Locks = grid.Locks{}
		}
		out.Locks[key] = true
	}
	return recomputed(out), nil
}

// ClearManualOverride removes one override. A stat left with no overrides
// loses its entry.
func (s *Service) ClearManualOverride(sh *Sheet, key string, level int) (*Sheet, error) {
	if _, err := lookup(key); err != nil {
		return nil, err
	}
	if err := checkLevel(level); err != nil {
		return nil, err
	}

	out := sh.Clone()
	if levels, ok := out.Manual[key]; ok {
		delete(levels, level)
		if len(levels) == 0 {
			delete(out.Manual, key)
		}
		if len(out.Manual) == 0 {
			out.Manual = nil
		}
	}
	return recomputed(out), nil
}

// ScaleRow multiplies one level of every stat by factor, floored and
// clamped to [lowest, limit]. The grid is written directly: no override is
// recorded, so the next recomputing edit discards the scaling.
func (s *Service) ScaleRow(sh *Sheet, level int, factor float64) (*Sheet, error) {
	if err := checkLevel(level); err != nil {
		return nil, err
	}

	out := sh.Clone()
	for _, def := range data.Stats().List() {
		row, ok := out.Stats[def.Key]
		if !ok {
			continue
		}
		row[level] = clamp(grid.Step(row[level], factor), def.Lowest, def.Limit)
		out.Stats[def.Key] = row
	}
	out.Tracked = nil
	return out, nil
}

// ScaleColumn multiplies every level of one stat by factor, floored and
// clamped; level 0 is additionally capped at lv1Limit. Like ScaleRow it
// bypasses the override table.
func (s *Service) ScaleColumn(sh *Sheet, key string, factor float64) (*Sheet, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}

	out := sh.Clone()
	row, ok := out.Stats[key]
	if !ok {
		return out, nil
	}
	for i := range row {
		row[i] = clamp(grid.Step(row[i], factor), def.Lowest, def.Limit)
	}
	row[0] = min(row[0], def.Lv1Limit)
	out.Stats[key] = row
	out.Tracked = nil
	return out, nil
}

// Validate lists the advisory violations of the sheet's grid.
func (s *Service) Validate(sh *Sheet) []string {
	return grid.Validate(sh.Stats)
}
