// Package sheet is the stat sheet facade: the persisted aggregate holding a
// character's resolved grid together with the inputs it was computed from.
// Every operation takes a sheet and returns a new one; arguments are never
// modified.
package sheet

import (
	"errors"

	"github.com/charconsole/statengine/internal/data"
	"github.com/charconsole/statengine/internal/grid"
)

const (
	// Version is the only envelope version ImportJSON accepts.
	Version = 2
	// Cap is the grand-total ceiling stored in every sheet.
	Cap = grid.Cap
	// DefaultMultiplier seeds every transition of a new sheet.
	DefaultMultiplier = "1.150"
)

var (
	ErrInvalidKey   = errors.New("invalid key")
	ErrInvalidIndex = errors.New("invalid index")
	ErrImportSchema = errors.New("stat sheet rejected")
)

// TagState is the tag selection of a sheet. Selected is ordered by priority;
// Active and Ignored are the result of the last applySelectedTags.
type TagState struct {
	Selected []string `json:"selected" jsonschema:"description=Selected tag names in priority order"`
	Ignored  []string `json:"ignored" jsonschema:"description=Selected tags dropped by conflict resolution"`
	Active   []string `json:"active" jsonschema:"description=Selected tags applied to the grid"`
}

// Jump is a manual override's distance from the multiplier chain.
type Jump struct {
	K string `json:"k" jsonschema:"description=Stat key"`
	D int    `json:"d" jsonschema:"description=Manual value minus the chained value"`
}

// Tracked is the cached timeline of a sheet.
type Tracked struct {
	FirstNonZero map[string]int `json:"firstNonZero"`
	ManualJumps  map[int][]Jump `json:"manualJumps,omitempty"`
	Timeline     []string       `json:"timeline"`
}

// Sheet is the JSON persistence envelope.
type Sheet struct {
	Version     int              `json:"version" jsonschema:"description=Envelope version; must be 2"`
	Cap         int              `json:"cap" jsonschema:"description=Grand total ceiling (5200)"`
	Stats       grid.Grid        `json:"stats" jsonschema:"description=Stat key to the 9 level values"`
	Multipliers grid.Multipliers `json:"multipliers" jsonschema:"description=Stat key to the 8 transition multipliers"`
	Manual      grid.Manual      `json:"manual,omitempty" jsonschema:"description=Sparse manual overrides: stat key to level index to value"`
	Locks       grid.Locks       `json:"locks,omitempty"`
	Boundaries  grid.Boundaries  `json:"boundaries,omitempty" jsonschema:"description=Level 1 base value per stat"`
	Tags        TagState         `json:"tags"`
	Tracked     *Tracked         `json:"tracked,omitempty"`
}

// Empty returns a sheet with every catalog stat at zero and every
// multiplier at DefaultMultiplier.
func Empty() *Sheet {
	s := &Sheet{
		Version:     Version,
		Cap:         Cap,
		Stats:       grid.Grid{},
		Multipliers: grid.Multipliers{},
		Tags:        emptyTags(),
	}
	for _, key := range data.Stats().Keys() {
		s.Stats[key] = grid.Row{}
		s.Multipliers[key] = grid.UniformMultipliers(DefaultMultiplier)
	}
	return s
}

// Default builds the starting sheet: every stat begins at its expected
// level-1 value and grows by DefaultMultiplier, clamped to its limit.
func Default() *Sheet {
	s := Empty()
	s.Boundaries = grid.Boundaries{}
	for _, st := range data.Stats().List() {
		s.Boundaries[st.Key] = st.Lv1Exp
	}
	g := grid.Compute(s.inputs())
	for _, st := range data.Stats().List() {
		row := g[st.Key]
		for i := range row {
			row[i] = min(row[i], st.Limit)
		}
		g[st.Key] = row
	}
	s.Stats = g
	return s
}

func emptyTags() TagState {
	return TagState{Selected: []string{}, Ignored: []string{}, Active: []string{}}
}

func (s *Sheet) inputs() grid.Inputs {
	return grid.Inputs{
		Boundaries:  s.Boundaries,
		Multipliers: s.Multipliers,
		Manual:      s.Manual,
		Locks:       s.Locks,
	}
}

// Recompute resolves the grid from the sheet's inputs.
func (s *Sheet) Recompute() grid.Grid {
	return grid.Compute(s.inputs())
}

// Clone returns a deep copy.
func (s *Sheet) Clone() *Sheet {
	out := &Sheet{
		Version: s.Version,
		Cap:     s.Cap,
		Stats:   s.Stats.Clone(),
		Tags: TagState{
			Selected: cloneStrings(s.Tags.Selected),
			Ignored:  cloneStrings(s.Tags.Ignored),
			Active:   cloneStrings(s.Tags.Active),
		},
	}
	if s.Multipliers != nil {
		out.Multipliers = make(grid.Multipliers, len(s.Multipliers))
		for k, v := range s.Multipliers {
			out.Multipliers[k] = v
		}
	}
	if s.Manual != nil {
		out.Manual = make(grid.Manual, len(s.Manual))
		for k, levels := range s.Manual {
			m := make(map[int]string, len(levels))
			for l, v := range levels {
				m[l] = v
			}
			out.Manual[k] = m
		}
	}
	if s.Locks != nil {
		out.Locks = make(grid.Locks, len(s.Locks))
		for k, v := range s.Locks {
			out.Locks[k] = v
		}
	}
	if s.Boundaries != nil {
		out.Boundaries = make(grid.Boundaries, len(s.Boundaries))
		for k, v := range s.Boundaries {
			out.Boundaries[k] = v
		}
	}
	if s.Tracked != nil {
		out.Tracked = s.Tracked.clone()
	}
	return out
}

func (t *Tracked) clone() *Tracked {
	out := &Tracked{Timeline: cloneStrings(t.Timeline)}
	if t.FirstNonZero != nil {
		out.FirstNonZero = make(map[string]int, len(t.FirstNonZero))
		for k, v := range t.FirstNonZero {
			out.FirstNonZero[k] = v
		}
	}
	if t.ManualJumps != nil {
		out.ManualJumps = make(map[int][]Jump, len(t.ManualJumps))
		for k, v := range t.ManualJumps {
			out.ManualJumps[k] = append([]Jump(nil), v...)
		}
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
