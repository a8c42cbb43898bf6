// Package grid resolves the 9-level stat table from designer inputs and
// computes aggregates, validation warnings and the unlock timeline over it.
// Everything here is pure: no I/O, no shared state.
package grid

import (
	"math"
	"strconv"
	"strings"

	"github.com/charconsole/statengine/internal/data"
)

const (
	LevelCount      = 9
	TransitionCount = LevelCount - 1

	// Cap is the grand-total ceiling checked by Validate.
	Cap = 5200
)

// Row holds one stat's values for levels 1..9 (index 0-based).
type Row [LevelCount]int

// Grid maps stat key to its resolved row.
type Grid map[string]Row

// Clone returns a shallow copy; rows are arrays so the copy shares nothing.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for k, r := range g {
		out[k] = r
	}
	return out
}

// Value returns the value of key at level, or 0 when either is absent.
func (g Grid) Value(key string, level int) int {
	if level < 0 || level >= LevelCount {
		return 0
	}
	return g[key][level]
}

// MultiplierRow holds the 8 per-transition growth factors of one stat as
// 3-decimal strings.
type MultiplierRow [TransitionCount]string

// Multipliers maps stat key to its transition factors.
type Multipliers map[string]MultiplierRow

// Manual is the sparse override table: stat key -> level index -> value.
type Manual map[string]map[int]string

// Locks marks stats forced to zero.
type Locks map[string]bool

// Boundaries holds the level-1 base value per stat.
type Boundaries map[string]int

// Inputs bundles everything Compute reads. Nil maps are valid.
type Inputs struct {
	Boundaries  Boundaries
	Multipliers Multipliers
	Manual      Manual
	Locks       Locks
}

// UniformMultipliers returns a row with every transition set to m.
func UniformMultipliers(m string) MultiplierRow {
	var row MultiplierRow
	for i := range row {
		row[i] = m
	}
	return row
}

// ParseMultiplier reads a growth factor. Missing, unparsable and zero values
// mean 1.0.
func ParseMultiplier(s string) float64 {
	m, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || m == 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return 1.0
	}
	return m
}

// ParseManual reads an override value, flooring fractions. Unparsable
// values mean 0.
func ParseManual(s string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(v, 0) {
		return 0
	}
	return Floor(v)
}

// Step applies one growth factor: floor(v * m).
func Step(v int, m float64) int {
	return Floor(float64(v) * m)
}

// Floor converts f to an int, saturating at the int32 range so runaway
// growth pins at the ceiling instead of wrapping negative. NaN is 0.
func Floor(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(math.Floor(f))
}

// Compute resolves the grid for every catalog stat. Locked stats are all
// zero. Level 1 comes from the manual override or the boundary; each later
// level from its manual override or floor(previous * multiplier). No
// clamping happens here. Unknown keys in the inputs are ignored.
func Compute(in Inputs) Grid {
	keys := data.Stats().Keys()
	g := make(Grid, len(keys))
	for _, key := range keys {
		g[key] = computeRow(key, in)
	}
	return g
}

func computeRow(key string, in Inputs) Row {
	var row Row
	if in.Locks[key] {
		return row
	}
	manual := in.Manual[key]
	mults := in.Multipliers[key]

	if v, ok := manual[0]; ok {
		row[0] = ParseManual(v)
	} else {
		row[0] = in.Boundaries[key]
	}
	for i := 1; i < LevelCount; i++ {
		if v, ok := manual[i]; ok {
			row[i] = ParseManual(v)
			continue
		}
		row[i] = Step(row[i-1], ParseMultiplier(mults[i-1]))
	}
	return row
}
