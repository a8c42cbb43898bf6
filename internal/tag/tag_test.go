package tag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charconsole/statengine/internal/data"
	"github.com/charconsole/statengine/internal/grid"
)

func defaultGrid() grid.Grid {
	in := grid.Inputs{Boundaries: grid.Boundaries{}, Multipliers: grid.Multipliers{}}
	for _, s := range data.Stats().List() {
		in.Boundaries[s.Key] = s.Lv1Exp
		in.Multipliers[s.Key] = grid.UniformMultipliers("1.150")
	}
	return grid.Compute(in)
}

func TestBuiltinCatalog(t *testing.T) {
	r := Builtin()
	assert.Equal(t, 18, r.Count())

	for _, tg := range r.All() {
		for _, c := range tg.Conflicts {
			assert.True(t, r.Has(c), "%s conflicts with unknown tag %s", tg.Name, c)
		}
	}
	assert.Equal(t, []string{"tank", "balanced", "defensive_specialist"}, r.Conflicts("glass_cannon"))
	assert.Empty(t, r.Conflicts("defensive_specialist"))
	assert.Nil(t, r.Conflicts("nope"))
}

func TestRegisterRejects(t *testing.T) {
	r := NewRegistry()
	ok := Tag{Name: "x", Check: func(grid.Grid) bool { return true }, Apply: func(g grid.Grid) grid.Grid { return g }}
	require.NoError(t, r.Register(ok))

	assert.ErrorIs(t, r.Register(ok), ErrDuplicateTag)
	assert.Error(t, r.Register(Tag{Check: ok.Check, Apply: ok.Apply}))
	assert.Error(t, r.Register(Tag{Name: "y", Apply: ok.Apply}))
	assert.Equal(t, 1, r.Count())
}

func TestResolve(t *testing.T) {
	r := Builtin()

	tests := []struct {
		name     string
		selected []string
		active   []string
		ignored  []string
	}{
		{"empty", nil, []string{}, []string{}},
		{"tank first", []string{"tank", "glass_cannon"}, []string{"tank"}, []string{"glass_cannon"}},
		{"glass cannon first", []string{"glass_cannon", "tank"}, []string{"glass_cannon"}, []string{"tank"}},
		{"directed ignored", []string{"defensive_specialist", "glass_cannon"}, []string{"defensive_specialist"}, []string{"glass_cannon"}},
		{"directed accepted", []string{"glass_cannon", "defensive_specialist"}, []string{"glass_cannon", "defensive_specialist"}, []string{}},
		{"chain", []string{"quick_starter", "late_bloomer", "early_bloomer"}, []string{"quick_starter", "early_bloomer"}, []string{"late_bloomer"}},
		{"unrelated", []string{"healer", "speedster"}, []string{"healer", "speedster"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Resolve(tt.selected)
			assert.Equal(t, tt.active, res.Active)
			assert.Equal(t, tt.ignored, res.Ignored)
		})
	}
}

func TestDetectActiveDefaultGrid(t *testing.T) {
	got := Builtin().DetectActive(defaultGrid())
	assert.Equal(t, []string{
		"balanced",
		"support",
		"damage_dealer",
		"defensive_specialist",
		"quick_starter",
		"early_bloomer",
		"generalist",
	}, got)
}

func TestDetectActiveEmptyGrid(t *testing.T) {
	assert.Equal(t, []string{"slow_starter"}, Builtin().DetectActive(grid.Grid{}))
}

func TestApplyIsPure(t *testing.T) {
	r := Builtin()
	g := grid.Grid{
		"ATMEL": grid.Row{20, 23, 26, 29, 33, 37, 42, 48, 55},
		"DDMEL": grid.Row{20, 23, 26, 29, 33, 37, 42, 48, 55},
	}
	before := g.Clone()

	out := r.Apply(g, []string{"glass_cannon"})
	assert.Equal(t, before, g)
	assert.Equal(t, grid.Row{23, 26, 29, 33, 37, 42, 48, 55, 63}, out["ATMEL"])
	assert.Equal(t, grid.Row{17, 19, 22, 24, 28, 31, 35, 40, 46}, out["DDMEL"])
	_, ok := out["ATRNG"]
	assert.False(t, ok, "absent stats stay absent")
}

func TestApplyOrderMatters(t *testing.T) {
	r := Builtin()
	g := grid.Grid{"HPMAX": grid.Row{15, 15, 15, 15, 15, 15, 15, 15, 15}}

	a := r.Apply(g, []string{"quick_starter", "slow_starter"})
	b := r.Apply(g, []string{"slow_starter", "quick_starter"})
	assert.Equal(t, 15, a["HPMAX"][0])
	assert.Equal(t, 14, b["HPMAX"][0])
}

func TestApplySkipsUnknown(t *testing.T) {
	r := Builtin()
	g := defaultGrid()
	assert.Equal(t, g, r.Apply(g, []string{"does_not_exist"}))
}

func TestSpecialistScalesTopAttack(t *testing.T) {
	r := Builtin()
	g := grid.Grid{
		"ATMEL": grid.Row{0, 0, 0, 0, 0, 0, 0, 0, 10},
		"ATRNG": grid.Row{0, 0, 0, 0, 0, 0, 0, 0, 100},
		"ATMAG": grid.Row{0, 0, 0, 0, 0, 0, 0, 0, 10},
	}
	require.Contains(t, r.DetectActive(g), "specialist")

	out := r.Apply(g, []string{"specialist"})
	assert.Equal(t, 114, out["ATRNG"][8])
	assert.Equal(t, 10, out["ATMEL"][8])
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Glass Cannon", Label("glass_cannon"))
	assert.Equal(t, "Tank", Label("tank"))
	assert.Equal(t, "", Label(""))
}

func TestSelectionHelpers(t *testing.T) {
	sel := []string{"a", "b", "c"}

	assert.Equal(t, []string{"a", "c"}, Toggle(sel, "b"))
	assert.Equal(t, []string{"a", "b", "c", "d"}, Toggle(sel, "d"))
	assert.Equal(t, []string{"b", "a", "c"}, MoveUp(sel, "b"))
	assert.Equal(t, sel, MoveUp(sel, "a"))
	assert.Equal(t, []string{"a", "c", "b"}, MoveDown(sel, "b"))
	assert.Equal(t, sel, MoveDown(sel, "c"))
	assert.Equal(t, sel, MoveDown(sel, "zzz"))
	assert.True(t, Contains(sel, "c"))
	assert.False(t, Contains(nil, "c"))

	assert.Equal(t, []string{"a", "b", "c"}, sel, "input untouched")
}
