package grid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charconsole/statengine/internal/data"
)

func TestDerive(t *testing.T) {
	g := Grid{
		"ATMEL": Row{10, 0, 0, 0, 0, 0, 0, 0, 70},
		"ATRNG": Row{5, 0, 0, 0, 0, 0, 0, 0, 20},
		"ATMAG": Row{0, 0, 0, 0, 0, 0, 0, 0, 5},
		"DDMEL": Row{3, 0, 0, 0, 0, 0, 0, 0, 40},
		"DDSPX": Row{9, 0, 0, 0, 0, 0, 0, 0, 41},
		"HPMAX": Row{100, 0, 0, 0, 0, 0, 0, 0, 500},
	}

	d := Derive(g, 8)
	assert.Equal(t, Derived{AtkSum: 95, AtkTop: 70, DefSum: 81, DefTop: 41, LvTotal: 676}, d)

	d = Derive(g, 0)
	assert.Equal(t, Derived{AtkSum: 15, AtkTop: 10, DefSum: 12, DefTop: 9, LvTotal: 127}, d)

	all := DeriveAll(g)
	assert.Equal(t, Derive(g, 8), all[8])
	assert.Equal(t, Derived{}, all[4])
}

func TestTotals(t *testing.T) {
	g := Compute(defaultInputs())

	assert.Equal(t, 395, LevelTotal(g, 0))
	assert.Equal(t, 1057, LevelTotal(g, 8))
	assert.Equal(t, 6046, GrandTotal(g))
	assert.Equal(t, 80, AttackSum(g, 0))
	assert.Equal(t, 220, DefenseSum(g, 8))
	assert.Equal(t, 55, AttackTop(g, 8))
	assert.Equal(t, 55, DefenseTop(g, 8))
	assert.Equal(t, 50+57+65+74+85+97+111+127+146, StatTotal(g, "HPMAX"))
	assert.Equal(t, 0, GrandTotal(Grid{}))
}

func TestValidateCleanGrid(t *testing.T) {
	g := Grid{}
	for _, s := range data.Stats().List() {
		var row Row
		for i := range row {
			row[i] = s.Lowest
		}
		g[s.Key] = row
	}
	assert.Empty(t, Validate(g))
}

func TestValidateReportsEveryViolation(t *testing.T) {
	g := Grid{
		"HPMAX": Row{5, 20, 10, 10, 10, 10, 10, 10, 1000},
		"ATMEL": Row{60, 60, 60, 60, 60, 60, 60, 60, 60},
	}

	errs := Validate(g)
	assert.Equal(t, []string{
		"HPMAX Level 1 below minimum (10)",
		"HPMAX decreases from Level 2 to Level 3",
		"HPMAX Level 9 exceeds absolute limit (999)",
		"ATMEL Level 1 exceeds limit (50)",
	}, errs)
}

func TestValidateCapReportedOnce(t *testing.T) {
	g := Grid{}
	for _, s := range data.Stats().List() {
		var row Row
		for i := range row {
			row[i] = s.Limit
		}
		g[s.Key] = row
	}
	require.Greater(t, GrandTotal(g), Cap)

	capErrs := 0
	for _, e := range Validate(g) {
		if strings.HasPrefix(e, "Grand total") {
			capErrs++
		}
	}
	assert.Equal(t, 1, capErrs)
}
