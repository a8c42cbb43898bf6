package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charconsole/statengine/internal/data"
)

func defaultInputs() Inputs {
	in := Inputs{
		Boundaries:  Boundaries{},
		Multipliers: Multipliers{},
	}
	for _, s := range data.Stats().List() {
		in.Boundaries[s.Key] = s.Lv1Exp
		in.Multipliers[s.Key] = UniformMultipliers("1.150")
	}
	return in
}

func TestComputeDefaultChain(t *testing.T) {
	g := Compute(defaultInputs())

	require.Len(t, g, 23)
	assert.Equal(t, Row{50, 57, 65, 74, 85, 97, 111, 127, 146}, g["HPMAX"])
	assert.Equal(t, Row{20, 23, 26, 29, 33, 37, 42, 48, 55}, g["ATMEL"])
	assert.Equal(t, Row{10, 11, 12, 13, 14, 16, 18, 20, 23}, g["REGEN"])
}

func TestComputeDeterministic(t *testing.T) {
	in := defaultInputs()
	in.Manual = Manual{"ATMAG": {4: "90"}}
	in.Locks = Locks{"THRET": true}
	assert.Equal(t, Compute(in), Compute(in))
}

func TestComputeLockedStatIsZero(t *testing.T) {
	in := defaultInputs()
	in.Manual = Manual{"HPMAX": {0: "80", 5: "300"}}
	in.Locks = Locks{"HPMAX": true, "EVADE": false}

	g := Compute(in)
	assert.Equal(t, Row{}, g["HPMAX"])
	assert.Equal(t, Row{10, 11, 12, 13, 14, 16, 18, 20, 23}, g["EVADE"])
}

func TestComputeManualOverride(t *testing.T) {
	in := defaultInputs()
	in.Manual = Manual{"HPMAX": {3: "77"}}

	g := Compute(in)
	row := g["HPMAX"]
	assert.Equal(t, 77, row[3])
	assert.Equal(t, []int{50, 57, 65}, row[:3])
	// the override feeds the next transition
	assert.Equal(t, 88, row[4])
}

func TestComputeManualLevelOne(t *testing.T) {
	in := defaultInputs()
	in.Manual = Manual{"QUICK": {0: "40", 1: "oops"}}

	g := Compute(in)
	assert.Equal(t, 40, g["QUICK"][0])
	assert.Equal(t, 0, g["QUICK"][1])
	assert.Equal(t, 0, g["QUICK"][8])
}

func TestComputeMissingInputs(t *testing.T) {
	g := Compute(Inputs{
		Boundaries:  Boundaries{"ATMEL": 30, "NOT_A_STAT": 99},
		Multipliers: Multipliers{"NOT_A_STAT": UniformMultipliers("2.0")},
	})

	require.Len(t, g, 23)
	assert.NotContains(t, g, "NOT_A_STAT")
	// missing multipliers default to 1.0
	assert.Equal(t, Row{30, 30, 30, 30, 30, 30, 30, 30, 30}, g["ATMEL"])
	assert.Equal(t, Row{}, g["HPMAX"])
}

func TestComputeMonotonicWhenMultipliersAtLeastOne(t *testing.T) {
	in := defaultInputs()
	factors := []string{"1.000", "1.001", "1.2", "1.999", "2.5", "", "junk", "1e300"}
	for i, key := range data.Stats().Keys() {
		var row MultiplierRow
		for j := range row {
			row[j] = factors[(i+j)%len(factors)]
		}
		in.Multipliers[key] = row
	}

	for key, row := range Compute(in) {
		for i := 1; i < LevelCount; i++ {
			assert.GreaterOrEqual(t, row[i], row[i-1], "%s level %d", key, i+1)
			assert.LessOrEqual(t, row[i], math.MaxInt32, "%s level %d", key, i+1)
		}
	}
}

func TestStepSaturates(t *testing.T) {
	tests := []struct {
		name string
		v    int
		m    float64
		want int
	}{
		{"plain", 100, 1.15, 114},
		{"huge factor", 100, 1e300, math.MaxInt32},
		{"already at ceiling", math.MaxInt32, 2, math.MaxInt32},
		{"negative huge", -100, 1e300, math.MinInt32},
		{"zero", 0, 1e300, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Step(tt.v, tt.m))
		})
	}
}

func TestParseMultiplier(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.150", 1.15},
		{" 2.000 ", 2.0},
		{"0.5", 0.5},
		{"", 1.0},
		{"abc", 1.0},
		{"0", 1.0},
		{"NaN", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMultiplier(tt.in))
		})
	}
}

func TestParseManual(t *testing.T) {
	assert.Equal(t, 77, ParseManual("77"))
	assert.Equal(t, 12, ParseManual("12.9"))
	assert.Equal(t, -4, ParseManual("-3.5"))
	assert.Equal(t, 0, ParseManual("x"))
	assert.Equal(t, 0, ParseManual("Inf"))
	assert.Equal(t, math.MaxInt32, ParseManual("1e300"))
	assert.Equal(t, math.MinInt32, ParseManual("-1e300"))
}

func TestCloneIsIndependent(t *testing.T) {
	g := Grid{"HPMAX": Row{1, 2, 3}}
	c := g.Clone()
	r := c["HPMAX"]
	r[0] = 99
	c["HPMAX"] = r
	assert.Equal(t, 1, g["HPMAX"][0])
}

func TestValue(t *testing.T) {
	g := Grid{"HPMAX": Row{1, 2, 3, 4, 5, 6, 7, 8, 9}}
	assert.Equal(t, 9, g.Value("HPMAX", 8))
	assert.Equal(t, 0, g.Value("HPMAX", 9))
	assert.Equal(t, 0, g.Value("HPMAX", -1))
	assert.Equal(t, 0, g.Value("QUICK", 0))
}
