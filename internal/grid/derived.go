package grid

import "github.com/charconsole/statengine/internal/data"

// Derived holds the per-level aggregates shown under the stat table.
type Derived struct {
	AtkSum  int `json:"ATK_SUM"`
	AtkTop  int `json:"ATK_TOP"`
	DefSum  int `json:"DEF_SUM"`
	DefTop  int `json:"DEF_TOP"`
	LvTotal int `json:"LV_TOTAL"`
}

func groupSum(g Grid, group data.StatGroup, level int) int {
	sum := 0
	for _, k := range data.Stats().Group(group) {
		sum += g.Value(k, level)
	}
	return sum
}

func groupTop(g Grid, group data.StatGroup, level int) int {
	top := 0
	for i, k := range data.Stats().Group(group) {
		v := g.Value(k, level)
		if i == 0 || v > top {
			top = v
		}
	}
	return top
}

// AttackSum sums the four attack stats at level.
func AttackSum(g Grid, level int) int { return groupSum(g, data.GroupAttack, level) }

// DefenseSum sums the four defence stats at level.
func DefenseSum(g Grid, level int) int { return groupSum(g, data.GroupDefence, level) }

// AttackTop is the largest attack stat at level.
func AttackTop(g Grid, level int) int { return groupTop(g, data.GroupAttack, level) }

// DefenseTop is the largest defence stat at level.
func DefenseTop(g Grid, level int) int { return groupTop(g, data.GroupDefence, level) }

// LevelTotal sums every catalog stat at level.
func LevelTotal(g Grid, level int) int {
	sum := 0
	for _, k := range data.Stats().Keys() {
		sum += g.Value(k, level)
	}
	return sum
}

// GrandTotal sums LevelTotal over all levels.
func GrandTotal(g Grid) int {
	total := 0
	for level := 0; level < LevelCount; level++ {
		total += LevelTotal(g, level)
	}
	return total
}

// StatTotal sums one stat across all levels.
func StatTotal(g Grid, key string) int {
	total := 0
	for _, v := range g[key] {
		total += v
	}
	return total
}

// Derive computes all aggregates for one level.
func Derive(g Grid, level int) Derived {
	return Derived{
		AtkSum:  AttackSum(g, level),
		AtkTop:  AttackTop(g, level),
		DefSum:  DefenseSum(g, level),
		DefTop:  DefenseTop(g, level),
		LvTotal: LevelTotal(g, level),
	}
}

// DeriveAll computes the aggregates for every level.
func DeriveAll(g Grid) [LevelCount]Derived {
	var out [LevelCount]Derived
	for level := range out {
		out[level] = Derive(g, level)
	}
	return out
}
