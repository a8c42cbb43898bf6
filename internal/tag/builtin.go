package tag

import (
	"math"

	"github.com/charconsole/statengine/internal/data"
	"github.com/charconsole/statengine/internal/grid"
)

const top = grid.LevelCount - 1

// Conflict table of the built-in catalog. It is not symmetric:
// glass_cannon refuses defensive_specialist but not the other way round.
var builtinConflicts = map[string][]string{
	"glass_cannon":      {"tank", "balanced", "defensive_specialist"},
	"tank":              {"glass_cannon", "speedster", "assassin"},
	"speedster":         {"tank", "slow_starter"},
	"slow_starter":      {"speedster", "quick_starter"},
	"quick_starter":     {"slow_starter", "late_bloomer"},
	"late_bloomer":      {"quick_starter", "early_bloomer"},
	"early_bloomer":     {"late_bloomer"},
	"melee_specialist":  {"ranged_specialist", "magic_specialist"},
	"ranged_specialist": {"melee_specialist", "magic_specialist"},
	"magic_specialist":  {"melee_specialist", "ranged_specialist"},
	"healer":            {"damage_dealer"},
	"damage_dealer":     {"healer", "support"},
	"support":           {"damage_dealer"},
	"balanced":          {"specialist", "glass_cannon"},
	"specialist":        {"balanced", "generalist"},
	"generalist":        {"specialist"},
}

// Builtin returns a fresh registry holding the built-in tags.
func Builtin() *Registry {
	r := NewRegistry()
	for _, t := range builtinTags() {
		t.Conflicts = builtinConflicts[t.Name]
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

func attackKeys() []string  { return data.Stats().Group(data.GroupAttack) }
func defenceKeys() []string { return data.Stats().Group(data.GroupDefence) }
func allKeys() []string     { return data.Stats().Keys() }

// scale multiplies every level of the given stats by f, flooring.
// Stats absent from g stay absent.
func scale(g grid.Grid, f float64, keys ...string) grid.Grid {
	out := g.Clone()
	for _, k := range keys {
		row, ok := out[k]
		if !ok {
			continue
		}
		for i := range row {
			row[i] = grid.Step(row[i], f)
		}
		out[k] = row
	}
	return out
}

// scaleLevels multiplies selected levels of the given stats.
func scaleLevels(g grid.Grid, factors map[int]float64, keys ...string) grid.Grid {
	out := g.Clone()
	for _, k := range keys {
		row, ok := out[k]
		if !ok {
			continue
		}
		for level, f := range factors {
			row[level] = grid.Step(row[level], f)
		}
		out[k] = row
	}
	return out
}

func builtinTags() []Tag {
	return []Tag{
		{
			Name:        "glass_cannon",
			Description: "High attack, low defense",
			Check: func(g grid.Grid) bool {
				return grid.AttackSum(g, top) > 150 && grid.DefenseSum(g, top) < 80
			},
			Apply: func(g grid.Grid) grid.Grid {
				g = scale(g, 1.15, attackKeys()...)
				return scale(g, 0.85, defenceKeys()...)
			},
		},
		{
			Name:        "tank",
			Description: "High defense and HP",
			Check: func(g grid.Grid) bool {
				return grid.DefenseSum(g, top) > 150 && g.Value("HPMAX", top) > 300
			},
			Apply: func(g grid.Grid) grid.Grid {
				g = scale(g, 1.15, defenceKeys()...)
				return scale(g, 1.1, "HPMAX")
			},
		},
		{
			Name:        "speedster",
			Description: "High quickness and evasion",
			Check: func(g grid.Grid) bool {
				return g.Value("QUICK", top) > 60 && g.Value("EVADE", top) > 40
			},
			Apply: func(g grid.Grid) grid.Grid {
				g = scale(g, 1.2, "QUICK")
				return scale(g, 1.15, "EVADE")
			},
		},
		{
			Name:        "balanced",
			Description: "Even distribution across stats",
			Check: func(g grid.Grid) bool {
				atk, def := grid.AttackSum(g, top), grid.DefenseSum(g, top)
				return math.Abs(float64(atk-def)) < 50 && atk > 100 && def > 100
			},
			Apply: func(g grid.Grid) grid.Grid {
				return scale(g, 1.05, allKeys()...)
			},
		},
		specialistOf("melee_specialist", "Primarily melee attacks", "ATMEL", "DDMEL"),
		specialistOf("ranged_specialist", "Primarily ranged attacks", "ATRNG", "DDRNG"),
		specialistOf("magic_specialist", "Primarily magic attacks", "ATMAG", "DDMAG"),
		{
			Name:        "healer",
			Description: "High healing capability",
			Check: func(g grid.Grid) bool {
				return g.Value("HEALR", top) > 50
			},
			Apply: func(g grid.Grid) grid.Grid {
				g = scale(g, 1.25, "HEALR")
				return scale(g, 1.1, "ALLYX")
			},
		},
		{
			Name:        "support",
			Description: "Ally buffs and utility",
			Check: func(g grid.Grid) bool {
				return g.Value("ALLYX", top)+g.Value("ATSFX", top) > 60
			},
			Apply: func(g grid.Grid) grid.Grid {
				return scale(g, 1.15, "ALLYX", "ATSFX")
			},
		},
		{
			Name:        "damage_dealer",
			Description: "Focused on dealing damage",
			Check: func(g grid.Grid) bool {
				return grid.AttackSum(g, top) > 200
			},
			Apply: func(g grid.Grid) grid.Grid {
				return scale(g, 1.1, attackKeys()...)
			},
		},
		{
			Name:        "defensive_specialist",
			Description: "Focused on defense",
			Check: func(g grid.Grid) bool {
				return grid.DefenseSum(g, top) > 200
			},
			Apply: func(g grid.Grid) grid.Grid {
				return scale(g, 1.1, defenceKeys()...)
			},
		},
		{
			Name:        "quick_starter",
			Description: "Strong at level 1",
			Check: func(g grid.Grid) bool {
				return grid.LevelTotal(g, 0) > 250
			},
			Apply: func(g grid.Grid) grid.Grid {
				return scaleLevels(g, map[int]float64{0: 1.15, 1: 1.1}, allKeys()...)
			},
		},
		{
			Name:        "late_bloomer",
			Description: "Weak early, strong late",
			Check: func(g grid.Grid) bool {
				return grid.LevelTotal(g, top) > grid.LevelTotal(g, 0)*4
			},
			Apply: func(g grid.Grid) grid.Grid {
				return scaleLevels(g, map[int]float64{0: 0.85, 7: 1.15, 8: 1.2}, allKeys()...)
			},
		},
		{
			Name:        "slow_starter",
			Description: "Weak at level 1",
			Check: func(g grid.Grid) bool {
				return grid.LevelTotal(g, 0) < 180
			},
			Apply: func(g grid.Grid) grid.Grid {
				return scaleLevels(g, map[int]float64{0: 0.9}, allKeys()...)
			},
		},
		{
			Name:        "early_bloomer",
			Description: "Strong early, weaker scaling",
			Check: func(g grid.Grid) bool {
				lv1 := grid.LevelTotal(g, 0)
				return lv1 > 250 && grid.LevelTotal(g, top) < lv1*3
			},
			Apply: func(g grid.Grid) grid.Grid {
				return scaleLevels(g, map[int]float64{0: 1.2, 1: 1.15}, allKeys()...)
			},
		},
		{
			Name:        "assassin",
			Description: "Special attacks backed by evasion",
			Check: func(g grid.Grid) bool {
				return g.Value("ATSPX", top) > 60 && g.Value("EVADE", top) > 40
			},
			Apply: func(g grid.Grid) grid.Grid {
				g = scale(g, 1.2, "ATSPX")
				return scale(g, 1.1, "EVADE")
			},
		},
		{
			Name:        "specialist",
			Description: "One attack type carries the build",
			Check: func(g grid.Grid) bool {
				sum := grid.AttackSum(g, top)
				return sum > 0 && float64(grid.AttackTop(g, top)) >= float64(sum)*0.6
			},
			Apply: func(g grid.Grid) grid.Grid {
				return scale(g, 1.15, topAttackKey(g))
			},
		},
		{
			Name:        "generalist",
			Description: "Every attack type stays viable",
			Check: func(g grid.Grid) bool {
				best := grid.AttackTop(g, top)
				if best <= 0 {
					return false
				}
				for _, k := range attackKeys() {
					if float64(g.Value(k, top)) < float64(best)*0.75 {
						return false
					}
				}
				return true
			},
			Apply: func(g grid.Grid) grid.Grid {
				return scale(g, 1.05, attackKeys()...)
			},
		},
	}
}

// specialistOf builds the melee/ranged/magic specialist tags: the attack
// stat dominates the attack sum at level 9.
func specialistOf(name, desc, atkKey, defKey string) Tag {
	return Tag{
		Name:        name,
		Description: desc,
		Check: func(g grid.Grid) bool {
			v := g.Value(atkKey, top)
			sum := grid.AttackSum(g, top)
			return v > 60 && float64(v)/float64(sum) > 0.5
		},
		Apply: func(g grid.Grid) grid.Grid {
			g = scale(g, 1.2, atkKey)
			return scale(g, 1.1, defKey)
		},
	}
}

// topAttackKey is the first attack stat, in catalog order, holding the
// largest level-9 value.
func topAttackKey(g grid.Grid) string {
	keys := attackKeys()
	best := keys[0]
	for _, k := range keys[1:] {
		if g.Value(k, top) > g.Value(best, top) {
			best = k
		}
	}
	return best
}
