package sheet

import (
	"github.com/charconsole/statengine/internal/data"
	"github.com/charconsole/statengine/internal/grid"
)

// Track returns a copy of sh with its timeline cache filled in. Manual
// jumps are keyed by 1-based level and list, in catalog order, how far each
// override sits from the value the chain would have produced there.
func Track(sh *Sheet) *Sheet {
	out := sh.Clone()
	tl := grid.BuildTimeline(out.Stats)

	tracked := &Tracked{
		FirstNonZero: tl.FirstNonZero,
		Timeline:     tl.Lines,
	}
	if tracked.Timeline == nil {
		tracked.Timeline = []string{}
	}

	for _, key := range data.Stats().Keys() {
		levels, ok := out.Manual[key]
		if !ok || out.Locks[key] {
			continue
		}
		row := out.Stats[key]
		for level := 0; level < grid.LevelCount; level++ {
			if _, ok := levels[level]; !ok {
				continue
			}
			d := row[level] - chained(out, key, level)
			if tracked.ManualJumps == nil {
				tracked.ManualJumps = map[int][]Jump{}
			}
			tracked.ManualJumps[level+1] = append(tracked.ManualJumps[level+1], Jump{K: key, D: d})
		}
	}

	out.Tracked = tracked
	return out
}

// chained is the value the multiplier chain gives at level, fed by the
// current grid's previous level (or the boundary at level 0).
func chained(sh *Sheet, key string, level int) int {
	if level == 0 {
		return sh.Boundaries[key]
	}
	return grid.Step(sh.Stats[key][level-1], grid.ParseMultiplier(sh.Multipliers[key][level-1]))
}
