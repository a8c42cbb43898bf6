package sheet

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/charconsole/statengine/internal/data"
	"github.com/charconsole/statengine/internal/grid"
)

// LevelStat is one level of the flat pre-sheet stat record. Apart from
// "level" every field is kept by its legacy key (hp, spd, mla, xpa, ...).
// Values may have been stored as numbers or numeric strings.
type LevelStat struct {
	Level  int
	Values map[string]int
}

func (l LevelStat) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, len(l.Values)+1)
	for k, v := range l.Values {
		m[k] = v
	}
	m["level"] = l.Level
	return json.Marshal(m)
}

func (l *LevelStat) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode level stat: %w", err)
	}
	l.fill(raw)
	return nil
}

func (l *LevelStat) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("decode level stat: %w", err)
	}
	l.fill(raw)
	return nil
}

func (l *LevelStat) fill(raw map[string]any) {
	l.Level = 0
	l.Values = make(map[string]int, len(raw))
	for k, v := range raw {
		n, ok := legacyInt(v)
		if !ok {
			continue
		}
		if k == "level" {
			l.Level = n
			continue
		}
		l.Values[k] = n
	}
}

// legacyInt reads a legacy field. Numbers are floored; strings take their
// leading integer, or 0. Null is reported as absent.
func legacyInt(v any) (int, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if math.IsInf(x, 0) {
			return 0, true
		}
		return grid.Floor(x), true
	case string:
		return leadingInt(x), true
	default:
		return 0, true
	}
}

func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// FromLegacy converts legacy level stats into a sheet. Levels are sorted and
// only the first 9 kept. Mapped stats take the legacy values and get
// multipliers from consecutive ratios: "2.000" when the previous value is
// zero and the next positive, "1.150" when the next is zero. Unmapped stats
// stay zero. No boundaries are recorded.
func FromLegacy(levels []LevelStat) *Sheet {
	sh := Empty()
	if len(levels) == 0 {
		return sh
	}

	sorted := append([]LevelStat(nil), levels...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })
	if len(sorted) > grid.LevelCount {
		sorted = sorted[:grid.LevelCount]
	}

	for _, lk := range data.LegacyKeys() {
		row := sh.Stats[lk.Stat]
		for i, ls := range sorted {
			if v, ok := ls.Values[lk.Legacy]; ok {
				row[i] = v
			}
		}
		sh.Stats[lk.Stat] = row
		sh.Multipliers[lk.Stat] = ratioMultipliers(row)
	}
	return sh
}

func ratioMultipliers(row grid.Row) grid.MultiplierRow {
	var m grid.MultiplierRow
	for i := range m {
		prev, next := row[i], row[i+1]
		switch {
		case prev > 0 && next > 0:
			m[i] = strconv.FormatFloat(float64(next)/float64(prev), 'f', 3, 64)
		case next > 0:
			m[i] = "2.000"
		default:
			m[i] = DefaultMultiplier
		}
	}
	return m
}
