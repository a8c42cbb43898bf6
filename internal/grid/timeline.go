package grid

import (
	"fmt"
	"strings"

	"github.com/charconsole/statengine/internal/data"
)

// EventKind classifies a timeline event.
type EventKind string

const (
	EventLearn EventKind = "LEARN" // first level with a non-zero value
	EventBoost EventKind = "BOOST" // jump above 1.5x the previous level
)

const (
	boostRatio = 1.5
	boostFloor = 10
)

// Event is one unlock or boost of a stat at a 1-based level.
type Event struct {
	Level int
	Kind  EventKind
	Stat  string
}

// Timeline is the reconstructed unlock/boost history of a grid.
type Timeline struct {
	FirstNonZero map[string]int // stat key -> 1-based level
	Events       []Event        // ordered by level, then catalog order
	Lines        []string       // one summary per level with events
}

// BuildTimeline scans every stat in catalog order for its first non-zero
// level and for boosts, then renders one line per level.
func BuildTimeline(g Grid) Timeline {
	tl := Timeline{FirstNonZero: make(map[string]int)}
	byLevel := make([][]Event, LevelCount+1)

	for _, key := range data.Stats().Keys() {
		row, ok := g[key]
		if !ok {
			continue
		}
		for i, v := range row {
			if v > 0 {
				tl.FirstNonZero[key] = i + 1
				byLevel[i+1] = append(byLevel[i+1], Event{Level: i + 1, Kind: EventLearn, Stat: key})
				break
			}
		}
		for i := 1; i < LevelCount; i++ {
			if float64(row[i]) > float64(row[i-1])*boostRatio && row[i] > boostFloor {
				byLevel[i+1] = append(byLevel[i+1], Event{Level: i + 1, Kind: EventBoost, Stat: key})
			}
		}
	}

	for level := 1; level <= LevelCount; level++ {
		events := byLevel[level]
		if len(events) == 0 {
			continue
		}
		tl.Events = append(tl.Events, events...)

		var learns, boosts []string
		for _, e := range events {
			if e.Kind == EventLearn {
				learns = append(learns, e.Stat)
			} else {
				boosts = append(boosts, e.Stat)
			}
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Level %d:", level)
		if len(learns) > 0 {
			fmt.Fprintf(&b, " LEARN [%s]", strings.Join(learns, ", "))
		}
		if len(boosts) > 0 {
			fmt.Fprintf(&b, " BOOST [%s]", strings.Join(boosts, ", "))
		}
		tl.Lines = append(tl.Lines, b.String())
	}
	return tl
}
