package grid

import (
	"fmt"

	"github.com/charconsole/statengine/internal/data"
)

// Validate lists every bound, monotonicity and cap violation in g, in
// catalog order with the cap check last. An empty result means valid.
// Stats missing from g are not checked.
func Validate(g Grid) []string {
	var errs []string

	for _, stat := range data.Stats().List() {
		row, ok := g[stat.Key]
		if !ok {
			continue
		}

		if row[0] < stat.Lowest {
			errs = append(errs, fmt.Sprintf("%s Level 1 below minimum (%d)", stat.Key, stat.Lowest))
		}
		if row[0] > stat.Lv1Limit {
			errs = append(errs, fmt.Sprintf("%s Level 1 exceeds limit (%d)", stat.Key, stat.Lv1Limit))
		}

		for i := 1; i < LevelCount; i++ {
			if row[i] < row[i-1] {
				errs = append(errs, fmt.Sprintf("%s decreases from Level %d to Level %d", stat.Key, i, i+1))
			}
		}

		for i, v := range row {
			if v > stat.Limit {
				errs = append(errs, fmt.Sprintf("%s Level %d exceeds absolute limit (%d)", stat.Key, i+1, stat.Limit))
			}
		}
	}

	if total := GrandTotal(g); total > Cap {
		errs = append(errs, fmt.Sprintf("Grand total (%d) exceeds cap of %d", total, Cap))
	}
	return errs
}
