package sheet

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/charconsole/statengine/internal/data"
	"github.com/charconsole/statengine/internal/grid"
)

// ExportJSON renders the canonical, indented envelope. Map keys come out
// sorted, so equal sheets export to identical bytes.
func ExportJSON(sh *Sheet) ([]byte, error) {
	out, err := json.MarshalIndent(sh, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export stat sheet: %w", err)
	}
	return out, nil
}

// envelope is the loosely typed decode target of ImportJSON. Slices and
// pointers let missing fields and wrong lengths be told apart from zeros.
type envelope struct {
	Version     *int                      `json:"version"`
	Cap         *int                      `json:"cap"`
	Stats       map[string][]*int         `json:"stats"`
	Multipliers map[string][]string       `json:"multipliers"`
	Manual      map[string]map[int]string `json:"manual"`
	Locks       map[string]bool           `json:"locks"`
	Boundaries  map[string]int            `json:"boundaries"`
	Tags        *TagState                 `json:"tags"`
	Tracked     *Tracked                  `json:"tracked"`
}

func rejected(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrImportSchema)
}

// ImportJSON parses and checks an envelope. Any problem yields a nil sheet
// and an error wrapping ErrImportSchema. Keys outside the catalog are
// dropped; false locks and empty optional maps are normalized away.
func ImportJSON(raw []byte) (*Sheet, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, rejected("decode: %v", err)
	}

	switch {
	case env.Version == nil:
		return nil, rejected("missing version")
	case *env.Version != Version:
		return nil, rejected("version %d, want %d", *env.Version, Version)
	case env.Cap != nil && *env.Cap != Cap:
		return nil, rejected("cap %d, want %d", *env.Cap, Cap)
	case env.Stats == nil:
		return nil, rejected("missing stats")
	case env.Multipliers == nil:
		return nil, rejected("missing multipliers")
	case env.Tags == nil:
		return nil, rejected("missing tags")
	}

	sh := &Sheet{
		Version:     Version,
		Cap:         Cap,
		Stats:       grid.Grid{},
		Multipliers: grid.Multipliers{},
		Tags:        *env.Tags,
		Tracked:     env.Tracked,
	}

	for _, key := range data.Stats().Keys() {
		values, ok := env.Stats[key]
		if !ok || len(values) != grid.LevelCount {
			return nil, rejected("invalid stat data for %s", key)
		}
		mults, ok := env.Multipliers[key]
		if !ok || len(mults) != grid.TransitionCount {
			return nil, rejected("invalid multipliers for %s", key)
		}
		var row grid.Row
		for i, v := range values {
			if v == nil {
				return nil, rejected("null value in %s at level %d", key, i+1)
			}
			row[i] = *v
		}
		sh.Stats[key] = row
		var mrow grid.MultiplierRow
		copy(mrow[:], mults)
		sh.Multipliers[key] = mrow
	}

	for key, levels := range env.Manual {
		if !data.Stats().Has(key) || len(levels) == 0 {
			continue
		}
		m := make(map[int]string, len(levels))
		for level, v := range levels {
			if level < 0 || level >= grid.LevelCount {
				return nil, rejected("manual %s: level %d out of range", key, level)
			}
			m[level] = v
		}
		if sh.Manual == nil {
			sh.Manual = grid.Manual{}
		}
		sh.Manual[key] = m
	}

	for key, locked := range env.Locks {
		if !locked || !data.Stats().Has(key) {
			continue
		}
		if sh.Locks == nil {
			sh.Locks = grid.Locks{}
		}
		sh.Locks[key] = true
	}

	for key, v := range env.Boundaries {
		if !data.Stats().Has(key) {
			continue
		}
		if sh.Boundaries == nil {
			sh.Boundaries = grid.Boundaries{}
		}
		sh.Boundaries[key] = v
	}

	return sh, nil
}

// JSONSchema describes the envelope ExportJSON writes.
func JSONSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(Sheet))
	schema.Title = "Stat Sheet"
	schema.Description = "Versioned 9-level stat grid with its multipliers, overrides, locks and tag selection"
	return schema
}
