package sheet

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charconsole/statengine/internal/grid"
)

func editedSheet(t *testing.T) *Sheet {
	t.Helper()
	svc := newService()
	sh, err := svc.UpdateStatValue(Default(), "HPMAX", 3, 77)
	require.NoError(t, err)
	sh, err = svc.ToggleLock(sh, "THRET")
	require.NoError(t, err)
	sh, err = svc.UpdateMultiplier(sh, "ATRNG", 2, "1.333")
	require.NoError(t, err)
	sh, err = svc.ToggleTag(sh, "glass_cannon")
	require.NoError(t, err)
	sh, err = svc.ToggleTag(sh, "tank")
	require.NoError(t, err)
	return Track(svc.ApplySelectedTags(sh))
}

func TestRoundTrip(t *testing.T) {
	for name, sh := range map[string]*Sheet{
		"default": Default(),
		"empty":   Empty(),
		"edited":  editedSheet(t),
		"legacy":  FromLegacy(constantLegacy("hp", 50, 10)),
	} {
		t.Run(name, func(t *testing.T) {
			raw, err := ExportJSON(sh)
			require.NoError(t, err)

			back, err := ImportJSON(raw)
			require.NoError(t, err)
			assert.Equal(t, sh, back)

			again, err := ExportJSON(back)
			require.NoError(t, err)
			assert.Equal(t, string(raw), string(again))
		})
	}
}

func TestExportShape(t *testing.T) {
	raw, err := ExportJSON(editedSheet(t))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.EqualValues(t, 2, doc["version"])
	assert.EqualValues(t, 5200, doc["cap"])
	assert.Equal(t, map[string]any{"3": "77"}, doc["manual"].(map[string]any)["HPMAX"])
	assert.Equal(t, map[string]any{"THRET": true}, doc["locks"])
	assert.Len(t, doc["stats"].(map[string]any)["HPMAX"], 9)
	assert.Len(t, doc["multipliers"].(map[string]any)["HPMAX"], 8)
	assert.Contains(t, doc, "tracked")
	assert.True(t, strings.HasPrefix(string(raw), "{\n  \"version\": 2,"))
}

// envelopeWith exports the default sheet, lets edit mangle the decoded
// document and re-encodes it.
func envelopeWith(t *testing.T, edit func(doc map[string]any)) []byte {
	t.Helper()
	raw, err := ExportJSON(Default())
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	edit(doc)
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	return out
}

func TestImportRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"not json", []byte("{oops")},
		{"array", []byte("[]")},
		{"trailing data", append(envelopeWith(t, func(map[string]any) {}), []byte(" this is not json")...)},
		{"second document", append(envelopeWith(t, func(map[string]any) {}), []byte("{}")...)},
		{"version 1", envelopeWith(t, func(d map[string]any) { d["version"] = 1 })},
		{"no version", envelopeWith(t, func(d map[string]any) { delete(d, "version") })},
		{"wrong cap", envelopeWith(t, func(d map[string]any) { d["cap"] = 9000 })},
		{"no stats", envelopeWith(t, func(d map[string]any) { delete(d, "stats") })},
		{"no multipliers", envelopeWith(t, func(d map[string]any) { delete(d, "multipliers") })},
		{"no tags", envelopeWith(t, func(d map[string]any) { delete(d, "tags") })},
		{"missing stat", envelopeWith(t, func(d map[string]any) {
			delete(d["stats"].(map[string]any), "REGEN")
		})},
		{"short stat row", envelopeWith(t, func(d map[string]any) {
			d["stats"].(map[string]any)["HPMAX"] = []int{1, 2, 3}
		})},
		{"long stat row", envelopeWith(t, func(d map[string]any) {
			d["stats"].(map[string]any)["HPMAX"] = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		})},
		{"null stat cell", envelopeWith(t, func(d map[string]any) {
			d["stats"].(map[string]any)["HPMAX"] = []any{nil, 57, 65, 74, 85, 97, 111, 127, 146}
		})},
		{"fractional stat", envelopeWith(t, func(d map[string]any) {
			d["stats"].(map[string]any)["HPMAX"] = []float64{1.5, 2, 3, 4, 5, 6, 7, 8, 9}
		})},
		{"missing multiplier", envelopeWith(t, func(d map[string]any) {
			delete(d["multipliers"].(map[string]any), "ATMEL")
		})},
		{"seven multipliers", envelopeWith(t, func(d map[string]any) {
			d["multipliers"].(map[string]any)["ATMEL"] = []string{"1", "1", "1", "1", "1", "1", "1"}
		})},
		{"manual level out of range", envelopeWith(t, func(d map[string]any) {
			d["manual"] = map[string]any{"HPMAX": map[string]any{"9": "5"}}
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh, err := ImportJSON(tt.raw)
			assert.ErrorIs(t, err, ErrImportSchema)
			assert.Nil(t, sh)
		})
	}
}

func TestImportNormalizes(t *testing.T) {
	raw := envelopeWith(t, func(d map[string]any) {
		d["stats"].(map[string]any)["XTRA"] = []int{1, 2, 3}
		d["locks"] = map[string]any{"HPMAX": false, "QUICK": true, "XTRA": true}
		d["manual"] = map[string]any{"ATMEL": map[string]any{}, "XTRA": map[string]any{"1": "4"}}
		d["boundaries"] = map[string]any{"HPMAX": 60, "XTRA": 3}
		delete(d, "cap")
	})

	sh, err := ImportJSON(raw)
	require.NoError(t, err)
	assert.NotContains(t, sh.Stats, "XTRA")
	assert.Equal(t, grid.Locks{"QUICK": true}, sh.Locks)
	assert.Nil(t, sh.Manual)
	assert.Equal(t, grid.Boundaries{"HPMAX": 60}, sh.Boundaries)
	assert.Equal(t, Cap, sh.Cap)
}
