package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charconsole/statengine/internal/grid"
	"github.com/charconsole/statengine/internal/persist"
	"github.com/charconsole/statengine/internal/sheet"
)

// cliEnv points the CLI at the repo scripts and a scratch store and returns
// the store path.
func cliEnv(t *testing.T) string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("STATENGINE_CONFIG", "")
	t.Setenv("STATENGINE_LOG_LEVEL", "error")
	t.Setenv("STATENGINE_SCRIPTS_DIR", "../../scripts")
	t.Setenv("STATENGINE_STORE_BACKEND", "sqlite")
	t.Setenv("STATENGINE_STORE_DSN", dsn)
	return dsn
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), args, &out)
	return out.String(), err
}

func writeFile(t *testing.T, name string, body []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, body, 0o644))
	return path
}

func defaultSheetFile(t *testing.T) string {
	t.Helper()
	raw, err := sheet.ExportJSON(sheet.Default())
	require.NoError(t, err)
	return writeFile(t, "default.json", raw)
}

func TestDefaultCommand(t *testing.T) {
	cliEnv(t)
	out, err := runCLI(t, "default")
	require.NoError(t, err)

	sh, err := sheet.ImportJSON([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, sheet.Default(), sh)
}

func TestValidateCommand(t *testing.T) {
	cliEnv(t)
	out, err := runCLI(t, "validate", defaultSheetFile(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Grand total (6046) exceeds cap of 5200")
	assert.Contains(t, out, "6046")
}

func TestTimelineCommand(t *testing.T) {
	cliEnv(t)
	out, err := runCLI(t, "timeline", defaultSheetFile(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Timeline")
	assert.Contains(t, out, "HPMAX")
}

func TestTagsCommands(t *testing.T) {
	cliEnv(t)
	file := defaultSheetFile(t)

	out, err := runCLI(t, "tags", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Glass Cannon")
	assert.Contains(t, out, "Sniper")
	assert.Contains(t, out, "conflicts: melee_specialist")

	out, err = runCLI(t, "tags", "detect", file)
	require.NoError(t, err)
	assert.Contains(t, out, "balanced")
	assert.Contains(t, out, "generalist")

	out, err = runCLI(t, "tags", "apply", file, "damage_dealer")
	require.NoError(t, err)
	sh, err := sheet.ImportJSON([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"damage_dealer"}, sh.Tags.Active)
	assert.Empty(t, sh.Tags.Ignored)

	_, err = runCLI(t, "tags", "apply", file, "no_such_tag")
	assert.ErrorIs(t, err, sheet.ErrInvalidKey)
}

func TestConvertCommand(t *testing.T) {
	cliEnv(t)
	path := writeFile(t, "old.yaml", []byte("- {level: 1, hp: 50}\n- {level: 2, hp: \"57\"}\n"))

	out, err := runCLI(t, "convert", path)
	require.NoError(t, err)
	sh, err := sheet.ImportJSON([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, grid.Row{50, 57}, sh.Stats["HPMAX"])
}

func TestSchemaCommand(t *testing.T) {
	cliEnv(t)
	path := filepath.Join(t.TempDir(), "schema.json")

	out, err := runCLI(t, "schema", "-out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "schema written")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Stat Sheet")
}

func TestUsageErrors(t *testing.T) {
	cliEnv(t)
	tests := [][]string{
		{},
		{"bogus"},
		{"validate"},
		{"tags"},
		{"tags", "shout"},
		{"show"},
		{"edit", "vex"},
		{"edit", "vex", "teleport"},
		{"edit", "vex", "set", "HPMAX", "three", "77"},
		{"edit", "vex", "lock"},
	}
	for _, args := range tests {
		_, err := runCLI(t, args...)
		assert.ErrorIs(t, err, errUsage, "%v", args)
	}
}

func TestStoreCommands(t *testing.T) {
	dsn := cliEnv(t)
	ctx := context.Background()

	st, err := persist.OpenSQLite(ctx, dsn, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, st.Put(ctx, &persist.Character{ID: "vex", Name: "Vex", StatSheet: sheet.Default()}))
	require.NoError(t, st.Put(ctx, &persist.Character{ID: "old", Name: "Old", LevelStats: []sheet.LevelStat{
		{Level: 1, Values: map[string]int{"hp": 50}},
	}}))
	require.NoError(t, st.Close())

	out, err := runCLI(t, "show", "old")
	require.NoError(t, err)
	assert.Contains(t, out, "Old")
	assert.Contains(t, out, "converted from legacy")

	out, err = runCLI(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Characters migrated")

	out, err = runCLI(t, "show", "old")
	require.NoError(t, err)
	assert.NotContains(t, out, "converted from legacy")

	out, err = runCLI(t, "edit", "vex", "set", "HPMAX", "3", "77")
	require.NoError(t, err)
	assert.Contains(t, out, "vex saved at revision 2")

	out, err = runCLI(t, "edit", "vex", "tag", "tank")
	require.NoError(t, err)
	assert.Contains(t, out, "revision 3")

	_, err = runCLI(t, "edit", "ghost", "lock", "HPMAX")
	assert.ErrorIs(t, err, persist.ErrNotFound)

	out, err = runCLI(t, "edit", "help")
	require.NoError(t, err)
	assert.Contains(t, out, "scale-col")
	assert.Contains(t, out, "converted from legacy carry no boundaries")
}
