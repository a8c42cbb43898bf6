package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/charconsole/statengine/internal/grid"
)

// installAPI sets the globals scripts may use. Levels are 1-based on the
// Lua side.
func (e *Engine) installAPI() {
	L := e.vm
	L.SetGlobal("API_VERSION", lua.LNumber(APIVersion))
	L.SetGlobal("LEVELS", lua.LNumber(grid.LevelCount))
	L.SetGlobal("register_tag", L.NewFunction(e.luaRegisterTag))
	L.SetGlobal("value", L.NewFunction(luaValue))
	L.SetGlobal("attack_sum", L.NewFunction(levelFunc(grid.AttackSum)))
	L.SetGlobal("defense_sum", L.NewFunction(levelFunc(grid.DefenseSum)))
	L.SetGlobal("level_total", L.NewFunction(levelFunc(grid.LevelTotal)))
	L.SetGlobal("scale", L.NewFunction(luaScale))
}

// register_tag{name=, description=, conflicts={...}, check=fn, apply=fn}
func (e *Engine) luaRegisterTag(L *lua.LState) int {
	t := L.CheckTable(1)

	name := lStr(t, "name")
	if name == "" {
		L.ArgError(1, "name is required")
		return 0
	}
	check, ok := t.RawGetString("check").(*lua.LFunction)
	if !ok {
		L.ArgError(1, "check must be a function")
		return 0
	}
	apply, ok := t.RawGetString("apply").(*lua.LFunction)
	if !ok {
		L.ArgError(1, "apply must be a function")
		return 0
	}

	var conflicts []string
	if ct, ok := t.RawGetString("conflicts").(*lua.LTable); ok {
		ct.ForEach(func(_, v lua.LValue) {
			if s, ok := v.(lua.LString); ok {
				conflicts = append(conflicts, string(s))
			}
		})
	}

	e.tags = append(e.tags, scriptTag{
		name:        name,
		description: lStr(t, "description"),
		conflicts:   conflicts,
		check:       check,
		apply:       apply,
	})
	return 0
}

// value(grid, key, level) -> number, 0 when absent.
func luaValue(L *lua.LState) int {
	g := tableToGrid(L.CheckTable(1))
	key := L.CheckString(2)
	level := L.CheckInt(3)
	L.Push(lua.LNumber(g.Value(key, level-1)))
	return 1
}

// levelFunc adapts a (grid, 0-based level) aggregate to fn(grid, level).
func levelFunc(f func(grid.Grid, int) int) lua.LGFunction {
	return func(L *lua.LState) int {
		g := tableToGrid(L.CheckTable(1))
		level := L.CheckInt(2)
		if level < 1 || level > grid.LevelCount {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(f(g, level-1)))
		return 1
	}
}

// scale(grid, {keys}, factor) -> new grid with every level of keys scaled
// and floored. Keys absent from grid are ignored.
func luaScale(L *lua.LState) int {
	g := tableToGrid(L.CheckTable(1))
	keys := L.CheckTable(2)
	factor := float64(L.CheckNumber(3))

	keys.ForEach(func(_, v lua.LValue) {
		k, ok := v.(lua.LString)
		if !ok {
			return
		}
		row, ok := g[string(k)]
		if !ok {
			return
		}
		for i := range row {
			row[i] = grid.Step(row[i], factor)
		}
		g[string(k)] = row
	})
	L.Push(gridToTable(L, g))
	return 1
}

// gridToTable builds a fresh table of stat key -> 1-based array of values.
func gridToTable(L *lua.LState, g grid.Grid) *lua.LTable {
	t := L.NewTable()
	for key, row := range g {
		rt := L.CreateTable(grid.LevelCount, 0)
		for _, v := range row {
			rt.Append(lua.LNumber(v))
		}
		t.RawSetString(key, rt)
	}
	return t
}

// tableToGrid reads a stat table back. Non-table entries are dropped;
// missing or non-numeric levels read as 0 and fractions are floored.
func tableToGrid(t *lua.LTable) grid.Grid {
	g := grid.Grid{}
	t.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		rt, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		var row grid.Row
		for i := range row {
			if n, ok := rt.RawGetInt(i + 1).(lua.LNumber); ok {
				row[i] = grid.Floor(float64(n))
			}
		}
		g[string(key)] = row
	})
	return g
}

// lStr reads a string field from a Lua table.
func lStr(t *lua.LTable, key string) string {
	return lua.LVAsString(t.RawGetString(key))
}
