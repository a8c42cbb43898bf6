package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/charconsole/statengine/internal/grid"
	"github.com/charconsole/statengine/internal/tag"
)

// APIVersion is exposed to scripts as API_VERSION.
const APIVersion = 1

// Engine wraps a single gopher-lua VM holding script-defined tags.
// Calls into the VM are serialized by mu.
type Engine struct {
	mu   sync.Mutex
	vm   *lua.LState
	log  *zap.Logger
	tags []scriptTag
}

// scriptTag is one register_tag{} call.
type scriptTag struct {
	name        string
	description string
	conflicts   []string
	check       *lua.LFunction
	apply       *lua.LFunction
}

// NewEngine creates a Lua engine and loads every script under
// scriptsDir/tags. A missing directory yields an engine with no tags.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	e := &Engine{vm: vm, log: log}
	e.installAPI()

	if err := e.loadDir(filepath.Join(scriptsDir, "tags")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load tag scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source, typically a register_tag call.
func (e *Engine) LoadString(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vm.DoString(src)
}

// Names returns the script tag names in load order.
func (e *Engine) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.tags))
	for i, t := range e.tags {
		out[i] = t.name
	}
	return out
}

// Tags returns the script tags as tag.Tag values backed by this VM.
func (e *Engine) Tags() []tag.Tag {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]tag.Tag, 0, len(e.tags))
	for _, st := range e.tags {
		st := st
		out = append(out, tag.Tag{
			Name:        st.name,
			Description: st.description,
			Conflicts:   append([]string(nil), st.conflicts...),
			Check:       func(g grid.Grid) bool { return e.check(st, g) },
			Apply:       func(g grid.Grid) grid.Grid { return e.apply(st, g) },
		})
	}
	return out
}

// RegisterInto adds the script tags to r. A tag whose name is already taken
// is skipped with a warning. It returns how many were added.
func (e *Engine) RegisterInto(r *tag.Registry) int {
	n := 0
	for _, t := range e.Tags() {
		if err := r.Register(t); err != nil {
			e.log.Warn("skip script tag", zap.String("tag", t.Name), zap.Error(err))
			continue
		}
		n++
	}
	return n
}

// check runs a script predicate. Errors count as "not matched".
func (e *Engine) check(st scriptTag, g grid.Grid) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.vm.CallByParam(lua.P{
		Fn:      st.check,
		NRet:    1,
		Protect: true,
	}, gridToTable(e.vm, g)); err != nil {
		e.log.Error("lua tag check error", zap.String("tag", st.name), zap.Error(err))
		return false
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return lua.LVAsBool(result)
}

// apply runs a script transform. On error, or a non-table result, the grid
// comes back unchanged.
func (e *Engine) apply(st scriptTag, g grid.Grid) grid.Grid {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.vm.CallByParam(lua.P{
		Fn:      st.apply,
		NRet:    1,
		Protect: true,
	}, gridToTable(e.vm, g)); err != nil {
		e.log.Error("lua tag apply error", zap.String("tag", st.name), zap.Error(err))
		return g.Clone()
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua tag apply returned non-table", zap.String("tag", st.name))
		return g.Clone()
	}
	return tableToGrid(rt)
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}
