// Package tag implements named stat-sheet rules. A tag pairs a detection
// predicate with a bulk transform; selections are resolved against a
// directed conflict table in priority order before being applied.
package tag

import (
	"errors"
	"fmt"

	"github.com/charconsole/statengine/internal/grid"
)

// Tag is one named rule. Check and Apply must be pure: Apply returns a new
// grid and never mutates its argument.
type Tag struct {
	Name        string
	Description string
	// Conflicts lists tags this one refuses to join once they are active.
	// The relation is directed; it is not mirrored onto the other tag.
	Conflicts []string
	Check     func(g grid.Grid) bool
	Apply     func(g grid.Grid) grid.Grid
}

// Resolution is the outcome of conflict resolution over a selection.
type Resolution struct {
	Active  []string
	Ignored []string
}

// Registry holds tags in registration order.
type Registry struct {
	tags   []Tag
	byName map[string]int
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

var ErrDuplicateTag = errors.New("duplicate tag")

// Register adds t. Names must be unique and both functions present.
func (r *Registry) Register(t Tag) error {
	if t.Name == "" {
		return fmt.Errorf("register tag: empty name")
	}
	if t.Check == nil || t.Apply == nil {
		return fmt.Errorf("register tag %s: check and apply are required", t.Name)
	}
	if _, ok := r.byName[t.Name]; ok {
		return fmt.Errorf("register tag %s: %w", t.Name, ErrDuplicateTag)
	}
	t.Conflicts = append([]string(nil), t.Conflicts...)
	r.byName[t.Name] = len(r.tags)
	r.tags = append(r.tags, t)
	return nil
}

// Get returns the tag named name.
func (r *Registry) Get(name string) (Tag, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Tag{}, false
	}
	return r.tags[i], true
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// All returns the registered tags in registration order.
func (r *Registry) All() []Tag {
	return append([]Tag(nil), r.tags...)
}

// Count returns the number of registered tags.
func (r *Registry) Count() int {
	return len(r.tags)
}

// Conflicts returns the declared conflict list of name (nil if unknown).
func (r *Registry) Conflicts(name string) []string {
	t, ok := r.Get(name)
	if !ok {
		return nil
	}
	return append([]string(nil), t.Conflicts...)
}

// DetectActive returns the names of every tag whose predicate holds for g,
// in registration order. It is independent of any selection.
func (r *Registry) DetectActive(g grid.Grid) []string {
	var out []string
	for _, t := range r.tags {
		if t.Check(g) {
			out = append(out, t.Name)
		}
	}
	return out
}

// Resolve walks selected in priority order (first is highest). A candidate
// is ignored when its own conflict list names a tag already accepted;
// otherwise it is accepted. Lookups go from the candidate's side only.
func (r *Registry) Resolve(selected []string) Resolution {
	res := Resolution{Active: []string{}, Ignored: []string{}}
	for _, candidate := range selected {
		conflicts := r.Conflicts(candidate)
		if containsAny(conflicts, res.Active) {
			res.Ignored = append(res.Ignored, candidate)
			continue
		}
		res.Active = append(res.Active, candidate)
	}
	return res
}

// Apply folds the named tags over g in order. Unknown names are skipped.
// g itself is never modified.
func (r *Registry) Apply(g grid.Grid, names []string) grid.Grid {
	result := g.Clone()
	for _, name := range names {
		t, ok := r.Get(name)
		if !ok {
			continue
		}
		result = t.Apply(result)
	}
	return result
}

func containsAny(list, of []string) bool {
	for _, a := range of {
		for _, b := range list {
			if a == b {
				return true
			}
		}
	}
	return false
}
