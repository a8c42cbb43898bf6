package sheet

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/charconsole/statengine/internal/tag"
)

func (s *Service) knownTag(name string) error {
	if !s.tags.Has(name) {
		return fmt.Errorf("tag %q: %w", name, ErrInvalidKey)
	}
	return nil
}

func (s *Service) selected(sh *Sheet, name string) error {
	if !tag.Contains(sh.Tags.Selected, name) {
		return fmt.Errorf("tag %q not selected: %w", name, ErrInvalidKey)
	}
	return nil
}

// ToggleTag selects name at the lowest priority, or deselects it. The grid
// is untouched until ApplySelectedTags.
func (s *Service) ToggleTag(sh *Sheet, name string) (*Sheet, error) {
	if err := s.knownTag(name); err != nil {
		return nil, err
	}
	out := sh.Clone()
	out.Tags.Selected = tag.Toggle(sh.Tags.Selected, name)
	return out, nil
}

// MoveTagUp raises name's priority by one place.
func (s *Service) MoveTagUp(sh *Sheet, name string) (*Sheet, error) {
	if err := s.selected(sh, name); err != nil {
		return nil, err
	}
	out := sh.Clone()
	out.Tags.Selected = tag.MoveUp(sh.Tags.Selected, name)
	return out, nil
}

// MoveTagDown lowers name's priority by one place.
func (s *Service) MoveTagDown(sh *Sheet, name string) (*Sheet, error) {
	if err := s.selected(sh, name); err != nil {
		return nil, err
	}
	out := sh.Clone()
	out.Tags.Selected = tag.MoveDown(sh.Tags.Selected, name)
	return out, nil
}

// ApplySelectedTags resolves the selection, recomputes the base grid from
// the sheet's inputs and folds the active tags over it in priority order.
func (s *Service) ApplySelectedTags(sh *Sheet) *Sheet {
	res := s.tags.Resolve(sh.Tags.Selected)

	out := sh.Clone()
	out.Stats = s.tags.Apply(out.Recompute(), res.Active)
	out.Tags = TagState{
		Selected: cloneStrings(sh.Tags.Selected),
		Active:   res.Active,
		Ignored:  res.Ignored,
	}
	if out.Tags.Selected == nil {
		out.Tags.Selected = []string{}
	}
	out.Tracked = nil

	if len(res.Ignored) > 0 {
		s.log.Debug("tags ignored by conflict", zap.Strings("ignored", res.Ignored))
	}
	return out
}

// DetectTags lists every registered tag whose predicate holds for the
// sheet's current grid.
func (s *Service) DetectTags(sh *Sheet) []string {
	return s.tags.DetectActive(sh.Stats)
}
