package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charconsole/statengine/internal/character"
	"github.com/charconsole/statengine/internal/grid"
	"github.com/charconsole/statengine/internal/sheet"
)

// editOp builds an edit from its arguments. Levels are 0-based.
type editOp struct {
	args  string
	nargs int
	build func(s *sheet.Service, args []string) (character.EditFunc, error)
}

var editOps = map[string]editOp{
	"set": {"KEY LEVEL VALUE", 3, func(s *sheet.Service, a []string) (character.EditFunc, error) {
		level, err := atoi(a[1])
		if err != nil {
			return nil, err
		}
		value, err := atoi(a[2])
		if err != nil {
			return nil, err
		}
		return func(sh *sheet.Sheet) (*sheet.Sheet, error) { return s.UpdateStatValue(sh, a[0], level, value) }, nil
	}},
	"mult": {"KEY TRANSITION VALUE", 3, func(s *sheet.Service, a []string) (character.EditFunc, error) {
		transition, err := atoi(a[1])
		if err != nil {
			return nil, err
		}
		return func(sh *sheet.Sheet) (*sheet.Sheet, error) { return s.UpdateMultiplier(sh, a[0], transition, a[2]) }, nil
	}},
	"boundary": {"KEY VALUE", 2, func(s *sheet.Service, a []string) (character.EditFunc, error) {
		value, err := atoi(a[1])
		if err != nil {
			return nil, err
		}
		return func(sh *sheet.Sheet) (*sheet.Sheet, error) { return s.UpdateBoundary(sh, a[0], value) }, nil
	}},
	"lock": {"KEY", 1, func(s *sheet.Service, a []string) (character.EditFunc, error) {
		return func(sh *sheet.Sheet) (*sheet.Sheet, error) { return s.ToggleLock(sh, a[0]) }, nil
	}},
	"clear": {"KEY LEVEL", 2, func(s *sheet.Service, a []string) (character.EditFunc, error) {
		level, err := atoi(a[1])
		if err != nil {
			return nil, err
		}
		return func(sh *sheet.Sheet) (*sheet.Sheet, error) { return s.ClearManualOverride(sh, a[0], level) }, nil
	}},
	"scale-row": {"LEVEL FACTOR", 2, func(s *sheet.Service, a []string) (character.EditFunc, error) {
		level, err := atoi(a[0])
		if err != nil {
			return nil, err
		}
		factor, err := atof(a[1])
		if err != nil {
			return nil, err
		}
		return func(sh *sheet.Sheet) (*sheet.Sheet, error) { return s.ScaleRow(sh, level, factor) }, nil
	}},
	"scale-col": {"KEY FACTOR", 2, func(s *sheet.Service, a []string) (character.EditFunc, error) {
		factor, err := atof(a[1])
		if err != nil {
			return nil, err
		}
		return func(sh *sheet.Sheet) (*sheet.Sheet, error) { return s.ScaleColumn(sh, a[0], factor) }, nil
	}},
	"tag": {"NAME", 1, func(s *sheet.Service, a []string) (character.EditFunc, error) {
		return func(sh *sheet.Sheet) (*sheet.Sheet, error) { return s.ToggleTag(sh, a[0]) }, nil
	}},
	"tag-up": {"NAME", 1, func(s *sheet.Service, a []string) (character.EditFunc, error) {
		return func(sh *sheet.Sheet) (*sheet.Sheet, error) { return s.MoveTagUp(sh, a[0]) }, nil
	}},
	"tag-down": {"NAME", 1, func(s *sheet.Service, a []string) (character.EditFunc, error) {
		return func(sh *sheet.Sheet) (*sheet.Sheet, error) { return s.MoveTagDown(sh, a[0]) }, nil
	}},
	"apply-tags": {"", 0, func(s *sheet.Service, _ []string) (character.EditFunc, error) {
		return func(sh *sheet.Sheet) (*sheet.Sheet, error) { return s.ApplySelectedTags(sh), nil }, nil
	}},
	"track": {"", 0, func(_ *sheet.Service, _ []string) (character.EditFunc, error) {
		return func(sh *sheet.Sheet) (*sheet.Sheet, error) { return sheet.Track(sh), nil }, nil
	}},
	"reset": {"", 0, func(_ *sheet.Service, _ []string) (character.EditFunc, error) {
		return func(*sheet.Sheet) (*sheet.Sheet, error) { return sheet.Default(), nil }, nil
	}},
}

func atoi(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", errUsage, s)
	}
	return n, nil
}

func atof(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, s)
	}
	return f, nil
}

func (a *app) editHelp() error {
	names := make([]string, 0, len(editOps))
	for name := range editOps {
		names = append(names, name)
	}
	sort.Strings(names)

	printSection(a.out, "Edit operations")
	for _, name := range names {
		printLine(a.out, "%-12s %s", name, editOps[name].args)
	}
	printLine(a.out, "LEVEL is 0-%d, TRANSITION is 0-%d", grid.LevelCount-1, grid.LevelCount-2)
	printLine(a.out, "set, mult, boundary, lock, clear and apply-tags rebuild every row from boundaries")
	printLine(a.out, "and manual overrides. Sheets converted from legacy carry no boundaries, so their")
	printLine(a.out, "unpinned rows restart from 0: set boundaries first.")
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	if len(args) == 1 && args[0] == "help" {
		return a.editHelp()
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: edit ID OP ARGS...", errUsage)
	}
	id, name, opArgs := args[0], args[1], args[2:]

	op, ok := editOps[name]
	if !ok {
		return fmt.Errorf("%w: unknown edit operation %q", errUsage, name)
	}
	if len(opArgs) != op.nargs {
		return fmt.Errorf("%w: edit ID %s", errUsage, strings.TrimSpace(name+" "+op.args))
	}
	fn, err := op.build(a.sheets, opArgs)
	if err != nil {
		return err
	}

	return a.withCharacters(ctx, func(svc *character.Service) error {
		c, err := svc.EditSheet(ctx, id, fn)
		if err != nil {
			return err
		}
		printOK(a.out, fmt.Sprintf("%s saved at revision %d", c.ID, c.Revision))
		printStat(a.out, "Grand total", grid.GrandTotal(c.StatSheet.Stats))
		return nil
	})
}
