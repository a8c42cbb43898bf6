// statsheet is the operator CLI for character stat sheets: it generates,
// validates and inspects sheet files and edits sheets in the character
// store.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/charconsole/statengine/internal/character"
	"github.com/charconsole/statengine/internal/config"
	"github.com/charconsole/statengine/internal/core/event"
	"github.com/charconsole/statengine/internal/grid"
	"github.com/charconsole/statengine/internal/logging"
	"github.com/charconsole/statengine/internal/persist"
	"github.com/charconsole/statengine/internal/scripting"
	"github.com/charconsole/statengine/internal/sheet"
	"github.com/charconsole/statengine/internal/tag"
)

const usage = `usage: statsheet [-config PATH] COMMAND [ARGS]

commands:
  default                       print the default sheet as JSON
  validate FILE                 list advisory warnings for a sheet file
  timeline FILE                 print the unlock/boost timeline and manual jumps
  tags list                     list built-in and scripted tags
  tags detect FILE              list tags whose predicate holds on the sheet
  tags apply FILE NAME...       select NAMEs, apply them and print the sheet
  convert FILE                  convert legacy level stats (.json or .yaml)
  schema [-out PATH]            print the sheet JSON Schema
  migrate                       store sheets for every legacy character
  show ID                       summarize a stored character's sheet
  edit ID OP ARGS...            edit a stored sheet (see "edit help")
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every command needs. The store is opened only by the
// commands that use it.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	out    io.Writer
	sheets *sheet.Service
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("statsheet", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfgPath := fs.String("config", os.Getenv("STATENGINE_CONFIG"), "config file (TOML)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	args = fs.Args()
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	// 1. Load config
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Tag registry: built-ins, then scripts
	registry := tag.Builtin()
	if cfg.Scripts.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripts.Dir, log)
		if err != nil {
			return fmt.Errorf("init scripting: %w", err)
		}
		defer engine.Close()
		engine.RegisterInto(registry)
	}

	a := &app{
		cfg:    cfg,
		log:    log,
		out:    out,
		sheets: sheet.NewService(registry, log),
	}
	return a.dispatch(ctx, args[0], args[1:])
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "default":
		return a.writeSheet(sheet.Default())
	case "validate":
		return a.withFile(args, a.validate)
	case "timeline":
		return a.withFile(args, a.timeline)
	case "tags":
		return a.tags(args)
	case "convert":
		return a.convert(args)
	case "schema":
		return a.schema(args)
	case "migrate":
		return a.withCharacters(ctx, func(svc *character.Service) error { return a.migrate(ctx, svc) })
	case "show":
		if len(args) != 1 {
			return fmt.Errorf("%w: show ID", errUsage)
		}
		return a.withCharacters(ctx, func(svc *character.Service) error { return a.show(ctx, svc, args[0]) })
	case "edit":
		return a.edit(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func readSheet(path string) (*sheet.Sheet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sh, err := sheet.ImportJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sh, nil
}

func (a *app) withFile(args []string, fn func(*sheet.Sheet) error) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: expected one sheet file", errUsage)
	}
	sh, err := readSheet(args[0])
	if err != nil {
		return err
	}
	return fn(sh)
}

func (a *app) writeSheet(sh *sheet.Sheet) error {
	raw, err := sheet.ExportJSON(sh)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "%s\n", raw)
	return err
}

func (a *app) validate(sh *sheet.Sheet) error {
	printSection(a.out, "Totals")
	printStat(a.out, "Grand total", grid.GrandTotal(sh.Stats))
	printStat(a.out, "Cap", sheet.Cap)
	for level := 0; level < grid.LevelCount; level++ {
		printStat(a.out, fmt.Sprintf("Level %d", level+1), grid.LevelTotal(sh.Stats, level))
	}

	printSection(a.out, "Warnings")
	warnings := a.sheets.Validate(sh)
	if len(warnings) == 0 {
		printOK(a.out, "no warnings")
	}
	for _, w := range warnings {
		printWarn(a.out, w)
	}
	return nil
}

func (a *app) timeline(sh *sheet.Sheet) error {
	tracked := sheet.Track(sh).Tracked

	printSection(a.out, "Timeline")
	if len(tracked.Timeline) == 0 {
		printLine(a.out, "(no stats unlocked)")
	}
	for _, line := range tracked.Timeline {
		printLine(a.out, "%s", line)
	}

	if len(tracked.ManualJumps) > 0 {
		printSection(a.out, "Manual overrides")
		for level := 1; level <= grid.LevelCount; level++ {
			for _, j := range tracked.ManualJumps[level] {
				printLine(a.out, "L%d %s %+d", level, j.K, j.D)
			}
		}
	}
	return nil
}

func (a *app) tags(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: tags list|detect|apply", errUsage)
	}
	registry := a.sheets.Tags()
	switch args[0] {
	case "list":
		printSection(a.out, "Tags")
		for _, t := range registry.All() {
			printLine(a.out, "%-22s %s", tag.Label(t.Name), t.Description)
			if len(t.Conflicts) > 0 {
				printLine(a.out, "%-22s \033[90mconflicts: %s\033[0m", "", strings.Join(t.Conflicts, ", "))
			}
		}
		printStat(a.out, "Total", registry.Count())
		return nil
	case "detect":
		return a.withFile(args[1:], func(sh *sheet.Sheet) error {
			printSection(a.out, "Detected tags")
			for _, name := range a.sheets.DetectTags(sh) {
				printLine(a.out, "%s", name)
			}
			return nil
		})
	case "apply":
		if len(args) < 3 {
			return fmt.Errorf("%w: tags apply FILE NAME...", errUsage)
		}
		sh, err := readSheet(args[1])
		if err != nil {
			return err
		}
		for _, name := range args[2:] {
			if tag.Contains(sh.Tags.Selected, name) {
				continue
			}
			if sh, err = a.sheets.ToggleTag(sh, name); err != nil {
				return err
			}
		}
		sh = a.sheets.ApplySelectedTags(sh)
		for _, name := range sh.Tags.Ignored {
			a.log.Warn("tag ignored by conflict", zap.String("tag", name))
		}
		return a.writeSheet(sh)
	default:
		return fmt.Errorf("%w: unknown tags subcommand %q", errUsage, args[0])
	}
}

// readLegacy decodes a legacy level stat list; .yaml and .yml files are
// read as YAML, anything else as JSON.
func readLegacy(path string) ([]sheet.LevelStat, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var levels []sheet.LevelStat
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &levels)
	default:
		err = json.Unmarshal(raw, &levels)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return levels, nil
}

func (a *app) convert(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: convert FILE", errUsage)
	}
	levels, err := readLegacy(args[0])
	if err != nil {
		return err
	}
	return a.writeSheet(sheet.FromLegacy(levels))
}

func (a *app) schema(args []string) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	outPath := fs.String("out", "", "write the schema to this file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	raw, err := json.MarshalIndent(sheet.JSONSchema(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	if *outPath == "" {
		_, err = fmt.Fprintf(a.out, "%s\n", raw)
		return err
	}
	if err := os.WriteFile(*outPath, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write schema: %w", err)
	}
	printOK(a.out, "schema written to "+*outPath)
	return nil
}

// withCharacters opens the configured store for the duration of fn.
func (a *app) withCharacters(ctx context.Context, fn func(*character.Service) error) error {
	store, err := persist.Open(ctx, a.cfg.Store, a.log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	bus := event.NewBus()
	event.Subscribe(bus, func(e event.SheetSaved) {
		a.log.Info("sheet saved",
			zap.String("id", e.ID),
			zap.Int64("revision", e.Revision),
			zap.Int("grand_total", e.GrandTotal),
			zap.Int("warnings", len(e.Warnings)))
	})
	event.Subscribe(bus, func(e event.SheetMigrated) {
		a.log.Debug("sheet migrated", zap.String("id", e.ID), zap.Int64("revision", e.Revision))
	})

	return fn(character.NewService(store, a.sheets, bus, a.cfg.Editor, a.log))
}

func (a *app) migrate(ctx context.Context, svc *character.Service) error {
	n, err := svc.MigrateAll(ctx)
	printSection(a.out, "Migration")
	printStat(a.out, "Characters migrated", n)
	return err
}

func (a *app) show(ctx context.Context, svc *character.Service, id string) error {
	c, err := svc.Load(ctx, id)
	if err != nil {
		return err
	}
	sh := c.StatSheet

	printSection(a.out, c.Name)
	printLine(a.out, "id %s · revision %d · %s", c.ID, c.Revision, c.UpdatedAt.Format("2006-01-02 15:04"))
	if c.Converted {
		printWarn(a.out, "converted from legacy level stats, not stored yet")
	}
	printStat(a.out, "Grand total", grid.GrandTotal(sh.Stats))

	printSection(a.out, "Levels")
	for i, d := range grid.DeriveAll(sh.Stats) {
		printLine(a.out, "L%d  atk %4d (top %3d)  def %4d (top %3d)  total %5d",
			i+1, d.AtkSum, d.AtkTop, d.DefSum, d.DefTop, d.LvTotal)
	}

	printSection(a.out, "Tags")
	printLine(a.out, "selected: %s", strings.Join(sh.Tags.Selected, ", "))
	printLine(a.out, "active:   %s", strings.Join(sh.Tags.Active, ", "))
	printLine(a.out, "ignored:  %s", strings.Join(sh.Tags.Ignored, ", "))

	for _, w := range a.sheets.Validate(sh) {
		printWarn(a.out, w)
	}
	return nil
}
