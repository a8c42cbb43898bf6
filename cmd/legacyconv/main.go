// legacyconv converts legacy level stat files (*.json, *.yaml) into stat
// sheet JSON files, one output per input.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/charconsole/statengine/internal/sheet"
)

func main() {
	in := flag.String("in", "", "directory of legacy level stat files")
	out := flag.String("out", "", "directory for converted sheets")
	workers := flag.Int("workers", runtime.NumCPU(), "concurrent conversions")
	flag.Parse()

	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "Usage: legacyconv -in DIR -out DIR [-workers N]")
		os.Exit(1)
	}

	n, err := convertDir(context.Background(), *in, *out, *workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("converted %d files into %s\n", n, *out)
}

// legacyFiles lists the convertible files directly under dir, sorted.
func legacyFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, e.Name())
		}
	}
	return files, nil
}

func convertDir(ctx context.Context, in, out string, workers int) (int, error) {
	files, err := legacyFiles(in)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", in, err)
	}
	seen := make(map[string]string, len(files))
	for _, name := range files {
		dst := outputName(name)
		if prev, ok := seen[dst]; ok {
			return 0, fmt.Errorf("%s and %s both convert to %s", prev, name, dst)
		}
		seen[dst] = name
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", out, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, name := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return convertFile(filepath.Join(in, name), filepath.Join(out, outputName(name)))
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(files), nil
}

// outputName maps "vex.yaml" to "vex.sheet.json".
func outputName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".sheet.json"
}

func convertFile(src, dst string) error {
	raw, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	var levels []sheet.LevelStat
	if ext := strings.ToLower(filepath.Ext(src)); ext == ".yaml" || ext == ".yml" {
		err = yaml.Unmarshal(raw, &levels)
	} else {
		err = json.Unmarshal(raw, &levels)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", src, err)
	}

	body, err := sheet.ExportJSON(sheet.FromLegacy(levels))
	if err != nil {
		return fmt.Errorf("encode %s: %w", dst, err)
	}
	if err := os.WriteFile(dst, append(body, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}
