package data

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed stat_list.yaml legacy_keys.yaml
var builtin embed.FS

// StatGroup is the display category a stat belongs to. Groups carry no
// computational meaning except for the attack and defence sums.
type StatGroup string

const (
	GroupCore    StatGroup = "core"
	GroupAttack  StatGroup = "attack"
	GroupUtil    StatGroup = "util"
	GroupDefence StatGroup = "defence"
	GroupTrait   StatGroup = "trait"
)

// StatDefinition is one immutable catalog entry.
type StatDefinition struct {
	Key      string
	Label    string
	Hue      int // 0-360, cosmetic
	Group    StatGroup
	Lowest   int // absolute floor
	Lv1Low   int
	Lv1Exp   int // expected level 1 value, seeds the default sheet
	Lv1High  int
	Lv1Limit int // level 1 ceiling
	Limit    int // ceiling across all levels
}

// StatCatalog holds the stat definitions in display order.
type StatCatalog struct {
	stats  []StatDefinition
	byKey  map[string]int
	groups map[StatGroup][]string
}

// Get returns the definition for key.
func (c *StatCatalog) Get(key string) (StatDefinition, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return StatDefinition{}, false
	}
	return c.stats[i], true
}

// Has reports whether key is a catalog stat.
func (c *StatCatalog) Has(key string) bool {
	_, ok := c.byKey[key]
	return ok
}

// List returns all definitions in display order. The slice is a copy.
func (c *StatCatalog) List() []StatDefinition {
	out := make([]StatDefinition, len(c.stats))
	copy(out, c.stats)
	return out
}

// Keys returns all stat keys in display order.
func (c *StatCatalog) Keys() []string {
	out := make([]string, len(c.stats))
	for i, s := range c.stats {
		out[i] = s.Key
	}
	return out
}

// Group returns the stat keys of one group in display order.
func (c *StatCatalog) Group(g StatGroup) []string {
	return append([]string(nil), c.groups[g]...)
}

// Count returns the number of stats.
func (c *StatCatalog) Count() int {
	return len(c.stats)
}

// --- YAML loading ---

type statEntry struct {
	Key      string `yaml:"key"`
	Label    string `yaml:"label"`
	Hue      int    `yaml:"hue"`
	Lowest   int    `yaml:"lowest"`
	Lv1Low   int    `yaml:"lv1_low"`
	Lv1Exp   int    `yaml:"lv1_exp"`
	Lv1High  int    `yaml:"lv1_high"`
	Lv1Limit int    `yaml:"lv1_limit"`
	Limit    int    `yaml:"limit"`
}

type statGroupEntry struct {
	Name  StatGroup   `yaml:"name"`
	Stats []statEntry `yaml:"stats"`
}

type statListFile struct {
	Groups []statGroupEntry `yaml:"groups"`
}

// LoadStatCatalog loads a stat catalog from a YAML file.
func LoadStatCatalog(path string) (*StatCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stat_list: %w", err)
	}
	return ParseStatCatalog(raw)
}

// ParseStatCatalog builds a catalog from YAML bytes and checks every entry's
// bound ordering.
func ParseStatCatalog(raw []byte) (*StatCatalog, error) {
	var f statListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse stat_list: %w", err)
	}
	c := &StatCatalog{
		byKey:  make(map[string]int),
		groups: make(map[StatGroup][]string),
	}
	for _, g := range f.Groups {
		for _, e := range g.Stats {
			if e.Key == "" {
				return nil, fmt.Errorf("stat_list: empty key in group %q", g.Name)
			}
			if _, dup := c.byKey[e.Key]; dup {
				return nil, fmt.Errorf("stat_list: duplicate key %s", e.Key)
			}
			if !(e.Lowest <= e.Lv1Low && e.Lv1Low <= e.Lv1Exp && e.Lv1Exp <= e.Lv1High &&
				e.Lv1High <= e.Lv1Limit && e.Lv1Limit <= e.Limit) {
				return nil, fmt.Errorf("stat_list: %s bounds out of order", e.Key)
			}
			c.byKey[e.Key] = len(c.stats)
			c.groups[g.Name] = append(c.groups[g.Name], e.Key)
			c.stats = append(c.stats, StatDefinition{
				Key:      e.Key,
				Label:    e.Label,
				Hue:      e.Hue,
				Group:    g.Name,
				Lowest:   e.Lowest,
				Lv1Low:   e.Lv1Low,
				Lv1Exp:   e.Lv1Exp,
				Lv1High:  e.Lv1High,
				Lv1Limit: e.Lv1Limit,
				Limit:    e.Limit,
			})
		}
	}
	return c, nil
}

var stats = mustParseBuiltin()

func mustParseBuiltin() *StatCatalog {
	raw, err := builtin.ReadFile("stat_list.yaml")
	if err != nil {
		panic(err)
	}
	c, err := ParseStatCatalog(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// Stats returns the built-in 23-stat catalog.
func Stats() *StatCatalog {
	return stats
}
