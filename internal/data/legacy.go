package data

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// LegacyKey maps a field of the pre-StatSheet LevelStat record to a catalog
// stat key.
type LegacyKey struct {
	Legacy string `yaml:"legacy"`
	Stat   string `yaml:"stat"`
}

type legacyKeyFile struct {
	LegacyKeys []LegacyKey `yaml:"legacy_keys"`
}

var legacyKeys = mustParseLegacyKeys()

func mustParseLegacyKeys() []LegacyKey {
	raw, err := builtin.ReadFile("legacy_keys.yaml")
	if err != nil {
		panic(err)
	}
	var f legacyKeyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		panic(fmt.Errorf("parse legacy_keys: %w", err))
	}
	for _, k := range f.LegacyKeys {
		if !stats.Has(k.Stat) {
			panic(fmt.Errorf("legacy_keys: %s maps to unknown stat %s", k.Legacy, k.Stat))
		}
	}
	return f.LegacyKeys
}

// LegacyKeys returns the legacy field mapping in declaration order. The
// mapping is partial: catalog stats without a legacy source are absent.
func LegacyKeys() []LegacyKey {
	return append([]LegacyKey(nil), legacyKeys...)
}
