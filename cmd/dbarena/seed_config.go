package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/dbarena/pkg/seed"
)

// seed.RuleSet and its nested types carry no (de)serialization tags —
// they're pkg/seed's in-memory domain model, not a file format. This is
// the tagged file schema `seed --config <p>` parses, and the conversion
// into seed.RuleSet.

type fileGenerator struct {
	Kind string `toml:"kind" yaml:"kind" json:"kind"`

	Start int64 `toml:"start,omitempty" yaml:"start,omitempty" json:"start,omitempty"`

	Min       float64 `toml:"min,omitempty" yaml:"min,omitempty" json:"min,omitempty"`
	Max       float64 `toml:"max,omitempty" yaml:"max,omitempty" json:"max,omitempty"`
	Precision int     `toml:"precision,omitempty" yaml:"precision,omitempty" json:"precision,omitempty"`

	Probability float64 `toml:"probability,omitempty" yaml:"probability,omitempty" json:"probability,omitempty"`

	RangeStart    string `toml:"range_start,omitempty" yaml:"range_start,omitempty" json:"range_start,omitempty"`
	RangeEnd      string `toml:"range_end,omitempty" yaml:"range_end,omitempty" json:"range_end,omitempty"`
	OffsetSeconds int64  `toml:"offset_seconds,omitempty" yaml:"offset_seconds,omitempty" json:"offset_seconds,omitempty"`

	NameForm string `toml:"name_form,omitempty" yaml:"name_form,omitempty" json:"name_form,omitempty"`

	Template string `toml:"template,omitempty" yaml:"template,omitempty" json:"template,omitempty"`

	EnumValues []string `toml:"enum_values,omitempty" yaml:"enum_values,omitempty" json:"enum_values,omitempty"`

	RefTable  string `toml:"ref_table,omitempty" yaml:"ref_table,omitempty" json:"ref_table,omitempty"`
	RefColumn string `toml:"ref_column,omitempty" yaml:"ref_column,omitempty" json:"ref_column,omitempty"`
}

type fileColumn struct {
	Name      string        `toml:"name" yaml:"name" json:"name"`
	Generator fileGenerator `toml:"generator" yaml:"generator" json:"generator"`
}

type fileTable struct {
	Name     string       `toml:"name" yaml:"name" json:"name"`
	RowCount int          `toml:"row_count" yaml:"row_count" json:"row_count"`
	Columns  []fileColumn `toml:"columns" yaml:"columns" json:"columns"`
}

type seedFile struct {
	GlobalSeed *uint64     `toml:"global_seed,omitempty" yaml:"global_seed,omitempty" json:"global_seed,omitempty"`
	BatchSize  int         `toml:"batch_size,omitempty" yaml:"batch_size,omitempty" json:"batch_size,omitempty"`
	Tables     []fileTable `toml:"tables" yaml:"tables" json:"tables"`
}

// loadRuleSet parses a seed config file (TOML or YAML, by extension)
// into a seed.RuleSet.
func loadRuleSet(path string) (seed.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return seed.RuleSet{}, fmt.Errorf("reading seed config %s: %w", path, err)
	}

	var sf seedFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &sf); err != nil {
			return seed.RuleSet{}, fmt.Errorf("parsing YAML seed config %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(data), &sf); err != nil {
			return seed.RuleSet{}, fmt.Errorf("parsing TOML seed config %s: %w", path, err)
		}
	}

	return sf.toRuleSet()
}

func (sf seedFile) toRuleSet() (seed.RuleSet, error) {
	rs := seed.RuleSet{GlobalSeed: sf.GlobalSeed, BatchSize: sf.BatchSize}

	for _, ft := range sf.Tables {
		table := seed.TableRule{Name: ft.Name, RowCount: ft.RowCount}
		for _, fc := range ft.Columns {
			gen, err := fc.Generator.toGenerator()
			if err != nil {
				return seed.RuleSet{}, fmt.Errorf("table %s column %s: %w", ft.Name, fc.Name, err)
			}
			table.Columns = append(table.Columns, seed.ColumnRule{Name: fc.Name, Generator: gen})
		}
		rs.Tables = append(rs.Tables, table)
	}
	return rs, nil
}

func (fg fileGenerator) toGenerator() (seed.Generator, error) {
	kind := seed.GeneratorKind(fg.Kind)
	switch kind {
	case seed.GenSequential, seed.GenRandomInt, seed.GenRandomDecimal, seed.GenBoolean,
		seed.GenTimestampNow, seed.GenTimestampRange, seed.GenTimestampRelative,
		seed.GenEmail, seed.GenPhone, seed.GenName, seed.GenAddress,
		seed.GenTemplate, seed.GenEnum, seed.GenForeignKey:
	default:
		return seed.Generator{}, fmt.Errorf("unknown generator kind %q", fg.Kind)
	}

	g := seed.Generator{
		Kind:          kind,
		Start:         fg.Start,
		Min:           fg.Min,
		Max:           fg.Max,
		Precision:     fg.Precision,
		P:             fg.Probability,
		OffsetSeconds: fg.OffsetSeconds,
		Template:      fg.Template,
		EnumValues:    fg.EnumValues,
		RefTable:      fg.RefTable,
		RefColumn:     fg.RefColumn,
	}

	if fg.NameForm != "" {
		g.NameForm = seed.NameForm(fg.NameForm)
	}

	if fg.RangeStart != "" {
		t, err := time.Parse(time.RFC3339, fg.RangeStart)
		if err != nil {
			return seed.Generator{}, fmt.Errorf("range_start: %w", err)
		}
		g.RangeStart = t
	}
	if fg.RangeEnd != "" {
		t, err := time.Parse(time.RFC3339, fg.RangeEnd)
		if err != nil {
			return seed.Generator{}, fmt.Errorf("range_end: %w", err)
		}
		g.RangeEnd = t
	}
	return g, nil
}

// parseRowOverrides turns repeated "table=count" pairs from --rows into
// the map seed.Options.Overrides expects.
func parseRowOverrides(kvs []string) (map[string]int, error) {
	if len(kvs) == 0 {
		return nil, nil
	}
	out := map[string]int{}
	for _, part := range strings.Split(strings.Join(kvs, ","), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		table, n, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("malformed --rows entry %q, want TABLE=N", part)
		}
		var count int
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%d", &count); err != nil {
			return nil, fmt.Errorf("malformed --rows count in %q: %w", part, err)
		}
		out[strings.TrimSpace(table)] = count
	}
	return out, nil
}
