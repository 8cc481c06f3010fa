package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/dbarena/pkg/workload"
)

// workload.Config carries no (de)serialization tags either — this is
// the tagged file schema `workload run --config <p>` parses for a
// custom operation mix and custom SQL, mirroring seed_config.go's
// approach for pkg/seed.

type fileWeights struct {
	Select float64 `toml:"select" yaml:"select" json:"select"`
	Insert float64 `toml:"insert" yaml:"insert" json:"insert"`
	Update float64 `toml:"update" yaml:"update" json:"update"`
	Delete float64 `toml:"delete" yaml:"delete" json:"delete"`
}

type fileCustomQuery struct {
	Name   string   `toml:"name" yaml:"name" json:"name"`
	SQL    string   `toml:"sql" yaml:"sql" json:"sql"`
	Params []string `toml:"params,omitempty" yaml:"params,omitempty" json:"params,omitempty"`
	Weight float64  `toml:"weight" yaml:"weight" json:"weight"`
}

type workloadFile struct {
	Weights       *fileWeights      `toml:"weights,omitempty" yaml:"weights,omitempty" json:"weights,omitempty"`
	CustomQueries []fileCustomQuery `toml:"custom_queries,omitempty" yaml:"custom_queries,omitempty" json:"custom_queries,omitempty"`
}

// loadWorkloadExtras parses a workload config file into an optional
// custom weight mix and custom query list.
func loadWorkloadExtras(path string) (*workload.Weights, []workload.CustomQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading workload config %s: %w", path, err)
	}

	var wf workloadFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &wf); err != nil {
			return nil, nil, fmt.Errorf("parsing YAML workload config %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(data), &wf); err != nil {
			return nil, nil, fmt.Errorf("parsing TOML workload config %s: %w", path, err)
		}
	}

	var weights *workload.Weights
	if wf.Weights != nil {
		weights = &workload.Weights{
			Select: wf.Weights.Select,
			Insert: wf.Weights.Insert,
			Update: wf.Weights.Update,
			Delete: wf.Weights.Delete,
		}
	}

	queries := make([]workload.CustomQuery, len(wf.CustomQueries))
	for i, q := range wf.CustomQueries {
		queries[i] = workload.CustomQuery{Name: q.Name, SQL: q.SQL, Params: q.Params, Weight: q.Weight}
	}
	return weights, queries, nil
}
