package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// envKeyRe enforces the §3 invariant: env var keys match [A-Z_][A-Z0-9_]*.
var envKeyRe = regexp.MustCompile(`^[A-Z_][A-Z0-9_]*$`)

// File is the parsed shape of dbarena.toml / dbarena.yaml.
type File struct {
	Databases map[string]DatabaseConfig `toml:"databases" yaml:"databases"`
	Profiles  map[string]ProfileConfig  `toml:"profiles" yaml:"profiles"`
}

// DatabaseConfig holds kind-scoped defaults, including kind-scoped
// per-profile overrides.
type DatabaseConfig struct {
	Env      map[string]string          `toml:"env" yaml:"env"`
	Profiles map[string]ProfileConfig   `toml:"profiles" yaml:"profiles"`
	Version  string                     `toml:"version" yaml:"version"`
}

// ProfileConfig holds a named profile's env overrides.
type ProfileConfig struct {
	Env map[string]string `toml:"env" yaml:"env"`
}

// builtinDefaults are the env vars dbarena sets for every container
// regardless of config, lowest precedence layer.
func builtinDefaults() map[string]string {
	return map[string]string{
		"POSTGRES_PASSWORD": "dbarena",
		"MYSQL_ROOT_PASSWORD": "dbarena",
		"MSSQL_SA_PASSWORD":  "Dbarena_1234",
		"ACCEPT_EULA":        "Y",
	}
}

// Discover resolves the configuration file path per the discovery order
// in §6A: explicit path, ./dbarena.toml, user config dir, or "" if none
// exist (built-in defaults only).
func Discover(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	if _, err := os.Stat("dbarena.toml"); err == nil {
		return "dbarena.toml", nil
	}

	if dir, err := os.UserConfigDir(); err == nil {
		for _, name := range []string{"dbarena/dbarena.toml", "dbarena/dbarena.yaml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}

	return "", nil
}

// Load parses the file at path (TOML or YAML, by extension), or returns
// an empty File if path is "".
func Load(path string) (*File, error) {
	if path == "" {
		return &File{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var f File
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing YAML config %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("parsing TOML config %s: %w", path, err)
		}
	}
	return &f, nil
}

// ResolveEnv merges the precedence chain of §6A for a given kind/profile
// pair plus CLI-sourced env-file and --env overrides, validating every
// key against the [A-Z_][A-Z0-9_]* invariant.
func ResolveEnv(f *File, kind, profile string, envFile, cliEnv map[string]string) (map[string]string, error) {
	merged := map[string]string{}
	db, hasDB := f.Databases[kind]

	layers := []map[string]string{builtinDefaults()}
	if hasDB {
		layers = append(layers, db.Env)
	}
	if profile != "" {
		if p, ok := f.Profiles[profile]; ok {
			layers = append(layers, p.Env)
		}
		if hasDB {
			if p, ok := db.Profiles[profile]; ok {
				layers = append(layers, p.Env)
			}
		}
	}
	layers = append(layers, envFile, cliEnv)

	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}

	for k := range merged {
		if !envKeyRe.MatchString(k) {
			return nil, fmt.Errorf("invalid env var key %q: must match [A-Z_][A-Z0-9_]*", k)
		}
	}

	return merged, nil
}

// ParseEnvFile parses a dotenv-style KEY=VALUE file, one assignment per
// line, blank lines and lines starting with # ignored.
func ParseEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	out := map[string]string{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("malformed env file line: %q", line)
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}

// ParseEnvFlags turns repeated --env K=V flags into a map.
func ParseEnvFlags(kvs []string) (map[string]string, error) {
	out := map[string]string{}
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("malformed --env value %q, want KEY=VALUE", kv)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}
