/*
Package config discovers and parses dbarena's configuration file and
resolves the env-variable precedence chain described in SPEC_FULL.md §6A.

Discovery order: an explicit --config path, then ./dbarena.toml, then the
user config directory, then built-in defaults. TOML is the primary format
(github.com/BurntSushi/toml); YAML is accepted with the same schema
(gopkg.in/yaml.v3), selected by file extension.

Env var precedence, lowest to highest:

	built-in defaults
	  < [databases.<kind>.env]
	    < [profiles.<name>.env]
	      < [databases.<kind>.profiles.<name>.env]
	        < --env-file
	          < --env

Each layer is a map[string]string merged in order; later layers
overwrite earlier keys.
*/
package config
