package config

import "testing"

func TestResolveEnvPrecedence(t *testing.T) {
	f := &File{
		Databases: map[string]DatabaseConfig{
			"postgres": {
				Env: map[string]string{"POSTGRES_PASSWORD": "from-db", "DB_ONLY": "db"},
				Profiles: map[string]ProfileConfig{
					"ci": {Env: map[string]string{"POSTGRES_PASSWORD": "from-db-profile"}},
				},
			},
		},
		Profiles: map[string]ProfileConfig{
			"ci": {Env: map[string]string{"POSTGRES_PASSWORD": "from-profile", "PROFILE_ONLY": "p"}},
		},
	}

	env, err := ResolveEnv(f, "postgres", "ci", map[string]string{"POSTGRES_PASSWORD": "from-envfile"}, map[string]string{"POSTGRES_PASSWORD": "from-cli"})
	if err != nil {
		t.Fatalf("ResolveEnv: %v", err)
	}

	if env["POSTGRES_PASSWORD"] != "from-cli" {
		t.Errorf("expected --env to win, got %q", env["POSTGRES_PASSWORD"])
	}
	if env["DB_ONLY"] != "db" {
		t.Errorf("expected DB_ONLY to survive from database layer, got %q", env["DB_ONLY"])
	}
	if env["PROFILE_ONLY"] != "p" {
		t.Errorf("expected PROFILE_ONLY to survive from profile layer, got %q", env["PROFILE_ONLY"])
	}
	if env["ACCEPT_EULA"] != "Y" {
		t.Errorf("expected builtin default to survive, got %q", env["ACCEPT_EULA"])
	}
}

func TestResolveEnvRejectsBadKey(t *testing.T) {
	f := &File{}
	_, err := ResolveEnv(f, "postgres", "", nil, map[string]string{"lower_case": "x"})
	if err == nil {
		t.Fatal("expected invalid env key to be rejected")
	}
}

func TestParseEnvFlags(t *testing.T) {
	got, err := ParseEnvFlags([]string{"FOO=bar", "BAZ=qux=zot"})
	if err != nil {
		t.Fatalf("ParseEnvFlags: %v", err)
	}
	if got["FOO"] != "bar" || got["BAZ"] != "qux=zot" {
		t.Errorf("unexpected parse result: %+v", got)
	}

	if _, err := ParseEnvFlags([]string{"NOVALUE"}); err == nil {
		t.Error("expected malformed --env to error")
	}
}
