package dbkind

import "testing"

func TestParse(t *testing.T) {
	cases := map[string]Kind{
		"postgres":  Postgres,
		"mysql":     MySQL,
		"sqlserver": SQLServer,
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Errorf("Parse(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := Parse("oracle"); err == nil {
		t.Error("Parse(\"oracle\") should have failed")
	}
}

func TestForDispatch(t *testing.T) {
	for _, k := range []Kind{Postgres, MySQL, SQLServer} {
		caps, err := For(k)
		if err != nil {
			t.Fatalf("For(%q): %v", k, err)
		}
		if caps.Probe == nil || caps.Init == nil || caps.Dial == nil || caps.Metric == nil || caps.Errors == nil {
			t.Fatalf("For(%q) returned a capability bundle with a nil member: %+v", k, caps)
		}
		if len(caps.Probe.ProbeCommand("user", "pw")) == 0 {
			t.Errorf("%q: ProbeCommand returned empty argv", k)
		}
	}
}

func TestDialectQuoting(t *testing.T) {
	pg, _ := For(Postgres)
	if got := pg.Dial.QuoteIdent(`weird"name`); got != `"weird""name"` {
		t.Errorf("postgres QuoteIdent = %q", got)
	}

	my, _ := For(MySQL)
	if got := my.Dial.QuoteIdent("order"); got != "`order`" {
		t.Errorf("mysql QuoteIdent = %q", got)
	}

	ss, _ := For(SQLServer)
	if got := ss.Dial.Placeholder(2); got != "@p2" {
		t.Errorf("sqlserver Placeholder = %q", got)
	}
}

func TestSuggestTypoFix(t *testing.T) {
	cases := map[string]string{
		"syntax error at or near \"INSRT\"": "INSERT",
		"ERROR:  syntax error near SLECT":   "SELECT",
		"nothing wrong here":                "",
	}
	for msg, want := range cases {
		if got := suggestTypoFix(msg); got != want {
			t.Errorf("suggestTypoFix(%q) = %q, want %q", msg, got, want)
		}
	}
}

func TestPostgresErrorParsing(t *testing.T) {
	stderr := "psql:/var/dbarena_init/001.sql:1: ERROR:  syntax error at or near \"INSRT\"\nLINE 1: INSRT INTO t VALUES (1);\n        ^\n"
	se := postgresErrors{}.Parse("", stderr)
	if se.Line != 1 {
		t.Errorf("expected line 1, got %d", se.Line)
	}
	if se.Suggestion != "INSERT" {
		t.Errorf("expected suggestion INSERT, got %q", se.Suggestion)
	}
}
