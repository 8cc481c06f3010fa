package dbkind

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type postgresProbe struct{}

func (postgresProbe) ProbeCommand(user, _ string) []string {
	return []string{"pg_isready", "-U", user}
}
func (postgresProbe) Timeout() time.Duration      { return 60 * time.Second }
func (postgresProbe) PollInterval() time.Duration { return 250 * time.Millisecond }

type postgresInit struct{}

func (postgresInit) ScriptCommand(user, _, database, scriptPath string, stopOnError bool) []string {
	cmd := []string{"psql", "-U", user, "-d", database}
	if stopOnError {
		cmd = append(cmd, "-v", "ON_ERROR_STOP=1")
	}
	return append(cmd, "-f", scriptPath)
}
func (postgresInit) BootDatabase() string     { return "postgres" }
func (postgresInit) ErrorMarkers() []string   { return []string{"ERROR:"} }

type postgresDialect struct{}

func (postgresDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
func (postgresDialect) EscapeString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
func (postgresDialect) Placeholder(ordinal int) string { return fmt.Sprintf("$%d", ordinal) }
func (postgresDialect) DriverName() string             { return "postgres" }
func (postgresDialect) InformationSchemaQuery(table string) string {
	return `SELECT column_name, data_type, is_nullable
FROM information_schema.columns WHERE table_name = '` + strings.ReplaceAll(table, "'", "''") + `'
ORDER BY ordinal_position`
}

type postgresMetric struct{}

func (postgresMetric) DatabaseStatsCommand(user, _, database string) []string {
	query := `SELECT
  (SELECT count(*) FROM pg_stat_activity WHERE datname = current_database()) AS active_connections,
  (SELECT setting::bigint FROM pg_settings WHERE name = 'max_connections') AS max_connections,
  xact_commit, xact_rollback, blks_hit, blks_read,
  tup_returned, tup_inserted, tup_updated, tup_deleted
FROM pg_stat_database WHERE datname = current_database();`
	return []string{"psql", "-U", user, "-d", database, "-t", "-A", "-F", ",", "-c", query}
}

func (postgresMetric) ParseDatabaseStats(stdout string) (DatabaseSample, error) {
	line := strings.TrimSpace(firstDataLine(stdout))
	if line == "" {
		return DatabaseSample{}, fmt.Errorf("no rows returned by pg_stat_database probe")
	}
	fields := strings.Split(line, ",")
	if len(fields) < 10 {
		return DatabaseSample{}, fmt.Errorf("unexpected pg_stat_database row shape: %q", line)
	}
	parse := func(i int) int64 {
		v, _ := strconv.ParseInt(strings.TrimSpace(fields[i]), 10, 64)
		return v
	}
	return DatabaseSample{
		ActiveConnections: parse(0),
		MaxConnections:    parse(1),
		XactCommit:        parse(2),
		XactRollback:      parse(3),
		BlksHit:           parse(4),
		BlksRead:          parse(5),
		TupReturned:       parse(6),
		TupInserted:       parse(7),
		TupUpdated:        parse(8),
		TupDeleted:        parse(9),
	}, nil
}

func firstDataLine(stdout string) string {
	for _, line := range strings.Split(stdout, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

var pgLineRe = regexp.MustCompile(`LINE (\d+):`)

type postgresErrors struct{}

func (postgresErrors) Parse(stdout, stderr string) ScriptError {
	combined := stdout + "\n" + stderr
	se := ScriptError{Kind: Postgres}
	if m := pgLineRe.FindStringSubmatch(combined); m != nil {
		se.Line, _ = strconv.Atoi(m[1])
	}
	se.Message = extractMessage(combined, "ERROR:")
	se.Suggestion = suggestTypoFix(se.Message)
	se.Context = contextLines(combined, se.Line)
	return se
}

// extractMessage returns the text following marker on the line that
// contains it, trimmed.
func extractMessage(text, marker string) string {
	idx := strings.Index(text, marker)
	if idx < 0 {
		return ""
	}
	rest := text[idx+len(marker):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return strings.TrimSpace(rest)
}

// contextLines returns up to two lines of source context surrounding
// line (1-indexed) split out of text, best-effort.
func contextLines(text string, line int) []string {
	if line <= 0 {
		return nil
	}
	lines := strings.Split(text, "\n")
	start := line - 2
	if start < 0 {
		start = 0
	}
	end := line + 1
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return nil
	}
	return lines[start:end]
}
