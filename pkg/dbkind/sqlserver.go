package dbkind

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type sqlserverProbe struct{}

func (sqlserverProbe) ProbeCommand(_, password string) []string {
	return []string{"sqlcmd", "-S", "localhost", "-U", "sa", "-P", password, "-Q", "SELECT 1"}
}
func (sqlserverProbe) Timeout() time.Duration      { return 120 * time.Second }
func (sqlserverProbe) PollInterval() time.Duration { return 250 * time.Millisecond }

type sqlserverInit struct{}

func (sqlserverInit) ScriptCommand(_, password, _, scriptPath string, _ bool) []string {
	return []string{"sqlcmd", "-S", "localhost", "-U", "sa", "-P", password, "-i", scriptPath}
}
func (sqlserverInit) BootDatabase() string   { return "master" }
func (sqlserverInit) ErrorMarkers() []string { return []string{"Msg "} }

type sqlserverDialect struct{}

func (sqlserverDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
func (sqlserverDialect) EscapeString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
func (sqlserverDialect) Placeholder(ordinal int) string { return fmt.Sprintf("@p%d", ordinal) }
func (sqlserverDialect) DriverName() string             { return "sqlserver" }
func (sqlserverDialect) InformationSchemaQuery(table string) string {
	return `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE
FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = '` + strings.ReplaceAll(table, "'", "''") + `'
ORDER BY ORDINAL_POSITION`
}

type sqlserverMetric struct{}

func (sqlserverMetric) DatabaseStatsCommand(_, password, _ string) []string {
	query := `SELECT
  (SELECT COUNT(*) FROM sys.dm_exec_sessions WHERE is_user_process = 1) AS active_connections,
  (SELECT value_in_use FROM sys.configurations WHERE name = 'user connections') AS max_connections,
  (SELECT cntr_value FROM sys.dm_os_performance_counters WHERE counter_name = 'Transactions/sec') AS tps,
  (SELECT cntr_value FROM sys.dm_os_performance_counters WHERE counter_name = 'Batch Requests/sec') AS bps,
  (SELECT cntr_value FROM sys.dm_os_performance_counters WHERE counter_name = 'Page life expectancy') AS ple;`
	return []string{"sqlcmd", "-S", "localhost", "-U", "sa", "-P", password, "-h", "-1", "-s", ",", "-Q", query}
}

func (sqlserverMetric) ParseDatabaseStats(stdout string) (DatabaseSample, error) {
	line := strings.TrimSpace(firstDataLine(stdout))
	if line == "" {
		return DatabaseSample{}, fmt.Errorf("no rows returned by DMV probe")
	}
	fields := strings.Split(line, ",")
	if len(fields) < 5 {
		return DatabaseSample{}, fmt.Errorf("unexpected DMV row shape: %q", line)
	}
	parse := func(i int) int64 {
		v, _ := strconv.ParseInt(strings.TrimSpace(fields[i]), 10, 64)
		return v
	}
	return DatabaseSample{
		ActiveConnections: parse(0),
		MaxConnections:    parse(1),
		XactCommit:        parse(2),
		TupReturned:       parse(3),
	}, nil
}

var sqlserverLineRe = regexp.MustCompile(`Line (\d+)`)
var sqlserverCodeRe = regexp.MustCompile(`Msg (\d+)`)

type sqlserverErrors struct{}

func (sqlserverErrors) Parse(stdout, stderr string) ScriptError {
	combined := stdout + "\n" + stderr
	se := ScriptError{Kind: SQLServer}
	if m := sqlserverLineRe.FindStringSubmatch(combined); m != nil {
		se.Line, _ = strconv.Atoi(m[1])
	}
	if m := sqlserverCodeRe.FindStringSubmatch(combined); m != nil {
		se.Code = m[1]
	}
	se.Message = extractMessage(combined, "Msg ")
	se.Suggestion = suggestTypoFix(se.Message)
	se.Context = contextLines(combined, se.Line)
	return se
}
