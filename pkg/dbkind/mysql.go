package dbkind

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type mysqlProbe struct{}

func (mysqlProbe) ProbeCommand(_, password string) []string {
	return []string{"mysqladmin", "ping", "-h", "localhost", "-u", "root", "-p" + password}
}
func (mysqlProbe) Timeout() time.Duration      { return 60 * time.Second }
func (mysqlProbe) PollInterval() time.Duration { return 250 * time.Millisecond }

type mysqlInit struct{}

// ScriptCommand builds a shell invocation since the mysql client reads its
// script from stdin redirection rather than a -f flag; stopOnError is
// implemented by the caller layering `set -e`-equivalent continue logic
// in InitExecutor, since the mysql CLI has no ON_ERROR_STOP analogue.
func (mysqlInit) ScriptCommand(_, password, database, scriptPath string, _ bool) []string {
	return []string{"sh", "-c", fmt.Sprintf("mysql -u root -p%s %s < %s", password, database, scriptPath)}
}
func (mysqlInit) BootDatabase() string   { return "mysql" }
func (mysqlInit) ErrorMarkers() []string { return []string{"ERROR "} }

type mysqlDialect struct{}

func (mysqlDialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
func (mysqlDialect) EscapeString(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "'", `\'`)
	return "'" + replacer.Replace(s) + "'"
}
func (mysqlDialect) Placeholder(int) string { return "?" }
func (mysqlDialect) DriverName() string     { return "mysql" }
func (mysqlDialect) InformationSchemaQuery(table string) string {
	return `SELECT column_name, data_type, is_nullable
FROM information_schema.columns WHERE table_name = '` + strings.ReplaceAll(table, "'", "''") + `'
ORDER BY ordinal_position`
}

type mysqlMetric struct{}

func (mysqlMetric) DatabaseStatsCommand(_, password, _ string) []string {
	return []string{"sh", "-c", fmt.Sprintf(
		`mysql -u root -p%s -N -e "SHOW GLOBAL STATUS WHERE Variable_name IN ('Com_select','Com_insert','Com_update','Com_delete','Threads_connected','Innodb_buffer_pool_read_requests','Innodb_buffer_pool_reads'); SHOW VARIABLES LIKE 'max_connections';"`,
		password)}
}

var mysqlStatusRe = regexp.MustCompile(`(?m)^(\S+)\s+(\d+)$`)

func (mysqlMetric) ParseDatabaseStats(stdout string) (DatabaseSample, error) {
	values := map[string]int64{}
	for _, m := range mysqlStatusRe.FindAllStringSubmatch(stdout, -1) {
		v, _ := strconv.ParseInt(m[2], 10, 64)
		values[m[1]] = v
	}
	if len(values) == 0 {
		return DatabaseSample{}, fmt.Errorf("no rows parsed from SHOW GLOBAL STATUS output")
	}
	return DatabaseSample{
		ActiveConnections: values["Threads_connected"],
		MaxConnections:    values["max_connections"],
		XactCommit:        values["Com_insert"] + values["Com_update"] + values["Com_delete"] + values["Com_select"],
		XactRollback:       0,
		BlksHit:           values["Innodb_buffer_pool_read_requests"],
		BlksRead:          values["Innodb_buffer_pool_reads"],
		TupReturned:       values["Com_select"],
		TupInserted:       values["Com_insert"],
		TupUpdated:        values["Com_update"],
		TupDeleted:        values["Com_delete"],
	}, nil
}

var mysqlLineRe = regexp.MustCompile(`at line (\d+)`)
var mysqlCodeRe = regexp.MustCompile(`ERROR (\d+) \(([0-9A-Za-z]+)\)`)

type mysqlErrors struct{}

func (mysqlErrors) Parse(stdout, stderr string) ScriptError {
	combined := stdout + "\n" + stderr
	se := ScriptError{Kind: MySQL}
	if m := mysqlLineRe.FindStringSubmatch(combined); m != nil {
		se.Line, _ = strconv.Atoi(m[1])
	}
	if m := mysqlCodeRe.FindStringSubmatch(combined); m != nil {
		se.Code = m[1] + " (" + m[2] + ")"
	}
	se.Message = extractMessage(combined, "ERROR ")
	se.Suggestion = suggestTypoFix(se.Message)
	se.Context = contextLines(combined, se.Line)
	return se
}
