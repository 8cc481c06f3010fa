package dbkind

import (
	"fmt"
	"time"
)

// Kind tags one of the three database engines dbarena manages.
type Kind string

const (
	Postgres  Kind = "postgres"
	MySQL     Kind = "mysql"
	SQLServer Kind = "sqlserver"
)

// Parse validates a user-supplied kind string.
func Parse(s string) (Kind, error) {
	switch Kind(s) {
	case Postgres, MySQL, SQLServer:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown database kind %q (want postgres, mysql or sqlserver)", s)
	}
}

// ReadinessProbe returns the argv of the in-container command that
// succeeds only once the database accepts connections, per §4.1.
type ReadinessProbe interface {
	ProbeCommand(user, password string) []string
	Timeout() time.Duration
	PollInterval() time.Duration
}

// InitInvoker builds the native client argv that executes one SQL script
// inside the container, per §4.2.
type InitInvoker interface {
	// ScriptCommand returns the argv to run scriptPath against the boot
	// database. stopOnError controls whether ON_ERROR_STOP-equivalent
	// flags are included (true unless continue-on-error was requested).
	ScriptCommand(user, password, database, scriptPath string, stopOnError bool) []string
	// BootDatabase is the database created on first boot (e.g. "postgres").
	BootDatabase() string
	// ErrorMarkers are substrings that mark a failure in stdout/stderr
	// even when the exit code was 0 (used only when ON_ERROR_STOP was
	// not passed).
	ErrorMarkers() []string
}

// Dialect supplies identifier quoting and value escaping rules used by
// the seeder and workload engine when building SQL text.
type Dialect interface {
	QuoteIdent(name string) string
	EscapeString(s string) string
	Placeholder(ordinal int) string
	DriverName() string
	InformationSchemaQuery(table string) string
}

// MetricProbe supplies the fixed SQL probes the metrics collector execs
// inside the container, per §4.5.1.
type MetricProbe interface {
	DatabaseStatsCommand(user, password, database string) []string
	ParseDatabaseStats(stdout string) (DatabaseSample, error)
}

// ErrorParser extracts structured detail from init-script failure output,
// per §4.2.
type ErrorParser interface {
	Parse(stdout, stderr string) ScriptError
}

// DatabaseSample is the kind-specific counters from §3, independent of
// how they were sampled.
type DatabaseSample struct {
	ActiveConnections int64
	MaxConnections    int64
	XactCommit        int64
	XactRollback      int64
	BlksHit           int64
	BlksRead          int64
	TupReturned       int64
	TupInserted       int64
	TupUpdated        int64
	TupDeleted        int64
	ReplicationLagSec float64
	SampledAt         time.Time
}

// ScriptError is the parsed result of a failed init script, per §3.
type ScriptError struct {
	Kind       Kind
	Line       int
	Code       string
	Message    string
	Suggestion string
	Context    []string
}

// Capabilities bundles all five per-kind behaviors.
type Capabilities struct {
	Kind   Kind
	Probe  ReadinessProbe
	Init   InitInvoker
	Dial   Dialect
	Metric MetricProbe
	Errors ErrorParser
}

// For returns the capability bundle for k.
func For(k Kind) (Capabilities, error) {
	switch k {
	case Postgres:
		return Capabilities{Kind: k, Probe: postgresProbe{}, Init: postgresInit{}, Dial: postgresDialect{}, Metric: postgresMetric{}, Errors: postgresErrors{}}, nil
	case MySQL:
		return Capabilities{Kind: k, Probe: mysqlProbe{}, Init: mysqlInit{}, Dial: mysqlDialect{}, Metric: mysqlMetric{}, Errors: mysqlErrors{}}, nil
	case SQLServer:
		return Capabilities{Kind: k, Probe: sqlserverProbe{}, Init: sqlserverInit{}, Dial: sqlserverDialect{}, Metric: sqlserverMetric{}, Errors: sqlserverErrors{}}, nil
	default:
		return Capabilities{}, fmt.Errorf("unknown database kind %q", k)
	}
}

// typoDictionary maps common script typos to their correction, shared
// across all three kinds' ErrorParser implementations.
var typoDictionary = map[string]string{
	"INSRT":  "INSERT",
	"SLECT":  "SELECT",
	"SELCT":  "SELECT",
	"UPDAT":  "UPDATE",
	"DELTE":  "DELETE",
	"FORM":   "FROM",
	"WHRE":   "WHERE",
	"TABEL":  "TABLE",
	"CRAETE": "CREATE",
	"ALTR":   "ALTER",
}

func suggestTypoFix(message string) string {
	for typo, fix := range typoDictionary {
		if containsWord(message, typo) {
			return fix
		}
	}
	return ""
}

func containsWord(s, word string) bool {
	for i := 0; i+len(word) <= len(s); i++ {
		if s[i:i+len(word)] == word {
			before := i == 0 || !isIdentChar(s[i-1])
			after := i+len(word) == len(s) || !isIdentChar(s[i+len(word)])
			if before && after {
				return true
			}
		}
	}
	return false
}

func isIdentChar(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
