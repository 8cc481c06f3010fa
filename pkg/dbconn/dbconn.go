package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/cuemby/dbarena/pkg/dbkind"
)

// Target identifies where to connect: a managed container's published
// host port plus the credentials resolved from config.
type Target struct {
	Kind     dbkind.Kind
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DSN builds the kind-specific connection string for Target.
func (t Target) DSN() string {
	switch t.Kind {
	case dbkind.Postgres:
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			t.Host, t.Port, t.User, t.Password, t.Database)
	case dbkind.MySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", t.User, t.Password, t.Host, t.Port, t.Database)
	case dbkind.SQLServer:
		return fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s", t.User, t.Password, t.Host, t.Port, t.Database)
	default:
		return ""
	}
}

// Open opens and pings a *sql.DB for Target. The caller must close it.
func Open(ctx context.Context, t Target) (*sql.DB, error) {
	caps, err := dbkind.For(t.Kind)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(caps.Dial.DriverName(), t.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", t.Kind, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", t.Kind, err)
	}
	return db, nil
}
