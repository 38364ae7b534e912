package profile

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Dialect names the SQL backend a DSN points at.
type Dialect string

const (
	DialectPostgres Dialect = "pg"
	DialectSQLite   Dialect = "sqlite"
)

// postgresPoolSize bounds connections per service instance.
const postgresPoolSize = 10

// DialectFor picks the backend from the DSN scheme. Everything that is not a
// postgres URL goes to sqlite: file: URIs, :memory: and plain paths.
func DialectFor(dsn string) Dialect {
	scheme, _, ok := strings.Cut(strings.TrimSpace(dsn), "://")
	if ok {
		switch strings.ToLower(scheme) {
		case "postgres", "postgresql":
			return DialectPostgres
		}
	}
	return DialectSQLite
}

// OpenDB connects to the profile store described by dsn and pings it.
func OpenDB(ctx context.Context, dsn string) (*bun.DB, error) {
	dialect := DialectFor(dsn)

	var db *bun.DB
	switch dialect {
	case DialectPostgres:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		sqldb.SetMaxOpenConns(postgresPoolSize)
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", dialect, err)
		}
		// shared in-memory databases vanish with their last connection and
		// sqlite serialises writers anyway
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s store: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}
	return db, nil
}

// CreateSchema creates the users and connections tables when missing.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*Connection)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create connections table: %w", err)
	}

	if _, err := db.NewCreateIndex().
		Model((*Connection)(nil)).
		Index("connections_user_id_idx").
		IfNotExists().
		Column("user_id").
		Exec(ctx); err != nil {
		return fmt.Errorf("create connections index: %w", err)
	}
	return nil
}
