// Package storage persists the budget domain in SQLite or Postgres.
//
// Every query over owned rows is scoped by user_id. A row that exists but
// belongs to someone else is reported exactly like a missing row.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures the database backend.
type Options struct {
	Driver string

	// SQLitePath is used when Driver is sqlite.
	SQLitePath string

	// DatabaseURL is used when Driver is postgres.
	DatabaseURL string

	MaxOpenConns int
}

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func (d dialect) String() string {
	if d == dialectPostgres {
		return DriverPostgres
	}
	return DriverSQLite
}

// Repository is the single access point to persisted state.
type Repository struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
	now     func() time.Time
}

// Open connects to the configured database, verifies the connection and
// applies pending migrations.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Repository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		d          dialect
		driverName string
		dsn        string
	)
	switch opts.Driver {
	case DriverSQLite, "":
		if opts.SQLitePath == "" {
			return nil, errors.New("sqlite path is required")
		}
		if err := os.MkdirAll(filepath.Dir(opts.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		d, driverName, dsn = dialectSQLite, "sqlite", sqliteDSN(opts.SQLitePath)
	case DriverPostgres:
		if opts.DatabaseURL == "" {
			return nil, errors.New("database url is required")
		}
		d, driverName, dsn = dialectPostgres, "pgx", opts.DatabaseURL
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", opts.Driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d, err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(d.String(), dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.InfoContext(ctx, "Database ready", "driver", d.String())

	return &Repository{
		db:      db,
		dialect: d,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// sqliteDSN enables foreign keys on every pooled connection so that the
// set-null and cascade actions hold, and takes the write lock up front in
// transactions so read-modify-write sequences serialise.
func sqliteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_txlock", "immediate")
	q.Set("_time_format", "sqlite")
	return "file:" + path + "?" + q.Encode()
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable; used by readiness checks.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// rebind rewrites ? placeholders to $n for Postgres.
func (r *Repository) rebind(query string) string {
	if r.dialect != dialectPostgres {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// forUpdate locks the selected row where the dialect supports it.
func (r *Repository) forUpdate() string {
	if r.dialect == dialectPostgres {
		return " FOR UPDATE"
	}
	return ""
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx runs fn inside a transaction, committing on success.
func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.logger.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// affected turns a zero-row update or delete into ErrNotFound.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return errNotFound
	}
	return nil
}
