package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyReserved = errors.New("book already reserved")
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

type DB struct {
	*sqlx.DB
	Dialect Dialect

	// Now is the clock used for created_at, updated_at and read_at stamps.
	Now func() time.Time
}

// DetectDialect picks the driver from the DSN shape:
// postgres://… or postgresql://… is Postgres, user:pass@tcp(host)/db is
// MySQL, anything else is a SQLite path (or :memory:).
func DetectDialect(dsn string) Dialect {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres
	case strings.Contains(dsn, "@"):
		return DialectMySQL
	default:
		return DialectSQLite
	}
}

// New opens the database behind dsn and applies pending migrations.
func New(dsn string) (*DB, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Open opens and pings the database without touching the schema.
func Open(dsn string) (*DB, error) {
	dialect := DetectDialect(dsn)

	var driver string
	switch dialect {
	case DialectPostgres:
		driver = "pgx"
	case DialectMySQL:
		driver = "mysql"
		// Report matched rather than changed rows, so an update that
		// rewrites identical values is not mistaken for a missing row.
		if !strings.Contains(dsn, "clientFoundRows") {
			dsn = appendParam(dsn, "clientFoundRows=true")
		}
	default:
		driver = "sqlite"
		if dsn == ":memory:" {
			// A plain :memory: database is private to one connection. Use a
			// named shared-cache one so the whole pool sees the same schema.
			dsn = fmt.Sprintf("file:mylibrary-mem-%d?mode=memory&cache=shared", memorySeq.Add(1))
		} else if !strings.HasPrefix(dsn, "file:") {
			dir := filepath.Dir(dsn)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}

		// modernc.org/sqlite takes pragmas as _pragma query parameters so
		// they apply to every pooled connection.
		pragmas := []string{
			"_pragma=foreign_keys(1)",
			"_pragma=journal_mode(WAL)",
			"_pragma=busy_timeout(30000)",
			"_pragma=synchronous(NORMAL)",
			"_pragma=temp_store(MEMORY)",
		}
		for _, p := range pragmas {
			dsn = appendParam(dsn, p)
		}
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if dialect == DialectSQLite {
		conn.SetMaxOpenConns(25)
	}

	return &DB{DB: conn, Dialect: dialect, Now: time.Now}, nil
}

var memorySeq atomic.Int64

func appendParam(dsn, param string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}

// goose keeps its dialect and filesystem in package state.
var gooseMu sync.Mutex

func (db *DB) prepareGoose() error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(string(db.Dialect)); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return nil
}

func (db *DB) migrationsDir() string {
	return "migrations/" + string(db.Dialect)
}

// Migrate applies all pending migrations for the detected dialect.
func (db *DB) Migrate() error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := db.prepareGoose(); err != nil {
		return err
	}
	if err := goose.Up(db.DB.DB, db.migrationsDir()); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// SchemaVersion reports the latest applied migration.
func (db *DB) SchemaVersion() (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := db.prepareGoose(); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db.DB.DB)
}

func (db *DB) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (db *DB) nowMillis() int64 {
	if db.Now == nil {
		return time.Now().UnixMilli()
	}
	return db.Now().UnixMilli()
}
