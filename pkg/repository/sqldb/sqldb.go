package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/caseflow/pkg/domain/interfaces"
	"github.com/secmon-lab/caseflow/pkg/utils/logging"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique or primary key constraint failure
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(liteErr.Error(), "UNIQUE")
		}
	}
	return false
}

var (
	ErrNotFound        = interfaces.ErrNotFound
	ErrAlreadyExists   = interfaces.ErrAlreadyExists
	ErrUnknownDialect  = goerr.New("unknown SQL dialect")
	ErrUnsupportedTerm = goerr.New("unsupported predicate term")
)

// Dialect selects the SQL flavor and the database/sql driver
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectSQLite:
		return "sqlite", nil
	case DialectPostgres:
		return "pgx", nil
	default:
		return "", goerr.Wrap(ErrUnknownDialect, "failed to resolve driver", goerr.V("dialect", d))
	}
}

// DB is a repository backed by a relational database
type DB struct {
	db      *sql.DB
	dialect Dialect

	caseRepo *caseRepository
	ioc      *iocRepository
	alert    *alertRepository
	comment  *commentRepository
}

var _ interfaces.Repository = &DB{}

// New opens the database. The schema is not created; call Migrate for that.
func New(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	driver, err := dialect.driverName()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("dialect", dialect))
	}

	if dialect == DialectSQLite {
		// a single connection serializes writers and keeps in-memory databases alive
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to connect database", goerr.V("dialect", dialect))
	}

	x := &DB{db: db, dialect: dialect}
	x.caseRepo = &caseRepository{x}
	x.ioc = &iocRepository{x}
	x.alert = &alertRepository{x}
	x.comment = &commentRepository{x}

	if dialect == DialectSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, goerr.Wrap(err, "failed to configure sqlite")
		}
	}

	return x, nil
}

func (x *DB) Case() interfaces.CaseRepository       { return x.caseRepo }
func (x *DB) IOC() interfaces.IOCRepository         { return x.ioc }
func (x *DB) Alert() interfaces.AlertRepository     { return x.alert }
func (x *DB) Comment() interfaces.CommentRepository { return x.comment }

func (x *DB) Close() error {
	if x.db != nil {
		return x.db.Close()
	}
	return nil
}

// rebind converts ? placeholders into the dialect's form
func (x *DB) rebind(q string) string {
	if x.dialect != DialectPostgres {
		return q
	}

	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (x *DB) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return x.db.ExecContext(ctx, x.rebind(q), args...)
}

func (x *DB) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return x.db.QueryRowContext(ctx, x.rebind(q), args...)
}

func (x *DB) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return x.db.QueryContext(ctx, x.rebind(q), args...)
}

// withTx runs f in a transaction, committing when it returns nil
func (x *DB) withTx(ctx context.Context, f func(tx *sql.Tx) error) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			logging.From(ctx).Warn("failed to rollback transaction", "error", err)
		}
	}()

	if err := f(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit transaction")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func toMicro(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicro(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

func encodeAttrs(attrs map[string]any) (string, error) {
	if attrs == nil {
		return "", nil
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode custom attributes")
	}
	return string(raw), nil
}

func decodeAttrs(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var attrs map[string]any
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return nil, goerr.Wrap(err, "failed to decode custom attributes")
	}
	return attrs, nil
}
