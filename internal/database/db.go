package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Options identifies the database to connect to.
type Options struct {
	Driver  string
	User    string
	Pass    string
	Host    string
	Port    string
	Name    string
	SSLMode string
}

// DB wraps the sqlx pool. Repositories reach it through Ext so that calls
// made inside WithTx join the running transaction.
type DB struct {
	*sqlx.DB
}

// New wraps an existing pool, e.g. one built on sqlmock.
func New(db *sqlx.DB) *DB { return &DB{DB: db} }

// Open connects to MySQL or PostgreSQL and verifies the connection.
func Open(opts Options) (*DB, error) {
	var dsn string
	switch opts.Driver {
	case DriverMySQL, "":
		opts.Driver = DriverMySQL
		auth := opts.User
		if opts.Pass != "" {
			auth = fmt.Sprintf("%s:%s", opts.User, opts.Pass)
		}
		// parseTime=true -> DATETIME/DATE -> time.Time | loc=UTC keeps times consistent
		// clientFoundRows=true -> RowsAffected counts matched rows, not changed ones
		dsn = fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
			auth, opts.Host, opts.Port, opts.Name)
	case DriverPostgres:
		sslmode := opts.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s timezone=UTC",
			opts.Host, opts.Port, opts.User, opts.Pass, opts.Name, sslmode)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := sqlx.Open(opts.Driver, dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{DB: db}, nil
}

type txKey struct{}

// WithTx runs fn inside a transaction carried by the context passed to fn.
// The transaction commits when fn returns nil and rolls back otherwise.
// A WithTx nested inside another joins the outer transaction.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// Ext returns the transaction stored in ctx, or the pool when there is none.
func (db *DB) Ext(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db.DB
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return ok
}

// InsertID runs an INSERT written with ? placeholders and returns the new
// row id. PostgreSQL has no LastInsertId, so RETURNING id is appended there.
func InsertID(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (uint64, error) {
	query = q.Rebind(query)
	if q.DriverName() == DriverPostgres {
		var id uint64
		if err := q.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// UniqueViolation reports whether err is a unique key violation and, if so,
// the name of the violated constraint when the driver exposes it.
func UniqueViolation(err error) (constraint string, ok bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		// Duplicate entry 'x' for key 'users.uq_users_email'
		if i := strings.LastIndex(me.Message, "for key '"); i >= 0 {
			constraint = strings.TrimSuffix(me.Message[i+len("for key '"):], "'")
		}
		return constraint, true
	}
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == "23505" {
		return pe.Constraint, true
	}
	return "", false
}
