package database

import (
	"context"
	"database/sql"
)

// SQLConnection adapts a *sql.DB to Connection. It backs SQLite and any
// database/sql handle, including sqlmock in tests.
type SQLConnection struct {
	db     *sql.DB
	driver Driver
}

// WrapDB wraps an open *sql.DB for the given dialect.
func WrapDB(db *sql.DB, driver Driver) *SQLConnection {
	return &SQLConnection{db: db, driver: driver}
}

// DB returns the underlying sql.DB.
func (c *SQLConnection) DB() *sql.DB {
	return c.db
}

func (c *SQLConnection) Driver() Driver {
	return c.driver
}

func (c *SQLConnection) Close() error {
	return c.db.Close()
}

func (c *SQLConnection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *SQLConnection) BeginTx(ctx context.Context) (Transaction, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx}, nil
}

func (c *SQLConnection) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlResult{result}, nil
}

func (c *SQLConnection) QueryRow(ctx context.Context, query string, args ...any) Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

func (c *SQLConnection) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Commit(ctx context.Context) error {
	return t.tx.Commit()
}

func (t *sqlTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback()
}

func (t *sqlTx) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlResult{result}, nil
}

func (t *sqlTx) QueryRow(ctx context.Context, query string, args ...any) Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}

func (t *sqlTx) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

type sqlResult struct {
	sql.Result
}

type sqlRows struct {
	*sql.Rows
}
