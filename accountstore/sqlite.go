package accountstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// SQLite stores accounts in a local SQLite file. Timestamps are kept as
// UTC milliseconds.
type SQLite struct {
	db  DBTX
	now func() time.Time
}

func NewSQLite(db DBTX) *SQLite {
	return &SQLite{db: db, now: time.Now}
}

// OpenSQLite opens the database file at path, applies migrations and returns
// the store with its handle. The caller closes the handle.
func OpenSQLite(ctx context.Context, path string) (*SQLite, *sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, errors.New("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := MigrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return NewSQLite(db), db, nil
}

// MigrateSQLite applies the embedded SQLite migrations.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, goose.DialectSQLite3, "migrations/sqlite")
}

func (s *SQLite) GetAccountByEmail(ctx context.Context, email string) (goAccount.Account, error) {
	var (
		acc       goAccount.Account
		origin    string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, origin, created_at FROM accounts WHERE email = ?`,
		email,
	).Scan(&acc.ID, &acc.Name, &acc.Email, &acc.PasswordHash, &origin, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return goAccount.Account{}, goAccount.ErrStoreAccountNotFound
		}
		return goAccount.Account{}, fmt.Errorf("get account: %w", err)
	}
	acc.Origin = goAccount.Origin(origin)
	acc.CreatedAt = time.UnixMilli(createdAt).UTC()

	return acc, nil
}

func (s *SQLite) CreateAccount(ctx context.Context, in goAccount.CreateAccountInput) (goAccount.Account, error) {
	acc := goAccount.Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Origin:       originOrLocal(in.Origin),
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, email, password_hash, origin, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		acc.ID, acc.Name, acc.Email, acc.PasswordHash, string(acc.Origin), acc.CreatedAt.UnixMilli(),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return goAccount.Account{}, goAccount.ErrStoreDuplicateEmail
		}
		return goAccount.Account{}, fmt.Errorf("create account: %w", err)
	}

	return acc, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}
