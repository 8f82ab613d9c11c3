package accountstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// Postgres stores accounts in PostgreSQL through the pgx database/sql driver.
type Postgres struct {
	db  DBTX
	now func() time.Time
}

func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// OpenPostgres connects to dsn, applies migrations and returns the store with
// its handle. The caller closes the handle.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, *sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := MigratePostgres(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return NewPostgres(db), db, nil
}

// MigratePostgres applies the embedded PostgreSQL migrations.
func MigratePostgres(ctx context.Context, db *sql.DB) error {
	return runMigrations(ctx, db, goose.DialectPostgres, "migrations/postgres")
}

func (s *Postgres) GetAccountByEmail(ctx context.Context, email string) (goAccount.Account, error) {
	query :=
		`SELECT id, name, email, password_hash, origin, created_at FROM accounts
		 WHERE email = $1
		 `

	var (
		acc    goAccount.Account
		origin string
	)
	err := s.db.QueryRowContext(ctx, query, email).
		Scan(&acc.ID, &acc.Name, &acc.Email, &acc.PasswordHash, &origin, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return goAccount.Account{}, goAccount.ErrStoreAccountNotFound
		}
		return goAccount.Account{}, fmt.Errorf("db error: %w", err)
	}
	acc.Origin = goAccount.Origin(origin)
	acc.CreatedAt = acc.CreatedAt.UTC()

	return acc, nil
}

func (s *Postgres) CreateAccount(ctx context.Context, in goAccount.CreateAccountInput) (goAccount.Account, error) {
	acc := goAccount.Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Origin:       originOrLocal(in.Origin),
		CreatedAt:    s.now().UTC(),
	}

	query :=
		`INSERT INTO accounts (id, name, email, password_hash, origin, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 `

	_, err := s.db.ExecContext(ctx, query,
		acc.ID, acc.Name, acc.Email, acc.PasswordHash, string(acc.Origin), acc.CreatedAt)
	if err != nil {
		if isPgUniqueViolation(err) {
			return goAccount.Account{}, goAccount.ErrStoreDuplicateEmail
		}
		return goAccount.Account{}, fmt.Errorf("db error: %w", err)
	}

	return acc, nil
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func originOrLocal(o goAccount.Origin) goAccount.Origin {
	if o == "" {
		return goAccount.OriginLocal
	}
	return o
}
