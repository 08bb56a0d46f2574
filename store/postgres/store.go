package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	hireAuth "github.com/MrEthical07/hireAuth"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store implements hireAuth.AccountStore and the resource queries used by the
// HTTP layer. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

var _ hireAuth.AccountStore = (*Store)(nil)

// Open connects to dsn with the pgx driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing pool.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	return s.db.PingContext(ctx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newID() string {
	return uuid.NewString()
}

type scanner interface {
	Scan(dest ...any) error
}
