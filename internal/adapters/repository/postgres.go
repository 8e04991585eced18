package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"

	"github.com/okian/heroes/internal/domain/model"
	"github.com/okian/heroes/pkg/logger"
	"github.com/okian/heroes/pkg/metrics"
)

const uniqueViolation = "23505"

const schemaSQL = `CREATE TABLE IF NOT EXISTS heroes (
	id   SERIAL PRIMARY KEY,
	name TEXT NOT NULL
)`

const (
	listSQL      = `SELECT id, name FROM heroes ORDER BY id`
	getSQL       = `SELECT id, name FROM heroes WHERE id = $1`
	searchSQL    = `SELECT id, name FROM heroes WHERE strpos(lower(name), lower($1)) > 0 ORDER BY id`
	insertSQL    = `INSERT INTO heroes (name) VALUES ($1) RETURNING id, name`
	insertWithID = `INSERT INTO heroes (id, name) VALUES ($1, $2) RETURNING id, name`
	syncSeqSQL   = `SELECT setval(pg_get_serial_sequence('heroes', 'id'), GREATEST((SELECT MAX(id) FROM heroes), 1))`
	updateSQL    = `UPDATE heroes SET name = $1 WHERE id = $2 RETURNING id, name`
	deleteSQL    = `DELETE FROM heroes WHERE id = $1 RETURNING id, name`
	countSQL     = `SELECT COUNT(*) FROM heroes`
)

// PostgresStore keeps heroes in a single Postgres table.
type PostgresStore struct {
	db     *sqlx.DB
	logger logger.Logger
}

// OpenPostgres connects to dsn through the pgx driver.
func OpenPostgres(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewPostgresStore(db, opts...), nil
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sqlx.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates the heroes table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create heroes table: %w", err)
	}
	return nil
}

// SeedIfEmpty inserts heroes when the table is empty and moves the id
// sequence past them.
func (s *PostgresStore) SeedIfEmpty(ctx context.Context, heroes []model.Hero) error {
	if s.Count(ctx) > 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, h := range heroes {
		var created model.Hero
		if err := tx.GetContext(ctx, &created, insertWithID, h.ID, h.Name); err != nil {
			return fmt.Errorf("seed hero id=%d: %w", h.ID, err)
		}
	}
	if _, err := tx.ExecContext(ctx, syncSeqSQL); err != nil {
		return fmt.Errorf("sync hero id sequence: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	s.logger.Info(ctx, "seeded heroes table", logger.Int("count", len(heroes)))
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) List(ctx context.Context) ([]model.Hero, error) {
	defer observe(DriverPostgres, "list", time.Now())
	heroes := []model.Hero{}
	if err := s.db.SelectContext(ctx, &heroes, listSQL); err != nil {
		return nil, fmt.Errorf("list heroes: %w", err)
	}
	return heroes, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int) (model.Hero, error) {
	defer observe(DriverPostgres, "get", time.Now())
	var h model.Hero
	if err := s.db.GetContext(ctx, &h, getSQL, id); err != nil {
		return model.Hero{}, notFound(err, id, "get hero")
	}
	return h, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int) ([]model.Hero, error) {
	defer observe(DriverPostgres, "find_by_id", time.Now())
	heroes := []model.Hero{}
	if err := s.db.SelectContext(ctx, &heroes, getSQL, id); err != nil {
		return nil, fmt.Errorf("find hero id=%d: %w", id, err)
	}
	return heroes, nil
}

func (s *PostgresStore) SearchByName(ctx context.Context, term string) ([]model.Hero, error) {
	defer observe(DriverPostgres, "search", time.Now())
	heroes := []model.Hero{}
	if err := s.db.SelectContext(ctx, &heroes, searchSQL, term); err != nil {
		return nil, fmt.Errorf("search heroes: %w", err)
	}
	return heroes, nil
}

func (s *PostgresStore) Create(ctx context.Context, h model.Hero) (model.Hero, error) {
	defer observe(DriverPostgres, "create", time.Now())
	if err := h.Validate(); err != nil {
		return model.Hero{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	var (
		created model.Hero
		err     error
	)
	if h.ID == 0 {
		err = s.db.GetContext(ctx, &created, insertSQL, h.Name)
	} else {
		err = s.db.GetContext(ctx, &created, insertWithID, h.ID, h.Name)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.Hero{}, fmt.Errorf("%w: id=%d", ErrConflict, h.ID)
		}
		return model.Hero{}, fmt.Errorf("create hero: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) Update(ctx context.Context, h model.Hero) (model.Hero, error) {
	defer observe(DriverPostgres, "update", time.Now())
	if err := h.Validate(); err != nil {
		return model.Hero{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	var updated model.Hero
	if err := s.db.GetContext(ctx, &updated, updateSQL, h.Name, h.ID); err != nil {
		return model.Hero{}, notFound(err, h.ID, "update hero")
	}
	return updated, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int) (model.Hero, error) {
	defer observe(DriverPostgres, "delete", time.Now())
	var deleted model.Hero
	if err := s.db.GetContext(ctx, &deleted, deleteSQL, id); err != nil {
		return model.Hero{}, notFound(err, id, "delete hero")
	}
	return deleted, nil
}

// Count returns 0 when the table cannot be read; the failure is logged.
func (s *PostgresStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.GetContext(ctx, &n, countSQL); err != nil {
		s.logger.Warn(ctx, "count heroes failed", logger.Error(err))
		return 0
	}
	metrics.UpdateStoredHeroes(n)
	return n
}

func notFound(err error, id int, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: id=%d", ErrNotFound, id)
	}
	return fmt.Errorf("%s id=%d: %w", what, id, err)
}
