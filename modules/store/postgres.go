package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/todo-api/domain/task"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS %s (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	date       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const taskColumns = "id, name, date, created_at, updated_at"

// PostgresStore stores each collection in its own PostgreSQL table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ task.Store = (*PostgresStore)(nil)

// OpenPostgres connects to PostgreSQL and creates the task tables.
func OpenPostgres(ctx context.Context, dbURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := NewPostgresStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// NewPostgresStore wraps an open pool. Call Migrate before use.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates one table per collection.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, c := range task.Collections {
		if _, err := s.pool.Exec(ctx, fmt.Sprintf(createTableSQL, tableName(c))); err != nil {
			return fmt.Errorf("failed to create table %s: %w", c, err)
		}
	}
	return nil
}

// Collection returns the repository bound to c.
func (s *PostgresStore) Collection(c task.Collection) task.Repository {
	return &postgresRepository{db: s.pool, collection: c}
}

// Move deletes from one table and inserts into the other in one transaction.
func (s *PostgresStore) Move(ctx context.Context, id string, from, to task.Collection, build task.BuildFunc) (*task.Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	row := tx.QueryRow(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = $1 RETURNING %s", tableName(from), taskColumns), id)
	src, err := scanTask(row)
	if err != nil {
		return nil, err
	}

	dst := build(src)
	repo := &postgresRepository{db: tx, collection: to}
	if err := repo.Create(ctx, dst); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return dst, nil
}

// Driver names the backend.
func (s *PostgresStore) Driver() string {
	return "postgres"
}

// Ping checks the pool.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// postgresRepository provides access to one task table.
type postgresRepository struct {
	db         DBTX
	collection task.Collection
}

func (r *postgresRepository) Collection() task.Collection {
	return r.collection
}

func (r *postgresRepository) Create(ctx context.Context, t *task.Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (id, name, date) VALUES ($1, $2, $3) RETURNING created_at, updated_at",
		tableName(r.collection))
	if err := r.db.QueryRow(ctx, query, t.ID, t.Name, t.Date).Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *postgresRepository) FindAll(ctx context.Context) ([]*task.Task, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf("SELECT %s FROM %s", taskColumns, tableName(r.collection)))
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*task.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	return tasks, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id string) (*task.Task, error) {
	row := r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", taskColumns, tableName(r.collection)), id)
	return scanTask(row)
}

func (r *postgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", tableName(r.collection)), id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return task.ErrNotFound
	}
	return nil
}

// scanTask reads one task row, mapping pgx.ErrNoRows to task.ErrNotFound.
func scanTask(row pgx.Row) (*task.Task, error) {
	var t task.Task
	if err := row.Scan(&t.ID, &t.Name, &t.Date, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, task.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	return &t, nil
}

func tableName(c task.Collection) string {
	return pgx.Identifier{c.String()}.Sanitize()
}
