package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/todo-api/domain/task"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore stores each collection in its own table through GORM.
type SQLiteStore struct {
	db   *gorm.DB
	path string
}

var _ task.Store = (*SQLiteStore)(nil)

// OpenSQLite opens the database file at path and creates the task tables.
func OpenSQLite(path string, debug bool) (*SQLiteStore, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// every connection to :memory: is a separate database
	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	s := NewSQLiteStore(db)
	s.path = path
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// sqliteDSN makes file databases start write transactions with BEGIN
// IMMEDIATE so concurrent moves wait on the busy timeout instead of failing
// with SQLITE_BUSY when a read lock is upgraded.
func sqliteDSN(path string) string {
	if path == ":memory:" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_txlock=immediate&_busy_timeout=5000"
}

// NewSQLiteStore wraps an open GORM handle. Call Migrate before use.
func NewSQLiteStore(db *gorm.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Migrate creates or updates one table per collection.
func (s *SQLiteStore) Migrate() error {
	for _, c := range task.Collections {
		if err := s.db.Table(c.String()).AutoMigrate(&task.Task{}); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", c, err)
		}
	}
	return nil
}

// Collection returns the repository bound to c.
func (s *SQLiteStore) Collection(c task.Collection) task.Repository {
	return &sqliteRepository{db: s.db, collection: c}
}

// Move runs the delete and insert inside one transaction.
func (s *SQLiteStore) Move(ctx context.Context, id string, from, to task.Collection, build task.BuildFunc) (*task.Task, error) {
	var moved *task.Task

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var src task.Task
		if err := tx.Table(from.String()).Where("id = ?", id).Take(&src).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return task.ErrNotFound
			}
			return fmt.Errorf("failed to find task: %w", err)
		}

		dst := build(&src)
		if dst.ID == "" {
			dst.ID = uuid.New().String()
		}
		if err := tx.Table(to.String()).Create(dst).Error; err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		result := tx.Table(from.String()).Where("id = ?", id).Delete(&task.Task{})
		if err := result.Error; err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		if result.RowsAffected == 0 {
			return task.ErrNotFound
		}

		moved = dst
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Driver names the backend.
func (s *SQLiteStore) Driver() string {
	return "sqlite"
}

// Path returns the database path the store was opened with.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Ping checks the underlying connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// sqliteRepository provides access to one task table.
type sqliteRepository struct {
	db         *gorm.DB
	collection task.Collection
}

func (r *sqliteRepository) table(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.collection.String())
}

func (r *sqliteRepository) Collection() task.Collection {
	return r.collection
}

// Create saves a new task. GORM fills CreatedAt and UpdatedAt.
func (r *sqliteRepository) Create(ctx context.Context, t *task.Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if err := r.table(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *sqliteRepository) FindAll(ctx context.Context) ([]*task.Task, error) {
	tasks := make([]*task.Task, 0)
	if err := r.table(ctx).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	return tasks, nil
}

func (r *sqliteRepository) FindByID(ctx context.Context, id string) (*task.Task, error) {
	var t task.Task
	if err := r.table(ctx).Where("id = ?", id).Take(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, task.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &t, nil
}

func (r *sqliteRepository) Delete(ctx context.Context, id string) error {
	result := r.table(ctx).Where("id = ?", id).Delete(&task.Task{})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return task.ErrNotFound
	}
	return nil
}
