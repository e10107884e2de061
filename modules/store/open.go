package store

import (
	"context"
	"net/url"
	"strings"

	"github.com/example/todo-api/domain/task"
)

// Options tune backend behaviour.
type Options struct {
	// Debug enables SQL statement logging where the backend supports it.
	Debug bool
}

// Open selects a backend from the connection string scheme:
// mongodb:// and mongodb+srv:// use MongoDB, postgres:// and postgresql://
// use PostgreSQL, memory:// keeps data in process and anything else is a
// SQLite path.
func Open(ctx context.Context, dsn string, opts Options) (task.Store, error) {
	switch {
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return OpenMongo(ctx, dsn)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return OpenPostgres(ctx, dsn)
	case strings.HasPrefix(dsn, "memory://"):
		return NewMemoryStore(), nil
	default:
		return OpenSQLite(dsn, opts.Debug)
	}
}

// Redact hides the password of a URL-style connection string for logging.
func Redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	return u.Redacted()
}
