// Package introspect dispatches a schema source — a file, a directory of
// .lp.sql files, or a live connection string — to the right loader.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/lockplane/lockplane/database"
	"github.com/lockplane/lockplane/database/postgres"
	"github.com/lockplane/lockplane/internal/schema"
)

// IsConnectionString reports whether s names a live PostgreSQL connection
// rather than a schema file or directory path.
func IsConnectionString(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

// LoadSchemaFromConnectionString connects to connStr and introspects the
// given schemas, defaulting to {"public"} when none are given.
func LoadSchemaFromConnectionString(connStr string, schemas []string) (*database.Schema, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	introspector := postgres.NewIntrospector()
	sch, err := introspector.IntrospectSchema(ctx, db, schemas)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect schema: %w", err)
	}
	return sch, nil
}

// LoadSchemaOrIntrospect loads a schema from a file/directory path, or
// introspects a live database when pathOrConnStr is a connection string.
func LoadSchemaOrIntrospect(pathOrConnStr string, schemas []string) (*database.Schema, error) {
	if IsConnectionString(pathOrConnStr) {
		return LoadSchemaFromConnectionString(pathOrConnStr, schemas)
	}
	return schema.LoadSchema(pathOrConnStr)
}
