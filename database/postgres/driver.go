package postgres

import "github.com/lockplane/lockplane/database"

// Driver implements database.Driver for PostgreSQL. Batched ALTER TABLE
// assembly and object DDL generation now live in internal/schema and
// internal/entities, which operate on Schema values rather than a live
// connection; Driver's only remaining job is reading the catalog.
type Driver struct {
	*Introspector
}

// NewDriver creates a new PostgreSQL driver.
func NewDriver() *Driver {
	return &Driver{Introspector: NewIntrospector()}
}

// Name returns the database driver name.
func (d *Driver) Name() string { return "postgres" }

var _ database.Driver = (*Driver)(nil)
var _ database.Introspector = (*Introspector)(nil)
