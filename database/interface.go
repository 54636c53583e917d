// Package database defines the Schema Model shared by the parser,
// introspector, and differ. It is a pure value type: no connections, no
// files, nothing that performs I/O.
package database

import (
	"context"
	"database/sql"
)

// Schema is the sole currency between parser, introspector, and differ.
type Schema struct {
	Tables     []Table          `json:"tables"`
	Enums      []EnumType       `json:"enums,omitempty"`
	Views      []View           `json:"views,omitempty"`
	Functions  []Function       `json:"functions,omitempty"`
	Sequences  []Sequence       `json:"sequences,omitempty"`
	Extensions []Extension      `json:"extensions,omitempty"`
	Schemas    []SchemaDef      `json:"schemas,omitempty"`
	Comments   []Comment        `json:"comments,omitempty"`
}

// Table is a bare name, an optional schema qualifier (default "public"), an
// ordered column list, an optional primary key, constraint lists, and
// indexes (which may include constraint-backed entries).
type Table struct {
	Name        string       `json:"name"`
	Schema      string       `json:"schema,omitempty"`
	Columns     []Column     `json:"columns"`
	PrimaryKey  *PrimaryKey  `json:"primary_key,omitempty"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
	Checks      []Check      `json:"checks,omitempty"`
	Uniques     []Unique     `json:"uniques,omitempty"`
	Indexes     []Index      `json:"indexes,omitempty"`
}

// SchemaName returns the table's schema qualifier, defaulting to "public".
func (t Table) SchemaName() string {
	if t.Schema == "" {
		return "public"
	}
	return t.Schema
}

// Generated describes a generated-column spec. A column's Generated and
// Default are mutually exclusive.
type Generated struct {
	Always     bool   `json:"always"`
	Expression string `json:"expression"`
	Stored     bool   `json:"stored"`
}

// Column is a name, SQL type text, nullability, optional default
// expression text, and an optional generated spec.
type Column struct {
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Nullable  bool       `json:"nullable"`
	Default   *string    `json:"default,omitempty"`
	Generated *Generated `json:"generated,omitempty"`

	// IsPrimaryKey is a convenience marker set by the parser/introspector
	// when this column participates in the table's PrimaryKey; the
	// authoritative representation is Table.PrimaryKey.
	IsPrimaryKey bool `json:"is_primary_key,omitempty"`
}

// PrimaryKey is an optional constraint name and an ordered column list.
type PrimaryKey struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
}

// FKAction is a referential action in {NO ACTION, RESTRICT, CASCADE,
// SET NULL, SET DEFAULT}.
type FKAction string

const (
	FKNoAction   FKAction = "NO ACTION"
	FKRestrict   FKAction = "RESTRICT"
	FKCascade    FKAction = "CASCADE"
	FKSetNull    FKAction = "SET NULL"
	FKSetDefault FKAction = "SET DEFAULT"
)

// ForeignKey is an optional name, ordered local columns, a referenced
// (schema-qualified) table, ordered referenced columns, ON DELETE/ON UPDATE
// actions, and deferrability flags.
type ForeignKey struct {
	Name               string   `json:"name,omitempty"`
	Columns            []string `json:"columns"`
	ReferencedSchema   string   `json:"referenced_schema,omitempty"`
	ReferencedTable    string   `json:"referenced_table"`
	ReferencedColumns  []string `json:"referenced_columns"`
	OnDelete           FKAction `json:"on_delete,omitempty"`
	OnUpdate           FKAction `json:"on_update,omitempty"`
	Deferrable         bool     `json:"deferrable,omitempty"`
	InitiallyDeferred  bool     `json:"initially_deferred,omitempty"`
}

// Check is an optional name and an expression text.
type Check struct {
	Name       string `json:"name,omitempty"`
	Expression string `json:"expression"`
}

// Unique is an optional name, an ordered column list, and deferrability
// flags.
type Unique struct {
	Name              string   `json:"name,omitempty"`
	Columns           []string `json:"columns"`
	Deferrable        bool     `json:"deferrable,omitempty"`
	InitiallyDeferred bool     `json:"initially_deferred,omitempty"`
}

// IndexMethod is an access method in {btree, hash, gist, spgist, gin, brin}.
type IndexMethod string

const (
	IndexBtree  IndexMethod = "btree"
	IndexHash   IndexMethod = "hash"
	IndexGist   IndexMethod = "gist"
	IndexSpgist IndexMethod = "spgist"
	IndexGin    IndexMethod = "gin"
	IndexBrin   IndexMethod = "brin"
)

// Index is a name, table+schema, ordered columns with optional per-column
// operator classes and sort orders, a method, a unique flag, an optional
// partial predicate or expression, storage parameters, an optional
// tablespace, and an optional backing-constraint tag.
type Index struct {
	Name          string            `json:"name"`
	Table         string            `json:"table"`
	Schema        string            `json:"schema,omitempty"`
	Columns       []string          `json:"columns"`
	OpClasses     map[string]string `json:"op_classes,omitempty"`  // column -> operator class
	SortOrders    map[string]string `json:"sort_orders,omitempty"` // column -> "ASC"|"DESC"
	Method        IndexMethod       `json:"method,omitempty"`
	Unique        bool              `json:"unique"`
	Where         string            `json:"where,omitempty"`
	Expression    string            `json:"expression,omitempty"`
	Storage       map[string]string `json:"storage,omitempty"`
	Tablespace    string            `json:"tablespace,omitempty"`

	// BackingConstraint names the UNIQUE/PRIMARY/EXCLUDE constraint that
	// owns this index, if any. Constraint-backed indexes are managed via
	// ALTER TABLE, never CREATE/DROP INDEX, and are excluded from the
	// standalone-index list used for index diffing.
	BackingConstraint string `json:"backing_constraint,omitempty"`
}

// EnumType is a name, optional schema, and an ordered value list.
type EnumType struct {
	Name   string   `json:"name"`
	Schema string   `json:"schema,omitempty"`
	Values []string `json:"values"`
}

// View is a name, optional schema, SELECT text, materialized flag, optional
// WITH CHECK OPTION level, and an optional security-barrier flag.
type View struct {
	Name            string `json:"name"`
	Schema          string `json:"schema,omitempty"`
	Definition      string `json:"definition"`
	Materialized    bool   `json:"materialized"`
	CheckOption     string `json:"check_option,omitempty"` // "LOCAL" | "CASCADED"
	SecurityBarrier bool   `json:"security_barrier,omitempty"`
}

// FunctionParam is a parameter name, mode, type, and optional default.
type FunctionParam struct {
	Name    string  `json:"name"`
	Mode    string  `json:"mode,omitempty"` // "IN" | "OUT" | "INOUT" | "VARIADIC"
	Type    string  `json:"type"`
	Default *string `json:"default,omitempty"`
}

// Function is a name, parameter list, return type, language, body text, and
// optional behavior flags.
type Function struct {
	Name             string          `json:"name"`
	Schema           string          `json:"schema,omitempty"`
	Params           []FunctionParam `json:"params,omitempty"`
	ReturnType       string          `json:"return_type"`
	Language         string          `json:"language"`
	Body             string          `json:"body"`
	Volatility       string          `json:"volatility,omitempty"` // "VOLATILE"|"STABLE"|"IMMUTABLE"
	Parallel         string          `json:"parallel,omitempty"`   // "UNSAFE"|"RESTRICTED"|"SAFE"
	SecurityDefiner  bool            `json:"security_definer,omitempty"`
	Strict           bool            `json:"strict,omitempty"`
	Cost             *float64        `json:"cost,omitempty"`
	Rows             *float64        `json:"rows,omitempty"`
}

// Sequence is a name, optional data type, increment/min/max/start/cache,
// cycle flag, and optional column ownership.
type Sequence struct {
	Name        string  `json:"name"`
	Schema      string  `json:"schema,omitempty"`
	DataType    string  `json:"data_type,omitempty"`
	Increment   int64   `json:"increment,omitempty"`
	MinValue    *int64  `json:"min_value,omitempty"`
	MaxValue    *int64  `json:"max_value,omitempty"`
	Start       int64   `json:"start,omitempty"`
	Cache       int64   `json:"cache,omitempty"`
	Cycle       bool    `json:"cycle,omitempty"`
	OwnedByTable string `json:"owned_by_table,omitempty"`
	OwnedByColumn string `json:"owned_by_column,omitempty"`
}

// Extension is an installed PostgreSQL extension.
type Extension struct {
	Name    string `json:"name"`
	Schema  string `json:"schema,omitempty"`
	Version string `json:"version,omitempty"`
}

// SchemaDef is a PostgreSQL namespace (CREATE SCHEMA).
type SchemaDef struct {
	Name string `json:"name"`
}

// Comment is a COMMENT ON target and its text.
type Comment struct {
	ObjectType string `json:"object_type"` // "TABLE" | "COLUMN" | "INDEX" | ...
	ObjectName string `json:"object_name"` // dotted path, e.g. "public.users.email"
	Text       string `json:"text"`
}

// Introspector reads the live database and reconstructs a Schema.
type Introspector interface {
	IntrospectSchema(ctx context.Context, db *sql.DB, schemas []string) (*Schema, error)
}

// Driver names the database engine and performs introspection.
// Lockplane targets PostgreSQL exclusively; Driver exists to keep the
// introspection entrypoint mockable in tests, the way the teacher's
// broader multi-engine Driver interface did for postgres+sqlite.
type Driver interface {
	Introspector
	Name() string
}
