package parser

import (
	"testing"

	"github.com/lockplane/lockplane/database"
)

func TestParseCreateTable_ColumnsAndTypes(t *testing.T) {
	ddl := `
CREATE TABLE users (
    id integer PRIMARY KEY,
    email text NOT NULL,
    age integer,
    created_at timestamp DEFAULT now()
);
`
	schema, err := ParseSQLSchema(ddl, nil)
	if err != nil {
		t.Fatalf("ParseSQLSchema failed: %v", err)
	}

	if len(schema.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(schema.Tables))
	}

	table := schema.Tables[0]
	if table.Name != "users" {
		t.Errorf("expected table name users, got %s", table.Name)
	}
	if table.PrimaryKey == nil || len(table.PrimaryKey.Columns) != 1 || table.PrimaryKey.Columns[0] != "id" {
		t.Errorf("expected primary key on id, got %+v", table.PrimaryKey)
	}

	expectedNullable := map[string]bool{
		"id":         false,
		"email":      false,
		"age":        true,
		"created_at": true,
	}
	for _, col := range table.Columns {
		want, ok := expectedNullable[col.Name]
		if !ok {
			t.Errorf("unexpected column: %s", col.Name)
			continue
		}
		if col.Nullable != want {
			t.Errorf("column %s: expected nullable=%v, got %v", col.Name, want, col.Nullable)
		}
	}

	created := findColumn(table, "created_at")
	if created == nil || created.Default == nil {
		t.Fatalf("expected created_at to carry a default expression")
	}
}

func TestParseCreateTable_TableLevelConstraints(t *testing.T) {
	ddl := `
CREATE TABLE orders (
    id integer,
    customer_id integer,
    total numeric(10,2),
    status text,
    PRIMARY KEY (id),
    UNIQUE (customer_id, total),
    CHECK (total >= 0),
    FOREIGN KEY (customer_id) REFERENCES customers (id) ON DELETE CASCADE
);
`
	schema, err := ParseSQLSchema(ddl, nil)
	if err != nil {
		t.Fatalf("ParseSQLSchema failed: %v", err)
	}

	table := schema.Tables[0]

	if table.PrimaryKey == nil || len(table.PrimaryKey.Columns) != 1 || table.PrimaryKey.Columns[0] != "id" {
		t.Fatalf("expected primary key [id], got %+v", table.PrimaryKey)
	}

	if len(table.Uniques) != 1 || len(table.Uniques[0].Columns) != 2 {
		t.Fatalf("expected one 2-column unique constraint, got %+v", table.Uniques)
	}

	if len(table.Checks) != 1 {
		t.Fatalf("expected one check constraint, got %+v", table.Checks)
	}

	if len(table.ForeignKeys) != 1 {
		t.Fatalf("expected one foreign key, got %+v", table.ForeignKeys)
	}
	fk := table.ForeignKeys[0]
	if fk.ReferencedTable != "customers" || fk.OnDelete != database.FKCascade {
		t.Errorf("unexpected foreign key: %+v", fk)
	}
}

func TestParseCreateTable_GeneratedColumn(t *testing.T) {
	ddl := `
CREATE TABLE invoices (
    id integer PRIMARY KEY,
    quantity integer,
    price numeric,
    total numeric GENERATED ALWAYS AS (quantity * price) STORED
);
`
	schema, err := ParseSQLSchema(ddl, nil)
	if err != nil {
		t.Fatalf("ParseSQLSchema failed: %v", err)
	}

	total := findColumn(schema.Tables[0], "total")
	if total == nil {
		t.Fatalf("expected a total column")
	}
	if total.Generated == nil || !total.Generated.Always || !total.Generated.Stored {
		t.Fatalf("expected total to be a stored generated column, got %+v", total.Generated)
	}
	if total.Default != nil {
		t.Errorf("generated columns must not also carry a Default, got %v", *total.Default)
	}
}

func TestParseCreateIndex_FullAttributes(t *testing.T) {
	ddl := `
CREATE TABLE widgets (id integer PRIMARY KEY, sku text, active boolean);
CREATE UNIQUE INDEX idx_widgets_sku ON widgets USING btree (sku) WHERE active;
`
	schema, err := ParseSQLSchema(ddl, nil)
	if err != nil {
		t.Fatalf("ParseSQLSchema failed: %v", err)
	}

	table := schema.Tables[0]
	if len(table.Indexes) != 1 {
		t.Fatalf("expected one index, got %d", len(table.Indexes))
	}
	idx := table.Indexes[0]
	if idx.Name != "idx_widgets_sku" || !idx.Unique || idx.Method != database.IndexBtree {
		t.Errorf("unexpected index: %+v", idx)
	}
	if idx.Where == "" {
		t.Errorf("expected a partial-index predicate to be captured")
	}
}

func TestParseAlterTable_AddAndDropColumn(t *testing.T) {
	ddl := `
CREATE TABLE accounts (id integer PRIMARY KEY);
ALTER TABLE accounts ADD COLUMN balance numeric DEFAULT 0;
ALTER TABLE accounts ADD COLUMN legacy_flag boolean;
ALTER TABLE accounts DROP COLUMN legacy_flag;
`
	schema, err := ParseSQLSchema(ddl, nil)
	if err != nil {
		t.Fatalf("ParseSQLSchema failed: %v", err)
	}

	table := schema.Tables[0]
	if findColumn(table, "legacy_flag") != nil {
		t.Errorf("expected legacy_flag to have been dropped")
	}
	balance := findColumn(table, "balance")
	if balance == nil || balance.Default == nil {
		t.Fatalf("expected balance column with a default")
	}
}

func TestParseAlterTable_DropConstraint(t *testing.T) {
	ddl := `
CREATE TABLE items (id integer, sku text, CONSTRAINT items_sku_key UNIQUE (sku));
ALTER TABLE items DROP CONSTRAINT items_sku_key;
`
	schema, err := ParseSQLSchema(ddl, nil)
	if err != nil {
		t.Fatalf("ParseSQLSchema failed: %v", err)
	}

	if len(schema.Tables[0].Uniques) != 0 {
		t.Errorf("expected the unique constraint to have been dropped, got %+v", schema.Tables[0].Uniques)
	}
}

func TestParseSQLSchema_UnmodeledStatementIsTolerated(t *testing.T) {
	ddl := `
CREATE TABLE t1 (id integer PRIMARY KEY);
CREATE TRIGGER some_trigger BEFORE INSERT ON t1 EXECUTE FUNCTION noop();
CREATE TABLE t2 (id integer PRIMARY KEY);
`
	schema, err := ParseSQLSchema(ddl, nil)
	if err != nil {
		t.Fatalf("ParseSQLSchema should tolerate unsupported statement kinds, got: %v", err)
	}
	if len(schema.Tables) != 2 {
		t.Fatalf("expected both surrounding tables to parse despite the trigger, got %d tables", len(schema.Tables))
	}
}

func TestParseCreateEnum(t *testing.T) {
	ddl := `CREATE TYPE mood AS ENUM ('sad', 'ok', 'happy');`
	schema, err := ParseSQLSchema(ddl, nil)
	if err != nil {
		t.Fatalf("ParseSQLSchema failed: %v", err)
	}
	if len(schema.Enums) != 1 || schema.Enums[0].Name != "mood" {
		t.Fatalf("expected one enum named mood, got %+v", schema.Enums)
	}
	if len(schema.Enums[0].Values) != 3 {
		t.Errorf("expected 3 enum values, got %v", schema.Enums[0].Values)
	}
}

func TestParseCreateSequence(t *testing.T) {
	ddl := `CREATE SEQUENCE order_seq INCREMENT BY 1 START WITH 100 CACHE 10 CYCLE;`
	schema, err := ParseSQLSchema(ddl, nil)
	if err != nil {
		t.Fatalf("ParseSQLSchema failed: %v", err)
	}
	if len(schema.Sequences) != 1 {
		t.Fatalf("expected one sequence, got %+v", schema.Sequences)
	}
	seq := schema.Sequences[0]
	if seq.Name != "order_seq" || seq.Start != 100 || seq.Cache != 10 || !seq.Cycle {
		t.Errorf("unexpected sequence: %+v", seq)
	}
}

func TestParseCreateExtension(t *testing.T) {
	ddl := `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`
	schema, err := ParseSQLSchema(ddl, nil)
	if err != nil {
		t.Fatalf("ParseSQLSchema failed: %v", err)
	}
	if len(schema.Extensions) != 1 || schema.Extensions[0].Name != "uuid-ossp" {
		t.Fatalf("expected the uuid-ossp extension, got %+v", schema.Extensions)
	}
}

func findColumn(table database.Table, name string) *database.Column {
	for i := range table.Columns {
		if table.Columns[i].Name == name {
			return &table.Columns[i]
		}
	}
	return nil
}
