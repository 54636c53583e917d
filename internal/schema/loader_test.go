package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lockplane/lockplane/database"
)

func TestLoadJSONSchemaRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.json")

	original := &database.Schema{
		Tables: []database.Table{
			{
				Name: "users",
				Columns: []database.Column{
					{Name: "id", Type: "bigint", Nullable: false, IsPrimaryKey: true},
					{Name: "email", Type: "text", Nullable: false},
				},
				PrimaryKey: &database.PrimaryKey{Name: "users_pkey", Columns: []string{"id"}},
			},
		},
	}
	if err := SaveJSONSchema(path, original); err != nil {
		t.Fatalf("SaveJSONSchema: %v", err)
	}

	loaded, err := LoadJSONSchema(path)
	if err != nil {
		t.Fatalf("LoadJSONSchema: %v", err)
	}
	if len(loaded.Tables) != 1 || loaded.Tables[0].Name != "users" {
		t.Fatalf("round trip lost data: %+v", loaded)
	}
}

func TestLoadJSONSchemaRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.json")
	if err := os.WriteFile(path, []byte(`{"tables": [], "bogus_field": true}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadJSONSchema(path)
	if err == nil {
		t.Fatal("expected an error for an unknown top-level field")
	}
	if !strings.Contains(err.Error(), "unknown field") {
		t.Errorf("expected an unknown-field error, got: %v", err)
	}
}

func TestLoadSQLSchemaFromDirConcatenatesInSortedOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "01_users.lp.sql"), `CREATE TABLE users (id integer NOT NULL);`)
	writeFile(t, filepath.Join(dir, "02_posts.lp.sql"), `CREATE TABLE posts (id integer NOT NULL);`)
	writeFile(t, filepath.Join(dir, "ignored.db"), `not sql`)

	sch, err := LoadSchema(dir)
	if err != nil {
		t.Fatalf("LoadSchema(dir): %v", err)
	}
	if len(sch.Tables) != 2 {
		t.Fatalf("expected 2 tables from directory load, got %d", len(sch.Tables))
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadSQLSchemaParsesDDL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.lp.sql")
	writeFile(t, path, `CREATE TABLE widgets (id integer NOT NULL, name text);`)

	sch, err := LoadSQLSchema(path)
	if err != nil {
		t.Fatalf("LoadSQLSchema: %v", err)
	}
	if len(sch.Tables) != 1 || sch.Tables[0].Name != "widgets" {
		t.Fatalf("unexpected schema: %+v", sch)
	}
}

func TestLoadSchemaDispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "schema.json")
	sch := &database.Schema{Tables: []database.Table{{Name: "t", Columns: []database.Column{{Name: "id", Type: "integer"}}}}}
	data, err := json.Marshal(sch)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	writeFile(t, jsonPath, string(data))

	loaded, err := LoadSchema(jsonPath)
	if err != nil {
		t.Fatalf("LoadSchema(json): %v", err)
	}
	if len(loaded.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(loaded.Tables))
	}
}
