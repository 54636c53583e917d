package entities

import (
	"strings"
	"testing"

	"github.com/lockplane/lockplane/database"
)

func TestDiffEnumAppendIsOrderPreserving(t *testing.T) {
	current := []database.EnumType{{Name: "status", Values: []string{"active", "archived"}}}
	desired := []database.EnumType{{Name: "status", Values: []string{"active", "archived", "deleted"}}}

	stmts, err := Diff(&database.Schema{Enums: current}, &database.Schema{Enums: desired})
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(stmts.PreTable) != 1 || !strings.Contains(stmts.PreTable[0], "ADD VALUE 'deleted'") {
		t.Fatalf("expected one ADD VALUE statement, got %v", stmts.PreTable)
	}
}

func TestDiffEnumRemovalIsFatal(t *testing.T) {
	current := []database.EnumType{{Name: "status", Values: []string{"active", "archived"}}}
	desired := []database.EnumType{{Name: "status", Values: []string{"active"}}}

	_, err := Diff(&database.Schema{Enums: current}, &database.Schema{Enums: desired})
	if err == nil {
		t.Fatal("expected an error removing an enum value")
	}
}

func TestDiffEnumReorderIsFatal(t *testing.T) {
	current := []database.EnumType{{Name: "status", Values: []string{"active", "archived"}}}
	desired := []database.EnumType{{Name: "status", Values: []string{"archived", "active"}}}

	_, err := Diff(&database.Schema{Enums: current}, &database.Schema{Enums: desired})
	if err == nil {
		t.Fatal("expected an error reordering enum values")
	}
}

func TestDiffExtensionVersionMismatchIsWarningOnly(t *testing.T) {
	current := []database.Extension{{Name: "pgcrypto", Version: "1.2"}}
	desired := []database.Extension{{Name: "pgcrypto", Version: "1.3"}}

	stmts, err := Diff(&database.Schema{Extensions: current}, &database.Schema{Extensions: desired})
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(stmts.PreTable) != 0 {
		t.Fatalf("expected no SQL for a version mismatch, got %v", stmts.PreTable)
	}
	if len(stmts.Warnings) != 1 {
		t.Fatalf("expected a warning, got %v", stmts.Warnings)
	}
}

func TestDiffSequenceSkipsColumnOwned(t *testing.T) {
	current := []database.Sequence{{Name: "users_id_seq", OwnedByTable: "users", OwnedByColumn: "id", Increment: 1}}
	desired := []database.Sequence{{Name: "users_id_seq", OwnedByTable: "users", OwnedByColumn: "id", Increment: 2}}

	stmts, err := Diff(&database.Schema{Sequences: current}, &database.Schema{Sequences: desired})
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(stmts.PreTable) != 0 {
		t.Fatalf("expected column-owned sequences to be skipped, got %v", stmts.PreTable)
	}
}

func TestDiffMaterializedViewAlwaysDropAndCreate(t *testing.T) {
	current := []database.View{{Name: "mv", Definition: "SELECT 1", Materialized: true}}
	desired := []database.View{{Name: "mv", Definition: "SELECT 2", Materialized: true}}

	stmts, err := Diff(&database.Schema{Views: current}, &database.Schema{Views: desired})
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(stmts.PostTable) != 2 {
		t.Fatalf("expected DROP+CREATE, got %v", stmts.PostTable)
	}
	if !strings.Contains(stmts.PostTable[0], "DROP MATERIALIZED VIEW") {
		t.Errorf("expected DROP MATERIALIZED VIEW first, got %s", stmts.PostTable[0])
	}
}

func TestDiffFunctionAlwaysDropCascadeAndCreate(t *testing.T) {
	current := []database.Function{{Name: "fn", ReturnType: "integer", Language: "sql", Body: "SELECT 1"}}
	desired := []database.Function{{Name: "fn", ReturnType: "integer", Language: "sql", Body: "SELECT 2"}}

	stmts, err := Diff(&database.Schema{Functions: current}, &database.Schema{Functions: desired})
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(stmts.PostTable) != 2 {
		t.Fatalf("expected DROP+CREATE, got %v", stmts.PostTable)
	}
	if !strings.Contains(stmts.PostTable[0], "DROP FUNCTION IF EXISTS") || !strings.Contains(stmts.PostTable[0], "CASCADE") {
		t.Errorf("expected DROP FUNCTION ... CASCADE first, got %s", stmts.PostTable[0])
	}
}
