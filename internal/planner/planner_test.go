package planner

import (
	"strings"
	"testing"

	"github.com/lockplane/lockplane/database"
)

func TestGenerateNoChanges(t *testing.T) {
	sch := &database.Schema{Tables: []database.Table{{Name: "users", Columns: []database.Column{{Name: "id", Type: "integer"}}}}}

	plan, err := Generate(sch, sch)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if plan.HasChanges {
		t.Fatalf("expected no changes diffing a schema against itself, got %+v", plan)
	}
}

func TestGenerateOrdersEnumsBeforeTables(t *testing.T) {
	current := &database.Schema{}
	desired := &database.Schema{
		Enums: []database.EnumType{{Name: "status", Values: []string{"active", "archived"}}},
		Tables: []database.Table{{
			Name:    "widgets",
			Columns: []database.Column{{Name: "status", Type: "status"}},
		}},
	}

	plan, err := Generate(current, desired)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !plan.HasChanges {
		t.Fatal("expected changes")
	}
	enumPos := indexOfSubstring(plan.Transactional, "CREATE TYPE")
	tablePos := indexOfSubstring(plan.Transactional, "CREATE TABLE")
	if enumPos < 0 || tablePos < 0 || enumPos > tablePos {
		t.Fatalf("expected enum creation before table creation, got %v", plan.Transactional)
	}
}

func indexOfSubstring(stmts []string, substr string) int {
	for i, s := range stmts {
		if strings.Contains(s, substr) {
			return i
		}
	}
	return -1
}
