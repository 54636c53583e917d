// Grounded on the live planner.go's GeneratePlan/GeneratePlanWithHash entry
// point shape: a single function taking a diff and returning a Plan. The
// internals are new — the teacher's Plan was a flat, sequentially-applied
// []PlanStep; this orchestrates internal/schema's table differ and
// internal/entities' object differ into the three-phase Plan spec §4.8
// requires.
package planner

import (
	"github.com/lockplane/lockplane/database"
	"github.com/lockplane/lockplane/internal/entities"
	"github.com/lockplane/lockplane/internal/schema"
)

// Generate produces a Plan that reconciles current into desired: every
// table, enum, view, function, sequence, extension, schema, and comment
// difference, partitioned into transactional/concurrent/deferred phases.
func Generate(current, desired *database.Schema) (*Plan, error) {
	tableStmts, err := schema.DiffTables(current.Tables, desired.Tables)
	if err != nil {
		return nil, err
	}
	entityStmts, err := entities.Diff(current, desired)
	if err != nil {
		return nil, err
	}

	// PreTable entities (schemas, enums, extensions, sequences) run before
	// table statements since columns may reference them; PostTable entities
	// (functions, views, comments) run after since they may reference tables.
	transactional := append([]string(nil), entityStmts.PreTable...)
	transactional = append(transactional, tableStmts.Transactional...)
	transactional = append(transactional, entityStmts.PostTable...)

	plan := &Plan{
		Transactional: transactional,
		Concurrent:    tableStmts.Concurrent,
		Deferred:      tableStmts.Deferred,
	}
	plan.HasChanges = len(plan.Transactional) > 0 || len(plan.Concurrent) > 0 || len(plan.Deferred) > 0
	return plan, nil
}
