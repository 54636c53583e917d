// Package planner defines the Migration Plan bundle the differ produces and
// the executor consumes (spec §6): a partitioned, ordered sequence of SQL
// statements split between transactional, concurrent, and deferred phases.
package planner

// Plan is the differ's sole output: a partitioned, ordered sequence of SQL
// statements. It never mutates the database itself — only the (external)
// executor opens connections or transactions.
type Plan struct {
	// Transactional statements run inside one wrapping transaction;
	// rollback on any failure.
	Transactional []string `json:"transactional"`

	// Concurrent statements (CREATE/DROP INDEX CONCURRENTLY) run outside
	// any transaction, one at a time; failure aborts the remainder.
	Concurrent []string `json:"concurrent"`

	// Deferred statements close FK cycles after all tables exist; run in
	// one transaction after the transactional phase commits.
	Deferred []string `json:"deferred"`

	// HasChanges is false only when Transactional, Concurrent, and
	// Deferred are all empty.
	HasChanges bool `json:"has_changes"`
}

// ExecutionResult tracks the outcome of executing a plan, reported back by
// the (external) executor.
type ExecutionResult struct {
	Success      bool     `json:"success"`
	Phase        string   `json:"phase,omitempty"`
	Applied      int      `json:"applied"`
	FailedStatement string `json:"failed_statement,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}
