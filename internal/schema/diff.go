// Package schema differs the Current and Desired table sets of spec §4.8:
// per-table column/constraint/index reconciliation assembled into batched
// ALTER TABLE statements, plus cycle-aware handling of whole new or dropped
// tables via internal/depgraph.
//
// Grounded on the teacher's diffTables/diffColumns key-then-compare idiom;
// the column-and-constraint action-priority ordering and USING-clause
// handling are new, built from the spec's algorithm description since the
// teacher's generator emitted one statement per action with no batching.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lockplane/lockplane/database"
	"github.com/lockplane/lockplane/internal/depgraph"
	"github.com/lockplane/lockplane/internal/exprcmp"
	"github.com/lockplane/lockplane/internal/sqlbuild"
	"github.com/lockplane/lockplane/internal/typenorm"
)

// Statements is the SQL the table differ produces, already split the way
// the planner's three phases require.
type Statements struct {
	Transactional []string
	Concurrent    []string
	Deferred      []string
}

// action is one item of a batched ALTER TABLE: a priority bucket (lower
// runs first) and the clause text to append after "ALTER TABLE <table>".
type action struct {
	priority int
	clause   string
}

// Priority buckets per spec §4.8: drops before adds, widened before
// narrowed, so that a column can be both retyped and reconstrained in one
// statement without ever violating an intermediate constraint.
const (
	prioDropFK      = 0
	prioDropUnique  = 1
	prioDropCheck   = 2
	prioDropPK      = 3
	prioDropColumn  = 4
	// prioDropDefaultForType runs before the type change itself: the old
	// default's literal may not be castable to the new column type.
	prioDropDefaultForType = 9
	prioAlterType          = 10
	prioSetDefault  = 11
	prioDropDefault = 12
	prioSetNotNull  = 13
	prioDropNotNull = 14
	prioAddColumn   = 20
	prioAddPK       = 21
	prioAddCheck    = 22
	prioAddUnique   = 23
	prioAddFK       = 24
)

// DiffTables reconciles current against desired, handling brand-new and
// dropped tables (cycle-aware, via depgraph) and, for tables present on
// both sides, per-table column/constraint/index changes.
func DiffTables(current, desired []database.Table) (*Statements, error) {
	out := &Statements{}

	curByKey := map[string]database.Table{}
	for _, t := range current {
		curByKey[tableKey(t)] = t
	}
	desByKey := map[string]database.Table{}
	for _, t := range desired {
		desByKey[tableKey(t)] = t
	}

	var newTables, droppedTables []database.Table
	for k, t := range desByKey {
		if _, exists := curByKey[k]; !exists {
			newTables = append(newTables, t)
		}
	}
	for k, t := range curByKey {
		if _, exists := desByKey[k]; !exists {
			droppedTables = append(droppedTables, t)
		}
	}

	if err := diffNewTables(newTables, out); err != nil {
		return nil, err
	}
	if err := diffDroppedTables(droppedTables, out); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(desByKey))
	for k := range desByKey {
		if _, existed := curByKey[k]; existed {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := diffTable(curByKey[k], desByKey[k], out); err != nil {
			return nil, fmt.Errorf("table %q: %w", k, err)
		}
	}

	return out, nil
}

func tableKey(t database.Table) string {
	s := t.SchemaName()
	return s + "." + t.Name
}

// --- whole-table creation / deletion (cycle-aware) ---

func diffNewTables(tables []database.Table, out *Statements) error {
	if len(tables) == 0 {
		return nil
	}
	names := make([]string, 0, len(tables))
	byName := map[string]database.Table{}
	var edges []depgraph.Edge
	for _, t := range tables {
		names = append(names, tableKey(t))
		byName[tableKey(t)] = t
	}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			ref := fk.ReferencedSchema
			if ref == "" {
				ref = "public"
			}
			refKey := ref + "." + fk.ReferencedTable
			if _, ok := byName[refKey]; !ok {
				// Referenced table isn't among the new set (e.g. it
				// already exists); no ordering edge needed among new
				// tables, and the FK itself is emitted inline.
				continue
			}
			edges = append(edges, depgraph.Edge{Table: tableKey(t), References: refKey, FK: fk.Name})
		}
	}
	sort.Strings(names)

	g := depgraph.New(names, edges)
	result := g.CreationOrderWithDetachment()

	deferredFKNames := map[string]bool{}
	for _, e := range result.DeferredFKs {
		deferredFKNames[e.Table+"|"+e.FK] = true
	}

	for _, name := range result.Order {
		t := byName[name]
		stmt, deferredFKClauses := createTableStatement(t, deferredFKNames)
		out.Transactional = append(out.Transactional, stmt)
		out.Concurrent = append(out.Concurrent, standaloneIndexStatements(t)...)
		out.Deferred = append(out.Deferred, deferredFKClauses...)
	}
	return nil
}

func diffDroppedTables(tables []database.Table, out *Statements) error {
	if len(tables) == 0 {
		return nil
	}
	names := make([]string, 0, len(tables))
	byName := map[string]database.Table{}
	var edges []depgraph.Edge
	for _, t := range tables {
		names = append(names, tableKey(t))
		byName[tableKey(t)] = t
	}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			ref := fk.ReferencedSchema
			if ref == "" {
				ref = "public"
			}
			refKey := ref + "." + fk.ReferencedTable
			if _, ok := byName[refKey]; !ok {
				continue
			}
			edges = append(edges, depgraph.Edge{Table: tableKey(t), References: refKey, FK: fk.Name})
		}
	}
	sort.Strings(names)

	g := depgraph.New(names, edges)
	result := g.DeletionOrderWithDetachment()

	for _, e := range result.DeferredFKs {
		t := byName[e.Table]
		out.Deferred = append(out.Deferred, dropFKClause(t, e.FK))
	}
	for _, name := range result.Order {
		t := byName[name]
		w := sqlbuild.New().Phrase("DROP TABLE").QualifiedTable(t.SchemaName(), t.Name)
		out.Transactional = append(out.Transactional, w.Build())
	}
	return nil
}

func dropFKClause(t database.Table, fkName string) string {
	w := sqlbuild.New().Phrase("ALTER TABLE").QualifiedTable(t.SchemaName(), t.Name).
		Phrase("DROP CONSTRAINT").Identifier(fkName)
	return w.Build()
}

func createTableStatement(t database.Table, deferredFKNames map[string]bool) (string, []string) {
	w := sqlbuild.New().Phrase("CREATE TABLE").QualifiedTable(t.SchemaName(), t.Name).Phrase("(")
	w.IndentIn()
	first := true
	writeSep := func() {
		if !first {
			w.Comma()
		}
		first = false
		w.Newline()
	}

	for _, c := range t.Columns {
		writeSep()
		appendColumnDef(w, c)
	}
	if t.PrimaryKey != nil && len(t.PrimaryKey.Columns) > 0 {
		writeSep()
		appendPrimaryKeyClause(w, t, *t.PrimaryKey)
	}
	for _, u := range t.Uniques {
		writeSep()
		appendUniqueClause(w, t, u)
	}
	for _, c := range t.Checks {
		writeSep()
		appendCheckClause(w, t, c)
	}

	var deferred []string
	for _, fk := range t.ForeignKeys {
		if deferredFKNames[tableKey(t)+"|"+fk.Name] {
			deferred = append(deferred, addFKClause(t, fk))
			continue
		}
		writeSep()
		appendFKClause(w, t, fk)
	}

	w.IndentOut()
	w.Newline()
	w.Phrase(")")
	return w.Build(), deferred
}

func addFKClause(t database.Table, fk database.ForeignKey) string {
	w := sqlbuild.New().Phrase("ALTER TABLE").QualifiedTable(t.SchemaName(), t.Name).Phrase("ADD")
	appendFKClause(w, t, fk)
	return w.Build()
}

// standaloneIndexStatements emits CREATE INDEX for every index on a
// brand-new table that isn't constraint-backed. These run CONCURRENTLY
// like any other standalone index; CONCURRENTLY is legal here because the
// table itself was just created in the transactional phase, which has
// already committed by the time the concurrent phase runs.
func standaloneIndexStatements(t database.Table) []string {
	var out []string
	for _, idx := range t.Indexes {
		if idx.BackingConstraint != "" {
			continue
		}
		out = append(out, createIndexStatement(t, idx))
	}
	return out
}

func appendColumnDef(w *sqlbuild.Builder, c database.Column) {
	// NormalizeType upper-cases (varchar(255) -> VARCHAR(255)); emitted DDL
	// is internally consistent but differs in case from spec §8's literal
	// seed-scenario text.
	w.Identifier(c.Name).Phrase(typenorm.NormalizeType(c.Type))
	if c.Generated != nil {
		w.Phrase("GENERATED")
		if c.Generated.Always {
			w.Phrase("ALWAYS")
		} else {
			w.Phrase("BY DEFAULT")
		}
		w.Phrase("AS").Phrase("(" + c.Generated.Expression + ")")
		if c.Generated.Stored {
			w.Phrase("STORED")
		}
		return
	}
	if !c.Nullable {
		w.Phrase("NOT NULL")
	}
	if c.Default != nil {
		w.Phrase("DEFAULT").Phrase(*c.Default)
	}
}

func appendPrimaryKeyClause(w *sqlbuild.Builder, t database.Table, pk database.PrimaryKey) {
	name := pk.Name
	if name == "" {
		name = t.Name + "_pkey"
	}
	w.Phrase("CONSTRAINT").Identifier(name).Phrase("PRIMARY KEY (")
	appendColumnList(w, pk.Columns)
	w.Phrase(")")
}

func appendUniqueClause(w *sqlbuild.Builder, t database.Table, u database.Unique) {
	name := u.Name
	if name == "" {
		name = uniqueName(t.Name, u.Columns)
	}
	w.Phrase("CONSTRAINT").Identifier(name).Phrase("UNIQUE (")
	appendColumnList(w, u.Columns)
	w.Phrase(")")
	appendDeferrable(w, u.Deferrable, u.InitiallyDeferred)
}

func appendCheckClause(w *sqlbuild.Builder, t database.Table, c database.Check) {
	name := c.Name
	if name == "" {
		name = t.Name + "_check"
	}
	w.Phrase("CONSTRAINT").Identifier(name).Phrase("CHECK (" + c.Expression + ")")
}

func appendFKClause(w *sqlbuild.Builder, t database.Table, fk database.ForeignKey) {
	name := fk.Name
	if name == "" {
		name = fmt.Sprintf("fk_%s_%s", t.Name, fk.ReferencedTable)
	}
	w.Phrase("CONSTRAINT").Identifier(name).Phrase("FOREIGN KEY (")
	appendColumnList(w, fk.Columns)
	w.Phrase(")").Phrase("REFERENCES").QualifiedTable(fk.ReferencedSchema, fk.ReferencedTable).Phrase("(")
	appendColumnList(w, fk.ReferencedColumns)
	w.Phrase(")")
	if fk.OnDelete != "" && fk.OnDelete != database.FKNoAction {
		w.Phrase("ON DELETE").Phrase(string(fk.OnDelete))
	}
	if fk.OnUpdate != "" && fk.OnUpdate != database.FKNoAction {
		w.Phrase("ON UPDATE").Phrase(string(fk.OnUpdate))
	}
	appendDeferrable(w, fk.Deferrable, fk.InitiallyDeferred)
}

func appendDeferrable(w *sqlbuild.Builder, deferrable, initiallyDeferred bool) {
	if !deferrable {
		return
	}
	w.Phrase("DEFERRABLE")
	if initiallyDeferred {
		w.Phrase("INITIALLY DEFERRED")
	}
}

func appendColumnList(w *sqlbuild.Builder, cols []string) {
	for i, c := range cols {
		if i > 0 {
			w.Comma()
		}
		w.Identifier(c)
	}
}

func uniqueName(table string, cols []string) string {
	return fmt.Sprintf("%s_%s_unique", table, strings.Join(cols, "_"))
}

func createIndexStatement(t database.Table, idx database.Index) string {
	w := sqlbuild.New().Phrase("CREATE")
	if idx.Unique {
		w.Phrase("UNIQUE")
	}
	w.Phrase("INDEX CONCURRENTLY").Identifier(idx.Name).Phrase("ON").QualifiedTable(t.SchemaName(), t.Name)
	if idx.Method != "" && idx.Method != database.IndexBtree {
		w.Phrase("USING").Phrase(string(idx.Method))
	}
	w.Phrase("(")
	if idx.Expression != "" {
		w.Phrase("(" + idx.Expression + ")")
	} else {
		for i, c := range idx.Columns {
			if i > 0 {
				w.Comma()
			}
			w.Identifier(c)
			if op, ok := idx.OpClasses[c]; ok && op != "" {
				w.Phrase(op)
			}
			if sortOrder, ok := idx.SortOrders[c]; ok && sortOrder == "DESC" {
				w.Phrase("DESC")
			}
		}
	}
	w.Phrase(")")
	for _, k := range sortedKeys(idx.Storage) {
		w.Phrase(fmt.Sprintf("WITH (%s = %s)", k, idx.Storage[k]))
	}
	if idx.Tablespace != "" {
		w.Phrase("TABLESPACE").Identifier(idx.Tablespace)
	}
	if idx.Where != "" {
		w.Phrase("WHERE").Phrase(idx.Where)
	}
	return w.Build()
}

func dropIndexStatement(schema, name string) string {
	w := sqlbuild.New().Phrase("DROP INDEX CONCURRENTLY").QualifiedTable(schema, name)
	return w.Build()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- per-table reconciliation for tables present on both sides ---

func diffTable(current, desired database.Table, out *Statements) error {
	var actions []action

	actions = append(actions, diffColumns(current, desired)...)
	actions = append(actions, diffPrimaryKey(current, desired)...)
	actions = append(actions, diffUniques(current, desired)...)
	actions = append(actions, diffChecks(current, desired)...)
	actions = append(actions, diffForeignKeys(current, desired)...)

	if len(actions) > 0 {
		sort.SliceStable(actions, func(i, j int) bool { return actions[i].priority < actions[j].priority })
		out.Transactional = append(out.Transactional, assembleAlterTable(desired, actions))
	}

	diffIndexes(current, desired, out)
	return nil
}

func assembleAlterTable(t database.Table, actions []action) string {
	w := sqlbuild.New().Phrase("ALTER TABLE").QualifiedTable(t.SchemaName(), t.Name)
	w.IndentIn()
	for i, a := range actions {
		if i > 0 {
			w.Comma()
		}
		w.Newline()
		w.Phrase(a.clause)
	}
	w.IndentOut()
	return w.Build()
}

func diffColumns(current, desired database.Table) []action {
	var actions []action
	curByName := map[string]database.Column{}
	for _, c := range current.Columns {
		curByName[c.Name] = c
	}
	desByName := map[string]database.Column{}
	for _, c := range desired.Columns {
		desByName[c.Name] = c
	}

	names := make([]string, 0, len(desByName))
	for n := range desByName {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		d := desByName[name]
		c, exists := curByName[name]
		if !exists {
			actions = append(actions, action{prioAddColumn, addColumnClause(d)})
			continue
		}
		actions = append(actions, diffColumn(c, d)...)
	}

	var dropped []string
	for n := range curByName {
		if _, exists := desByName[n]; !exists {
			dropped = append(dropped, n)
		}
	}
	sort.Strings(dropped)
	for _, name := range dropped {
		actions = append(actions, action{prioDropColumn, "DROP COLUMN " + sqlbuild.QuoteIdentifier(name)})
	}
	return actions
}

func addColumnClause(c database.Column) string {
	w := sqlbuild.New().Phrase("ADD COLUMN")
	appendColumnDef(w, c)
	return w.BuildNoSemicolon()
}

func diffColumn(current, desired database.Column) []action {
	var actions []action

	// A change to the generated-expression or generated-kind can't be
	// expressed via ALTER COLUMN; PostgreSQL requires dropping and
	// re-adding the column.
	if generatedChanged(current.Generated, desired.Generated) {
		actions = append(actions,
			action{prioDropColumn, "DROP COLUMN " + sqlbuild.QuoteIdentifier(current.Name)},
			action{prioAddColumn, addColumnClause(desired)},
		)
		return actions
	}
	if desired.Generated != nil {
		// Neither type nor default is independently alterable on a
		// generated column once its expression is unchanged.
		return actions
	}

	curType := typenorm.NormalizeType(current.Type)
	desType := typenorm.NormalizeType(desired.Type)
	typeChanged := curType != desType

	if typeChanged && current.Default != nil {
		// The existing default's literal may not cast to the new type
		// (e.g. varchar '0' -> numeric): drop it before the ALTER TYPE
		// runs, then re-set it (if still wanted) below.
		clause := fmt.Sprintf("ALTER COLUMN %s DROP DEFAULT", sqlbuild.QuoteIdentifier(desired.Name))
		actions = append(actions, action{prioDropDefaultForType, clause})
	}
	if typeChanged {
		clause := fmt.Sprintf("ALTER COLUMN %s TYPE %s USING %s",
			sqlbuild.QuoteIdentifier(desired.Name), desType, typeChangeUsingExpr(desired.Name, desType))
		actions = append(actions, action{prioAlterType, clause})
	}

	if typeChanged && current.Default != nil {
		if desired.Default != nil {
			clause := fmt.Sprintf("ALTER COLUMN %s SET DEFAULT %s", sqlbuild.QuoteIdentifier(desired.Name), *desired.Default)
			actions = append(actions, action{prioSetDefault, clause})
		}
	} else if !typenorm.EqualDefaults(current.Default, desired.Default) {
		if desired.Default == nil {
			clause := fmt.Sprintf("ALTER COLUMN %s DROP DEFAULT", sqlbuild.QuoteIdentifier(desired.Name))
			actions = append(actions, action{prioDropDefault, clause})
		} else {
			clause := fmt.Sprintf("ALTER COLUMN %s SET DEFAULT %s", sqlbuild.QuoteIdentifier(desired.Name), *desired.Default)
			actions = append(actions, action{prioSetDefault, clause})
		}
	}

	if current.Nullable != desired.Nullable {
		if desired.Nullable {
			clause := fmt.Sprintf("ALTER COLUMN %s DROP NOT NULL", sqlbuild.QuoteIdentifier(desired.Name))
			actions = append(actions, action{prioDropNotNull, clause})
		} else {
			clause := fmt.Sprintf("ALTER COLUMN %s SET NOT NULL", sqlbuild.QuoteIdentifier(desired.Name))
			actions = append(actions, action{prioSetNotNull, clause})
		}
	}

	return actions
}

// typeChangeUsingExpr builds the USING clause for an ALTER COLUMN ... TYPE
// change. A plain cast fails for text-shaped columns holding values that
// aren't directly castable (e.g. "3.50" into an integer column, or "yes"
// into boolean), so integer and boolean targets route through an
// intermediate conversion per spec §4.8.
func typeChangeUsingExpr(column, targetType string) string {
	quoted := sqlbuild.QuoteIdentifier(column)
	switch targetType {
	case "INT2", "INT4", "INT8":
		return fmt.Sprintf("TRUNC(%s::DECIMAL)::%s", quoted, targetType)
	case "BOOLEAN":
		return fmt.Sprintf("TRIM(%s)::%s", quoted, targetType)
	default:
		return fmt.Sprintf("%s::%s", quoted, targetType)
	}
}

func generatedChanged(a, b *database.Generated) bool {
	if (a == nil) != (b == nil) {
		return true
	}
	if a == nil {
		return false
	}
	return a.Always != b.Always || a.Stored != b.Stored || !exprcmp.Equal(a.Expression, b.Expression)
}

func diffPrimaryKey(current, desired database.Table) []action {
	var actions []action
	c, d := current.PrimaryKey, desired.PrimaryKey
	if pkEqual(c, d) {
		return nil
	}
	if c != nil {
		name := c.Name
		if name == "" {
			name = current.Name + "_pkey"
		}
		actions = append(actions, action{prioDropPK, "DROP CONSTRAINT " + sqlbuild.QuoteIdentifier(name)})
	}
	if d != nil {
		w := sqlbuild.New()
		w.Phrase("ADD")
		appendPrimaryKeyClause(w, desired, *d)
		actions = append(actions, action{prioAddPK, w.BuildNoSemicolon()})
	}
	return actions
}

func pkEqual(a, b *database.PrimaryKey) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return stringsEqual(a.Columns, b.Columns)
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func diffUniques(current, desired database.Table) []action {
	var actions []action
	curByKey := map[string]database.Unique{}
	for _, u := range current.Uniques {
		curByKey[sortedColKey(u.Columns)] = u
	}
	desByKey := map[string]database.Unique{}
	for _, u := range desired.Uniques {
		desByKey[sortedColKey(u.Columns)] = u
	}

	for _, k := range sortedStringKeys(desByKey) {
		d := desByKey[k]
		c, exists := curByKey[k]
		if exists && c.Deferrable == d.Deferrable && c.InitiallyDeferred == d.InitiallyDeferred {
			continue
		}
		if exists {
			name := c.Name
			if name == "" {
				name = uniqueName(current.Name, c.Columns)
			}
			actions = append(actions, action{prioDropUnique, "DROP CONSTRAINT " + sqlbuild.QuoteIdentifier(name)})
		}
		w := sqlbuild.New().Phrase("ADD")
		appendUniqueClause(w, desired, d)
		actions = append(actions, action{prioAddUnique, w.BuildNoSemicolon()})
	}
	for k, c := range curByKey {
		if _, exists := desByKey[k]; !exists {
			name := c.Name
			if name == "" {
				name = uniqueName(current.Name, c.Columns)
			}
			actions = append(actions, action{prioDropUnique, "DROP CONSTRAINT " + sqlbuild.QuoteIdentifier(name)})
		}
	}
	return actions
}

func sortedColKey(cols []string) string {
	c := append([]string(nil), cols...)
	sort.Strings(c)
	return strings.Join(c, ",")
}

func sortedStringKeys(m map[string]database.Unique) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func diffChecks(current, desired database.Table) []action {
	var actions []action
	// Checks have no other distinguishing key than their expression, so a
	// rename-only change is indistinguishable from drop-one/add-another;
	// per spec §9 we always express a check change as DROP+ADD.
	curUsed := make([]bool, len(current.Checks))

	for _, d := range desired.Checks {
		matched := false
		for i, c := range current.Checks {
			if curUsed[i] {
				continue
			}
			if exprcmp.Equal(c.Expression, d.Expression) {
				curUsed[i] = true
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		w := sqlbuild.New().Phrase("ADD")
		appendCheckClause(w, desired, d)
		actions = append(actions, action{prioAddCheck, w.BuildNoSemicolon()})
	}
	for i, c := range current.Checks {
		if curUsed[i] {
			continue
		}
		name := c.Name
		if name == "" {
			name = current.Name + "_check"
		}
		actions = append(actions, action{prioDropCheck, "DROP CONSTRAINT " + sqlbuild.QuoteIdentifier(name)})
	}
	return actions
}

func diffForeignKeys(current, desired database.Table) []action {
	var actions []action
	curUsed := make([]bool, len(current.ForeignKeys))

	desCols := map[string]bool{}
	for _, c := range desired.Columns {
		desCols[c.Name] = true
	}
	// PostgreSQL auto-drops an FK when one of its local columns is
	// dropped; emitting our own DROP CONSTRAINT for it as well would
	// fail against a column that no longer exists.
	fkLosingColumn := func(fk database.ForeignKey) bool {
		for _, col := range fk.Columns {
			if !desCols[col] {
				return true
			}
		}
		return false
	}

	matchByName := func(name string) int {
		if name == "" {
			return -1
		}
		for i, c := range current.ForeignKeys {
			if !curUsed[i] && c.Name == name {
				return i
			}
		}
		return -1
	}
	matchByStructure := func(d database.ForeignKey) int {
		for i, c := range current.ForeignKeys {
			if curUsed[i] {
				continue
			}
			if stringsEqual(c.Columns, d.Columns) &&
				c.ReferencedTable == d.ReferencedTable &&
				stringsEqual(c.ReferencedColumns, d.ReferencedColumns) {
				return i
			}
		}
		return -1
	}

	for _, d := range desired.ForeignKeys {
		idx := matchByName(d.Name)
		if idx < 0 {
			idx = matchByStructure(d)
		}
		if idx < 0 {
			w := sqlbuild.New().Phrase("ADD")
			appendFKClause(w, desired, d)
			actions = append(actions, action{prioAddFK, w.BuildNoSemicolon()})
			continue
		}
		curUsed[idx] = true
		c := current.ForeignKeys[idx]
		if fkEqual(c, d) {
			continue
		}
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("fk_%s_%s", current.Name, c.ReferencedTable)
		}
		actions = append(actions, action{prioDropFK, "DROP CONSTRAINT " + sqlbuild.QuoteIdentifier(name)})
		w := sqlbuild.New().Phrase("ADD")
		appendFKClause(w, desired, d)
		actions = append(actions, action{prioAddFK, w.BuildNoSemicolon()})
	}
	for i, c := range current.ForeignKeys {
		if curUsed[i] || fkLosingColumn(c) {
			continue
		}
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("fk_%s_%s", current.Name, c.ReferencedTable)
		}
		actions = append(actions, action{prioDropFK, "DROP CONSTRAINT " + sqlbuild.QuoteIdentifier(name)})
	}
	return actions
}

func fkEqual(a, b database.ForeignKey) bool {
	onDeleteA, onDeleteB := a.OnDelete, b.OnDelete
	if onDeleteA == "" {
		onDeleteA = database.FKNoAction
	}
	if onDeleteB == "" {
		onDeleteB = database.FKNoAction
	}
	onUpdateA, onUpdateB := a.OnUpdate, b.OnUpdate
	if onUpdateA == "" {
		onUpdateA = database.FKNoAction
	}
	if onUpdateB == "" {
		onUpdateB = database.FKNoAction
	}
	return stringsEqual(a.Columns, b.Columns) &&
		a.ReferencedTable == b.ReferencedTable &&
		stringsEqual(a.ReferencedColumns, b.ReferencedColumns) &&
		onDeleteA == onDeleteB && onUpdateA == onUpdateB &&
		a.Deferrable == b.Deferrable && a.InitiallyDeferred == b.InitiallyDeferred
}

func diffIndexes(current, desired database.Table, out *Statements) {
	curByName := map[string]database.Index{}
	for _, i := range current.Indexes {
		if i.BackingConstraint == "" {
			curByName[i.Name] = i
		}
	}
	desByName := map[string]database.Index{}
	for _, i := range desired.Indexes {
		if i.BackingConstraint == "" {
			desByName[i.Name] = i
		}
	}

	names := make([]string, 0, len(desByName))
	for n := range desByName {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, name := range names {
		d := desByName[name]
		c, exists := curByName[name]
		if !exists {
			out.Concurrent = append(out.Concurrent, createIndexStatement(desired, d))
			continue
		}
		if indexEqual(c, d) {
			continue
		}
		out.Transactional = append(out.Transactional, dropIndexNonConcurrent(current.SchemaName(), name))
		out.Transactional = append(out.Transactional, createIndexNonConcurrent(desired, d))
	}
	var dropped []string
	for n := range curByName {
		if _, exists := desByName[n]; !exists {
			dropped = append(dropped, n)
		}
	}
	sort.Strings(dropped)
	for _, name := range dropped {
		out.Concurrent = append(out.Concurrent, dropIndexStatement(current.SchemaName(), name))
	}
}

func indexEqual(a, b database.Index) bool {
	am, bm := a.Method, b.Method
	if am == "" {
		am = database.IndexBtree
	}
	if bm == "" {
		bm = database.IndexBtree
	}
	if am != bm {
		return false
	}
	if a.Unique != b.Unique {
		return false
	}
	if !stringsEqual(a.Columns, b.Columns) {
		return false
	}
	if !mapEqual(a.SortOrders, b.SortOrders) || !mapEqual(a.OpClasses, b.OpClasses) || !mapEqual(a.Storage, b.Storage) {
		return false
	}
	if a.Tablespace != b.Tablespace {
		return false
	}
	if !exprcmp.EqualOptional(a.Where, b.Where) {
		return false
	}
	if !exprcmp.EqualOptional(a.Expression, b.Expression) {
		return false
	}
	return true
}

func mapEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// dropIndexNonConcurrent/createIndexNonConcurrent are used for a modified
// index inside the transactional phase: the old index must go away in the
// same transaction the new one is built, so CONCURRENTLY (which cannot run
// inside a transaction block) is not an option.
func dropIndexNonConcurrent(schema, name string) string {
	return sqlbuild.New().Phrase("DROP INDEX").QualifiedTable(schema, name).Build()
}

func createIndexNonConcurrent(t database.Table, idx database.Index) string {
	stmt := createIndexStatement(t, idx)
	return strings.Replace(stmt, "INDEX CONCURRENTLY", "INDEX", 1)
}
