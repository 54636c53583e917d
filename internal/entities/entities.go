// Package entities diffs the non-table objects of a schema: enums, views,
// functions, sequences, extensions, schemas (namespaces), and comments.
//
// Grounded on the teacher's diffTables/diffColumns key-then-compare idiom
// (internal/schema/diff.go): key both sides by (schema, name), then walk
// dropped/added/common keys and emit one of three operations per key.
package entities

import (
	"fmt"
	"sort"

	"github.com/lockplane/lockplane/database"
	"github.com/lockplane/lockplane/internal/exprcmp"
	"github.com/lockplane/lockplane/internal/sqlbuild"
)

// Statements is the SQL this package produces, pre-classified the way the
// table differ classifies its own output: almost everything here is
// transactional. Functions and enums never use CONCURRENTLY, so there is
// no concurrent bucket.
//
// It is further split into PreTable and PostTable so the planner can place
// table statements between them: schemas/enums/extensions/sequences never
// depend on a table existing (and a table's columns may depend on an enum
// type), while functions, views, and comments routinely reference tables
// (and each other) by name and must run after tables are created.
type Statements struct {
	PreTable  []string
	PostTable []string
	// Warnings are non-fatal notices (e.g. extension version mismatch)
	// that don't produce SQL but should reach the operator.
	Warnings []string
}

func key(schema, name string) string {
	if schema == "" {
		schema = "public"
	}
	return schema + "." + name
}

// The sortedXKeys helpers return a map's keys in sorted order, so the
// map-keyed diffs below emit statements in a deterministic order run to
// run instead of following Go's randomized map iteration.

func sortedEnumKeys(m map[string]database.EnumType) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedExtensionKeys(m map[string]database.Extension) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSequenceKeys(m map[string]database.Sequence) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedViewKeys(m map[string]database.View) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedFunctionKeys(m map[string]database.Function) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Diff reconciles every non-table entity kind between current and desired.
// Returns an error only for fatal conditions (enum value removal/reorder);
// everything else degrades to a warning or a DROP+CREATE.
func Diff(current, desired *database.Schema) (*Statements, error) {
	out := &Statements{}

	if err := diffEnums(current.Enums, desired.Enums, out); err != nil {
		return nil, err
	}
	diffSchemas(current.Schemas, desired.Schemas, out)
	diffExtensions(current.Extensions, desired.Extensions, out)
	diffSequences(current.Sequences, desired.Sequences, current.Tables, out)

	// Functions before views: a view's SELECT may call a function being
	// created in this same plan.
	diffFunctions(current.Functions, desired.Functions, out)
	diffViews(current.Views, desired.Views, out)
	// Comments last: COMMENT ON can target a table, view, or function,
	// all of which must already exist.
	diffComments(current.Comments, desired.Comments, out)

	return out, nil
}

// --- schemas (namespaces) ---

func diffSchemas(current, desired []database.SchemaDef, out *Statements) {
	cur := map[string]bool{}
	for _, s := range current {
		cur[s.Name] = true
	}
	des := map[string]bool{}
	for _, s := range desired {
		des[s.Name] = true
	}
	names := make([]string, 0, len(des))
	for name := range des {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name == "public" || cur[name] {
			continue
		}
		w := sqlbuild.New().Phrase("CREATE SCHEMA").Identifier(name)
		out.PreTable = append(out.PreTable, w.Build())
	}
	// Dropping an unused schema is deliberately not automatic: a schema
	// can hold objects lockplane doesn't track, so only CREATE is emitted.
}

// --- enums ---

func diffEnums(current, desired []database.EnumType, out *Statements) error {
	curByKey := map[string]database.EnumType{}
	for _, e := range current {
		curByKey[key(e.Schema, e.Name)] = e
	}
	desByKey := map[string]database.EnumType{}
	for _, e := range desired {
		desByKey[key(e.Schema, e.Name)] = e
	}

	for _, k := range sortedEnumKeys(desByKey) {
		d := desByKey[k]
		c, exists := curByKey[k]
		if !exists {
			w := sqlbuild.New().Phrase("CREATE TYPE").QualifiedTable(d.Schema, d.Name).Phrase("AS ENUM (")
			for i, v := range d.Values {
				if i > 0 {
					w.Comma()
				}
				w.Phrase(sqlbuild.QuoteLiteral(v))
			}
			w.Phrase(")")
			out.PreTable = append(out.PreTable, w.Build())
			continue
		}

		// A desired enum must be a superset-in-order of the current
		// values: every current value must still appear, in the same
		// relative order. Anything else (removal, reorder) can't be
		// expressed as an ALTER TYPE ... ADD VALUE and is fatal.
		if err := requireTailAppend(c, d); err != nil {
			return err
		}
		existing := map[string]bool{}
		for _, v := range c.Values {
			existing[v] = true
		}
		for i, v := range d.Values {
			if existing[v] {
				continue
			}
			w := sqlbuild.New().Phrase("ALTER TYPE").QualifiedTable(d.Schema, d.Name).
				Phrase("ADD VALUE").Phrase(sqlbuild.QuoteLiteral(v))
			if i > 0 {
				w.Phrase("AFTER").Phrase(sqlbuild.QuoteLiteral(d.Values[i-1]))
			}
			out.PreTable = append(out.PreTable, w.Build())
		}
	}

	for _, k := range sortedEnumKeys(curByKey) {
		c := curByKey[k]
		if _, exists := desByKey[k]; !exists {
			w := sqlbuild.New().Phrase("DROP TYPE").QualifiedTable(c.Schema, c.Name)
			out.PreTable = append(out.PreTable, w.Build())
		}
	}
	return nil
}

// requireTailAppend checks that current's values appear, in order, as a
// subsequence that is never reordered or dropped in desired.
func requireTailAppend(current, desired database.EnumType) error {
	desIndex := map[string]int{}
	for i, v := range desired.Values {
		desIndex[v] = i
	}
	lastPos := -1
	for _, v := range current.Values {
		pos, ok := desIndex[v]
		if !ok {
			return fmt.Errorf("enum %q: value %q was removed; lockplane cannot drop enum values in place", current.Name, v)
		}
		if pos < lastPos {
			return fmt.Errorf("enum %q: value %q was reordered; lockplane cannot reorder enum values in place", current.Name, v)
		}
		lastPos = pos
	}
	return nil
}

// --- extensions ---

func diffExtensions(current, desired []database.Extension, out *Statements) {
	curByKey := map[string]database.Extension{}
	for _, e := range current {
		curByKey[e.Name] = e
	}
	desByKey := map[string]database.Extension{}
	for _, e := range desired {
		desByKey[e.Name] = e
	}

	for _, name := range sortedExtensionKeys(desByKey) {
		d := desByKey[name]
		c, exists := curByKey[name]
		if !exists {
			w := sqlbuild.New().Phrase("CREATE EXTENSION IF NOT EXISTS").Identifier(d.Name)
			if d.Schema != "" {
				w.Phrase("SCHEMA").Identifier(d.Schema)
			}
			if d.Version != "" {
				w.Phrase("VERSION").Phrase(sqlbuild.QuoteLiteral(d.Version))
			}
			out.PreTable = append(out.PreTable, w.Build())
			continue
		}
		if d.Version != "" && c.Version != "" && d.Version != c.Version {
			out.Warnings = append(out.Warnings, fmt.Sprintf(
				"extension %q: installed version %q differs from desired %q; lockplane does not alter extension versions automatically", name, c.Version, d.Version))
		}
	}

	for _, name := range sortedExtensionKeys(curByKey) {
		if _, exists := desByKey[name]; !exists {
			w := sqlbuild.New().Phrase("DROP EXTENSION IF EXISTS").Identifier(name)
			out.PreTable = append(out.PreTable, w.Build())
		}
	}
}

// --- sequences ---

// diffSequences skips any sequence owned by a column (SERIAL-backed):
// those are managed implicitly by the table differ's column type/default
// handling, never directly.
func diffSequences(current, desired []database.Sequence, tables []database.Table, out *Statements) {
	owned := map[string]bool{}
	for _, s := range current {
		if s.OwnedByTable != "" && s.OwnedByColumn != "" {
			owned[key(s.Schema, s.Name)] = true
		}
	}
	for _, s := range desired {
		if s.OwnedByTable != "" && s.OwnedByColumn != "" {
			owned[key(s.Schema, s.Name)] = true
		}
	}

	curByKey := map[string]database.Sequence{}
	for _, s := range current {
		curByKey[key(s.Schema, s.Name)] = s
	}
	desByKey := map[string]database.Sequence{}
	for _, s := range desired {
		desByKey[key(s.Schema, s.Name)] = s
	}

	for _, k := range sortedSequenceKeys(desByKey) {
		if owned[k] {
			continue
		}
		d := desByKey[k]
		c, exists := curByKey[k]
		if !exists {
			out.PreTable = append(out.PreTable, buildSequence(d, "CREATE SEQUENCE"))
			continue
		}
		if sequenceChanged(c, d) {
			out.PreTable = append(out.PreTable, buildSequenceAlter(d))
		}
	}
	for _, k := range sortedSequenceKeys(curByKey) {
		if owned[k] {
			continue
		}
		c := curByKey[k]
		if _, exists := desByKey[k]; !exists {
			w := sqlbuild.New().Phrase("DROP SEQUENCE").QualifiedTable(c.Schema, c.Name)
			out.PreTable = append(out.PreTable, w.Build())
		}
	}
}

func buildSequence(s database.Sequence, verb string) string {
	w := sqlbuild.New().Phrase(verb).QualifiedTable(s.Schema, s.Name)
	appendSequenceOptions(w, s)
	return w.Build()
}

func buildSequenceAlter(s database.Sequence) string {
	w := sqlbuild.New().Phrase("ALTER SEQUENCE").QualifiedTable(s.Schema, s.Name)
	appendSequenceOptions(w, s)
	return w.Build()
}

func appendSequenceOptions(w *sqlbuild.Builder, s database.Sequence) {
	if s.DataType != "" {
		w.Phrase("AS").Phrase(s.DataType)
	}
	if s.Increment != 0 {
		w.Phrase(fmt.Sprintf("INCREMENT BY %d", s.Increment))
	}
	if s.MinValue != nil {
		w.Phrase(fmt.Sprintf("MINVALUE %d", *s.MinValue))
	}
	if s.MaxValue != nil {
		w.Phrase(fmt.Sprintf("MAXVALUE %d", *s.MaxValue))
	}
	if s.Start != 0 {
		w.Phrase(fmt.Sprintf("START WITH %d", s.Start))
	}
	if s.Cache != 0 {
		w.Phrase(fmt.Sprintf("CACHE %d", s.Cache))
	}
	if s.Cycle {
		w.Phrase("CYCLE")
	} else {
		w.Phrase("NO CYCLE")
	}
}

func sequenceChanged(a, b database.Sequence) bool {
	return a.DataType != b.DataType ||
		a.Increment != b.Increment ||
		intPtrDiffer(a.MinValue, b.MinValue) ||
		intPtrDiffer(a.MaxValue, b.MaxValue) ||
		a.Start != b.Start ||
		a.Cache != b.Cache ||
		a.Cycle != b.Cycle
}

func intPtrDiffer(a, b *int64) bool {
	if (a == nil) != (b == nil) {
		return true
	}
	if a == nil {
		return false
	}
	return *a != *b
}

// --- views ---

// diffViews always emits DROP+CREATE for materialized views (no CREATE OR
// REPLACE for matviews in PostgreSQL) and CREATE OR REPLACE for ordinary
// views. Column lists are not compared, so an ordinary-view change that
// CREATE OR REPLACE cannot apply (a dropped or renamed column) is still
// emitted as CREATE OR REPLACE, not DROP+CREATE.
func diffViews(current, desired []database.View, out *Statements) {
	curByKey := map[string]database.View{}
	for _, v := range current {
		curByKey[key(v.Schema, v.Name)] = v
	}
	desByKey := map[string]database.View{}
	for _, v := range desired {
		desByKey[key(v.Schema, v.Name)] = v
	}

	for _, k := range sortedViewKeys(desByKey) {
		d := desByKey[k]
		c, exists := curByKey[k]
		if !exists {
			out.PostTable = append(out.PostTable, createView(d))
			continue
		}
		if viewEqual(c, d) {
			continue
		}
		if d.Materialized || c.Materialized {
			out.PostTable = append(out.PostTable, dropView(c))
			out.PostTable = append(out.PostTable, createView(d))
			continue
		}
		out.PostTable = append(out.PostTable, createOrReplaceView(d))
	}
	for _, k := range sortedViewKeys(curByKey) {
		c := curByKey[k]
		if _, exists := desByKey[k]; !exists {
			out.PostTable = append(out.PostTable, dropView(c))
		}
	}
}

func viewEqual(a, b database.View) bool {
	if a.Materialized != b.Materialized || a.CheckOption != b.CheckOption || a.SecurityBarrier != b.SecurityBarrier {
		return false
	}
	return exprcmp.Equal(a.Definition, b.Definition)
}

func createView(v database.View) string {
	w := sqlbuild.New().Phrase("CREATE")
	if v.Materialized {
		w.Phrase("MATERIALIZED")
	}
	w.Phrase("VIEW").QualifiedTable(v.Schema, v.Name)
	appendViewOptions(w, v)
	w.Phrase("AS").Phrase(v.Definition)
	if v.CheckOption != "" && !v.Materialized {
		w.Phrase(fmt.Sprintf("WITH %s CHECK OPTION", v.CheckOption))
	}
	return w.Build()
}

func createOrReplaceView(v database.View) string {
	w := sqlbuild.New().Phrase("CREATE OR REPLACE VIEW").QualifiedTable(v.Schema, v.Name)
	appendViewOptions(w, v)
	w.Phrase("AS").Phrase(v.Definition)
	if v.CheckOption != "" {
		w.Phrase(fmt.Sprintf("WITH %s CHECK OPTION", v.CheckOption))
	}
	return w.Build()
}

func appendViewOptions(w *sqlbuild.Builder, v database.View) {
	if v.SecurityBarrier {
		w.Phrase("WITH (security_barrier = true)")
	}
}

func dropView(v database.View) string {
	w := sqlbuild.New().Phrase("DROP")
	if v.Materialized {
		w.Phrase("MATERIALIZED")
	}
	w.Phrase("VIEW").QualifiedTable(v.Schema, v.Name)
	return w.Build()
}

// --- functions ---

// diffFunctions always does DROP CASCADE + CREATE on any change: PostgreSQL
// allows CREATE OR REPLACE FUNCTION only when the argument list and names
// are identical, and return-type changes are always rejected outright.
func diffFunctions(current, desired []database.Function, out *Statements) {
	curByKey := map[string]database.Function{}
	for _, f := range current {
		curByKey[key(f.Schema, f.Name)+functionSignature(f)] = f
	}
	desByKey := map[string]database.Function{}
	for _, f := range desired {
		desByKey[key(f.Schema, f.Name)+functionSignature(f)] = f
	}

	for _, k := range sortedFunctionKeys(desByKey) {
		d := desByKey[k]
		c, exists := curByKey[k]
		if !exists {
			out.PostTable = append(out.PostTable, createFunction(d))
			continue
		}
		if functionEqual(c, d) {
			continue
		}
		out.PostTable = append(out.PostTable, dropFunction(c))
		out.PostTable = append(out.PostTable, createFunction(d))
	}
	for _, k := range sortedFunctionKeys(curByKey) {
		c := curByKey[k]
		if _, exists := desByKey[k]; !exists {
			out.PostTable = append(out.PostTable, dropFunction(c))
		}
	}
}

func functionSignature(f database.Function) string {
	s := ""
	for _, p := range f.Params {
		s += "," + p.Type
	}
	return s
}

func functionEqual(a, b database.Function) bool {
	return a.ReturnType == b.ReturnType &&
		a.Language == b.Language &&
		exprcmp.Equal(normalizeBody(a.Body), normalizeBody(b.Body)) &&
		a.Volatility == b.Volatility &&
		a.SecurityDefiner == b.SecurityDefiner &&
		a.Strict == b.Strict
}

// normalizeBody returns the body unchanged. exprcmp expects a WHERE-clause
// fragment, not an arbitrary function body; when a body does not parse as
// one, exprcmp.Equal falls back to a whitespace-normalized text compare.
func normalizeBody(s string) string {
	return s
}

func createFunction(f database.Function) string {
	w := sqlbuild.New().Phrase("CREATE OR REPLACE FUNCTION").QualifiedTable(f.Schema, f.Name).Phrase("(")
	for i, p := range f.Params {
		if i > 0 {
			w.Comma()
		}
		if p.Mode != "" && p.Mode != "IN" {
			w.Phrase(p.Mode)
		}
		if p.Name != "" {
			w.Phrase(p.Name)
		}
		w.Phrase(p.Type)
		if p.Default != nil {
			w.Phrase("DEFAULT").Phrase(*p.Default)
		}
	}
	w.Phrase(")")
	w.Phrase("RETURNS").Phrase(f.ReturnType)
	w.Phrase("LANGUAGE").Phrase(f.Language)
	if f.Volatility != "" {
		w.Phrase(f.Volatility)
	}
	if f.Strict {
		w.Phrase("STRICT")
	}
	if f.SecurityDefiner {
		w.Phrase("SECURITY DEFINER")
	}
	if f.Parallel != "" {
		w.Phrase("PARALLEL").Phrase(f.Parallel)
	}
	if f.Cost != nil {
		w.Phrase(fmt.Sprintf("COST %g", *f.Cost))
	}
	if f.Rows != nil {
		w.Phrase(fmt.Sprintf("ROWS %g", *f.Rows))
	}
	w.Phrase("AS").Phrase(sqlbuild.QuoteDollar(f.Body))
	return w.Build()
}

func dropFunction(f database.Function) string {
	w := sqlbuild.New().Phrase("DROP FUNCTION IF EXISTS").QualifiedTable(f.Schema, f.Name).Phrase("(")
	for i, p := range f.Params {
		if i > 0 {
			w.Comma()
		}
		w.Phrase(p.Type)
	}
	w.Phrase(") CASCADE")
	return w.Build()
}

// --- comments ---

func diffComments(current, desired []database.Comment, out *Statements) {
	curByKey := map[string]database.Comment{}
	for _, c := range current {
		curByKey[c.ObjectType+"|"+c.ObjectName] = c
	}
	desByKey := map[string]database.Comment{}
	for _, c := range desired {
		desByKey[c.ObjectType+"|"+c.ObjectName] = c
	}

	keys := make([]string, 0, len(desByKey))
	for k := range desByKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		d := desByKey[k]
		c, exists := curByKey[k]
		if exists && c.Text == d.Text {
			continue
		}
		out.PostTable = append(out.PostTable, commentStatement(d.ObjectType, d.ObjectName, &d.Text))
	}

	dropKeys := make([]string, 0, len(curByKey))
	for k := range curByKey {
		dropKeys = append(dropKeys, k)
	}
	sort.Strings(dropKeys)

	for _, k := range dropKeys {
		c := curByKey[k]
		if _, exists := desByKey[k]; !exists {
			out.PostTable = append(out.PostTable, commentStatement(c.ObjectType, c.ObjectName, nil))
		}
	}
}

func commentStatement(objectType, objectName string, text *string) string {
	w := sqlbuild.New().Phrase("COMMENT ON").Phrase(objectType).Phrase(objectName).Phrase("IS")
	if text == nil {
		w.Phrase("NULL")
	} else {
		w.Phrase(sqlbuild.QuoteLiteral(*text))
	}
	return w.Build()
}
