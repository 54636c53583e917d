// Package postgres reads a live PostgreSQL database's catalog and
// reconstructs the database.Schema value spec §4.5 describes.
//
// Grounded on the teacher's live internal/introspect/introspect.go dispatch
// and the dead internal/driver/postgres/driver.go's catalog-join shape
// (isSerialColumn, the RLS query), ported into the live path instead of
// left stranded, then extended to the full catalog contract (constraints,
// indexes, enums, views, functions, sequences, extensions, schemas,
// comments) spec §4.5 requires.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/lockplane/lockplane/database"
	"github.com/lockplane/lockplane/internal/typenorm"
)

// Introspector implements database.Introspector for PostgreSQL.
type Introspector struct{}

// NewIntrospector returns a PostgreSQL catalog introspector.
func NewIntrospector() *Introspector {
	return &Introspector{}
}

// Name reports the engine name.
func (i *Introspector) Name() string { return "postgres" }

// IntrospectSchema reads every entity kind spec §3 defines, restricted to
// the given schema allow-list (defaulting to {"public"} when empty).
func (i *Introspector) IntrospectSchema(ctx context.Context, db *sql.DB, schemas []string) (*database.Schema, error) {
	if len(schemas) == 0 {
		schemas = []string{"public"}
	}

	sch := &database.Schema{}

	tables, err := i.tableNames(ctx, db, schemas)
	if err != nil {
		return nil, err
	}
	for _, tn := range tables {
		table := database.Table{Name: tn.name, Schema: tn.schema}

		cols, err := i.columns(ctx, db, tn.schema, tn.name)
		if err != nil {
			return nil, fmt.Errorf("columns for %s.%s: %w", tn.schema, tn.name, err)
		}
		table.Columns = cols

		pk, err := i.primaryKey(ctx, db, tn.schema, tn.name)
		if err != nil {
			return nil, fmt.Errorf("primary key for %s.%s: %w", tn.schema, tn.name, err)
		}
		table.PrimaryKey = pk
		if pk != nil {
			markPK(table.Columns, pk.Columns)
		}

		fks, err := i.foreignKeys(ctx, db, tn.schema, tn.name)
		if err != nil {
			return nil, fmt.Errorf("foreign keys for %s.%s: %w", tn.schema, tn.name, err)
		}
		table.ForeignKeys = fks

		checks, err := i.checks(ctx, db, tn.schema, tn.name)
		if err != nil {
			return nil, fmt.Errorf("checks for %s.%s: %w", tn.schema, tn.name, err)
		}
		table.Checks = checks

		uniques, err := i.uniques(ctx, db, tn.schema, tn.name)
		if err != nil {
			return nil, fmt.Errorf("uniques for %s.%s: %w", tn.schema, tn.name, err)
		}
		table.Uniques = uniques

		idxs, err := i.indexes(ctx, db, tn.schema, tn.name)
		if err != nil {
			return nil, fmt.Errorf("indexes for %s.%s: %w", tn.schema, tn.name, err)
		}
		table.Indexes = idxs

		sch.Tables = append(sch.Tables, table)
	}

	if sch.Enums, err = i.enums(ctx, db, schemas); err != nil {
		return nil, fmt.Errorf("enums: %w", err)
	}
	if sch.Views, err = i.views(ctx, db, schemas); err != nil {
		return nil, fmt.Errorf("views: %w", err)
	}
	if sch.Functions, err = i.functions(ctx, db, schemas); err != nil {
		return nil, fmt.Errorf("functions: %w", err)
	}
	if sch.Sequences, err = i.sequences(ctx, db, schemas); err != nil {
		return nil, fmt.Errorf("sequences: %w", err)
	}
	if sch.Extensions, err = i.extensions(ctx, db); err != nil {
		return nil, fmt.Errorf("extensions: %w", err)
	}
	if sch.Schemas, err = i.schemaList(ctx, db, schemas); err != nil {
		return nil, fmt.Errorf("schemas: %w", err)
	}
	if sch.Comments, err = i.comments(ctx, db, schemas); err != nil {
		return nil, fmt.Errorf("comments: %w", err)
	}

	return sch, nil
}

func markPK(cols []database.Column, pkCols []string) {
	in := map[string]bool{}
	for _, c := range pkCols {
		in[c] = true
	}
	for i := range cols {
		if in[cols[i].Name] {
			cols[i].IsPrimaryKey = true
		}
	}
}

type tableName struct{ schema, name string }

func inClause(n int, start int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func schemaArgs(schemas []string) []any {
	args := make([]any, len(schemas))
	for i, s := range schemas {
		args[i] = s
	}
	return args
}

func (i *Introspector) tableNames(ctx context.Context, db *sql.DB, schemas []string) ([]tableName, error) {
	query := fmt.Sprintf(`
		SELECT n.nspname, c.relname
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind = 'r'
		  AND n.nspname IN (%s)
		ORDER BY n.nspname, c.relname
	`, inClause(len(schemas), 1))

	rows, err := db.QueryContext(ctx, query, schemaArgs(schemas)...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []tableName
	for rows.Next() {
		var t tableName
		if err := rows.Scan(&t.schema, &t.name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (i *Introspector) columns(ctx context.Context, db *sql.DB, schema, table string) ([]database.Column, error) {
	query := `
		SELECT
			a.attname,
			format_type(a.atttypid, a.atttypmod),
			NOT a.attnotnull,
			pg_get_expr(d.adbin, d.adrelid),
			a.attgenerated,
			a.attidentity
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
		WHERE n.nspname = $1 AND c.relname = $2
		  AND a.attnum > 0 AND NOT a.attisdropped
		ORDER BY a.attnum
	`
	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cols []database.Column
	for rows.Next() {
		var col database.Column
		var rawType string
		var defaultExpr sql.NullString
		var generated, identity string
		if err := rows.Scan(&col.Name, &rawType, &col.Nullable, &defaultExpr, &generated, &identity); err != nil {
			return nil, err
		}

		if generated == "s" {
			expr := strings.TrimSuffix(strings.TrimPrefix(defaultExpr.String, "("), ")")
			col.Generated = &database.Generated{Always: true, Expression: expr, Stored: true}
			cols = append(cols, col)
			continue
		}

		storageType, isSerial := typenorm.IsSerialSource(rawType)
		if isSerial && defaultExpr.Valid && typenorm.IsSerialDefault(defaultExpr.String) {
			col.Type = storageTypeToSerial(storageType)
		} else {
			col.Type = typenorm.NormalizeType(rawType)
			if defaultExpr.Valid {
				col.Default = typenorm.NormalizeDefault(&defaultExpr.String)
			}
		}

		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func storageTypeToSerial(storageType string) string {
	switch strings.ToUpper(storageType) {
	case "SMALLINT":
		return "SMALLSERIAL"
	case "BIGINT":
		return "BIGSERIAL"
	default:
		return "SERIAL"
	}
}

func (i *Introspector) primaryKey(ctx context.Context, db *sql.DB, schema, table string) (*database.PrimaryKey, error) {
	query := `
		SELECT con.conname, a.attname
		FROM pg_constraint con
		JOIN pg_class c ON c.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = k.attnum
		WHERE con.contype = 'p' AND n.nspname = $1 AND c.relname = $2
		ORDER BY k.ord
	`
	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var pk *database.PrimaryKey
	for rows.Next() {
		var name, col string
		if err := rows.Scan(&name, &col); err != nil {
			return nil, err
		}
		if pk == nil {
			pk = &database.PrimaryKey{Name: name}
		}
		pk.Columns = append(pk.Columns, col)
	}
	return pk, rows.Err()
}

func (i *Introspector) foreignKeys(ctx context.Context, db *sql.DB, schema, table string) ([]database.ForeignKey, error) {
	query := `
		SELECT
			con.conname,
			a.attname,
			rn.nspname,
			rc.relname,
			ra.attname,
			con.confupdtype,
			con.confdeltype,
			con.condeferrable,
			con.condeferred,
			k.ord
		FROM pg_constraint con
		JOIN pg_class c ON c.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_class rc ON rc.oid = con.confrelid
		JOIN pg_namespace rn ON rn.oid = rc.relnamespace
		JOIN unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = k.attnum
		JOIN unnest(con.confkey) WITH ORDINALITY AS rk(attnum, ord) ON rk.ord = k.ord
		JOIN pg_attribute ra ON ra.attrelid = rc.oid AND ra.attnum = rk.attnum
		WHERE con.contype = 'f' AND n.nspname = $1 AND c.relname = $2
		ORDER BY con.conname, k.ord
	`
	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	byName := map[string]*database.ForeignKey{}
	var order []string
	for rows.Next() {
		var name, col, refSchema, refTable, refCol, onUpdate, onDelete string
		var deferrable, deferred bool
		var ord int
		if err := rows.Scan(&name, &col, &refSchema, &refTable, &refCol, &onUpdate, &onDelete, &deferrable, &deferred, &ord); err != nil {
			return nil, err
		}
		fk, exists := byName[name]
		if !exists {
			fk = &database.ForeignKey{
				Name:              name,
				ReferencedSchema:  refSchema,
				ReferencedTable:   refTable,
				OnUpdate:          fkActionFromChar(onUpdate),
				OnDelete:          fkActionFromChar(onDelete),
				Deferrable:        deferrable,
				InitiallyDeferred: deferred,
			}
			byName[name] = fk
			order = append(order, name)
		}
		fk.Columns = append(fk.Columns, col)
		fk.ReferencedColumns = append(fk.ReferencedColumns, refCol)
	}
	var out []database.ForeignKey
	for _, n := range order {
		out = append(out, *byName[n])
	}
	return out, rows.Err()
}

func fkActionFromChar(c string) database.FKAction {
	switch c {
	case "r":
		return database.FKRestrict
	case "c":
		return database.FKCascade
	case "n":
		return database.FKSetNull
	case "d":
		return database.FKSetDefault
	default:
		return database.FKNoAction
	}
}

func (i *Introspector) checks(ctx context.Context, db *sql.DB, schema, table string) ([]database.Check, error) {
	query := `
		SELECT con.conname, pg_get_expr(con.conbin, con.conrelid)
		FROM pg_constraint con
		JOIN pg_class c ON c.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE con.contype = 'c' AND n.nspname = $1 AND c.relname = $2
		ORDER BY con.conname
	`
	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []database.Check
	for rows.Next() {
		var ch database.Check
		if err := rows.Scan(&ch.Name, &ch.Expression); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (i *Introspector) uniques(ctx context.Context, db *sql.DB, schema, table string) ([]database.Unique, error) {
	query := `
		SELECT con.conname, a.attname, con.condeferrable, con.condeferred
		FROM pg_constraint con
		JOIN pg_class c ON c.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = k.attnum
		WHERE con.contype = 'u' AND n.nspname = $1 AND c.relname = $2
		ORDER BY con.conname, k.ord
	`
	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	byName := map[string]*database.Unique{}
	var order []string
	for rows.Next() {
		var name, col string
		var deferrable, deferred bool
		if err := rows.Scan(&name, &col, &deferrable, &deferred); err != nil {
			return nil, err
		}
		u, exists := byName[name]
		if !exists {
			u = &database.Unique{Name: name, Deferrable: deferrable, InitiallyDeferred: deferred}
			byName[name] = u
			order = append(order, name)
		}
		u.Columns = append(u.Columns, col)
	}
	var out []database.Unique
	for _, n := range order {
		out = append(out, *byName[n])
	}
	return out, rows.Err()
}

// indexes returns every index on table except the primary-key index,
// including unique-constraint-backed ones tagged via BackingConstraint so the
// table differ can exclude them from standalone index management.
func (i *Introspector) indexes(ctx context.Context, db *sql.DB, schema, table string) ([]database.Index, error) {
	query := `
		SELECT
			ic.relname,
			ix.indisunique,
			am.amname,
			pg_get_expr(ix.indpred, ix.indrelid),
			pg_get_expr(ix.indexprs, ix.indrelid),
			ts.spcname,
			con.conname
		FROM pg_index ix
		JOIN pg_class ic ON ic.oid = ix.indexrelid
		JOIN pg_class tc ON tc.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = tc.relnamespace
		JOIN pg_am am ON am.oid = ic.relam
		LEFT JOIN pg_tablespace ts ON ts.oid = ic.reltablespace
		LEFT JOIN pg_constraint con ON con.conindid = ix.indexrelid
		WHERE n.nspname = $1 AND tc.relname = $2 AND ix.indisprimary = false
		ORDER BY ic.relname
	`
	rows, err := db.QueryContext(ctx, query, schema, table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []database.Index
	for rows.Next() {
		var idx database.Index
		var method string
		var where, expr, tablespace, backing sql.NullString
		if err := rows.Scan(&idx.Name, &idx.Unique, &method, &where, &expr, &tablespace, &backing); err != nil {
			return nil, err
		}
		idx.Table = table
		idx.Schema = schema
		idx.Method = database.IndexMethod(method)
		if where.Valid {
			idx.Where = where.String
		}
		if expr.Valid {
			idx.Expression = expr.String
		}
		if tablespace.Valid {
			idx.Tablespace = tablespace.String
		}
		if backing.Valid {
			idx.BackingConstraint = backing.String
		}

		cols, opClasses, sorts, err := i.indexColumns(ctx, db, schema, idx.Name)
		if err != nil {
			return nil, err
		}
		idx.Columns = cols
		idx.OpClasses = opClasses
		idx.SortOrders = sorts

		out = append(out, idx)
	}
	return out, rows.Err()
}

func (i *Introspector) indexColumns(ctx context.Context, db *sql.DB, schema, indexName string) ([]string, map[string]string, map[string]string, error) {
	query := `
		SELECT a.attname, opc.opcname, opc.opcdefault, ix.indoption[k.ord - 1]
		FROM pg_index ix
		JOIN pg_class ic ON ic.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = ic.relnamespace
		JOIN unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
		LEFT JOIN pg_attribute a ON a.attrelid = ix.indrelid AND a.attnum = k.attnum
		LEFT JOIN pg_opclass opc ON opc.oid = ix.indclass[k.ord - 1]
		WHERE n.nspname = $1 AND ic.relname = $2
		ORDER BY k.ord
	`
	rows, err := db.QueryContext(ctx, query, schema, indexName)
	if err != nil {
		return nil, nil, nil, err
	}
	defer func() { _ = rows.Close() }()

	var cols []string
	opClasses := map[string]string{}
	sorts := map[string]string{}
	for rows.Next() {
		var col, opClass sql.NullString
		var opcDefault sql.NullBool
		var indoption int
		if err := rows.Scan(&col, &opClass, &opcDefault, &indoption); err != nil {
			return nil, nil, nil, err
		}
		name := col.String
		if name == "" {
			// Expression index column: indkey entry is 0.
			continue
		}
		cols = append(cols, name)
		// opcdefault is PostgreSQL's own record of whether this operator
		// class is the type's implicit default; only a non-default
		// opclass needs to round-trip (an implicit default is never
		// written into CREATE INDEX and so never appears on the Desired
		// side to compare against).
		if opClass.Valid && opcDefault.Valid && !opcDefault.Bool {
			opClasses[name] = opClass.String
		}
		if indoption&1 != 0 {
			sorts[name] = "DESC"
		}
	}
	return cols, opClasses, sorts, rows.Err()
}

func (i *Introspector) enums(ctx context.Context, db *sql.DB, schemas []string) ([]database.EnumType, error) {
	query := fmt.Sprintf(`
		SELECT n.nspname, t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_namespace n ON n.oid = t.typnamespace
		JOIN pg_enum e ON e.enumtypid = t.oid
		WHERE n.nspname IN (%s)
		ORDER BY n.nspname, t.typname, e.enumsortorder
	`, inClause(len(schemas), 1))
	rows, err := db.QueryContext(ctx, query, schemaArgs(schemas)...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	byName := map[string]*database.EnumType{}
	var order []string
	for rows.Next() {
		var schemaName, typeName, label string
		if err := rows.Scan(&schemaName, &typeName, &label); err != nil {
			return nil, err
		}
		key := schemaName + "." + typeName
		e, exists := byName[key]
		if !exists {
			e = &database.EnumType{Name: typeName, Schema: schemaName}
			byName[key] = e
			order = append(order, key)
		}
		e.Values = append(e.Values, label)
	}
	var out []database.EnumType
	for _, k := range order {
		out = append(out, *byName[k])
	}
	return out, rows.Err()
}

func (i *Introspector) views(ctx context.Context, db *sql.DB, schemas []string) ([]database.View, error) {
	query := fmt.Sprintf(`
		SELECT n.nspname, c.relname, pg_get_viewdef(c.oid, true), c.relkind = 'm'
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind IN ('v', 'm') AND n.nspname IN (%s)
		ORDER BY n.nspname, c.relname
	`, inClause(len(schemas), 1))
	rows, err := db.QueryContext(ctx, query, schemaArgs(schemas)...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []database.View
	for rows.Next() {
		var v database.View
		if err := rows.Scan(&v.Schema, &v.Name, &v.Definition, &v.Materialized); err != nil {
			return nil, err
		}
		v.Definition = strings.TrimSuffix(strings.TrimSpace(v.Definition), ";")
		out = append(out, v)
	}
	return out, rows.Err()
}

func (i *Introspector) functions(ctx context.Context, db *sql.DB, schemas []string) ([]database.Function, error) {
	query := fmt.Sprintf(`
		SELECT
			n.nspname, p.proname,
			pg_get_function_result(p.oid),
			l.lanname,
			p.prosrc,
			p.provolatile,
			p.prosecdef,
			p.proisstrict,
			p.procost,
			p.prorows,
			p.proparallel
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		JOIN pg_language l ON l.oid = p.prolang
		WHERE n.nspname IN (%s) AND p.prokind = 'f'
		ORDER BY n.nspname, p.proname
	`, inClause(len(schemas), 1))
	rows, err := db.QueryContext(ctx, query, schemaArgs(schemas)...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []database.Function
	for rows.Next() {
		var f database.Function
		var volatility, parallel string
		var cost, fnRows float64
		if err := rows.Scan(&f.Schema, &f.Name, &f.ReturnType, &f.Language, &f.Body, &volatility, &f.SecurityDefiner, &f.Strict, &cost, &fnRows, &parallel); err != nil {
			return nil, err
		}
		f.Volatility = volatilityName(volatility)
		f.Parallel = parallelName(parallel)
		f.Cost = &cost
		f.Rows = &fnRows

		params, err := i.functionParams(ctx, db, f.Schema, f.Name)
		if err != nil {
			return nil, err
		}
		f.Params = params

		out = append(out, f)
	}
	return out, rows.Err()
}

func volatilityName(c string) string {
	switch c {
	case "i":
		return "IMMUTABLE"
	case "s":
		return "STABLE"
	default:
		return "VOLATILE"
	}
}

func parallelName(c string) string {
	switch c {
	case "s":
		return "SAFE"
	case "r":
		return "RESTRICTED"
	default:
		return "UNSAFE"
	}
}

// functionParams reads a function's argument list via pg_get_function_arguments,
// which renders names, modes, types, and defaults as PostgreSQL itself would
// display them, sidestepping manual parsing of the proargtypes/proargmodes
// array catalog columns.
func (i *Introspector) functionParams(ctx context.Context, db *sql.DB, schema, name string) ([]database.FunctionParam, error) {
	query := `
		SELECT pg_get_function_arguments(p.oid)
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		WHERE n.nspname = $1 AND p.proname = $2
		LIMIT 1
	`
	var argList string
	if err := db.QueryRowContext(ctx, query, schema, name).Scan(&argList); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return parseFunctionArgList(argList), nil
}

// parseFunctionArgList splits PostgreSQL's rendered "name type DEFAULT x,
// ..." argument list, splitting only on commas outside parentheses so a
// type such as numeric(10,2) stays in one argument.
func parseFunctionArgList(argList string) []database.FunctionParam {
	argList = strings.TrimSpace(argList)
	if argList == "" {
		return nil
	}
	parts := splitTopLevelComma(argList)
	var out []database.FunctionParam
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p := database.FunctionParam{Mode: "IN"}
		for _, mode := range []string{"IN OUT", "INOUT", "VARIADIC", "OUT", "IN"} {
			if strings.HasPrefix(part, mode+" ") {
				p.Mode = strings.TrimSuffix(mode, " ")
				if mode == "IN OUT" {
					p.Mode = "INOUT"
				}
				part = strings.TrimSpace(strings.TrimPrefix(part, mode))
				break
			}
		}
		if idx := strings.Index(part, " DEFAULT "); idx >= 0 {
			def := strings.TrimSpace(part[idx+len(" DEFAULT "):])
			p.Default = &def
			part = strings.TrimSpace(part[:idx])
		}
		fields := strings.SplitN(part, " ", 2)
		if len(fields) == 2 {
			p.Name = fields[0]
			p.Type = strings.TrimSpace(fields[1])
		} else {
			p.Type = part
		}
		out = append(out, p)
	}
	return out
}

func splitTopLevelComma(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func (i *Introspector) sequences(ctx context.Context, db *sql.DB, schemas []string) ([]database.Sequence, error) {
	query := fmt.Sprintf(`
		SELECT
			n.nspname, c.relname,
			s.seqtypid::regtype::text,
			s.seqincrement, s.seqmin, s.seqmax, s.seqstart, s.seqcache, s.seqcycle,
			owner_c.relname, owner_a.attname
		FROM pg_sequence s
		JOIN pg_class c ON c.oid = s.seqrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_depend dep ON dep.objid = c.oid AND dep.deptype = 'a'
		LEFT JOIN pg_class owner_c ON owner_c.oid = dep.refobjid
		LEFT JOIN pg_attribute owner_a ON owner_a.attrelid = dep.refobjid AND owner_a.attnum = dep.refobjsubid
		WHERE n.nspname IN (%s)
		ORDER BY n.nspname, c.relname
	`, inClause(len(schemas), 1))
	rows, err := db.QueryContext(ctx, query, schemaArgs(schemas)...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []database.Sequence
	for rows.Next() {
		var s database.Sequence
		var ownerTable, ownerColumn sql.NullString
		if err := rows.Scan(&s.Schema, &s.Name, &s.DataType, &s.Increment, &s.MinValue, &s.MaxValue, &s.Start, &s.Cache, &s.Cycle, &ownerTable, &ownerColumn); err != nil {
			return nil, err
		}
		if ownerTable.Valid {
			s.OwnedByTable = ownerTable.String
		}
		if ownerColumn.Valid {
			s.OwnedByColumn = ownerColumn.String
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (i *Introspector) extensions(ctx context.Context, db *sql.DB) ([]database.Extension, error) {
	query := `
		SELECT e.extname, n.nspname, e.extversion
		FROM pg_extension e
		JOIN pg_namespace n ON n.oid = e.extnamespace
		ORDER BY e.extname
	`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []database.Extension
	for rows.Next() {
		var e database.Extension
		if err := rows.Scan(&e.Name, &e.Schema, &e.Version); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (i *Introspector) schemaList(ctx context.Context, db *sql.DB, schemas []string) ([]database.SchemaDef, error) {
	query := fmt.Sprintf(`
		SELECT nspname FROM pg_namespace WHERE nspname IN (%s) ORDER BY nspname
	`, inClause(len(schemas), 1))
	rows, err := db.QueryContext(ctx, query, schemaArgs(schemas)...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []database.SchemaDef
	for rows.Next() {
		var s database.SchemaDef
		if err := rows.Scan(&s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (i *Introspector) comments(ctx context.Context, db *sql.DB, schemas []string) ([]database.Comment, error) {
	query := fmt.Sprintf(`
		SELECT 'TABLE', n.nspname || '.' || c.relname, d.description
		FROM pg_description d
		JOIN pg_class c ON c.oid = d.objoid AND d.objsubid = 0
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind = 'r' AND n.nspname IN (%s)
		UNION ALL
		SELECT 'COLUMN', n.nspname || '.' || c.relname || '.' || a.attname, d.description
		FROM pg_description d
		JOIN pg_class c ON c.oid = d.objoid AND d.objsubid = a.attnum
		JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = d.objsubid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind = 'r' AND n.nspname IN (%s)
		ORDER BY 2
	`, inClause(len(schemas), 1), inClause(len(schemas), 1+len(schemas)))
	args := append(schemaArgs(schemas), schemaArgs(schemas)...)
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []database.Comment
	for rows.Next() {
		var c database.Comment
		if err := rows.Scan(&c.ObjectType, &c.ObjectName, &c.Text); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ObjectName < out[b].ObjectName })
	return out, rows.Err()
}
