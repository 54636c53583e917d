// Package parser provides SQL DDL parsing utilities for lockplane.
//
// This package uses pg_query to parse PostgreSQL DDL statements and extract
// schema information including tables, columns, indexes, constraints,
// enums, views, functions, sequences, extensions, schemas, and comments
// into the Desired Schema Model (spec §4.4).
//
// The parser is tolerant: unknown statement kinds are skipped with a
// warning recorded via diagnostic, and per-statement parse failures do not
// abort the batch. User-written identifiers and expression text are
// preserved verbatim so the differ's normalizer (internal/typenorm) can be
// applied consistently to both the Desired and Current models.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lockplane/lockplane/database"
	"github.com/lockplane/lockplane/diagnostic"
	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Regex-based extractors for simple DDL with unquoted identifiers. They are
// not used for parsing user-authored DDL, and no other package in this
// module calls them.

func ExtractTableNameFromCreate(sql string) (string, error) {
	re := regexp.MustCompile(`CREATE\s+TABLE\s+(\w+)`)
	matches := re.FindStringSubmatch(sql)
	if len(matches) < 2 {
		return "", fmt.Errorf("could not extract table name from: %s", sql)
	}
	return matches[1], nil
}

func ExtractTableNameFromDrop(sql string) (string, error) {
	re := regexp.MustCompile(`DROP\s+TABLE\s+(\w+)`)
	matches := re.FindStringSubmatch(sql)
	if len(matches) < 2 {
		return "", fmt.Errorf("could not extract table name from: %s", sql)
	}
	return matches[1], nil
}

func ExtractTableNameFromAlter(sql string) (string, error) {
	re := regexp.MustCompile(`ALTER\s+TABLE\s+(\w+)`)
	matches := re.FindStringSubmatch(sql)
	if len(matches) < 2 {
		return "", fmt.Errorf("could not extract table name from: %s", sql)
	}
	return matches[1], nil
}

func ExtractIndexNameFromCreate(sql string) (string, error) {
	re := regexp.MustCompile(`CREATE\s+(UNIQUE\s+)?INDEX\s+(CONCURRENTLY\s+)?(\w+)\s+ON`)
	matches := re.FindStringSubmatch(sql)
	if len(matches) < 4 {
		return "", fmt.Errorf("could not extract index name from: %s", sql)
	}
	return matches[3], nil
}

func ExtractIndexNameFromDrop(sql string) (string, error) {
	re := regexp.MustCompile(`DROP\s+INDEX\s+(CONCURRENTLY\s+)?(\w+)`)
	matches := re.FindStringSubmatch(sql)
	if len(matches) < 3 {
		return "", fmt.Errorf("could not extract index name from: %s", sql)
	}
	return matches[2], nil
}

// ContainsSQL is a case-insensitive substring check.
func ContainsSQL(sql, substr string) bool {
	return strings.Contains(strings.ToUpper(sql), strings.ToUpper(substr))
}

func findTable(schema *database.Schema, name string) *database.Table {
	for i := range schema.Tables {
		if schema.Tables[i].Name == name {
			return &schema.Tables[i]
		}
	}
	return nil
}

func findColumnIndex(table *database.Table, columnName string) int {
	for i := range table.Columns {
		if table.Columns[i].Name == columnName {
			return i
		}
	}
	return -1
}

// ParseSQLSchema parses a multi-statement DDL text into a Desired Schema
// Model. Per-statement failures are recorded as warnings via diag (if
// non-nil) and the offending statement is skipped; the function itself
// only errors if the text cannot be parsed into a statement list at all.
func ParseSQLSchema(sql string, diag *diagnostic.Collector) (*database.Schema, error) {
	var tree *pg_query.ParseResult
	var err error
	if diag != nil {
		tree, err = diagnostic.NewErrorRecoveryParser(diag).Parse(sql)
	} else {
		tree, err = pg_query.Parse(sql)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse SQL: %w", err)
	}

	schema := &database.Schema{}

	for _, stmt := range tree.Stmts {
		if stmt.Stmt == nil {
			continue
		}

		if err := applyStatement(schema, stmt.Stmt); err != nil {
			if diag != nil {
				diag.AddWarning(diagnostic.Range{}, "W001", err.Error())
			}
			// Per-statement parse/apply failures do not abort the batch.
			continue
		}
	}

	return schema, nil
}

func applyStatement(schema *database.Schema, node *pg_query.Node) error {
	switch n := node.Node.(type) {
	case *pg_query.Node_CreateStmt:
		table, err := parseCreateTable(n.CreateStmt)
		if err != nil {
			return fmt.Errorf("CREATE TABLE: %w", err)
		}
		schema.Tables = append(schema.Tables, *table)

	case *pg_query.Node_IndexStmt:
		if err := parseCreateIndex(schema, n.IndexStmt); err != nil {
			return fmt.Errorf("CREATE INDEX: %w", err)
		}

	case *pg_query.Node_AlterTableStmt:
		if err := parseAlterTable(schema, n.AlterTableStmt); err != nil {
			return fmt.Errorf("ALTER TABLE: %w", err)
		}

	case *pg_query.Node_CreateEnumStmt:
		schema.Enums = append(schema.Enums, parseCreateEnum(n.CreateEnumStmt))

	case *pg_query.Node_ViewStmt:
		v, err := parseCreateView(n.ViewStmt)
		if err != nil {
			return fmt.Errorf("CREATE VIEW: %w", err)
		}
		schema.Views = append(schema.Views, *v)

	case *pg_query.Node_CreateTableAsStmt:
		v, ok := parseCreateMaterializedView(n.CreateTableAsStmt)
		if ok {
			schema.Views = append(schema.Views, *v)
		}

	case *pg_query.Node_CreateFunctionStmt:
		fn, err := parseCreateFunction(n.CreateFunctionStmt)
		if err != nil {
			return fmt.Errorf("CREATE FUNCTION: %w", err)
		}
		schema.Functions = append(schema.Functions, *fn)

	case *pg_query.Node_CreateSeqStmt:
		schema.Sequences = append(schema.Sequences, parseCreateSequence(n.CreateSeqStmt))

	case *pg_query.Node_CreateExtensionStmt:
		schema.Extensions = append(schema.Extensions, parseCreateExtension(n.CreateExtensionStmt))

	case *pg_query.Node_CreateSchemaStmt:
		if n.CreateSchemaStmt.Schemaname != "" {
			schema.Schemas = append(schema.Schemas, database.SchemaDef{Name: n.CreateSchemaStmt.Schemaname})
		}

	case *pg_query.Node_CommentStmt:
		schema.Comments = append(schema.Comments, parseComment(n.CommentStmt))

	case *pg_query.Node_CreateTrigStmt, *pg_query.Node_CreateFdwStmt:
		// Recognized-but-not-modeled-yet: tolerated silently.

	default:
		return fmt.Errorf("unsupported statement kind, skipped")
	}

	return nil
}

// --- CREATE TABLE ---

func parseCreateTable(stmt *pg_query.CreateStmt) (*database.Table, error) {
	if stmt.Relation == nil {
		return nil, fmt.Errorf("CREATE TABLE missing relation")
	}

	table := &database.Table{
		Name:   stmt.Relation.Relname,
		Schema: stmt.Relation.Schemaname,
	}

	var pkColumns []string

	for _, elt := range stmt.TableElts {
		if elt.Node == nil {
			continue
		}

		switch node := elt.Node.(type) {
		case *pg_query.Node_ColumnDef:
			col, colPK, err := parseColumnDef(table, node.ColumnDef)
			if err != nil {
				return nil, err
			}
			table.Columns = append(table.Columns, *col)
			if colPK {
				pkColumns = append(pkColumns, col.Name)
			}

		case *pg_query.Node_Constraint:
			if err := parseTableConstraint(table, node.Constraint, &pkColumns); err != nil {
				return nil, err
			}
		}
	}

	if len(pkColumns) > 0 && table.PrimaryKey == nil {
		table.PrimaryKey = &database.PrimaryKey{Columns: pkColumns}
		for _, c := range pkColumns {
			markPrimaryKey(table, c)
		}
	}

	return table, nil
}

func markPrimaryKey(table *database.Table, name string) {
	for i := range table.Columns {
		if table.Columns[i].Name == name {
			table.Columns[i].IsPrimaryKey = true
			table.Columns[i].Nullable = false
		}
	}
}

// parseColumnDef converts a ColumnDef AST node to a Column. The second
// return value reports whether an inline PRIMARY KEY constraint was found
// on this column (callers accumulate these into the table's single
// PrimaryKey).
func parseColumnDef(table *database.Table, colDef *pg_query.ColumnDef) (*database.Column, bool, error) {
	if colDef.Colname == "" {
		return nil, false, fmt.Errorf("column missing name")
	}

	col := &database.Column{
		Name:     colDef.Colname,
		Nullable: true,
	}

	if colDef.TypeName != nil {
		col.Type = formatTypeName(colDef.TypeName)
	}

	isPK := false
	for _, constraint := range colDef.Constraints {
		if constraint.Node == nil {
			continue
		}
		cons, ok := constraint.Node.(*pg_query.Node_Constraint)
		if !ok {
			continue
		}

		switch cons.Constraint.Contype {
		case pg_query.ConstrType_CONSTR_PRIMARY:
			isPK = true
			col.Nullable = false

		case pg_query.ConstrType_CONSTR_UNIQUE:
			table.Uniques = append(table.Uniques, database.Unique{
				Name:    cons.Constraint.Conname,
				Columns: []string{col.Name},
			})

		case pg_query.ConstrType_CONSTR_CHECK:
			if cons.Constraint.RawExpr != nil {
				table.Checks = append(table.Checks, database.Check{
					Name:       cons.Constraint.Conname,
					Expression: formatExpr(cons.Constraint.RawExpr),
				})
			}

		case pg_query.ConstrType_CONSTR_FOREIGN:
			fk := buildForeignKey(cons.Constraint, []string{col.Name})
			if fk != nil {
				table.ForeignKeys = append(table.ForeignKeys, *fk)
			}

		case pg_query.ConstrType_CONSTR_GENERATED:
			if cons.Constraint.RawExpr != nil {
				col.Generated = &database.Generated{
					Always:     true,
					Expression: formatExpr(cons.Constraint.RawExpr),
					Stored:     true,
				}
			}

		default:
			parseColumnConstraint(col, cons.Constraint)
		}
	}

	return col, isPK, nil
}

func parseColumnConstraint(col *database.Column, constraint *pg_query.Constraint) {
	switch constraint.Contype {
	case pg_query.ConstrType_CONSTR_NOTNULL:
		col.Nullable = false
	case pg_query.ConstrType_CONSTR_NULL:
		col.Nullable = true
	case pg_query.ConstrType_CONSTR_DEFAULT:
		if constraint.RawExpr != nil {
			defaultStr := formatExpr(constraint.RawExpr)
			col.Default = &defaultStr
		}
	}
}

func parseTableConstraint(table *database.Table, constraint *pg_query.Constraint, pkColumns *[]string) error {
	switch constraint.Contype {
	case pg_query.ConstrType_CONSTR_PRIMARY:
		var cols []string
		for _, key := range constraint.Keys {
			if keyNode, ok := key.Node.(*pg_query.Node_String_); ok {
				cols = append(cols, keyNode.String_.Sval)
			}
		}
		if len(cols) > 0 {
			table.PrimaryKey = &database.PrimaryKey{Name: constraint.Conname, Columns: cols}
			*pkColumns = cols
		}

	case pg_query.ConstrType_CONSTR_UNIQUE:
		var cols []string
		for _, key := range constraint.Keys {
			if keyNode, ok := key.Node.(*pg_query.Node_String_); ok {
				cols = append(cols, keyNode.String_.Sval)
			}
		}
		if len(cols) > 0 {
			table.Uniques = append(table.Uniques, database.Unique{
				Name:              constraint.Conname,
				Columns:           cols,
				Deferrable:        constraint.Deferrable,
				InitiallyDeferred: constraint.Initdeferred,
			})
		}

	case pg_query.ConstrType_CONSTR_CHECK:
		if constraint.RawExpr != nil {
			table.Checks = append(table.Checks, database.Check{
				Name:       constraint.Conname,
				Expression: formatExpr(constraint.RawExpr),
			})
		}

	case pg_query.ConstrType_CONSTR_FOREIGN:
		var localCols []string
		for _, key := range constraint.FkAttrs {
			if keyNode, ok := key.Node.(*pg_query.Node_String_); ok {
				localCols = append(localCols, keyNode.String_.Sval)
			}
		}
		fk := buildForeignKey(constraint, localCols)
		if fk != nil {
			table.ForeignKeys = append(table.ForeignKeys, *fk)
		}
	}

	return nil
}

func buildForeignKey(constraint *pg_query.Constraint, localCols []string) *database.ForeignKey {
	fk := &database.ForeignKey{
		Name:              constraint.Conname,
		Columns:           localCols,
		Deferrable:        constraint.Deferrable,
		InitiallyDeferred: constraint.Initdeferred,
		OnDelete:          formatForeignKeyAction(constraint.FkDelAction),
		OnUpdate:          formatForeignKeyAction(constraint.FkUpdAction),
	}

	if constraint.Pktable != nil {
		fk.ReferencedTable = constraint.Pktable.Relname
		fk.ReferencedSchema = constraint.Pktable.Schemaname
	}

	for _, key := range constraint.PkAttrs {
		if keyNode, ok := key.Node.(*pg_query.Node_String_); ok {
			fk.ReferencedColumns = append(fk.ReferencedColumns, keyNode.String_.Sval)
		}
	}

	if len(fk.Columns) == 0 || fk.ReferencedTable == "" {
		return nil
	}
	return fk
}

func formatForeignKeyAction(action string) database.FKAction {
	if action == "" {
		return database.FKNoAction
	}
	if len(action) == 1 {
		switch action[0] {
		case 'a':
			return database.FKNoAction
		case 'r':
			return database.FKRestrict
		case 'c':
			return database.FKCascade
		case 'n':
			return database.FKSetNull
		case 'd':
			return database.FKSetDefault
		}
	}
	return database.FKAction(action)
}

// formatTypeName renders a TypeName AST as the user-facing SQL type text,
// preserved verbatim (canonicalization happens later, in internal/typenorm).
func formatTypeName(typeName *pg_query.TypeName) string {
	if len(typeName.Names) == 0 {
		return ""
	}

	var parts []string
	for _, name := range typeName.Names {
		if nameNode, ok := name.Node.(*pg_query.Node_String_); ok {
			parts = append(parts, nameNode.String_.Sval)
		}
	}

	typeStr := strings.Join(parts, ".")
	if len(parts) > 1 && parts[0] == "pg_catalog" {
		typeStr = parts[len(parts)-1]
	}

	if len(typeName.Typmods) > 0 {
		var mods []string
		for _, mod := range typeName.Typmods {
			if constNode, ok := mod.Node.(*pg_query.Node_AConst); ok {
				if ival := constNode.AConst.GetIval(); ival != nil {
					mods = append(mods, fmt.Sprintf("%d", ival.Ival))
				}
			}
		}
		if len(mods) > 0 {
			typeStr = fmt.Sprintf("%s(%s)", typeStr, strings.Join(mods, ","))
		}
	}

	if len(typeName.ArrayBounds) > 0 {
		typeStr += "[]"
	}

	return typeStr
}

// --- ALTER TABLE ---

func parseAlterTable(schema *database.Schema, stmt *pg_query.AlterTableStmt) error {
	if stmt.Relation == nil || stmt.Relation.Relname == "" {
		return fmt.Errorf("ALTER TABLE missing relation")
	}

	table := findTable(schema, stmt.Relation.Relname)
	if table == nil {
		return fmt.Errorf("ALTER TABLE references unknown table: %s", stmt.Relation.Relname)
	}

	for _, cmdNode := range stmt.Cmds {
		if cmdNode == nil {
			continue
		}
		alterCmd, ok := cmdNode.Node.(*pg_query.Node_AlterTableCmd)
		if !ok || alterCmd.AlterTableCmd == nil {
			continue
		}
		if err := applyAlterTableCmd(table, alterCmd.AlterTableCmd); err != nil {
			return err
		}
	}

	return nil
}

func applyAlterTableCmd(table *database.Table, cmd *pg_query.AlterTableCmd) error {
	if cmd == nil {
		return nil
	}

	switch cmd.Subtype {
	case pg_query.AlterTableType_AT_AddColumn:
		colDef := cmd.GetDef().GetColumnDef()
		if colDef == nil {
			return fmt.Errorf("ALTER TABLE %s ADD COLUMN missing definition", table.Name)
		}
		col, isPK, err := parseColumnDef(table, colDef)
		if err != nil {
			return err
		}
		table.Columns = append(table.Columns, *col)
		if isPK {
			if table.PrimaryKey == nil {
				table.PrimaryKey = &database.PrimaryKey{}
			}
			table.PrimaryKey.Columns = append(table.PrimaryKey.Columns, col.Name)
			markPrimaryKey(table, col.Name)
		}

	case pg_query.AlterTableType_AT_DropColumn:
		idx := findColumnIndex(table, cmd.Name)
		if idx == -1 {
			return fmt.Errorf("ALTER TABLE %s DROP COLUMN unknown column: %s", table.Name, cmd.Name)
		}
		table.Columns = append(table.Columns[:idx], table.Columns[idx+1:]...)

	case pg_query.AlterTableType_AT_SetNotNull:
		idx := findColumnIndex(table, cmd.Name)
		if idx == -1 {
			return fmt.Errorf("ALTER TABLE %s SET NOT NULL unknown column: %s", table.Name, cmd.Name)
		}
		table.Columns[idx].Nullable = false

	case pg_query.AlterTableType_AT_DropNotNull:
		idx := findColumnIndex(table, cmd.Name)
		if idx == -1 {
			return fmt.Errorf("ALTER TABLE %s DROP NOT NULL unknown column: %s", table.Name, cmd.Name)
		}
		table.Columns[idx].Nullable = true

	case pg_query.AlterTableType_AT_ColumnDefault:
		idx := findColumnIndex(table, cmd.Name)
		if idx == -1 {
			return fmt.Errorf("ALTER TABLE %s ALTER COLUMN DEFAULT unknown column: %s", table.Name, cmd.Name)
		}
		if cmd.Def != nil {
			defaultStr := formatExpr(cmd.Def)
			table.Columns[idx].Default = &defaultStr
		} else {
			table.Columns[idx].Default = nil
		}

	case pg_query.AlterTableType_AT_AlterColumnType:
		idx := findColumnIndex(table, cmd.Name)
		if idx == -1 {
			return fmt.Errorf("ALTER TABLE %s ALTER COLUMN TYPE unknown column: %s", table.Name, cmd.Name)
		}
		colDef := cmd.GetDef().GetColumnDef()
		if colDef == nil || colDef.TypeName == nil {
			return fmt.Errorf("ALTER TABLE %s ALTER COLUMN %s missing type definition", table.Name, cmd.Name)
		}
		table.Columns[idx].Type = formatTypeName(colDef.TypeName)

	case pg_query.AlterTableType_AT_AddConstraint:
		constraint := cmd.GetDef().GetConstraint()
		if constraint == nil {
			return fmt.Errorf("ALTER TABLE %s ADD CONSTRAINT missing definition", table.Name)
		}
		var pk []string
		if err := parseTableConstraint(table, constraint, &pk); err != nil {
			return err
		}
		if len(pk) > 0 {
			for _, c := range pk {
				markPrimaryKey(table, c)
			}
		}

	case pg_query.AlterTableType_AT_DropConstraint:
		if cmd.Name == "" {
			return fmt.Errorf("ALTER TABLE %s DROP CONSTRAINT missing constraint name", table.Name)
		}
		if removeCheckByName(table, cmd.Name) || removeUniqueByName(table, cmd.Name) ||
			removeForeignKeyByName(table, cmd.Name) || dropPrimaryKeyByName(table, cmd.Name) {
			return nil
		}
		return fmt.Errorf("ALTER TABLE %s DROP CONSTRAINT unsupported constraint: %s", table.Name, cmd.Name)

	default:
		return fmt.Errorf("ALTER TABLE %s unsupported command subtype: %s", table.Name, cmd.Subtype.String())
	}

	return nil
}

func removeCheckByName(table *database.Table, name string) bool {
	for i := range table.Checks {
		if table.Checks[i].Name == name {
			table.Checks = append(table.Checks[:i], table.Checks[i+1:]...)
			return true
		}
	}
	return false
}

func removeUniqueByName(table *database.Table, name string) bool {
	for i := range table.Uniques {
		if table.Uniques[i].Name == name {
			table.Uniques = append(table.Uniques[:i], table.Uniques[i+1:]...)
			return true
		}
	}
	return false
}

func removeForeignKeyByName(table *database.Table, name string) bool {
	for i := range table.ForeignKeys {
		if table.ForeignKeys[i].Name == name {
			table.ForeignKeys = append(table.ForeignKeys[:i], table.ForeignKeys[i+1:]...)
			return true
		}
	}
	return false
}

func dropPrimaryKeyByName(table *database.Table, name string) bool {
	if table.PrimaryKey == nil {
		return false
	}
	if table.PrimaryKey.Name != "" && table.PrimaryKey.Name != name {
		return false
	}
	for _, c := range table.PrimaryKey.Columns {
		for i := range table.Columns {
			if table.Columns[i].Name == c {
				table.Columns[i].IsPrimaryKey = false
			}
		}
	}
	table.PrimaryKey = nil
	return true
}

// --- CREATE INDEX ---

func parseCreateIndex(schema *database.Schema, stmt *pg_query.IndexStmt) error {
	if stmt.Relation == nil || stmt.Relation.Relname == "" {
		return fmt.Errorf("CREATE INDEX missing table name")
	}

	targetTable := findTable(schema, stmt.Relation.Relname)
	if targetTable == nil {
		return fmt.Errorf("CREATE INDEX references unknown table: %s", stmt.Relation.Relname)
	}

	idx := database.Index{
		Name:       stmt.Idxname,
		Table:      stmt.Relation.Relname,
		Schema:     stmt.Relation.Schemaname,
		Unique:     stmt.Unique,
		Method:     database.IndexMethod(stmt.AccessMethod),
		Tablespace: stmt.TableSpace,
	}
	if idx.Method == "" {
		idx.Method = database.IndexBtree
	}

	for _, elem := range stmt.IndexParams {
		indexElem, ok := elem.Node.(*pg_query.Node_IndexElem)
		if !ok || indexElem.IndexElem == nil {
			continue
		}

		if indexElem.IndexElem.Expr != nil && indexElem.IndexElem.Name == "" {
			idx.Expression = formatExpr(indexElem.IndexElem.Expr)
			continue
		}

		colName := extractIndexColumnName(indexElem.IndexElem)
		if colName == "" {
			continue
		}
		idx.Columns = append(idx.Columns, colName)

		if opclass := extractOpClass(indexElem.IndexElem); opclass != "" {
			if idx.OpClasses == nil {
				idx.OpClasses = map[string]string{}
			}
			idx.OpClasses[colName] = opclass
		}

		if indexElem.IndexElem.Ordering == pg_query.SortByDir_SORTBY_DESC {
			if idx.SortOrders == nil {
				idx.SortOrders = map[string]string{}
			}
			idx.SortOrders[colName] = "DESC"
		}
	}

	if stmt.WhereClause != nil {
		idx.Where = formatExpr(stmt.WhereClause)
	}

	if len(stmt.Options) > 0 {
		idx.Storage = map[string]string{}
		for _, opt := range stmt.Options {
			defElem, ok := opt.Node.(*pg_query.Node_DefElem)
			if !ok || defElem.DefElem == nil {
				continue
			}
			idx.Storage[defElem.DefElem.Defname] = formatExpr(defElem.DefElem.Arg)
		}
	}

	if len(idx.Columns) > 0 || idx.Expression != "" {
		targetTable.Indexes = append(targetTable.Indexes, idx)
	}

	return nil
}

func extractIndexColumnName(elem *pg_query.IndexElem) string {
	if elem == nil {
		return ""
	}
	if elem.Name != "" {
		return elem.Name
	}
	if elem.Indexcolname != "" {
		return elem.Indexcolname
	}
	if expr := elem.Expr; expr != nil {
		if colRefNode, ok := expr.Node.(*pg_query.Node_ColumnRef); ok {
			return extractColumnRefName(colRefNode.ColumnRef)
		}
	}
	return ""
}

func extractOpClass(elem *pg_query.IndexElem) string {
	if elem == nil || len(elem.Opclass) == 0 {
		return ""
	}
	var parts []string
	for _, n := range elem.Opclass {
		if s, ok := n.Node.(*pg_query.Node_String_); ok {
			parts = append(parts, s.String_.Sval)
		}
	}
	return strings.Join(parts, ".")
}

func extractColumnRefName(colRef *pg_query.ColumnRef) string {
	if colRef == nil {
		return ""
	}
	var last string
	for _, field := range colRef.Fields {
		if field == nil || field.Node == nil {
			continue
		}
		if node, ok := field.Node.(*pg_query.Node_String_); ok {
			last = node.String_.Sval
		}
	}
	return last
}

// --- CREATE TYPE ... AS ENUM ---

func parseCreateEnum(stmt *pg_query.CreateEnumStmt) database.EnumType {
	e := database.EnumType{}
	var nameParts []string
	for _, n := range stmt.TypeName {
		if s, ok := n.Node.(*pg_query.Node_String_); ok {
			nameParts = append(nameParts, s.String_.Sval)
		}
	}
	if len(nameParts) > 0 {
		e.Name = nameParts[len(nameParts)-1]
	}
	if len(nameParts) > 1 {
		e.Schema = strings.Join(nameParts[:len(nameParts)-1], ".")
	}
	for _, v := range stmt.Vals {
		if s, ok := v.Node.(*pg_query.Node_String_); ok {
			e.Values = append(e.Values, s.String_.Sval)
		}
	}
	return e
}

// --- CREATE [MATERIALIZED] VIEW ---

func parseCreateView(stmt *pg_query.ViewStmt) (*database.View, error) {
	if stmt.View == nil {
		return nil, fmt.Errorf("CREATE VIEW missing relation")
	}
	v := &database.View{
		Name:   stmt.View.Relname,
		Schema: stmt.View.Schemaname,
	}
	switch stmt.WithCheckOption {
	case pg_query.ViewCheckOption_LOCAL_CHECK_OPTION:
		v.CheckOption = "LOCAL"
	case pg_query.ViewCheckOption_CASCADED_CHECK_OPTION:
		v.CheckOption = "CASCADED"
	}
	// The SELECT text itself is carried verbatim by the caller splitting
	// the original DDL on statement boundaries; pg_query's AST represents
	// the query as a full parse tree rather than source text, so the
	// definition is populated by the schema loader from source spans.
	return v, nil
}

func parseCreateMaterializedView(stmt *pg_query.CreateTableAsStmt) (*database.View, bool) {
	if stmt.Relkind != pg_query.ObjectType_OBJECT_MATVIEW {
		return nil, false
	}
	if stmt.Into == nil || stmt.Into.Rel == nil {
		return nil, false
	}
	return &database.View{
		Name:         stmt.Into.Rel.Relname,
		Schema:       stmt.Into.Rel.Schemaname,
		Materialized: true,
	}, true
}

// --- CREATE FUNCTION / PROCEDURE ---

func parseCreateFunction(stmt *pg_query.CreateFunctionStmt) (*database.Function, error) {
	if len(stmt.Funcname) == 0 {
		return nil, fmt.Errorf("CREATE FUNCTION missing name")
	}

	fn := &database.Function{Language: "sql"}
	var nameParts []string
	for _, n := range stmt.Funcname {
		if s, ok := n.Node.(*pg_query.Node_String_); ok {
			nameParts = append(nameParts, s.String_.Sval)
		}
	}
	fn.Name = nameParts[len(nameParts)-1]
	if len(nameParts) > 1 {
		fn.Schema = strings.Join(nameParts[:len(nameParts)-1], ".")
	}

	for _, p := range stmt.Parameters {
		fp, ok := p.Node.(*pg_query.Node_FunctionParameter)
		if !ok || fp.FunctionParameter == nil {
			continue
		}
		param := database.FunctionParam{Name: fp.FunctionParameter.Name}
		if fp.FunctionParameter.ArgType != nil {
			param.Type = formatTypeName(fp.FunctionParameter.ArgType)
		}
		switch fp.FunctionParameter.Mode {
		case pg_query.FunctionParameterMode_FUNC_PARAM_OUT:
			param.Mode = "OUT"
		case pg_query.FunctionParameterMode_FUNC_PARAM_INOUT:
			param.Mode = "INOUT"
		case pg_query.FunctionParameterMode_FUNC_PARAM_VARIADIC:
			param.Mode = "VARIADIC"
		default:
			param.Mode = "IN"
		}
		fn.Params = append(fn.Params, param)
	}

	if stmt.ReturnType != nil {
		fn.ReturnType = formatTypeName(stmt.ReturnType)
	}

	for _, opt := range stmt.Options {
		defElem, ok := opt.Node.(*pg_query.Node_DefElem)
		if !ok || defElem.DefElem == nil {
			continue
		}
		switch defElem.DefElem.Defname {
		case "language":
			fn.Language = formatExpr(defElem.DefElem.Arg)
		case "as":
			fn.Body = formatExpr(defElem.DefElem.Arg)
		case "volatility":
			fn.Volatility = strings.ToUpper(formatExpr(defElem.DefElem.Arg))
		case "parallel":
			fn.Parallel = strings.ToUpper(formatExpr(defElem.DefElem.Arg))
		case "security":
			fn.SecurityDefiner = securityDefinerArg(defElem.DefElem.Arg)
		case "strict":
			fn.Strict = true
		}
	}

	return fn, nil
}

// --- CREATE SEQUENCE ---

func parseCreateSequence(stmt *pg_query.CreateSeqStmt) database.Sequence {
	seq := database.Sequence{Increment: 1, Start: 1, Cache: 1}
	if stmt.Sequence != nil {
		seq.Name = stmt.Sequence.Relname
		seq.Schema = stmt.Sequence.Schemaname
	}
	for _, opt := range stmt.Options {
		defElem, ok := opt.Node.(*pg_query.Node_DefElem)
		if !ok || defElem.DefElem == nil {
			continue
		}
		val := formatExpr(defElem.DefElem.Arg)
		switch defElem.DefElem.Defname {
		case "increment":
			fmt.Sscanf(val, "%d", &seq.Increment)
		case "start":
			fmt.Sscanf(val, "%d", &seq.Start)
		case "cache":
			fmt.Sscanf(val, "%d", &seq.Cache)
		case "cycle":
			seq.Cycle = true
		case "owned_by":
			parts := strings.Split(val, ".")
			if len(parts) == 2 {
				seq.OwnedByTable = parts[0]
				seq.OwnedByColumn = parts[1]
			}
		}
	}
	return seq
}

// --- CREATE EXTENSION ---

func parseCreateExtension(stmt *pg_query.CreateExtensionStmt) database.Extension {
	ext := database.Extension{Name: stmt.Extname}
	for _, opt := range stmt.Options {
		defElem, ok := opt.Node.(*pg_query.Node_DefElem)
		if !ok || defElem.DefElem == nil {
			continue
		}
		switch defElem.DefElem.Defname {
		case "schema":
			ext.Schema = formatExpr(defElem.DefElem.Arg)
		case "new_version", "version":
			ext.Version = formatExpr(defElem.DefElem.Arg)
		}
	}
	return ext
}

// --- COMMENT ON ---

func parseComment(stmt *pg_query.CommentStmt) database.Comment {
	c := database.Comment{Text: stmt.Comment}
	switch stmt.Objtype {
	case pg_query.ObjectType_OBJECT_TABLE:
		c.ObjectType = "TABLE"
	case pg_query.ObjectType_OBJECT_COLUMN:
		c.ObjectType = "COLUMN"
	case pg_query.ObjectType_OBJECT_INDEX:
		c.ObjectType = "INDEX"
	default:
		c.ObjectType = stmt.Objtype.String()
	}
	if stmt.Object != nil {
		c.ObjectName = formatExpr(stmt.Object)
	}
	return c
}

// securityDefinerArg extracts the boolean literal PostgreSQL's grammar
// attaches to a "security" DefElem: SECURITY DEFINER and SECURITY INVOKER
// both produce Defname "security" and differ only in this argument (true
// vs false), so the Defname alone can't distinguish them.
func securityDefinerArg(arg *pg_query.Node) bool {
	if arg == nil {
		return false
	}
	aconst, ok := arg.Node.(*pg_query.Node_AConst)
	if !ok {
		return false
	}
	if b := aconst.AConst.GetBoolval(); b != nil {
		return b.Boolval
	}
	return false
}

// --- scalar expression formatting ---

// formatExpr renders an expression AST back into SQL text, preserved as
// close to the user's original writing as the AST retains.
func formatExpr(node *pg_query.Node) string {
	if node == nil {
		return ""
	}

	switch expr := node.Node.(type) {
	case *pg_query.Node_AConst:
		if ival := expr.AConst.GetIval(); ival != nil {
			return fmt.Sprintf("%d", ival.Ival)
		}
		if fval := expr.AConst.GetFval(); fval != nil {
			return fval.Fval
		}
		if sval := expr.AConst.GetSval(); sval != nil {
			return fmt.Sprintf("'%s'", sval.Sval)
		}
		if bsval := expr.AConst.GetBsval(); bsval != nil {
			return bsval.Bsval
		}

	case *pg_query.Node_FuncCall:
		if len(expr.FuncCall.Funcname) > 0 {
			if nameNode, ok := expr.FuncCall.Funcname[0].Node.(*pg_query.Node_String_); ok {
				funcName := nameNode.String_.Sval
				var args []string
				for _, argNode := range expr.FuncCall.Args {
					args = append(args, formatExpr(argNode))
				}
				if len(args) > 0 {
					return fmt.Sprintf("%s(%s)", funcName, strings.Join(args, ", "))
				}
				return funcName + "()"
			}
		}

	case *pg_query.Node_TypeCast:
		if expr.TypeCast.Arg != nil {
			return formatExpr(expr.TypeCast.Arg)
		}

	case *pg_query.Node_ColumnRef:
		return extractColumnRefName(expr.ColumnRef)

	case *pg_query.Node_AExpr:
		left := formatExpr(expr.AExpr.Lexpr)
		right := formatExpr(expr.AExpr.Rexpr)
		op := ""
		if len(expr.AExpr.Name) > 0 {
			if s, ok := expr.AExpr.Name[0].Node.(*pg_query.Node_String_); ok {
				op = s.String_.Sval
			}
		}
		return strings.TrimSpace(fmt.Sprintf("%s %s %s", left, op, right))

	case *pg_query.Node_String_:
		return expr.String_.Sval

	case *pg_query.Node_Integer:
		return fmt.Sprintf("%d", expr.Integer.Ival)

	case *pg_query.Node_SqlvalueFunction:
		switch expr.SqlvalueFunction.Op {
		case 1:
			return "CURRENT_DATE"
		case 2, 3:
			return "CURRENT_TIME"
		case 4, 5:
			return "CURRENT_TIMESTAMP"
		case 6, 7:
			return "LOCALTIME"
		case 8, 9:
			return "LOCALTIMESTAMP"
		case 10:
			return "CURRENT_ROLE"
		case 11:
			return "CURRENT_USER"
		case 12:
			return "USER"
		case 13:
			return "SESSION_USER"
		case 14:
			return "CURRENT_CATALOG"
		case 15:
			return "CURRENT_SCHEMA"
		}
	}

	return "DEFAULT"
}
