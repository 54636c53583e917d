package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	_ "github.com/lib/pq"
	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/pganalyze/pg_query_go/v6/parser"
	"github.com/spf13/cobra"

	"github.com/lockplane/lockplane/database"
	"github.com/lockplane/lockplane/database/postgres"
	"github.com/lockplane/lockplane/internal/config"
	"github.com/lockplane/lockplane/internal/introspect"
	"github.com/lockplane/lockplane/internal/locks"
	"github.com/lockplane/lockplane/internal/planner"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a migration plan from schema differences",
	Long: `Generate a migration plan by comparing two schemas.

Schemas can be:
  • JSON schema files
  • SQL DDL files or directories (.lp.sql)
  • PostgreSQL connection strings (will introspect)

The plan shows all SQL operations required to transform the source schema
into the target schema, partitioned into transactional, concurrent, and
deferred phases.`,
	Example: `  # Generate plan from database to schema file
  lockplane plan --from postgresql://localhost/db --to schema.json > plan.json

  # Generate plan between two schema files
  lockplane plan --from old.json --to new.json > plan.json

  # Use environments from lockplane.toml
  lockplane plan --from-environment production --to schema/ > plan.json

  # Check schema files are applyable against a shadow database
  lockplane plan --check-schema schema/

  # Report the lock mode each statement acquires, flagging risky ones
  lockplane plan --from postgresql://localhost/db --to schema.json --show-locks`,
	Run: runPlan,
}

var (
	planFrom            string
	planTo              string
	planFromEnvironment string
	planToEnvironment   string
	planCheckSchema     bool
	planVerbose         bool
	planOutput          string
	planShadowDB        string
	planShadowSchema    string
	planShowLocks       bool
)

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVar(&planFrom, "from", "", "Source schema path (file or directory) or connection string")
	planCmd.Flags().StringVar(&planTo, "to", "", "Target schema path (file or directory) or connection string")
	planCmd.Flags().StringVar(&planFromEnvironment, "from-environment", "", "Environment providing the source database connection")
	planCmd.Flags().StringVar(&planToEnvironment, "to-environment", "", "Environment providing the target database connection")
	planCmd.Flags().BoolVar(&planCheckSchema, "check-schema", false, "Check schema files by applying them to a clean shadow database")
	planCmd.Flags().BoolVarP(&planVerbose, "verbose", "v", false, "Enable verbose logging")
	planCmd.Flags().StringVar(&planOutput, "output", "", "Output format (default: text, set to 'json' for IDE integration)")
	planCmd.Flags().StringVar(&planShadowDB, "shadow-db", "", "Shadow database URL for --check-schema")
	planCmd.Flags().StringVar(&planShadowSchema, "shadow-schema", "", "Shadow schema name when reusing an existing database")
	planCmd.Flags().BoolVar(&planShowLocks, "show-locks", false, "Report the PostgreSQL lock mode each plan statement acquires, flagging high-impact operations")
}

func runPlan(cmd *cobra.Command, args []string) {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config file: %v", err)
	}

	fromInput := strings.TrimSpace(planFrom)
	toInput := strings.TrimSpace(planTo)

	if planCheckSchema && fromInput == "" && toInput == "" && planFromEnvironment == "" && planToEnvironment == "" {
		runShadowDBValidation(cfg, args)
		return
	}

	if fromInput == "" {
		resolvedFrom, err := config.ResolveEnvironment(cfg, planFromEnvironment)
		if err != nil {
			log.Fatalf("Failed to resolve source environment: %v", err)
		}
		fromInput = resolvedFrom.DatabaseURL
		if fromInput == "" {
			fmt.Fprintf(os.Stderr, "Error: environment %q does not define a source database. Provide --from or configure .env.%s.\n", resolvedFrom.Name, resolvedFrom.Name)
			os.Exit(1)
		}
	}

	if toInput == "" {
		if info, err := os.Stat("schema"); err == nil && info.IsDir() {
			toInput = "schema"
			if planVerbose {
				fmt.Fprintf(os.Stderr, "ℹ️  Auto-detected schema directory: schema/\n")
			}
		} else {
			resolvedTo, err := config.ResolveEnvironment(cfg, planToEnvironment)
			if err != nil {
				log.Fatalf("Failed to resolve target environment: %v", err)
			}
			toInput = resolvedTo.DatabaseURL
			if toInput == "" {
				fmt.Fprintf(os.Stderr, "Error: environment %q does not define a target database. Provide --to or configure .env.%s.\n", resolvedTo.Name, resolvedTo.Name)
				os.Exit(1)
			}
		}
	}

	if planVerbose {
		fmt.Fprintf(os.Stderr, "🔍 Loading 'from' schema: %s\n", fromInput)
	}
	before, err := introspect.LoadSchemaOrIntrospect(fromInput, nil)
	if err != nil {
		log.Fatalf("Failed to load from schema: %v", err)
	}
	if planVerbose {
		fmt.Fprintf(os.Stderr, "✓ Loaded 'from' schema (%d tables)\n", len(before.Tables))
	}

	if planVerbose {
		fmt.Fprintf(os.Stderr, "🔍 Loading 'to' schema: %s\n", toInput)
	}
	after, err := introspect.LoadSchemaOrIntrospect(toInput, nil)
	if err != nil {
		log.Fatalf("Failed to load to schema: %v", err)
	}
	if planVerbose {
		fmt.Fprintf(os.Stderr, "✓ Loaded 'to' schema (%d tables)\n", len(after.Tables))
	}

	plan, err := planner.Generate(before, after)
	if err != nil {
		log.Fatalf("Failed to generate plan: %v", err)
	}

	if planShowLocks {
		printLockReport(plan)
	}

	jsonBytes, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal plan to JSON: %v", err)
	}
	fmt.Println(string(jsonBytes))
}

// printLockReport analyzes the lock mode each plan statement acquires
// (internal/locks) and writes a human-readable report to stderr, flagging
// statements whose impact warrants a safer rewrite.
func printLockReport(plan *planner.Plan) {
	fmt.Fprintf(os.Stderr, "\n🔒 Lock impact report\n")

	report := func(phase string, statements []string) {
		for _, stmt := range statements {
			impact := locks.AnalyzeLockImpact(stmt)
			fmt.Fprintf(os.Stderr, "  [%s] %s — %s lock (%s impact)\n", phase, impact.Operation, impact.LockMode, impact.Impact)
			fmt.Fprintf(os.Stderr, "      %s\n", impact.Explanation)

			if locks.ShouldRewrite(impact) {
				if rewrite := locks.GenerateSaferRewrite(stmt); rewrite != nil {
					fmt.Fprintf(os.Stderr, "      ⚠️  %s\n", rewrite.Description)
					for _, rewriteStmt := range rewrite.SQL {
						fmt.Fprintf(os.Stderr, "         %s\n", rewriteStmt)
					}
				}
			}
		}
	}

	report("transactional", plan.Transactional)
	report("concurrent", plan.Concurrent)
	report("deferred", plan.Deferred)
	fmt.Fprintf(os.Stderr, "\n")
}

// SyntaxError represents a SQL syntax error found while pre-validating schema
// files, before any database connection is attempted.
type SyntaxError struct {
	File     string
	Line     int
	Column   int
	Message  string
	Severity string // "error" or "warning"
}

type SQLStatement struct {
	Text      string
	StartLine int
}

// splitSQLStatements splits SQL text into individual statements, tracking
// line numbers for each statement.
func splitSQLStatements(sqlText string) []SQLStatement {
	var statements []SQLStatement
	var currentStmt strings.Builder
	currentLine := 1
	stmtStartLine := 1
	inString := false
	inComment := false
	var stringDelim rune
	seenNonWhitespace := false

	for i, ch := range sqlText {
		if ch == '\n' {
			currentLine++
		}

		if !seenNonWhitespace && !unicode.IsSpace(ch) {
			stmtStartLine = currentLine
			seenNonWhitespace = true
		}

		if !inComment && (ch == '\'' || ch == '"') {
			if !inString {
				inString = true
				stringDelim = ch
			} else if ch == stringDelim {
				if i > 0 && sqlText[i-1] != '\\' {
					inString = false
				}
			}
		}

		if !inString && ch == '-' && i+1 < len(sqlText) && sqlText[i+1] == '-' {
			inComment = true
		}
		if inComment && ch == '\n' {
			inComment = false
		}

		currentStmt.WriteRune(ch)

		if !inString && !inComment && ch == ';' {
			stmt := currentStmt.String()
			if strings.TrimSpace(stmt) != "" {
				statements = append(statements, SQLStatement{
					Text:      stmt,
					StartLine: stmtStartLine,
				})
			}
			currentStmt.Reset()
			seenNonWhitespace = false
		}
	}

	if currentStmt.Len() > 0 {
		stmt := currentStmt.String()
		if strings.TrimSpace(stmt) != "" {
			statements = append(statements, SQLStatement{
				Text:      stmt,
				StartLine: stmtStartLine,
			})
		}
	}

	return statements
}

// detectTrailingComma checks whether a syntax error is caused by a trailing
// comma and, if so, returns an adjusted error pointing at the comma.
func detectTrailingComma(sqlText string, errMsg string, cursorPos int, startLine int) *SyntaxError {
	if !strings.Contains(errMsg, "syntax error") {
		return nil
	}

	closingTokenMentioned := strings.Contains(errMsg, "near \")\"") ||
		strings.Contains(errMsg, "at or near \")\"") ||
		strings.Contains(errMsg, "near \"}\"") ||
		strings.Contains(errMsg, "at or near \"}\"") ||
		strings.Contains(errMsg, "near \"]\"") ||
		strings.Contains(errMsg, "at or near \"]\"")

	if !closingTokenMentioned {
		return nil
	}

	searchStart := cursorPos
	if searchStart > len(sqlText) {
		searchStart = len(sqlText)
	}
	if searchStart < 0 {
		return nil
	}

	closingPos := -1
	for i := searchStart - 1; i >= 0; i-- {
		ch := sqlText[i]
		if ch == ')' || ch == '}' || ch == ']' {
			closingPos = i
			break
		}
		if ch != ' ' && ch != '\t' && ch != '\n' && ch != '\r' && ch != ';' {
			return nil
		}
	}

	if closingPos < 0 {
		return nil
	}

	commaPos := -1
	for i := closingPos - 1; i >= 0; i-- {
		ch := sqlText[i]
		if ch == ',' {
			commaPos = i
			break
		}
		if ch != ' ' && ch != '\t' && ch != '\n' && ch != '\r' {
			break
		}
	}

	if commaPos >= 0 {
		line := startLine + strings.Count(sqlText[:commaPos+1], "\n")
		lastNewline := strings.LastIndex(sqlText[:commaPos+1], "\n")
		var column int
		if lastNewline >= 0 {
			column = commaPos - lastNewline
		} else {
			column = commaPos + 1
		}

		return &SyntaxError{
			Line:     line,
			Column:   column,
			Message:  "trailing comma not allowed here",
			Severity: "error",
		}
	}

	return nil
}

// preValidateSQLSyntax checks all .sql files under schemaDir for syntax
// errors before hitting the database.
func preValidateSQLSyntax(schemaDir string) []SyntaxError {
	var errors []SyntaxError

	err := filepath.Walk(schemaDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			errors = append(errors, SyntaxError{
				File:     path,
				Line:     1,
				Column:   1,
				Message:  fmt.Sprintf("Failed to read file: %v", readErr),
				Severity: "error",
			})
			return nil
		}

		sqlText := string(content)
		statements := splitSQLStatements(sqlText)

		for _, stmt := range statements {
			stmt.Text = strings.TrimSpace(stmt.Text)
			if stmt.Text == "" {
				continue
			}

			parseResult, parseErr := pg_query.Parse(stmt.Text)

			if parseErr == nil && parseResult != nil {
				for _, parsedStmt := range parseResult.Stmts {
					if parsedStmt.Stmt == nil {
						continue
					}
					alterNode, isAlterTable := parsedStmt.Stmt.Node.(*pg_query.Node_AlterTableStmt)
					if !isAlterTable {
						continue
					}
					tableName := ""
					if alterNode.AlterTableStmt.Relation != nil {
						tableName = alterNode.AlterTableStmt.Relation.Relname
					}

					alterPos := strings.Index(strings.ToUpper(stmt.Text), "ALTER TABLE")
					line := stmt.StartLine
					column := 1
					if alterPos >= 0 {
						line = stmt.StartLine + strings.Count(stmt.Text[:alterPos], "\n")
						lastNewline := strings.LastIndex(stmt.Text[:alterPos], "\n")
						if lastNewline >= 0 {
							column = alterPos - lastNewline
						} else {
							column = alterPos + 1
						}
					}

					warningMsg := fmt.Sprintf("ALTER TABLE %s detected in schema file. Lockplane treats schema files as declarative (desired end state); the ALTER TABLE will be merged into the CREATE TABLE definition. Prefer CREATE TABLE with the final desired columns.", tableName)
					errors = append(errors, SyntaxError{
						File:     path,
						Line:     line,
						Column:   column,
						Message:  warningMsg,
						Severity: "warning",
					})
				}
			}

			if parseErr != nil {
				errMsg := parseErr.Error()
				line := stmt.StartLine
				column := 1
				cursorPos := 0

				if pgErr, ok := parseErr.(*parser.Error); ok && pgErr.Cursorpos > 0 {
					cursorPos = pgErr.Cursorpos
					if cursorPos <= len(stmt.Text) {
						line = stmt.StartLine + strings.Count(stmt.Text[:cursorPos], "\n")
						lastNewline := strings.LastIndex(stmt.Text[:cursorPos], "\n")
						if lastNewline >= 0 {
							column = cursorPos - lastNewline
						} else {
							column = cursorPos + 1
						}
					}
				}

				adjustedErr := detectTrailingComma(stmt.Text, errMsg, cursorPos, stmt.StartLine)
				if adjustedErr != nil {
					adjustedErr.File = path
					adjustedErr.Severity = "error"
					errors = append(errors, *adjustedErr)
				} else {
					errors = append(errors, SyntaxError{
						File:     path,
						Line:     line,
						Column:   column,
						Message:  errMsg,
						Severity: "error",
					})
				}
			}
		}

		return nil
	})

	if err != nil {
		errors = append(errors, SyntaxError{
			File:     schemaDir,
			Line:     1,
			Column:   1,
			Message:  fmt.Sprintf("Failed to walk directory: %v", err),
			Severity: "error",
		})
	}

	return errors
}

// runShadowDBValidation validates schema files by applying them to a clean
// shadow database (`lockplane plan --check-schema <schema-dir>`).
func runShadowDBValidation(cfg *config.Config, args []string) {
	ctx := context.Background()

	schemaDir := ""
	if len(args) > 0 {
		schemaDir = strings.TrimSpace(args[0])
	}
	if schemaDir == "" {
		if info, err := os.Stat("schema"); err == nil && info.IsDir() {
			schemaDir = "schema"
			if planVerbose {
				fmt.Fprintf(os.Stderr, "ℹ️  Auto-detected schema directory: schema/\n")
			}
		}
	}
	if schemaDir == "" {
		fmt.Fprintf(os.Stderr, "Error: No schema directory specified.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: lockplane plan --check-schema <schema-dir>\n")
		fmt.Fprintf(os.Stderr, "   Or: lockplane plan --check-schema (will auto-detect schema/ directory)\n\n")
		os.Exit(1)
	}

	if planVerbose {
		fmt.Fprintf(os.Stderr, "📋 Pre-validating SQL syntax...\n")
	}

	syntaxDiagnostics := preValidateSQLSyntax(schemaDir)

	var syntaxErrors, syntaxWarnings []SyntaxError
	for _, diag := range syntaxDiagnostics {
		if diag.Severity == "warning" {
			syntaxWarnings = append(syntaxWarnings, diag)
		} else {
			syntaxErrors = append(syntaxErrors, diag)
		}
	}

	if len(syntaxWarnings) > 0 && !isJSONOutput() {
		fmt.Fprintf(os.Stderr, "\n")
		for _, warn := range syntaxWarnings {
			fmt.Fprintf(os.Stderr, "⚠️  %s:%d:%d: %s\n", warn.File, warn.Line, warn.Column, warn.Message)
		}
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(syntaxErrors) > 0 {
		syntaxValidationFailure(syntaxDiagnostics)
	}

	if planVerbose {
		fmt.Fprintf(os.Stderr, "✓ SQL syntax validation passed\n")
	}

	shadowConnStr := strings.TrimSpace(planShadowDB)
	shadowSchema := strings.TrimSpace(planShadowSchema)

	var resolvedShadow *config.ResolvedEnvironment
	if shadowConnStr == "" || shadowSchema == "" {
		if env, err := config.ResolveEnvironment(cfg, ""); err == nil {
			resolvedShadow = env
			if shadowConnStr == "" {
				shadowConnStr = env.ShadowDatabaseURL
			}
			if shadowSchema == "" {
				shadowSchema = env.ShadowSchema
			}
			if shadowSchema != "" && shadowConnStr == "" {
				shadowConnStr = env.DatabaseURL
			}
		}
	}

	if shadowConnStr == "" {
		exampleEnv := "local"
		if resolvedShadow != nil && resolvedShadow.Name != "" {
			exampleEnv = resolvedShadow.Name
		}
		fmt.Fprintf(os.Stderr, "Error: No shadow database configured.\n\n")
		fmt.Fprintf(os.Stderr, "Provide shadow DB via:\n")
		fmt.Fprintf(os.Stderr, "  - --shadow-db flag\n")
		fmt.Fprintf(os.Stderr, "  - SHADOW_DATABASE_URL or SHADOW_SCHEMA in .env.%s\n", exampleEnv)
		fmt.Fprintf(os.Stderr, "  - lockplane init (auto-configures shadow DB settings)\n\n")
		os.Exit(1)
	}

	if planVerbose {
		fmt.Fprintf(os.Stderr, "🔗 Connecting to shadow database...\n")
	}

	shadowDB, err := sql.Open("postgres", shadowConnStr)
	if err != nil {
		validationFailure(fmt.Sprintf("Failed to connect to shadow database: %v", err), nil)
	}
	defer func() { _ = shadowDB.Close() }()

	if shadowSchema != "" {
		if err := resetShadowSchema(ctx, shadowDB, shadowSchema); err != nil {
			validationFailure(fmt.Sprintf("Failed to prepare shadow schema: %v", err), nil)
		}
		if !isJSONOutput() {
			fmt.Fprintf(os.Stderr, "ℹ️  Using shadow schema %q for validation\n", shadowSchema)
		}
	} else if err := resetPublicSchema(ctx, shadowDB); err != nil {
		validationFailure(fmt.Sprintf("Failed to clean shadow database: %v", err), nil)
	}

	if planVerbose {
		fmt.Fprintf(os.Stderr, "📖 Loading schema from %s...\n", schemaDir)
	}

	desiredSchema, err := introspect.LoadSchemaOrIntrospect(schemaDir, nil)
	if err != nil {
		validationFailure(fmt.Sprintf("Failed to load schema: %v", err), nil)
	}

	emptySchema := &database.Schema{}
	plan, err := planner.Generate(emptySchema, desiredSchema)
	if err != nil {
		validationFailure(fmt.Sprintf("Failed to generate plan: %v", err), nil)
	}

	if planVerbose {
		total := len(plan.Transactional) + len(plan.Concurrent) + len(plan.Deferred)
		fmt.Fprintf(os.Stderr, "✓ Generated plan with %d statements\n", total)
	}

	if planVerbose {
		fmt.Fprintf(os.Stderr, "🧪 Validating schema by applying it to the shadow database...\n")
	}

	result, err := applyPlanToDB(ctx, shadowDB, plan, planVerbose)
	if err != nil {
		runtimeErrors := findSourceLocationsForErrors(schemaDir, result, err)
		if len(runtimeErrors) > 0 {
			runtimeValidationFailure(runtimeErrors)
		}

		var extras []string
		if result != nil {
			extras = result.Errors
		}
		validationFailure(fmt.Sprintf("Schema validation failed: %v", err), extras)
	}

	validationSuccess(result, syntaxWarnings)
}

// resetShadowSchema drops and recreates a named schema so each validation
// run starts from a clean slate.
func resetShadowSchema(ctx context.Context, db *sql.DB, name string) error {
	quoted := pqQuoteIdentifier(name)
	if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", quoted)); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA %s", quoted)); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf("SET search_path TO %s", quoted))
	return err
}

// resetPublicSchema clears the public schema when no dedicated shadow
// schema is configured and the shadow database is otherwise disposable.
func resetPublicSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "DROP SCHEMA public CASCADE"); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, "CREATE SCHEMA public")
	return err
}

func pqQuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// RuntimeError represents an error that occurred during plan execution with
// a source location.
type RuntimeError struct {
	File    string
	Line    int
	Column  int
	Step    int // from a leading "step N" in the error message; 0 when absent
	Message string
}

// findSourceLocationsForErrors attempts to find source locations for runtime
// errors reported by plan execution.
func findSourceLocationsForErrors(schemaDir string, result *executionResult, err error) []RuntimeError {
	if result == nil || len(result.Errors) == 0 {
		return nil
	}

	var runtimeErrors []RuntimeError

	for _, errMsg := range result.Errors {
		var entityName string
		if strings.Contains(errMsg, "relation \"") {
			start := strings.Index(errMsg, "relation \"") + len("relation \"")
			end := strings.Index(errMsg[start:], "\"")
			if end > 0 {
				entityName = errMsg[start : start+end]
			}
		}

		if entityName != "" {
			location := findEntityInSQLFiles(schemaDir, entityName)
			if location != nil {
				var step int
				_, _ = fmt.Sscanf(errMsg, "step %d", &step)
				runtimeErrors = append(runtimeErrors, RuntimeError{
					File:    location.File,
					Line:    location.Line,
					Column:  location.Column,
					Step:    step,
					Message: errMsg,
				})
			}
		}
	}

	return runtimeErrors
}

// findEntityInSQLFiles searches SQL files for an entity definition.
func findEntityInSQLFiles(schemaDir string, entityName string) *SyntaxError {
	var result *SyntaxError

	_ = filepath.Walk(schemaDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		lines := strings.Split(string(content), "\n")
		for lineNum, line := range lines {
			upperLine := strings.ToUpper(line)
			if (strings.Contains(upperLine, "CREATE INDEX") ||
				strings.Contains(upperLine, "CREATE TABLE") ||
				strings.Contains(upperLine, "CREATE UNIQUE INDEX")) &&
				strings.Contains(line, entityName) {
				result = &SyntaxError{
					File:   path,
					Line:   lineNum + 1,
					Column: strings.Index(line, entityName) + 1,
				}
				return filepath.SkipDir
			}
		}
		return nil
	})

	return result
}

func runtimeValidationFailure(errors []RuntimeError) {
	if !isJSONOutput() {
		return
	}

	var diagnostics []map[string]interface{}
	for _, err := range errors {
		diagnostics = append(diagnostics, map[string]interface{}{
			"severity": "error",
			"message":  err.Message,
			"code":     "runtime_error",
			"file":     err.File,
			"line":     err.Line,
			"column":   err.Column,
		})
	}

	output := map[string]interface{}{
		"diagnostics": diagnostics,
		"summary": map[string]interface{}{
			"errors": len(errors),
			"valid":  false,
		},
	}
	jsonBytes, _ := json.MarshalIndent(output, "", "  ")
	fmt.Println(string(jsonBytes))
	os.Exit(1)
}

func isJSONOutput() bool {
	return strings.EqualFold(strings.TrimSpace(planOutput), "json")
}

func syntaxValidationFailure(syntaxDiagnostics []SyntaxError) {
	var errors, warnings []SyntaxError
	for _, diag := range syntaxDiagnostics {
		if diag.Severity == "warning" {
			warnings = append(warnings, diag)
		} else {
			errors = append(errors, diag)
		}
	}

	if isJSONOutput() {
		var diagnostics []map[string]interface{}
		for _, syntaxDiag := range syntaxDiagnostics {
			severity := syntaxDiag.Severity
			if severity == "" {
				severity = "error"
			}
			code := "syntax_error"
			if severity == "warning" {
				code = "schema_warning"
			}
			diagnostics = append(diagnostics, map[string]interface{}{
				"severity": severity,
				"message":  syntaxDiag.Message,
				"code":     code,
				"file":     syntaxDiag.File,
				"line":     syntaxDiag.Line,
				"column":   syntaxDiag.Column,
			})
		}

		output := map[string]interface{}{
			"diagnostics": diagnostics,
			"summary": map[string]interface{}{
				"errors":   len(errors),
				"warnings": len(warnings),
				"valid":    false,
			},
		}
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Fprintf(os.Stderr, "❌ Schema validation FAILED\n\n")
		if len(errors) > 0 {
			fmt.Fprintf(os.Stderr, "Found %d syntax error(s) in schema files:\n", len(errors))
			for _, syntaxErr := range errors {
				fmt.Fprintf(os.Stderr, "  - %s:%d:%d: %s\n", syntaxErr.File, syntaxErr.Line, syntaxErr.Column, syntaxErr.Message)
			}
		}
		if len(warnings) > 0 {
			fmt.Fprintf(os.Stderr, "\nWarnings:\n")
			for _, warn := range warnings {
				fmt.Fprintf(os.Stderr, "  ⚠️  %s:%d:%d: %s\n", warn.File, warn.Line, warn.Column, warn.Message)
			}
		}
	}
	os.Exit(1)
}

func validationFailure(message string, details []string) {
	mainMsg := strings.TrimSpace(message)
	if mainMsg == "" {
		mainMsg = "Schema validation failed."
	}

	if isJSONOutput() {
		diagnostics := map[string]interface{}{
			"diagnostics": []map[string]interface{}{
				{
					"severity": "error",
					"message":  mainMsg,
					"code":     "validation_error",
				},
			},
			"summary": map[string]interface{}{
				"errors": 1,
				"valid":  false,
			},
		}
		jsonBytes, _ := json.MarshalIndent(diagnostics, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Fprintf(os.Stderr, "❌ Schema validation FAILED\n\n")
		fmt.Fprintf(os.Stderr, "%s\n", mainMsg)
		for _, detail := range details {
			fmt.Fprintf(os.Stderr, "  - %s\n", detail)
		}
	}
	os.Exit(1)
}

func validationSuccess(result *executionResult, warnings []SyntaxError) {
	steps := 0
	if result != nil {
		steps = result.Applied
	}
	if isJSONOutput() {
		var diagnostics []map[string]interface{}
		for _, warn := range warnings {
			diagnostics = append(diagnostics, map[string]interface{}{
				"severity": "warning",
				"message":  warn.Message,
				"code":     "schema_warning",
				"file":     warn.File,
				"line":     warn.Line,
				"column":   warn.Column,
			})
		}

		output := map[string]interface{}{
			"diagnostics": diagnostics,
			"summary": map[string]interface{}{
				"errors":        0,
				"warnings":      len(warnings),
				"valid":         true,
				"steps_applied": steps,
			},
		}
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Fprintf(os.Stderr, "✅ Schema validation PASSED\n")
		fmt.Fprintf(os.Stderr, "   Applied %d statements successfully\n", steps)
		if len(warnings) > 0 {
			fmt.Fprintf(os.Stderr, "\n⚠️  %d warning(s) found (see above)\n", len(warnings))
		}
	}
}

// keeps the postgres import in use; nothing else in package cmd references
// it.
var _ = postgres.NewIntrospector
