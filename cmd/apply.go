package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/lockplane/lockplane/internal/config"
	"github.com/lockplane/lockplane/internal/introspect"
	"github.com/lockplane/lockplane/internal/planner"
)

var applyCmd = &cobra.Command{
	Use:   "apply [plan.json]",
	Short: "Apply a migration plan to a database",
	Long: `Apply a migration plan to a target PostgreSQL database.

Two modes of operation:
  1. Apply a pre-generated plan file: lockplane apply plan.json --target-environment local
  2. Generate and apply from schema: lockplane apply --schema schema/ --target-environment local`,
	Example: `  # Apply a pre-generated plan
  lockplane apply migration.json --target-environment local

  # Generate and apply from schema
  lockplane apply --schema schema/ --target-environment local --auto-approve`,
	Run: runApply,
}

var (
	applyTarget      string
	applyTargetEnv   string
	applySchema      string
	applyAutoApprove bool
	applyVerbose     bool
)

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringVar(&applyTarget, "target", "", "Target database URL")
	applyCmd.Flags().StringVar(&applyTargetEnv, "target-environment", "", "Target environment name")
	applyCmd.Flags().StringVar(&applySchema, "schema", "", "Schema file/directory")
	applyCmd.Flags().BoolVar(&applyAutoApprove, "auto-approve", false, "Skip interactive approval")
	applyCmd.Flags().BoolVarP(&applyVerbose, "verbose", "v", false, "Verbose logging")
}

func runApply(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	resolvedTarget, err := config.ResolveEnvironment(cfg, applyTargetEnv)
	if err != nil {
		log.Fatalf("Failed to resolve target environment: %v", err)
	}

	targetConnStr := strings.TrimSpace(applyTarget)
	if targetConnStr == "" {
		targetConnStr = resolvedTarget.DatabaseURL
	}
	if targetConnStr == "" {
		fmt.Fprintf(os.Stderr, "Error: no target database configured.\n\n")
		fmt.Fprintf(os.Stderr, "Provide --target or configure environment %q via lockplane.toml/.env.%s.\n", resolvedTarget.Name, resolvedTarget.Name)
		os.Exit(1)
	}

	var plan *planner.Plan

	if len(args) > 0 {
		planPath := args[0]

		if strings.HasSuffix(planPath, ".sql") || strings.HasSuffix(planPath, ".lp.sql") {
			fmt.Fprintf(os.Stderr, "Error: '%s' appears to be a schema file, not a migration plan.\n\n", planPath)
			fmt.Fprintf(os.Stderr, "Did you mean to use --schema?\n\n")
			fmt.Fprintf(os.Stderr, "  lockplane apply --target-environment %s --schema %s\n\n", resolvedTarget.Name, planPath)
			os.Exit(1)
		}
		if applySchema != "" {
			fmt.Fprintf(os.Stderr, "Warning: Ignoring --schema flag when applying a pre-generated plan file\n\n")
		}

		if applyVerbose {
			fmt.Fprintf(os.Stderr, "📄 Loading plan from: %s\n", planPath)
		}
		plan, err = loadJSONPlan(planPath)
		if err != nil {
			log.Fatalf("Failed to load migration plan: %v", err)
		}
		total := len(plan.Transactional) + len(plan.Concurrent) + len(plan.Deferred)
		_, _ = color.New(color.FgCyan).Fprintf(os.Stderr, "📋 Loaded migration plan with %d statements from %s\n", total, planPath)
	} else {
		schemaPath := strings.TrimSpace(applySchema)
		if schemaPath == "" && resolvedTarget.SchemaPath != "" {
			schemaPath = resolvedTarget.SchemaPath
		}
		if schemaPath == "" {
			if info, err := os.Stat("schema"); err == nil && info.IsDir() {
				schemaPath = "schema"
				fmt.Fprintf(os.Stderr, "ℹ️  Auto-detected schema directory: schema/\n")
			}
		}
		if schemaPath == "" {
			fmt.Fprintf(os.Stderr, "Error: --schema required when generating a plan.\n\n")
			fmt.Fprintf(os.Stderr, "Set schema_path in lockplane.toml or provide the flag explicitly.\n\n")
			os.Exit(1)
		}

		_, _ = color.New(color.FgCyan).Fprintf(os.Stderr, "🔍 Introspecting target database (%s)...\n", resolvedTarget.Name)
		before, err := introspect.LoadSchemaFromConnectionString(targetConnStr, nil)
		if err != nil {
			log.Fatalf("Failed to introspect target database: %v", err)
		}

		_, _ = color.New(color.FgCyan).Fprintf(os.Stderr, "📖 Loading desired schema from %s...\n", schemaPath)
		after, err := introspect.LoadSchemaOrIntrospect(schemaPath, nil)
		if err != nil {
			log.Fatalf("Failed to load schema: %v", err)
		}

		generatedPlan, err := planner.Generate(before, after)
		if err != nil {
			log.Fatalf("Failed to generate plan: %v", err)
		}
		plan = generatedPlan

		if !plan.HasChanges {
			_, _ = color.New(color.FgGreen).Fprintf(os.Stderr, "\n✓ No changes detected - database already matches desired schema\n")
			os.Exit(0)
		}

		printPlanSummary(plan)

		if !applyAutoApprove {
			if !confirmApply() {
				_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "\nApply cancelled.\n")
				os.Exit(0)
			}
			fmt.Fprintf(os.Stderr, "\n")
		}
	}

	targetDB, err := sql.Open("postgres", targetConnStr)
	if err != nil {
		log.Fatalf("Failed to connect to target database: %v", err)
	}
	defer func() { _ = targetDB.Close() }()

	if err := targetDB.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping target database: %v", err)
	}

	if applyVerbose {
		_, _ = color.New(color.FgCyan, color.Bold).Fprintf(os.Stderr, "\n🚀 Applying migration...\n\n")
	}

	result, err := applyPlanToDB(ctx, targetDB, plan, applyVerbose)
	if err != nil {
		red := color.New(color.FgRed, color.Bold)
		_, _ = red.Fprintf(os.Stderr, "\n❌ Migration failed: %v\n\n", err)
		if result != nil && len(result.Errors) > 0 {
			_, _ = red.Fprintf(os.Stderr, "Errors:\n")
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "  - %s\n", e)
			}
		}
		os.Exit(1)
	}

	green := color.New(color.FgGreen, color.Bold)
	_, _ = green.Fprintf(os.Stderr, "\n✅ Migration applied successfully!\n")
	_, _ = color.New(color.FgGreen).Fprintf(os.Stderr, "   Statements applied: %d\n", result.Applied)

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal result to JSON: %v", err)
	}
	fmt.Println(string(jsonBytes))
}

// loadJSONPlan reads a previously saved `lockplane plan` JSON document back
// into a Plan, the inverse of `json.MarshalIndent(plan, ...)`.
func loadJSONPlan(path string) (*planner.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	var plan planner.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}
	return &plan, nil
}

func printPlanSummary(plan *planner.Plan) {
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	total := len(plan.Transactional) + len(plan.Concurrent) + len(plan.Deferred)
	_, _ = cyan.Fprintf(os.Stderr, "\n📋 Migration plan (%d statements):\n\n", total)

	printPhase := func(phase string, stmts []string) {
		for _, stmt := range stmts {
			preview := stmt
			if len(preview) > 100 {
				preview = preview[:100] + "..."
			}
			_, _ = gray.Fprintf(os.Stderr, "  [%s] ", phase)
			_, _ = yellow.Fprintf(os.Stderr, "%s\n", preview)
		}
	}
	printPhase("transactional", plan.Transactional)
	printPhase("concurrent", plan.Concurrent)
	printPhase("deferred", plan.Deferred)
	fmt.Fprintf(os.Stderr, "\n")
}

func confirmApply() bool {
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(os.Stderr, "Do you want to perform these actions?\n")
	fmt.Fprintf(os.Stderr, "  Lockplane will perform the actions described above.\n")
	_, _ = color.New(color.FgYellow).Fprintf(os.Stderr, "  Only 'yes' will be accepted to approve.\n\n")
	fmt.Fprintf(os.Stderr, "  Enter a value: ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false
	}
	return response == "yes"
}
