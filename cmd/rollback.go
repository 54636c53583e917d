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

// rollback generates and applies a reversing migration: the plan that
// takes the target database's current (post-migration) schema back to a
// previously known "before" schema. It reuses the same planner.Generate
// the forward direction uses, with current/desired swapped.
var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Generate and apply a rollback migration",
	Long: `Generate a rollback plan that undoes a forward migration and apply it.

The --from flag specifies the "before" schema state (the schema that
existed before the forward migration was applied). Rollback diffs the
target database's current schema against this before state and applies
the reversing plan.`,
	Example: `  # Rollback to a previously saved schema snapshot
  lockplane rollback --from before.json --target-environment local

  # Rollback using an environment for the before state
  lockplane rollback --from-environment staging --target-environment production`,
	Run: runRollback,
}

var planRollbackCmd = &cobra.Command{
	Use:   "plan-rollback",
	Short: "Generate a rollback plan without applying it",
	Long: `Generate a rollback plan that undoes a forward migration, without
applying it. Outputs a plan JSON file that can be reviewed, saved, and
applied later with 'lockplane apply'.`,
	Example: `  # Generate a rollback plan to review or save
  lockplane plan-rollback --from before.json --target-environment local > rollback.json`,
	Run: runPlanRollback,
}

var (
	rollbackFrom        string
	rollbackFromEnv     string
	rollbackTarget      string
	rollbackTargetEnv   string
	rollbackAutoApprove bool
	rollbackVerbose     bool

	planRollbackFrom      string
	planRollbackFromEnv   string
	planRollbackTarget    string
	planRollbackTargetEnv string
	planRollbackVerbose   bool
)

func init() {
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(planRollbackCmd)

	rollbackCmd.Flags().StringVar(&rollbackFrom, "from", "", "Before schema (file, directory, or database URL)")
	rollbackCmd.Flags().StringVar(&rollbackFromEnv, "from-environment", "", "Environment providing the before schema")
	rollbackCmd.Flags().StringVar(&rollbackTarget, "target", "", "Target database URL")
	rollbackCmd.Flags().StringVar(&rollbackTargetEnv, "target-environment", "", "Target environment name")
	rollbackCmd.Flags().BoolVar(&rollbackAutoApprove, "auto-approve", false, "Skip interactive approval")
	rollbackCmd.Flags().BoolVarP(&rollbackVerbose, "verbose", "v", false, "Verbose logging")

	planRollbackCmd.Flags().StringVar(&planRollbackFrom, "from", "", "Before schema (file, directory, or database URL)")
	planRollbackCmd.Flags().StringVar(&planRollbackFromEnv, "from-environment", "", "Environment providing the before schema")
	planRollbackCmd.Flags().StringVar(&planRollbackTarget, "target", "", "Target database URL")
	planRollbackCmd.Flags().StringVar(&planRollbackTargetEnv, "target-environment", "", "Target environment name")
	planRollbackCmd.Flags().BoolVarP(&planRollbackVerbose, "verbose", "v", false, "Verbose logging")
}

// resolveRollbackTarget resolves --target/--target-environment the same
// way apply does.
func resolveRollbackTarget(targetFlag, targetEnvFlag string) (connStr string, envName string) {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	resolved, err := config.ResolveEnvironment(cfg, targetEnvFlag)
	if err != nil {
		log.Fatalf("Failed to resolve target environment: %v", err)
	}
	connStr = strings.TrimSpace(targetFlag)
	if connStr == "" {
		connStr = resolved.DatabaseURL
	}
	if connStr == "" {
		fmt.Fprintf(os.Stderr, "Error: no target database configured.\n\n")
		fmt.Fprintf(os.Stderr, "Provide --target or configure environment %q via lockplane.toml/.env.%s.\n", resolved.Name, resolved.Name)
		os.Exit(1)
	}
	return connStr, resolved.Name
}

// resolveBeforeInput resolves --from/--from-environment into a schema
// source (file path, directory, or connection string).
func resolveBeforeInput(fromFlag, fromEnvFlag string) string {
	input := strings.TrimSpace(fromFlag)
	if input != "" {
		return input
	}
	envName := strings.TrimSpace(fromEnvFlag)
	if envName == "" {
		fmt.Fprintf(os.Stderr, "Error: --from or --from-environment is required.\n\n")
		fmt.Fprintf(os.Stderr, "Rollback needs the schema that existed BEFORE the forward migration:\n")
		fmt.Fprintf(os.Stderr, "  - Provide --from with a schema file/directory saved before the migration\n")
		fmt.Fprintf(os.Stderr, "  - Provide --from-environment pointing to a database with the original state\n")
		os.Exit(1)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	resolvedFrom, err := config.ResolveEnvironment(cfg, envName)
	if err != nil {
		log.Fatalf("Failed to resolve from environment: %v", err)
	}
	if resolvedFrom.DatabaseURL == "" {
		log.Fatalf("Environment %q does not define a database URL", resolvedFrom.Name)
	}
	return resolvedFrom.DatabaseURL
}

func generateRollbackPlan(targetConnStr, beforeInput string, verbose bool) *planner.Plan {
	if verbose {
		fmt.Fprintf(os.Stderr, "🔍 Introspecting target database...\n")
	}
	current, err := introspect.LoadSchemaFromConnectionString(targetConnStr, nil)
	if err != nil {
		log.Fatalf("Failed to introspect target database: %v", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "🔍 Loading 'before' schema from: %s\n", beforeInput)
	}
	before, err := introspect.LoadSchemaOrIntrospect(beforeInput, nil)
	if err != nil {
		log.Fatalf("Failed to load before schema: %v", err)
	}

	plan, err := planner.Generate(current, before)
	if err != nil {
		log.Fatalf("Failed to generate rollback plan: %v", err)
	}
	return plan
}

func runRollback(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	targetConnStr, targetName := resolveRollbackTarget(rollbackTarget, rollbackTargetEnv)
	beforeInput := resolveBeforeInput(rollbackFrom, rollbackFromEnv)

	plan := generateRollbackPlan(targetConnStr, beforeInput, rollbackVerbose)

	red := color.New(color.FgRed, color.Bold)
	if !plan.HasChanges {
		_, _ = color.New(color.FgGreen).Fprintf(os.Stderr, "✓ No changes - database already matches the before schema\n")
		return
	}
	total := len(plan.Transactional) + len(plan.Concurrent) + len(plan.Deferred)
	_, _ = red.Fprintf(os.Stderr, "\n🔄 Rollback plan (%d statements):\n\n", total)
	fmt.Fprintf(os.Stderr, "This will UNDO the changes made since the before schema.\n\n")
	printPlanSummary(plan)

	if !rollbackAutoApprove {
		bold := color.New(color.Bold)
		_, _ = bold.Fprintf(os.Stderr, "Do you want to perform this rollback?\n")
		_, _ = color.New(color.FgYellow).Fprintf(os.Stderr, "  Only 'yes' will be accepted to approve.\n\n")
		fmt.Fprintf(os.Stderr, "  Enter a value: ")
		var response string
		if _, err := fmt.Scanln(&response); err != nil || response != "yes" {
			_, _ = red.Fprintf(os.Stderr, "\nRollback cancelled.\n")
			return
		}
		fmt.Fprintf(os.Stderr, "\n")
	}

	targetDB, err := sql.Open("postgres", targetConnStr)
	if err != nil {
		log.Fatalf("Failed to connect to target database %q: %v", targetName, err)
	}
	defer func() { _ = targetDB.Close() }()
	if err := targetDB.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping target database: %v", err)
	}

	result, err := applyPlanToDB(ctx, targetDB, plan, rollbackVerbose)
	if err != nil {
		_, _ = red.Fprintf(os.Stderr, "\n❌ Rollback failed: %v\n\n", err)
		if result != nil {
			for _, e := range result.Errors {
				fmt.Fprintf(os.Stderr, "  - %s\n", e)
			}
		}
		os.Exit(1)
	}

	green := color.New(color.FgGreen, color.Bold)
	_, _ = green.Fprintf(os.Stderr, "\n✓ Rollback completed successfully!\n")
	fmt.Fprintf(os.Stderr, "  Statements applied: %d\n", result.Applied)
}

func runPlanRollback(cmd *cobra.Command, args []string) {
	targetConnStr, _ := resolveRollbackTarget(planRollbackTarget, planRollbackTargetEnv)
	beforeInput := resolveBeforeInput(planRollbackFrom, planRollbackFromEnv)

	plan := generateRollbackPlan(targetConnStr, beforeInput, planRollbackVerbose)

	jsonBytes, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal rollback plan: %v", err)
	}
	fmt.Println(string(jsonBytes))
}
