// Package validation implements `lockplane validate plan`: checking that a
// migration plan JSON file parses into a well-formed planner.Plan.
package validation

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/lockplane/lockplane/internal/planner"
)

// PlanValidationIssue represents a validation error or warning for plans.
type PlanValidationIssue struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"` // "error" or "warning"
	Message  string `json:"message"`
	Code     string `json:"code,omitempty"`
}

// PlanValidationResult contains all validation issues for plan files.
type PlanValidationResult struct {
	Valid  bool                  `json:"valid"`
	Issues []PlanValidationIssue `json:"issues"`
}

// RunValidatePlan loads the plan file named by args and reports whether it
// parses into a well-formed planner.Plan.
func RunValidatePlan(args []string) {
	fs := flag.NewFlagSet("validate plan", flag.ExitOnError)
	formatFlag := fs.String("format", "text", "Output format: text or json")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lockplane validate plan [options] <file>\n\n")
		fmt.Fprintf(os.Stderr, "Validate a migration plan JSON file.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Validate plan file (text output)\n")
		fmt.Fprintf(os.Stderr, "  lockplane validate plan migration.json\n\n")
		fmt.Fprintf(os.Stderr, "  # Validate with JSON output\n")
		fmt.Fprintf(os.Stderr, "  lockplane validate plan --format json migration.json\n\n")
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	var plan planner.Plan
	if err == nil {
		err = json.Unmarshal(data, &plan)
	}
	if err != nil {
		if *formatFlag == "json" {
			result := PlanValidationResult{
				Valid: false,
				Issues: []PlanValidationIssue{
					{
						File:     path,
						Line:     1,
						Column:   1,
						Severity: "error",
						Message:  err.Error(),
						Code:     "plan_validation_error",
					},
				},
			}
			jsonBytes, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(jsonBytes))
		} else {
			fmt.Fprintf(os.Stderr, "✗ Plan validation failed: %s\n\n", path)
			fmt.Fprintf(os.Stderr, "  %s\n", err.Error())
		}
		os.Exit(1)
	}

	if *formatFlag == "json" {
		result := PlanValidationResult{
			Valid:  true,
			Issues: []PlanValidationIssue{},
		}
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal validation result: %v", err)
		}
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Fprintf(os.Stderr, "✓ Plan is valid: %s\n", path)
	}
}
