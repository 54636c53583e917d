package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lockplane/lockplane/internal/strutil"
)

var rootCmd = &cobra.Command{
	Use:   "lockplane",
	Short: "Postgres-first database schema management",
	Long:  `Lockplane is a tool for managing PostgreSQL schema migrations.`,
	// Suggestions are generated by strutil.FindClosestCommand below instead
	// of cobra's built-in Levenshtein matcher.
	DisableSuggestions: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		suggestCommand(err)
		os.Exit(1)
	}
}

// suggestCommand prints a "did you mean" hint for an unrecognized
// subcommand, using strutil's edit-distance matcher against every
// registered top-level command name.
func suggestCommand(err error) {
	const prefix = "unknown command "
	msg := err.Error()
	idx := strings.Index(msg, prefix)
	if idx < 0 {
		return
	}

	rest := strings.TrimPrefix(msg[idx:], prefix)
	typed := strings.Trim(strings.SplitN(rest, " ", 2)[0], `"`)
	if typed == "" {
		return
	}

	var names []string
	for _, c := range rootCmd.Commands() {
		if !c.IsAvailableCommand() {
			continue
		}
		names = append(names, c.Name())
	}

	if match, dist := strutil.FindClosestCommand(typed, names, 3); dist >= 0 {
		fmt.Fprintf(os.Stderr, "\nDid you mean this?\n\t%s\n", match)
	}
}
