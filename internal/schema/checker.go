package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lockplane/lockplane/diagnostic"
	"github.com/lockplane/lockplane/internal/parser"
)

// checkReport is the JSON shape `lockplane check` prints: a flat
// diagnostics list plus a summary, mirroring the IDE-facing diagnostics
// shape `lockplane plan --check-schema` already emits.
type checkReport struct {
	Diagnostics []checkDiagnostic `json:"diagnostics"`
	Summary     checkSummary      `json:"summary"`
}

type checkDiagnostic struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Code     string `json:"code"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

type checkSummary struct {
	Errors   int  `json:"errors"`
	Warnings int  `json:"warnings"`
	Valid    bool `json:"valid"`
}

// CheckSchema parses the .lp.sql file or directory at path and returns a
// JSON report of every parse diagnostic (errors and warnings), without
// requiring a database connection. Unlike LoadSchema, a parse error does
// not fail the call — the report is the point.
func CheckSchema(path string) (string, error) {
	var sqlText string
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		data, readErr := concatSQLDir(path)
		if readErr != nil {
			return "", readErr
		}
		sqlText = data
	} else {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return "", readErr
		}
		sqlText = string(data)
	}

	diag := diagnostic.NewCollector(path, sqlText)
	_, _ = parser.ParseSQLSchema(sqlText, diag)

	report := checkReport{}
	for _, d := range diag.All() {
		sev := d.Severity.String()
		report.Diagnostics = append(report.Diagnostics, checkDiagnostic{
			Severity: sev,
			Message:  d.Message,
			Code:     d.Code,
			Line:     d.Range.Start.Line + 1,
			Column:   d.Range.Start.Character + 1,
		})
		switch d.Severity {
		case diagnostic.SeverityError:
			report.Summary.Errors++
		case diagnostic.SeverityWarning:
			report.Summary.Warnings++
		}
	}
	report.Summary.Valid = report.Summary.Errors == 0

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}

// concatSQLDir reproduces loadSchemaFromDir's file-concatenation shape but
// returns raw text instead of a parsed Schema, so CheckSchema can report
// diagnostics even when the directory fails to parse as a whole.
func concatSQLDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".lp.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var out strings.Builder
	for _, name := range names {
		data, readErr := os.ReadFile(filepath.Join(dir, name))
		if readErr != nil {
			return "", readErr
		}
		out.Write(data)
		out.WriteByte('\n')
	}
	return out.String(), nil
}
