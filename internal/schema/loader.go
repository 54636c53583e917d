package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lockplane/lockplane/database"
	"github.com/lockplane/lockplane/diagnostic"
	"github.com/lockplane/lockplane/internal/parser"
	"github.com/xeipuuv/gojsonschema"
)

// LoadSchema loads a schema from a JSON file, a SQL DDL file (.lp.sql), or
// a directory of .lp.sql files concatenated in sorted filename order.
func LoadSchema(path string) (*database.Schema, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return loadSchemaFromDir(path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".sql" && strings.HasSuffix(strings.ToLower(path), ".lp.sql") {
		return LoadSQLSchema(path)
	}
	return LoadJSONSchema(path)
}

// LoadSQLSchema loads a schema from a SQL DDL file.
func LoadSQLSchema(path string) (*database.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read SQL file: %w", err)
	}
	return LoadSQLSchemaFromBytes(path, data)
}

// LoadSQLSchemaFromBytes loads a schema from SQL DDL text, using source for
// diagnostic reporting only.
func LoadSQLSchemaFromBytes(source string, data []byte) (*database.Schema, error) {
	diag := diagnostic.NewCollector(source, string(data))
	sch, err := parser.ParseSQLSchema(string(data), diag)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SQL DDL: %w", err)
	}
	if diag.HasErrors() {
		var msgs []string
		for _, d := range diag.Errors() {
			msgs = append(msgs, d.FormatMessage(true))
		}
		return nil, fmt.Errorf("failed to parse SQL DDL:\n%s", strings.Join(msgs, "\n"))
	}
	return sch, nil
}

func loadSchemaFromDir(dir string) (*database.Schema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory %s: %w", dir, err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if entry.IsDir() || entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		name := strings.ToLower(entry.Name())
		if strings.HasSuffix(name, ".lp.sql") {
			sqlFiles = append(sqlFiles, filepath.Join(dir, entry.Name()))
		}
	}
	if len(sqlFiles) == 0 {
		return nil, fmt.Errorf("no .lp.sql files found in directory %s", dir)
	}
	sort.Strings(sqlFiles)

	var builder strings.Builder
	for _, file := range sqlFiles {
		data, readErr := os.ReadFile(file)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read SQL file %s: %w", file, readErr)
		}
		builder.WriteString(fmt.Sprintf("-- File: %s\n", file))
		builder.Write(data)
		if len(data) == 0 || data[len(data)-1] != '\n' {
			builder.WriteByte('\n')
		}
		builder.WriteByte('\n')
	}

	return LoadSQLSchemaFromBytes(dir, []byte(builder.String()))
}

// LoadJSONSchema loads and validates a JSON schema file, returning a Schema.
func LoadJSONSchema(path string) (*database.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}

	schemaPath, statErr := filepath.Abs("schema-json/schema.json")
	if statErr == nil {
		if _, err := os.Stat(schemaPath); err == nil {
			schemaLoader := gojsonschema.NewReferenceLoader("file://" + schemaPath)
			documentLoader := gojsonschema.NewStringLoader(string(data))
			if result, valErr := gojsonschema.Validate(schemaLoader, documentLoader); valErr == nil && !result.Valid() {
				errMsg := "JSON Schema validation failed:\n"
				for _, desc := range result.Errors() {
					errMsg += fmt.Sprintf("- %s\n", desc)
				}
				return nil, fmt.Errorf("%s", errMsg)
			}
		}
	}

	var sch database.Schema
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&sch); err != nil {
		return nil, fmt.Errorf("failed to parse schema JSON: %w", err)
	}
	return &sch, nil
}

// SaveJSONSchema writes a schema to path as indented JSON, for the
// `lockplane convert` export path.
func SaveJSONSchema(path string, sch *database.Schema) error {
	data, err := json.MarshalIndent(sch, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ValidateJSONSchema validates a JSON file without returning the schema.
func ValidateJSONSchema(path string) error {
	_, err := LoadJSONSchema(path)
	return err
}
