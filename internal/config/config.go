package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// EnvironmentConfig describes a single named environment from lockplane.toml.
type EnvironmentConfig struct {
	// PostgresURL is the legacy single-URL key; DatabaseURL takes priority
	// when both are set.
	PostgresURL       string `toml:"postgres_url"`
	DatabaseURL       string `toml:"database_url"`
	ShadowDatabaseURL string `toml:"shadow_database_url"`
	ShadowSchema      string `toml:"shadow_schema"`
	SchemaPath        string `toml:"schema_path"`
}

// Config is the parsed contents of lockplane.toml, plus the top-level
// defaults an environment falls back to when it leaves a field unset.
type Config struct {
	DefaultEnvironment string                       `toml:"default_environment"`
	DatabaseURL        string                       `toml:"database_url"`
	ShadowDatabaseURL  string                       `toml:"shadow_database_url"`
	SchemaPath         string                       `toml:"schema_path"`
	Environments       map[string]EnvironmentConfig `toml:"environments"`
	ConfigFilePath     string                       `toml:"-"`
	configDir          string
}

// ConfigDir returns the directory containing lockplane.toml; relative paths
// in the config (schema_path, .env.<environment> files) resolve against it.
func (c *Config) ConfigDir() string {
	if c == nil {
		return ""
	}
	if c.configDir != "" {
		return c.configDir
	}
	if c.ConfigFilePath != "" {
		return filepath.Dir(c.ConfigFilePath)
	}
	return ""
}

// ProjectDir is the directory lockplane.toml was found in. Kept distinct
// from ConfigDir so callers meaning "the project root" read clearly even
// though the two happen to coincide today.
func (c *Config) ProjectDir() string {
	return c.ConfigDir()
}

// LoadConfig reads lockplane.toml from the current directory or its nearest
// ancestor (stopping at a project boundary: .git, go.mod, package.json). A
// missing file is not an error — it yields an empty Config so callers fall
// back to flags, environment variables, or built-in defaults.
func LoadConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return &Config{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	for name, env := range cfg.Environments {
		if env.DatabaseURL == "" && env.PostgresURL != "" {
			env.DatabaseURL = env.PostgresURL
			cfg.Environments[name] = env
		}
	}

	cfg.ConfigFilePath = configPath
	cfg.configDir = filepath.Dir(configPath)
	return &cfg, nil
}

func getConfigPath() (string, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := startDir
	for {
		configPath := filepath.Join(dir, "lockplane.toml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		if isProjectRoot(dir) {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("lockplane.toml not found")
}

// isProjectRoot reports whether dir looks like a repository root, based on
// common markers. LoadConfig stops climbing ancestors there so it never
// picks up an unrelated lockplane.toml from outside the project.
func isProjectRoot(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, "package.json")); err == nil {
		return true
	}
	return false
}

// GetSchemaDir returns the schema/ directory next to lockplane.toml, if any.
func GetSchemaDir() (string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return "", err
	}
	schemaDir := filepath.Join(filepath.Dir(configPath), "schema")
	if info, err := os.Stat(schemaDir); err == nil && info.IsDir() {
		return schemaDir, nil
	}
	return "", fmt.Errorf("schema directory not found; try creating schema/ next to lockplane.toml")
}
