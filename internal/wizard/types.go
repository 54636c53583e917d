package wizard

import (
	"github.com/charmbracelet/bubbles/textinput"
)

// WizardState represents the current step in the wizard flow.
type WizardState int

const (
	StateWelcome WizardState = iota
	StateCheckExisting
	StateConnectionDetails
	StateTestConnection
	StateAddAnother
	StateSummary
	StateCreating
	StateDone
	StateError
)

// WizardModel holds the state for the Bubble Tea wizard.
type WizardModel struct {
	state WizardState

	cancelled bool

	// Existing config detection
	existingConfigPath string
	existingEnvNames   []string
	allEnvironments    []string // all environment names (existing + new)

	// Current environment being configured
	currentEnv   EnvironmentInput
	environments []EnvironmentInput // new environments being added

	// Connection testing
	testingConnection    bool
	connectionTestResult string
	connectionError      error
	retryChoice          int // 0=retry, 1=edit, 2=quit

	// Add another environment choice
	addAnotherChoice int // 0=add another, 1=finish and save

	// Input fields (bubbletea textinput)
	inputs     []textinput.Model
	focusIndex int

	// Validation
	errors map[string]string

	// Final output
	result *InitResult
	err    error

	// Terminal dimensions
	width  int
	height int
}

// EnvironmentInput holds user input for a single environment. Lockplane
// targets PostgreSQL exclusively (spec §1 scopes the non-Postgres provider
// shim out), so DatabaseType is always "postgres".
type EnvironmentInput struct {
	Name         string
	Description  string
	DatabaseType string

	Host         string
	Port         string
	Database     string
	User         string
	Password     string
	SSLMode      string
	ShadowDBPort string

	SchemaPath string
}

// InitResult contains the outcome of running the wizard.
type InitResult struct {
	ConfigPath        string
	ConfigCreated     bool
	ConfigUpdated     bool
	EnvFiles          []string
	SchemaDir         string
	SchemaDirCreated  bool
	GitignoreUpdated  bool
	EnvExampleCreated bool
	EnvExampleUpdated bool
}

// DatabaseType represents a database option.
type DatabaseType struct {
	ID          string
	DisplayName string
	Description string
	Icon        string
}

// DatabaseTypes lists the supported database engines. Lockplane targets
// PostgreSQL exclusively; this stays a slice of one so the wizard's
// rendering code doesn't need a special case for a fixed choice.
var DatabaseTypes = []DatabaseType{
	{
		ID:          "postgres",
		DisplayName: "PostgreSQL",
		Description: "recommended for production",
		Icon:        "🐘",
	},
}
