// Package wizard implements the interactive setup wizard for `lockplane
// init`: it prompts for PostgreSQL connection details, tests the
// connection, and generates a lockplane.toml plus .env.<environment> files.
package wizard

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// New creates a new wizard model.
func New() *WizardModel {
	return &WizardModel{
		state:        StateWelcome,
		environments: []EnvironmentInput{},
		errors:       make(map[string]string),
		inputs:       []textinput.Model{},
	}
}

// Init initializes the wizard (Bubble Tea Init).
func (m *WizardModel) Init() tea.Cmd {
	return checkForExistingConfig
}

// Update handles state transitions (Bubble Tea Update).
func (m *WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if m.state == StateWelcome || m.state == StateCheckExisting {
				m.cancelled = true
				return m, tea.Quit
			}
			return m.handleBack()

		case "enter":
			return m.handleEnter()

		case "up", "k":
			return m.handleUp()

		case "down", "j":
			return m.handleDown()

		case "tab":
			return m.handleTab()

		default:
			return m.handleTextInput(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case connectionTestResultMsg:
		m.testingConnection = false
		if msg.err != nil {
			m.connectionError = msg.err
			m.connectionTestResult = "failed"
		} else {
			m.connectionTestResult = "success"
			m.connectionError = nil
		}
		return m, nil

	case fileCreationResultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = StateError
			return m, nil
		}
		m.result = msg.result
		m.state = StateDone
		return m, tea.Quit

	case existingConfigMsg:
		if msg.path != "" {
			m.existingConfigPath = msg.path
			m.existingEnvNames = msg.envNames
			m.allEnvironments = append([]string(nil), msg.envNames...)
			m.state = StateCheckExisting
		} else {
			m.state = StateWelcome
		}
		return m, nil
	}

	return m, nil
}

// View renders the wizard UI (Bubble Tea View).
func (m WizardModel) View() string {
	if m.cancelled {
		return labelStyle.Render("lockplane init cancelled")
	}

	switch m.state {
	case StateWelcome:
		return m.renderWelcome()
	case StateCheckExisting:
		return m.renderCheckExisting()
	case StateConnectionDetails:
		return m.renderConnectionDetails()
	case StateTestConnection:
		return m.renderTestConnection()
	case StateAddAnother:
		return m.renderAddAnother()
	case StateSummary:
		return m.renderSummary()
	case StateCreating:
		return m.renderCreating()
	case StateDone:
		return m.renderDone()
	case StateError:
		return m.renderError()
	default:
		return "Unknown state"
	}
}

// State transition handlers

func (m *WizardModel) handleEnter() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateWelcome:
		m.currentEnv = EnvironmentInput{DatabaseType: "postgres"}
		m.initializeInputs()
		m.state = StateConnectionDetails
		return m, nil

	case StateCheckExisting:
		m.currentEnv = EnvironmentInput{DatabaseType: "postgres"}
		m.initializeInputs()
		m.state = StateConnectionDetails
		return m, nil

	case StateConnectionDetails:
		if err := m.collectInputValues(); err != nil {
			return m, nil
		}
		m.testingConnection = true
		m.connectionTestResult = ""
		m.state = StateTestConnection
		return m, m.testConnection()

	case StateTestConnection:
		if m.testingConnection {
			return m, nil
		}
		if m.connectionTestResult == "failed" {
			switch m.retryChoice {
			case 0:
				m.testingConnection = true
				m.connectionTestResult = ""
				return m, m.testConnection()
			case 1:
				m.initializeInputs()
				m.state = StateConnectionDetails
				return m, nil
			default:
				m.cancelled = true
				return m, tea.Quit
			}
		}
		m.environments = append(m.environments, m.currentEnv)
		m.allEnvironments = append(m.allEnvironments, m.currentEnv.Name)
		m.addAnotherChoice = 1
		m.state = StateAddAnother
		return m, nil

	case StateAddAnother:
		if m.addAnotherChoice == 0 {
			m.currentEnv = EnvironmentInput{DatabaseType: "postgres"}
			m.initializeInputs()
			m.state = StateConnectionDetails
			return m, nil
		}
		m.state = StateSummary
		return m, nil

	case StateSummary:
		m.state = StateCreating
		return m, m.createFiles()

	case StateDone, StateError:
		return m, tea.Quit
	}

	return m, nil
}

func (m *WizardModel) handleUp() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateTestConnection:
		if m.retryChoice > 0 {
			m.retryChoice--
		}
	case StateAddAnother:
		if m.addAnotherChoice > 0 {
			m.addAnotherChoice--
		}
	case StateConnectionDetails:
		if m.focusIndex > 0 {
			m.focusIndex--
			m.updateInputFocus()
		}
	}
	return m, nil
}

func (m *WizardModel) handleDown() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateTestConnection:
		if m.retryChoice < 2 {
			m.retryChoice++
		}
	case StateAddAnother:
		if m.addAnotherChoice < 1 {
			m.addAnotherChoice++
		}
	case StateConnectionDetails:
		if m.focusIndex < len(m.inputs)-1 {
			m.focusIndex++
			m.updateInputFocus()
		}
	}
	return m, nil
}

func (m *WizardModel) handleTab() (tea.Model, tea.Cmd) {
	if m.state == StateConnectionDetails && len(m.inputs) > 0 {
		m.focusIndex = (m.focusIndex + 1) % len(m.inputs)
		m.updateInputFocus()
	}
	return m, nil
}

func (m *WizardModel) handleBack() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateConnectionDetails:
		m.state = StateWelcome
	case StateTestConnection:
		m.state = StateConnectionDetails
	case StateAddAnother:
		m.state = StateTestConnection
	case StateSummary:
		m.state = StateAddAnother
	}
	return m, nil
}

func (m *WizardModel) handleTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state != StateConnectionDetails || len(m.inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	return m, cmd
}

// Input management

func (m *WizardModel) initializeInputs() {
	m.inputs = []textinput.Model{
		m.makeInput("Environment name", "local", false),
		m.makeInput("Host", "localhost", false),
		m.makeInput("Port", "5432", false),
		m.makeInput("Database", "lockplane", false),
		m.makeInput("User", "lockplane", false),
		m.makeInput("Password", "lockplane", true),
	}
	m.focusIndex = 0
	m.updateInputFocus()
}

func (m *WizardModel) makeInput(placeholder, value string, isPassword bool) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.SetValue(value)
	input.Prompt = "→ "
	input.PromptStyle = blurredPromptStyle
	input.TextStyle = infoStyle
	input.Width = 50
	if isPassword {
		input.EchoMode = textinput.EchoPassword
		input.EchoCharacter = '•'
	}
	return input
}

func (m *WizardModel) updateInputFocus() {
	for i := range m.inputs {
		if i == m.focusIndex {
			m.inputs[i].Focus()
			m.inputs[i].PromptStyle = focusedPromptStyle
		} else {
			m.inputs[i].Blur()
			m.inputs[i].PromptStyle = blurredPromptStyle
		}
	}
}

func (m *WizardModel) collectInputValues() error {
	m.errors = make(map[string]string)
	if len(m.inputs) < 6 {
		return fmt.Errorf("not enough inputs")
	}

	name := strings.TrimSpace(m.inputs[0].Value())
	if err := ValidateEnvironmentName(name); err != nil {
		m.errors["name"] = err.Error()
		return err
	}
	m.currentEnv.Name = name
	m.currentEnv.Host = strings.TrimSpace(m.inputs[1].Value())

	port := strings.TrimSpace(m.inputs[2].Value())
	if err := ValidatePort(port); err != nil {
		m.errors["port"] = err.Error()
		return err
	}
	m.currentEnv.Port = port

	m.currentEnv.Database = strings.TrimSpace(m.inputs[3].Value())
	m.currentEnv.User = strings.TrimSpace(m.inputs[4].Value())
	m.currentEnv.Password = m.inputs[5].Value()
	m.currentEnv.SSLMode = defaultSSLMode(m.currentEnv.Host)
	m.currentEnv.ShadowDBPort = "5433"

	return nil
}

type connectionTestResultMsg struct{ err error }

func (m WizardModel) testConnection() tea.Cmd {
	env := m.currentEnv
	return func() tea.Msg {
		connStr := BuildPostgresConnectionString(env)
		return connectionTestResultMsg{err: TestConnection(connStr, "postgres")}
	}
}

type fileCreationResultMsg struct {
	result *InitResult
	err    error
}

func (m WizardModel) createFiles() tea.Cmd {
	environments := m.environments
	return func() tea.Msg {
		result, err := GenerateFiles(environments)
		return fileCreationResultMsg{result: result, err: err}
	}
}

type existingConfigMsg struct {
	path     string
	envNames []string
}

func checkForExistingConfig() tea.Msg {
	path := "lockplane.toml"
	if _, err := os.Stat(path); err != nil {
		return existingConfigMsg{}
	}
	names, err := getEnvironmentNames(path)
	if err != nil {
		return existingConfigMsg{}
	}
	return existingConfigMsg{path: path, envNames: names}
}

func getEnvironmentNames(configPath string) ([]string, error) {
	cfg, err := loadTOMLEnvironmentNames(configPath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Rendering

func (m WizardModel) renderWelcome() string {
	var b strings.Builder
	b.WriteString(renderHeader("Welcome to lockplane"))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("This wizard sets up a PostgreSQL connection for lockplane."))
	b.WriteString("\n\n")
	b.WriteString(renderCallToAction("Press enter to begin"))
	b.WriteString("\n")
	b.WriteString(renderStatusBar("esc: quit"))
	return b.String()
}

func (m WizardModel) renderCheckExisting() string {
	var b strings.Builder
	b.WriteString(renderHeader("Existing configuration found"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Found %s with environments: %s\n\n", m.existingConfigPath, strings.Join(m.existingEnvNames, ", ")))
	b.WriteString(labelStyle.Render("Press enter to add another environment, esc to quit."))
	return b.String()
}

func (m WizardModel) renderConnectionDetails() string {
	var b strings.Builder
	b.WriteString(renderSectionHeader(fmt.Sprintf("%s PostgreSQL connection", iconPostgres)))
	b.WriteString("\n\n")
	for i, input := range m.inputs {
		b.WriteString(input.View())
		if i < len(m.inputs)-1 {
			b.WriteString("\n")
		}
	}
	b.WriteString("\n\n")
	if len(m.errors) > 0 {
		for _, msg := range m.errors {
			b.WriteString(renderError(msg))
			b.WriteString("\n")
		}
	}
	b.WriteString(renderStatusBar("tab/↑↓: move · enter: continue · esc: back"))
	return b.String()
}

func (m WizardModel) renderTestConnection() string {
	var b strings.Builder
	b.WriteString(renderSectionHeader("Testing connection"))
	b.WriteString("\n\n")
	switch {
	case m.testingConnection:
		b.WriteString(fmt.Sprintf("%s Connecting to %s...\n", iconSpinner, m.currentEnv.Host))
	case m.connectionTestResult == "success":
		b.WriteString(renderSuccess("Connection succeeded"))
		b.WriteString("\n\n")
		b.WriteString(renderStatusBar("enter: continue"))
	case m.connectionTestResult == "failed":
		b.WriteString(renderError(fmt.Sprintf("Connection failed: %v", m.connectionError)))
		b.WriteString("\n\n")
		options := []string{"Retry", "Edit connection details", "Quit"}
		for i, opt := range options {
			b.WriteString(renderOption(i, i == m.retryChoice, opt))
			b.WriteString("\n")
		}
		b.WriteString(renderStatusBar("↑↓: choose · enter: confirm"))
	}
	return b.String()
}

func (m WizardModel) renderAddAnother() string {
	var b strings.Builder
	b.WriteString(renderSectionHeader("Add another environment?"))
	b.WriteString("\n\n")
	options := []string{"Add another environment", "Finish and save"}
	for i, opt := range options {
		b.WriteString(renderOption(i, i == m.addAnotherChoice, opt))
		b.WriteString("\n")
	}
	b.WriteString(renderStatusBar("↑↓: choose · enter: confirm"))
	return b.String()
}

func (m WizardModel) renderSummary() string {
	var b strings.Builder
	b.WriteString(renderSectionHeader("Summary"))
	b.WriteString("\n\n")
	for _, env := range m.environments {
		b.WriteString(fmt.Sprintf("%s %s: %s\n", iconDatabase, env.Name, formatPrimaryConnection(env)))
		b.WriteString(fmt.Sprintf("   shadow: %s\n", formatShadowConfiguration(env)))
	}
	b.WriteString("\n")
	b.WriteString(renderCallToAction("Press enter to write lockplane.toml and .env files"))
	return b.String()
}

func formatPrimaryConnection(env EnvironmentInput) string {
	return fmt.Sprintf("%s@%s:%s/%s", env.User, env.Host, env.Port, env.Database)
}

func formatShadowConfiguration(env EnvironmentInput) string {
	port := fallback(env.ShadowDBPort, "5433")
	return fmt.Sprintf("%s_shadow on port %s", env.Database, port)
}

func fallback(value, alt string) string {
	if strings.TrimSpace(value) == "" {
		return alt
	}
	return value
}

func defaultSSLMode(host string) string {
	if host == "localhost" || host == "127.0.0.1" {
		return "disable"
	}
	return "require"
}

func (m WizardModel) renderCreating() string {
	return renderSectionHeader(fmt.Sprintf("%s Writing configuration...", iconSpinner))
}

func (m WizardModel) renderDone() string {
	var b strings.Builder
	b.WriteString(renderSuccess("lockplane is ready"))
	b.WriteString("\n\n")
	if m.result != nil {
		b.WriteString(fmt.Sprintf("%s %s\n", iconFiles, m.result.ConfigPath))
		for _, f := range m.result.EnvFiles {
			b.WriteString(fmt.Sprintf("%s %s\n", iconFiles, f))
		}
	}
	b.WriteString("\n")
	b.WriteString(renderInfo("Run `lockplane plan` to see your migration plan."))
	return b.String()
}

func (m WizardModel) renderError() string {
	return renderError(fmt.Sprintf("%v", m.err))
}

// Run launches the interactive wizard. The force and yes arguments are
// accepted but ignored: the wizard always prompts, and environments already
// in an existing lockplane.toml are merged with the new ones, not
// overwritten.
func Run(force, yes bool) error {
	_ = force
	_ = yes
	p := tea.NewProgram(New())
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}
	m, ok := finalModel.(*WizardModel)
	if !ok {
		return fmt.Errorf("unexpected wizard model type")
	}
	if m.err != nil {
		return m.err
	}
	return nil
}
