package wizard

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestWizardModel_InitialState(t *testing.T) {
	m := New()
	if m.state != StateWelcome {
		t.Errorf("expected initial state StateWelcome, got %v", m.state)
	}
}

func TestWizardModel_WelcomeToConnectionDetails(t *testing.T) {
	m := New()
	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	wm := model.(*WizardModel)
	if wm.state != StateConnectionDetails {
		t.Errorf("expected StateConnectionDetails after enter from welcome, got %v", wm.state)
	}
	if len(wm.inputs) != 6 {
		t.Errorf("expected 6 inputs to be initialized, got %d", len(wm.inputs))
	}
}

func TestWizardModel_EscFromWelcomeCancels(t *testing.T) {
	m := New()
	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	wm := model.(*WizardModel)
	if !wm.cancelled {
		t.Error("expected wizard to be cancelled on esc from welcome")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
}

func TestWizardModel_ConnectionDetailsValidation(t *testing.T) {
	m := New()
	m.state = StateConnectionDetails
	m.initializeInputs()

	// Leave environment name blank - should fail validation and stay on the same state.
	m.inputs[0].SetValue("")
	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	wm := model.(*WizardModel)
	if wm.state != StateConnectionDetails {
		t.Errorf("expected to remain on StateConnectionDetails with invalid input, got %v", wm.state)
	}
}

func TestWizardModel_CollectInputValues(t *testing.T) {
	m := New()
	m.state = StateConnectionDetails
	m.currentEnv = EnvironmentInput{DatabaseType: "postgres"}
	m.initializeInputs()

	m.inputs[0].SetValue("staging")
	m.inputs[1].SetValue("db.example.com")
	m.inputs[2].SetValue("5432")
	m.inputs[3].SetValue("app")
	m.inputs[4].SetValue("app_user")
	m.inputs[5].SetValue("secret")

	if err := m.collectInputValues(); err != nil {
		t.Fatalf("collectInputValues() error = %v", err)
	}
	if m.currentEnv.Name != "staging" {
		t.Errorf("Name = %q, want staging", m.currentEnv.Name)
	}
	if m.currentEnv.SSLMode != "require" {
		t.Errorf("SSLMode = %q, want require for remote host", m.currentEnv.SSLMode)
	}
	if m.currentEnv.ShadowDBPort != "5433" {
		t.Errorf("ShadowDBPort = %q, want 5433", m.currentEnv.ShadowDBPort)
	}
}

func TestWizardModel_ConnectionTestResultTransitions(t *testing.T) {
	m := New()
	m.state = StateTestConnection
	m.testingConnection = true

	model, _ := m.Update(connectionTestResultMsg{err: nil})
	wm := model.(*WizardModel)
	if wm.testingConnection {
		t.Error("expected testingConnection to be false after result")
	}
	if wm.connectionTestResult != "success" {
		t.Errorf("connectionTestResult = %q, want success", wm.connectionTestResult)
	}

	model2, _ := wm.Update(connectionTestResultMsg{err: fmt.Errorf("boom")})
	wm2 := model2.(*WizardModel)
	if wm2.connectionTestResult != "failed" {
		t.Errorf("connectionTestResult = %q, want failed", wm2.connectionTestResult)
	}
}

func TestWizardModel_FileCreationResultSuccess(t *testing.T) {
	m := New()
	m.state = StateCreating
	result := &InitResult{ConfigPath: "lockplane.toml"}

	model, cmd := m.Update(fileCreationResultMsg{result: result})
	wm := model.(*WizardModel)
	if wm.state != StateDone {
		t.Errorf("expected StateDone, got %v", wm.state)
	}
	if cmd == nil {
		t.Error("expected tea.Quit command on success")
	}
}

func TestWizardModel_FileCreationResultError(t *testing.T) {
	m := New()
	m.state = StateCreating

	model, _ := m.Update(fileCreationResultMsg{err: fmt.Errorf("disk full")})
	wm := model.(*WizardModel)
	if wm.state != StateError {
		t.Errorf("expected StateError, got %v", wm.state)
	}
	if wm.err == nil {
		t.Error("expected err to be set")
	}
}

func TestWizardModel_ExistingConfigDetection(t *testing.T) {
	m := New()

	model, _ := m.Update(existingConfigMsg{path: "lockplane.toml", envNames: []string{"local", "staging"}})
	wm := model.(*WizardModel)
	if wm.state != StateCheckExisting {
		t.Errorf("expected StateCheckExisting, got %v", wm.state)
	}
	if len(wm.existingEnvNames) != 2 {
		t.Errorf("expected 2 existing environment names, got %d", len(wm.existingEnvNames))
	}

	model2, _ := wm.Update(existingConfigMsg{})
	wm2 := model2.(*WizardModel)
	if wm2.state != StateWelcome {
		t.Errorf("expected StateWelcome when no existing config, got %v", wm2.state)
	}
}

func TestWizardModel_View_DoesNotPanic(t *testing.T) {
	states := []WizardState{
		StateWelcome, StateCheckExisting, StateConnectionDetails, StateTestConnection,
		StateAddAnother, StateSummary, StateCreating, StateDone, StateError,
	}
	for _, s := range states {
		m := New()
		m.state = s
		if s == StateConnectionDetails {
			m.initializeInputs()
		}
		if view := m.View(); view == "" {
			t.Errorf("expected non-empty view for state %v", s)
		}
	}
}

func TestWizardModel_View_Cancelled(t *testing.T) {
	m := New()
	m.cancelled = true
	if view := m.View(); view == "" {
		t.Error("expected non-empty view when cancelled")
	}
}

func TestFormatPrimaryConnection(t *testing.T) {
	env := EnvironmentInput{User: "app", Host: "localhost", Port: "5432", Database: "app_db"}
	got := formatPrimaryConnection(env)
	want := "app@localhost:5432/app_db"
	if got != want {
		t.Errorf("formatPrimaryConnection() = %q, want %q", got, want)
	}
}

func TestFormatShadowConfiguration(t *testing.T) {
	env := EnvironmentInput{Database: "app_db"}
	got := formatShadowConfiguration(env)
	want := "app_db_shadow on port 5433"
	if got != want {
		t.Errorf("formatShadowConfiguration() = %q, want %q", got, want)
	}
}

func TestDefaultSSLMode(t *testing.T) {
	if got := defaultSSLMode("localhost"); got != "disable" {
		t.Errorf("defaultSSLMode(localhost) = %q, want disable", got)
	}
	if got := defaultSSLMode("127.0.0.1"); got != "disable" {
		t.Errorf("defaultSSLMode(127.0.0.1) = %q, want disable", got)
	}
	if got := defaultSSLMode("db.example.com"); got != "require" {
		t.Errorf("defaultSSLMode(db.example.com) = %q, want require", got)
	}
}
