package policy

import (
	"embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

//go:embed templates/*.md
var templateFiles embed.FS

const (
	configurationDirectoryName     = ".sesslint"
	policyFileNameConstant         = "policy.md"
	configurationDirectoryModeBits = 0o755
	policyFileModeBitsConstant     = 0o644
	policyNotFoundErrorTemplate    = "no policy found at %s"
	unknownPersonaErrorTemplate    = "unknown persona %q, choose one of: %v"
	editorEnvironmentNameConstant  = "EDITOR"
	visualEnvironmentNameConstant  = "VISUAL"
	fallbackEditorConstant         = "nano"
	templatePathTemplateConstant   = "templates/policy_%s.md"
)

// PersonaSelf and PersonaTeam name the bundled policy templates.
const (
	PersonaSelf = "self"
	PersonaTeam = "team"
)

// Personas lists the bundled persona templates in presentation order.
var Personas = []string{PersonaSelf, PersonaTeam}

// PolicyNotFoundError reports a missing policy document.
type PolicyNotFoundError struct {
	PolicyPath string
}

// Error names the expected policy location.
func (notFound PolicyNotFoundError) Error() string {
	return fmt.Sprintf(policyNotFoundErrorTemplate, notFound.PolicyPath)
}

// UnknownPersonaError reports a persona outside the bundled template set.
type UnknownPersonaError struct {
	Persona string
}

// Error names the unrecognized persona and the valid choices.
func (unknownPersona UnknownPersonaError) Error() string {
	return fmt.Sprintf(unknownPersonaErrorTemplate, unknownPersona.Persona, Personas)
}

// Store reads and installs the policy document under a configuration
// directory.
type Store struct {
	configurationDirectory string
}

// NewStore constructs a Store rooted at the provided configuration directory.
func NewStore(configurationDirectory string) *Store {
	return &Store{configurationDirectory: configurationDirectory}
}

// PolicyPath returns the absolute policy document location.
func (store *Store) PolicyPath() string {
	return filepath.Join(store.configurationDirectory, policyFileNameConstant)
}

// Exists reports whether a policy document is installed.
func (store *Store) Exists() bool {
	_, statError := os.Stat(store.PolicyPath())
	return statError == nil
}

// Install writes the bundled template for the persona to the policy path,
// creating the configuration directory when needed.
func (store *Store) Install(persona string) error {
	templateBytes, templateError := templateFiles.ReadFile(fmt.Sprintf(templatePathTemplateConstant, persona))
	if templateError != nil {
		return UnknownPersonaError{Persona: persona}
	}

	if directoryError := os.MkdirAll(store.configurationDirectory, configurationDirectoryModeBits); directoryError != nil {
		return directoryError
	}

	return os.WriteFile(store.PolicyPath(), templateBytes, policyFileModeBitsConstant)
}

// Read returns the installed policy text or PolicyNotFoundError.
func (store *Store) Read() (string, error) {
	policyBytes, readError := os.ReadFile(store.PolicyPath())
	if readError != nil {
		if os.IsNotExist(readError) {
			return "", PolicyNotFoundError{PolicyPath: store.PolicyPath()}
		}
		return "", readError
	}
	return string(policyBytes), nil
}

// OpenInEditor launches the user's editor on the policy document, resolving
// $EDITOR then $VISUAL before falling back to nano.
func (store *Store) OpenInEditor() error {
	if !store.Exists() {
		return PolicyNotFoundError{PolicyPath: store.PolicyPath()}
	}

	editorName := os.Getenv(editorEnvironmentNameConstant)
	if len(editorName) == 0 {
		editorName = os.Getenv(visualEnvironmentNameConstant)
	}
	if len(editorName) == 0 {
		editorName = fallbackEditorConstant
	}

	editorCommand := exec.Command(editorName, store.PolicyPath())
	editorCommand.Stdin = os.Stdin
	editorCommand.Stdout = os.Stdout
	editorCommand.Stderr = os.Stderr
	return editorCommand.Run()
}
