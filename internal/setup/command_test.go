package setup_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/sesslint/internal/hook"
	"github.com/temirov/sesslint/internal/setup"
)

const (
	settingsFileNameConstant       = "settings.json"
	presentBinaryPathConstant      = "/usr/local/bin/claude"
	selfPersonaAnswerConstant      = "1\n"
	teamPersonaAnswerConstant      = "team\n"
	declineOverwriteAnswerConstant = "n\n"
	acceptHookAnswerConstant       = "y\n"
	declineHookAnswerConstant      = "n\n"
	existingPolicyContentConstant  = "# Custom rules\n"
	wizardDoneFragmentConstant     = "Done! Run 'sesslint check'"
	claudeFoundFragmentConstant    = "[ok] claude CLI found"
	claudeMissingFragmentConstant  = "[!!] claude CLI not found"
	selfPolicyFragmentConstant     = "Installed 'self' policy"
	teamPolicyFragmentConstant     = "Installed 'team' policy"
	keepingPolicyFragmentConstant  = "Keeping existing policy."
	hookInstalledFragmentConstant  = "Installed SessionEnd hook in"
	hookSkippedFragmentConstant    = "Skipped hook installation"
	hookPresentFragmentConstant    = "[ok] SessionEnd hook already installed"
)

func presentBinaryLocator(string) (string, error) {
	return presentBinaryPathConstant, nil
}

func missingBinaryLocator(string) (string, error) {
	return "", os.ErrNotExist
}

func runWizard(testInstance *testing.T, builder *setup.CommandBuilder, typedInput string) string {
	testInstance.Helper()

	wizardCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	wizardCommand.SetIn(strings.NewReader(typedInput))
	wizardCommand.SetOut(outputBuffer)
	wizardCommand.SetErr(outputBuffer)

	require.NoError(testInstance, wizardCommand.Execute())
	return outputBuffer.String()
}

func TestWizardInstallsPolicyAndHook(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	settingsPath := filepath.Join(testInstance.TempDir(), settingsFileNameConstant)

	builder := &setup.CommandBuilder{
		LoggerProvider:                 func() *zap.Logger { return zap.NewNop() },
		ConfigurationDirectoryProvider: func() string { return configurationDirectory },
		SettingsPathProvider:           func() string { return settingsPath },
		BinaryLocator:                  presentBinaryLocator,
	}

	wizardOutput := runWizard(testInstance, builder, selfPersonaAnswerConstant+acceptHookAnswerConstant)

	require.Contains(testInstance, wizardOutput, claudeFoundFragmentConstant)
	require.Contains(testInstance, wizardOutput, selfPolicyFragmentConstant)
	require.Contains(testInstance, wizardOutput, hookInstalledFragmentConstant)
	require.Contains(testInstance, wizardOutput, wizardDoneFragmentConstant)

	require.FileExists(testInstance, filepath.Join(configurationDirectory, "policy.md"))

	installed, detectionError := hook.NewManager(settingsPath).IsInstalled()
	require.NoError(testInstance, detectionError)
	require.True(testInstance, installed)
}

func TestWizardTeamPersonaAndDeclinedHook(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	settingsPath := filepath.Join(testInstance.TempDir(), settingsFileNameConstant)

	builder := &setup.CommandBuilder{
		ConfigurationDirectoryProvider: func() string { return configurationDirectory },
		SettingsPathProvider:           func() string { return settingsPath },
		BinaryLocator:                  presentBinaryLocator,
	}

	wizardOutput := runWizard(testInstance, builder, teamPersonaAnswerConstant+declineHookAnswerConstant)

	require.Contains(testInstance, wizardOutput, teamPolicyFragmentConstant)
	require.Contains(testInstance, wizardOutput, hookSkippedFragmentConstant)
	require.NoFileExists(testInstance, settingsPath)
}

func TestWizardKeepsExistingPolicy(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	policyPath := filepath.Join(configurationDirectory, "policy.md")
	require.NoError(testInstance, os.WriteFile(policyPath, []byte(existingPolicyContentConstant), 0o644))

	settingsPath := filepath.Join(testInstance.TempDir(), settingsFileNameConstant)

	builder := &setup.CommandBuilder{
		ConfigurationDirectoryProvider: func() string { return configurationDirectory },
		SettingsPathProvider:           func() string { return settingsPath },
		BinaryLocator:                  presentBinaryLocator,
	}

	wizardOutput := runWizard(testInstance, builder, selfPersonaAnswerConstant+declineOverwriteAnswerConstant+declineHookAnswerConstant)

	require.Contains(testInstance, wizardOutput, keepingPolicyFragmentConstant)

	preservedPolicy, readError := os.ReadFile(policyPath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, existingPolicyContentConstant, string(preservedPolicy))
}

func TestWizardWarnsWhenClaudeMissing(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	settingsPath := filepath.Join(testInstance.TempDir(), settingsFileNameConstant)

	builder := &setup.CommandBuilder{
		ConfigurationDirectoryProvider: func() string { return configurationDirectory },
		SettingsPathProvider:           func() string { return settingsPath },
		BinaryLocator:                  missingBinaryLocator,
	}

	wizardOutput := runWizard(testInstance, builder, selfPersonaAnswerConstant+declineHookAnswerConstant)

	require.Contains(testInstance, wizardOutput, claudeMissingFragmentConstant)
	require.Contains(testInstance, wizardOutput, selfPolicyFragmentConstant)
}

func TestWizardDetectsExistingHook(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	settingsPath := filepath.Join(testInstance.TempDir(), settingsFileNameConstant)

	_, installError := hook.NewManager(settingsPath).Install()
	require.NoError(testInstance, installError)

	builder := &setup.CommandBuilder{
		ConfigurationDirectoryProvider: func() string { return configurationDirectory },
		SettingsPathProvider:           func() string { return settingsPath },
		BinaryLocator:                  presentBinaryLocator,
	}

	wizardOutput := runWizard(testInstance, builder, selfPersonaAnswerConstant)

	require.Contains(testInstance, wizardOutput, hookPresentFragmentConstant)
}
