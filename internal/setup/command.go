// Package setup implements the first-run wizard that checks prerequisites,
// installs a persona policy, and offers the SessionEnd hook.
package setup

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/sesslint/internal/execshell"
	"github.com/temirov/sesslint/internal/hook"
	"github.com/temirov/sesslint/internal/policy"
	pathutils "github.com/temirov/sesslint/internal/utils/path"
	promptutils "github.com/temirov/sesslint/internal/utils/prompt"
)

const (
	commandNameConstant           = "init"
	commandShortDescription       = "Setup wizard: choose persona, create policy, install hook"
	commandLongDescription        = "init walks through first-run setup: it verifies the claude CLI, installs a persona policy template, and offers to install the SessionEnd audit hook."
	defaultConfigurationDirectory = "~/.sesslint"
	defaultSettingsPathConstant   = "~/.claude/settings.json"
	welcomeMessageConstant        = "Welcome to sesslint!\n"
	claudeFoundMessageConstant    = "[ok] claude CLI found"
	claudeMissingMessageConstant  = "[!!] claude CLI not found"
	claudeInstallHintConstant     = "     Install it: curl -fsSL https://claude.ai/install.sh | bash\n     sesslint needs the claude CLI to analyze sessions.\n"
	personaHeaderConstant         = "Who are you?\n"
	personaSelfOptionConstant     = "  1. self — Individual developer checking your own habits"
	personaTeamOptionConstant     = "  2. team — Team lead enforcing guidelines"
	personaPromptConstant         = "\nChoose a persona (1/2/self/team): "
	overwritePromptConstant       = "Policy already exists. Overwrite? [y/N]: "
	keepingPolicyMessageConstant  = "Keeping existing policy."
	policyInstalledTemplate       = "Installed '%s' policy to %s\n"
	hookPresentMessageConstant    = "[ok] SessionEnd hook already installed"
	hookOfferPromptConstant       = "\nInstall a SessionEnd hook to auto-check after each session? [Y/n]: "
	hookSkippedMessageConstant    = "Skipped hook installation. You can add it later with 'sesslint hook install'."
	hookInstalledTemplateConstant = "Installed SessionEnd hook in %s\n"
	doneMessageConstant           = "\nDone! Run 'sesslint check' to audit a session, or 'sesslint policy' to edit your rules."
	wizardCompletedLogMessage     = "setup wizard completed"
	logFieldPersonaConstant       = "persona"
)

// personaChoices maps every accepted wizard answer to a persona name.
var personaChoices = map[string]string{
	"1":                 policy.PersonaSelf,
	"2":                 policy.PersonaTeam,
	policy.PersonaSelf: policy.PersonaSelf,
	policy.PersonaTeam: policy.PersonaTeam,
}

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the init cobra command with configurable
// dependencies.
type CommandBuilder struct {
	LoggerProvider                 LoggerProvider
	ConfigurationDirectoryProvider func() string
	SettingsPathProvider           func() string
	BinaryLocator                  execshell.BinaryLocator
}

// Build constructs the cobra command for the setup wizard.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  builder.run,
	}

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	outputWriter := command.OutOrStdout()
	prompter := promptutils.NewIOPrompter(command.InOrStdin(), outputWriter)

	fmt.Fprintf(outputWriter, "%s\n", welcomeMessageConstant)

	if installError := execshell.EnsureInstalled(execshell.CommandClaude, builder.BinaryLocator); installError == nil {
		fmt.Fprintln(outputWriter, claudeFoundMessageConstant)
	} else {
		fmt.Fprintln(outputWriter, claudeMissingMessageConstant)
		fmt.Fprintf(outputWriter, "%s\n", claudeInstallHintConstant)
	}

	persona, personaError := builder.promptPersona(outputWriter, prompter)
	if personaError != nil {
		return personaError
	}

	policyStore := policy.NewStore(builder.resolveConfigurationDirectory())
	if installPolicyError := builder.installPolicy(outputWriter, prompter, policyStore, persona); installPolicyError != nil {
		return installPolicyError
	}

	if offerHookError := builder.offerHook(outputWriter, prompter); offerHookError != nil {
		return offerHookError
	}

	fmt.Fprintln(outputWriter, doneMessageConstant)

	builder.resolveLogger().Debug(
		wizardCompletedLogMessage,
		zap.String(logFieldPersonaConstant, persona),
	)
	return nil
}

func (builder *CommandBuilder) promptPersona(outputWriter io.Writer, prompter *promptutils.IOPrompter) (string, error) {
	fmt.Fprintf(outputWriter, "%s\n", personaHeaderConstant)
	fmt.Fprintln(outputWriter, personaSelfOptionConstant)
	fmt.Fprintln(outputWriter, personaTeamOptionConstant)

	choice, choiceError := prompter.SelectChoice(personaPromptConstant, []string{"1", "2", policy.PersonaSelf, policy.PersonaTeam})
	if choiceError != nil {
		return "", choiceError
	}
	return personaChoices[choice], nil
}

func (builder *CommandBuilder) installPolicy(outputWriter io.Writer, prompter *promptutils.IOPrompter, policyStore *policy.Store, persona string) error {
	if policyStore.Exists() {
		overwrite, confirmError := prompter.Confirm(overwritePromptConstant, false)
		if confirmError != nil {
			return confirmError
		}
		if !overwrite {
			fmt.Fprintln(outputWriter, keepingPolicyMessageConstant)
			return nil
		}
	}

	if installError := policyStore.Install(persona); installError != nil {
		return installError
	}
	fmt.Fprintf(outputWriter, policyInstalledTemplate, persona, policyStore.PolicyPath())
	return nil
}

func (builder *CommandBuilder) offerHook(outputWriter io.Writer, prompter *promptutils.IOPrompter) error {
	hookManager := hook.NewManager(builder.resolveSettingsPath())

	installed, detectionError := hookManager.IsInstalled()
	if detectionError != nil {
		return detectionError
	}
	if installed {
		fmt.Fprintln(outputWriter, hookPresentMessageConstant)
		return nil
	}

	wantHook, confirmError := prompter.Confirm(hookOfferPromptConstant, true)
	if confirmError != nil {
		return confirmError
	}
	if !wantHook {
		fmt.Fprintln(outputWriter, hookSkippedMessageConstant)
		return nil
	}

	if _, installError := hookManager.Install(); installError != nil {
		return installError
	}
	fmt.Fprintf(outputWriter, hookInstalledTemplateConstant, hookManager.SettingsPath())
	return nil
}

func (builder *CommandBuilder) resolveConfigurationDirectory() string {
	configurationDirectory := defaultConfigurationDirectory
	if builder.ConfigurationDirectoryProvider != nil {
		if providedDirectory := builder.ConfigurationDirectoryProvider(); len(providedDirectory) > 0 {
			configurationDirectory = providedDirectory
		}
	}
	return pathutils.NewHomeExpander().Expand(configurationDirectory)
}

func (builder *CommandBuilder) resolveSettingsPath() string {
	settingsPath := defaultSettingsPathConstant
	if builder.SettingsPathProvider != nil {
		if providedPath := builder.SettingsPathProvider(); len(providedPath) > 0 {
			settingsPath = providedPath
		}
	}
	return pathutils.NewHomeExpander().Expand(settingsPath)
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
