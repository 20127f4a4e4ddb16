package hook

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	pathutils "github.com/temirov/sesslint/internal/utils/path"
)

const (
	commandNameConstant           = "hook"
	commandShortDescription       = "Manage the SessionEnd audit hook"
	commandLongDescription        = "hook installs or removes the SessionEnd hook that audits the finished session automatically."
	installSubcommandName         = "install"
	installShortDescription       = "Install the SessionEnd hook"
	uninstallSubcommandName       = "uninstall"
	uninstallShortDescription     = "Remove the SessionEnd hook"
	defaultSettingsPathConstant   = "~/.claude/settings.json"
	installedMessageTemplate      = "Installed SessionEnd hook in %s\n"
	updatedMessageTemplate        = "Updated SessionEnd hook in %s\n"
	removedMessageConstant        = "Removed SessionEnd hook."
	notInstalledMessageConstant   = "SessionEnd hook is not installed."
	hookChangedLogMessageConstant = "hook configuration changed"
	logFieldSettingsPathConstant  = "settings_path"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// SettingsPathProvider supplies the settings file location the hook lives in.
type SettingsPathProvider func() string

// CommandBuilder assembles the hook cobra command group.
type CommandBuilder struct {
	LoggerProvider       LoggerProvider
	SettingsPathProvider SettingsPathProvider
}

// Build constructs the hook command with install and uninstall subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	hookCommand := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescription,
		Long:  commandLongDescription,
	}

	installCommand := &cobra.Command{
		Use:   installSubcommandName,
		Short: installShortDescription,
		RunE:  builder.runInstall,
	}

	uninstallCommand := &cobra.Command{
		Use:   uninstallSubcommandName,
		Short: uninstallShortDescription,
		RunE:  builder.runUninstall,
	}

	hookCommand.AddCommand(installCommand)
	hookCommand.AddCommand(uninstallCommand)

	return hookCommand, nil
}

func (builder *CommandBuilder) runInstall(command *cobra.Command, _ []string) error {
	hookManager := NewManager(builder.resolveSettingsPath())

	replaced, installError := hookManager.Install()
	if installError != nil {
		return installError
	}

	messageTemplate := installedMessageTemplate
	if replaced {
		messageTemplate = updatedMessageTemplate
	}
	fmt.Fprintf(command.OutOrStdout(), messageTemplate, hookManager.SettingsPath())

	builder.resolveLogger().Debug(
		hookChangedLogMessageConstant,
		zap.String(logFieldSettingsPathConstant, hookManager.SettingsPath()),
	)
	return nil
}

func (builder *CommandBuilder) runUninstall(command *cobra.Command, _ []string) error {
	hookManager := NewManager(builder.resolveSettingsPath())

	removed, uninstallError := hookManager.Uninstall()
	if uninstallError != nil {
		return uninstallError
	}

	if removed {
		fmt.Fprintln(command.OutOrStdout(), removedMessageConstant)
	} else {
		fmt.Fprintln(command.OutOrStdout(), notInstalledMessageConstant)
	}
	return nil
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
