package policy

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	pathutils "github.com/temirov/sesslint/internal/utils/path"
)

const (
	commandNameConstant           = "policy"
	commandShortDescription       = "Open your policy file in your editor"
	commandLongDescription        = "policy opens the installed policy document in $EDITOR so rules can be adjusted between audits."
	defaultConfigurationDirectory = "~/.sesslint"
	policyOpenedMessageConstant   = "policy opened in editor"
	logFieldPolicyPathConstant    = "policy_path"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationDirectoryProvider supplies the configuration directory the
// policy document lives in.
type ConfigurationDirectoryProvider func() string

// CommandBuilder assembles the policy cobra command.
type CommandBuilder struct {
	LoggerProvider                 LoggerProvider
	ConfigurationDirectoryProvider ConfigurationDirectoryProvider
}

// Build constructs the cobra command for policy editing.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  builder.run,
	}

	return command, nil
}

func (builder *CommandBuilder) run(_ *cobra.Command, _ []string) error {
	policyStore := NewStore(builder.resolveConfigurationDirectory())

	if editorError := policyStore.OpenInEditor(); editorError != nil {
		return editorError
	}

	builder.resolveLogger().Debug(
		policyOpenedMessageConstant,
		zap.String(logFieldPolicyPathConstant, policyStore.PolicyPath()),
	)
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
