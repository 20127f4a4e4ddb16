package checker

const (
	projectsDirectoryConfigKeyConstant      = "projects_directory"
	configurationDirectoryConfigKeyConstant = "configuration_directory"
	modelConfigKeyConstant                  = "model"
	timeoutSecondsConfigKeyConstant         = "timeout_seconds"
	turnLimitConfigKeyConstant              = "turn_limit"
	configurationKeySeparatorConstant       = "."

	defaultProjectsDirectoryConstant      = "~/.claude/projects"
	defaultConfigurationDirectoryConstant = "~/.sesslint"
	defaultTimeoutSecondsConstant         = 120
	defaultTurnLimitConstant              = 200
)

// CommandConfiguration captures the tunable settings shared by the audit
// commands.
type CommandConfiguration struct {
	ProjectsDirectory      string `mapstructure:"projects_directory"`
	ConfigurationDirectory string `mapstructure:"configuration_directory"`
	Model                  string `mapstructure:"model"`
	TimeoutSeconds         int    `mapstructure:"timeout_seconds"`
	TurnLimit              int    `mapstructure:"turn_limit"`
}

// DefaultConfigurationValues returns the configuration defaults nested under
// the provided key prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + configurationKeySeparatorConstant + projectsDirectoryConfigKeyConstant:      defaultProjectsDirectoryConstant,
		configurationKeyPrefix + configurationKeySeparatorConstant + configurationDirectoryConfigKeyConstant: defaultConfigurationDirectoryConstant,
		configurationKeyPrefix + configurationKeySeparatorConstant + modelConfigKeyConstant:                  DefaultModelConstant,
		configurationKeyPrefix + configurationKeySeparatorConstant + timeoutSecondsConfigKeyConstant:         defaultTimeoutSecondsConstant,
		configurationKeyPrefix + configurationKeySeparatorConstant + turnLimitConfigKeyConstant:              defaultTurnLimitConstant,
	}
}
