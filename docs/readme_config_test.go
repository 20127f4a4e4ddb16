package docs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	parentDirectoryReferenceConstant = ".."
	missingHeaderMessageConstant     = "README example missing config header marker"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
	expectedLogLevelConstant         = "info"
	expectedLogFormatConstant        = "structured"
	expectedProjectsDirectory        = "~/.claude/projects"
	expectedConfigurationDirectory   = "~/.sesslint"
	expectedModelConstant            = "claude-sonnet-4-5-20250929"
	expectedTimeoutSecondsConstant   = 120
	expectedTurnLimitConstant        = 200
)

type readmeApplicationConfiguration struct {
	Common readmeCommonConfiguration `yaml:"common"`
	Audit  readmeAuditConfiguration  `yaml:"audit"`
}

type readmeCommonConfiguration struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type readmeAuditConfiguration struct {
	ProjectsDirectory      string `yaml:"projects_directory"`
	ConfigurationDirectory string `yaml:"configuration_directory"`
	Model                  string `yaml:"model"`
	TimeoutSeconds         int    `yaml:"timeout_seconds"`
	TurnLimit              int    `yaml:"turn_limit"`
}

func TestReadmeConfigurationExampleParses(testInstance *testing.T) {
	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	readmePath := filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant)
	contentBytes, readError := os.ReadFile(readmePath)
	require.NoError(testInstance, readError)

	contentText := string(contentBytes)
	headerIndex := strings.Index(contentText, configHeaderMarkerConstant)
	require.NotEqual(testInstance, -1, headerIndex, missingHeaderMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	remainingText := contentText[headerIndex:]
	fenceEndRelativeIndex := strings.Index(remainingText, yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)
	fenceEndIndex := headerIndex + fenceEndRelativeIndex

	snippetContent := strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : fenceEndIndex])

	var parsedConfiguration readmeApplicationConfiguration
	require.NoError(testInstance, yaml.Unmarshal([]byte(snippetContent), &parsedConfiguration))

	require.Equal(testInstance, expectedLogLevelConstant, parsedConfiguration.Common.LogLevel)
	require.Equal(testInstance, expectedLogFormatConstant, parsedConfiguration.Common.LogFormat)
	require.Equal(testInstance, expectedProjectsDirectory, parsedConfiguration.Audit.ProjectsDirectory)
	require.Equal(testInstance, expectedConfigurationDirectory, parsedConfiguration.Audit.ConfigurationDirectory)
	require.Equal(testInstance, expectedModelConstant, parsedConfiguration.Audit.Model)
	require.Equal(testInstance, expectedTimeoutSecondsConstant, parsedConfiguration.Audit.TimeoutSeconds)
	require.Equal(testInstance, expectedTurnLimitConstant, parsedConfiguration.Audit.TurnLimit)
}
