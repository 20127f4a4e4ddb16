package checker

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/sesslint/internal/execshell"
	"github.com/temirov/sesslint/internal/policy"
	"github.com/temirov/sesslint/internal/report"
	"github.com/temirov/sesslint/internal/sessions"
	"github.com/temirov/sesslint/internal/utils"
	pathutils "github.com/temirov/sesslint/internal/utils/path"
	promptutils "github.com/temirov/sesslint/internal/utils/prompt"
)

const (
	commandNameConstant         = "check"
	commandShortDescription     = "Audit a coding session against your policy"
	commandLongDescription      = "check selects a recorded coding session, sends its transcript to the claude CLI alongside your policy, and prints per-rule verdicts."
	flagLastNameConstant        = "last"
	flagLastDescriptionText     = "Audit the most recent session without prompting."
	flagQuietNameConstant       = "quiet"
	flagQuietDescriptionText    = "Minimal output, intended for hook usage."
	flagNoInsightsNameConstant  = "no-insights"
	flagNoInsightsDescription   = "Skip the session insights pass."
	missingPolicyMessage        = "no policy found, run 'sesslint init' first"
	pickerHeaderConstant        = "Recent sessions:\n"
	pickerEntryTemplateConstant = "  %2d. %s\n"
	pickerPromptConstant        = "Choose a session: "
	pickerDisplayLimitConstant  = 20
	pickerLabelTurnLimit        = 3
	parsingProgressTemplate     = "Parsing session %s...\n"
	checkingProgressTemplate    = "Checking %d messages against policy...\n"
	emptySessionMessage         = "Session has no messages."
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the resolved command configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the check cobra command with configurable
// dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Executor              ClaudeExecutor
	PolicyReader          PolicyReader
	CommandEventsObserver execshell.CommandEventObserver
}

// Build constructs the cobra command for session audits.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  builder.run,
	}

	command.Flags().Bool(flagLastNameConstant, false, flagLastDescriptionText)
	command.Flags().Bool(flagQuietNameConstant, false, flagQuietDescriptionText)
	command.Flags().Bool(flagNoInsightsNameConstant, false, flagNoInsightsDescription)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	lastFlag, _ := command.Flags().GetBool(flagLastNameConstant)
	quietFlag, _ := command.Flags().GetBool(flagQuietNameConstant)
	noInsightsFlag, _ := command.Flags().GetBool(flagNoInsightsNameConstant)

	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	policyReader, policyError := builder.resolvePolicyReader(configuration)
	if policyError != nil {
		return policyError
	}

	scanner := sessions.NewScanner(pathutils.NewHomeExpander().Expand(configuration.ProjectsDirectory), logger)

	var selectedSession sessions.Session
	if lastFlag {
		mostRecentSession, discoveryError := scanner.MostRecent()
		if discoveryError != nil {
			return discoveryError
		}
		selectedSession = mostRecentSession
	} else {
		pickedSession, pickError := builder.pickSession(command, scanner, logger)
		if pickError != nil {
			return pickError
		}
		selectedSession = pickedSession
	}

	if !quietFlag {
		fmt.Fprintf(command.OutOrStdout(), parsingProgressTemplate, selectedSession.ShortID())
	}

	parsedSession, parseError := sessions.NewParserWithTurnLimit(logger, configuration.TurnLimit).Parse(selectedSession)
	if parseError != nil {
		return parseError
	}

	if len(parsedSession.Turns) == 0 {
		fmt.Fprintln(command.OutOrStdout(), emptySessionMessage)
		return nil
	}

	if !quietFlag {
		fmt.Fprintf(command.OutOrStdout(), checkingProgressTemplate, len(parsedSession.Turns))
	}

	eventObserver := builder.CommandEventsObserver
	if eventObserver == nil && !quietFlag {
		eventObserver = execshell.NewConsoleEventObserver(utils.NewFlushingWriter(command.OutOrStdout()))
	}

	executor, executorError := builder.resolveExecutor(logger, eventObserver)
	if executorError != nil {
		return executorError
	}

	auditService := NewService(executor, policyReader, logger, ServiceOptions{
		Model:             configuration.Model,
		InvocationTimeout: time.Duration(configuration.TimeoutSeconds) * time.Second,
		SkipInsights:      quietFlag || noInsightsFlag,
	})

	checkResult, checkError := auditService.CheckSession(command.Context(), parsedSession)
	if checkError != nil {
		return checkError
	}

	fmt.Fprintln(command.OutOrStdout(), report.RenderTerminal(checkResult.VerdictSet))
	if checkResult.HasInsights {
		fmt.Fprintln(command.OutOrStdout(), report.RenderInsights(checkResult.Insights))
	}

	return nil
}

// pickSession lists recent sessions with short labels and reads an
// interactive selection.
func (builder *CommandBuilder) pickSession(command *cobra.Command, scanner *sessions.Scanner, logger *zap.Logger) (sessions.Session, error) {
	discoveredSessions, discoveryError := scanner.Discover()
	if discoveryError != nil {
		return sessions.Session{}, discoveryError
	}
	if len(discoveredSessions) == 0 {
		return scanner.MostRecent()
	}

	displayedSessions := discoveredSessions
	if len(displayedSessions) > pickerDisplayLimitConstant {
		displayedSessions = displayedSessions[:pickerDisplayLimitConstant]
	}

	labelParser := sessions.NewParserWithTurnLimit(logger, pickerLabelTurnLimit)
	fmt.Fprint(command.OutOrStdout(), pickerHeaderConstant)
	for displayIndex, displayedSession := range displayedSessions {
		labeledSession, labelError := labelParser.Parse(displayedSession)
		if labelError != nil {
			labeledSession = displayedSession
		}
		fmt.Fprintf(command.OutOrStdout(), pickerEntryTemplateConstant, displayIndex+1, labeledSession.Label())
	}
	fmt.Fprintln(command.OutOrStdout())

	prompter := promptutils.NewIOPrompter(command.InOrStdin(), command.OutOrStdout())
	selectedIndex, selectionError := prompter.SelectIndex(pickerPromptConstant, len(displayedSessions))
	if selectionError != nil {
		return sessions.Session{}, selectionError
	}

	return displayedSessions[selectedIndex-1], nil
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

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	var configuration CommandConfiguration
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	if len(strings.TrimSpace(configuration.ProjectsDirectory)) == 0 {
		configuration.ProjectsDirectory = defaultProjectsDirectoryConstant
	}
	if len(strings.TrimSpace(configuration.ConfigurationDirectory)) == 0 {
		configuration.ConfigurationDirectory = defaultConfigurationDirectoryConstant
	}
	if len(strings.TrimSpace(configuration.Model)) == 0 {
		configuration.Model = DefaultModelConstant
	}
	if configuration.TimeoutSeconds <= 0 {
		configuration.TimeoutSeconds = defaultTimeoutSecondsConstant
	}
	if configuration.TurnLimit <= 0 {
		configuration.TurnLimit = defaultTurnLimitConstant
	}
	return configuration
}

// resolvePolicyReader fails fast when no policy document is installed.
func (builder *CommandBuilder) resolvePolicyReader(configuration CommandConfiguration) (PolicyReader, error) {
	if builder.PolicyReader != nil {
		return builder.PolicyReader, nil
	}

	policyStore := policy.NewStore(pathutils.NewHomeExpander().Expand(configuration.ConfigurationDirectory))
	if !policyStore.Exists() {
		return nil, errors.New(missingPolicyMessage)
	}
	return policyStore, nil
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger, eventObserver execshell.CommandEventObserver) (ClaudeExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	if installError := execshell.EnsureInstalled(execshell.CommandClaude, nil); installError != nil {
		return nil, installError
	}

	return execshell.NewShellExecutorWithObserver(logger, execshell.NewOSCommandRunner(), eventObserver)
}
