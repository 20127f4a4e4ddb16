// Package reports wires the multi-session report command into the CLI.
package reports

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/sesslint/internal/checker"
	"github.com/temirov/sesslint/internal/execshell"
	"github.com/temirov/sesslint/internal/policy"
	"github.com/temirov/sesslint/internal/report"
	"github.com/temirov/sesslint/internal/sessions"
	"github.com/temirov/sesslint/internal/utils"
	pathutils "github.com/temirov/sesslint/internal/utils/path"
)

const (
	commandNameConstant          = "report"
	commandShortDescription      = "Audit multiple recent sessions and export a report"
	commandLongDescription       = "report audits the most recent sessions against your policy and writes a markdown report alongside a terminal summary."
	flagCountNameConstant        = "count"
	flagCountShorthandConstant   = "n"
	flagCountDescriptionText     = "Number of recent sessions to audit."
	flagCountDefaultConstant     = 5
	flagOutputNameConstant       = "output"
	flagOutputShorthandConstant  = "o"
	flagOutputDescriptionText    = "Export the markdown report to this file."
	missingPolicyMessageConstant = "no policy found, run 'sesslint init' first"
	noAuditableSessionsMessage   = "No sessions had messages to audit."
	sessionSummaryTemplate       = "[%d/%d] %s\n  -> %d passed, %d failed\n"
	sessionErrorTemplateConstant = "[%d/%d] %s\n  Error: %v\n"
	checkedSummaryTemplate       = "\nChecked %d sessions.\n"
	allClearMessageConstant      = "All clear — no policy violations found."
	violationsTemplateConstant   = "Found %d total violation(s) across sessions."
	reportSavedTemplateConstant  = "\nReport saved to %s\n"
	defaultReportNameTemplate    = "sesslint-report-%s.md"
	reportTimestampLayout        = "20060102-150405"
	reportFileModeBitsConstant   = 0o644
	auditConcurrencyLimit        = 2
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the resolved audit configuration.
type ConfigurationProvider func() checker.CommandConfiguration

// sessionOutcome carries the result slot for one audited session; failed
// audits keep their error so the summary can report them in order.
type sessionOutcome struct {
	session    sessions.Session
	result     report.SessionResult
	hasResult  bool
	auditError error
}

// CommandBuilder assembles the report cobra command with configurable
// dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Executor              checker.ClaudeExecutor
	PolicyReader          checker.PolicyReader
	CommandEventsObserver execshell.CommandEventObserver
}

// Build constructs the cobra command for multi-session reports.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandNameConstant,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  builder.run,
	}

	command.Flags().IntP(flagCountNameConstant, flagCountShorthandConstant, flagCountDefaultConstant, flagCountDescriptionText)
	command.Flags().StringP(flagOutputNameConstant, flagOutputShorthandConstant, "", flagOutputDescriptionText)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	sessionCount, _ := command.Flags().GetInt(flagCountNameConstant)
	outputPath, _ := command.Flags().GetString(flagOutputNameConstant)

	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	policyReader, policyError := builder.resolvePolicyReader(configuration)
	if policyError != nil {
		return policyError
	}

	scanner := sessions.NewScanner(pathutils.NewHomeExpander().Expand(configuration.ProjectsDirectory), logger)
	discoveredSessions, discoveryError := scanner.Discover()
	if discoveryError != nil {
		return discoveryError
	}
	if len(discoveredSessions) == 0 {
		_, mostRecentError := scanner.MostRecent()
		return mostRecentError
	}

	if sessionCount > 0 && len(discoveredSessions) > sessionCount {
		discoveredSessions = discoveredSessions[:sessionCount]
	}

	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return executorError
	}

	auditService := checker.NewService(executor, policyReader, logger, checker.ServiceOptions{
		Model:             configuration.Model,
		InvocationTimeout: time.Duration(configuration.TimeoutSeconds) * time.Second,
		SkipInsights:      true,
	})

	outcomes := builder.auditSessions(command, auditService, logger, configuration, discoveredSessions)

	progressWriter := utils.NewFlushingWriter(command.OutOrStdout())
	var sessionResults []report.SessionResult
	for outcomeIndex, outcome := range outcomes {
		if outcome.auditError != nil {
			fmt.Fprintf(progressWriter, sessionErrorTemplateConstant, outcomeIndex+1, len(outcomes), outcome.session.Label(), outcome.auditError)
			continue
		}
		if !outcome.hasResult {
			continue
		}
		fmt.Fprintf(
			progressWriter,
			sessionSummaryTemplate,
			outcomeIndex+1, len(outcomes),
			outcome.result.SessionLabel,
			outcome.result.VerdictSet.PassedCount(),
			outcome.result.VerdictSet.FailedCount(),
		)
		sessionResults = append(sessionResults, outcome.result)
	}

	if len(sessionResults) == 0 {
		fmt.Fprintln(command.OutOrStdout(), noAuditableSessionsMessage)
		return nil
	}

	fmt.Fprintf(command.OutOrStdout(), checkedSummaryTemplate, len(sessionResults))
	totalFailures := 0
	for _, sessionResult := range sessionResults {
		totalFailures += sessionResult.VerdictSet.FailedCount()
	}
	if totalFailures == 0 {
		fmt.Fprintln(command.OutOrStdout(), allClearMessageConstant)
	} else {
		fmt.Fprintf(command.OutOrStdout(), violationsTemplateConstant+"\n", totalFailures)
	}

	if len(strings.TrimSpace(outputPath)) == 0 {
		outputPath = fmt.Sprintf(defaultReportNameTemplate, time.Now().Format(reportTimestampLayout))
	}

	markdownReport := report.RenderMarkdown(sessionResults)
	if writeError := os.WriteFile(outputPath, []byte(markdownReport), reportFileModeBitsConstant); writeError != nil {
		return writeError
	}
	fmt.Fprintf(command.OutOrStdout(), reportSavedTemplateConstant, outputPath)

	return nil
}

// auditSessions runs audits with bounded concurrency and returns outcomes in
// the original recency order regardless of completion order.
func (builder *CommandBuilder) auditSessions(command *cobra.Command, auditService *checker.Service, logger *zap.Logger, configuration checker.CommandConfiguration, auditTargets []sessions.Session) []sessionOutcome {
	outcomes := make([]sessionOutcome, len(auditTargets))

	var workGroup errgroup.Group
	workGroup.SetLimit(auditConcurrencyLimit)

	for targetIndex, auditTarget := range auditTargets {
		targetIndex, auditTarget := targetIndex, auditTarget
		workGroup.Go(func() error {
			outcomes[targetIndex].session = auditTarget

			parsedSession, parseError := sessions.NewParserWithTurnLimit(logger, configuration.TurnLimit).Parse(auditTarget)
			if parseError != nil {
				outcomes[targetIndex].auditError = parseError
				return nil
			}
			if len(parsedSession.Turns) == 0 {
				return nil
			}

			checkResult, checkError := auditService.CheckSession(command.Context(), parsedSession)
			if checkError != nil {
				outcomes[targetIndex].auditError = checkError
				return nil
			}

			outcomes[targetIndex].result = report.SessionResult{
				SessionLabel: parsedSession.Label(),
				VerdictSet:   checkResult.VerdictSet,
			}
			outcomes[targetIndex].hasResult = true
			return nil
		})
	}

	_ = workGroup.Wait()
	return outcomes
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

func (builder *CommandBuilder) resolveConfiguration() checker.CommandConfiguration {
	var configuration checker.CommandConfiguration
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	if len(strings.TrimSpace(configuration.ProjectsDirectory)) == 0 {
		configuration.ProjectsDirectory = "~/.claude/projects"
	}
	if len(strings.TrimSpace(configuration.ConfigurationDirectory)) == 0 {
		configuration.ConfigurationDirectory = "~/.sesslint"
	}
	return configuration
}

func (builder *CommandBuilder) resolvePolicyReader(configuration checker.CommandConfiguration) (checker.PolicyReader, error) {
	if builder.PolicyReader != nil {
		return builder.PolicyReader, nil
	}

	policyStore := policy.NewStore(pathutils.NewHomeExpander().Expand(configuration.ConfigurationDirectory))
	if !policyStore.Exists() {
		return nil, errors.New(missingPolicyMessageConstant)
	}
	return policyStore, nil
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (checker.ClaudeExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	if installError := execshell.EnsureInstalled(execshell.CommandClaude, nil); installError != nil {
		return nil, installError
	}

	return execshell.NewShellExecutorWithObserver(logger, execshell.NewOSCommandRunner(), builder.CommandEventsObserver)
}
