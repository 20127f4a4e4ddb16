package checker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/sesslint/internal/execshell"
	"github.com/temirov/sesslint/internal/sessions"
	"github.com/temirov/sesslint/internal/verdicts"
)

// DefaultModelConstant and DefaultInvocationTimeout apply when the
// configuration leaves the model or timeout unset.
const (
	DefaultModelConstant          = "claude-sonnet-4-5-20250929"
	DefaultInvocationTimeout      = 120 * time.Second
	promptFlagConstant            = "-p"
	modelFlagConstant             = "--model"
	outputFormatFlagConstant      = "--output-format"
	outputFormatJSONConstant      = "json"
	noSessionPersistenceFlag      = "--no-session-persistence"
	settingsFlagConstant          = "--settings"
	settingsDisableHooksConstant  = `{"disableAllHooks": true}`
	invocationErrorTemplate       = "claude invocation failed during %s: %v"
	complianceStageNameConstant   = "compliance audit"
	insightsStageNameConstant     = "insights analysis"
	insightsDegradedMessage       = "insights analysis failed, continuing with verdicts only"
	logFieldSessionConstant       = "session_id"
	logFieldStageConstant         = "stage"
	complianceStartedMessage      = "compliance audit started"
	complianceCompletedMessage    = "compliance audit completed"
	logFieldVerdictCountConstant  = "verdict_count"
	logFieldTranscriptTurnsField  = "transcript_turns"
)

// InvocationError reports a failed claude CLI call, identifying which
// analysis stage was running.
type InvocationError struct {
	Stage string
	Cause error
}

// Error names the failed stage and the underlying cause.
func (invocationError InvocationError) Error() string {
	return fmt.Sprintf(invocationErrorTemplate, invocationError.Stage, invocationError.Cause)
}

// Unwrap exposes the underlying cause.
func (invocationError InvocationError) Unwrap() error {
	return invocationError.Cause
}

// ClaudeExecutor abstracts the shell executor for claude invocations.
type ClaudeExecutor interface {
	ExecuteClaude(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// PolicyReader supplies the policy document the audit evaluates against.
type PolicyReader interface {
	Read() (string, error)
}

// CheckResult bundles everything one audited session produced. Insights may
// be absent when the insights pass failed while the compliance pass
// succeeded; InsightsError records why.
type CheckResult struct {
	Session       sessions.Session
	VerdictSet    verdicts.VerdictSet
	Insights      verdicts.Insights
	HasInsights   bool
	InsightsError error
}

// ServiceOptions tunes a checker Service.
type ServiceOptions struct {
	Model             string
	InvocationTimeout time.Duration
	SkipInsights      bool
}

// Service runs compliance audits against the claude CLI.
type Service struct {
	executor     ClaudeExecutor
	extractor    *verdicts.Extractor
	policyReader PolicyReader
	logger       *zap.Logger
	options      ServiceOptions
}

// NewService constructs a checker Service. Zero-value options take defaults.
func NewService(executor ClaudeExecutor, policyReader PolicyReader, logger *zap.Logger, options ServiceOptions) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(options.Model) == 0 {
		options.Model = DefaultModelConstant
	}
	if options.InvocationTimeout <= 0 {
		options.InvocationTimeout = DefaultInvocationTimeout
	}
	return &Service{
		executor:     executor,
		extractor:    verdicts.NewExtractor(logger),
		policyReader: policyReader,
		logger:       logger,
		options:      options,
	}
}

// RunCompliance audits one formatted transcript against the policy and
// returns the extracted verdicts.
func (service *Service) RunCompliance(executionContext context.Context, transcript string, policy string) (verdicts.VerdictSet, error) {
	prompt := fmt.Sprintf(compliancePromptTemplateConstant, complianceSystemPromptConstant, policy, transcript)

	rawResponse, invocationError := service.invokeClaude(executionContext, prompt)
	if invocationError != nil {
		return verdicts.VerdictSet{}, InvocationError{Stage: complianceStageNameConstant, Cause: invocationError}
	}

	return service.extractor.ExtractVerdicts(rawResponse)
}

// ExtractInsights runs the coaching analysis over one formatted transcript.
func (service *Service) ExtractInsights(executionContext context.Context, transcript string, policy string) (verdicts.Insights, error) {
	prompt := fmt.Sprintf(insightsPromptTemplateConstant, insightsSystemPromptConstant, policy, transcript)

	rawResponse, invocationError := service.invokeClaude(executionContext, prompt)
	if invocationError != nil {
		return verdicts.Insights{}, InvocationError{Stage: insightsStageNameConstant, Cause: invocationError}
	}

	return service.extractor.ExtractInsights(rawResponse)
}

// CheckSession parses nothing itself: it receives a fully parsed session,
// formats its transcript, and runs the compliance and insights passes
// concurrently. A compliance failure fails the check; an insights failure
// only degrades the result.
func (service *Service) CheckSession(executionContext context.Context, auditedSession sessions.Session) (CheckResult, error) {
	policy, policyError := service.policyReader.Read()
	if policyError != nil {
		return CheckResult{}, policyError
	}

	transcript := sessions.FormatTranscript(auditedSession)

	service.logger.Debug(
		complianceStartedMessage,
		zap.String(logFieldSessionConstant, auditedSession.ID),
		zap.Int(logFieldTranscriptTurnsField, len(auditedSession.Turns)),
	)

	checkResult := CheckResult{Session: auditedSession}

	var complianceError error
	var waitGroup sync.WaitGroup

	waitGroup.Add(1)
	go func() {
		defer waitGroup.Done()
		checkResult.VerdictSet, complianceError = service.RunCompliance(executionContext, transcript, policy)
	}()

	if !service.options.SkipInsights {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			extractedInsights, insightsError := service.ExtractInsights(executionContext, transcript, policy)
			if insightsError != nil {
				checkResult.InsightsError = insightsError
				return
			}
			checkResult.Insights = extractedInsights
			checkResult.HasInsights = true
		}()
	}

	waitGroup.Wait()

	if complianceError != nil {
		return CheckResult{}, complianceError
	}

	if checkResult.InsightsError != nil {
		service.logger.Warn(
			insightsDegradedMessage,
			zap.String(logFieldSessionConstant, auditedSession.ID),
			zap.Error(checkResult.InsightsError),
		)
	}

	service.logger.Debug(
		complianceCompletedMessage,
		zap.String(logFieldSessionConstant, auditedSession.ID),
		zap.Int(logFieldVerdictCountConstant, len(checkResult.VerdictSet.Verdicts)),
	)

	return checkResult, nil
}

// invokeClaude runs one claude -p call with the prompt on standard input.
func (service *Service) invokeClaude(executionContext context.Context, prompt string) (string, error) {
	timeoutContext, cancelTimeout := context.WithTimeout(executionContext, service.options.InvocationTimeout)
	defer cancelTimeout()

	executionResult, executionError := service.executor.ExecuteClaude(timeoutContext, execshell.CommandDetails{
		Arguments: []string{
			promptFlagConstant,
			modelFlagConstant, service.options.Model,
			outputFormatFlagConstant, outputFormatJSONConstant,
			noSessionPersistenceFlag,
			settingsFlagConstant, settingsDisableHooksConstant,
		},
		StandardInput: []byte(prompt),
	})
	if executionError != nil {
		return "", executionError
	}

	return strings.TrimSpace(executionResult.StandardOutput), nil
}
