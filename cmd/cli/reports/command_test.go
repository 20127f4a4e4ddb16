package reports_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/sesslint/cmd/cli/reports"
	"github.com/temirov/sesslint/internal/checker"
	"github.com/temirov/sesslint/internal/execshell"
)

const (
	reportUserLineConstant          = `{"type":"user","message":{"role":"user","content":"refactor the billing module"}}`
	passingResponseConstant         = `{"verdicts":[{"category":"Process","rule":"tests run before commit","verdict":"PASS","reasoning":""}],"summary":"clean"}`
	failingResponseConstant         = `{"verdicts":[{"category":"Security","rule":"no secrets in output","verdict":"FAIL","reasoning":"API key echoed"}],"summary":"leaked credential"}`
	reportFileNameConstant          = "audit.md"
	allClearFragmentConstant        = "no policy violations found"
	violationsFragmentConstant      = "Found 1 total violation(s)"
	checkedSessionsFragment         = "Checked 2 sessions."
	savedReportFragmentConstant     = "Report saved to"
	noAuditableSessionsFragment     = "No sessions had messages to audit."
	markdownTitleFragmentConstant   = "# sesslint Compliance Report"
	markdownOverallFragmentConstant = "## Overall"
)

// countingExecutor returns the same canned claude response for every
// invocation and tracks concurrency-safe call counts.
type countingExecutor struct {
	mutex       sync.Mutex
	invocations int
	response    string
}

func (executor *countingExecutor) ExecuteClaude(_ context.Context, _ execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	executor.invocations++
	return execshell.ExecutionResult{StandardOutput: executor.response}, nil
}

func (executor *countingExecutor) invocationCount() int {
	executor.mutex.Lock()
	defer executor.mutex.Unlock()
	return executor.invocations
}

type fixedPolicyReader struct{}

func (fixedPolicyReader) Read() (string, error) {
	return "# Rules", nil
}

func writeReportTranscript(testInstance *testing.T, projectsDirectory string, sessionFileName string, transcriptContent string, modificationTime time.Time) {
	testInstance.Helper()
	transcriptPath := filepath.Join(projectsDirectory, "project-a", sessionFileName)
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(transcriptPath), 0o755))
	require.NoError(testInstance, os.WriteFile(transcriptPath, []byte(transcriptContent), 0o644))
	require.NoError(testInstance, os.Chtimes(transcriptPath, modificationTime, modificationTime))
}

func runReportCommand(testInstance *testing.T, builder *reports.CommandBuilder, arguments ...string) (string, error) {
	testInstance.Helper()

	reportCommand, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	reportCommand.SetOut(outputBuffer)
	reportCommand.SetErr(outputBuffer)
	reportCommand.SetArgs(arguments)

	executionError := reportCommand.Execute()
	return outputBuffer.String(), executionError
}

func TestReportCommandAuditsRecentSessions(testInstance *testing.T) {
	projectsDirectory := testInstance.TempDir()
	baseTime := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	writeReportTranscript(testInstance, projectsDirectory, "older.jsonl", reportUserLineConstant+"\n", baseTime)
	writeReportTranscript(testInstance, projectsDirectory, "newer.jsonl", reportUserLineConstant+"\n", baseTime.Add(2*time.Minute))

	stubExecutor := &countingExecutor{response: passingResponseConstant}
	outputPath := filepath.Join(testInstance.TempDir(), reportFileNameConstant)

	builder := &reports.CommandBuilder{
		ConfigurationProvider: func() checker.CommandConfiguration {
			return checker.CommandConfiguration{ProjectsDirectory: projectsDirectory}
		},
		Executor:     stubExecutor,
		PolicyReader: fixedPolicyReader{},
	}

	commandOutput, executionError := runReportCommand(testInstance, builder, "--output", outputPath)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, commandOutput, checkedSessionsFragment)
	require.Contains(testInstance, commandOutput, allClearFragmentConstant)
	require.Contains(testInstance, commandOutput, savedReportFragmentConstant)
	require.Equal(testInstance, 2, stubExecutor.invocationCount())

	savedReport, readError := os.ReadFile(outputPath)
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(savedReport), markdownTitleFragmentConstant)
	require.Contains(testInstance, string(savedReport), markdownOverallFragmentConstant)
}

func TestReportCommandReportsViolations(testInstance *testing.T) {
	projectsDirectory := testInstance.TempDir()
	writeReportTranscript(testInstance, projectsDirectory, "s1.jsonl", reportUserLineConstant+"\n", time.Now())

	stubExecutor := &countingExecutor{response: failingResponseConstant}
	outputPath := filepath.Join(testInstance.TempDir(), reportFileNameConstant)

	builder := &reports.CommandBuilder{
		ConfigurationProvider: func() checker.CommandConfiguration {
			return checker.CommandConfiguration{ProjectsDirectory: projectsDirectory}
		},
		Executor:     stubExecutor,
		PolicyReader: fixedPolicyReader{},
	}

	commandOutput, executionError := runReportCommand(testInstance, builder, "-o", outputPath)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, commandOutput, violationsFragmentConstant)

	savedReport, readError := os.ReadFile(outputPath)
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(savedReport), "API key echoed")
}

func TestReportCommandHonorsCountFlag(testInstance *testing.T) {
	projectsDirectory := testInstance.TempDir()
	baseTime := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	for _, sessionFileName := range []string{"s1.jsonl", "s2.jsonl", "s3.jsonl"} {
		baseTime = baseTime.Add(1 * time.Minute)
		writeReportTranscript(testInstance, projectsDirectory, sessionFileName, reportUserLineConstant+"\n", baseTime)
	}

	stubExecutor := &countingExecutor{response: passingResponseConstant}
	outputPath := filepath.Join(testInstance.TempDir(), reportFileNameConstant)

	builder := &reports.CommandBuilder{
		ConfigurationProvider: func() checker.CommandConfiguration {
			return checker.CommandConfiguration{ProjectsDirectory: projectsDirectory}
		},
		Executor:     stubExecutor,
		PolicyReader: fixedPolicyReader{},
	}

	commandOutput, executionError := runReportCommand(testInstance, builder, "-n", "2", "-o", outputPath)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, commandOutput, checkedSessionsFragment)
	require.Equal(testInstance, 2, stubExecutor.invocationCount())
}

func TestReportCommandSkipsEmptySessions(testInstance *testing.T) {
	projectsDirectory := testInstance.TempDir()
	writeReportTranscript(testInstance, projectsDirectory, "s1.jsonl", "not json at all\n", time.Now())

	stubExecutor := &countingExecutor{response: passingResponseConstant}

	builder := &reports.CommandBuilder{
		ConfigurationProvider: func() checker.CommandConfiguration {
			return checker.CommandConfiguration{ProjectsDirectory: projectsDirectory}
		},
		Executor:     stubExecutor,
		PolicyReader: fixedPolicyReader{},
	}

	commandOutput, executionError := runReportCommand(testInstance, builder)
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, commandOutput, noAuditableSessionsFragment)
	require.Equal(testInstance, 0, stubExecutor.invocationCount())
}
