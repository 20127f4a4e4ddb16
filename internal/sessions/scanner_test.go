package sessions_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/sesslint/internal/sessions"
)

const (
	newestFirstOrderingTestName       = "newest_first_ordering"
	subagentExclusionTestName         = "subagent_directories_excluded"
	selfAuditExclusionTestName        = "self_audit_transcripts_excluded"
	nonTranscriptFilesIgnoredTestName = "non_transcript_files_ignored"
	missingRootTestName               = "missing_root_yields_empty_set"
	mostRecentTestName                = "most_recent_returns_newest"
	mostRecentEmptyTestName           = "most_recent_reports_not_found"
	userMessageLineConstant           = `{"type":"user","message":{"role":"user","content":"please fix the flaky test"}}`
	selfAuditMessageLineConstant      = `{"type":"user","message":{"role":"user","content":"You are a compliance auditor for AI coding sessions. Review the transcript."}}`
)

func writeTranscriptFixture(testInstance *testing.T, transcriptPath string, transcriptContent string, modificationTime time.Time) {
	testInstance.Helper()
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(transcriptPath), 0o755))
	require.NoError(testInstance, os.WriteFile(transcriptPath, []byte(transcriptContent), 0o644))
	require.NoError(testInstance, os.Chtimes(transcriptPath, modificationTime, modificationTime))
}

func TestScannerDiscover(testInstance *testing.T) {
	baseTime := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name               string
		buildFixtures      func(testInstance *testing.T, rootDirectory string)
		expectedIdentifier []string
	}{
		{
			name: newestFirstOrderingTestName,
			buildFixtures: func(testInstance *testing.T, rootDirectory string) {
				writeTranscriptFixture(testInstance, filepath.Join(rootDirectory, "project-a", "s1.jsonl"), userMessageLineConstant, baseTime.Add(1*time.Minute))
				writeTranscriptFixture(testInstance, filepath.Join(rootDirectory, "project-a", "s2.jsonl"), userMessageLineConstant, baseTime.Add(3*time.Minute))
			},
			expectedIdentifier: []string{"s2", "s1"},
		},
		{
			name: subagentExclusionTestName,
			buildFixtures: func(testInstance *testing.T, rootDirectory string) {
				writeTranscriptFixture(testInstance, filepath.Join(rootDirectory, "project-a", "s1.jsonl"), userMessageLineConstant, baseTime.Add(1*time.Minute))
				writeTranscriptFixture(testInstance, filepath.Join(rootDirectory, "project-a", "s2.jsonl"), userMessageLineConstant, baseTime.Add(3*time.Minute))
				writeTranscriptFixture(testInstance, filepath.Join(rootDirectory, "project-b", "subagents", "s3.jsonl"), userMessageLineConstant, baseTime.Add(5*time.Minute))
			},
			expectedIdentifier: []string{"s2", "s1"},
		},
		{
			name: selfAuditExclusionTestName,
			buildFixtures: func(testInstance *testing.T, rootDirectory string) {
				writeTranscriptFixture(testInstance, filepath.Join(rootDirectory, "project-a", "work.jsonl"), userMessageLineConstant, baseTime.Add(1*time.Minute))
				writeTranscriptFixture(testInstance, filepath.Join(rootDirectory, "project-a", "audit.jsonl"), selfAuditMessageLineConstant, baseTime.Add(2*time.Minute))
			},
			expectedIdentifier: []string{"work"},
		},
		{
			name: nonTranscriptFilesIgnoredTestName,
			buildFixtures: func(testInstance *testing.T, rootDirectory string) {
				writeTranscriptFixture(testInstance, filepath.Join(rootDirectory, "project-a", "s1.jsonl"), userMessageLineConstant, baseTime)
				writeTranscriptFixture(testInstance, filepath.Join(rootDirectory, "project-a", "notes.txt"), "scratch notes", baseTime.Add(1*time.Minute))
			},
			expectedIdentifier: []string{"s1"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			rootDirectory := testInstance.TempDir()
			testCase.buildFixtures(testInstance, rootDirectory)

			sessionScanner := sessions.NewScanner(rootDirectory, nil)
			discoveredSessions, discoveryError := sessionScanner.Discover()
			require.NoError(testInstance, discoveryError)

			discoveredIdentifiers := make([]string, 0, len(discoveredSessions))
			for _, discoveredSession := range discoveredSessions {
				discoveredIdentifiers = append(discoveredIdentifiers, discoveredSession.ID)
			}
			require.Equal(testInstance, testCase.expectedIdentifier, discoveredIdentifiers)
		})
	}
}

func TestScannerDiscoverMissingRoot(testInstance *testing.T) {
	testInstance.Run(missingRootTestName, func(testInstance *testing.T) {
		sessionScanner := sessions.NewScanner(filepath.Join(testInstance.TempDir(), "does-not-exist"), nil)
		discoveredSessions, discoveryError := sessionScanner.Discover()
		require.NoError(testInstance, discoveryError)
		require.Empty(testInstance, discoveredSessions)
	})
}

func TestScannerMostRecent(testInstance *testing.T) {
	baseTime := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	testInstance.Run(mostRecentTestName, func(testInstance *testing.T) {
		rootDirectory := testInstance.TempDir()
		writeTranscriptFixture(testInstance, filepath.Join(rootDirectory, "project-a", "older.jsonl"), userMessageLineConstant, baseTime)
		writeTranscriptFixture(testInstance, filepath.Join(rootDirectory, "project-b", "newer.jsonl"), userMessageLineConstant, baseTime.Add(time.Hour))

		sessionScanner := sessions.NewScanner(rootDirectory, nil)
		mostRecentSession, discoveryError := sessionScanner.MostRecent()
		require.NoError(testInstance, discoveryError)
		require.Equal(testInstance, "newer", mostRecentSession.ID)
		require.Equal(testInstance, "project-b", mostRecentSession.Project)
	})

	testInstance.Run(mostRecentEmptyTestName, func(testInstance *testing.T) {
		sessionScanner := sessions.NewScanner(testInstance.TempDir(), nil)
		_, discoveryError := sessionScanner.MostRecent()

		var notFoundError sessions.NoSessionsFoundError
		require.ErrorAs(testInstance, discoveryError, &notFoundError)
	})
}

func TestScannerProjectAssignment(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	writeTranscriptFixture(testInstance, filepath.Join(rootDirectory, "-home-user-service", "abc.jsonl"), userMessageLineConstant, time.Now())

	sessionScanner := sessions.NewScanner(rootDirectory, nil)
	discoveredSessions, discoveryError := sessionScanner.Discover()
	require.NoError(testInstance, discoveryError)
	require.Len(testInstance, discoveredSessions, 1)
	require.Equal(testInstance, "-home-user-service", discoveredSessions[0].Project)
	require.False(testInstance, discoveredSessions[0].ModTime.IsZero())
}

func TestNoSessionsFoundErrorMessage(testInstance *testing.T) {
	notFoundError := sessions.NoSessionsFoundError{RootDirectory: "/tmp/projects"}
	require.Equal(testInstance, "no sessions found in /tmp/projects", notFoundError.Error())
}
