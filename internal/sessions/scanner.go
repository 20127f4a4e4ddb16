package sessions

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	transcriptFileExtensionConstant     = ".jsonl"
	subagentDirectoryNameConstant       = "subagents"
	noSessionsFoundErrorTemplate        = "no sessions found in %s"
	scannerProbeLineLimitConstant       = 64
	scannerProbeBufferInitialSize       = 64 * 1024
	scannerProbeBufferMaximumSize       = 1024 * 1024
	sessionDiscoveredMessageConstant    = "session discovered"
	sessionSkippedMessageConstant       = "session skipped"
	skipReasonSubagentConstant          = "subagent transcript"
	skipReasonSelfAuditConstant         = "self-audit transcript"
	logFieldTranscriptPathConstant      = "transcript_path"
	logFieldSkipReasonConstant          = "skip_reason"
	recordTypeUserConstant              = "user"
	recordContentBlockTypeTextConstant  = "text"
)

// Prompt prefixes used by sesslint's own claude -p invocations. Sessions
// whose first user message starts with one of these are audit sessions
// produced by this tool, not user work, and must never be re-audited.
var selfAuditPromptPrefixes = []string{
	"You are a compliance auditor for AI coding sessions.",
	"You are a development coach reviewing an AI coding session transcript.",
}

// NoSessionsFoundError reports that no auditable session transcripts exist.
type NoSessionsFoundError struct {
	RootDirectory string
}

// Error names the scanned root directory.
func (notFound NoSessionsFoundError) Error() string {
	return fmt.Sprintf(noSessionsFoundErrorTemplate, notFound.RootDirectory)
}

// Scanner locates session transcripts beneath a projects directory.
type Scanner struct {
	rootDirectory string
	logger        *zap.Logger
}

// NewScanner constructs a Scanner rooted at the provided projects directory.
func NewScanner(rootDirectory string, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{rootDirectory: rootDirectory, logger: logger}
}

// Discover returns session descriptors ordered newest first, excluding
// sub-agent transcripts and sesslint's own audit sessions.
func (scanner *Scanner) Discover() ([]Session, error) {
	if _, statError := os.Stat(scanner.rootDirectory); statError != nil {
		return nil, nil
	}

	var discoveredSessions []Session

	walkError := filepath.WalkDir(scanner.rootDirectory, func(candidatePath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return nil
		}

		if directoryEntry.IsDir() {
			if directoryEntry.Name() == subagentDirectoryNameConstant {
				scanner.logger.Debug(
					sessionSkippedMessageConstant,
					zap.String(logFieldTranscriptPathConstant, candidatePath),
					zap.String(logFieldSkipReasonConstant, skipReasonSubagentConstant),
				)
				return fs.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(directoryEntry.Name(), transcriptFileExtensionConstant) {
			return nil
		}

		if scanner.isSelfAuditTranscript(candidatePath) {
			scanner.logger.Debug(
				sessionSkippedMessageConstant,
				zap.String(logFieldTranscriptPathConstant, candidatePath),
				zap.String(logFieldSkipReasonConstant, skipReasonSelfAuditConstant),
			)
			return nil
		}

		fileInformation, informationError := directoryEntry.Info()
		if informationError != nil {
			return nil
		}

		discoveredSession := Session{
			ID:      strings.TrimSuffix(directoryEntry.Name(), transcriptFileExtensionConstant),
			Path:    candidatePath,
			Project: filepath.Base(filepath.Dir(candidatePath)),
			ModTime: fileInformation.ModTime(),
		}
		discoveredSessions = append(discoveredSessions, discoveredSession)

		scanner.logger.Debug(
			sessionDiscoveredMessageConstant,
			zap.String(logFieldTranscriptPathConstant, candidatePath),
		)
		return nil
	})
	if walkError != nil {
		return nil, walkError
	}

	sort.SliceStable(discoveredSessions, func(firstIndex int, secondIndex int) bool {
		return discoveredSessions[firstIndex].ModTime.After(discoveredSessions[secondIndex].ModTime)
	})

	return discoveredSessions, nil
}

// MostRecent returns the newest auditable session or NoSessionsFoundError.
func (scanner *Scanner) MostRecent() (Session, error) {
	discoveredSessions, discoveryError := scanner.Discover()
	if discoveryError != nil {
		return Session{}, discoveryError
	}
	if len(discoveredSessions) == 0 {
		return Session{}, NoSessionsFoundError{RootDirectory: scanner.rootDirectory}
	}
	return discoveredSessions[0], nil
}

// isSelfAuditTranscript reads the transcript's first user message and checks
// it against the known sesslint prompt prefixes. Any read or decode failure
// keeps the transcript in the candidate set.
func (scanner *Scanner) isSelfAuditTranscript(transcriptPath string) bool {
	transcriptFile, openError := os.Open(transcriptPath)
	if openError != nil {
		return false
	}
	defer transcriptFile.Close()

	lineScanner := bufio.NewScanner(transcriptFile)
	lineScanner.Buffer(make([]byte, 0, scannerProbeBufferInitialSize), scannerProbeBufferMaximumSize)

	for lineIndex := 0; lineIndex < scannerProbeLineLimitConstant && lineScanner.Scan(); lineIndex++ {
		trimmedLine := strings.TrimSpace(lineScanner.Text())
		if len(trimmedLine) == 0 {
			continue
		}

		var probeRecord struct {
			Type    string `json:"type"`
			Message struct {
				Content json.RawMessage `json:"content"`
			} `json:"message"`
		}
		if decodeError := json.Unmarshal([]byte(trimmedLine), &probeRecord); decodeError != nil {
			continue
		}
		if probeRecord.Type != recordTypeUserConstant {
			continue
		}

		firstUserText := extractProbeText(probeRecord.Message.Content)
		for _, promptPrefix := range selfAuditPromptPrefixes {
			if strings.HasPrefix(firstUserText, promptPrefix) {
				return true
			}
		}
		return false
	}

	return false
}

// extractProbeText pulls plain text out of a string-or-blocks content field
// without performing the full turn normalization.
func extractProbeText(rawContent json.RawMessage) string {
	var plainText string
	if decodeError := json.Unmarshal(rawContent, &plainText); decodeError == nil {
		return plainText
	}

	var contentBlocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if decodeError := json.Unmarshal(rawContent, &contentBlocks); decodeError == nil {
		for _, contentBlock := range contentBlocks {
			if contentBlock.Type == recordContentBlockTypeTextConstant {
				return contentBlock.Text
			}
		}
	}

	return ""
}
