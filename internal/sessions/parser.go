package sessions

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

const (
	parserBufferInitialSizeConstant    = 256 * 1024
	parserBufferMaximumSizeConstant    = 10 * 1024 * 1024
	defaultTurnLimitConstant           = 200
	toolResultTruncationLimitConstant  = 500
	toolResultTruncationSuffixConstant = "... (truncated)"
	toolMarkerTemplateConstant         = "[Tool: %s]"
	toolMarkerWithInputTemplate        = "[Tool: %s] %s"
	toolResultMarkerTemplateConstant   = "[Tool Result] %s"
	blockJoinSeparatorConstant         = "\n"
	malformedRecordMessageConstant     = "malformed transcript record skipped"
	logFieldLineNumberConstant         = "line_number"
	contentBlockTypeTextConstant       = "text"
	contentBlockTypeToolUseConstant    = "tool_use"
	contentBlockTypeToolResultConstant = "tool_result"
	toolNameBashConstant               = "Bash"
	toolNameReadConstant               = "Read"
	toolNameWriteConstant              = "Write"
	toolNameEditConstant               = "Edit"
	toolNameGrepConstant               = "Grep"
	toolNameGlobConstant               = "Glob"
	toolInputCommandKeyConstant        = "command"
	toolInputFilePathKeyConstant       = "file_path"
	toolInputPatternKeyConstant        = "pattern"
	toolInputPatternTemplateConstant   = "pattern=%s"
	unknownToolNameConstant            = "unknown"
	commandSummaryLimitConstant        = 60
	commandSummaryEllipsisConstant     = "..."
)

// transcriptRecord models one append-only JSONL line of a session transcript.
type transcriptRecord struct {
	Type             string `json:"type"`
	WorkingDirectory string `json:"cwd"`
	Timestamp        string `json:"timestamp"`
	Message          struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

// contentBlock models one element of a block-list content payload.
type contentBlock struct {
	Type    string          `json:"type"`
	Text    string          `json:"text"`
	Name    string          `json:"name"`
	Input   json.RawMessage `json:"input"`
	Content json.RawMessage `json:"content"`
}

// Parser streams transcript files into normalized Sessions.
type Parser struct {
	logger    *zap.Logger
	turnLimit int
}

// NewParser constructs a Parser with the default turn limit.
func NewParser(logger *zap.Logger) *Parser {
	return NewParserWithTurnLimit(logger, defaultTurnLimitConstant)
}

// NewParserWithTurnLimit constructs a Parser that stops after turnLimit turns.
// A non-positive limit disables the cap.
func NewParserWithTurnLimit(logger *zap.Logger, turnLimit int) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{logger: logger, turnLimit: turnLimit}
}

// Parse reads the descriptor's transcript file and returns a Session with
// normalized turns. Individual malformed lines are skipped, never fatal; an
// empty transcript yields a Session with zero turns.
func (parser *Parser) Parse(descriptor Session) (Session, error) {
	transcriptFile, openError := os.Open(descriptor.Path)
	if openError != nil {
		return Session{}, openError
	}
	defer transcriptFile.Close()

	parsedSession := descriptor
	parsedSession.Turns = nil

	lineScanner := bufio.NewScanner(transcriptFile)
	lineScanner.Buffer(make([]byte, 0, parserBufferInitialSizeConstant), parserBufferMaximumSizeConstant)

	lineNumber := 0
	for lineScanner.Scan() {
		lineNumber++

		trimmedLine := strings.TrimSpace(lineScanner.Text())
		if len(trimmedLine) == 0 {
			continue
		}

		var record transcriptRecord
		if decodeError := json.Unmarshal([]byte(trimmedLine), &record); decodeError != nil {
			parser.logger.Debug(
				malformedRecordMessageConstant,
				zap.String(logFieldTranscriptPathConstant, descriptor.Path),
				zap.Int(logFieldLineNumberConstant, lineNumber),
				zap.Error(decodeError),
			)
			continue
		}

		if len(parsedSession.WorkingDirectory) == 0 && len(record.WorkingDirectory) > 0 {
			parsedSession.WorkingDirectory = record.WorkingDirectory
		}

		if len(record.Message.Role) == 0 || len(record.Message.Content) == 0 {
			continue
		}

		normalizedText, toolCallSummaries, pureToolResult := normalizeContent(record.Message.Content)
		if pureToolResult {
			continue
		}
		if len(strings.TrimSpace(normalizedText)) == 0 && len(toolCallSummaries) == 0 {
			continue
		}

		if len(parsedSession.Timestamp) == 0 {
			parsedSession.Timestamp = record.Timestamp
		}

		parsedSession.Turns = append(parsedSession.Turns, Turn{
			Role:      record.Message.Role,
			Text:      normalizedText,
			ToolCalls: toolCallSummaries,
			Timestamp: record.Timestamp,
		})

		if parser.turnLimit > 0 && len(parsedSession.Turns) >= parser.turnLimit {
			break
		}
	}

	if scanError := lineScanner.Err(); scanError != nil {
		parser.logger.Debug(
			malformedRecordMessageConstant,
			zap.String(logFieldTranscriptPathConstant, descriptor.Path),
			zap.Int(logFieldLineNumberConstant, lineNumber),
			zap.Error(scanError),
		)
	}

	return parsedSession, nil
}

// normalizeContent collapses a string-or-blocks content payload into a single
// text representation. Tool invocations and tool results become fixed-format
// markers concatenated in block order; the block list shape never leaks
// downstream. The returned flag reports content consisting solely of tool
// result echoes.
func normalizeContent(rawContent json.RawMessage) (string, []string, bool) {
	var plainText string
	if decodeError := json.Unmarshal(rawContent, &plainText); decodeError == nil {
		return plainText, nil, false
	}

	var contentBlocks []contentBlock
	if decodeError := json.Unmarshal(rawContent, &contentBlocks); decodeError != nil {
		return "", nil, false
	}

	var textParts []string
	var toolCallSummaries []string
	sawToolResultBlock := false
	sawOtherBlock := false

	for _, block := range contentBlocks {
		switch block.Type {
		case contentBlockTypeTextConstant:
			sawOtherBlock = true
			if len(block.Text) > 0 {
				textParts = append(textParts, block.Text)
			}
		case contentBlockTypeToolUseConstant:
			sawOtherBlock = true
			toolMarker := formatToolUseMarker(block.Name, block.Input)
			textParts = append(textParts, toolMarker)
			toolCallSummaries = append(toolCallSummaries, toolMarker)
		case contentBlockTypeToolResultConstant:
			sawToolResultBlock = true
			resultText := extractToolResultText(block.Content)
			if len(resultText) > 0 {
				textParts = append(textParts, fmt.Sprintf(toolResultMarkerTemplateConstant, truncateToolResult(resultText)))
			}
		default:
			// Forward compatibility: unknown block kinds (thinking and
			// friends) neither contribute text nor mark the record as a
			// tool result echo.
		}
	}

	if sawToolResultBlock && !sawOtherBlock {
		return "", nil, true
	}

	return strings.Join(textParts, blockJoinSeparatorConstant), toolCallSummaries, false
}

// formatToolUseMarker renders a compact "invoked tool" marker from a
// tool_use block, summarizing the most recognizable input field.
func formatToolUseMarker(toolName string, rawInput json.RawMessage) string {
	if len(toolName) == 0 {
		toolName = unknownToolNameConstant
	}

	var inputFields map[string]any
	if decodeError := json.Unmarshal(rawInput, &inputFields); decodeError != nil {
		return fmt.Sprintf(toolMarkerTemplateConstant, toolName)
	}

	switch toolName {
	case toolNameBashConstant:
		if commandValue, found := stringField(inputFields, toolInputCommandKeyConstant); found {
			return fmt.Sprintf(toolMarkerWithInputTemplate, toolName, truncateCommandSummary(commandValue))
		}
	case toolNameReadConstant, toolNameWriteConstant, toolNameEditConstant:
		if filePathValue, found := stringField(inputFields, toolInputFilePathKeyConstant); found {
			return fmt.Sprintf(toolMarkerWithInputTemplate, toolName, filePathValue)
		}
	case toolNameGrepConstant:
		if patternValue, found := stringField(inputFields, toolInputPatternKeyConstant); found {
			return fmt.Sprintf(toolMarkerWithInputTemplate, toolName, fmt.Sprintf(toolInputPatternTemplateConstant, patternValue))
		}
	case toolNameGlobConstant:
		if patternValue, found := stringField(inputFields, toolInputPatternKeyConstant); found {
			return fmt.Sprintf(toolMarkerWithInputTemplate, toolName, patternValue)
		}
	}

	return fmt.Sprintf(toolMarkerTemplateConstant, toolName)
}

func stringField(fields map[string]any, fieldKey string) (string, bool) {
	fieldValue, found := fields[fieldKey]
	if !found {
		return "", false
	}
	stringValue, isString := fieldValue.(string)
	if !isString || len(stringValue) == 0 {
		return "", false
	}
	return stringValue, true
}

// extractToolResultText handles tool_result content that arrives either as a
// plain string or as a nested block list.
func extractToolResultText(rawResultContent json.RawMessage) string {
	if len(rawResultContent) == 0 {
		return ""
	}

	var plainText string
	if decodeError := json.Unmarshal(rawResultContent, &plainText); decodeError == nil {
		return plainText
	}

	var nestedBlocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if decodeError := json.Unmarshal(rawResultContent, &nestedBlocks); decodeError == nil {
		var nestedTexts []string
		for _, nestedBlock := range nestedBlocks {
			if nestedBlock.Type == contentBlockTypeTextConstant && len(nestedBlock.Text) > 0 {
				nestedTexts = append(nestedTexts, nestedBlock.Text)
			}
		}
		return strings.Join(nestedTexts, blockJoinSeparatorConstant)
	}

	return ""
}

func truncateCommandSummary(commandText string) string {
	commandRunes := []rune(commandText)
	if len(commandRunes) <= commandSummaryLimitConstant {
		return commandText
	}
	return string(commandRunes[:commandSummaryLimitConstant]) + commandSummaryEllipsisConstant
}

func truncateToolResult(resultText string) string {
	resultRunes := []rune(resultText)
	if len(resultRunes) <= toolResultTruncationLimitConstant {
		return resultText
	}
	return string(resultRunes[:toolResultTruncationLimitConstant]) + toolResultTruncationSuffixConstant
}
