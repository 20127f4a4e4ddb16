// Package promptutils provides interactive terminal prompts backed by
// arbitrary reader and writer pairs so commands stay testable.
package promptutils

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	affirmativeShortResponseConstant = "y"
	affirmativeLongResponseConstant  = "yes"
	selectionRangeErrorTemplate      = "selection must be between 1 and %d"
	selectionParseErrorTemplate      = "unable to read selection: %w"
)

// IOPrompter reads interactive responses from an io.Reader and echoes
// prompts to an io.Writer.
type IOPrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewIOPrompter constructs a prompter from the provided reader and writer.
func NewIOPrompter(input io.Reader, output io.Writer) *IOPrompter {
	return &IOPrompter{reader: bufio.NewReader(input), writer: output}
}

// Confirm writes the prompt and interprets affirmative responses (y/yes).
// An empty response takes the provided default.
func (prompter *IOPrompter) Confirm(prompt string, defaultAnswer bool) (bool, error) {
	response, promptError := prompter.promptLine(prompt)
	if promptError != nil {
		return false, promptError
	}

	trimmedResponse := strings.TrimSpace(strings.ToLower(response))
	if len(trimmedResponse) == 0 {
		return defaultAnswer, nil
	}

	return trimmedResponse == affirmativeShortResponseConstant || trimmedResponse == affirmativeLongResponseConstant, nil
}

// SelectIndex writes the prompt and reads a one-based selection bounded by
// optionCount.
func (prompter *IOPrompter) SelectIndex(prompt string, optionCount int) (int, error) {
	response, promptError := prompter.promptLine(prompt)
	if promptError != nil {
		return 0, promptError
	}

	selectedIndex, parseError := strconv.Atoi(strings.TrimSpace(response))
	if parseError != nil {
		return 0, fmt.Errorf(selectionParseErrorTemplate, parseError)
	}
	if selectedIndex < 1 || selectedIndex > optionCount {
		return 0, fmt.Errorf(selectionRangeErrorTemplate, optionCount)
	}

	return selectedIndex, nil
}

// SelectChoice writes the prompt and reads a response constrained to the
// provided choices, matched case-insensitively.
func (prompter *IOPrompter) SelectChoice(prompt string, choices []string) (string, error) {
	response, promptError := prompter.promptLine(prompt)
	if promptError != nil {
		return "", promptError
	}

	trimmedResponse := strings.TrimSpace(strings.ToLower(response))
	for _, choice := range choices {
		if trimmedResponse == strings.ToLower(choice) {
			return choice, nil
		}
	}

	return "", fmt.Errorf("unrecognized choice %q, expected one of: %s", trimmedResponse, strings.Join(choices, ", "))
}

func (prompter *IOPrompter) promptLine(prompt string) (string, error) {
	if prompter.writer != nil {
		if _, writeError := io.WriteString(prompter.writer, prompt); writeError != nil {
			return "", writeError
		}
	}

	response, readError := prompter.reader.ReadString('\n')
	if readError != nil && readError != io.EOF {
		return "", readError
	}

	return response, nil
}
