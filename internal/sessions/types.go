package sessions

import (
	"fmt"
	"strings"
	"time"
)

const (
	labelTimestampLayoutConstant      = "2006-01-02 15:04"
	labelTimestampFallbackLength      = 16
	labelFirstMessageExcerptLength    = 60
	labelPartSeparatorConstant        = " | "
	labelProjectSeparatorOldConstant  = "-"
	labelProjectSeparatorNewConstant  = "/"
	labelFirstMessageTemplateConstant = "%q"
	labelShortIdentifierLength        = 8
	newlineReplacementConstant        = " "
	excerptEllipsisConstant           = "..."
)

// TurnRoleUser and companions enumerate the well-known transcript roles.
// Unknown roles encountered in a transcript pass through verbatim.
const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"
	TurnRoleTool      = "tool"
)

// Turn captures one message or tool event within a session transcript.
type Turn struct {
	Role      string
	Text      string
	ToolCalls []string
	Timestamp string
}

// Session describes one coding session transcript on disk.
type Session struct {
	ID               string
	Path             string
	Project          string
	WorkingDirectory string
	Timestamp        string
	ModTime          time.Time
	Turns            []Turn
}

// Label produces a human-readable descriptor for session pickers.
func (session Session) Label() string {
	var labelParts []string

	timeLabel := session.formatTimestampLabel()
	if len(timeLabel) > 0 {
		labelParts = append(labelParts, timeLabel)
	}

	projectLabel := strings.TrimPrefix(strings.ReplaceAll(session.Project, labelProjectSeparatorOldConstant, labelProjectSeparatorNewConstant), labelProjectSeparatorNewConstant)
	if len(projectLabel) > 0 {
		labelParts = append(labelParts, projectLabel)
	}

	firstMessageExcerpt := session.firstMessageExcerpt()
	if len(firstMessageExcerpt) > 0 {
		labelParts = append(labelParts, fmt.Sprintf(labelFirstMessageTemplateConstant, firstMessageExcerpt))
	}

	if len(labelParts) == 0 {
		return session.ShortID()
	}

	return strings.Join(labelParts, labelPartSeparatorConstant)
}

// ShortID returns a truncated session identifier for compact display.
func (session Session) ShortID() string {
	if len(session.ID) <= labelShortIdentifierLength {
		return session.ID
	}
	return session.ID[:labelShortIdentifierLength]
}

func (session Session) formatTimestampLabel() string {
	trimmedTimestamp := strings.TrimSpace(session.Timestamp)
	if len(trimmedTimestamp) == 0 {
		return ""
	}

	parsedTimestamp, parseError := time.Parse(time.RFC3339, trimmedTimestamp)
	if parseError != nil {
		if len(trimmedTimestamp) > labelTimestampFallbackLength {
			return trimmedTimestamp[:labelTimestampFallbackLength]
		}
		return trimmedTimestamp
	}

	return parsedTimestamp.Format(labelTimestampLayoutConstant)
}

func (session Session) firstMessageExcerpt() string {
	if len(session.Turns) == 0 {
		return ""
	}

	firstText := strings.ReplaceAll(session.Turns[0].Text, "\n", newlineReplacementConstant)
	excerptRunes := []rune(firstText)
	if len(excerptRunes) <= labelFirstMessageExcerptLength {
		return firstText
	}

	return string(excerptRunes[:labelFirstMessageExcerptLength]) + excerptEllipsisConstant
}
