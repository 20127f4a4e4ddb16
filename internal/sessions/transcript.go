package sessions

import (
	"fmt"
	"strings"
)

const (
	transcriptHeaderTemplateConstant           = "# Session: %s"
	transcriptProjectTemplateConstant          = "Project: %s"
	transcriptWorkingDirectoryTemplate         = "Working directory: %s"
	transcriptStartedTemplateConstant          = "Started: %s"
	transcriptMessageCountTemplateConstant     = "Messages: %d"
	transcriptRoleSeparatorTemplateConstant    = "--- %s ---"
	transcriptSectionSeparatorConstant         = "\n\n"
	transcriptUnknownPlaceholderConstant       = "unknown"
)

// FormatTranscript renders a parsed session as the plain-text document sent
// to the analysis model. Roles are uppercased section markers so the policy
// auditor can attribute every utterance.
func FormatTranscript(session Session) string {
	var documentBuilder strings.Builder

	documentBuilder.WriteString(fmt.Sprintf(transcriptHeaderTemplateConstant, session.ID))
	documentBuilder.WriteString("\n")
	documentBuilder.WriteString(fmt.Sprintf(transcriptProjectTemplateConstant, valueOrUnknown(session.Project)))
	documentBuilder.WriteString("\n")
	documentBuilder.WriteString(fmt.Sprintf(transcriptWorkingDirectoryTemplate, valueOrUnknown(session.WorkingDirectory)))
	documentBuilder.WriteString("\n")
	documentBuilder.WriteString(fmt.Sprintf(transcriptStartedTemplateConstant, valueOrUnknown(session.Timestamp)))
	documentBuilder.WriteString("\n")
	documentBuilder.WriteString(fmt.Sprintf(transcriptMessageCountTemplateConstant, len(session.Turns)))

	for _, turn := range session.Turns {
		documentBuilder.WriteString(transcriptSectionSeparatorConstant)
		documentBuilder.WriteString(fmt.Sprintf(transcriptRoleSeparatorTemplateConstant, strings.ToUpper(turn.Role)))
		documentBuilder.WriteString("\n")
		documentBuilder.WriteString(turn.Text)
	}

	return documentBuilder.String()
}

func valueOrUnknown(fieldValue string) string {
	if len(strings.TrimSpace(fieldValue)) == 0 {
		return transcriptUnknownPlaceholderConstant
	}
	return fieldValue
}
