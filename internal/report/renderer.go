package report

import (
	"fmt"
	"strings"

	"github.com/temirov/sesslint/internal/verdicts"
)

const (
	terminalPassIconConstant         = "+"
	terminalFailIconConstant         = "x"
	terminalSkipIconConstant         = "-"
	terminalUnknownIconConstant      = "?"
	terminalVerdictTemplateConstant  = "  [%s] %s: %s"
	terminalFailureTemplateConstant  = "  [%s] %s: %s — %s"
	terminalTallyTemplateConstant    = "  %d/%d passed"
	insightsHeaderConstant           = "\n--- Session Insights ---\n"
	insightsWentWellHeaderConstant   = "What went well:"
	insightsToImproveHeaderConstant  = "What to improve:"
	insightsNotableHeaderConstant    = "Notable:"
	insightsItemTemplateConstant     = "  - %s"
	insightsEvidenceTemplateConstant = "    Evidence: %s"
	markdownTitleConstant            = "# sesslint Compliance Report"
	markdownSessionTemplateConstant  = "## %s"
	markdownCategoryTemplateConstant = "### %s"
	markdownPassIconConstant         = "✅"
	markdownFailIconConstant         = "❌"
	markdownSkipIconConstant         = "⏭️"
	markdownUnknownIconConstant      = "❓"
	markdownVerdictTemplateConstant  = "- %s **%s**: %s"
	markdownReasonTemplateConstant   = "  - %s"
	markdownScoreTemplateConstant    = "**Score: %d passed, %d failed, %d skipped**"
	markdownSummaryTemplateConstant  = "> %s"
	markdownDividerConstant          = "---"
	markdownOverallHeaderConstant    = "## Overall"
	markdownSessionsTemplateConstant = "- Sessions checked: %d"
	markdownTotalsTemplateConstant   = "- Total: %d passed, %d failed, %d skipped"
)

// SessionResult pairs a session label with its audit outcome for reporting.
type SessionResult struct {
	SessionLabel string
	VerdictSet   verdicts.VerdictSet
}

// RenderTerminal formats one verdict set for terminal display. Failures carry
// their reasoning inline; passes and skips stay on one line.
func RenderTerminal(verdictSet verdicts.VerdictSet) string {
	var outputLines []string

	for _, verdict := range verdictSet.Verdicts {
		if verdict.Failed() {
			outputLines = append(outputLines, fmt.Sprintf(terminalFailureTemplateConstant, terminalIcon(verdict.Status), verdict.Status, verdict.Rule, verdict.Reasoning))
			continue
		}
		outputLines = append(outputLines, fmt.Sprintf(terminalVerdictTemplateConstant, terminalIcon(verdict.Status), verdict.Status, verdict.Rule))
	}

	outputLines = append(outputLines, "")
	outputLines = append(outputLines, fmt.Sprintf(terminalTallyTemplateConstant, verdictSet.PassedCount(), len(verdictSet.Verdicts)))

	return strings.Join(outputLines, "\n")
}

// RenderInsights formats a coaching analysis for terminal display. Empty
// sections are omitted entirely.
func RenderInsights(insights verdicts.Insights) string {
	outputLines := []string{insightsHeaderConstant}

	if len(insights.WhatWentWell) > 0 {
		outputLines = append(outputLines, insightsWentWellHeaderConstant)
		for _, insightItem := range insights.WhatWentWell {
			outputLines = append(outputLines, fmt.Sprintf(insightsItemTemplateConstant, insightItem.Pattern))
			outputLines = append(outputLines, fmt.Sprintf(insightsEvidenceTemplateConstant, insightItem.Evidence))
		}
		outputLines = append(outputLines, "")
	}

	if len(insights.WhatToImprove) > 0 {
		outputLines = append(outputLines, insightsToImproveHeaderConstant)
		for _, insightItem := range insights.WhatToImprove {
			outputLines = append(outputLines, fmt.Sprintf(insightsItemTemplateConstant, insightItem.Pattern))
			outputLines = append(outputLines, fmt.Sprintf(insightsEvidenceTemplateConstant, insightItem.Evidence))
		}
		outputLines = append(outputLines, "")
	}

	if len(insights.Notable) > 0 {
		outputLines = append(outputLines, insightsNotableHeaderConstant)
		for _, notableItem := range insights.Notable {
			outputLines = append(outputLines, fmt.Sprintf(insightsItemTemplateConstant, notableItem.Observation))
			outputLines = append(outputLines, fmt.Sprintf(insightsEvidenceTemplateConstant, notableItem.Evidence))
		}
		outputLines = append(outputLines, "")
	}

	return strings.Join(outputLines, "\n")
}

// RenderMarkdown formats multiple session results into one markdown report
// with per-session category groupings and an overall tally.
func RenderMarkdown(sessionResults []SessionResult) string {
	outputLines := []string{markdownTitleConstant, ""}

	totalPassed := 0
	totalFailed := 0
	totalSkipped := 0

	for _, sessionResult := range sessionResults {
		outputLines = append(outputLines, fmt.Sprintf(markdownSessionTemplateConstant, sessionResult.SessionLabel))
		outputLines = append(outputLines, "")

		for _, categoryGroup := range groupByCategory(sessionResult.VerdictSet.Verdicts) {
			outputLines = append(outputLines, fmt.Sprintf(markdownCategoryTemplateConstant, categoryGroup.category))
			outputLines = append(outputLines, "")
			for _, verdict := range categoryGroup.verdicts {
				outputLines = append(outputLines, fmt.Sprintf(markdownVerdictTemplateConstant, markdownIcon(verdict.Status), verdict.Status, verdict.Rule))
				outputLines = append(outputLines, fmt.Sprintf(markdownReasonTemplateConstant, verdict.Reasoning))
			}
			outputLines = append(outputLines, "")
		}

		passedCount := sessionResult.VerdictSet.PassedCount()
		failedCount := sessionResult.VerdictSet.FailedCount()
		skippedCount := len(sessionResult.VerdictSet.Verdicts) - passedCount - failedCount
		totalPassed += passedCount
		totalFailed += failedCount
		totalSkipped += skippedCount

		outputLines = append(outputLines, "")
		outputLines = append(outputLines, fmt.Sprintf(markdownScoreTemplateConstant, passedCount, failedCount, skippedCount))
		outputLines = append(outputLines, "")

		if len(sessionResult.VerdictSet.Summary) > 0 {
			outputLines = append(outputLines, fmt.Sprintf(markdownSummaryTemplateConstant, sessionResult.VerdictSet.Summary))
			outputLines = append(outputLines, "")
		}

		outputLines = append(outputLines, markdownDividerConstant)
		outputLines = append(outputLines, "")
	}

	outputLines = append(outputLines, markdownOverallHeaderConstant)
	outputLines = append(outputLines, fmt.Sprintf(markdownSessionsTemplateConstant, len(sessionResults)))
	outputLines = append(outputLines, fmt.Sprintf(markdownTotalsTemplateConstant, totalPassed, totalFailed, totalSkipped))
	outputLines = append(outputLines, "")

	return strings.Join(outputLines, "\n")
}

type categoryGroup struct {
	category string
	verdicts []verdicts.Verdict
}

// groupByCategory buckets verdicts by category, preserving the order in
// which each category first appears.
func groupByCategory(allVerdicts []verdicts.Verdict) []categoryGroup {
	groupIndexByCategory := make(map[string]int)
	var orderedGroups []categoryGroup

	for _, verdict := range allVerdicts {
		groupIndex, categoryKnown := groupIndexByCategory[verdict.Category]
		if !categoryKnown {
			groupIndex = len(orderedGroups)
			groupIndexByCategory[verdict.Category] = groupIndex
			orderedGroups = append(orderedGroups, categoryGroup{category: verdict.Category})
		}
		orderedGroups[groupIndex].verdicts = append(orderedGroups[groupIndex].verdicts, verdict)
	}

	return orderedGroups
}

func terminalIcon(status verdicts.Status) string {
	switch status {
	case verdicts.StatusPass:
		return terminalPassIconConstant
	case verdicts.StatusFail:
		return terminalFailIconConstant
	case verdicts.StatusSkip:
		return terminalSkipIconConstant
	default:
		return terminalUnknownIconConstant
	}
}

func markdownIcon(status verdicts.Status) string {
	switch status {
	case verdicts.StatusPass:
		return markdownPassIconConstant
	case verdicts.StatusFail:
		return markdownFailIconConstant
	case verdicts.StatusSkip:
		return markdownSkipIconConstant
	default:
		return markdownUnknownIconConstant
	}
}
