package verdicts

// Status enumerates the recognized outcomes of a single policy rule check.
type Status string

// Recognized verdict statuses. Responses carrying any other status value are
// dropped during normalization rather than guessed at.
const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
	StatusSkip Status = "SKIP"
)

// Verdict records the outcome of one policy rule applied to one session.
type Verdict struct {
	Category  string `json:"category"`
	Rule      string `json:"rule"`
	Status    Status `json:"verdict"`
	Reasoning string `json:"reasoning"`
}

// Passed reports whether the rule was satisfied.
func (verdict Verdict) Passed() bool {
	return verdict.Status == StatusPass
}

// Failed reports whether the rule was violated.
func (verdict Verdict) Failed() bool {
	return verdict.Status == StatusFail
}

// Skipped reports whether the rule did not apply to the session.
func (verdict Verdict) Skipped() bool {
	return verdict.Status == StatusSkip
}

// VerdictSet aggregates every verdict for one audited session.
type VerdictSet struct {
	Verdicts []Verdict `json:"verdicts"`
	Summary  string    `json:"summary"`
}

// PassedCount returns the number of satisfied rules.
func (verdictSet VerdictSet) PassedCount() int {
	passedCount := 0
	for _, verdict := range verdictSet.Verdicts {
		if verdict.Passed() {
			passedCount++
		}
	}
	return passedCount
}

// FailedCount returns the number of violated rules.
func (verdictSet VerdictSet) FailedCount() int {
	failedCount := 0
	for _, verdict := range verdictSet.Verdicts {
		if verdict.Failed() {
			failedCount++
		}
	}
	return failedCount
}

// ApplicableCount returns the number of rules that applied to the session,
// excluding skips.
func (verdictSet VerdictSet) ApplicableCount() int {
	applicableCount := 0
	for _, verdict := range verdictSet.Verdicts {
		if !verdict.Skipped() {
			applicableCount++
		}
	}
	return applicableCount
}

// HasFailures reports whether any rule was violated.
func (verdictSet VerdictSet) HasFailures() bool {
	return verdictSet.FailedCount() > 0
}

// InsightItem pairs an observed working pattern with its supporting evidence.
type InsightItem struct {
	Pattern  string `json:"pattern"`
	Evidence string `json:"evidence"`
}

// NotableItem records a standalone observation about the session.
type NotableItem struct {
	Observation string `json:"observation"`
	Evidence    string `json:"evidence"`
}

// Insights captures the coaching analysis extracted alongside the compliance
// verdicts.
type Insights struct {
	WhatWentWell  []InsightItem `json:"what_went_well"`
	WhatToImprove []InsightItem `json:"what_to_improve"`
	Notable       []NotableItem `json:"notable"`
}

// IsEmpty reports whether the analysis produced no observations at all.
func (insights Insights) IsEmpty() bool {
	return len(insights.WhatWentWell) == 0 && len(insights.WhatToImprove) == 0 && len(insights.Notable) == 0
}
