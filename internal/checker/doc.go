// Package checker orchestrates compliance audits: it formats session
// transcripts, sends them to the claude CLI alongside the policy document,
// and decodes the returned verdicts and insights.
package checker
