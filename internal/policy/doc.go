// Package policy manages the policy document audits evaluate sessions
// against, including persona templates and the editor workflow.
package policy
