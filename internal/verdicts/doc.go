// Package verdicts defines the audit verdict model and recovers structured
// verdict and insight payloads from loosely formatted model responses.
package verdicts
