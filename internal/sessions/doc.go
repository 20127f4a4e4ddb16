// Package sessions discovers and parses AI coding session transcripts.
//
// It scans a projects directory for JSONL transcript files, filters out
// sub-agent and self-audit sessions, and normalizes the append-only record
// stream of a transcript into an ordered Session suitable for prompting
// and display.
package sessions
