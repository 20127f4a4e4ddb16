// Package report renders audit results for terminals and markdown exports.
// All renderers are pure functions over verdict structures.
package report
