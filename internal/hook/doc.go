// Package hook installs and removes the SessionEnd hook that runs an audit
// automatically when a coding session finishes.
package hook
