package hook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

const (
	// HookCommandConstant is the audit command the SessionEnd hook runs.
	HookCommandConstant = "sesslint check --last --quiet"

	hookCommandMarkerConstant    = "sesslint check"
	hooksSettingsKeyConstant     = "hooks"
	sessionEndEventNameConstant  = "SessionEnd"
	hookTypeCommandConstant      = "command"
	settingsFileIndentConstant   = "  "
	settingsDirectoryModeBits    = 0o755
	settingsFileModeBitsConstant = 0o644
	settingsFileSuffixConstant   = "\n"
)

// hookCommand is one executable entry inside a hook configuration.
type hookCommand struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

// hookEntry is one matcher block inside an event's hook list.
type hookEntry struct {
	Matcher string        `json:"matcher"`
	Hooks   []hookCommand `json:"hooks"`
}

// Manager reads and rewrites the hook configuration in a settings file while
// leaving unrelated settings untouched.
type Manager struct {
	settingsPath string
}

// NewManager constructs a Manager over the provided settings file path.
func NewManager(settingsPath string) *Manager {
	return &Manager{settingsPath: settingsPath}
}

// SettingsPath returns the managed settings file location.
func (manager *Manager) SettingsPath() string {
	return manager.settingsPath
}

// IsInstalled reports whether a SessionEnd audit hook is present, matching
// both the current command and older variants.
func (manager *Manager) IsInstalled() (bool, error) {
	_, sessionEndEntries, readError := manager.readSettings()
	if readError != nil {
		return false, readError
	}

	for _, rawEntry := range sessionEndEntries {
		if entryRunsAudit(rawEntry) {
			return true, nil
		}
	}
	return false, nil
}

// Install adds the SessionEnd audit hook, replacing any older audit hook
// entries. It reports whether an older entry was replaced.
func (manager *Manager) Install() (bool, error) {
	topLevelSettings, sessionEndEntries, readError := manager.readSettings()
	if readError != nil {
		return false, readError
	}

	retainedEntries := removeAuditEntries(sessionEndEntries)
	replaced := len(retainedEntries) != len(sessionEndEntries)

	newEntryBytes, marshalError := json.Marshal(hookEntry{
		Matcher: "",
		Hooks:   []hookCommand{{Type: hookTypeCommandConstant, Command: HookCommandConstant}},
	})
	if marshalError != nil {
		return false, marshalError
	}
	retainedEntries = append(retainedEntries, json.RawMessage(newEntryBytes))

	return replaced, manager.writeSettings(topLevelSettings, retainedEntries)
}

// Uninstall removes every SessionEnd audit hook entry. It reports whether
// anything was removed.
func (manager *Manager) Uninstall() (bool, error) {
	topLevelSettings, sessionEndEntries, readError := manager.readSettings()
	if readError != nil {
		return false, readError
	}

	retainedEntries := removeAuditEntries(sessionEndEntries)
	if len(retainedEntries) == len(sessionEndEntries) {
		return false, nil
	}

	return true, manager.writeSettings(topLevelSettings, retainedEntries)
}

// readSettings decodes the settings file into its top-level keys plus the
// SessionEnd entry list. A missing file yields empty settings.
func (manager *Manager) readSettings() (map[string]json.RawMessage, []json.RawMessage, error) {
	settingsBytes, readError := os.ReadFile(manager.settingsPath)
	if readError != nil {
		if os.IsNotExist(readError) {
			return map[string]json.RawMessage{}, nil, nil
		}
		return nil, nil, readError
	}

	topLevelSettings := map[string]json.RawMessage{}
	if decodeError := json.Unmarshal(settingsBytes, &topLevelSettings); decodeError != nil {
		return nil, nil, decodeError
	}

	eventHooks := map[string]json.RawMessage{}
	if rawHooks, hasHooks := topLevelSettings[hooksSettingsKeyConstant]; hasHooks {
		if decodeError := json.Unmarshal(rawHooks, &eventHooks); decodeError != nil {
			return nil, nil, decodeError
		}
	}

	var sessionEndEntries []json.RawMessage
	if rawSessionEnd, hasSessionEnd := eventHooks[sessionEndEventNameConstant]; hasSessionEnd {
		if decodeError := json.Unmarshal(rawSessionEnd, &sessionEndEntries); decodeError != nil {
			return nil, nil, decodeError
		}
	}

	return topLevelSettings, sessionEndEntries, nil
}

// writeSettings reassembles the settings document with the provided
// SessionEnd entries and persists it.
func (manager *Manager) writeSettings(topLevelSettings map[string]json.RawMessage, sessionEndEntries []json.RawMessage) error {
	eventHooks := map[string]json.RawMessage{}
	if rawHooks, hasHooks := topLevelSettings[hooksSettingsKeyConstant]; hasHooks {
		if decodeError := json.Unmarshal(rawHooks, &eventHooks); decodeError != nil {
			return decodeError
		}
	}

	if len(sessionEndEntries) == 0 {
		sessionEndEntries = []json.RawMessage{}
	}
	sessionEndBytes, marshalError := json.Marshal(sessionEndEntries)
	if marshalError != nil {
		return marshalError
	}
	eventHooks[sessionEndEventNameConstant] = json.RawMessage(sessionEndBytes)

	hooksBytes, marshalError := json.Marshal(eventHooks)
	if marshalError != nil {
		return marshalError
	}
	topLevelSettings[hooksSettingsKeyConstant] = json.RawMessage(hooksBytes)

	settingsBytes, marshalError := json.MarshalIndent(topLevelSettings, "", settingsFileIndentConstant)
	if marshalError != nil {
		return marshalError
	}

	if directoryError := os.MkdirAll(filepath.Dir(manager.settingsPath), settingsDirectoryModeBits); directoryError != nil {
		return directoryError
	}

	return os.WriteFile(manager.settingsPath, append(settingsBytes, []byte(settingsFileSuffixConstant)...), settingsFileModeBitsConstant)
}

// entryRunsAudit reports whether a raw hook entry invokes the audit command,
// in its current or any older form.
func entryRunsAudit(rawEntry json.RawMessage) bool {
	var decodedEntry hookEntry
	if decodeError := json.Unmarshal(rawEntry, &decodedEntry); decodeError != nil {
		return false
	}
	for _, command := range decodedEntry.Hooks {
		if strings.Contains(command.Command, hookCommandMarkerConstant) {
			return true
		}
	}
	return false
}

func removeAuditEntries(sessionEndEntries []json.RawMessage) []json.RawMessage {
	var retainedEntries []json.RawMessage
	for _, rawEntry := range sessionEndEntries {
		if !entryRunsAudit(rawEntry) {
			retainedEntries = append(retainedEntries, rawEntry)
		}
	}
	return retainedEntries
}
