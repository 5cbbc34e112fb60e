// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/morganforge/memai/internal/util"
)

// tombstoneName marks a deleted built-in in the custom list. A custom entry
// with this name hides the built-in of the same ID without losing the
// ability to restore it later.
const tombstoneName = "__deleted__"

// promptsFile is the state persisted to disk.
type promptsFile struct {
	ActiveID string   `json:"active_id"`
	Custom   []Prompt `json:"custom"`
}

// Manager handles prompt storage and the active selection.
// Custom prompts with a built-in's ID override that built-in.
type Manager struct {
	path     string
	custom   []Prompt
	activeID string
}

// NewManager creates a manager persisting to ~/.memai/system_prompts.json.
func NewManager() (*Manager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewManagerWithPath(filepath.Join(home, ".memai", "system_prompts.json"))
}

// NewManagerWithPath creates a manager persisting to a custom path.
func NewManagerWithPath(path string) (*Manager, error) {
	m := &Manager{
		path:     path,
		activeID: DefaultID,
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func (m *Manager) load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var state promptsFile
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse prompts file: %w", err)
	}

	if state.ActiveID != "" {
		m.activeID = state.ActiveID
	}
	for _, p := range state.Custom {
		if p.Builtin {
			continue
		}
		m.custom = append(m.custom, p)
	}
	return nil
}

func (m *Manager) save() error {
	state := promptsFile{
		ActiveID: m.activeID,
		Custom:   m.custom,
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(m.path, data, 0644)
}

// =============================================================================
// QUERIES
// =============================================================================

// All returns every visible prompt: built-ins (unless overridden or
// tombstoned) followed by custom prompts.
func (m *Manager) All() []Prompt {
	customIDs := make(map[string]bool, len(m.custom))
	for _, p := range m.custom {
		customIDs[p.ID] = true
	}

	var result []Prompt
	for _, p := range Builtins() {
		if !customIDs[p.ID] {
			result = append(result, p)
		}
	}
	for _, p := range m.custom {
		if p.Name != tombstoneName {
			result = append(result, p)
		}
	}
	return result
}

// Get returns the prompt with the given ID, or nil.
func (m *Manager) Get(id string) *Prompt {
	for _, p := range m.All() {
		if p.ID == id {
			return &p
		}
	}
	return nil
}

// Active returns the currently selected prompt, falling back to the
// default built-in when the selection no longer exists.
func (m *Manager) Active() Prompt {
	if p := m.Get(m.activeID); p != nil {
		return *p
	}
	return Builtins()[0]
}

// ActiveID returns the ID of the active prompt.
func (m *Manager) ActiveID() string {
	return m.activeID
}

// =============================================================================
// MUTATIONS
// =============================================================================

// SetActive selects a prompt by ID and persists the choice.
func (m *Manager) SetActive(id string) error {
	m.activeID = id
	return m.save()
}

// Add creates a new custom prompt and persists it.
func (m *Manager) Add(name, icon, text string) (Prompt, error) {
	p := Prompt{
		ID:   "custom_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		Name: name,
		Icon: icon,
		Text: text,
	}
	m.custom = append(m.custom, p)
	if err := m.save(); err != nil {
		return Prompt{}, err
	}
	return p, nil
}

// Update modifies a prompt. Updating a built-in stores a custom override
// under the same ID. Returns false when the ID is unknown.
func (m *Manager) Update(id, name, icon, text string) (bool, error) {
	for i := range m.custom {
		if m.custom[i].ID == id {
			m.custom[i].Name = name
			m.custom[i].Icon = icon
			m.custom[i].Text = text
			return true, m.save()
		}
	}

	for _, b := range Builtins() {
		if b.ID == id {
			m.custom = append(m.custom, Prompt{ID: id, Name: name, Icon: icon, Text: text})
			return true, m.save()
		}
	}

	return false, nil
}

// Delete removes a prompt. Deleting a built-in records a tombstone so it
// stays hidden. When the active prompt is deleted the selection moves to
// the first remaining prompt. Returns false when the ID is unknown.
func (m *Manager) Delete(id string) (bool, error) {
	before := len(m.custom)
	kept := m.custom[:0]
	for _, p := range m.custom {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	m.custom = kept
	deletedCustom := len(m.custom) < before

	isBuiltin := false
	for _, b := range Builtins() {
		if b.ID == id {
			isBuiltin = true
			break
		}
	}

	if !deletedCustom && !isBuiltin {
		return false, nil
	}

	if isBuiltin {
		m.custom = append(m.custom, Prompt{ID: id, Name: tombstoneName})
	}

	if m.activeID == id {
		m.activeID = DefaultID
		if remaining := m.All(); len(remaining) > 0 {
			m.activeID = remaining[0].ID
		}
	}

	return true, m.save()
}

// ResetBuiltin removes any override or tombstone for a built-in prompt,
// restoring its original definition.
func (m *Manager) ResetBuiltin(id string) error {
	kept := m.custom[:0]
	for _, p := range m.custom {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	m.custom = kept
	return m.save()
}
