// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManagerWithPath(filepath.Join(t.TempDir(), "system_prompts.json"))
	require.NoError(t, err)
	return m
}

func TestBuiltinsPresent(t *testing.T) {
	m := newTestManager(t)

	all := m.All()
	assert.Len(t, all, len(Builtins()))

	ids := make(map[string]bool)
	for _, p := range all {
		ids[p.ID] = true
		assert.True(t, p.Builtin)
	}
	for _, want := range []string{"default", "concise", "creative", "coder", "tutor", "socratic", "professional", "devil"} {
		assert.True(t, ids[want], "missing builtin %s", want)
	}
}

func TestActiveDefaultsToDefault(t *testing.T) {
	m := newTestManager(t)
	assert.Equal(t, DefaultID, m.Active().ID)
}

func TestAddAndPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.json")

	m, err := NewManagerWithPath(path)
	require.NoError(t, err)

	p, err := m.Add("Pirate", "🏴‍☠️", "Answer like a pirate.")
	require.NoError(t, err)
	assert.Contains(t, p.ID, "custom_")
	assert.False(t, p.Builtin)

	require.NoError(t, m.SetActive(p.ID))

	// Reload from disk.
	m2, err := NewManagerWithPath(path)
	require.NoError(t, err)
	assert.Equal(t, p.ID, m2.ActiveID())
	got := m2.Get(p.ID)
	require.NotNil(t, got)
	assert.Equal(t, "Answer like a pirate.", got.Text)
}

func TestUpdateBuiltinOverrides(t *testing.T) {
	m := newTestManager(t)

	ok, err := m.Update("concise", "Very Concise", "⚡", "One sentence only.")
	require.NoError(t, err)
	assert.True(t, ok)

	p := m.Get("concise")
	require.NotNil(t, p)
	assert.Equal(t, "One sentence only.", p.Text)
	assert.False(t, p.Builtin)

	// Still exactly one prompt with that ID.
	count := 0
	for _, q := range m.All() {
		if q.ID == "concise" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestUpdateUnknownID(t *testing.T) {
	m := newTestManager(t)
	ok, err := m.Update("nope", "n", "", "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteCustom(t *testing.T) {
	m := newTestManager(t)

	p, err := m.Add("Temp", "", "temp")
	require.NoError(t, err)

	ok, err := m.Delete(p.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, m.Get(p.ID))
}

func TestDeleteBuiltinTombstone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.json")
	m, err := NewManagerWithPath(path)
	require.NoError(t, err)

	ok, err := m.Delete("devil")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, m.Get("devil"))

	// Hidden across reloads.
	m2, err := NewManagerWithPath(path)
	require.NoError(t, err)
	assert.Nil(t, m2.Get("devil"))

	// Restore brings it back.
	require.NoError(t, m2.ResetBuiltin("devil"))
	restored := m2.Get("devil")
	require.NotNil(t, restored)
	assert.True(t, restored.Builtin)
}

func TestDeleteActiveFallsBack(t *testing.T) {
	m := newTestManager(t)

	p, err := m.Add("Temp", "", "temp")
	require.NoError(t, err)
	require.NoError(t, m.SetActive(p.ID))

	_, err = m.Delete(p.ID)
	require.NoError(t, err)
	assert.NotEqual(t, p.ID, m.Active().ID)
}

func TestActiveMissingFallsBackToDefault(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.SetActive("ghost"))
	assert.Equal(t, DefaultID, m.Active().ID)
}
