// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package models manages references to GGUF model files on disk.
//
// The registry tracks user-added models in models.json; it stores paths and
// display names only, never the model files themselves. Removing a reference
// leaves the file untouched.
package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/morganforge/memai/internal/util"
)

// GGUFExt is the file extension of supported model files.
const GGUFExt = ".gguf"

// =============================================================================
// MODEL REFERENCE
// =============================================================================

// Ref is a reference to a model file on disk.
type Ref struct {
	// Name is the display name (defaults to the file stem)
	Name string `json:"name"`
	// Path is the absolute path to the .gguf file
	Path string `json:"path"`
	// SizeMB is the file size in megabytes at the time of adding
	SizeMB float64 `json:"size_mb"`
	// AddedAt records when the reference was created
	AddedAt time.Time `json:"added_at"`
}

// FormatSize returns the size as a human-readable string.
func (r Ref) FormatSize() string {
	if r.SizeMB >= 1024 {
		return fmt.Sprintf("%.1f GB", r.SizeMB/1024)
	}
	return fmt.Sprintf("%.0f MB", r.SizeMB)
}

// =============================================================================
// ERRORS
// =============================================================================

// Registry error values.
var (
	ErrNotGGUF       = &RegistryError{Message: "not a .gguf file"}
	ErrFileMissing   = &RegistryError{Message: "model file not found"}
	ErrAlreadyExists = &RegistryError{Message: "model already registered"}
	ErrNotRegistered = &RegistryError{Message: "model not registered"}
)

// RegistryError represents a model registry error.
type RegistryError struct {
	Message string
}

func (e *RegistryError) Error() string {
	return e.Message
}

// Is implements errors.Is support.
func (e *RegistryError) Is(target error) bool {
	t, ok := target.(*RegistryError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry persists model references to a JSON file.
type Registry struct {
	path string
	refs []Ref
}

// NewRegistry creates a registry backed by ~/.memai/models.json.
func NewRegistry() (*Registry, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewRegistryWithPath(filepath.Join(home, ".memai", "models.json"))
}

// NewRegistryWithPath creates a registry backed by a custom file.
func NewRegistryWithPath(path string) (*Registry, error) {
	r := &Registry{path: path}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(data, &r.refs); err != nil {
		return fmt.Errorf("failed to parse models file: %w", err)
	}
	return nil
}

func (r *Registry) save() error {
	data, err := json.MarshalIndent(r.refs, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(r.path, data, 0644)
}

// Add registers a model file. The display name defaults to the file stem
// when customName is empty. The file must exist and carry the .gguf
// extension; duplicate paths are rejected.
func (r *Registry) Add(path, customName string) (Ref, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Ref{}, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Ref{}, ErrFileMissing
	}
	if filepath.Ext(abs) != GGUFExt {
		return Ref{}, ErrNotGGUF
	}

	for _, ref := range r.refs {
		if ref.Path == abs {
			return Ref{}, ErrAlreadyExists
		}
	}

	name := customName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(abs), GGUFExt)
	}

	ref := Ref{
		Name:    name,
		Path:    abs,
		SizeMB:  float64(info.Size()) / (1024 * 1024),
		AddedAt: time.Now(),
	}
	r.refs = append(r.refs, ref)

	if err := r.save(); err != nil {
		return Ref{}, err
	}
	return ref, nil
}

// Remove drops a reference by path. The model file stays on disk.
func (r *Registry) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	kept := r.refs[:0]
	removed := false
	for _, ref := range r.refs {
		if ref.Path == abs {
			removed = true
			continue
		}
		kept = append(kept, ref)
	}
	r.refs = kept

	if !removed {
		return ErrNotRegistered
	}
	return r.save()
}

// Rename changes a model's display name.
func (r *Registry) Rename(path, newName string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	for i := range r.refs {
		if r.refs[i].Path == abs {
			r.refs[i].Name = newName
			return r.save()
		}
	}
	return ErrNotRegistered
}

// Get returns the reference for a path, or nil.
func (r *Registry) Get(path string) *Ref {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	for i := range r.refs {
		if r.refs[i].Path == abs {
			return &r.refs[i]
		}
	}
	return nil
}

// List returns references whose files still exist on disk. Entries with
// missing files are skipped, not deleted; the file may be on an unmounted
// volume.
func (r *Registry) List() []Ref {
	var valid []Ref
	for _, ref := range r.refs {
		if _, err := os.Stat(ref.Path); err == nil {
			valid = append(valid, ref)
		}
	}
	return valid
}

// Len returns the number of registered references, including stale ones.
func (r *Registry) Len() int {
	return len(r.refs)
}
