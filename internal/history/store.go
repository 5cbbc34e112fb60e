// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/morganforge/memai/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &StoreError{Message: "conversation not found"}

// StoreError represents a history store error.
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}

// Is implements errors.Is support.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// CONVERSATION METADATA
// =============================================================================

// Meta contains conversation metadata for listings.
type Meta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"`
}

// =============================================================================
// STORE
// =============================================================================

// Store persists conversations as one JSON file each under BaseDir.
type Store struct {
	// BaseDir is the directory holding conversation files.
	// Default: ~/.memai/chats/
	BaseDir string

	// MaxConversations caps stored conversations (0 = unlimited).
	// When exceeded, the oldest conversations are deleted.
	MaxConversations int
}

// NewStore creates a store rooted at ~/.memai/chats.
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewStoreWithDir(filepath.Join(home, ".memai", "chats"))
}

// NewStoreWithDir creates a store with a custom directory.
func NewStoreWithDir(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &Store{
		BaseDir:          baseDir,
		MaxConversations: 100,
	}, nil
}

// =============================================================================
// SAVE / LOAD
// =============================================================================

// Save persists a conversation and returns its ID.
func (s *Store) Save(conv *Conversation) (string, error) {
	if conv.ID == "" {
		conv.ID = generateID()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now()
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = conv.CreatedAt
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return "", err
	}

	// RELIABILITY: atomic write so an interrupted save never truncates a
	// transcript.
	if err := util.AtomicWriteFile(s.filePath(conv.ID), data, 0644); err != nil {
		return "", err
	}

	if s.MaxConversations > 0 {
		s.enforceLimit()
	}

	return conv.ID, nil
}

// Load retrieves a conversation by ID.
func (s *Store) Load(id string) (*Conversation, error) {
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// LoadByIndex loads a conversation by list position (0 = most recent).
func (s *Store) LoadByIndex(index int) (*Conversation, error) {
	metas, err := s.List()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(metas) {
		return nil, ErrNotFound
	}
	return s.Load(metas[index].ID)
}

// =============================================================================
// LIST / SEARCH
// =============================================================================

// List returns metadata for all saved conversations, most recent first.
// Corrupted files are skipped rather than failing the whole listing.
func (s *Store) List() ([]Meta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Meta{}, nil
		}
		return nil, err
	}

	var metas []Meta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		conv, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}

		metas = append(metas, Meta{
			ID:           conv.ID,
			Title:        conv.Title,
			Model:        conv.Model,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
			MessageCount: len(conv.Messages),
			Preview:      conv.Preview(),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})

	return metas, nil
}

// Search finds conversations whose title, preview, or message content
// contains the query (case-insensitive).
func (s *Store) Search(query string) ([]Meta, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	if query == "" {
		return all, nil
	}

	query = strings.ToLower(query)
	var results []Meta

	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), query) ||
			strings.Contains(strings.ToLower(meta.Preview), query) {
			results = append(results, meta)
			continue
		}

		conv, err := s.Load(meta.ID)
		if err != nil {
			continue
		}
		for _, msg := range conv.Messages {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				results = append(results, meta)
				break
			}
		}
	}

	return results, nil
}

// =============================================================================
// DELETE
// =============================================================================

// Delete removes a conversation by ID.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Clear removes all saved conversations.
func (s *Store) Clear() error {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			os.Remove(filepath.Join(s.BaseDir, entry.Name()))
		}
	}
	return nil
}

// enforceLimit removes the oldest conversations when over the cap.
func (s *Store) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxConversations {
		return
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.Before(metas[j].UpdatedAt)
	})

	excess := len(metas) - s.MaxConversations
	for i := 0; i < excess; i++ {
		s.Delete(metas[i].ID)
	}
}

// filePath returns the file path for a conversation ID.
func (s *Store) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}
