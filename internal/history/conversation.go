// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history provides conversation transcript persistence for memai.
package history

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/morganforge/memai/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single turn in a conversation transcript.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// Statistics for assistant messages (zero for others)
	TokenCount   int     `json:"token_count,omitempty"`
	DurationMs   int64   `json:"duration_ms,omitempty"`
	TokensPerSec float64 `json:"tokens_per_sec,omitempty"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// DefaultTitle is the placeholder title before the first user message.
const DefaultTitle = "New Conversation"

// titleLimit is the maximum title length in runes.
const titleLimit = 50

// Conversation is an ordered transcript of role/text turns plus metadata.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	Backend   string    `json:"backend,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// NewConversation creates an empty conversation for the given model.
func NewConversation(model string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        generateID(),
		Title:     DefaultTitle,
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a message to the transcript and bumps the updated timestamp.
// The first user message becomes the conversation title.
func (c *Conversation) Append(role Role, content string) *Message {
	c.Messages = append(c.Messages, NewMessage(role, content))
	c.UpdatedAt = time.Now()

	if role == RoleUser && c.Title == DefaultTitle {
		c.Title = util.TruncateString(util.CollapseWhitespace(content), titleLimit)
	}

	return &c.Messages[len(c.Messages)-1]
}

// LastMessage returns the most recent message, or nil for an empty transcript.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// Preview returns the first user message truncated for list display.
func (c *Conversation) Preview() string {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser && msg.Content != "" {
			return util.TruncateString(util.CollapseWhitespace(msg.Content), 80)
		}
	}
	return ""
}

// FormattedDate returns the updated time relative to now, for list display.
func (c *Conversation) FormattedDate() string {
	return util.RelativeDate(c.UpdatedAt, time.Now())
}

// generateID creates a unique conversation ID.
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "conv_" + hex.EncodeToString(bytes)
}
