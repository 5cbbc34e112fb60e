// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"

	"github.com/morganforge/memai/internal/history"
)

// JSONExporter renders conversations as pretty-printed JSON, the same shape
// the history store persists.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// FileExtension implements Exporter.
func (e *JSONExporter) FileExtension() string { return ".json" }

// Export implements Exporter.
func (e *JSONExporter) Export(conv *history.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	return json.MarshalIndent(conv, "", "  ")
}
