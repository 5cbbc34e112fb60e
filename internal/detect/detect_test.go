// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package detect

import (
	"strings"
	"testing"
)

func TestProbeReturnsCores(t *testing.T) {
	info := Probe()
	if info.LogicalCores < 1 {
		t.Errorf("LogicalCores = %d", info.LogicalCores)
	}
	if info.Platform == "" || !strings.Contains(info.Platform, "/") {
		t.Errorf("Platform = %q", info.Platform)
	}
}

func TestRecommendedThreads(t *testing.T) {
	tests := []struct {
		name     string
		physical int
		logical  int
		want     int
	}{
		{"quad core", 4, 8, 4},
		{"many cores capped", 32, 64, 8},
		{"physical unknown", 0, 8, 4},
		{"single core floor", 0, 1, 1},
		{"nothing known", 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &HostInfo{PhysicalCores: tt.physical, LogicalCores: tt.logical}
			if got := h.RecommendedThreads(); got != tt.want {
				t.Errorf("RecommendedThreads() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCheckModelFit(t *testing.T) {
	const gb = 1024 * 1024 * 1024
	h := &HostInfo{TotalMemory: 16 * gb, AvailableMemory: 8 * gb}

	tests := []struct {
		name string
		size int64
		want ModelFit
	}{
		{"small model", 2 * gb, FitComfortable},
		{"near the limit", 6 * gb, FitTight},
		{"too big", 12 * gb, FitTooLarge},
		{"zero size", 0, FitUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.CheckModelFit(tt.size); got != tt.want {
				t.Errorf("CheckModelFit(%d) = %v, want %v", tt.size, got, tt.want)
			}
		})
	}
}

func TestCheckModelFitNoMemoryInfo(t *testing.T) {
	h := &HostInfo{}
	if got := h.CheckModelFit(1024); got != FitUnknown {
		t.Errorf("got %v, want FitUnknown", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024 / 2, "1.5 GB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestSummaryMentionsMemory(t *testing.T) {
	h := &HostInfo{
		Platform:        "linux/amd64",
		PhysicalCores:   4,
		LogicalCores:    8,
		TotalMemory:     16 * 1024 * 1024 * 1024,
		AvailableMemory: 8 * 1024 * 1024 * 1024,
	}
	s := h.Summary()
	for _, want := range []string{"linux/amd64", "4 cores", "16.0 GB", "8.0 GB"} {
		if !strings.Contains(s, want) {
			t.Errorf("Summary() = %q missing %q", s, want)
		}
	}
}
