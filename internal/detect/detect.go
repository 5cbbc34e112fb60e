// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package detect probes host capabilities relevant to running local models:
// CPU core counts for thread recommendations and memory headroom for
// deciding whether a .gguf model fits in RAM.
package detect

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostInfo summarizes the machine for diagnostics and defaults.
type HostInfo struct {
	// OS and architecture, e.g. "darwin/arm64"
	Platform string
	// Hostname as reported by the kernel
	Hostname string
	// PhysicalCores and LogicalCores; physical may be 0 when unknown
	PhysicalCores int
	LogicalCores  int
	// TotalMemory and AvailableMemory in bytes
	TotalMemory     uint64
	AvailableMemory uint64
}

// Probe collects host information. Individual probe failures degrade to
// zero values rather than failing the whole call; runtime.NumCPU is the
// floor for core counts.
func Probe() *HostInfo {
	info := &HostInfo{
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
		LogicalCores: runtime.NumCPU(),
	}

	if name, err := os.Hostname(); err == nil {
		info.Hostname = name
	}
	if hi, err := host.Info(); err == nil && hi.Hostname != "" {
		info.Hostname = hi.Hostname
	}

	if logical, err := cpu.Counts(true); err == nil && logical > 0 {
		info.LogicalCores = logical
	}
	if physical, err := cpu.Counts(false); err == nil {
		info.PhysicalCores = physical
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		info.TotalMemory = vm.Total
		info.AvailableMemory = vm.Available
	}

	return info
}

// RecommendedThreads returns a sensible inference thread count: the
// physical core count, capped at 8. llama.cpp gains little from
// hyperthreads and large counts starve the UI.
func (h *HostInfo) RecommendedThreads() int {
	cores := h.PhysicalCores
	if cores <= 0 {
		cores = h.LogicalCores / 2
	}
	if cores <= 0 {
		cores = 1
	}
	if cores > 8 {
		cores = 8
	}
	return cores
}

// ModelFit describes whether a model of a given size can run in memory.
type ModelFit int

const (
	// FitComfortable means the model plus working headroom fits in
	// available memory.
	FitComfortable ModelFit = iota
	// FitTight means the model fits but leaves little headroom; expect
	// swapping under load.
	FitTight
	// FitTooLarge means the model exceeds available memory.
	FitTooLarge
	// FitUnknown means memory information was unavailable.
	FitUnknown
)

// String returns a short human-readable label.
func (f ModelFit) String() string {
	switch f {
	case FitComfortable:
		return "fits comfortably"
	case FitTight:
		return "tight fit"
	case FitTooLarge:
		return "too large for available memory"
	default:
		return "unknown"
	}
}

// CheckModelFit judges whether a model file of modelSize bytes can run.
// Inference needs roughly the file size again in working memory for the
// KV cache and compute buffers, so headroom is modelSize * 1.2.
func (h *HostInfo) CheckModelFit(modelSize int64) ModelFit {
	if h.AvailableMemory == 0 || modelSize <= 0 {
		return FitUnknown
	}
	need := uint64(float64(modelSize) * 1.2)
	switch {
	case need < h.AvailableMemory*8/10:
		return FitComfortable
	case need <= h.AvailableMemory:
		return FitTight
	default:
		return FitTooLarge
	}
}

// CheckModelFileFit stats the model file and judges its fit.
func (h *HostInfo) CheckModelFileFit(path string) (ModelFit, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FitUnknown, err
	}
	return h.CheckModelFit(info.Size()), nil
}

// Summary renders the host info for the doctor command.
func (h *HostInfo) Summary() string {
	return fmt.Sprintf("%s | %d cores (%d logical) | %s RAM (%s available)",
		h.Platform,
		h.PhysicalCores,
		h.LogicalCores,
		FormatBytes(h.TotalMemory),
		FormatBytes(h.AvailableMemory))
}

// FormatBytes renders a byte count in human-readable form.
func FormatBytes(n uint64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case n >= gb:
		return fmt.Sprintf("%.1f GB", float64(n)/gb)
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.1f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
