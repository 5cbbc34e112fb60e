// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Scan walks dir recursively and returns a Ref for every .gguf file found.
// Hidden directories are skipped. Results are sorted by name. A missing
// directory is not an error; it returns an empty slice.
func Scan(dir string) ([]Ref, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	var found []Ref
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subdirectory: skip rather than abort the scan.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if filepath.Ext(d.Name()) != GGUFExt {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		found = append(found, Ref{
			Name:    strings.TrimSuffix(d.Name(), GGUFExt),
			Path:    path,
			SizeMB:  float64(fi.Size()) / (1024 * 1024),
			AddedAt: fi.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found, nil
}

// Sync scans dir and registers every discovered model that is not already
// in the registry. Returns the number of newly added references.
func (r *Registry) Sync(dir string) (int, error) {
	found, err := Scan(dir)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, ref := range found {
		if r.Get(ref.Path) != nil {
			continue
		}
		if _, err := r.Add(ref.Path, ""); err != nil {
			continue
		}
		added++
	}
	return added, nil
}
