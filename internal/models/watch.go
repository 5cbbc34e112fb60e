// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces bursts of filesystem events (a large model file
// being copied in fires many writes) into a single notification.
const debounceDelay = 500 * time.Millisecond

// Watcher reports when .gguf files appear or disappear under a directory.
type Watcher struct {
	fsw     *fsnotify.Watcher
	changes chan struct{}
	done    chan struct{}
}

// Watch starts watching dir for model file changes. Callers receive on
// Changes and must call Close when finished.
func Watch(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Changes delivers one value per debounced batch of model file events.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceDelay)
			} else {
				timer.Reset(debounceDelay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if filepath.Ext(ev.Name) != GGUFExt {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) ||
		ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Write)
}
