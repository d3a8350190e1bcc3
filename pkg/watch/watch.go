// Copyright 2025 Alibaba Group Holding Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package watch reports changes below the working directory to any number
// of subscribers.
package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/filemate-ai/filemate/pkg/log"
	"github.com/filemate-ai/filemate/pkg/security"
	"github.com/filemate-ai/filemate/pkg/util/safego"
)

const defaultBufferSize = 64

// Event describes one change below the watched root.
type Event struct {
	Path      string    `json:"path"`
	Operation string    `json:"operation"`
	IsDir     bool      `json:"is_dir"`
	Timestamp time.Time `json:"timestamp"`
}

// Watcher watches a directory tree. Directories created after Start are
// added as they appear; paths the policy denies are never watched.
type Watcher struct {
	root       string
	policy     *security.Policy
	fsw        *fsnotify.Watcher
	bufferSize int

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	closed bool

	done      chan struct{}
	closeOnce sync.Once
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithBufferSize sets the per-subscriber event buffer. Events for a
// subscriber whose buffer is full are dropped.
func WithBufferSize(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.bufferSize = n
		}
	}
}

// New creates a Watcher over root. Call Start to begin delivering events.
func New(root string, policy *security.Policy, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid watch root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("watch root does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, errors.New("watch root is not a directory")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{
		root:       abs,
		policy:     policy,
		fsw:        fsw,
		bufferSize: defaultBufferSize,
		subs:       make(map[int]chan Event),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Start runs the event loop on a crash-logged goroutine.
func (w *Watcher) Start() {
	safego.Go(w.loop)
	log.Info("watching %s for changes", w.root)
}

// Subscribe registers a new event consumer. The returned function
// unsubscribes and closes the channel.
func (w *Watcher) Subscribe() (<-chan Event, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ch := make(chan Event, w.bufferSize)
	if w.closed {
		close(ch)
		return ch, func() {}
	}
	id := w.nextID
	w.nextID++
	w.subs[id] = ch

	return ch, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if sub, ok := w.subs[id]; ok {
			delete(w.subs, id)
			close(sub)
		}
	}
}

// Close stops the watcher and closes every subscriber channel.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()

		w.mu.Lock()
		defer w.mu.Unlock()
		w.closed = true
		for id, ch := range w.subs {
			delete(w.subs, id)
			close(ch)
		}
	})
	return err
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn("watcher error on %s: %v", w.root, err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	op := operation(ev.Op)
	if op == "" || !w.policy.IsPathAllowed(ev.Name) {
		return
	}

	isDir := false
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Lstat(ev.Name); err == nil && info.IsDir() {
			isDir = true
			// subscribers may act on the new directory right away
			if err := w.addTree(ev.Name); err != nil {
				log.Warn("failed to watch new directory %s: %v", ev.Name, err)
			}
		}
	}

	w.publish(Event{Path: ev.Name, Operation: op, IsDir: isDir, Timestamp: time.Now()})
}

func (w *Watcher) publish(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, ch := range w.subs {
		select {
		case ch <- ev:
		default:
			log.Debug("dropping watch event %s for slow subscriber %d", ev.Path, id)
		}
	}
}

// addTree watches dir and every allowed directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if !w.policy.IsPathAllowed(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func operation(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return ""
	}
}
