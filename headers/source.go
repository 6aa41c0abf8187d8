// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package headers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// ReloadRecorder counts policy reloads.
type ReloadRecorder interface {
	ObserveReload(err error)
}

// Source holds the policy loaded from a file and swaps it when the file
// changes. It is safe for concurrent use.
type Source struct {
	path     string
	current  atomic.Pointer[Policy]
	logger   *slog.Logger
	recorder ReloadRecorder
}

// SourceOption configures NewSource.
type SourceOption func(*Source)

// WithSourceLogger sets the logger used to report reloads.
func WithSourceLogger(l *slog.Logger) SourceOption {
	return func(s *Source) {
		s.logger = l
	}
}

// WithReloadRecorder counts every reload attempt.
func WithReloadRecorder(r ReloadRecorder) SourceOption {
	return func(s *Source) {
		s.recorder = r
	}
}

// NewSource loads the policy file at path. A missing file yields the
// default policy; the file is picked up by Watch once it is created.
// Any other load error is returned.
func NewSource(path string, opts ...SourceOption) (*Source, error) {
	s := &Source{path: filepath.Clean(path)}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	p, err := LoadPolicy(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("policy file not found, using default policy", "path", s.path)
		p = DefaultPolicy()
	case err != nil:
		return nil, err
	}
	s.current.Store(p)
	return s, nil
}

// Path returns the watched file.
func (s *Source) Path() string {
	return s.path
}

// Policy returns the current policy.
func (s *Source) Policy() *Policy {
	return s.current.Load()
}

// Reload reads the file again. On error the current policy is kept.
func (s *Source) Reload() error {
	p, err := LoadPolicy(s.path)
	if s.recorder != nil {
		s.recorder.ObserveReload(err)
	}
	if err != nil {
		return err
	}
	s.current.Store(p)
	return nil
}

// Watch reloads the policy whenever the file is written or replaced. It
// blocks until ctx is done and returns nil then. Failed reloads are logged
// and leave the current policy in place.
func (s *Source) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Editors replace files by renaming over them, which drops a watch on
	// the file itself, so the directory is watched instead.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	s.logger.Debug("watching policy file", "path", s.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handle(ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("policy file watcher error", "path", s.path, "error", err)
		}
	}
}

func (s *Source) handle(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != s.path {
		return
	}
	switch {
	case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create):
		if err := s.Reload(); err != nil {
			s.logger.Error("failed to reload policy, keeping current policy",
				"path", s.path, "error", err)
			return
		}
		s.logger.Info("reloaded policy", "path", s.path)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		s.logger.Warn("policy file moved away, keeping current policy", "path", s.path)
	}
}
