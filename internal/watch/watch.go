/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package watch re-converts LaTeX scripts whenever they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"lilscript/internal/convert"
	applog "lilscript/internal/log"
	"lilscript/internal/markdown"
)

// DefaultPattern selects the files that trigger a conversion.
const DefaultPattern = "**/*.tex"

// Options configures a Watcher.
type Options struct {
	Dir      string
	Pattern  string   // doublestar pattern relative to Dir; DefaultPattern when empty
	Ignore   []string // doublestar patterns relative to Dir
	OutDir   string   // mirrors the tree below Dir; next to the source when empty
	Debounce time.Duration
	Markdown markdown.Options
	// OnResult is called after every conversion attempt, from the debounce goroutine.
	OnResult func(in string, res *convert.Result, err error)
}

// DefaultIgnore lists directories that are never watched.
var DefaultIgnore = []string{"**/.git/**", "**/node_modules/**", "**/.idea/**", "**/vendor/**"}

// Watcher observes a directory tree and converts matching files after they change.
type Watcher struct {
	opt       Options
	fsw       *fsnotify.Watcher
	fswMu     sync.Mutex
	debouncer *debouncer
	ctx       context.Context
	cancel    context.CancelFunc
	flushMu   sync.Mutex // held while a batch of conversions runs
	l         *slog.Logger
}

// New validates opt and starts watching opt.Dir and its subdirectories. Events
// are queued until Run is called.
func New(opt Options) (*Watcher, error) {
	if opt.Dir == "" {
		return nil, errors.New("watch: directory is empty")
	}
	if opt.Pattern == "" {
		opt.Pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(opt.Pattern) {
		return nil, fmt.Errorf("watch: invalid pattern %q", opt.Pattern)
	}
	for _, p := range opt.Ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("watch: invalid ignore pattern %q", p)
		}
	}
	if opt.Debounce <= 0 {
		opt.Debounce = 300 * time.Millisecond
	}
	info, err := os.Stat(opt.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", opt.Dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &Watcher{opt: opt, fsw: fsw, l: applog.WithComponent("watch")}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.debouncer = newDebouncer(opt.Debounce, 100, w.onFlush)
	if err := w.addTree(opt.Dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run handles file events until ctx is cancelled, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	w.l.Info("watching", slog.String("dir", w.opt.Dir), slog.String("pattern", w.opt.Pattern))
	defer w.close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.l.Warn("watcher error", slog.Any("err", err))
		}
	}
}

func (w *Watcher) close() {
	w.debouncer.stop()
	w.cancel()
	// wait for a running flush to observe the cancellation
	w.flushMu.Lock()
	w.flushMu.Unlock() //nolint:staticcheck // empty critical section
	w.fswMu.Lock()
	defer w.fswMu.Unlock()
	if err := w.fsw.Close(); err != nil {
		w.l.Debug("close watcher", slog.Any("err", err))
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	w.l.Debug("file event", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.l.Warn("watch new directory", slog.String("path", ev.Name), slog.Any("err", err))
			}
			return
		}
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if w.Matches(ev.Name) {
		w.debouncer.add(ev.Name)
	}
}

// addTree watches dir and every non-ignored directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.opt.Dir && w.ignored(path) {
			return filepath.SkipDir
		}
		w.fswMu.Lock()
		defer w.fswMu.Unlock()
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.opt.Dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) ignored(path string) bool {
	rel, ok := w.rel(path)
	if !ok {
		return true
	}
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	return slices.ContainsFunc(w.opt.Ignore, func(p string) bool {
		ok, _ := doublestar.Match(p, rel)
		if !ok {
			// directory patterns like "**/.git/**" also cover the directory itself
			ok, _ = doublestar.Match(p, rel+"/")
		}
		return ok
	})
}

// Matches reports whether a file at path triggers a conversion.
func (w *Watcher) Matches(path string) bool {
	rel, ok := w.rel(path)
	if !ok || w.ignored(path) {
		return false
	}
	match, _ := doublestar.Match(w.opt.Pattern, rel)
	return match
}

func (w *Watcher) onFlush(paths []string) {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()
	slices.Sort(paths)
	for _, in := range paths {
		if w.ctx.Err() != nil {
			return
		}
		if _, err := os.Stat(in); err != nil {
			// removed or renamed again before the window closed
			continue
		}
		out := convert.MirrorPath(in, w.opt.Dir, w.opt.OutDir)
		res, err := convert.ConvertFile(w.ctx, in, out, w.opt.Markdown)
		if err != nil {
			w.l.Error("conversion failed", slog.String("in", in), slog.Any("err", err))
		}
		if w.opt.OnResult != nil {
			w.opt.OnResult(in, res, err)
		}
	}
}
