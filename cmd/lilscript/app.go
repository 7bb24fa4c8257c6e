/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"lilscript/internal/config"
	"lilscript/internal/convert"
	applog "lilscript/internal/log"
	"lilscript/internal/markdown"
	"lilscript/internal/storage"
)

// app is bound into every command's Run method.
type app struct {
	ctx context.Context
	cfg config.AppConfig
	out io.Writer
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

// markdownOptions applies the command line switches on top of the config.
func (a *app) markdownOptions(guide, noFrontMatter bool) markdown.Options {
	return markdown.Options{
		FrontMatter:  a.cfg.Convert.FrontMatter && !noFrontMatter,
		IncludeGuide: a.cfg.Convert.IncludeGuide || guide,
	}
}

// openHistory opens the history database when it is enabled in the config or
// force is set. It returns nil and no error when history is off.
func (a *app) openHistory(force bool) (*storage.History, error) {
	if !force && !a.cfg.History.Enabled {
		return nil, nil
	}
	path, err := a.cfg.History.HistoryPath()
	if err != nil {
		return nil, err
	}
	return storage.OpenHistory(a.ctx, path)
}

// recorder stores conversion statistics in the history. A nil recorder drops them.
type recorder struct {
	h    *storage.History
	keep int
	l    *slog.Logger
}

func (a *app) recorder(force bool) (*recorder, error) {
	h, err := a.openHistory(force)
	if err != nil || h == nil {
		return nil, err
	}
	return &recorder{h: h, keep: a.cfg.History.Keep, l: applog.WithOperation(applog.WithComponent("cli"), "record")}, nil
}

// add records res. History problems are logged and never fail the command.
func (r *recorder) add(ctx context.Context, res *convert.Result) {
	if r == nil || res == nil {
		return
	}
	src, err := os.ReadFile(res.Input)
	if err != nil {
		r.l.Warn("read source for history", slog.String("path", res.Input), slog.Any("err", err))
		return
	}
	_, err = r.h.Record(ctx, storage.Run{
		Source:      res.Input,
		SourceHash:  storage.HashSource(src),
		Target:      res.Output,
		Blocks:      res.Script.Len(),
		SpokenWords: res.Stats.SpokenWords,
		TotalWords:  res.Stats.TotalWords,
		Density:     res.Stats.Density,
		Elapsed:     res.Elapsed,
	})
	if err != nil {
		r.l.Warn("record run", slog.Any("err", err))
		return
	}
	if r.keep > 0 {
		if _, err := r.h.Prune(ctx, r.keep); err != nil {
			r.l.Warn("prune history", slog.Any("err", err))
		}
	}
}

func (r *recorder) Close() {
	if r == nil {
		return
	}
	if err := r.h.Close(); err != nil {
		r.l.Debug("close history", slog.Any("err", err))
	}
}
