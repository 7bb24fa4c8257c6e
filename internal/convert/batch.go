/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package convert

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"lilscript/internal/analysis"
	applog "lilscript/internal/log"
	"lilscript/internal/markdown"
)

// BatchOptions controls a batch conversion.
//
// Sources are the files matching Pattern (doublestar syntax, e.g. "scripts/**/*.tex").
// Outputs mirror the source tree below the pattern's static base inside OutDir;
// with an empty OutDir each output is written next to its source.
type BatchOptions struct {
	Pattern  string
	OutDir   string
	Jobs     int // parallel conversions; <= 0 means GOMAXPROCS
	Markdown markdown.Options
}

// BatchItem is the outcome for one source file. Exactly one of Result and Err is set.
type BatchItem struct {
	Input  string
	Output string
	Result *Result
	Err    error
}

// BatchReport lists the per-file outcomes in source path order.
type BatchReport struct {
	Items []BatchItem
}

// Failed returns the items that did not convert.
func (r BatchReport) Failed() []BatchItem {
	var out []BatchItem
	for _, it := range r.Items {
		if it.Err != nil {
			out = append(out, it)
		}
	}
	return out
}

// Stats sums the statistics of the converted items.
func (r BatchReport) Stats() analysis.Stats {
	var st analysis.Stats
	for _, it := range r.Items {
		if it.Result != nil {
			st = st.Add(it.Result.Stats)
		}
	}
	return st
}

// Batch converts every file matching opt.Pattern. Each document runs through its
// own pipeline; one document failing does not stop the others. The returned error
// is set only for an invalid pattern or a cancelled context.
func Batch(ctx context.Context, opt BatchOptions) (BatchReport, error) {
	l := applog.WithOperation(applog.WithComponent("convert"), "batch")

	if !doublestar.ValidatePathPattern(opt.Pattern) {
		return BatchReport{}, fmt.Errorf("invalid pattern %q: %w", opt.Pattern, doublestar.ErrBadPattern)
	}
	matches, err := doublestar.FilepathGlob(opt.Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return BatchReport{}, fmt.Errorf("glob %q: %w", opt.Pattern, err)
	}
	slices.Sort(matches)

	base, _ := doublestar.SplitPattern(filepath.ToSlash(opt.Pattern))
	base = filepath.FromSlash(base)

	items := make([]BatchItem, len(matches))
	for i, in := range matches {
		items[i] = BatchItem{Input: in, Output: MirrorPath(in, base, opt.OutDir)}
	}

	jobs := opt.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range items {
		it := &items[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				it.Err = err
				return nil
			}
			it.Result, it.Err = ConvertFile(gctx, it.Input, it.Output, opt.Markdown)
			if it.Err != nil {
				l.WarnContext(applog.WithFile(gctx, it.Input), "conversion failed", slog.Any("err", it.Err))
			}
			return nil
		})
	}
	_ = g.Wait()

	report := BatchReport{Items: items}
	l.Info("batch done",
		slog.String("pattern", opt.Pattern),
		slog.Int("files", len(items)),
		slog.Int("failed", len(report.Failed())),
		slog.Int("jobs", jobs))
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// MirrorPath maps a source path to its Markdown output path inside outDir, keeping
// the directory layout below base. With an empty outDir the output sits next to
// the source.
func MirrorPath(in, base, outDir string) string {
	if outDir == "" {
		return OutputPath(in, "")
	}
	rel, err := filepath.Rel(base, in)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return OutputPath(in, outDir)
	}
	return filepath.Join(outDir, strings.TrimSuffix(rel, filepath.Ext(rel))+FormatMarkdown.Ext())
}
