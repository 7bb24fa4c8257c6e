/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"lilscript/internal/convert"
	"lilscript/internal/version"
	"lilscript/internal/watch"
)

type ConvertCmd struct {
	Input         string `short:"i" required:"" type:"path" help:"LaTeX script to read."`
	Output        string `short:"o" help:"Markdown file to write (default: input name with .md); - writes to stdout."`
	Guide         bool   `help:"Prepend the character list and formatting guide."`
	NoFrontMatter bool   `help:"Omit the YAML front matter."`
	Record        bool   `help:"Record the run in the history database."`
}

func (c *ConvertCmd) Run(a *app) error {
	rec, err := a.recorder(c.Record)
	if err != nil {
		return err
	}
	defer rec.Close()
	opt := a.markdownOptions(c.Guide, c.NoFrontMatter)

	if c.Output == "-" {
		from, err := convert.FormatFromPath(c.Input)
		if err != nil {
			return err
		}
		input, err := convert.ReadSource(c.Input)
		if err != nil {
			return err
		}
		res, err := convert.Convert(input, from, convert.FormatMarkdown, opt)
		if err != nil {
			return fmt.Errorf("%s: %w", c.Input, err)
		}
		res.Input = c.Input
		_, _ = fmt.Fprint(a.out, res.Text)
		rec.add(a.ctx, res)
		return nil
	}

	out := c.Output
	if out == "" {
		out = convert.OutputPath(c.Input, "")
	}
	res, err := convert.ConvertFile(a.ctx, c.Input, out, opt)
	if err != nil {
		return err
	}
	a.printf("%s -> %s\n%s\n", res.Input, res.Output, res.Stats.Format(a.cfg.Stats.Precision))
	rec.add(a.ctx, res)
	return nil
}

type StatsCmd struct {
	Input     string `short:"i" required:"" type:"path" help:"LaTeX script to analyze."`
	Precision int    `default:"-1" help:"Decimals of the density percentage (default from config)."`
	JSON      bool   `name:"json" help:"Print the statistics as JSON."`
	Record    bool   `help:"Record the run in the history database."`
}

func (c *StatsCmd) Run(a *app) error {
	rec, err := a.recorder(c.Record)
	if err != nil {
		return err
	}
	defer rec.Close()

	res, err := convert.AnalyzeFile(a.ctx, c.Input)
	if err != nil {
		return err
	}
	if c.JSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Stats); err != nil {
			return err
		}
	} else {
		p := c.Precision
		if p < 0 {
			p = a.cfg.Stats.Precision
		}
		a.printf("%s\n", res.Stats.Format(p))
	}
	rec.add(a.ctx, res)
	return nil
}

type BatchCmd struct {
	Glob          string `required:"" help:"Doublestar pattern selecting the scripts, e.g. 'scripts/**/*.tex'."`
	OutDir        string `type:"path" help:"Directory for the Markdown files; mirrors the source tree (default: next to each script)."`
	Jobs          int    `default:"-1" help:"Parallel conversions (default from config, 0 = one per CPU)."`
	Guide         bool   `help:"Prepend the character list and formatting guide."`
	NoFrontMatter bool   `help:"Omit the YAML front matter."`
	Record        bool   `help:"Record the runs in the history database."`
}

func (c *BatchCmd) Run(a *app) error {
	rec, err := a.recorder(c.Record)
	if err != nil {
		return err
	}
	defer rec.Close()

	jobs := c.Jobs
	if jobs < 0 {
		jobs = a.cfg.Batch.Jobs
	}
	report, err := convert.Batch(a.ctx, convert.BatchOptions{
		Pattern:  filepath.ToSlash(c.Glob),
		OutDir:   c.OutDir,
		Jobs:     jobs,
		Markdown: a.markdownOptions(c.Guide, c.NoFrontMatter),
	})
	if err != nil {
		return err
	}
	for _, it := range report.Items {
		if it.Err != nil {
			a.printf("FAIL %s: %v\n", it.Input, it.Err)
			continue
		}
		a.printf("ok   %s -> %s\n", it.Input, it.Output)
		rec.add(a.ctx, it.Result)
	}
	failed := len(report.Failed())
	a.printf("%d converted, %d failed\n%s\n", len(report.Items)-failed, failed, report.Stats().Format(a.cfg.Stats.Precision))
	if len(report.Items) == 0 {
		return fmt.Errorf("no files match %q", c.Glob)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(report.Items))
	}
	return nil
}

type WatchCmd struct {
	Dir           string        `default:"." type:"existingdir" help:"Directory tree to watch."`
	Pattern       string        `help:"Doublestar pattern relative to the directory (default from config)."`
	OutDir        string        `type:"path" help:"Directory for the Markdown files; mirrors the source tree (default: next to each script)."`
	Debounce      time.Duration `help:"Quiet period before converting a changed file (default from config)."`
	Guide         bool          `help:"Prepend the character list and formatting guide."`
	NoFrontMatter bool          `help:"Omit the YAML front matter."`
	Record        bool          `help:"Record the runs in the history database."`
}

func (c *WatchCmd) Run(a *app) error {
	rec, err := a.recorder(c.Record)
	if err != nil {
		return err
	}
	defer rec.Close()

	opt := watch.Options{
		Dir:      c.Dir,
		Pattern:  c.Pattern,
		Ignore:   a.cfg.Watch.Ignore,
		OutDir:   c.OutDir,
		Debounce: c.Debounce,
		Markdown: a.markdownOptions(c.Guide, c.NoFrontMatter),
		OnResult: func(in string, res *convert.Result, err error) {
			if err != nil {
				a.printf("FAIL %s: %v\n", in, err)
				return
			}
			a.printf("ok   %s -> %s (%s)\n", res.Input, res.Output, res.Stats.Format(a.cfg.Stats.Precision))
			rec.add(a.ctx, res)
		},
	}
	if opt.Pattern == "" {
		opt.Pattern = a.cfg.Watch.Pattern
	}
	if opt.Debounce <= 0 {
		opt.Debounce = time.Duration(a.cfg.Watch.DebounceMs) * time.Millisecond
	}
	w, err := watch.New(opt)
	if err != nil {
		return err
	}
	a.printf("watching %s for %s (Ctrl+C to stop)\n", c.Dir, opt.Pattern)
	return w.Run(a.ctx)
}

type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Number of runs to list."`
	Prune int `default:"-1" help:"Keep only the N most recent runs before listing."`
}

func (c *HistoryCmd) Run(a *app) error {
	h, err := a.openHistory(true)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	if c.Prune >= 0 {
		n, err := h.Prune(a.ctx, c.Prune)
		if err != nil {
			return err
		}
		a.printf("pruned %d runs\n", n)
	}
	runs, err := h.Recent(a.ctx, c.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		a.printf("no runs recorded in %s\n", h.Path())
		return nil
	}
	for _, r := range runs {
		target := r.Target
		if target == "" {
			target = "(stats)"
		}
		a.printf("%-16s %s -> %s  %d/%d words  %.1f%%  %s\n",
			r.Ago(), r.Source, target, r.SpokenWords, r.TotalWords, 100*r.Density, r.SourceHash[:min(12, len(r.SourceHash))])
	}
	return nil
}

type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	a.printf("lilscript %s\n", version.String())
	return nil
}
