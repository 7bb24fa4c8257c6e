/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package convert is the conversion shell around the parser, the Markdown exporter
// and the analyzer: format dispatch, file I/O with atomic writes, and batch runs.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"lilscript/internal/analysis"
	applog "lilscript/internal/log"
	"lilscript/internal/markdown"
	"lilscript/internal/script"
	"lilscript/internal/tex"
)

// Result is the outcome of one successful conversion.
type Result struct {
	Input   string // source path, empty for in-memory conversions
	Output  string // target path, empty for in-memory conversions
	Text    string // rendered document
	Script  *script.Script
	Stats   analysis.Stats
	Elapsed time.Duration
}

// ExportError reports a failure to write the converted document.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string { return fmt.Sprintf("export %s: %v", e.Path, e.Err) }
func (e *ExportError) Unwrap() error { return e.Err }

// Convert converts input text between formats. Only tex -> md is implemented;
// every other pair is a *script.ParseError of kind UnsupportedDirection.
func Convert(input string, from, to Format, opt markdown.Options) (*Result, error) {
	if from != FormatTex || to != FormatMarkdown {
		return nil, &script.ParseError{
			Kind:       script.UnsupportedDirection,
			Conversion: from.String() + " -> " + to.String(),
		}
	}
	start := time.Now()
	s, err := tex.Parse(input)
	if err != nil {
		return nil, err
	}
	return &Result{
		Text:    markdown.Render(s, opt),
		Script:  s,
		Stats:   analysis.Analyze(s),
		Elapsed: time.Since(start),
	}, nil
}

// AnalyzeFile parses the source file at in and returns its statistics. The
// Result carries the Script and Stats; Text and Output stay empty.
func AnalyzeFile(ctx context.Context, in string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	from, err := FormatFromPath(in)
	if err != nil {
		return nil, err
	}
	if from != FormatTex {
		return nil, &script.ParseError{Kind: script.UnsupportedDirection, Conversion: from.String() + " -> stats"}
	}
	input, err := ReadSource(in)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	s, err := tex.Parse(input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in, err)
	}
	return &Result{Input: in, Script: s, Stats: analysis.Analyze(s), Elapsed: time.Since(start)}, nil
}

// ConvertFile converts the file at in and writes the result to out. Formats are
// taken from the extensions. Nothing is written when reading, parsing or writing fails.
func ConvertFile(ctx context.Context, in, out string, opt markdown.Options) (*Result, error) {
	l := applog.WithOperation(applog.WithComponent("convert"), "file")
	ctx = applog.WithFile(ctx, in)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	from, err := FormatFromPath(in)
	if err != nil {
		return nil, err
	}
	to, err := FormatFromPath(out)
	if err != nil {
		return nil, err
	}

	input, err := ReadSource(in)
	if err != nil {
		return nil, err
	}
	res, err := Convert(input, from, to, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in, err)
	}
	if err := writeAtomic(out, []byte(res.Text)); err != nil {
		return nil, &ExportError{Path: out, Err: err}
	}
	res.Input, res.Output = in, out

	l.InfoContext(ctx, "converted",
		slog.String("out", out),
		slog.Int("blocks", res.Script.Len()),
		slog.Int("spoken", res.Stats.SpokenWords),
		slog.Int("total", res.Stats.TotalWords),
		slog.Duration("elapsed", res.Elapsed))
	return res, nil
}

// ReadSource reads a source document as UTF-8 text. A byte order mark selects the
// encoding (UTF-8 or UTF-16) and is removed; input that is not valid UTF-8 and has
// no BOM is read as Windows-1252.
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	var fallback transform.Transformer = unicode.UTF8.NewDecoder()
	if !utf8.Valid(data) {
		fallback = charmap.Windows1252.NewDecoder()
	}
	text, _, err := transform.Bytes(unicode.BOMOverride(fallback), data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	return string(text), nil
}

// OutputPath returns the Markdown path for a source file: the same name with a
// .md extension, placed in outDir when it is set.
func OutputPath(in, outDir string) string {
	name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)) + FormatMarkdown.Ext()
	if outDir == "" {
		return filepath.Join(filepath.Dir(in), name)
	}
	return filepath.Join(outDir, name)
}
