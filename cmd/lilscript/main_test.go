/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lilscript/internal/analysis"
)

type cliResult struct {
	code   int
	stdout string
	stderr string
}

// runCLI runs the command line against an isolated home and config file.
func runCLI(t *testing.T, cfgYAML string, args ...string) cliResult {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "cfg"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	for _, k := range []string{"LIL_HISTORY", "LIL_HISTORY_PATH", "LIL_JOBS", "LIL_PRECISION", "LIL_LOG_LEVEL", "LIL_LOG_FORMAT", "LIL_LOG_FILE"} {
		t.Setenv(k, "")
	}
	cfgPath := filepath.Join(home, "config.yaml")
	if cfgYAML == "" {
		cfgYAML = "logging:\n  level: error\n"
	}
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	var out, errOut bytes.Buffer
	code := run(context.Background(), append([]string{"--config", cfgPath}, args...), &out, &errOut)
	return cliResult{code: code, stdout: out.String(), stderr: errOut.String()}
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return p
}

const sample = "\\title{Rain}\nA: hello there\n\\stagedir{door creaks}\n"

func TestVersion(t *testing.T) {
	r := runCLI(t, "", "version")
	if r.code != 0 || !strings.HasPrefix(r.stdout, "lilscript ") {
		t.Fatalf("version: %+v", r)
	}
}

func TestUnknownCommandIsUsageError(t *testing.T) {
	r := runCLI(t, "", "frobnicate")
	if r.code != 2 || !strings.Contains(r.stderr, "lilscript: error:") {
		t.Fatalf("expected usage error: %+v", r)
	}
}

func TestConvertDefaultOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeScript(t, dir, "rain.tex", sample)
	r := runCLI(t, "", "convert", "-i", in)
	if r.code != 0 {
		t.Fatalf("convert failed: %+v", r)
	}
	data, err := os.ReadFile(filepath.Join(dir, "rain.md"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "---\ntitle: Rain\n---\n") {
		t.Fatalf("front matter missing: %q", data)
	}
	if !strings.Contains(r.stdout, "2 spoken + 2 unspoken -> 4 total (ρ = 50.00%)") {
		t.Fatalf("stats line missing: %q", r.stdout)
	}
}

func TestConvertToStdoutWithoutFrontMatter(t *testing.T) {
	in := writeScript(t, t.TempDir(), "rain.tex", sample)
	r := runCLI(t, "", "convert", "-i", in, "-o", "-", "--no-front-matter")
	if r.code != 0 {
		t.Fatalf("convert failed: %+v", r)
	}
	if r.stdout != "**A:** hello there\n\n> *[door creaks]*\n" {
		t.Fatalf("stdout = %q", r.stdout)
	}
}

func TestConvertReportsParseError(t *testing.T) {
	dir := t.TempDir()
	in := writeScript(t, dir, "bad.tex", "\\spoken{never closed\n\nmore")
	r := runCLI(t, "", "convert", "-i", in)
	if r.code != 1 || !strings.Contains(r.stderr, "unbalanced group") {
		t.Fatalf("expected parse failure: %+v", r)
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.md")); !os.IsNotExist(err) {
		t.Fatalf("no output expected, stat err = %v", err)
	}
}

func TestConvertRejectsMarkdownSource(t *testing.T) {
	dir := t.TempDir()
	in := writeScript(t, dir, "notes.md", "# hi\n")
	r := runCLI(t, "", "convert", "-i", in, "-o", filepath.Join(dir, "notes.tex"))
	if r.code != 1 || !strings.Contains(r.stderr, "unsupported conversion md -> tex") {
		t.Fatalf("expected unsupported direction: %+v", r)
	}
}

func TestStatsJSONAndPrecision(t *testing.T) {
	in := writeScript(t, t.TempDir(), "rain.tex", sample)
	r := runCLI(t, "", "stats", "-i", in, "--json")
	if r.code != 0 {
		t.Fatalf("stats failed: %+v", r)
	}
	var st analysis.Stats
	if err := json.Unmarshal([]byte(r.stdout), &st); err != nil {
		t.Fatalf("decode stats: %v (%q)", err, r.stdout)
	}
	if st.SpokenWords != 2 || st.TotalWords != 4 || st.Density != 0.5 {
		t.Fatalf("stats = %+v", st)
	}

	r = runCLI(t, "stats:\n  precision: 1\nlogging:\n  level: error\n", "stats", "-i", in)
	if !strings.Contains(r.stdout, "(ρ = 50.0%)") {
		t.Fatalf("config precision not applied: %q", r.stdout)
	}
	r = runCLI(t, "", "stats", "-i", in, "--precision", "0")
	if !strings.Contains(r.stdout, "(ρ = 50%)") {
		t.Fatalf("flag precision not applied: %q", r.stdout)
	}
}

func TestBatchMirrorsTreeAndFailsOnBrokenScript(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "scripts/one.tex", "A: one two\n")
	writeScript(t, dir, "scripts/sub/two.tex", "B: three\n")
	writeScript(t, dir, "scripts/sub/broken.tex", "\\sfx{open")
	out := filepath.Join(dir, "out")

	r := runCLI(t, "", "batch", "--glob", filepath.ToSlash(dir)+"/scripts/**/*.tex", "--out-dir", out, "--jobs", "2")
	if r.code != 1 {
		t.Fatalf("batch should fail because of one script: %+v", r)
	}
	if !strings.Contains(r.stdout, "2 converted, 1 failed") {
		t.Fatalf("summary missing: %q", r.stdout)
	}
	for _, p := range []string{"one.md", filepath.Join("sub", "two.md")} {
		if _, err := os.Stat(filepath.Join(out, p)); err != nil {
			t.Fatalf("missing output %s: %v", p, err)
		}
	}
}

func TestHistoryRecordsRuns(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "h.sqlite")
	cfg := "logging:\n  level: error\nhistory:\n  enabled: true\n  path: " + db + "\n"
	in := writeScript(t, dir, "rain.tex", sample)

	if r := runCLI(t, cfg, "convert", "-i", in); r.code != 0 {
		t.Fatalf("convert failed: %+v", r)
	}
	if r := runCLI(t, cfg, "stats", "-i", in); r.code != 0 {
		t.Fatalf("stats failed: %+v", r)
	}
	r := runCLI(t, cfg, "history")
	if r.code != 0 {
		t.Fatalf("history failed: %+v", r)
	}
	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two runs, got %q", r.stdout)
	}
	// newest first: the stats run has no target
	if !strings.Contains(lines[0], "(stats)") || !strings.Contains(lines[1], "rain.md") {
		t.Fatalf("unexpected listing: %q", r.stdout)
	}
	if !strings.Contains(lines[0], "2/4 words") {
		t.Fatalf("word counts missing: %q", lines[0])
	}

	r = runCLI(t, cfg, "history", "--prune", "0")
	if r.code != 0 || !strings.Contains(r.stdout, "pruned 2 runs") || !strings.Contains(r.stdout, "no runs recorded") {
		t.Fatalf("prune: %+v", r)
	}
}

func TestHistoryOffByDefault(t *testing.T) {
	in := writeScript(t, t.TempDir(), "rain.tex", sample)
	if r := runCLI(t, "", "stats", "-i", in); r.code != 0 {
		t.Fatalf("stats failed: %+v", r)
	}
	home := os.Getenv("HOME")
	if _, err := os.Stat(filepath.Join(home, "data", "lilscript", "history.sqlite")); !os.IsNotExist(err) {
		t.Fatalf("history must not be created unless enabled, stat err = %v", err)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	r := runCLI(t, "batch:\n  jobs: -3\n", "version")
	if r.code != 1 || !strings.Contains(r.stderr, "invalid config") {
		t.Fatalf("expected config error: %+v", r)
	}
}
