/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestHistory(t *testing.T) (*History, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", HistoryFileName)
	h, err := OpenHistory(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h, path
}

func TestHistory_RecordRecentPrune(t *testing.T) {
	h, _ := openTestHistory(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, src := range []string{"a.tex", "b.tex", "c.tex"} {
		r, err := h.Record(ctx, Run{
			At:          base.Add(time.Duration(i) * time.Minute),
			Source:      src,
			SourceHash:  HashSource([]byte(src)),
			Target:      strings.TrimSuffix(src, ".tex") + ".md",
			Blocks:      i + 1,
			SpokenWords: 2,
			TotalWords:  4,
			Density:     0.5,
			Elapsed:     15 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		if r.ID == "" {
			t.Fatalf("expected generated ID")
		}
	}
	if _, err := h.Record(ctx, Run{Source: "stats-only.tex", SourceHash: "x"}); err != nil {
		t.Fatalf("Record stats-only: %v", err)
	}

	runs, err := h.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 4 {
		t.Fatalf("expected 4 runs, got %d", len(runs))
	}
	if runs[0].Source != "stats-only.tex" || runs[0].Target != "" {
		t.Fatalf("newest run should be the stats-only one: %+v", runs[0])
	}
	if runs[1].Source != "c.tex" || runs[1].Blocks != 3 || runs[1].Elapsed != 15*time.Millisecond {
		t.Fatalf("unexpected run: %+v", runs[1])
	}
	if !runs[3].At.Equal(base) {
		t.Fatalf("timestamp not preserved: %v", runs[3].At)
	}

	removed, err := h.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	runs, _ = h.Recent(ctx, 10)
	if len(runs) != 2 || runs[1].Source != "c.tex" {
		t.Fatalf("unexpected runs after prune: %+v", runs)
	}
}

func TestHistory_ReopenKeepsRuns(t *testing.T) {
	h, path := openTestHistory(t)
	ctx := context.Background()
	if _, err := h.Record(ctx, Run{Source: "a.tex", SourceHash: "h"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	_ = h.Close()

	h2, err := OpenHistory(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer h2.Close()
	runs, err := h2.Recent(ctx, 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("Recent after reopen: %v, %d runs", err, len(runs))
	}
}

func TestHistory_RecreatesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, HistoryFileName)
	if err := os.WriteFile(path, []byte("THIS IS NOT SQLITE"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	h, err := OpenHistory(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer h.Close()
	if _, err := h.Record(context.Background(), Run{Source: "a.tex", SourceHash: "h"}); err != nil {
		t.Fatalf("Record after recreate: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "backups"))
	if len(entries) == 0 {
		t.Fatalf("expected a backup of the corrupt file")
	}
}

func TestOpenHistory_EmptyPath(t *testing.T) {
	if _, err := OpenHistory(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestHashSource(t *testing.T) {
	a := HashSource([]byte("hello"))
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a != HashSource([]byte("hello")) || a == HashSource([]byte("hello!")) {
		t.Fatalf("hash not deterministic or not content-sensitive")
	}
}

func TestRun_Ago(t *testing.T) {
	r := Run{At: time.Now().Add(-2 * time.Hour)}
	if got := r.Ago(); got != "2 hours ago" {
		t.Fatalf("Ago() = %q", got)
	}
}
