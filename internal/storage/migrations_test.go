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
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// TestMigrations_UpgradeV1ToV2 ensures that an older DB (schema=1) is migrated to schemaVersion and the new column and indexes exist.
func TestMigrations_UpgradeV1ToV2(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistoryFileName)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
		`CREATE TABLE conversions (id TEXT PRIMARY KEY, ts TEXT NOT NULL, source TEXT NOT NULL, source_hash TEXT NOT NULL, target TEXT, blocks INTEGER NOT NULL, spoken INTEGER NOT NULL, total INTEGER NOT NULL, density REAL NOT NULL);`,
		`INSERT INTO conversions VALUES('old', '2020-01-01T00:00:00Z', 'old.tex', 'h', 'old.md', 1, 2, 4, 0.5);`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	_ = db.Close()

	h, err := OpenHistory(ctx, path)
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer h.Close()

	var schema int
	if err := h.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if schema != schemaVersion {
		t.Fatalf("expected schema %d after migration, got %d", schemaVersion, schema)
	}
	var cnt int
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name IN ('idx_conversions_ts','idx_conversions_source')`).Scan(&cnt); err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected 2 indexes after migration, got %d", cnt)
	}
	runs, err := h.Recent(ctx, 5)
	if err != nil || len(runs) != 1 || runs[0].Elapsed != 0 {
		t.Fatalf("old rows should survive migration: %v %+v", err, runs)
	}
}

func TestMigrations_FreshDatabaseHasLatestSchema(t *testing.T) {
	h, _ := openTestHistory(t)
	ctx := context.Background()
	var cnt int
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pragma_table_info('conversions') WHERE name='elapsed_ms'`).Scan(&cnt); err != nil {
		t.Fatalf("table info: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("fresh database lacks elapsed_ms column")
	}
}
