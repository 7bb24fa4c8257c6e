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
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// language=SQL
// dialect=SQLite
const insertRunSQL = `INSERT INTO conversions(id, ts, source, source_hash, target, blocks, spoken, total, density, elapsed_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const listRunsSQL = `SELECT id, ts, source, source_hash, COALESCE(target, ''), blocks, spoken, total, density, elapsed_ms
FROM conversions ORDER BY ts DESC, rowid DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneRunsSQL = `DELETE FROM conversions WHERE id NOT IN (
	SELECT id FROM conversions ORDER BY ts DESC, rowid DESC LIMIT ?
)`

// tsLayout is fixed-width so that ts sorts chronologically as text. Reading
// accepts any RFC 3339 timestamp.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded conversion or stats run.
type Run struct {
	ID          string
	At          time.Time
	Source      string
	SourceHash  string // blake3 of the source bytes, hex
	Target      string // empty for stats-only runs
	Blocks      int
	SpokenWords int
	TotalWords  int
	Density     float64
	Elapsed     time.Duration
}

// Ago describes when the run happened relative to now, e.g. "3 minutes ago".
func (r Run) Ago() string { return humanize.Time(r.At) }

// HashSource returns the hex blake3 digest used to identify source contents.
func HashSource(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Record stores r, assigning an ID and timestamp when they are unset, and returns
// the stored value.
func (h *History) Record(ctx context.Context, r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	r.At = r.At.UTC()
	_, err := h.db.ExecContext(ctx, insertRunSQL,
		r.ID, r.At.Format(tsLayout), r.Source, r.SourceHash, nullable(r.Target),
		r.Blocks, r.SpokenWords, r.TotalWords, r.Density, r.Elapsed.Milliseconds())
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	return r, nil
}

// Recent returns up to limit runs, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, listRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Run
	for rows.Next() {
		var (
			r     Run
			ts    string
			msecs int64
		)
		if err := rows.Scan(&r.ID, &ts, &r.Source, &r.SourceHash, &r.Target, &r.Blocks, &r.SpokenWords, &r.TotalWords, &r.Density, &msecs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			r.At = t
		}
		r.Elapsed = time.Duration(msecs) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune deletes all but the keep most recent runs and returns the number removed.
func (h *History) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := h.db.ExecContext(ctx, pruneRunsSQL, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
