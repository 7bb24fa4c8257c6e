/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tex

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"lilscript/internal/script"
)

var (
	reSeries = regexp.MustCompile(`^(.*?)\s*\(Part (\d+)\)$`)
	reTag    = regexp.MustCompile(`\[([^\]]*)\]`)
)

var dateLayouts = []string{"2006-01-02", "January 2, 2006", "2 January 2006"}

// walk calls fn for every command node in nodes, including those nested in groups
// and arguments.
func walk(nodes []node, fn func(n node)) {
	for _, n := range nodes {
		switch n.kind {
		case nodeGroup:
			walk(n.children, fn)
		case nodeCommand:
			fn(n)
			walk(n.opt, fn)
			for _, a := range n.args {
				walk(a, fn)
			}
		}
	}
}

// collectVariables gathers \newcommand-style definitions in document order. A value
// may use variables defined before it.
func collectVariables(trees [][]node, l *slog.Logger) map[string]string {
	vars := map[string]string{}
	f := &flattener{vars: vars, l: l}
	for _, nodes := range trees {
		walk(nodes, func(n node) {
			if lookup(n.name).role != roleDefine || len(n.args) < 2 {
				return
			}
			name := definedName(n.args[0])
			if name == "" {
				return
			}
			if n.hasOpt {
				l.Debug("skipping parameterised macro", slog.String("macro", name), slog.Int("line", n.line))
				return
			}
			if _, exists := vars[name]; exists && n.name == "providecommand" {
				return
			}
			vars[name] = f.plain(n.args[1])
		})
	}
	return vars
}

// definedName returns the macro name of a definition's first argument: \Name or {\Name}.
func definedName(arg []node) string {
	for _, n := range arg {
		switch n.kind {
		case nodeCommand:
			return n.name
		case nodeGroup:
			if name := definedName(n.children); name != "" {
				return name
			}
		}
	}
	return ""
}

// collectHeader reads header commands from the whole document. Later values win;
// tags and characters accumulate.
func collectHeader(trees [][]node, vars map[string]string, l *slog.Logger) script.Header {
	var h script.Header
	f := &flattener{vars: vars, l: l}
	arg := func(n node, i int) string {
		if i >= len(n.args) {
			return ""
		}
		return f.plain(n.args[i])
	}
	for _, nodes := range trees {
		walk(nodes, func(n node) {
			if lookup(n.name).role != roleHeader {
				return
			}
			v := arg(n, 0)
			switch n.name {
			case "title", "scriptTitle":
				h.Title = v
			case "author", "scriptAuthor":
				h.Author = v
			case "scriptPerformer":
				h.Performer = v
			case "scriptSeries":
				h.Series = parseSeries(v)
			case "scriptTags":
				h.Tags = append(h.Tags, parseTags(v)...)
			case "summary":
				h.Summary = v
			case "date", "scriptDate":
				h.Date = parseDate(v)
				if h.Date.IsZero() && v != "" {
					l.Debug("unrecognised date", slog.String("value", v), slog.Int("line", n.line))
				}
			case "character":
				if v != "" {
					h.Characters = append(h.Characters, script.Character{Name: v, Description: arg(n, 1)})
				}
			}
		})
	}
	if h.Title == "" {
		h.Title = vars["SceneName"]
	}
	if len(vars) > 0 {
		h.Variables = vars
	}
	return h
}

func parseSeries(v string) script.Series {
	if absent(v) {
		return script.Series{}
	}
	if m := reSeries.FindStringSubmatch(v); m != nil {
		part, err := strconv.Atoi(m[2])
		if err == nil && !absent(m[1]) {
			return script.Series{Title: m[1], Part: part}
		}
		return script.Series{}
	}
	return script.Series{Title: v}
}

func parseTags(v string) []string {
	var raw []string
	if ms := reTag.FindAllStringSubmatch(v, -1); ms != nil {
		for _, m := range ms {
			raw = append(raw, m[1])
		}
	} else {
		raw = strings.Split(v, ",")
	}
	var out []string
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseDate(v string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// absent reports placeholder values used by templates for "not set".
func absent(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == "—" || v == "-" || v == "--" || v == "---"
}
