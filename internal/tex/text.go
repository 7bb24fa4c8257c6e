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
	"strings"

	"lilscript/internal/script"
)

var quoteReplacer = strings.NewReplacer("``", `"`, "''", `"`, "~", " ")

// flattener turns node trees into inline spans, substituting document variables.
type flattener struct {
	vars map[string]string
	l    *slog.Logger
}

// spans flattens nodes into raw spans of the given kind. Nested emphasis or cues
// refine the kind; a cue is never downgraded by emphasis inside it.
func (f *flattener) spans(nodes []node, kind script.SpanKind) []script.Span {
	var out []script.Span
	emit := func(s string, k script.SpanKind) {
		if s != "" {
			out = append(out, script.Span{Kind: k, Text: s})
		}
	}
	for _, n := range nodes {
		switch n.kind {
		case nodeText:
			emit(quoteReplacer.Replace(n.text), kind)
		case nodeGroup:
			out = append(out, f.spans(n.children, kind)...)
		case nodeCommand:
			c := lookup(n.name)
			switch c.role {
			case roleEmphasis:
				k := script.SpanEmphasis
				if kind == script.SpanCue {
					k = kind
				}
				out = append(out, f.args(n, k)...)
			case roleCue, roleDirection:
				out = append(out, f.args(n, script.SpanCue)...)
			case roleMacro:
				emit(c.text, kind)
			case roleLink:
				url, label := "", ""
				if len(n.args) > 0 {
					url = rawText(n.args[0])
				}
				if len(n.args) > 1 {
					label = f.plain(n.args[1])
				}
				switch {
				case label == "":
					emit(url, kind)
				case url == "":
					emit(label, kind)
				default:
					emit("["+label+"]("+url+")", kind)
				}
			case roleURL:
				if len(n.args) > 0 {
					emit(rawText(n.args[0]), kind)
				}
			case roleHeader, roleDefine, roleNoise:
				// collected elsewhere or layout only
			case roleUnknown:
				if v, ok := f.vars[n.name]; ok {
					emit(v, kind)
					continue
				}
				f.l.Debug("unknown command", slog.String("command", n.name), slog.Int("line", n.line))
				out = append(out, f.args(n, kind)...)
			default:
				// spoken or sectioning commands in the middle of a line: keep their text
				out = append(out, f.args(n, kind)...)
			}
		}
	}
	return out
}

// args flattens the brace arguments of n. Separate arguments are separate words.
func (f *flattener) args(n node, kind script.SpanKind) []script.Span {
	var out []script.Span
	for i, a := range n.args {
		if i > 0 {
			out = append(out, script.Span{Kind: kind, Text: " "})
		}
		out = append(out, f.spans(a, kind)...)
	}
	return out
}

// plain flattens nodes to a single normalised string, ignoring span kinds.
func (f *flattener) plain(nodes []node) string {
	return script.JoinSpans(normalize(f.spans(nodes, script.SpanPlain)), script.PlainText)
}

// rawText concatenates literal text, used for URLs where no whitespace handling applies.
func rawText(nodes []node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n.kind {
		case nodeText:
			b.WriteString(n.text)
		case nodeGroup:
			b.WriteString(rawText(n.children))
		}
	}
	return strings.TrimSpace(b.String())
}

// normalize merges adjacent spans of the same kind, collapses whitespace and drops
// empty spans.
func normalize(spans []script.Span) []script.Span {
	var out []script.Span
	for _, sp := range mergeSpans(spans, func(a, b string) string { return a + b }) {
		sp.Text = strings.Join(strings.Fields(sp.Text), " ")
		if sp.Text != "" {
			out = append(out, sp)
		}
	}
	// dropping blank spans can leave neighbours of the same kind
	return mergeSpans(out, func(a, b string) string {
		return script.JoinSpans([]script.Span{{Text: a}, {Text: b}}, script.PlainText)
	})
}

func mergeSpans(spans []script.Span, join func(a, b string) string) []script.Span {
	var out []script.Span
	for _, sp := range spans {
		if n := len(out); n > 0 && out[n-1].Kind == sp.Kind {
			out[n-1].Text = join(out[n-1].Text, sp.Text)
			continue
		}
		out = append(out, sp)
	}
	return out
}

// directionText renders spans as direction text; inline cues keep their parentheses.
func directionText(spans []script.Span) string {
	return script.JoinSpans(spans, func(sp script.Span) string {
		if sp.Kind == script.SpanCue {
			return "(" + sp.Text + ")"
		}
		return sp.Text
	})
}
