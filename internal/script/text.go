/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strings"
	"unicode/utf8"
)

// JoinSpans renders spans with render and joins them with single spaces. No space
// is inserted before closing punctuation or after an opening bracket or quote.
func JoinSpans(spans []Span, render func(Span) string) string {
	var b strings.Builder
	prev := ""
	for _, sp := range spans {
		s := render(sp)
		if s == "" {
			continue
		}
		if prev != "" && needsSpace(prev, s) {
			b.WriteByte(' ')
		}
		b.WriteString(s)
		prev = s
	}
	return b.String()
}

// PlainText renders a span as its bare text.
func PlainText(sp Span) string { return sp.Text }

func needsSpace(prev, next string) bool {
	last, _ := utf8.DecodeLastRuneInString(prev)
	first, _ := utf8.DecodeRuneInString(next)
	switch {
	case strings.ContainsRune("([{«“‘", last):
		return false
	case last == '"' && strings.Count(prev, `"`)%2 == 1:
		return false
	}
	return !strings.ContainsRune(".,;:!?)]}»…”’", first)
}

// SpokenSpans returns the spans of l that are read aloud (everything except cues).
func (l SpokenLine) SpokenSpans() []Span {
	if l.Spans == nil {
		return []Span{{Kind: SpanPlain, Text: l.Text}}
	}
	out := make([]Span, 0, len(l.Spans))
	for _, sp := range l.Spans {
		if sp.Kind != SpanCue {
			out = append(out, sp)
		}
	}
	return out
}
