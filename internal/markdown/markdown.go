/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package markdown renders a script.Script as Markdown.
package markdown

import (
	"log/slog"
	"regexp"
	"strings"

	applog "lilscript/internal/log"
	"lilscript/internal/script"
)

// Divider separates the formatting guide from the script body.
const Divider = "--8<--"

// Options controls optional parts of the rendered document.
//
//   - FrontMatter writes the header as a YAML block delimited by "---".
//   - IncludeGuide adds a short legend explaining the notation (and the cast when
//     the header lists characters) before the script body.
type Options struct {
	FrontMatter  bool
	IncludeGuide bool
}

// DefaultOptions returns the options used by Export.
func DefaultOptions() Options { return Options{FrontMatter: true} }

// Export renders s with DefaultOptions.
func Export(s *script.Script) string { return Render(s, DefaultOptions()) }

// Render renders s as Markdown. Blocks are separated by one blank line and the
// output ends with a newline unless it is empty. Render never fails.
func Render(s *script.Script, opt Options) string {
	l := applog.WithOperation(applog.WithComponent("markdown"), "render")
	h := s.Header()

	var parts []string
	if opt.FrontMatter {
		if fm := frontMatter(h, l); fm != "" {
			parts = append(parts, fm)
		}
	}
	if opt.IncludeGuide {
		parts = append(parts, guide(h)...)
	}

	speaker := ""
	for _, b := range s.Blocks() {
		switch v := b.(type) {
		case script.SectionBreak:
			parts = append(parts, section(v))
		case script.Direction:
			parts = append(parts, direction(v.Type, v.Text))
		case script.SpokenLine:
			text := spokenText(v)
			if v.Speaker != "" && v.Speaker != speaker {
				text = "**" + v.Speaker + ":** " + text
			} else {
				text = escapeLeading(text)
			}
			speaker = v.Speaker
			parts = append(parts, text)
		}
	}

	l.Debug("rendered markdown", slog.Int("blocks", s.Len()), slog.Int("parts", len(parts)))
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func section(b script.SectionBreak) string {
	if b.Label == "" {
		return "---"
	}
	return "## " + b.Label
}

// direction renders an annotation as a blockquoted italic line.
func direction(t script.DirectionType, text string) string {
	switch t {
	case script.DirectionSFX:
		return "> *[sfx: " + text + "]*"
	case script.DirectionListener:
		return "> *« " + text + " »*"
	case script.DirectionCue:
		return "> *(" + text + ")*"
	default:
		return "> *[" + text + "]*"
	}
}

func spokenText(l script.SpokenLine) string {
	if l.Spans == nil {
		return l.Text
	}
	return script.JoinSpans(l.Spans, func(sp script.Span) string {
		switch sp.Kind {
		case script.SpanEmphasis:
			return "**" + sp.Text + "**"
		case script.SpanCue:
			return "*(" + sp.Text + ")*"
		default:
			return sp.Text
		}
	})
}

// reBlockStart matches text that Markdown would read as something other than a paragraph.
var reBlockStart = regexp.MustCompile("^(#|>|<|[-+*=|~`]|\\d+[.)])")

// escapeLeading keeps a spoken line from turning into a heading, quote, list, rule
// or HTML block.
func escapeLeading(text string) string {
	m := reBlockStart.FindStringIndex(text)
	if m == nil || strings.HasPrefix(text, "**") || strings.HasPrefix(text, "*(") {
		return text
	}
	return text[:m[1]-1] + `\` + text[m[1]-1:]
}

// guide returns the legend paragraphs, ending with the divider.
func guide(h script.Header) []string {
	var out []string
	if len(h.Characters) > 0 {
		var b strings.Builder
		for i, c := range h.Characters {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("- **" + c.Name + "**")
			if c.Description != "" {
				b.WriteString(" ∼ " + c.Description)
			}
		}
		out = append(out, "## Characters", b.String())
	}
	return append(out,
		"## Formatting guide",
		"spoken text",
		"**emphasis**",
		"*(tone cue, suggested)*",
		direction(script.DirectionStage, "stage direction"),
		direction(script.DirectionSFX, "sound effect"),
		direction(script.DirectionListener, "example listener dialogue, not intended to be voiced"),
		Divider,
	)
}
