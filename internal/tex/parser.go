/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package tex reads the LaTeX-flavoured script format into a script.Script.
package tex

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	applog "lilscript/internal/log"
	"lilscript/internal/script"
)

// reSpeaker matches a "Name: text" prefix. The colon must be followed by
// whitespace or end the span, so URLs and times are not taken for speakers.
var reSpeaker = regexp.MustCompile(`^([^:]{1,32}?)\s*:(\s+(.*))?$`)

// reName accepts up to three capitalised words or numbers ("Alice", "Dr. Smith",
// "Listener 2"). Sentences such as "Listen to me" do not match.
var reName = regexp.MustCompile(`^[\p{Lu}\p{N}][\p{L}\p{N}_'.\-]*( [\p{Lu}\p{N}][\p{L}\p{N}_'.\-]*){0,2}$`)

// Parse parses LaTeX script source into a Script.
// Recognised structure:
//   - \spoken[Speaker]{text}, or any other non-blank line: spoken dialogue.
//     A leading "Name: " sets the speaker, otherwise the previous speaker carries forward.
//   - \stagedir{}, \sfx{}, \listener{}, \direct{} and wholly bracketed "[...]" lines: directions.
//   - \part ... \subsubsection (and starred forms), \scenebreak: section breaks.
//   - header commands (\title, \scriptAuthor, \scriptSeries, ...) and definitions
//     (\newcommand and friends) anywhere in the document.
//
// Unknown markup is stripped and its argument text kept. The only failure is a
// structural brace group that is never closed (script.ErrUnbalancedGroup).
func Parse(raw string) (*script.Script, error) {
	l := applog.WithOperation(applog.WithComponent("tex"), "parse")

	toks, err := tokenize(raw)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	lines, err := splitLines(toks, l)
	if err != nil {
		return nil, err
	}

	trees := make([][]node, len(lines))
	for i, ln := range lines {
		trees[i] = parseTree(ln.toks)
	}
	vars := collectVariables(trees, l)
	header := collectHeader(trees, vars, l)
	f := &flattener{vars: vars, l: l}

	// declared names are speakers even when they do not look like one
	known := make(map[string]bool, len(header.Characters))
	for _, c := range header.Characters {
		known[c.Name] = true
	}

	var (
		blocks  []script.Block
		speaker string
	)

	// spoken emits a spoken line, or a cue direction when nothing is left to say.
	spoken := func(spans []script.Span, name string, lineNo int) {
		spans = normalize(spans)
		if name == "" {
			name, spans = splitSpeaker(spans, known)
		} else {
			known[name] = true
		}
		if name != "" {
			speaker = name
		}
		said := script.JoinSpans(spokenOnly(spans), script.PlainText)
		if said == "" {
			if cue := directionText(cueOnly(spans)); cue != "" {
				blocks = append(blocks, script.Direction{Type: script.DirectionCue, Text: stripParens(cue), Line: lineNo})
			}
			return
		}
		ln := script.SpokenLine{Speaker: speaker, Text: said, Line: lineNo}
		if len(spans) > 1 || spans[0].Kind != script.SpanPlain {
			ln.Spans = spans
		}
		blocks = append(blocks, ln)
	}

	var classify func(nodes []node, lineNo int)
	classify = func(nodes []node, lineNo int) {
		nodes = trimLeft(nodes)
		if len(nodes) == 0 {
			return
		}
		if first := nodes[0]; first.kind == nodeCommand {
			c := lookup(first.name)
			rest := nodes[1:]
			switch c.role {
			case roleSection:
				label := ""
				if len(first.args) > 0 {
					label = f.plain(first.args[0])
				}
				blocks = append(blocks, script.SectionBreak{Label: label, Line: lineNo})
				classify(rest, lineNo)
				return
			case roleBreak:
				blocks = append(blocks, script.SectionBreak{Line: lineNo})
				classify(rest, lineNo)
				return
			case roleHeader, roleDefine, roleNoise:
				classify(rest, lineNo)
				return
			case roleDirection, roleCue:
				if len(first.args) > 0 {
					text := directionText(normalize(f.spans(first.args[0], script.SpanPlain)))
					if c.role == roleCue {
						text = stripParens(text)
					}
					if text != "" {
						blocks = append(blocks, script.Direction{Type: c.dir, Text: text, Line: lineNo})
					}
				}
				classify(rest, lineNo)
				return
			case roleSpoken:
				name := ""
				if first.hasOpt {
					name = f.plain(first.opt)
				}
				if len(first.args) > 0 {
					spoken(f.spans(first.args[0], script.SpanPlain), name, lineNo)
				}
				classify(rest, lineNo)
				return
			}
		}

		spans := normalize(f.spans(nodes, script.SpanPlain))
		if text, ok := bracketed(directionText(spans)); ok {
			if text != "" {
				blocks = append(blocks, script.Direction{Type: script.DirectionStage, Text: text, Line: lineNo})
			}
			return
		}
		spoken(spans, "", lineNo)
	}

	for i, nodes := range trees {
		classify(nodes, lines[i].line)
	}

	l.Debug("parsed script", slog.Int("lines", len(lines)), slog.Int("blocks", len(blocks)), slog.Int("variables", len(vars)))
	return script.New(header, blocks), nil
}

// trimLeft drops leading whitespace-only text nodes.
func trimLeft(nodes []node) []node {
	for len(nodes) > 0 && nodes[0].kind == nodeText && strings.TrimSpace(nodes[0].text) == "" {
		nodes = nodes[1:]
	}
	return nodes
}

// splitSpeaker detects a "Name: " prefix on the first plain span. The name must
// be declared in known or look like a name.
func splitSpeaker(spans []script.Span, known map[string]bool) (string, []script.Span) {
	if len(spans) == 0 || spans[0].Kind != script.SpanPlain {
		return "", spans
	}
	m := reSpeaker.FindStringSubmatch(spans[0].Text)
	if m == nil {
		return "", spans
	}
	name := strings.TrimSpace(m[1])
	if !known[name] && !reName.MatchString(name) {
		return "", spans
	}
	rest := strings.TrimSpace(m[3])
	if rest == "" && len(spans) == 1 {
		// "Note:" alone is text, not an empty line by Note
		return "", spans
	}
	out := make([]script.Span, 0, len(spans))
	if rest != "" {
		out = append(out, script.Span{Kind: script.SpanPlain, Text: rest})
	}
	out = append(out, spans[1:]...)
	return name, out
}

func spokenOnly(spans []script.Span) []script.Span {
	return script.SpokenLine{Spans: spans}.SpokenSpans()
}

func cueOnly(spans []script.Span) []script.Span {
	var out []script.Span
	for _, sp := range spans {
		if sp.Kind == script.SpanCue {
			out = append(out, sp)
		}
	}
	return out
}

// bracketed reports whether s is a single [..] group and returns its trimmed content.
func bracketed(s string) (string, bool) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return "", false
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 && i != len(s)-1 {
				return "", false
			}
		}
	}
	if depth != 0 {
		return "", false
	}
	return strings.TrimSpace(s[1 : len(s)-1]), true
}

// stripParens removes one pair of parentheses around a lone cue.
func stripParens(s string) string {
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && strings.Count(s, "(") == 1 {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
