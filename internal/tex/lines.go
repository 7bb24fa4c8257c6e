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
	"slices"

	"github.com/alecthomas/participle/v2/lexer"

	"lilscript/internal/script"
)

// logicalLine is one source line, or several when a structural command's brace
// group continues past a newline. Comments are removed and braces are balanced.
type logicalLine struct {
	toks []lexer.Token
	line int
}

// splitLines groups tokens into logical lines.
//
// A newline inside an open group continues the line only when the line started with
// a structural command; reaching a blank line or the end of input with such a group
// open is an UnbalancedGroup error. Groups left open by inline commands are
// malformed fragments: their opening braces are dropped and the text is kept.
func splitLines(toks []lexer.Token, l *slog.Logger) ([]logicalLine, error) {
	var (
		out        []logicalLine
		cur        logicalLine
		opens      []int // indexes into cur.toks of unclosed '{'
		started    bool  // cur has a non-blank token
		structured bool  // cur starts with a structural command
	)

	flush := func() {
		if started {
			out = append(out, cur)
		}
		cur = logicalLine{}
		opens = nil
		started = false
		structured = false
	}
	dropOpens := func() {
		l.Warn("unclosed group treated as text", slog.Int("line", cur.toks[opens[0]].Pos.Line))
		drop := make(map[int]bool, len(opens))
		for _, i := range opens {
			drop[i] = true
		}
		kept := cur.toks[:0:0]
		for i, t := range cur.toks {
			if !drop[i] {
				kept = append(kept, t)
			}
		}
		cur.toks = kept
		opens = nil
	}
	unbalanced := func() error {
		open := cur.toks[opens[0]]
		return &script.ParseError{
			Kind:    script.UnbalancedGroup,
			Line:    open.Pos.Line,
			Column:  open.Pos.Column,
			Message: "group opened here is not closed before the end of the paragraph",
		}
	}

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.Type {
		case tokComment:
			continue
		case tokNewline:
			if len(opens) == 0 {
				flush()
				continue
			}
			if !structured {
				dropOpens()
				flush()
				continue
			}
			if blankAhead(toks, i+1) {
				return nil, unbalanced()
			}
		case tokLBrace:
			opens = append(opens, len(cur.toks))
		case tokRBrace:
			if len(opens) == 0 {
				// stray closing brace
				continue
			}
			opens = opens[:len(opens)-1]
		}

		if !started && !isBlank(t) {
			started = true
			cur.line = t.Pos.Line
			structured = t.Type == tokCommand && structural(commandName(t))
		}
		cur.toks = append(cur.toks, t)
	}

	if len(opens) > 0 {
		if structured {
			return nil, unbalanced()
		}
		dropOpens()
	}
	flush()
	return out, nil
}

// blankAhead reports whether the tokens from i up to the next newline (or the end)
// are only whitespace, i.e. the next source line is blank. A comment-only line is
// not blank, matching TeX where it does not end a paragraph.
func blankAhead(toks []lexer.Token, i int) bool {
	idx := slices.IndexFunc(toks[i:], func(t lexer.Token) bool { return !isBlank(t) })
	if idx < 0 {
		return true
	}
	return toks[i+idx].Type == tokNewline
}
