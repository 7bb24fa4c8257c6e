/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tex

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// texLexer splits LaTeX source into the few token classes the parser cares about.
// Order matters: the first rule matching at a position wins.
var texLexer = lexer.MustSimple([]lexer.SimpleRule{
	// % to end of line; an escaped \% is matched by Escaped below because it starts with a backslash
	{Name: "Comment", Pattern: `%[^\n]*`},
	// \\ forced line break, optionally with a length: \\[2pt]
	{Name: "LineBreak", Pattern: `\\\\(\[[^\]\n]*\])?`},
	{Name: "Escaped", Pattern: `\\[%&$#_{}]`},
	{Name: "Command", Pattern: `\\[A-Za-z@]+\*?`},
	// control symbols such as "\ ", "\," or "\'"; a lone trailing backslash matches too
	{Name: "Symbol", Pattern: `\\[^A-Za-z\n]?`},
	{Name: "LBrace", Pattern: `\{`},
	{Name: "RBrace", Pattern: `\}`},
	{Name: "LBracket", Pattern: `\[`},
	{Name: "RBracket", Pattern: `\]`},
	{Name: "Newline", Pattern: `\n`},
	{Name: "Text", Pattern: `[^\\{}\[\]%\n]+`},
})

var (
	tokComment   = texLexer.Symbols()["Comment"]
	tokLineBreak = texLexer.Symbols()["LineBreak"]
	tokEscaped   = texLexer.Symbols()["Escaped"]
	tokCommand   = texLexer.Symbols()["Command"]
	tokSymbol    = texLexer.Symbols()["Symbol"]
	tokLBrace    = texLexer.Symbols()["LBrace"]
	tokRBrace    = texLexer.Symbols()["RBrace"]
	tokLBracket  = texLexer.Symbols()["LBracket"]
	tokRBracket  = texLexer.Symbols()["RBracket"]
	tokNewline   = texLexer.Symbols()["Newline"]
	tokText      = texLexer.Symbols()["Text"]
)

// tokenize lexes src into tokens, without the trailing EOF token.
func tokenize(src string) ([]lexer.Token, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	lx, err := texLexer.LexString("", src)
	if err != nil {
		return nil, err
	}
	toks, err := lexer.ConsumeAll(lx)
	if err != nil {
		return nil, err
	}
	if n := len(toks); n > 0 && toks[n-1].EOF() {
		toks = toks[:n-1]
	}
	return toks, nil
}

// commandName returns the name of a Command token without the leading backslash.
func commandName(t lexer.Token) string { return strings.TrimPrefix(t.Value, `\`) }

// isBlank reports whether t is whitespace-only text.
func isBlank(t lexer.Token) bool {
	return t.Type == tokText && strings.TrimSpace(t.Value) == ""
}
