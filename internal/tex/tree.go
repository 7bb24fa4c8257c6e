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

type nodeKind int

const (
	nodeText nodeKind = iota
	nodeCommand
	nodeGroup
)

// node is a fragment of one logical line: plain text, a command with its
// arguments, or a brace group.
type node struct {
	kind     nodeKind
	text     string
	name     string
	opt      []node
	hasOpt   bool
	args     [][]node
	children []node
	line     int
}

// treeParser turns the balanced tokens of a logical line into nodes.
type treeParser struct {
	toks []lexer.Token
	pos  int
}

func parseTree(toks []lexer.Token) []node {
	p := &treeParser{toks: toks}
	return p.seq()
}

// seq parses nodes until a closing brace (left unconsumed) or the end of input.
func (p *treeParser) seq() []node {
	var out []node
	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		switch t.Type {
		case tokRBrace:
			return out
		case tokLBrace:
			out = append(out, node{kind: nodeGroup, children: p.group(), line: t.Pos.Line})
			continue
		case tokCommand:
			p.pos++
			out = append(out, p.command(t))
			continue
		case tokEscaped:
			out = append(out, textNode(t.Value[1:], t))
		case tokLineBreak, tokNewline:
			out = append(out, textNode(" ", t))
		case tokSymbol:
			out = append(out, textNode(symbolText(t.Value), t))
		default:
			out = append(out, textNode(t.Value, t))
		}
		p.pos++
	}
	return out
}

func textNode(s string, t lexer.Token) node { return node{kind: nodeText, text: s, line: t.Pos.Line} }

// group parses a brace group starting at the current '{' and returns its children.
func (p *treeParser) group() []node {
	p.pos++ // '{'
	children := p.seq()
	if p.at(tokRBrace) {
		p.pos++
	}
	return children
}

func (p *treeParser) at(tt lexer.TokenType) bool {
	return p.pos < len(p.toks) && p.toks[p.pos].Type == tt
}

// skipSpace advances over whitespace between a command and its arguments.
func (p *treeParser) skipSpace() {
	for p.pos < len(p.toks) && (isBlank(p.toks[p.pos]) || p.toks[p.pos].Type == tokNewline) {
		p.pos++
	}
}

// braceArg parses the next brace argument, skipping leading whitespace. When no
// group follows, the position is restored and ok is false.
func (p *treeParser) braceArg() ([]node, bool) {
	save := p.pos
	p.skipSpace()
	if !p.at(tokLBrace) {
		p.pos = save
		return nil, false
	}
	return p.group(), true
}

// optional parses an immediately following [..] argument. An opening bracket
// without a matching close is left alone and read as text.
func (p *treeParser) optional() ([]node, bool) {
	if !p.at(tokLBracket) {
		return nil, false
	}
	depth := 0
	for i := p.pos + 1; i < len(p.toks); i++ {
		switch p.toks[i].Type {
		case tokLBrace:
			depth++
		case tokRBrace:
			if depth == 0 {
				return nil, false
			}
			depth--
		case tokRBracket:
			if depth > 0 {
				continue
			}
			sub := &treeParser{toks: p.toks[p.pos+1 : i]}
			p.pos = i + 1
			return sub.seq(), true
		}
	}
	return nil, false
}

func (p *treeParser) command(t lexer.Token) node {
	name := commandName(t)
	n := node{kind: nodeCommand, name: name, line: t.Pos.Line}
	c, known := commands[name]

	switch {
	case !known:
		// arity unknown: take only groups glued to the command
		for p.at(tokLBrace) {
			n.args = append(n.args, p.group())
		}
	case c.role == roleDefine:
		p.definition(&n)
	default:
		if c.opt {
			n.opt, n.hasOpt = p.optional()
		}
		for i := 0; i < c.arity; i++ {
			arg, ok := p.braceArg()
			if !ok {
				break
			}
			n.args = append(n.args, arg)
		}
		if c.arity == 0 && p.at(tokLBrace) && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Type == tokRBrace {
			p.pos += 2 // \ldots{}
		}
	}
	return n
}

// definition reads \newcommand{\name}[n]{value}, \newcommand\name{value} and \def\name{value}.
func (p *treeParser) definition(n *node) {
	p.skipSpace()
	switch {
	case p.at(tokCommand):
		t := p.toks[p.pos]
		p.pos++
		n.args = append(n.args, []node{{kind: nodeCommand, name: commandName(t), line: t.Pos.Line}})
	case p.at(tokLBrace):
		n.args = append(n.args, p.group())
	default:
		return
	}
	n.opt, n.hasOpt = p.optional()
	if n.name == "def" {
		// \def\name#1{...} parameter text
		for p.at(tokText) && strings.HasPrefix(strings.TrimSpace(p.toks[p.pos].Value), "#") {
			n.hasOpt = true
			p.pos++
		}
	}
	if arg, ok := p.braceArg(); ok {
		n.args = append(n.args, arg)
	}
}

// symbolText maps control symbols. Spacing commands become a space; accents and
// hyphenation hints vanish.
func symbolText(v string) string {
	switch v {
	case `\ `, `\,`, `\;`, `\:`:
		return " "
	}
	return ""
}
