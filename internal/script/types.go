/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script holds the format-independent representation of a role-play script.
// A Script is produced once by a source parser (see internal/tex) and then only read
// by exporters and the analyzer.
package script

import (
	"maps"
	"slices"
	"time"
)

// Script is a parsed script: header metadata plus an ordered list of blocks.
// The zero value is an empty script. Construct populated scripts with New.
type Script struct {
	header Header
	blocks []Block
}

// New builds an immutable Script. The header and block slice are copied, so later
// changes by the caller do not leak into the script.
func New(h Header, blocks []Block) *Script {
	return &Script{header: h.clone(), blocks: slices.Clone(blocks)}
}

// Header returns a copy of the header metadata.
func (s *Script) Header() Header {
	if s == nil {
		return Header{}
	}
	return s.header.clone()
}

// Blocks returns a copy of the block sequence in source order.
func (s *Script) Blocks() []Block {
	if s == nil {
		return nil
	}
	return slices.Clone(s.blocks)
}

// Len returns the number of blocks.
func (s *Script) Len() int {
	if s == nil {
		return 0
	}
	return len(s.blocks)
}

// Header is best-effort metadata. Every field is optional; an empty string, a nil
// slice or a zero time means "absent".
type Header struct {
	Title      string
	Author     string
	Performer  string
	Series     Series
	Tags       []string
	Date       time.Time
	Summary    string
	Characters []Character
	// Variables are fill-in values defined by the document (\newcommand and friends),
	// keyed by macro name without the backslash.
	Variables map[string]string
}

// IsZero reports whether no header field is set.
func (h Header) IsZero() bool {
	return h.Title == "" && h.Author == "" && h.Performer == "" && h.Series.IsZero() &&
		len(h.Tags) == 0 && h.Date.IsZero() && h.Summary == "" && len(h.Characters) == 0 &&
		len(h.Variables) == 0
}

func (h Header) clone() Header {
	h.Tags = slices.Clone(h.Tags)
	h.Characters = slices.Clone(h.Characters)
	if h.Variables != nil {
		h.Variables = maps.Clone(h.Variables)
	}
	return h
}

// Series identifies the series a script belongs to and its part index.
type Series struct {
	Title string
	Part  int
}

func (s Series) IsZero() bool { return s.Title == "" && s.Part == 0 }

// Character is a cast entry from the script header.
type Character struct {
	Name        string
	Description string
}

// BlockKind tags the Block variants.
type BlockKind int

const (
	KindSpoken BlockKind = iota + 1
	KindDirection
	KindSection
)

func (k BlockKind) String() string {
	switch k {
	case KindSpoken:
		return "spoken"
	case KindDirection:
		return "direction"
	case KindSection:
		return "section"
	default:
		return "unknown"
	}
}

// Block is one unit of script content. It is implemented only by SpokenLine,
// Direction and SectionBreak; switch on the concrete type to handle all cases.
type Block interface {
	Kind() BlockKind
	// SourceLine is the 1-based line in the source where the block starts (0 if unknown).
	SourceLine() int
	block()
}

// SpanKind classifies inline text inside a spoken line.
type SpanKind int

const (
	SpanPlain SpanKind = iota
	SpanEmphasis
	// SpanCue is an inline delivery cue, e.g. "(whispering)". Not spoken.
	SpanCue
)

// Span is a run of inline text of one kind.
type Span struct {
	Kind SpanKind
	Text string
}

// SpokenLine is a line of dialogue intended to be read aloud.
// Text holds only the spoken words and is never empty. Spans keeps the inline
// structure including cues; when nil the line is a single plain span equal to Text.
type SpokenLine struct {
	Speaker string
	Text    string
	Spans   []Span
	Line    int
}

func (SpokenLine) Kind() BlockKind { return KindSpoken }
func (l SpokenLine) SourceLine() int { return l.Line }
func (SpokenLine) block() {}

// Cues returns the inline cue texts of the line, in order.
func (l SpokenLine) Cues() []string {
	var out []string
	for _, sp := range l.Spans {
		if sp.Kind == SpanCue {
			out = append(out, sp.Text)
		}
	}
	return out
}

// DirectionType distinguishes the flavours of non-spoken annotation.
type DirectionType int

const (
	DirectionStage DirectionType = iota
	DirectionSFX
	// DirectionListener is example listener dialogue; it is not voiced.
	DirectionListener
	DirectionCue
)

func (k DirectionType) String() string {
	switch k {
	case DirectionSFX:
		return "sfx"
	case DirectionListener:
		return "listener"
	case DirectionCue:
		return "cue"
	default:
		return "stage"
	}
}

// Direction is a stage direction, sound cue or other annotation that is not read aloud.
type Direction struct {
	Type DirectionType
	Text string
	Line int
}

func (Direction) Kind() BlockKind { return KindDirection }
func (d Direction) SourceLine() int { return d.Line }
func (Direction) block() {}

// SectionBreak is a structural divider. An empty Label means an unlabeled break.
type SectionBreak struct {
	Label string
	Line  int
}

func (SectionBreak) Kind() BlockKind { return KindSection }
func (b SectionBreak) SourceLine() int { return b.Line }
func (SectionBreak) block() {}
