/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package analysis derives word counts and speech density from a parsed script.
package analysis

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"lilscript/internal/script"
)

// Stats are the word statistics of one script (or the sum of several).
// Density is SpokenWords/TotalWords, and 0 when TotalWords is 0.
type Stats struct {
	SpokenWords int     `json:"spoken_words"`
	TotalWords  int     `json:"total_words"`
	Density     float64 `json:"density"`
}

// Analyze counts the words of s. Spoken words come from spoken line text only;
// the total adds inline cues and direction text. Section labels are not counted.
func Analyze(s *script.Script) Stats {
	var spoken, total int
	for _, b := range s.Blocks() {
		switch v := b.(type) {
		case script.SpokenLine:
			n := CountWords(v.Text)
			spoken += n
			total += n
			for _, cue := range v.Cues() {
				total += CountWords(cue)
			}
		case script.Direction:
			total += CountWords(v.Text)
		}
	}
	return newStats(spoken, total)
}

func newStats(spoken, total int) Stats {
	st := Stats{SpokenWords: spoken, TotalWords: total}
	if total > 0 {
		st.Density = float64(spoken) / float64(total)
	}
	return st
}

// CountWords counts whitespace-separated tokens that contain at least one letter
// or digit. Pure punctuation such as "--" or "..." is not a word.
func CountWords(text string) int {
	n := 0
	for _, tok := range strings.Fields(text) {
		if strings.IndexFunc(tok, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) >= 0 {
			n++
		}
	}
	return n
}

// UnspokenWords is the number of counted words that are not read aloud.
func (s Stats) UnspokenWords() int { return s.TotalWords - s.SpokenWords }

// Add sums two results, recomputing the density.
func (s Stats) Add(o Stats) Stats {
	return newStats(s.SpokenWords+o.SpokenWords, s.TotalWords+o.TotalWords)
}

// Format renders the stats for people, with English digit grouping and the
// density as a percentage with the given number of decimals:
//
//	1,234 spoken + 56 unspoken -> 1,290 total (ρ = 95.66%)
func (s Stats) Format(precision int) string {
	if precision < 0 {
		precision = 0
	}
	density := "———%"
	if s.TotalWords > 0 {
		density = fmt.Sprintf("%.*f%%", precision, 100*s.Density)
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d spoken + %d unspoken -> %d total (ρ = %s)",
		s.SpokenWords, s.UnspokenWords(), s.TotalWords, density)
}

func (s Stats) String() string { return s.Format(2) }
