/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lilscript/internal/script"
	"lilscript/internal/tex"
)

func TestAnalyze_DirectionExclusion(t *testing.T) {
	s := script.New(script.Header{}, []script.Block{
		script.Direction{Type: script.DirectionStage, Text: "door creaks"},
		script.SpokenLine{Text: "hello there"},
	})
	st := Analyze(s)
	require.Equal(t, 2, st.SpokenWords)
	require.Equal(t, 4, st.TotalWords)
	require.Equal(t, 2, st.UnspokenWords())
	require.InDelta(t, 0.5, st.Density, 1e-9)
}

func TestAnalyze_InlineCuesAreUnspoken(t *testing.T) {
	s, err := tex.Parse(`\spoken{Hello there. \direct{very softly} Come closer.}` + "\n\\section{Ignored label}")
	require.NoError(t, err)
	st := Analyze(s)
	require.Equal(t, 4, st.SpokenWords)
	require.Equal(t, 6, st.TotalWords)
}

func TestAnalyze_Empty(t *testing.T) {
	st := Analyze(script.New(script.Header{}, []script.Block{script.SectionBreak{Label: "Only a heading"}}))
	require.Equal(t, Stats{}, st)
	require.Zero(t, st.Density)
	require.Equal(t, "0 spoken + 0 unspoken -> 0 total (ρ = ———%)", st.String())
}

func TestAnalyze_DensityBounds(t *testing.T) {
	docs := []string{
		"",
		"% nothing\n",
		"A: one two three",
		"\\stagedir{only directions here}",
		"[a] \n\\sfx{b c}\nA: d ... -- !!",
		"\\spoken{\\direct{x y z}}",
	}
	for _, doc := range docs {
		s, err := tex.Parse(doc)
		require.NoError(t, err, doc)
		st := Analyze(s)
		require.GreaterOrEqual(t, st.Density, 0.0, doc)
		require.LessOrEqual(t, st.Density, 1.0, doc)
		require.Equal(t, st.TotalWords == 0, st.Density == 0, doc)
	}
}

func TestCountWords(t *testing.T) {
	cases := map[string]int{
		"":                         0,
		"   ":                      0,
		"hello there":              2,
		"wait ... -- !!":           1,
		"don't stop-me now":        3,
		"42 is the answer":         4,
		"こんにちは 世界":                2,
		"\tleading\nand trailing ": 3,
	}
	for in, want := range cases {
		require.Equal(t, want, CountWords(in), in)
	}
}

func TestStats_FormatAndAdd(t *testing.T) {
	st := Stats{SpokenWords: 1234, TotalWords: 1290, Density: 1234.0 / 1290.0}
	require.Equal(t, "1,234 spoken + 56 unspoken -> 1,290 total (ρ = 95.66%)", st.Format(2))
	require.Equal(t, "1,234 spoken + 56 unspoken -> 1,290 total (ρ = 96%)", st.Format(0))

	sum := Stats{SpokenWords: 1, TotalWords: 4}.Add(Stats{SpokenWords: 3, TotalWords: 4})
	require.Equal(t, 4, sum.SpokenWords)
	require.Equal(t, 8, sum.TotalWords)
	require.InDelta(t, 0.5, sum.Density, 1e-9)
}
