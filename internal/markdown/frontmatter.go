/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package markdown

import (
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"lilscript/internal/script"
)

type fmSeries struct {
	Title string `yaml:"title,omitempty"`
	Part  int    `yaml:"part,omitempty"`
}

type fmCharacter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// header is the YAML shape of script.Header. Absent fields are omitted.
type header struct {
	Title      string            `yaml:"title,omitempty"`
	Author     string            `yaml:"author,omitempty"`
	Performer  string            `yaml:"performer,omitempty"`
	Series     *fmSeries         `yaml:"series,omitempty"`
	Tags       []string          `yaml:"tags,omitempty"`
	Date       string            `yaml:"date,omitempty"`
	Summary    string            `yaml:"summary,omitempty"`
	Characters []fmCharacter     `yaml:"characters,omitempty"`
	Variables  map[string]string `yaml:"variables,omitempty"`
}

// frontMatter renders h as a YAML front matter block, or "" when h is empty.
func frontMatter(h script.Header, l *slog.Logger) string {
	if h.IsZero() {
		return ""
	}
	fm := header{
		Title:     h.Title,
		Author:    h.Author,
		Performer: h.Performer,
		Tags:      h.Tags,
		Summary:   h.Summary,
		Variables: h.Variables,
	}
	if !h.Series.IsZero() {
		fm.Series = &fmSeries{Title: h.Series.Title, Part: h.Series.Part}
	}
	if !h.Date.IsZero() {
		fm.Date = h.Date.Format("2006-01-02")
	}
	for _, c := range h.Characters {
		fm.Characters = append(fm.Characters, fmCharacter{Name: c.Name, Description: c.Description})
	}

	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		l.Warn("front matter skipped", slog.Any("err", err))
		return ""
	}
	_ = enc.Close()
	return "---\n" + b.String() + "---"
}
