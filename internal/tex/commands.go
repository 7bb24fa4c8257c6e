/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package tex

import "lilscript/internal/script"

// role says what a command means to the script model.
type role int

const (
	roleUnknown role = iota
	roleSpoken
	roleDirection
	roleSection
	roleBreak
	roleHeader
	roleDefine
	roleNoise
	roleEmphasis
	roleCue
	roleMacro
	roleLink
	roleURL
)

// command describes one entry of the recognised vocabulary.
type command struct {
	role  role
	arity int  // brace arguments consumed
	opt   bool // accepts an optional [..] argument
	dir   script.DirectionType
	text  string // replacement for roleMacro
}

// commands is the vocabulary observed in the script corpus. Everything else is
// roleUnknown: its markup is stripped and any argument text is kept.
var commands = map[string]command{
	// content containers
	"spoken":   {role: roleSpoken, arity: 1, opt: true},
	"stagedir": {role: roleDirection, arity: 1, dir: script.DirectionStage},
	"sfx":      {role: roleDirection, arity: 1, dir: script.DirectionSFX},
	"listener": {role: roleDirection, arity: 1, dir: script.DirectionListener},
	"direct":   {role: roleCue, arity: 1, dir: script.DirectionCue},

	// structure
	"part":           {role: roleSection, arity: 1, opt: true},
	"part*":          {role: roleSection, arity: 1},
	"chapter":        {role: roleSection, arity: 1, opt: true},
	"chapter*":       {role: roleSection, arity: 1},
	"section":        {role: roleSection, arity: 1, opt: true},
	"section*":       {role: roleSection, arity: 1},
	"subsection":     {role: roleSection, arity: 1, opt: true},
	"subsection*":    {role: roleSection, arity: 1},
	"subsubsection":  {role: roleSection, arity: 1, opt: true},
	"subsubsection*": {role: roleSection, arity: 1},
	"scenebreak":     {role: roleBreak},

	// header fields
	"title":           {role: roleHeader, arity: 1},
	"scriptTitle":     {role: roleHeader, arity: 1},
	"author":          {role: roleHeader, arity: 1},
	"scriptAuthor":    {role: roleHeader, arity: 1},
	"scriptPerformer": {role: roleHeader, arity: 1},
	"scriptSeries":    {role: roleHeader, arity: 1},
	"scriptTags":      {role: roleHeader, arity: 1},
	"summary":         {role: roleHeader, arity: 1},
	"date":            {role: roleHeader, arity: 1},
	"scriptDate":      {role: roleHeader, arity: 1},
	"character":       {role: roleHeader, arity: 2},

	// fill-in variables
	"newcommand":     {role: roleDefine, arity: 2, opt: true},
	"renewcommand":   {role: roleDefine, arity: 2, opt: true},
	"providecommand": {role: roleDefine, arity: 2, opt: true},
	"def":            {role: roleDefine, arity: 2},

	// layout and preamble noise: dropped together with their arguments
	"documentclass":   {role: roleNoise, arity: 1, opt: true},
	"usepackage":      {role: roleNoise, arity: 1, opt: true},
	"begin":           {role: roleNoise, arity: 1},
	"end":             {role: roleNoise, arity: 1},
	"input":           {role: roleNoise, arity: 1},
	"include":         {role: roleNoise, arity: 1},
	"label":           {role: roleNoise, arity: 1},
	"pagestyle":       {role: roleNoise, arity: 1},
	"thispagestyle":   {role: roleNoise, arity: 1},
	"vspace":          {role: roleNoise, arity: 1},
	"vspace*":         {role: roleNoise, arity: 1},
	"hspace":          {role: roleNoise, arity: 1},
	"hspace*":         {role: roleNoise, arity: 1},
	"setlength":       {role: roleNoise, arity: 2},
	"geometry":        {role: roleNoise, arity: 1},
	"maketitle":       {role: roleNoise},
	"tableofcontents": {role: roleNoise},
	"clearpage":       {role: roleNoise},
	"newpage":         {role: roleNoise},
	"pagebreak":       {role: roleNoise},
	"noindent":        {role: roleNoise},
	"centering":       {role: roleNoise},
	"par":             {role: roleNoise},
	"bigskip":         {role: roleNoise},
	"medskip":         {role: roleNoise},
	"smallskip":       {role: roleNoise},

	// inline formatting
	"ul":        {role: roleEmphasis, arity: 1},
	"emph":      {role: roleEmphasis, arity: 1},
	"textit":    {role: roleEmphasis, arity: 1},
	"textbf":    {role: roleEmphasis, arity: 1},
	"textsc":    {role: roleEmphasis, arity: 1},
	"underline": {role: roleEmphasis, arity: 1},

	// text macros
	"ldots":          {role: roleMacro, text: "..."},
	"dots":           {role: roleMacro, text: "..."},
	"textellipsis":   {role: roleMacro, text: "..."},
	"kaosmile":       {role: roleMacro, text: "^_^"},
	"Tilde":          {role: roleMacro, text: "∼"},
	"textasciitilde": {role: roleMacro, text: "~"},
	"textemdash":     {role: roleMacro, text: "—"},
	"textendash":     {role: roleMacro, text: "–"},
	"LaTeX":          {role: roleMacro, text: "LaTeX"},
	"TeX":            {role: roleMacro, text: "TeX"},
	"today":          {role: roleMacro},

	"href": {role: roleLink, arity: 2},
	"url":  {role: roleURL, arity: 1},
}

func lookup(name string) command { return commands[name] }

// structural reports whether a command at the start of a line owns the line's
// block boundaries, so an open brace group after it may span several lines.
func structural(name string) bool {
	switch lookup(name).role {
	case roleSpoken, roleDirection, roleCue, roleSection, roleHeader, roleDefine:
		return true
	}
	return false
}
