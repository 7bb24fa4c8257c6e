/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package convert

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a document format known to the converter.
type Format int

const (
	FormatUnknown Format = iota
	FormatTex
	FormatMarkdown
	FormatPDF
)

// ErrUnknownFormat is returned when a path or name maps to no Format.
var ErrUnknownFormat = errors.New("unknown format")

func (f Format) String() string {
	switch f {
	case FormatTex:
		return "tex"
	case FormatMarkdown:
		return "md"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// Ext returns the canonical file extension including the dot.
func (f Format) Ext() string {
	if f == FormatUnknown {
		return ""
	}
	return "." + f.String()
}

// ParseFormat maps a format name ("tex", "latex", "md", "markdown", "pdf") to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tex", "latex":
		return FormatTex, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "pdf":
		return FormatPDF, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatFromPath detects the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" || strings.EqualFold(ext, "latex") {
		return FormatUnknown, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return FormatUnknown, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	return f, nil
}
