/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against *ParseError.
var (
	ErrUnbalancedGroup      = errors.New("unbalanced group")
	ErrUnsupportedDirection = errors.New("unsupported conversion direction")
)

// ErrorKind identifies why a conversion failed.
type ErrorKind int

const (
	// UnbalancedGroup: a brace group is never closed and block boundaries cannot be determined.
	UnbalancedGroup ErrorKind = iota + 1
	// UnsupportedDirection: the requested source/target pair is not implemented.
	UnsupportedDirection
)

// ParseError represents a fatal conversion error with position context.
// Line and Column are 1-based and zero when not applicable.
type ParseError struct {
	Kind       ErrorKind
	Line       int
	Column     int
	Conversion string // e.g. "md -> tex", set for UnsupportedDirection
	Message    string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case UnbalancedGroup:
		msg := fmt.Sprintf("line %d: unbalanced group", e.Line)
		if e.Column > 0 {
			msg = fmt.Sprintf("line %d, column %d: unbalanced group", e.Line, e.Column)
		}
		if e.Message != "" {
			msg += ": " + e.Message
		}
		return msg
	case UnsupportedDirection:
		return fmt.Sprintf("unsupported conversion %s", e.Conversion)
	default:
		return e.Message
	}
}

// Is lets errors.Is match the package sentinels by kind.
func (e *ParseError) Is(target error) bool {
	switch target {
	case ErrUnbalancedGroup:
		return e.Kind == UnbalancedGroup
	case ErrUnsupportedDirection:
		return e.Kind == UnsupportedDirection
	}
	return false
}
