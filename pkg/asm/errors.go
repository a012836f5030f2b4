/*
Copyright © 2022 Jeff Berkowitz (pdxjjb@gmail.com)

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package asm

import "fmt"

// ParseError reports source text that does not form a valid statement.
type ParseError struct {
	Pos    Pos
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %s", e.Pos, e.Reason)
}

type DuplicateSymbolError struct {
	Name     string
	Pos      Pos
	Previous Pos
}

func (e *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("%v: symbol %q already defined at %v", e.Pos, e.Name, e.Previous)
}

// ValueOutOfRangeError reports a literal that does not fit its field.
type ValueOutOfRangeError struct {
	Pos   Pos
	Bits  int
	Value int64
}

func (e *ValueOutOfRangeError) Error() string {
	return fmt.Sprintf("%v: value %d does not fit in %d bits", e.Pos, e.Value, e.Bits)
}

type DirectiveError struct {
	Pos       Pos
	Directive string
	Reason    string
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("%v: %s: %s", e.Pos, e.Directive, e.Reason)
}
