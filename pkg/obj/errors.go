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

package obj

import "fmt"

// Decode errors

type TruncatedError struct {
	Offset int // where the short read started
	Need   int
	Have   int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated input at offset %d: need %d bytes, have %d", e.Offset, e.Need, e.Have)
}

type MalformedHeaderError struct {
	Reason string
}

func (e *MalformedHeaderError) Error() string {
	return "malformed header: " + e.Reason
}

type InvalidFieldValueError struct {
	Field string
	Value any
}

func (e *InvalidFieldValueError) Error() string {
	return fmt.Sprintf("invalid value for %s: %v", e.Field, e.Value)
}

// Merge errors

type DuplicateDefinitionError struct {
	Name string
}

func (e *DuplicateDefinitionError) Error() string {
	return fmt.Sprintf("duplicate definition of symbol %q", e.Name)
}

type TargetMismatchError struct {
	Have, Other string
}

func (e *TargetMismatchError) Error() string {
	return fmt.Sprintf("cannot merge %q object into %q object", e.Other, e.Have)
}

type SectionKindMismatchError struct {
	Section     string
	Have, Other SectionKind
}

func (e *SectionKindMismatchError) Error() string {
	return fmt.Sprintf("section %q: kind %v conflicts with %v", e.Section, e.Other, e.Have)
}
