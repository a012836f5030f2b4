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

package link

import (
	"fmt"
	"strings"

	"github.com/monistode/cli/pkg/obj"
)

// UndefinedSymbolsError lists every symbol that is referenced but not
// defined, each once, in the order first seen.
type UndefinedSymbolsError struct {
	Names []string
}

func (e *UndefinedSymbolsError) Error() string {
	return fmt.Sprintf("undefined symbol(s): %s", strings.Join(e.Names, ", "))
}

type RelocationOverflowError struct {
	Symbol  string
	Section string
	Offset  uint32
	Value   int64
	Kind    obj.PatchKind
}

func (e *RelocationOverflowError) Error() string {
	min, max := e.Kind.Range()
	return fmt.Sprintf("%s+0x%04X: %s value %d for %s out of range [%d, %d]",
		e.Section, e.Offset, e.Kind, e.Value, e.Symbol, min, max)
}

type NoEntryPointError struct {
	Candidates []string
}

func (e *NoEntryPointError) Error() string {
	return fmt.Sprintf("no entry point: none of %s is defined", strings.Join(e.Candidates, ", "))
}

// ImageTooLargeError reports a layout that runs past the end of the
// target's address space.
type ImageTooLargeError struct {
	End   uint64
	Limit uint64
}

func (e *ImageTooLargeError) Error() string {
	return fmt.Sprintf("image ends at 0x%X, past the 0x%X byte address space", e.End, e.Limit)
}
