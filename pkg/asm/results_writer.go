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

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/samber/lo"

	"github.com/monistode/cli/pkg/obj"
)

const BYTES_PER_LINE = 16

// WriteListing writes the symbol table, the relocations and a hex dump
// of every section of o.
func WriteListing(w io.Writer, o *obj.ObjectFile) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "target %s\n", o.Target)
	writeSymbols(bw, o)

	if rel := o.Relocations(); len(rel) != 0 {
		fmt.Fprintf(bw, "\n%-24s %-6s %s\n", "SITE", "KIND", "SYMBOL")
		for _, r := range rel {
			site := fmt.Sprintf("%s+0x%04X", r.Section, r.Offset)
			sym := SymbolRef{Name: r.Symbol, Addend: int64(r.Addend)}
			fmt.Fprintf(bw, "%-24s %-6v %v\n", site, r.Kind, sym)
		}
	}

	for _, s := range o.Sections() {
		fmt.Fprintln(bw)
		label := fmt.Sprintf("Section %s (%v, align %d, %d bytes)", s.Name, s.Kind, s.Align, s.Len())
		dumpBytes(bw, label, 0, s.Data)
	}

	return bw.Flush()
}

func writeSymbols(w io.Writer, o *obj.ObjectFile) {
	syms := append([]*obj.Symbol(nil), o.Symbols()...)
	sort.SliceStable(syms, func(i, j int) bool { return syms[i].Name < syms[j].Name })

	fmt.Fprintf(w, "\n%-16s %-6s %s\n", "SYMBOL", "BIND", "VALUE")
	for _, s := range syms {
		val := "undefined"
		if s.Defined {
			val = fmt.Sprintf("%s+0x%04X", s.Section, s.Offset)
		}
		fmt.Fprintf(w, "%-16s %-6v %s\n", s.Name, s.Visibility, val)
	}

	if undef := lo.Filter(syms, func(s *obj.Symbol, _ int) bool { return !s.Defined }); len(undef) != 0 {
		fmt.Fprintf(w, "%d undefined\n", len(undef))
	}
}

// WriteImage writes a hex dump of a linked executable.
func WriteImage(w io.Writer, e *obj.Executable) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "target %s base 0x%04X entry 0x%04X end 0x%04X\n\n", e.Target, e.Base, e.Entry, e.End())
	dumpBytes(bw, "Image", e.Base, e.Image)

	return bw.Flush()
}

// dumpBytes prints rows of BYTES_PER_LINE bytes. Rows that are all zero
// are skipped.
func dumpBytes(w io.Writer, label string, base uint32, bytes []byte) {
	fmt.Fprintf(w, "%s\nADDR   DATA\n", label)
	for m := 0; m < len(bytes); m += BYTES_PER_LINE {
		row := bytes[m:min(m+BYTES_PER_LINE, len(bytes))]
		if !lo.SomeBy(row, func(b byte) bool { return b != 0 }) {
			continue
		}
		fmt.Fprintf(w, "0x%04X", base+uint32(m))
		for _, b := range row {
			fmt.Fprintf(w, " %02X", b)
		}
		fmt.Fprintln(w)
	}
}
