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
	"fmt"

	"tlog.app/go/errors"

	"github.com/monistode/cli/pkg/obj"
	"github.com/monistode/cli/pkg/target"
)

// constant evaluates an operand whose value must be known now: a number
// or a constant set earlier, plus its addend. There are no forwards.
func (as *assembler) constant(pos Pos, op Operand) (int64, error) {
	switch op := op.(type) {
	case Number:
		return op.Value, nil
	case SymbolRef:
		val, ok := as.consts[op.Name]
		if !ok {
			return 0, &ParseError{pos, fmt.Sprintf("%s: constant expected (labels and forward references are not allowed here)", op.Name)}
		}
		return val + op.Addend, nil
	}
	return 0, &ParseError{pos, fmt.Sprintf("%v: number expected", op)}
}

// emitField appends one operand encoded as field f to the current
// section. Numbers and constants are range checked and stored now. Any
// other symbol leaves zero bytes behind and a relocation for the linker,
// even when the label is defined earlier in the same file.
func (as *assembler) emitField(pos Pos, op Operand, f target.FieldKind) error {
	s := as.section()

	switch op := op.(type) {
	case Number:
		return as.putNumber(pos, s, op.Value, f)
	case SymbolRef:
		if val, ok := as.consts[op.Name]; ok {
			return as.putNumber(pos, s, val+op.Addend, f)
		}
		site := s.Len()
		s.Data = append(s.Data, make([]byte, f.Width())...)
		err := as.o.AddRelocation(obj.Relocation{
			Section: s.Name,
			Offset:  site,
			Symbol:  op.Name,
			Kind:    f.Patch(),
			Addend:  int32(op.Addend),
		})
		if err != nil {
			return err
		}
		return as.checkSize(pos, s)
	}
	return &ParseError{pos, fmt.Sprintf("%v: %v operand not allowed here", op, f)}
}

func (as *assembler) putNumber(pos Pos, s *obj.Section, val int64, f target.FieldKind) error {
	min, max := f.Range()
	if val < min || val > max {
		return &ValueOutOfRangeError{Pos: pos, Bits: f.Bits(), Value: val}
	}
	buf := make([]byte, f.Width())
	f.Patch().Put(buf, val)
	s.Data = append(s.Data, buf...)
	return as.checkSize(pos, s)
}

// raiseAlign validates an alignment and raises the section's to it.
func (as *assembler) raiseAlign(d *Directive, s *obj.Section, align int64) error {
	if align <= 0 || align&(align-1) != 0 || align > as.limit {
		return &DirectiveError{d.Pos, d.Name, fmt.Sprintf("alignment %d is not a power of two", align)}
	}
	if uint32(align) > s.Align {
		s.Align = uint32(align)
	}
	return nil
}

// checkSize keeps a section from outgrowing the address space.
func (as *assembler) checkSize(pos Pos, s *obj.Section) error {
	if int64(s.Len()) > as.limit {
		return errors.New("%v: section %s exceeds the %d byte address space", pos, s.Name, as.limit)
	}
	return nil
}
