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
	"strconv"
)

// Pos is a source position. Lines and columns count from 1.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Position lets statements report where they came from.
func (p Pos) Position() Pos {
	return p
}

// ----------
// Statements
// ----------

// A Statement is one parsed source construct: a label, a directive or an
// instruction.
type Statement interface {
	Position() Pos
	statement()
}

type Label struct {
	Pos
	Name string
}

type Directive struct {
	Pos
	Name string // with the leading dot
	Args []Operand
}

type Instruction struct {
	Pos
	Mnemonic string // lower case
	Operands []Operand
}

func (Label) statement()       {}
func (Directive) statement()   {}
func (Instruction) statement() {}

// --------
// Operands
// --------

type Operand interface {
	String() string
	operand()
}

type Number struct {
	Value int64
}

// SymbolRef names a label, an external symbol or a .set constant,
// displaced by Addend.
type SymbolRef struct {
	Name   string
	Addend int64
}

type String struct {
	Text string
}

func (Number) operand()    {}
func (SymbolRef) operand() {}
func (String) operand()    {}

func (n Number) String() string {
	return strconv.FormatInt(n.Value, 10)
}

func (s SymbolRef) String() string {
	if s.Addend == 0 {
		return s.Name
	}
	return fmt.Sprintf("%s%+d", s.Name, s.Addend)
}

func (s String) String() string {
	return strconv.Quote(s.Text)
}
