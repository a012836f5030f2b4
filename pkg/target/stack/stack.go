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

// Package stack is the monistode stack machine dialect: a 16-bit
// accumulator-free machine whose instructions pop their operands from a
// data stack. Importing the package registers the dialect as "stack".
package stack

import (
	"strings"

	"github.com/monistode/cli/pkg/obj"
	"github.com/monistode/cli/pkg/target"
)

const (
	Name = "stack"

	Base = 0x0100

	TextSection = "text"
	DataSection = "data"
)

// Opcodes. The simulator decodes the same values.
const (
	OpHalt  byte = 0x00
	OpNop   byte = 0x01
	OpPush  byte = 0x02
	OpPushB byte = 0x03
	OpPop   byte = 0x04
	OpDup   byte = 0x05
	OpSwap  byte = 0x06
	OpOver  byte = 0x07

	OpAdd byte = 0x10
	OpSub byte = 0x11
	OpMul byte = 0x12
	OpDiv byte = 0x13
	OpMod byte = 0x14
	OpAnd byte = 0x15
	OpOr  byte = 0x16
	OpXor byte = 0x17
	OpNot byte = 0x18
	OpNeg byte = 0x19
	OpShl byte = 0x1A
	OpShr byte = 0x1B
	OpEq  byte = 0x1C
	OpLt  byte = 0x1D
	OpGt  byte = 0x1E

	OpLoad   byte = 0x20
	OpStore  byte = 0x21
	OpLoadI  byte = 0x22
	OpStoreI byte = 0x23

	OpJmp  byte = 0x30
	OpJz   byte = 0x31
	OpJnz  byte = 0x32
	OpCall byte = 0x33
	OpRet  byte = 0x34
	OpBr   byte = 0x38
	OpBrz  byte = 0x39
	OpBrnz byte = 0x3A

	OpIn  byte = 0x40
	OpOut byte = 0x41
)

var (
	imm8  = []target.FieldKind{target.FieldImm8}
	imm16 = []target.FieldKind{target.FieldImm16}
	rel8  = []target.FieldKind{target.FieldRel8}
)

var table = []target.Instruction{
	{Mnemonic: "halt", Opcode: OpHalt, Operands: nil},
	{Mnemonic: "nop", Opcode: OpNop, Operands: nil},
	{Mnemonic: "push", Opcode: OpPush, Operands: imm16},
	{Mnemonic: "pushb", Opcode: OpPushB, Operands: imm8},
	{Mnemonic: "pop", Opcode: OpPop, Operands: nil},
	{Mnemonic: "dup", Opcode: OpDup, Operands: nil},
	{Mnemonic: "swap", Opcode: OpSwap, Operands: nil},
	{Mnemonic: "over", Opcode: OpOver, Operands: nil},

	{Mnemonic: "add", Opcode: OpAdd, Operands: nil},
	{Mnemonic: "sub", Opcode: OpSub, Operands: nil},
	{Mnemonic: "mul", Opcode: OpMul, Operands: nil},
	{Mnemonic: "div", Opcode: OpDiv, Operands: nil},
	{Mnemonic: "mod", Opcode: OpMod, Operands: nil},
	{Mnemonic: "and", Opcode: OpAnd, Operands: nil},
	{Mnemonic: "or", Opcode: OpOr, Operands: nil},
	{Mnemonic: "xor", Opcode: OpXor, Operands: nil},
	{Mnemonic: "not", Opcode: OpNot, Operands: nil},
	{Mnemonic: "neg", Opcode: OpNeg, Operands: nil},
	{Mnemonic: "shl", Opcode: OpShl, Operands: nil},
	{Mnemonic: "shr", Opcode: OpShr, Operands: nil},
	{Mnemonic: "eq", Opcode: OpEq, Operands: nil},
	{Mnemonic: "lt", Opcode: OpLt, Operands: nil},
	{Mnemonic: "gt", Opcode: OpGt, Operands: nil},

	{Mnemonic: "load", Opcode: OpLoad, Operands: imm16},
	{Mnemonic: "store", Opcode: OpStore, Operands: imm16},
	{Mnemonic: "loadi", Opcode: OpLoadI, Operands: nil},
	{Mnemonic: "storei", Opcode: OpStoreI, Operands: nil},

	{Mnemonic: "jmp", Opcode: OpJmp, Operands: imm16},
	{Mnemonic: "jz", Opcode: OpJz, Operands: imm16},
	{Mnemonic: "jnz", Opcode: OpJnz, Operands: imm16},
	{Mnemonic: "call", Opcode: OpCall, Operands: imm16},
	{Mnemonic: "ret", Opcode: OpRet, Operands: nil},
	{Mnemonic: "br", Opcode: OpBr, Operands: rel8},
	{Mnemonic: "brz", Opcode: OpBrz, Operands: rel8},
	{Mnemonic: "brnz", Opcode: OpBrnz, Operands: rel8},

	{Mnemonic: "in", Opcode: OpIn, Operands: imm8},
	{Mnemonic: "out", Opcode: OpOut, Operands: imm8},
}

type Stack struct {
	byMnemonic map[string]target.Instruction
	byOpcode   map[byte]target.Instruction
}

func New() *Stack {
	s := &Stack{
		byMnemonic: make(map[string]target.Instruction, len(table)),
		byOpcode:   make(map[byte]target.Instruction, len(table)),
	}
	for _, in := range table {
		s.byMnemonic[in.Mnemonic] = in
		s.byOpcode[in.Opcode] = in
	}
	return s
}

func init() {
	target.Register(New())
}

func (s *Stack) Name() string { return Name }

func (s *Stack) Instruction(mnemonic string) (target.Instruction, bool) {
	in, ok := s.byMnemonic[strings.ToLower(mnemonic)]
	return in, ok
}

// Decode looks an instruction up by opcode, for disassembly and simulation.
func (s *Stack) Decode(op byte) (target.Instruction, bool) {
	in, ok := s.byOpcode[op]
	return in, ok
}

func (s *Stack) DefaultSection() string { return TextSection }

func (s *Stack) SectionDefaults(name string) (obj.SectionKind, uint32, bool) {
	switch name {
	case TextSection:
		return obj.KindCode, 1, true
	case DataSection:
		return obj.KindData, 2, true
	}
	return 0, 0, false
}

func (s *Stack) LayoutRank(kind obj.SectionKind) int {
	if kind == obj.KindCode {
		return 0
	}
	return 1
}

func (s *Stack) BaseAddress() uint32 { return Base }

func (s *Stack) AddressBits() int { return 16 }

func (s *Stack) EntrySymbols() []string {
	return []string{"_start", "start", "main"}
}
