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

// Package target describes the machine dialects the toolchain can
// assemble and link for. A dialect supplies the instruction table, the
// predefined sections, and the memory layout rules.
package target

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/monistode/cli/pkg/obj"
)

// FieldKind is the encoding of one instruction operand.
type FieldKind int

const (
	FieldImm8 FieldKind = iota
	FieldImm16
	FieldRel8
)

var fieldToString = []string{
	"imm8",
	"imm16",
	"rel8",
}

func (f FieldKind) String() string {
	if int(f) < len(fieldToString) {
		return fieldToString[f]
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Width is the number of bytes the field occupies after the opcode.
func (f FieldKind) Width() int {
	return f.Patch().Width()
}

// Patch is the relocation kind used when the operand names a symbol.
func (f FieldKind) Patch() obj.PatchKind {
	switch f {
	case FieldImm8:
		return obj.PatchAbs8
	case FieldRel8:
		return obj.PatchRel8
	}
	return obj.PatchAbs16
}

// Range is the inclusive range of literal numbers the field accepts.
// Immediates accept both the signed and the unsigned interpretation.
func (f FieldKind) Range() (min, max int64) {
	switch f {
	case FieldImm8:
		return math.MinInt8, math.MaxUint8
	case FieldImm16:
		return math.MinInt16, math.MaxUint16
	case FieldRel8:
		return math.MinInt8, math.MaxInt8
	}
	return 0, -1
}

// Bits is the field width in bits, for error messages.
func (f FieldKind) Bits() int {
	return 8 * f.Width()
}

// Instruction is one entry of a dialect's instruction table.
type Instruction struct {
	Mnemonic string
	Opcode   byte
	Operands []FieldKind
}

// Size is the encoded length in bytes.
func (in Instruction) Size() int {
	n := 1
	for _, f := range in.Operands {
		n += f.Width()
	}
	return n
}

type Target interface {
	Name() string

	// Instruction looks up a mnemonic. Mnemonics are lower case.
	Instruction(mnemonic string) (Instruction, bool)

	// DefaultSection is where code goes before any section directive.
	DefaultSection() string

	// SectionDefaults reports the kind and alignment of a predefined
	// section.
	SectionDefaults(name string) (kind obj.SectionKind, align uint32, ok bool)

	// LayoutRank orders sections in the image; lower ranks come first.
	LayoutRank(kind obj.SectionKind) int

	BaseAddress() uint32
	AddressBits() int

	// EntrySymbols are tried in order; the first defined one is the entry.
	EntrySymbols() []string
}

type UnsupportedTargetError struct {
	Name string
}

func (e *UnsupportedTargetError) Error() string {
	return fmt.Sprintf("unsupported target %q (known: %s)", e.Name, strings.Join(Names(), ", "))
}

var (
	mu       sync.RWMutex
	registry = map[string]Target{}
)

// Register makes a dialect available by name. Dialect packages call it
// from init; registering a name twice panics.
func Register(t Target) {
	mu.Lock()
	defer mu.Unlock()

	if _, dup := registry[t.Name()]; dup {
		panic("target: Register called twice for " + t.Name())
	}
	registry[t.Name()] = t
}

func Lookup(name string) (Target, error) {
	mu.RLock()
	defer mu.RUnlock()

	t, ok := registry[name]
	if !ok {
		return nil, &UnsupportedTargetError{Name: name}
	}
	return t, nil
}

// Names returns the registered dialect names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := lo.Keys(registry)
	sort.Strings(names)
	return names
}
