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

import (
	"fmt"
	"math"
)

// PatchKind says how a resolved address is written at a relocation site.
// Absolute kinds store S+A; relative kinds store S+A-(P+width), where P
// is the address of the site, so the offset is taken from the end of the
// patched field.
type PatchKind uint8

const (
	PatchAbs8 PatchKind = iota
	PatchAbs16
	PatchRel8
	PatchRel16
)

var patchNames = []string{
	"abs8",
	"abs16",
	"rel8",
	"rel16",
}

func (k PatchKind) String() string {
	if k.valid() {
		return patchNames[k]
	}
	return fmt.Sprintf("patch(%d)", uint8(k))
}

func (k PatchKind) valid() bool {
	return int(k) < len(patchNames)
}

// Width is the size of the patched field in bytes.
func (k PatchKind) Width() int {
	switch k {
	case PatchAbs8, PatchRel8:
		return 1
	case PatchAbs16, PatchRel16:
		return 2
	}
	return 0
}

func (k PatchKind) Relative() bool {
	return k == PatchRel8 || k == PatchRel16
}

// Range returns the inclusive range of values the field can hold.
// Absolute fields hold unsigned addresses; relative fields are signed.
func (k PatchKind) Range() (min, max int64) {
	switch k {
	case PatchAbs8:
		return 0, math.MaxUint8
	case PatchAbs16:
		return 0, math.MaxUint16
	case PatchRel8:
		return math.MinInt8, math.MaxInt8
	case PatchRel16:
		return math.MinInt16, math.MaxInt16
	}
	return 0, -1
}

// Put stores v little-endian into the first Width() bytes of b.
func (k PatchKind) Put(b []byte, v int64) {
	switch k.Width() {
	case 1:
		b[0] = byte(v)
	case 2:
		b[0] = byte(v)
		b[1] = byte(v >> 8)
	}
}

// A Relocation is a site in Section at Offset whose bytes must become the
// address of Symbol (plus Addend), encoded as Kind.
type Relocation struct {
	Section string
	Offset  uint32
	Symbol  string
	Kind    PatchKind
	Addend  int32
}

func (r Relocation) String() string {
	s := fmt.Sprintf("%s+0x%04X %s %s", r.Section, r.Offset, r.Kind, r.Symbol)
	if r.Addend != 0 {
		s += fmt.Sprintf("%+d", r.Addend)
	}
	return s
}
