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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample builds a small object file: a code section that calls an
// external routine and a data section holding a pointer to a local label.
func sample(t *testing.T) *ObjectFile {
	o := NewObjectFile("stack")
	text, err := o.AddSection("text", KindCode, 1)
	require.NoError(t, err)
	data, err := o.AddSection("data", KindData, 2)
	require.NoError(t, err)

	text.Data = []byte{0x33, 0, 0, 0x00}
	data.Data = []byte{0, 0, 'h', 'i'}

	_, err = o.DefineSymbol("_start", "text", 0)
	require.NoError(t, err)
	o.SetVisibility("_start", Global)
	_, err = o.DefineSymbol("msg", "data", 2)
	require.NoError(t, err)

	require.NoError(t, o.AddRelocation(Relocation{Section: "text", Offset: 1, Symbol: "putc", Kind: PatchAbs16}))
	require.NoError(t, o.AddRelocation(Relocation{Section: "data", Offset: 0, Symbol: "msg", Kind: PatchAbs16, Addend: 1}))
	return o
}

func TestObject1(t *testing.T) {
	o := sample(t)

	names := []string{}
	for _, s := range o.Symbols() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"_start", "msg", "putc"}, names)
	assert.Equal(t, []string{"putc"}, o.Undefined())
	assert.NoError(t, o.Validate())
}

func TestObject2Fail(t *testing.T) {
	o := sample(t)

	_, err := o.AddSection("text", KindCode, 1)
	assert.Error(t, err)

	_, err = o.AddSection("odd", KindData, 3)
	assert.Error(t, err)

	_, err = o.DefineSymbol("msg", "data", 0)
	assert.Error(t, err, "second definition")

	_, err = o.DefineSymbol("x", "bss", 0)
	assert.Error(t, err, "no such section")

	_, err = o.DefineSymbol("x", "data", 5)
	assert.Error(t, err, "offset past end")
}

func TestObject3Fail(t *testing.T) {
	o := sample(t)

	err := o.AddRelocation(Relocation{Section: "text", Offset: 3, Symbol: "x", Kind: PatchAbs16})
	assert.Error(t, err, "site straddles the end of the section")

	err = o.AddRelocation(Relocation{Section: "rodata", Offset: 0, Symbol: "x", Kind: PatchAbs8})
	assert.Error(t, err)

	assert.Nil(t, o.Symbol("x"), "failed relocations must not add symbols")
}

func TestObject4(t *testing.T) {
	o := sample(t)

	// A reference followed by the definition fills in the same entry.
	o.ReferenceSymbol("later")
	_, err := o.DefineSymbol("later", "text", 4)
	require.NoError(t, err)
	sym := o.Symbol("later")
	assert.True(t, sym.Defined)
	assert.Equal(t, uint32(4), sym.Offset)
	assert.Equal(t, []string{"putc"}, o.Undefined())
}

func TestObject5Fail(t *testing.T) {
	o := sample(t)
	long := strings.Repeat("s", MaxNameLen+1)

	_, err := o.AddSection(long, KindData, 1)
	assert.Error(t, err)
	_, err = o.AddSection("", KindData, 1)
	assert.Error(t, err)
	_, err = o.DefineSymbol(long, "text", 0)
	assert.Error(t, err)
	_, err = o.ReferenceSymbol(long)
	assert.Error(t, err)
	assert.Error(t, o.SetVisibility(long, Global))
	assert.Error(t, o.AddRelocation(Relocation{Section: "text", Offset: 0, Symbol: long, Kind: PatchAbs8}))
	assert.Nil(t, o.Symbol(long))
	assert.Nil(t, o.Section(long))

	_, err = o.AddSection(strings.Repeat("s", MaxNameLen), KindData, 1)
	assert.NoError(t, err, "longest encodable name")

	o.Target = ""
	assert.Error(t, o.Validate())
}

func TestPatchKind1(t *testing.T) {
	min, max := PatchRel8.Range()
	assert.Equal(t, int64(-128), min)
	assert.Equal(t, int64(127), max)

	min, max = PatchAbs16.Range()
	assert.Equal(t, int64(0), min)
	assert.Equal(t, int64(0xFFFF), max)

	b := make([]byte, 2)
	PatchAbs16.Put(b, 0x1234)
	assert.Equal(t, []byte{0x34, 0x12}, b)

	PatchRel8.Put(b, -2)
	assert.Equal(t, byte(0xFE), b[0])

	assert.True(t, PatchRel16.Relative())
	assert.False(t, PatchAbs8.Relative())
	assert.Equal(t, "abs16", PatchAbs16.String())
}
