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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/monistode/cli/pkg/asm"
	"github.com/monistode/cli/pkg/obj"
	"github.com/monistode/cli/pkg/target"
	_ "github.com/monistode/cli/pkg/target/stack"
)

func assemble(t *testing.T, src string) *obj.ObjectFile {
	o, err := asm.AssembleSource(context.Background(), t.Name(), []byte(src), "stack")
	require.NoError(t, err)
	return o
}

func build(t *testing.T, src string) *obj.Executable {
	exe, err := Build(context.Background(), assemble(t, src))
	require.NoError(t, err)
	return exe
}

func buildFail(t *testing.T, src string) error {
	exe, err := Build(context.Background(), assemble(t, src))
	require.Error(t, err)
	assert.Nil(t, exe)
	return err
}

func TestLink1(t *testing.T) {
	o := assemble(t, `
start:
	jmp done
done:
	halt
`)
	start := o.Symbol("start").Offset
	done := o.Symbol("done").Offset
	site := o.Relocations()[0].Offset

	exe, err := Link(context.Background(), []*obj.ObjectFile{o})
	require.NoError(t, err)

	assert.Equal(t, uint32(0x100), exe.Base)
	assert.Equal(t, exe.Base+start, exe.Entry)
	doneAddr := exe.Base + done
	assert.Equal(t, byte(doneAddr), exe.Image[site])
	assert.Equal(t, byte(doneAddr>>8), exe.Image[site+1])
	assert.Equal(t, []byte{0x30, 0x03, 0x01, 0x00}, exe.Image)
}

func TestLink2(t *testing.T) {
	// Code goes first whatever the object order; each section starts on
	// its own alignment and the gaps are zero.
	o := obj.NewObjectFile("stack")
	a, err := o.AddSection("a", obj.KindData, 4)
	require.NoError(t, err)
	a.Data = []byte{1, 2, 3, 4, 5}
	b, err := o.AddSection("b", obj.KindData, 8)
	require.NoError(t, err)
	b.Data = []byte{6, 7, 8}
	text, err := o.AddSection("text", obj.KindCode, 1)
	require.NoError(t, err)
	text.Data = []byte{0x01, 0x01, 0x00}
	_, err = o.DefineSymbol("_start", "text", 0)
	require.NoError(t, err)

	tg, err := target.Lookup("stack")
	require.NoError(t, err)
	l, err := Plan(o, tg)
	require.NoError(t, err)

	textAddr, _ := l.Address("text")
	aAddr, _ := l.Address("a")
	bAddr, _ := l.Address("b")
	assert.Equal(t, uint32(0x100), textAddr)
	assert.Equal(t, uint32(0x104), aAddr)
	assert.Equal(t, uint32(0x110), bAddr)
	assert.Zero(t, aAddr%4)
	assert.Zero(t, bAddr%8)
	assert.Equal(t, uint32(0x113), l.End)

	exe, err := Build(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x01, 0x01, 0x00, 0,
		1, 2, 3, 4, 5, 0, 0, 0, 0, 0, 0, 0,
		6, 7, 8,
	}, exe.Image)
}

func TestLink3(t *testing.T) {
	// Several files, a call across them, a backward branch and an addend.
	a := assemble(t, `
	.global _start
	.extern putc
_start:	push msg+1
	call putc
loop:	br loop
	.data
msg:	.ascii "hi"
`)
	b := assemble(t, `
	.global putc
putc:	out 1
	ret
`)
	exe, err := Link(context.Background(), []*obj.ObjectFile{a, b})
	require.NoError(t, err)

	// text: push(3) call(3) br(2) | putc: out(2) ret(1) ; data at 0x10C
	assert.Equal(t, []byte{
		0x02, 0x0D, 0x01,
		0x33, 0x08, 0x01,
		0x38, 0xFE,
		0x41, 0x01,
		0x34,
		0x00,
		'h', 'i',
	}, exe.Image)
	assert.Equal(t, uint32(0x100), exe.Entry)
}

func TestLink4(t *testing.T) {
	// start is preferred over main.
	exe := build(t, "main: nop\nstart: halt\n")
	assert.Equal(t, uint32(0x101), exe.Entry)
}

func TestLink1Fail(t *testing.T) {
	err := buildFail(t, "call a\ncall b\ncall a\n_start: push c\n")
	var us *UndefinedSymbolsError
	require.True(t, errors.As(err, &us), "%v", err)
	assert.Equal(t, []string{"a", "b", "c"}, us.Names)
}

func TestLink2Fail(t *testing.T) {
	err := buildFail(t, "_start: br far\n.space 200\nfar: halt\n")
	var ro *RelocationOverflowError
	require.True(t, errors.As(err, &ro), "%v", err)
	assert.Equal(t, "far", ro.Symbol)
	assert.Equal(t, obj.PatchRel8, ro.Kind)
	assert.Equal(t, int64(200), ro.Value)
	assert.Equal(t, uint32(1), ro.Offset)

	err = buildFail(t, "_start: pushb x\nx: halt\n")
	require.True(t, errors.As(err, &ro), "%v", err)
	assert.Equal(t, obj.PatchAbs8, ro.Kind)
	assert.Equal(t, int64(0x102), ro.Value)
}

func TestLink3Fail(t *testing.T) {
	err := buildFail(t, "foo: halt\n")
	var ne *NoEntryPointError
	require.True(t, errors.As(err, &ne), "%v", err)
	assert.Equal(t, []string{"_start", "start", "main"}, ne.Candidates)

	// A declared but undefined entry name does not count.
	_, err = Build(context.Background(), assemble(t, ".global _start\nhalt\n"))
	var us *UndefinedSymbolsError
	assert.True(t, errors.As(err, &us), "%v", err)
}

func TestLink4Fail(t *testing.T) {
	err := buildFail(t, "_start: halt\n.space 0xFF00\n")
	var big *ImageTooLargeError
	require.True(t, errors.As(err, &big), "%v", err)
	assert.Equal(t, uint64(0x10001), big.End)

	build(t, "_start: .space 0xFF00\n")
}

func TestLink5Fail(t *testing.T) {
	a := assemble(t, ".global foo\nfoo: halt\n")
	b := assemble(t, ".global foo\nfoo: nop\n")
	_, err := Link(context.Background(), []*obj.ObjectFile{a, b})
	var dup *obj.DuplicateDefinitionError
	require.True(t, errors.As(err, &dup), "%v", err)
	assert.Equal(t, "foo", dup.Name)

	o := obj.NewObjectFile("vax")
	_, err = Build(context.Background(), o)
	var ut *target.UnsupportedTargetError
	assert.True(t, errors.As(err, &ut), "%v", err)
}
