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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/monistode/cli/pkg/target"
	_ "github.com/monistode/cli/pkg/target/stack"
)

func parse(t *testing.T, src string) []Statement {
	stmts, err := Parse(t.Name(), []byte(src), "stack")
	require.NoError(t, err)
	return stmts
}

func parseFail(t *testing.T, src string) *ParseError {
	_, err := Parse(t.Name(), []byte(src), "stack")
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "%q: %v", src, err)
	return pe
}

func TestParse1(t *testing.T) {
	stmts := parse(t, `
; comment only
start:	push msg+1   # trailing comment
a: b: NOP
	.byte 1, -2, 'c'
	.ascii "hi"
`)
	require.Len(t, stmts, 7)

	assert.Equal(t, Label{Pos{t.Name(), 3, 1}, "start"}, stmts[0])
	assert.Equal(t, Instruction{Pos{t.Name(), 3, 8}, "push", []Operand{SymbolRef{"msg", 1}}}, stmts[1])
	assert.Equal(t, Label{Pos{t.Name(), 4, 1}, "a"}, stmts[2])
	assert.Equal(t, Label{Pos{t.Name(), 4, 4}, "b"}, stmts[3])
	assert.Equal(t, "nop", stmts[4].(Instruction).Mnemonic)
	assert.Equal(t, []Operand{Number{1}, Number{-2}, Number{'c'}}, stmts[5].(Directive).Args)
	assert.Equal(t, Directive{Pos{t.Name(), 6, 2}, ".ascii", []Operand{String{"hi"}}}, stmts[6])
}

func TestParse2(t *testing.T) {
	// Empty input and input without a final newline.
	assert.Empty(t, parse(t, ""))
	assert.Empty(t, parse(t, "\n\n   ; nothing\n"))
	stmts := parse(t, "halt")
	require.Len(t, stmts, 1)
	assert.Equal(t, "halt", stmts[0].(Instruction).Mnemonic)
}

func TestParse3(t *testing.T) {
	stmts := parse(t, ".section table, data, 4\n.global a, b\nbr back-2\n")
	require.Len(t, stmts, 3)
	assert.Equal(t, []Operand{SymbolRef{Name: "table"}, SymbolRef{Name: "data"}, Number{4}}, stmts[0].(Directive).Args)
	assert.Equal(t, []Operand{SymbolRef{Name: "a"}, SymbolRef{Name: "b"}}, stmts[1].(Directive).Args)
	assert.Equal(t, []Operand{SymbolRef{"back", -2}}, stmts[2].(Instruction).Operands)
}

func TestParse1Fail(t *testing.T) {
	_, err := Parse(t.Name(), []byte("this is not even read"), "vax")
	var ut *target.UnsupportedTargetError
	assert.True(t, errors.As(err, &ut))
}

func TestParse2Fail(t *testing.T) {
	for _, tc := range []struct {
		src    string
		line   int
		column int
	}{
		{"mov 1\n", 1, 1},             // unknown mnemonic
		{"nop\npush\n", 2, 1},         // missing operand
		{"halt 3\n", 1, 1},            // extra operand
		{"push \"str\"\n", 1, 1},      // string operand
		{".frobnicate\n", 1, 1},       // unknown directive
		{".byte\n", 1, 1},             // no arguments
		{".text 1\n", 1, 1},           // arguments not allowed
		{".ascii 5\n", 1, 1},          // string expected
		{".global x+1\n", 1, 1},       // name expected
		{"push 1 2\n", 1, 8},          // missing comma
		{"push ,\n", 1, 6},            // operand expected
		{".ascii \"abc\n", 1, 8},      // unterminated string
		{"push x+y\n", 1, 8},          // addend must be a number
		{"push -x\n", 1, 7},           // number after minus
		{"push x+4294967296\n", 1, 8}, // addend out of range
		{"\n\n  : x\n", 3, 3},         // stray colon
	} {
		pe := parseFail(t, tc.src)
		assert.Equal(t, tc.line, pe.Pos.Line, "%q: %v", tc.src, pe)
		assert.Equal(t, tc.column, pe.Pos.Column, "%q: %v", tc.src, pe)
		assert.Equal(t, t.Name(), pe.Pos.File)
	}
}

func stackTarget(t *testing.T) target.Target {
	tg, err := target.Lookup("stack")
	require.NoError(t, err)
	return tg
}
