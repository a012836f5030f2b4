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
)

func TestTypes1(t *testing.T) {
	p := Pos{"prog.s", 3, 7}
	assert.Equal(t, "prog.s:3:7", p.String())

	var st Statement = Label{Pos: p, Name: "x"}
	assert.Equal(t, p, st.Position())
}

func TestTypes2(t *testing.T) {
	assert.Equal(t, "-5", Number{-5}.String())
	assert.Equal(t, "msg", SymbolRef{Name: "msg"}.String())
	assert.Equal(t, "msg+2", SymbolRef{Name: "msg", Addend: 2}.String())
	assert.Equal(t, "msg-1", SymbolRef{Name: "msg", Addend: -1}.String())
	assert.Equal(t, `"hi\n"`, String{"hi\n"}.String())
}

func TestTypes3(t *testing.T) {
	err := &ParseError{Pos{"a.s", 1, 2}, "boom"}
	assert.Equal(t, "a.s:1:2: boom", err.Error())

	dup := &DuplicateSymbolError{Name: "x", Pos: Pos{"a.s", 4, 1}, Previous: Pos{"a.s", 2, 1}}
	assert.Contains(t, dup.Error(), "a.s:2:1")
}
