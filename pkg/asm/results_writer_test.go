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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monistode/cli/pkg/obj"
)

func TestResults1(t *testing.T) {
	o := assemble(t, "start: push msg\n.data\nmsg: .ascii \"AB\"\n")

	var b bytes.Buffer
	require.NoError(t, WriteListing(&b, o))
	out := b.String()

	assert.Contains(t, out, "target stack")
	assert.Contains(t, out, "start            local  text+0x0000")
	assert.Contains(t, out, "msg              local  data+0x0000")
	assert.Contains(t, out, "text+0x0001")
	assert.Contains(t, out, "0x0000 02 00 00")
	assert.Contains(t, out, "0x0000 41 42")
}

func TestResults2(t *testing.T) {
	e := &obj.Executable{Target: "stack", Base: 0x100, Entry: 0x102, Image: make([]byte, 40)}
	e.Image[0x21] = 0x7F

	var b bytes.Buffer
	require.NoError(t, WriteImage(&b, e))
	out := b.String()

	assert.Contains(t, out, "entry 0x0102")
	assert.NotContains(t, out, "\n0x0100", "zero rows are skipped")
	assert.Contains(t, out, "0x0120 00 7F 00")
}
