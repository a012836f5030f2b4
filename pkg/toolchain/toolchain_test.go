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

package toolchain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/monistode/cli/pkg/asm"
	"github.com/monistode/cli/pkg/link"
	"github.com/monistode/cli/pkg/obj"
	"github.com/monistode/cli/pkg/target"
)

func TestToolchain1(t *testing.T) {
	ctx := context.Background()

	a, err := Assemble(ctx, "a.s", []byte(".global _start\n_start: call f\nhalt\n"), "stack")
	require.NoError(t, err)
	assert.Equal(t, obj.FileObject, obj.Sniff(a))

	b, err := Assemble(ctx, "b.s", []byte(".global f\nf: ret\n"), "stack")
	require.NoError(t, err)

	x, err := Link(ctx, [][]byte{a, b})
	require.NoError(t, err)

	exe, rest, err := obj.DeserializeExecutable(x)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, []byte{0x33, 0x04, 0x01, 0x00, 0x34}, exe.Image)
	assert.Equal(t, uint32(0x100), exe.Entry)
}

func TestToolchain2(t *testing.T) {
	assert.Contains(t, Targets(), "stack")
}

func TestToolchain1Fail(t *testing.T) {
	ctx := context.Background()

	_, err := Link(ctx, nil)
	assert.True(t, errors.Is(err, ErrNoInput))

	good, err := Assemble(ctx, "a.s", []byte("_start: halt\n"), "stack")
	require.NoError(t, err)

	_, err = Link(ctx, [][]byte{good, good[:10]})
	var te *obj.TruncatedError
	require.True(t, errors.As(err, &te), "%v", err)
	assert.Contains(t, err.Error(), "object file 1")

	_, err = Link(ctx, [][]byte{good, append(good, 0)})
	var mh *obj.MalformedHeaderError
	assert.True(t, errors.As(err, &mh), "trailing bytes: %v", err)

	_, err = Assemble(ctx, "a.s", []byte("halt\n"), "vax")
	var ut *target.UnsupportedTargetError
	assert.True(t, errors.As(err, &ut), "%v", err)

	_, err = Assemble(ctx, "a.s", []byte("bogus\n"), "stack")
	var pe *asm.ParseError
	assert.True(t, errors.As(err, &pe), "%v", err)

	_, err = Link(ctx, [][]byte{good, good})
	var dup *obj.DuplicateDefinitionError
	assert.True(t, errors.As(err, &dup), "%v", err)

	noEntry, err := Assemble(ctx, "c.s", []byte("halt\n"), "stack")
	require.NoError(t, err)
	_, err = Link(ctx, [][]byte{noEntry})
	var ne *link.NoEntryPointError
	assert.True(t, errors.As(err, &ne), "%v", err)
}
