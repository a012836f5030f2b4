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

package target_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"

	"github.com/monistode/cli/pkg/obj"
	"github.com/monistode/cli/pkg/target"
	_ "github.com/monistode/cli/pkg/target/stack"
)

func TestLookup1(t *testing.T) {
	tg, err := target.Lookup("stack")
	require.NoError(t, err)
	assert.Equal(t, "stack", tg.Name())
	assert.Contains(t, target.Names(), "stack")
}

func TestLookup1Fail(t *testing.T) {
	_, err := target.Lookup("vax")
	var ut *target.UnsupportedTargetError
	require.True(t, errors.As(err, &ut))
	assert.Equal(t, "vax", ut.Name)
	assert.Contains(t, err.Error(), "stack")
}

func TestRegister1Fail(t *testing.T) {
	tg, err := target.Lookup("stack")
	require.NoError(t, err)
	assert.Panics(t, func() { target.Register(tg) })
}

func TestField1(t *testing.T) {
	for _, tc := range []struct {
		f        target.FieldKind
		width    int
		patch    obj.PatchKind
		min, max int64
	}{
		{target.FieldImm8, 1, obj.PatchAbs8, -128, 255},
		{target.FieldImm16, 2, obj.PatchAbs16, -32768, 65535},
		{target.FieldRel8, 1, obj.PatchRel8, -128, 127},
	} {
		assert.Equal(t, tc.width, tc.f.Width(), "%v", tc.f)
		assert.Equal(t, tc.patch, tc.f.Patch(), "%v", tc.f)
		min, max := tc.f.Range()
		assert.Equal(t, tc.min, min, "%v", tc.f)
		assert.Equal(t, tc.max, max, "%v", tc.f)
	}
}
