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
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"
)

func TestCodec1(t *testing.T) {
	o := sample(t)
	b := o.Serialize()

	got, rest, err := DeserializeObjectFile(b)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, o, got)
	assert.Equal(t, b, got.Serialize())
}

func TestCodec2(t *testing.T) {
	// Empty object: no sections, symbols or relocations.
	o := NewObjectFile("stack")
	got, rest, err := DeserializeObjectFile(o.Serialize())
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, o, got)
}

func TestCodec3(t *testing.T) {
	// Trailing bytes are handed back, not consumed.
	b := append(sample(t).Serialize(), 0xAA, 0xBB)
	_, rest, err := DeserializeObjectFile(b)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, rest)

	var o ObjectFile
	err = o.UnmarshalBinary(b)
	var mh *MalformedHeaderError
	assert.True(t, errors.As(err, &mh))
}

func TestCodec4(t *testing.T) {
	e := &Executable{Target: "stack", Base: 0x100, Entry: 0x104, Image: []byte{1, 2, 3, 4, 0}}
	b := e.Serialize()

	got, rest, err := DeserializeExecutable(b)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, e, got)

	var x Executable
	require.NoError(t, x.UnmarshalBinary(b))
	assert.Equal(t, *e, x)
	assert.Equal(t, uint32(0x105), x.End())
}

// Every proper prefix of a valid encoding must fail with a typed error.
func TestCodec5Fail(t *testing.T) {
	b := sample(t).Serialize()
	for n := 0; n < len(b); n++ {
		_, _, err := DeserializeObjectFile(b[:n])
		require.Error(t, err, "prefix %d", n)
		var te *TruncatedError
		assert.True(t, errors.As(err, &te), "prefix %d: %v", n, err)
	}

	e := (&Executable{Target: "stack", Base: 0x100, Entry: 0x100, Image: []byte{0}}).Serialize()
	for n := 0; n < len(e); n++ {
		_, _, err := DeserializeExecutable(e[:n])
		var te *TruncatedError
		assert.True(t, errors.As(err, &te), "prefix %d: %v", n, err)
	}
}

func TestCodec6Fail(t *testing.T) {
	b := sample(t).Serialize()

	bad := append([]byte(nil), b...)
	copy(bad, "MNEX")
	_, _, err := DeserializeObjectFile(bad)
	var mh *MalformedHeaderError
	assert.True(t, errors.As(err, &mh), "wrong magic: %v", err)

	bad = append([]byte(nil), b...)
	binary.LittleEndian.PutUint16(bad[4:], 99)
	_, _, err = DeserializeObjectFile(bad)
	assert.True(t, errors.As(err, &mh), "wrong version: %v", err)

	_, _, err = DeserializeExecutable(b)
	assert.True(t, errors.As(err, &mh), "object is not an executable: %v", err)
}

func TestCodec7Fail(t *testing.T) {
	// header "MNOB" v1 "stack", one section
	hdr := appendHeader(nil, objectMagic, "stack")
	section := func(kind byte, align uint32) []byte {
		b := appendU32(append([]byte(nil), hdr...), 1)
		b = appendString(b, "text")
		b = append(b, kind)
		b = appendU32(b, align)
		b = appendU32(b, 0)
		return b
	}

	var iv *InvalidFieldValueError

	_, _, err := DeserializeObjectFile(section(7, 1))
	assert.True(t, errors.As(err, &iv), "bad kind: %v", err)

	_, _, err = DeserializeObjectFile(section(0, 3))
	assert.True(t, errors.As(err, &iv), "bad alignment: %v", err)

	// symbol pointing at section index 5
	b := section(0, 1)
	b = appendU32(b, 1)
	b = appendString(b, "x")
	b = append(b, byte(Local), 1)
	b = appendU32(b, 5)
	b = appendU32(b, 0)
	b = appendU32(b, 0)
	_, _, err = DeserializeObjectFile(b)
	assert.True(t, errors.As(err, &iv), "bad section index: %v", err)

	// relocation site outside an empty section
	b = section(0, 1)
	b = appendU32(b, 1)
	b = appendString(b, "x")
	b = append(b, byte(Global), 0)
	b = appendU32(b, 1)
	b = appendU32(b, 0)
	b = appendU32(b, 0)
	b = appendString(b, "x")
	b = append(b, byte(PatchAbs16))
	b = appendU32(b, 0)
	_, _, err = DeserializeObjectFile(b)
	assert.True(t, errors.As(err, &iv), "bad relocation site: %v", err)
}

func TestCodec8Fail(t *testing.T) {
	// A section claiming four gigabytes must not allocate or read past the buffer.
	b := appendHeader(nil, objectMagic, "stack")
	b = appendU32(b, 1)
	b = appendString(b, "text")
	b = append(b, byte(KindCode))
	b = appendU32(b, 1)
	b = appendU32(b, 0xFFFFFFFF)
	b = append(b, 1, 2, 3)

	_, _, err := DeserializeObjectFile(b)
	var te *TruncatedError
	require.True(t, errors.As(err, &te), "%v", err)
	assert.Equal(t, 3, te.Have)
}

func TestSniff1(t *testing.T) {
	assert.Equal(t, FileObject, Sniff(sample(t).Serialize()))
	assert.Equal(t, FileExecutable, Sniff((&Executable{Target: "stack"}).Serialize()))
	assert.Equal(t, FileUnknown, Sniff([]byte("MN")))
}
