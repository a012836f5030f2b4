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
	"bytes"
	"encoding/binary"
	"fmt"
)

// Binary layouts. All integers are little-endian; strings are a uint16
// byte count followed by the bytes.
//
//	object:     "MNOB" version:u16 target:str
//	            nsec:u32 { name:str kind:u8 align:u32 len:u32 data }
//	            nsym:u32 { name:str vis:u8 defined:u8 [secidx:u32 offset:u32] }
//	            nrel:u32 { secidx:u32 offset:u32 symbol:str kind:u8 addend:i32 }
//	executable: "MNEX" version:u16 target:str base:u32 entry:u32 len:u32 image
const FormatVersion = 1

var (
	objectMagic     = []byte("MNOB")
	executableMagic = []byte("MNEX")
)

type FileKind int

const (
	FileUnknown FileKind = iota
	FileObject
	FileExecutable
)

// Sniff identifies an encoded file by its magic number.
func Sniff(b []byte) FileKind {
	switch {
	case bytes.HasPrefix(b, objectMagic):
		return FileObject
	case bytes.HasPrefix(b, executableMagic):
		return FileExecutable
	}
	return FileUnknown
}

// -------
// Encoder
// -------

func appendU16(b []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(b, v)
}

func appendU32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

func appendString(b []byte, s string) []byte {
	b = appendU16(b, uint16(len(s)))
	return append(b, s...)
}

func appendHeader(b []byte, magic []byte, target string) []byte {
	b = append(b, magic...)
	b = appendU16(b, FormatVersion)
	return appendString(b, target)
}

// -------
// Decoder
// -------

// decoder is a read cursor over an encoded file. Every read checks the
// remaining length before touching the buffer.
type decoder struct {
	b   []byte
	pos int
}

func (d *decoder) need(n int) error {
	if have := len(d.b) - d.pos; n < 0 || have < n {
		return &TruncatedError{Offset: d.pos, Need: n, Have: have}
	}
	return nil
}

func (d *decoder) u8() (uint8, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	v := d.b[d.pos]
	d.pos++
	return v, nil
}

func (d *decoder) u16() (uint16, error) {
	if err := d.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(d.b[d.pos:])
	d.pos += 2
	return v, nil
}

func (d *decoder) u32() (uint32, error) {
	if err := d.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(d.b[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *decoder) i32() (int32, error) {
	v, err := d.u32()
	return int32(v), err
}

// bytes returns a copy of the next n bytes, or nil when n is zero.
func (d *decoder) bytes(n uint32) ([]byte, error) {
	if uint64(n) > uint64(len(d.b)-d.pos) {
		return nil, &TruncatedError{Offset: d.pos, Need: int(n), Have: len(d.b) - d.pos}
	}
	v := append([]byte(nil), d.b[d.pos:d.pos+int(n)]...)
	d.pos += int(n)
	return v, nil
}

func (d *decoder) str() (string, error) {
	n, err := d.u16()
	if err != nil {
		return "", err
	}
	if err := d.need(int(n)); err != nil {
		return "", err
	}
	s := string(d.b[d.pos : d.pos+int(n)])
	d.pos += int(n)
	return s, nil
}

func (d *decoder) flag(field string) (bool, error) {
	v, err := d.u8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, &InvalidFieldValueError{Field: field, Value: v}
}

func (d *decoder) header(magic []byte, what string) (target string, err error) {
	if err = d.need(len(magic)); err != nil {
		return "", err
	}
	if !bytes.Equal(d.b[d.pos:d.pos+len(magic)], magic) {
		return "", &MalformedHeaderError{Reason: "bad magic for " + what}
	}
	d.pos += len(magic)

	version, err := d.u16()
	if err != nil {
		return "", err
	}
	if version != FormatVersion {
		return "", &MalformedHeaderError{Reason: fmt.Sprintf("unsupported format version %d", version)}
	}

	target, err = d.str()
	if err != nil {
		return "", err
	}
	if target == "" {
		return "", &MalformedHeaderError{Reason: "empty target name"}
	}
	return target, nil
}
