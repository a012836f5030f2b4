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
	"math/bits"
)

// Serialize encodes the object file. Sections, symbols and relocations
// are written in table order so decoding reproduces the same value.
func (o *ObjectFile) Serialize() []byte {
	b := make([]byte, 0, o.sizeHint())
	b = appendHeader(b, objectMagic, o.Target)

	b = appendU32(b, uint32(len(o.sections)))
	for _, s := range o.sections {
		b = appendString(b, s.Name)
		b = append(b, byte(s.Kind))
		b = appendU32(b, s.Align)
		b = appendU32(b, s.Len())
		b = append(b, s.Data...)
	}

	b = appendU32(b, uint32(len(o.symbols)))
	for _, sym := range o.symbols {
		b = appendString(b, sym.Name)
		b = append(b, byte(sym.Visibility))
		if !sym.Defined {
			b = append(b, 0)
			continue
		}
		b = append(b, 1)
		b = appendU32(b, uint32(o.sectionIndex[sym.Section]))
		b = appendU32(b, sym.Offset)
	}

	b = appendU32(b, uint32(len(o.relocations)))
	for _, r := range o.relocations {
		b = appendU32(b, uint32(o.sectionIndex[r.Section]))
		b = appendU32(b, r.Offset)
		b = appendString(b, r.Symbol)
		b = append(b, byte(r.Kind))
		b = appendU32(b, uint32(r.Addend))
	}
	return b
}

func (o *ObjectFile) sizeHint() int {
	n := 64
	for _, s := range o.sections {
		n += len(s.Data) + len(s.Name) + 11
	}
	return n + 16*len(o.symbols) + 20*len(o.relocations)
}

// DeserializeObjectFile decodes one object file from the front of b and
// returns the bytes that follow it.
func DeserializeObjectFile(b []byte) (*ObjectFile, []byte, error) {
	d := &decoder{b: b}
	o, err := decodeObject(d)
	if err != nil {
		return nil, nil, err
	}
	return o, b[d.pos:], nil
}

func decodeObject(d *decoder) (*ObjectFile, error) {
	target, err := d.header(objectMagic, "object file")
	if err != nil {
		return nil, err
	}
	o := NewObjectFile(target)

	nsec, err := d.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nsec; i++ {
		if err := decodeSection(d, o); err != nil {
			return nil, err
		}
	}

	nsym, err := d.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nsym; i++ {
		if err := decodeSymbol(d, o); err != nil {
			return nil, err
		}
	}

	nrel, err := d.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < nrel; i++ {
		if err := decodeRelocation(d, o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func decodeSection(d *decoder, o *ObjectFile) error {
	name, err := d.str()
	if err != nil {
		return err
	}
	if name == "" {
		return &InvalidFieldValueError{Field: "section name", Value: name}
	}
	if o.Section(name) != nil {
		return &InvalidFieldValueError{Field: "section name (duplicate)", Value: name}
	}
	kind, err := d.u8()
	if err != nil {
		return err
	}
	if !SectionKind(kind).valid() {
		return &InvalidFieldValueError{Field: "section kind", Value: kind}
	}
	align, err := d.u32()
	if err != nil {
		return err
	}
	if bits.OnesCount32(align) != 1 {
		return &InvalidFieldValueError{Field: "section alignment", Value: align}
	}
	n, err := d.u32()
	if err != nil {
		return err
	}
	data, err := d.bytes(n)
	if err != nil {
		return err
	}
	s, err := o.AddSection(name, SectionKind(kind), align)
	if err != nil {
		return &InvalidFieldValueError{Field: "section", Value: name}
	}
	s.Data = data
	return nil
}

func decodeSymbol(d *decoder, o *ObjectFile) error {
	name, err := d.str()
	if err != nil {
		return err
	}
	if name == "" {
		return &InvalidFieldValueError{Field: "symbol name", Value: name}
	}
	if o.Symbol(name) != nil {
		return &InvalidFieldValueError{Field: "symbol name (duplicate)", Value: name}
	}
	vis, err := d.u8()
	if err != nil {
		return err
	}
	if Visibility(vis) != Local && Visibility(vis) != Global {
		return &InvalidFieldValueError{Field: "symbol visibility", Value: vis}
	}
	defined, err := d.flag("symbol defined flag")
	if err != nil {
		return err
	}

	if defined {
		idx, err := d.u32()
		if err != nil {
			return err
		}
		if idx >= uint32(len(o.sections)) {
			return &InvalidFieldValueError{Field: "symbol section index", Value: idx}
		}
		off, err := d.u32()
		if err != nil {
			return err
		}
		if _, err := o.DefineSymbol(name, o.sections[idx].Name, off); err != nil {
			return &InvalidFieldValueError{Field: "symbol offset", Value: off}
		}
	} else {
		o.ReferenceSymbol(name)
	}
	o.SetVisibility(name, Visibility(vis))
	return nil
}

func decodeRelocation(d *decoder, o *ObjectFile) error {
	idx, err := d.u32()
	if err != nil {
		return err
	}
	if idx >= uint32(len(o.sections)) {
		return &InvalidFieldValueError{Field: "relocation section index", Value: idx}
	}
	off, err := d.u32()
	if err != nil {
		return err
	}
	sym, err := d.str()
	if err != nil {
		return err
	}
	if o.Symbol(sym) == nil {
		return &InvalidFieldValueError{Field: "relocation symbol", Value: sym}
	}
	kind, err := d.u8()
	if err != nil {
		return err
	}
	if !PatchKind(kind).valid() {
		return &InvalidFieldValueError{Field: "relocation kind", Value: kind}
	}
	addend, err := d.i32()
	if err != nil {
		return err
	}
	r := Relocation{
		Section: o.sections[idx].Name,
		Offset:  off,
		Symbol:  sym,
		Kind:    PatchKind(kind),
		Addend:  addend,
	}
	if err := o.AddRelocation(r); err != nil {
		return &InvalidFieldValueError{Field: "relocation offset", Value: off}
	}
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (o *ObjectFile) MarshalBinary() ([]byte, error) {
	return o.Serialize(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Unlike
// DeserializeObjectFile it rejects trailing bytes.
func (o *ObjectFile) UnmarshalBinary(b []byte) error {
	x, rest, err := DeserializeObjectFile(b)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return &MalformedHeaderError{Reason: "trailing bytes after object file"}
	}
	*o = *x
	return nil
}

// Serialize encodes the executable.
func (e *Executable) Serialize() []byte {
	b := make([]byte, 0, 32+len(e.Target)+len(e.Image))
	b = appendHeader(b, executableMagic, e.Target)
	b = appendU32(b, e.Base)
	b = appendU32(b, e.Entry)
	b = appendU32(b, uint32(len(e.Image)))
	return append(b, e.Image...)
}

// DeserializeExecutable decodes one executable from the front of b and
// returns the bytes that follow it.
func DeserializeExecutable(b []byte) (*Executable, []byte, error) {
	d := &decoder{b: b}
	target, err := d.header(executableMagic, "executable")
	if err != nil {
		return nil, nil, err
	}
	base, err := d.u32()
	if err != nil {
		return nil, nil, err
	}
	entry, err := d.u32()
	if err != nil {
		return nil, nil, err
	}
	n, err := d.u32()
	if err != nil {
		return nil, nil, err
	}
	image, err := d.bytes(n)
	if err != nil {
		return nil, nil, err
	}
	if uint64(base)+uint64(n) > 1<<32 {
		return nil, nil, &InvalidFieldValueError{Field: "image length", Value: n}
	}
	return &Executable{Target: target, Base: base, Entry: entry, Image: image}, b[d.pos:], nil
}

func (e *Executable) MarshalBinary() ([]byte, error) {
	return e.Serialize(), nil
}

func (e *Executable) UnmarshalBinary(b []byte) error {
	x, rest, err := DeserializeExecutable(b)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return &MalformedHeaderError{Reason: "trailing bytes after executable"}
	}
	*e = *x
	return nil
}
