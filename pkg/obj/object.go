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

// Package obj defines the relocatable object file and the executable
// produced by the monistode toolchain, their binary encodings, and the
// merge of independently assembled object files.
package obj

import (
	"fmt"

	"tlog.app/go/errors"
)

type SectionKind uint8

const (
	KindCode SectionKind = iota
	KindData
)

var kindToString = []string{
	"code",
	"data",
}

func (k SectionKind) String() string {
	if int(k) < len(kindToString) {
		return kindToString[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k SectionKind) valid() bool {
	return int(k) < len(kindToString)
}

// ParseSectionKind maps the names used by the .section directive.
func ParseSectionKind(s string) (SectionKind, bool) {
	for i, name := range kindToString {
		if name == s {
			return SectionKind(i), true
		}
	}
	return 0, false
}

type Visibility uint8

const (
	Local Visibility = iota
	Global
)

func (v Visibility) String() string {
	switch v {
	case Local:
		return "local"
	case Global:
		return "global"
	}
	return fmt.Sprintf("visibility(%d)", uint8(v))
}

// A Section is a named byte buffer. Align is the required alignment
// of the section's final base address and is always a power of two.
type Section struct {
	Name  string
	Kind  SectionKind
	Align uint32
	Data  []byte
}

func (s *Section) Len() uint32 {
	return uint32(len(s.Data))
}

// A Symbol is either defined at (Section, Offset) or is a pure reference
// to be resolved by the linker.
type Symbol struct {
	Name       string
	Visibility Visibility
	Defined    bool
	Section    string
	Offset     uint32
}

// ObjectFile is the output of assembling one compilation unit.
// Sections and symbols keep their insertion order.
type ObjectFile struct {
	Target string

	sections     []*Section
	sectionIndex map[string]int

	symbols     []*Symbol
	symbolIndex map[string]int

	relocations []Relocation
}

func NewObjectFile(target string) *ObjectFile {
	return &ObjectFile{
		Target:       target,
		sectionIndex: make(map[string]int),
		symbolIndex:  make(map[string]int),
	}
}

// MaxNameLen is the longest section, symbol or target name the binary
// format can hold.
const MaxNameLen = 0xFFFF

func checkName(what, name string) error {
	if name == "" {
		return errors.New("empty %s name", what)
	}
	if len(name) > MaxNameLen {
		return errors.New("%s name of %d bytes exceeds %d", what, len(name), MaxNameLen)
	}
	return nil
}

// init makes the zero value, and a file consumed by Merge, usable.
func (o *ObjectFile) init() {
	if o.sectionIndex == nil {
		o.sectionIndex = make(map[string]int)
	}
	if o.symbolIndex == nil {
		o.symbolIndex = make(map[string]int)
	}
}

// AddSection creates an empty section. The name must not exist yet.
func (o *ObjectFile) AddSection(name string, kind SectionKind, align uint32) (*Section, error) {
	if err := checkName("section", name); err != nil {
		return nil, err
	}
	o.init()
	if _, ok := o.sectionIndex[name]; ok {
		return nil, errors.New("section %q already exists", name)
	}
	if !isPowerOfTwo(align) {
		return nil, errors.New("section %q: alignment %d is not a power of two", name, align)
	}
	s := &Section{Name: name, Kind: kind, Align: align}
	o.sectionIndex[name] = len(o.sections)
	o.sections = append(o.sections, s)
	return s, nil
}

func (o *ObjectFile) Section(name string) *Section {
	i, ok := o.sectionIndex[name]
	if !ok {
		return nil
	}
	return o.sections[i]
}

func (o *ObjectFile) sectionNumber(name string) (int, bool) {
	i, ok := o.sectionIndex[name]
	return i, ok
}

func (o *ObjectFile) Sections() []*Section {
	return o.sections
}

func (o *ObjectFile) Symbol(name string) *Symbol {
	i, ok := o.symbolIndex[name]
	if !ok {
		return nil
	}
	return o.symbols[i]
}

func (o *ObjectFile) Symbols() []*Symbol {
	return o.symbols
}

func (o *ObjectFile) Relocations() []Relocation {
	return o.relocations
}

// entry returns the table entry for name, creating an undefined local
// entry at the end of the table if there is none.
func (o *ObjectFile) entry(name string) *Symbol {
	if i, ok := o.symbolIndex[name]; ok {
		return o.symbols[i]
	}
	o.init()
	s := &Symbol{Name: name}
	o.symbolIndex[name] = len(o.symbols)
	o.symbols = append(o.symbols, s)
	return s
}

// DefineSymbol binds name to (section, offset). A second definition of
// the same name is an error; an earlier reference is filled in.
func (o *ObjectFile) DefineSymbol(name, section string, offset uint32) (*Symbol, error) {
	if err := checkName("symbol", name); err != nil {
		return nil, err
	}
	s := o.Section(section)
	if s == nil {
		return nil, errors.New("symbol %q: no section %q", name, section)
	}
	if offset > s.Len() {
		return nil, errors.New("symbol %q: offset %d beyond section %q (%d bytes)", name, offset, section, s.Len())
	}
	sym := o.entry(name)
	if sym.Defined {
		return nil, errors.New("symbol %q already defined", name)
	}
	sym.Defined = true
	sym.Section = section
	sym.Offset = offset
	return sym, nil
}

// ReferenceSymbol makes sure name has a table entry. Existing entries,
// defined or not, are returned unchanged.
func (o *ObjectFile) ReferenceSymbol(name string) (*Symbol, error) {
	if err := checkName("symbol", name); err != nil {
		return nil, err
	}
	return o.entry(name), nil
}

// SetVisibility sets the binding of name, adding a table entry if needed.
func (o *ObjectFile) SetVisibility(name string, v Visibility) error {
	if err := checkName("symbol", name); err != nil {
		return err
	}
	o.entry(name).Visibility = v
	return nil
}

// AddRelocation records a patch site. The site must lie inside its section.
func (o *ObjectFile) AddRelocation(r Relocation) error {
	if err := o.checkRelocation(r); err != nil {
		return err
	}
	o.entry(r.Symbol)
	o.relocations = append(o.relocations, r)
	return nil
}

func (o *ObjectFile) checkRelocation(r Relocation) error {
	if err := checkName("symbol", r.Symbol); err != nil {
		return errors.Wrap(err, "relocation at %s+%d", r.Section, r.Offset)
	}
	s := o.Section(r.Section)
	if s == nil {
		return errors.New("relocation for %q: no section %q", r.Symbol, r.Section)
	}
	if !r.Kind.valid() {
		return errors.New("relocation for %q: invalid patch kind %d", r.Symbol, r.Kind)
	}
	if uint64(r.Offset)+uint64(r.Kind.Width()) > uint64(s.Len()) {
		return errors.New("relocation for %q: site %s+%d outside section (%d bytes)", r.Symbol, r.Section, r.Offset, s.Len())
	}
	return nil
}

// Undefined returns the names of symbols without a definition in table order.
func (o *ObjectFile) Undefined() []string {
	var names []string
	for _, s := range o.symbols {
		if !s.Defined {
			names = append(names, s.Name)
		}
	}
	return names
}

// Validate checks the structural invariants of the object file.
func (o *ObjectFile) Validate() error {
	if err := checkName("target", o.Target); err != nil {
		return err
	}
	for _, s := range o.symbols {
		if !s.Defined {
			continue
		}
		sec := o.Section(s.Section)
		if sec == nil {
			return errors.New("symbol %q: no section %q", s.Name, s.Section)
		}
		if s.Offset > sec.Len() {
			return errors.New("symbol %q: offset %d beyond section %q", s.Name, s.Offset, s.Section)
		}
	}
	for _, r := range o.relocations {
		if err := o.checkRelocation(r); err != nil {
			return err
		}
		if _, ok := o.symbolIndex[r.Symbol]; !ok {
			return errors.New("relocation at %s+%d: symbol %q not in table", r.Section, r.Offset, r.Symbol)
		}
	}
	return nil
}

func isPowerOfTwo(n uint32) bool {
	return n != 0 && n&(n-1) == 0
}
