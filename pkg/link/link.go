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

// Package link resolves a merged object file into an executable image
// for its target dialect.
package link

import (
	"context"

	"github.com/samber/lo"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/monistode/cli/pkg/obj"
	"github.com/monistode/cli/pkg/target"
)

// Link merges files in order and builds the result. The inputs are
// consumed.
func Link(ctx context.Context, files []*obj.ObjectFile) (*obj.Executable, error) {
	o, err := obj.MergeAll(files)
	if err != nil {
		return nil, err
	}
	return Build(ctx, o)
}

// Build lays out o, resolves every relocation and picks the entry point.
func Build(ctx context.Context, o *obj.ObjectFile) (exe *obj.Executable, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "link", "target", o.Target, "sections", len(o.Sections()), "symbols", len(o.Symbols()))
	defer tr.Finish("err", &err)

	t, err := target.Lookup(o.Target)
	if err != nil {
		return nil, err
	}

	l, err := Plan(o, t)
	if err != nil {
		return nil, err
	}

	if tr.If("link") {
		for _, p := range l.Sections {
			tr.Printw("section", "name", p.Section.Name, "kind", p.Section.Kind, "addr", p.Address, "size", p.Section.Len())
		}
	}

	if names := undefined(o); len(names) != 0 {
		return nil, &UndefinedSymbolsError{Names: names}
	}

	image := make([]byte, l.Size())
	for _, p := range l.Sections {
		copy(image[p.Address-l.Base:], p.Section.Data)
	}

	for _, r := range o.Relocations() {
		if err = patch(image, l, o, r); err != nil {
			return nil, err
		}
		tr.V("reloc").Printw("patched", "reloc", r)
	}

	entry, err := entryPoint(o, l, t)
	if err != nil {
		return nil, err
	}

	tr.Printw("linked", "base", l.Base, "entry", entry, "size", len(image))

	return &obj.Executable{
		Target: o.Target,
		Base:   l.Base,
		Entry:  entry,
		Image:  image,
	}, nil
}

// undefined collects the names nothing defines: undefined table entries
// first, then relocation symbols missing from the table.
func undefined(o *obj.ObjectFile) []string {
	names := o.Undefined()
	for _, r := range o.Relocations() {
		if o.Symbol(r.Symbol) == nil {
			names = append(names, r.Symbol)
		}
	}
	return lo.Uniq(names)
}

func symbolAddress(o *obj.ObjectFile, l *Layout, name string) (uint32, error) {
	sym := o.Symbol(name)
	if sym == nil || !sym.Defined {
		return 0, &UndefinedSymbolsError{Names: []string{name}}
	}
	base, ok := l.Address(sym.Section)
	if !ok {
		return 0, errors.New("symbol %s: section %s not in layout", name, sym.Section)
	}
	return base + sym.Offset, nil
}

// patch writes S+A, or S+A-(P+width) for relative kinds, at the site.
func patch(image []byte, l *Layout, o *obj.ObjectFile, r obj.Relocation) error {
	s, err := symbolAddress(o, l, r.Symbol)
	if err != nil {
		return err
	}
	secAddr, ok := l.Address(r.Section)
	if !ok {
		return errors.New("relocation %v: section not in layout", r)
	}
	p := secAddr + r.Offset

	val := int64(s) + int64(r.Addend)
	if r.Kind.Relative() {
		val -= int64(p) + int64(r.Kind.Width())
	}

	if min, max := r.Kind.Range(); val < min || val > max {
		return &RelocationOverflowError{
			Symbol:  r.Symbol,
			Section: r.Section,
			Offset:  r.Offset,
			Value:   val,
			Kind:    r.Kind,
		}
	}

	r.Kind.Put(image[p-l.Base:], val)
	return nil
}

func entryPoint(o *obj.ObjectFile, l *Layout, t target.Target) (uint32, error) {
	for _, name := range t.EntrySymbols() {
		if sym := o.Symbol(name); sym != nil && sym.Defined {
			return symbolAddress(o, l, name)
		}
	}
	return 0, &NoEntryPointError{Candidates: t.EntrySymbols()}
}
