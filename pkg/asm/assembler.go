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

// Package asm turns monistode assembly source into relocatable object
// files. Parse produces statements; Assemble encodes them for a target
// dialect, leaving every symbol operand to the linker.
package asm

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/monistode/cli/pkg/obj"
	"github.com/monistode/cli/pkg/target"
)

// ----------------------
// State of the assembler
// ----------------------

type assembler struct {
	t target.Target
	o *obj.ObjectFile

	cur *obj.Section

	consts  map[string]int64
	defined map[string]Pos // labels and constants

	limit int64 // bytes in the target's address space
}

func newAssembler(t target.Target) *assembler {
	return &assembler{
		t:       t,
		o:       obj.NewObjectFile(t.Name()),
		consts:  make(map[string]int64),
		defined: make(map[string]Pos),
		limit:   int64(1) << t.AddressBits(),
	}
}

// open returns the named section, creating it with the dialect's
// defaults. Unknown sections are data, byte aligned.
func (as *assembler) open(name string) *obj.Section {
	if s := as.o.Section(name); s != nil {
		return s
	}
	kind, align, ok := as.t.SectionDefaults(name)
	if !ok {
		kind, align = obj.KindData, 1
	}
	s, err := as.o.AddSection(name, kind, align)
	if err != nil {
		panic(fmt.Sprintf("target %s: section %s: %v", as.t.Name(), name, err))
	}
	return s
}

// section returns the section being assembled into. Output before any
// section directive goes to the dialect's default section.
func (as *assembler) section() *obj.Section {
	if as.cur == nil {
		as.cur = as.open(as.t.DefaultSection())
	}
	return as.cur
}

func (as *assembler) checkNew(name string, pos Pos) error {
	if prev, ok := as.defined[name]; ok {
		return &DuplicateSymbolError{Name: name, Pos: pos, Previous: prev}
	}
	return nil
}

func (as *assembler) label(l Label) error {
	if err := as.checkNew(l.Name, l.Pos); err != nil {
		return err
	}
	s := as.section()
	if _, err := as.o.DefineSymbol(l.Name, s.Name, s.Len()); err != nil {
		return errors.Wrap(err, "%v", l.Pos)
	}
	as.defined[l.Name] = l.Pos
	return nil
}

func (as *assembler) instruction(st Instruction) error {
	in, ok := as.t.Instruction(st.Mnemonic)
	if !ok {
		return &ParseError{st.Pos, fmt.Sprintf("unknown instruction %q", st.Mnemonic)}
	}
	if len(st.Operands) != len(in.Operands) {
		return &ParseError{st.Pos, operandCount(in, len(st.Operands))}
	}

	s := as.section()
	s.Data = append(s.Data, in.Opcode)
	for i, f := range in.Operands {
		if err := as.emitField(st.Pos, st.Operands[i], f); err != nil {
			return err
		}
	}
	return as.checkSize(st.Pos, s)
}

func (as *assembler) directive(d Directive) error {
	b, ok := builtins[d.Name]
	if !ok {
		return &ParseError{d.Pos, fmt.Sprintf("unknown directive %q", d.Name)}
	}
	if reason := b.check(d.Args); reason != "" {
		return &ParseError{d.Pos, reason}
	}
	return b.bAction(as, &d)
}

func (as *assembler) statement(st Statement) error {
	switch st := st.(type) {
	case Label:
		return as.label(st)
	case Directive:
		return as.directive(st)
	case Instruction:
		return as.instruction(st)
	}
	return errors.New("%v: unexpected statement %T", st.Position(), st)
}

// Assemble encodes stmts for t. Any error aborts the whole file; no
// partial object file is returned.
func Assemble(ctx context.Context, stmts []Statement, t target.Target) (o *obj.ObjectFile, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "assemble", "target", t.Name(), "statements", len(stmts))
	defer tr.Finish("err", &err)

	as := newAssembler(t)
	for _, st := range stmts {
		if tr.If("asm") {
			tr.Printw("statement", "pos", st.Position(), "type", tlog.NextAsType, st, "stmt", st)
		}

		if err = as.statement(st); err != nil {
			return nil, err
		}
	}

	if err = as.o.Validate(); err != nil {
		return nil, errors.Wrap(err, "assembled object")
	}

	tr.Printw("assembled", "sections", len(as.o.Sections()), "symbols", len(as.o.Symbols()), "relocations", len(as.o.Relocations()))

	return as.o, nil
}

// AssembleSource parses and assembles one source file.
func AssembleSource(ctx context.Context, name string, src []byte, targetName string) (*obj.ObjectFile, error) {
	stmts, err := Parse(name, src, targetName)
	if err != nil {
		return nil, err
	}
	t, err := target.Lookup(targetName)
	if err != nil {
		return nil, err
	}
	return Assemble(ctx, stmts, t)
}
