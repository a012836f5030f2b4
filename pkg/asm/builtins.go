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
	"fmt"

	"github.com/monistode/cli/pkg/obj"
	"github.com/monistode/cli/pkg/target"
)

// Argument shapes checked by the parser.
type argKind int

const (
	argValue  argKind = iota // number, constant or symbol reference
	argName                  // bare name or string
	argString                // string literal
)

type actionFunc func(as *assembler, d *Directive) error

type builtin struct {
	bName   string
	bArgs   []argKind // the last kind repeats for variadic builtins
	bMin    int
	bMax    int // < 0 means no limit
	bAction actionFunc
}

func newBuiltin(name string, args []argKind, min, max int, action actionFunc) *builtin {
	return &builtin{name, args, min, max, action}
}

func (b *builtin) argKind(i int) argKind {
	if i < len(b.bArgs) {
		return b.bArgs[i]
	}
	return b.bArgs[len(b.bArgs)-1]
}

// check returns a reason if args do not fit the builtin, or "".
func (b *builtin) check(args []Operand) string {
	n := len(args)
	if n < b.bMin || b.bMax >= 0 && n > b.bMax {
		switch {
		case b.bMax == 0:
			return fmt.Sprintf("%s takes no arguments", b.bName)
		case b.bMax < 0:
			return fmt.Sprintf("%s expects at least %d argument(s)", b.bName, b.bMin)
		case b.bMin == b.bMax:
			return fmt.Sprintf("%s expects %d argument(s), found %d", b.bName, b.bMin, n)
		}
		return fmt.Sprintf("%s expects %d to %d arguments, found %d", b.bName, b.bMin, b.bMax, n)
	}
	for i, a := range args {
		ok := false
		switch b.argKind(i) {
		case argValue:
			switch a.(type) {
			case Number, SymbolRef:
				ok = true
			}
		case argName:
			switch a := a.(type) {
			case SymbolRef:
				ok = a.Addend == 0
			case String:
				ok = a.Text != "" && len(a.Text) <= maxNameLen
			}
		case argString:
			_, ok = a.(String)
		}
		if !ok {
			return fmt.Sprintf("%s: argument %d (%v) has the wrong form", b.bName, i+1, a)
		}
	}
	return ""
}

func nameOf(op Operand) string {
	switch op := op.(type) {
	case SymbolRef:
		return op.Name
	case String:
		return op.Text
	}
	return ""
}

// action func for .text and .data. Switch to the dialect's section of
// the same name.
func actionPredefined(as *assembler, d *Directive) error {
	name := d.Name[1:]
	if _, _, ok := as.t.SectionDefaults(name); !ok {
		return &DirectiveError{d.Pos, d.Name, fmt.Sprintf("target %s has no %s section", as.t.Name(), name)}
	}
	as.cur = as.open(name)
	return nil
}

// action func for the .section builtin.
// .section name [, code|data [, align]]
func actionSection(as *assembler, d *Directive) error {
	name := nameOf(d.Args[0])
	s := as.o.Section(name)

	if len(d.Args) > 1 {
		kindName := nameOf(d.Args[1])
		kind, ok := obj.ParseSectionKind(kindName)
		if !ok {
			return &DirectiveError{d.Pos, d.Name, fmt.Sprintf("unknown section kind %q", kindName)}
		}
		if s == nil {
			want, align, ok := as.t.SectionDefaults(name)
			if ok && want != kind {
				return &DirectiveError{d.Pos, d.Name, fmt.Sprintf("section %q is %v, not %v", name, want, kind)}
			}
			if !ok {
				align = 1
			}
			var err error
			if s, err = as.o.AddSection(name, kind, align); err != nil {
				return &DirectiveError{d.Pos, d.Name, err.Error()}
			}
		} else if s.Kind != kind {
			return &DirectiveError{d.Pos, d.Name, fmt.Sprintf("section %q is %v, not %v", name, s.Kind, kind)}
		}
	}
	if s == nil {
		s = as.open(name)
	}

	if len(d.Args) > 2 {
		align, err := as.constant(d.Pos, d.Args[2])
		if err != nil {
			return err
		}
		if err := as.raiseAlign(d, s, align); err != nil {
			return err
		}
	}

	as.cur = s
	return nil
}

// action func for .global and .globl.
func actionGlobal(as *assembler, d *Directive) error {
	for _, a := range d.Args {
		name := nameOf(a)
		if _, ok := as.consts[name]; ok {
			return &DirectiveError{d.Pos, d.Name, fmt.Sprintf("%q is a constant", name)}
		}
		if err := as.o.SetVisibility(name, obj.Global); err != nil {
			return &DirectiveError{d.Pos, d.Name, err.Error()}
		}
	}
	return nil
}

// action func for .extern. The names become undefined global entries
// unless this file defines them.
func actionExtern(as *assembler, d *Directive) error {
	return actionGlobal(as, d)
}

// action func for the .set builtin. Constants are evaluated now, so the
// value may only use numbers and constants set earlier.
func actionSet(as *assembler, d *Directive) error {
	name := nameOf(d.Args[0])
	if err := as.checkNew(name, d.Pos); err != nil {
		return err
	}
	if as.o.Symbol(name) != nil {
		return &DirectiveError{d.Pos, d.Name, fmt.Sprintf("%q is used as a symbol before .set", name)}
	}
	val, err := as.constant(d.Pos, d.Args[1])
	if err != nil {
		return err
	}
	as.consts[name] = val
	as.defined[name] = d.Pos
	return nil
}

func actionByte(as *assembler, d *Directive) error {
	for _, a := range d.Args {
		if err := as.emitField(d.Pos, a, target.FieldImm8); err != nil {
			return err
		}
	}
	return nil
}

func actionWord(as *assembler, d *Directive) error {
	for _, a := range d.Args {
		if err := as.emitField(d.Pos, a, target.FieldImm16); err != nil {
			return err
		}
	}
	return nil
}

func actionASCII(as *assembler, d *Directive) error {
	s := as.section()
	for _, a := range d.Args {
		s.Data = append(s.Data, a.(String).Text...)
		if d.Name == ".asciz" {
			s.Data = append(s.Data, 0)
		}
	}
	return as.checkSize(d.Pos, s)
}

// action func for .space n [, fill].
func actionSpace(as *assembler, d *Directive) error {
	n, err := as.constant(d.Pos, d.Args[0])
	if err != nil {
		return err
	}
	if n < 0 {
		return &DirectiveError{d.Pos, d.Name, fmt.Sprintf("negative size %d", n)}
	}
	if n > as.limit {
		return &DirectiveError{d.Pos, d.Name, fmt.Sprintf("size %d exceeds the address space", n)}
	}

	var fill int64
	if len(d.Args) > 1 {
		if fill, err = as.constant(d.Pos, d.Args[1]); err != nil {
			return err
		}
		if min, max := target.FieldImm8.Range(); fill < min || fill > max {
			return &ValueOutOfRangeError{d.Pos, target.FieldImm8.Bits(), fill}
		}
	}

	s := as.section()
	for i := int64(0); i < n; i++ {
		s.Data = append(s.Data, byte(fill))
	}
	return as.checkSize(d.Pos, s)
}

// action func for .align n. Pads the current section with zero bytes
// and raises the section's alignment so the padding holds after linking.
func actionAlign(as *assembler, d *Directive) error {
	n, err := as.constant(d.Pos, d.Args[0])
	if err != nil {
		return err
	}
	s := as.section()
	if err := as.raiseAlign(d, s, n); err != nil {
		return err
	}
	for int64(len(s.Data))%n != 0 {
		s.Data = append(s.Data, 0)
	}
	return nil
}

// Key symbols. All of them start with a dot.
var (
	builtinText    = newBuiltin(".text", nil, 0, 0, actionPredefined)
	builtinData    = newBuiltin(".data", nil, 0, 0, actionPredefined)
	builtinSection = newBuiltin(".section", []argKind{argName, argName, argValue}, 1, 3, actionSection)
	builtinGlobal  = newBuiltin(".global", []argKind{argName}, 1, -1, actionGlobal)
	builtinGlobl   = newBuiltin(".globl", []argKind{argName}, 1, -1, actionGlobal)
	builtinExtern  = newBuiltin(".extern", []argKind{argName}, 1, -1, actionExtern)
	builtinSet     = newBuiltin(".set", []argKind{argName, argValue}, 2, 2, actionSet)
	builtinByte    = newBuiltin(".byte", []argKind{argValue}, 1, -1, actionByte)
	builtinWord    = newBuiltin(".word", []argKind{argValue}, 1, -1, actionWord)
	builtinASCII   = newBuiltin(".ascii", []argKind{argString}, 1, -1, actionASCII)
	builtinASCIZ   = newBuiltin(".asciz", []argKind{argString}, 1, -1, actionASCII)
	builtinSpace   = newBuiltin(".space", []argKind{argValue}, 1, 2, actionSpace)
	builtinAlign   = newBuiltin(".align", []argKind{argValue}, 1, 1, actionAlign)
)

var builtins = map[string]*builtin{}

func registerBuiltins() {
	for _, b := range []*builtin{
		builtinText, builtinData, builtinSection,
		builtinGlobal, builtinGlobl, builtinExtern,
		builtinSet,
		builtinByte, builtinWord, builtinASCII, builtinASCIZ,
		builtinSpace, builtinAlign,
	} {
		builtins[b.bName] = b
	}
}

func init() {
	registerBuiltins()
}
