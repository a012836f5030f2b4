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
	"math"
	"strings"

	"github.com/monistode/cli/pkg/target"
)

type parser struct {
	r      *lineByteReader
	t      target.Target
	peeked *token
	stmts  []Statement
}

// Parse splits src into statements for the named dialect. The dialect
// is looked up before the source is read. Mnemonics, operand counts and
// directive arguments are checked here; values are checked by Assemble.
func Parse(name string, src []byte, targetName string) ([]Statement, error) {
	t, err := target.Lookup(targetName)
	if err != nil {
		return nil, err
	}

	p := &parser{r: newLineByteReader(name, src), t: t}
	return p.parse()
}

func (p *parser) next() *token {
	if tk := p.peeked; tk != nil {
		p.peeked = nil
		return tk
	}
	return getToken(p.r)
}

func (p *parser) peek() *token {
	if p.peeked == nil {
		p.peeked = getToken(p.r)
	}
	return p.peeked
}

func (p *parser) fail(tk *token, format string, args ...interface{}) error {
	return &ParseError{Pos: tk.pos, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) parse() ([]Statement, error) {
	for {
		tk := p.next()
		switch tk.kind() {
		case tkEnd:
			return p.stmts, nil
		case tkNewline:
			continue
		case tkError:
			return nil, p.fail(tk, "%s", tk.text())
		case tkSymbol:
			if p.peek().kind() == tkColon {
				p.next()
				p.stmts = append(p.stmts, Label{Pos: tk.pos, Name: tk.text()})
				continue
			}
			if err := p.instruction(tk); err != nil {
				return nil, err
			}
		case tkDirective:
			if err := p.directive(tk); err != nil {
				return nil, err
			}
		default:
			return nil, p.fail(tk, "unexpected %s", tk.describe())
		}
	}
}

func (p *parser) instruction(tk *token) error {
	mnemonic := strings.ToLower(tk.text())
	in, ok := p.t.Instruction(mnemonic)
	if !ok {
		return p.fail(tk, "unknown instruction %q", tk.text())
	}

	ops, err := p.operands()
	if err != nil {
		return err
	}
	if len(ops) != len(in.Operands) {
		return p.fail(tk, "%s", operandCount(in, len(ops)))
	}
	for i, op := range ops {
		if _, ok := op.(String); ok {
			return p.fail(tk, "%s: operand %d: string not allowed", mnemonic, i+1)
		}
	}

	p.stmts = append(p.stmts, Instruction{Pos: tk.pos, Mnemonic: mnemonic, Operands: ops})
	return nil
}

func operandCount(in target.Instruction, found int) string {
	return fmt.Sprintf("%s expects %d operand(s), found %d", in.Mnemonic, len(in.Operands), found)
}

func (p *parser) directive(tk *token) error {
	name := strings.ToLower(tk.text())
	b, ok := builtins[name]
	if !ok {
		return p.fail(tk, "unknown directive %q", tk.text())
	}

	args, err := p.operands()
	if err != nil {
		return err
	}
	if reason := b.check(args); reason != "" {
		return p.fail(tk, "%s", reason)
	}

	p.stmts = append(p.stmts, Directive{Pos: tk.pos, Name: name, Args: args})
	return nil
}

// operands reads a comma separated list up to the end of the line.
func (p *parser) operands() ([]Operand, error) {
	if k := p.peek().kind(); k == tkNewline || k == tkEnd {
		p.next()
		return nil, nil
	}

	var ops []Operand
	for {
		op, err := p.operand()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)

		tk := p.next()
		switch tk.kind() {
		case tkComma:
			continue
		case tkNewline, tkEnd:
			return ops, nil
		case tkError:
			return nil, p.fail(tk, "%s", tk.text())
		}
		return nil, p.fail(tk, "expected comma or end of line, found %s", tk.describe())
	}
}

func (p *parser) operand() (Operand, error) {
	tk := p.next()
	switch tk.kind() {
	case tkNumber:
		return Number{Value: tk.tokenValue}, nil
	case tkMinus:
		n := p.next()
		if n.kind() != tkNumber {
			return nil, p.fail(n, "number expected after '-', found %s", n.describe())
		}
		return Number{Value: -n.tokenValue}, nil
	case tkString:
		return String{Text: tk.text()}, nil
	case tkSymbol:
		return p.symbolRef(tk)
	case tkError:
		return nil, p.fail(tk, "%s", tk.text())
	}
	return nil, p.fail(tk, "expected operand, found %s", tk.describe())
}

// symbolRef reads name, name+N or name-N.
func (p *parser) symbolRef(name *token) (Operand, error) {
	ref := SymbolRef{Name: name.text()}

	sign := int64(1)
	switch p.peek().kind() {
	case tkPlus:
	case tkMinus:
		sign = -1
	default:
		return ref, nil
	}
	p.next()

	n := p.next()
	if n.kind() != tkNumber {
		return nil, p.fail(n, "number expected after %s, found %s", name.text(), n.describe())
	}
	ref.Addend = sign * n.tokenValue
	if ref.Addend < math.MinInt32 || ref.Addend > math.MaxInt32 {
		return nil, p.fail(n, "addend %d out of range", ref.Addend)
	}
	return ref, nil
}
