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

// Package sim runs stack dialect executables. The machine has 64k bytes
// of memory, a data stack of 16-bit words and a separate return stack.
package sim

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/monistode/cli/pkg/obj"
	"github.com/monistode/cli/pkg/target/stack"
)

const MemSize = 1 << 16

// Default depth of each stack, in words.
const DefaultStackDepth = 1024

var (
	ErrStepLimit = errors.New("step limit reached")
	ErrHalted    = errors.New("machine is halted")
)

type Mem []byte

type StackUnderflowError struct {
	PC    uint16
	Op    string
	Stack string // "data" or "return"
}

func (e *StackUnderflowError) Error() string {
	return fmt.Sprintf("pc 0x%04X: %s: %s stack underflow", e.PC, e.Op, e.Stack)
}

type StackOverflowError struct {
	PC    uint16
	Op    string
	Stack string
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("pc 0x%04X: %s: %s stack overflow", e.PC, e.Op, e.Stack)
}

type IllegalOpcodeError struct {
	PC     uint16
	Opcode byte
}

func (e *IllegalOpcodeError) Error() string {
	return fmt.Sprintf("pc 0x%04X: illegal opcode 0x%02X", e.PC, e.Opcode)
}

type Engine struct {
	mem Mem

	pc     uint16
	data   []uint16
	ret    []uint16
	depth  int
	halted bool
	steps  uint64

	in  io.ByteReader
	out io.Writer

	isa *stack.Stack
}

type Option func(e *Engine)

// WithInput sets where the in instruction reads from.
func WithInput(r io.Reader) Option {
	return func(e *Engine) {
		if br, ok := r.(io.ByteReader); ok {
			e.in = br
		} else {
			e.in = bufio.NewReader(r)
		}
	}
}

// WithOutput sets where the out instruction writes to.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

func WithStackDepth(n int) Option {
	return func(e *Engine) { e.depth = n }
}

// New loads exe at its base address and sets the program counter to its
// entry point.
func New(exe *obj.Executable, opts ...Option) (*Engine, error) {
	if exe.Target != stack.Name {
		return nil, errors.New("sim: cannot run %q executables", exe.Target)
	}
	if uint64(exe.Base)+uint64(len(exe.Image)) > MemSize {
		return nil, errors.New("sim: image 0x%X+%d does not fit in memory", exe.Base, len(exe.Image))
	}
	if exe.Entry >= MemSize {
		return nil, errors.New("sim: entry 0x%X outside memory", exe.Entry)
	}

	e := &Engine{
		mem:   make(Mem, MemSize),
		pc:    uint16(exe.Entry),
		depth: DefaultStackDepth,
		in:    strings.NewReader(""),
		out:   io.Discard,
		isa:   stack.New(),
	}
	copy(e.mem[exe.Base:], exe.Image)

	for _, o := range opts {
		o(e)
	}
	return e, nil
}

func (e *Engine) PC() uint16    { return e.pc }
func (e *Engine) Halted() bool  { return e.halted }
func (e *Engine) Steps() uint64 { return e.steps }

// Stack returns a copy of the data stack, bottom first.
func (e *Engine) Stack() []uint16 {
	return append([]uint16(nil), e.data...)
}

// Word reads the little-endian word at addr.
func (e *Engine) Word(addr uint16) uint16 {
	return uint16(e.mem[addr]) | uint16(e.mem[addr+1])<<8
}

func (e *Engine) setWord(addr, v uint16) {
	e.mem[addr] = byte(v)
	e.mem[addr+1] = byte(v >> 8)
}

func (e *Engine) fetch() byte {
	b := e.mem[e.pc]
	e.pc++
	return b
}

func (e *Engine) fetchWord() uint16 {
	lo := e.fetch()
	return uint16(lo) | uint16(e.fetch())<<8
}

type machineState struct {
	pc uint16
	op string
}

func (e *Engine) push(st machineState, v uint16) error {
	if len(e.data) >= e.depth {
		return &StackOverflowError{PC: st.pc, Op: st.op, Stack: "data"}
	}
	e.data = append(e.data, v)
	return nil
}

func (e *Engine) pop(st machineState) (uint16, error) {
	n := len(e.data)
	if n == 0 {
		return 0, &StackUnderflowError{PC: st.pc, Op: st.op, Stack: "data"}
	}
	v := e.data[n-1]
	e.data = e.data[:n-1]
	return v, nil
}

// popN pops n values and returns them bottom first.
func (e *Engine) popN(st machineState, n int) ([]uint16, error) {
	if len(e.data) < n {
		return nil, &StackUnderflowError{PC: st.pc, Op: st.op, Stack: "data"}
	}
	vals := append([]uint16(nil), e.data[len(e.data)-n:]...)
	e.data = e.data[:len(e.data)-n]
	return vals, nil
}

// Step executes one instruction. A failed step leaves the program
// counter at the faulting instruction.
func (e *Engine) Step() (err error) {
	if e.halted {
		return ErrHalted
	}

	start := e.pc
	op := e.fetch()
	in, ok := e.isa.Decode(op)
	if !ok {
		e.pc = start
		return &IllegalOpcodeError{PC: start, Opcode: op}
	}
	st := machineState{pc: start, op: in.Mnemonic}

	defer func() {
		if err != nil {
			e.pc = start
		} else {
			e.steps++
		}
	}()

	if f, ok := aluOps[op]; ok {
		v, err := e.popN(st, 2)
		if err != nil {
			return err
		}
		r, err := f(v[0], v[1])
		if err != nil {
			e.data = append(e.data, v...)
			return errors.Wrap(err, "pc 0x%04X: %s", start, in.Mnemonic)
		}
		return e.push(st, r)
	}
	if f, ok := unaryOps[op]; ok {
		a, err := e.pop(st)
		if err != nil {
			return err
		}
		return e.push(st, f(a))
	}

	switch op {
	case stack.OpHalt:
		e.halted = true
		return nil
	case stack.OpNop:
		return nil
	case stack.OpPush:
		return e.push(st, e.fetchWord())
	case stack.OpPushB:
		return e.push(st, uint16(int8(e.fetch()))) // sign extended
	case stack.OpPop:
		_, err := e.pop(st)
		return err
	case stack.OpDup, stack.OpOver, stack.OpSwap:
		return e.shuffle(st, op)

	case stack.OpLoad:
		return e.push(st, e.Word(e.fetchWord()))
	case stack.OpStore:
		addr := e.fetchWord()
		v, err := e.pop(st)
		if err != nil {
			return err
		}
		e.setWord(addr, v)
		return nil
	case stack.OpLoadI:
		addr, err := e.pop(st)
		if err != nil {
			return err
		}
		return e.push(st, e.Word(addr))
	case stack.OpStoreI:
		// value below, address on top
		v, err := e.popN(st, 2)
		if err != nil {
			return err
		}
		e.setWord(v[1], v[0])
		return nil

	case stack.OpJmp:
		e.pc = e.fetchWord()
		return nil
	case stack.OpJz, stack.OpJnz:
		addr := e.fetchWord()
		return e.branch(st, op == stack.OpJz, addr)
	case stack.OpCall:
		addr := e.fetchWord()
		if len(e.ret) >= e.depth {
			return &StackOverflowError{PC: st.pc, Op: st.op, Stack: "return"}
		}
		e.ret = append(e.ret, e.pc)
		e.pc = addr
		return nil
	case stack.OpRet:
		n := len(e.ret)
		if n == 0 {
			return &StackUnderflowError{PC: st.pc, Op: st.op, Stack: "return"}
		}
		e.pc = e.ret[n-1]
		e.ret = e.ret[:n-1]
		return nil
	case stack.OpBr:
		off := int8(e.fetch())
		e.pc += uint16(off)
		return nil
	case stack.OpBrz, stack.OpBrnz:
		off := int8(e.fetch())
		return e.branch(st, op == stack.OpBrz, e.pc+uint16(off))

	case stack.OpIn:
		e.fetch() // port
		b, err := e.in.ReadByte()
		if err == io.EOF {
			b, err = 0, nil
		}
		if err != nil {
			return errors.Wrap(err, "pc 0x%04X: in", start)
		}
		return e.push(st, uint16(b))
	case stack.OpOut:
		e.fetch() // port
		v, err := e.pop(st)
		if err != nil {
			return err
		}
		if _, err := e.out.Write([]byte{byte(v)}); err != nil {
			e.data = append(e.data, v)
			return errors.Wrap(err, "pc 0x%04X: out", start)
		}
		return nil
	}

	return &IllegalOpcodeError{PC: start, Opcode: op}
}

// branch pops a condition and jumps to addr if it is zero (or non-zero
// when onZero is false).
func (e *Engine) branch(st machineState, onZero bool, addr uint16) error {
	v, err := e.pop(st)
	if err != nil {
		return err
	}
	if (v == 0) == onZero {
		e.pc = addr
	}
	return nil
}

func (e *Engine) shuffle(st machineState, op byte) error {
	switch op {
	case stack.OpDup:
		v, err := e.popN(st, 1)
		if err != nil {
			return err
		}
		e.data = append(e.data, v[0])
		return e.push(st, v[0])
	case stack.OpSwap:
		v, err := e.popN(st, 2)
		if err != nil {
			return err
		}
		e.data = append(e.data, v[1], v[0])
		return nil
	}
	// over
	v, err := e.popN(st, 2)
	if err != nil {
		return err
	}
	e.data = append(e.data, v[0], v[1])
	return e.push(st, v[0])
}

// Run steps until the machine halts, maxSteps instructions have run
// (zero means no limit), or ctx is done.
func (e *Engine) Run(ctx context.Context, maxSteps uint64) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "sim: run", "entry", e.pc, "max_steps", maxSteps)
	defer tr.Finish("err", &err)

	for !e.halted {
		if maxSteps != 0 && e.steps >= maxSteps {
			return ErrStepLimit
		}
		if err = ctx.Err(); err != nil {
			return err
		}

		if tr.If("sim") {
			in, _ := e.isa.Decode(e.mem[e.pc])
			tr.Printw("step", "pc", e.pc, "op", in.Mnemonic, "stack", e.data)
		}

		if err = e.Step(); err != nil {
			return err
		}
	}

	return nil
}
