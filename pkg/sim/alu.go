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

package sim

import (
	"tlog.app/go/errors"

	"github.com/monistode/cli/pkg/target/stack"
)

var ErrDivideByZero = errors.New("divide by zero")

// ALU operations pop b, then a, and push f(a, b). Comparisons are
// signed and produce 1 or 0.
type aluFunc func(a, b uint16) (uint16, error)

var aluOps = map[byte]aluFunc{
	stack.OpAdd: doAdd,
	stack.OpSub: doSub,
	stack.OpMul: doMul,
	stack.OpDiv: doDiv,
	stack.OpMod: doMod,
	stack.OpAnd: doAnd,
	stack.OpOr:  doOr,
	stack.OpXor: doXor,
	stack.OpShl: doShl,
	stack.OpShr: doShr,
	stack.OpEq:  doEq,
	stack.OpLt:  doLt,
	stack.OpGt:  doGt,
}

// Unary operations replace the top of the stack.
var unaryOps = map[byte]func(a uint16) uint16{
	stack.OpNot: func(a uint16) uint16 { return ^a },
	stack.OpNeg: func(a uint16) uint16 { return -a },
}

func flag(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

func doAdd(a, b uint16) (uint16, error) { return a + b, nil }
func doSub(a, b uint16) (uint16, error) { return a - b, nil }
func doMul(a, b uint16) (uint16, error) { return a * b, nil }

// Division is unsigned.
func doDiv(a, b uint16) (uint16, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

func doMod(a, b uint16) (uint16, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a % b, nil
}

func doAnd(a, b uint16) (uint16, error) { return a & b, nil }
func doOr(a, b uint16) (uint16, error)  { return a | b, nil }
func doXor(a, b uint16) (uint16, error) { return a ^ b, nil }

// Shift counts use the low four bits. Right shifts are logical.
func doShl(a, b uint16) (uint16, error) { return a << (b & 0xF), nil }
func doShr(a, b uint16) (uint16, error) { return a >> (b & 0xF), nil }

func doEq(a, b uint16) (uint16, error) { return flag(a == b), nil }
func doLt(a, b uint16) (uint16, error) { return flag(int16(a) < int16(b)), nil }
func doGt(a, b uint16) (uint16, error) { return flag(int16(a) > int16(b)), nil }
