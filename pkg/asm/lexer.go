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
	"strconv"
	"strings"
)

// Token kinds
const (
	tkError = iota
	tkSymbol
	tkDirective
	tkNumber
	tkString
	tkComma
	tkColon
	tkPlus
	tkMinus
	tkNewline
	tkEnd
)

var kindToString = []string{
	"error",
	"symbol",
	"directive",
	"number",
	"string",
	"comma",
	"colon",
	"plus",
	"minus",
	"newline",
	"end",
}

// Longest symbol or directive name. Names are stored with a 16-bit
// length in object files but nobody needs more than this.
const maxNameLen = 255

type token struct {
	tokenText  string
	tokenKind  int
	tokenValue int64 // tkNumber only
	pos        Pos
}

func (t *token) String() string {
	return fmt.Sprintf("{%s %s}", kindToString[t.tokenKind], t.tokenText)
}

func (t *token) text() string {
	return t.tokenText
}

func (t *token) kind() int {
	return t.tokenKind
}

// describe names the token for error messages.
func (t *token) describe() string {
	switch t.tokenKind {
	case tkNewline:
		return "end of line"
	case tkEnd:
		return "end of file"
	case tkString:
		return strconv.Quote(t.tokenText)
	}
	return fmt.Sprintf("%q", t.tokenText)
}

// ----------------
// Line byte reader
// ----------------

// lineByteReader hands out source bytes and keeps the position of the
// next byte. Only one byte of push back is supported.
type lineByteReader struct {
	name string
	src  []byte
	off  int
	line int
	col  int

	prevCol int
}

func newLineByteReader(name string, src []byte) *lineByteReader {
	return &lineByteReader{name: name, src: src, line: 1, col: 1}
}

func (r *lineByteReader) pos() Pos {
	return Pos{File: r.name, Line: r.line, Column: r.col}
}

// readByte returns the next byte, or ok == false at end of input.
func (r *lineByteReader) readByte() (b byte, ok bool) {
	if r.off >= len(r.src) {
		return 0, false
	}
	b = r.src[r.off]
	r.off++
	r.prevCol = r.col
	if b == '\n' {
		r.line++
		r.col = 1
	} else {
		r.col++
	}
	return b, true
}

func (r *lineByteReader) unreadByte() {
	r.off--
	if r.src[r.off] == '\n' {
		r.line--
	}
	r.col = r.prevCol
}

func (r *lineByteReader) peekByte() (byte, bool) {
	if r.off >= len(r.src) {
		return 0, false
	}
	return r.src[r.off], true
}

// -----
// Lexer
// -----

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b == '_'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isNameByte(b byte) bool {
	return isLetter(b) || isDigit(b) || b == '.' || b == '$'
}

func getToken(r *lineByteReader) *token {
	for {
		start := r.pos()
		b, ok := r.readByte()
		if !ok {
			return &token{tokenKind: tkEnd, pos: start}
		}

		switch {
		case b == ' ' || b == '\t' || b == '\r':
			continue
		case b == ';' || b == '#':
			skipComment(r)
			continue
		case b == '\n':
			return &token{tokenText: "\n", tokenKind: tkNewline, pos: start}
		case b == ',':
			return &token{tokenText: ",", tokenKind: tkComma, pos: start}
		case b == ':':
			return &token{tokenText: ":", tokenKind: tkColon, pos: start}
		case b == '+':
			return &token{tokenText: "+", tokenKind: tkPlus, pos: start}
		case b == '-':
			return &token{tokenText: "-", tokenKind: tkMinus, pos: start}
		case b == '"':
			return getString(r, start)
		case b == '\'':
			return getChar(r, start)
		case isDigit(b):
			r.unreadByte()
			return getNumber(r, start)
		case isLetter(b) || b == '.':
			r.unreadByte()
			return getName(r, start)
		}

		if b >= 0x80 {
			return &token{tokenText: "illegal character", tokenKind: tkError, pos: start}
		}
		return &token{
			tokenText: fmt.Sprintf("character 0x%02X (%c) unexpected", b, b),
			tokenKind: tkError,
			pos:       start,
		}
	}
}

func skipComment(r *lineByteReader) {
	for {
		b, ok := r.peekByte()
		if !ok || b == '\n' {
			return
		}
		r.readByte()
	}
}

func scanWhile(r *lineByteReader, pred func(byte) bool) string {
	var sb strings.Builder
	for {
		b, ok := r.peekByte()
		if !ok || !pred(b) {
			return sb.String()
		}
		r.readByte()
		sb.WriteByte(b)
	}
}

func getName(r *lineByteReader, start Pos) *token {
	name := scanWhile(r, isNameByte)
	if len(name) > maxNameLen {
		return &token{tokenText: fmt.Sprintf("name longer than %d bytes", maxNameLen), tokenKind: tkError, pos: start}
	}
	if name[0] == '.' {
		if len(name) == 1 {
			return &token{tokenText: "directive name expected after '.'", tokenKind: tkError, pos: start}
		}
		return &token{tokenText: name, tokenKind: tkDirective, pos: start}
	}
	return &token{tokenText: name, tokenKind: tkSymbol, pos: start}
}

// getNumber reads decimal, 0x hex, 0b binary and 0o octal literals.
// A leading zero does not mean octal.
func getNumber(r *lineByteReader, start Pos) *token {
	text := scanWhile(r, func(b byte) bool { return isLetter(b) || isDigit(b) })

	digits, base := text, 10
	if len(text) > 2 && text[0] == '0' {
		switch text[1] {
		case 'x', 'X':
			digits, base = text[2:], 16
		case 'b', 'B':
			digits, base = text[2:], 2
		case 'o', 'O':
			digits, base = text[2:], 8
		}
	}

	n, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		reason := "invalid number"
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			reason = "number out of range"
		}
		return &token{tokenText: fmt.Sprintf("%s: %s", reason, text), tokenKind: tkError, pos: start}
	}
	return &token{tokenText: text, tokenKind: tkNumber, tokenValue: n, pos: start}
}

// getEscape is called after a backslash.
func getEscape(r *lineByteReader) (byte, bool) {
	b, ok := r.readByte()
	if !ok {
		return 0, false
	}
	switch b {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '0':
		return 0, true
	case '\\', '\'', '"':
		return b, true
	}
	return 0, false
}

func getString(r *lineByteReader, start Pos) *token {
	var sb strings.Builder
	for {
		b, ok := r.readByte()
		if !ok || b == '\n' {
			return &token{tokenText: "unterminated string literal", tokenKind: tkError, pos: start}
		}
		switch b {
		case '"':
			return &token{tokenText: sb.String(), tokenKind: tkString, pos: start}
		case '\\':
			e, ok := getEscape(r)
			if !ok {
				return &token{tokenText: "invalid escape in string literal", tokenKind: tkError, pos: start}
			}
			b = e
		}
		sb.WriteByte(b)
	}
}

func getChar(r *lineByteReader, start Pos) *token {
	b, ok := r.readByte()
	if !ok || b == '\n' || b == '\'' {
		return &token{tokenText: "invalid character literal", tokenKind: tkError, pos: start}
	}
	if b == '\\' {
		if b, ok = getEscape(r); !ok {
			return &token{tokenText: "invalid escape in character literal", tokenKind: tkError, pos: start}
		}
	}
	if c, ok := r.readByte(); !ok || c != '\'' {
		return &token{tokenText: "unterminated character literal", tokenKind: tkError, pos: start}
	}
	return &token{tokenText: fmt.Sprintf("'%c'", b), tokenKind: tkNumber, tokenValue: int64(b), pos: start}
}
