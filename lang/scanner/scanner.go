// Some of the scanner package's structure (the advance/peek cursor, the
// table-driven switch over punctuation) is adapted from the Go source code:
// https://cs.opensource.google/go/go/+/refs/tags/go1.22.1:src/go/scanner/scanner.go
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scanner implements lexical analysis of a single BASIC source line
// (spec §4.1). Unlike a general-purpose language's scanner, this one never
// crosses a line boundary: a statement is compiled one line at a time, and
// the line itself is handed to the scanner as a byte slice with no trailing
// newline.
package scanner

import (
	"fmt"
	"strconv"

	"github.com/mna/dbi/lang/token"
)

// ErrorList accumulates scanner/compiler errors for a single line, in the
// style of go/scanner.ErrorList.
type ErrorList []error

func (el *ErrorList) Add(err error) { *el = append(*el, err) }
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0], len(el)-1)
}

// Unwrap allows errors.Is/As to range over the accumulated errors.
func (el ErrorList) Unwrap() []error { return el }

// Scanner tokenizes a single line of BASIC source.
type Scanner struct {
	src []byte
	err func(off int, msg string)

	off int // offset of the start of the token currently being scanned
	roff int // read offset (next unread byte)
	cur  byte
}

// Init prepares s to scan src, a single line with no trailing newline. Errors
// encountered during scanning are reported by calling errHandler with the
// byte offset within the line and a message.
func (s *Scanner) Init(src []byte, errHandler func(off int, msg string)) {
	s.src = src
	s.err = errHandler
	s.off = 0
	s.roff = 0
	s.cur = 0
	s.advance()
}

func (s *Scanner) advance() {
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		s.cur = 0
		return
	}
	s.off = s.roff
	s.cur = s.src[s.roff]
	s.roff++
}

func (s *Scanner) peek() byte {
	if s.roff < len(s.src) {
		return s.src[s.roff]
	}
	return 0
}

func (s *Scanner) atEOF() bool { return s.off >= len(s.src) }

func (s *Scanner) error(off int, format string, args ...any) {
	if s.err != nil {
		s.err(off, fmt.Sprintf(format, args...))
	}
}

// Offset returns the current byte offset of the scanner's cursor within the
// line, which the compiler uses to quote the unscanned remainder of the line
// in diagnostics.
func (s *Scanner) Offset() int { return s.off }

// Scan returns the next token in the line, along with its literal value (for
// IDENT, INT and STRING tokens).
func (s *Scanner) Scan(val *token.Value) token.Token {
	s.skipSpace()

	start := s.off
	if s.atEOF() {
		return token.EOF
	}

	switch c := s.cur; {
	case isLetter(c):
		lit := s.ident()
		upper := toUpper(lit)
		if tok, ok := token.Lookup(upper); ok {
			*val = token.Value{Name: upper}
			return tok
		}
		*val = token.Value{Name: upper}
		return token.IDENT

	case isDigit(c):
		return s.number(val)

	case c == '"':
		return s.stringLiteral(val)

	default:
		s.advance() // always make progress
		switch c {
		case '+':
			return token.PLUS
		case '-':
			return token.MINUS
		case '*':
			return token.STAR
		case '/':
			return token.SLASH
		case '(':
			return token.LPAREN
		case ')':
			return token.RPAREN
		case ',':
			return token.COMMA
		case ':':
			return token.COLON
		case '=':
			return token.EQ
		case '<':
			if s.cur == '=' {
				s.advance()
				return token.LE
			}
			if s.cur == '>' {
				s.advance()
				return token.NEQ
			}
			return token.LT
		case '>':
			if s.cur == '=' {
				s.advance()
				return token.GE
			}
			if s.cur == '<' {
				s.advance()
				return token.NEQ
			}
			return token.GT
		default:
			s.error(start, "illegal character %q", c)
			return token.ILLEGAL
		}
	}
}

func (s *Scanner) skipSpace() {
	for !s.atEOF() && (s.cur == ' ' || s.cur == '\t') {
		s.advance()
	}
}

func (s *Scanner) ident() string {
	start := s.off
	for isLetter(s.cur) || isDigit(s.cur) {
		s.advance()
	}
	return string(s.src[start:s.off])
}

// number scans an unsigned decimal integer literal. A leading sign is never
// part of the literal at the scanner level: the compiler's expression parser
// folds a leading MINUS into the following INT literal as a compile-time
// constant when it appears in operand position (spec §4.2).
func (s *Scanner) number(val *token.Value) token.Token {
	start := s.off
	for isDigit(s.cur) {
		s.advance()
	}
	lit := string(s.src[start:s.off])
	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		s.error(start, "integer literal out of range: %s", lit)
		n = 0
	}
	*val = token.Value{Int: n}
	return token.INT
}

// stringLiteral scans a string delimited by double quotes. No escape
// sequences are supported (spec §4.1); an unterminated string is an error.
func (s *Scanner) stringLiteral(val *token.Value) token.Token {
	start := s.off
	s.advance() // consume opening quote
	contentStart := s.off
	for s.cur != '"' {
		if s.atEOF() {
			s.error(start, "unterminated string literal")
			*val = token.Value{Str: string(s.src[contentStart:s.off])}
			return token.STRING
		}
		s.advance()
	}
	str := string(s.src[contentStart:s.off])
	s.advance() // consume closing quote
	*val = token.Value{Str: str}
	return token.STRING
}

func isLetter(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }
func isDigit(c byte) bool  { return '0' <= c && c <= '9' }

func toUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
