package types

import "strconv"

// String is an owned, immutable sequence of bytes. Unlike the original C
// implementation, where a String value owned a heap-allocated, NUL-terminated
// buffer that had to be explicitly released, a Go string already has
// by-value copy semantics and is garbage collected, so "copy" and "release"
// fall out of ordinary assignment: see spec §3 and §9 ("pointer-rich
// statement records... map cleanly to ownership").
type String string

var _ Value = String("")

func (s String) String() string { return string(s) }
func (s String) Type() string   { return "string" }

// Quoted returns the value as a Go-quoted string literal (strconv.Quote),
// for diagnostics. LIST and SAVE do not use it: they emit the original
// source text.
func (s String) Quoted() string { return strconv.Quote(string(s)) }
