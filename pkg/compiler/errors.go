package compiler

import (
	"errors"
	"fmt"

	"github.com/psaab/cmdgraph/pkg/lexer"
)

// Sentinel errors for errors.Is. Every error returned by Compile matches
// exactly one of them.
var (
	ErrSyntax           = errors.New("syntax error")
	ErrMalformedRange   = errors.New("malformed range")
	ErrDuplicateCommand = errors.New("duplicate command")
)

// SyntaxError reports a token stream that does not fit the grammar.
type SyntaxError struct {
	Token lexer.Token
	Msg   string
}

func (e *SyntaxError) Error() string {
	if e.Token.Type == lexer.TokenEOF {
		return fmt.Sprintf("syntax error at end of input: %s", e.Msg)
	}
	return fmt.Sprintf("syntax error at column %d near %s: %s", e.Token.Column, e.Token, e.Msg)
}

// Is matches ErrSyntax.
func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// RangeError reports range bounds that are not two integers.
type RangeError struct {
	Text   string
	Column int
	Reason string
}

func (e *RangeError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("malformed range %q at column %d: %s", e.Text, e.Column, e.Reason)
	}
	return fmt.Sprintf("malformed range %q: %s", e.Text, e.Reason)
}

// Is matches ErrMalformedRange.
func (e *RangeError) Is(target error) bool { return target == ErrMalformedRange }

// DuplicateError reports a command whose full token sequence is already
// terminated. Existing is the payload that keeps the position.
type DuplicateError struct {
	Command  string
	Existing any
}

func (e *DuplicateError) Error() string {
	if e.Existing == nil {
		return fmt.Sprintf("duplicate command %q", e.Command)
	}
	return fmt.Sprintf("duplicate command %q (already defined by %v)", e.Command, e.Existing)
}

// Is matches ErrDuplicateCommand.
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicateCommand }

// Outcome labels a compilation result: "compiled", "syntax",
// "malformed_range", "duplicate" or "error" for anything else.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "compiled"
	case errors.Is(err, ErrSyntax):
		return "syntax"
	case errors.Is(err, ErrMalformedRange):
		return "malformed_range"
	case errors.Is(err, ErrDuplicateCommand):
		return "duplicate"
	default:
		return "error"
	}
}
