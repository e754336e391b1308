// Package lexer tokenizes command-definition format strings.
//
// A format string such as
//
//	show ip route [A.B.C.D|A.B.C.D/M] vlan(1-4094) <WORD|X:X::X:X>
//
// is split into words, numbers, typed placeholders, range literals and the
// group punctuation used by the compiler.
package lexer

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenWord       TokenType = iota // literal keyword
	TokenNumber                      // literal integer
	TokenIPv4                        // A.B.C.D
	TokenIPv4Prefix                  // A.B.C.D/M
	TokenIPv6                        // X:X::X:X
	TokenIPv6Prefix                  // X:X::X:X/M
	TokenVariable                    // WORD, IFNAME, ...
	TokenRange                       // (1-99), vlan(1-4094)
	TokenLBracket                    // [
	TokenRBracket                    // ]
	TokenLAngle                      // <
	TokenRAngle                      // >
	TokenPipe                        // |
	TokenEOF
	TokenError
)

// Placeholder spellings recognized verbatim.
const (
	IPv4Text       = "A.B.C.D"
	IPv4PrefixText = "A.B.C.D/M"
	IPv6Text       = "X:X::X:X"
	IPv6PrefixText = "X:X::X:X/M"
)

// maxNumberDigits bounds the length of a numeric literal.
const maxNumberDigits = 20

func (t TokenType) String() string {
	switch t {
	case TokenWord:
		return "word"
	case TokenNumber:
		return "number"
	case TokenIPv4:
		return "ipv4"
	case TokenIPv4Prefix:
		return "ipv4-prefix"
	case TokenIPv6:
		return "ipv6"
	case TokenIPv6Prefix:
		return "ipv6-prefix"
	case TokenVariable:
		return "variable"
	case TokenRange:
		return "range"
	case TokenLBracket:
		return "'['"
	case TokenRBracket:
		return "']'"
	case TokenLAngle:
		return "'<'"
	case TokenRAngle:
		return "'>'"
	case TokenPipe:
		return "'|'"
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "error"
	default:
		return "unknown"
	}
}

// IsPunct reports whether t is one of the group delimiters.
func (t TokenType) IsPunct() bool {
	switch t {
	case TokenLBracket, TokenRBracket, TokenLAngle, TokenRAngle, TokenPipe:
		return true
	}
	return false
}

// Token is a single lexer token.
type Token struct {
	Type   TokenType
	Value  string
	Column int
}

func (t Token) String() string {
	if t.Type.IsPunct() || t.Type == TokenEOF {
		return t.Type.String()
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Value)
}

// TokenSource yields classified tokens, ending with TokenEOF.
type TokenSource interface {
	Next() Token
}

// Lexer tokenizes a single format string.
type Lexer struct {
	input string
	pos   int
}

// New creates a new Lexer for the given format string.
func New(input string) *Lexer {
	return &Lexer{input: input}
}

// Next returns the next token, advancing the position.
func (l *Lexer) Next() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Column: l.pos + 1}
	}

	ch := l.input[l.pos]
	col := l.pos + 1

	switch ch {
	case '[':
		l.pos++
		return Token{Type: TokenLBracket, Value: "[", Column: col}
	case ']':
		l.pos++
		return Token{Type: TokenRBracket, Value: "]", Column: col}
	case '<':
		l.pos++
		return Token{Type: TokenLAngle, Value: "<", Column: col}
	case '>':
		l.pos++
		return Token{Type: TokenRAngle, Value: ">", Column: col}
	case '|':
		l.pos++
		return Token{Type: TokenPipe, Value: "|", Column: col}
	case '(':
		return l.readRange(l.pos, col)
	default:
		if isIdentChar(ch) {
			return l.readIdentifier(col)
		}
		l.pos++
		return Token{
			Type:   TokenError,
			Value:  fmt.Sprintf("unexpected character: %c", ch),
			Column: col,
		}
	}
}

// All drains the lexer, returning every token up to and including
// TokenEOF or the first TokenError.
func (l *Lexer) All() []Token {
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			return toks
		}
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

// readRange consumes through the closing ')'. The bounds are not
// validated here; the compiler decomposes them.
func (l *Lexer) readRange(start, col int) Token {
	end := strings.IndexByte(l.input[l.pos:], ')')
	if end < 0 {
		l.pos = len(l.input)
		return Token{Type: TokenError, Value: "unterminated range", Column: col}
	}
	l.pos += end + 1
	return Token{Type: TokenRange, Value: l.input[start:l.pos], Column: col}
}

func (l *Lexer) readIdentifier(col int) Token {
	start := l.pos
	for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
		l.pos++
	}
	// name(1-10) is a single range token
	if l.pos < len(l.input) && l.input[l.pos] == '(' {
		return l.readRange(start, col)
	}
	text := l.input[start:l.pos]
	return Token{Type: Classify(text), Value: text, Column: col}
}

// Classify returns the token type for a run of identifier characters.
func Classify(text string) TokenType {
	switch text {
	case IPv4Text:
		return TokenIPv4
	case IPv4PrefixText:
		return TokenIPv4Prefix
	case IPv6Text:
		return TokenIPv6
	case IPv6PrefixText:
		return TokenIPv6Prefix
	}
	if isNumber(text) {
		return TokenNumber
	}
	if isVariable(text) {
		return TokenVariable
	}
	return TokenWord
}

func isNumber(text string) bool {
	digits := strings.TrimLeft(text, "+-")
	if len(text)-len(digits) > 1 || digits == "" || len(digits) > maxNumberDigits {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

// isVariable matches [A-Z][-_a-zA-Z:0-9]+.
func isVariable(text string) bool {
	if len(text) < 2 || text[0] < 'A' || text[0] > 'Z' {
		return false
	}
	for i := 1; i < len(text); i++ {
		ch := text[i]
		ok := (ch >= 'a' && ch <= 'z') ||
			(ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') ||
			ch == '-' || ch == '_' || ch == ':'
		if !ok {
			return false
		}
	}
	return true
}

// isIdentChar returns true if ch may appear in a word or placeholder.
// This covers placeholders (A.B.C.D/M, X:X::X:X), signed numbers
// and wildcards (*).
func isIdentChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' || ch == '_' || ch == '.' ||
		ch == '/' || ch == ':' || ch == '*' || ch == '+'
}
