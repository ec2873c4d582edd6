// Package lexer provides tokenization for shader source code.
//
// The scanner converts already-preprocessed source text into tokens on
// demand, handling:
// - Keywords and identifiers
// - Integer and floating point literals (decimal and hex)
// - The C operator and punctuation set
// - Line and block comments
//
// It keeps exactly one token of pushback so the parser can undo a single
// Next call.
package lexer

import (
	"strconv"
	"strings"
)

// ----------------------------------------------------------------------------
// Token Types
// ----------------------------------------------------------------------------

// TokenKind represents the type of a token.
type TokenKind uint8

const (
	TokError TokenKind = iota
	TokEOF

	// Literals
	TokInteger
	TokNumber
	TokTrue
	TokFalse

	// Identifiers
	TokIdent

	// Keywords
	TokBreak
	TokCBuffer
	TokCase
	TokContinue
	TokDefault
	TokDiscard
	TokDo
	TokElse
	TokFor
	TokIf
	TokReturn
	TokRWTexture2D
	TokSlot
	TokStruct
	TokSwitch
	TokTexture2D
	TokTexture3D
	TokTextureCube
	TokWhile

	// Operators
	TokPlus     // +
	TokMinus    // -
	TokStar     // *
	TokSlash    // /
	TokPercent  // %
	TokAmp      // &
	TokPipe     // |
	TokCaret    // ^
	TokTilde    // ~
	TokBang     // !
	TokLt       // <
	TokGt       // >
	TokEq       // =
	TokDot      // .
	TokQuestion // ?

	// Multi-char operators
	TokPlusPlus   // ++
	TokMinusMinus // --
	TokAmpAmp     // &&
	TokPipePipe   // ||
	TokLtLt       // <<
	TokGtGt       // >>
	TokLtEq       // <=
	TokGtEq       // >=
	TokEqEq       // ==
	TokBangEq     // !=
	TokPlusEq     // +=
	TokMinusEq    // -=
	TokStarEq     // *=
	TokSlashEq    // /=
	TokPercentEq  // %=
	TokAmpEq      // &=
	TokPipeEq     // |=
	TokCaretEq    // ^=
	TokLtLtEq     // <<=
	TokGtGtEq     // >>=

	// Delimiters
	TokLParen    // (
	TokRParen    // )
	TokLBrace    // {
	TokRBrace    // }
	TokLBracket  // [
	TokRBracket  // ]
	TokSemicolon // ;
	TokColon     // :
	TokComma     // ,
)

// String returns the string representation of a token kind.
func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return "unknown"
}

var tokenNames = [...]string{
	TokError:   "error",
	TokEOF:     "EOF",
	TokInteger: "integer",
	TokNumber:  "number",
	TokTrue:    "true",
	TokFalse:   "false",
	TokIdent:   "identifier",
	// Keywords
	TokBreak:       "break",
	TokCBuffer:     "cbuffer",
	TokCase:        "case",
	TokContinue:    "continue",
	TokDefault:     "default",
	TokDiscard:     "discard",
	TokDo:          "do",
	TokElse:        "else",
	TokFor:         "for",
	TokIf:          "if",
	TokReturn:      "return",
	TokRWTexture2D: "rwtexture2D",
	TokSlot:        "slot",
	TokStruct:      "struct",
	TokSwitch:      "switch",
	TokTexture2D:   "texture2D",
	TokTexture3D:   "texture3D",
	TokTextureCube: "textureCube",
	TokWhile:       "while",
	// Operators
	TokPlus:       "+",
	TokMinus:      "-",
	TokStar:       "*",
	TokSlash:      "/",
	TokPercent:    "%",
	TokAmp:        "&",
	TokPipe:       "|",
	TokCaret:      "^",
	TokTilde:      "~",
	TokBang:       "!",
	TokLt:         "<",
	TokGt:         ">",
	TokEq:         "=",
	TokDot:        ".",
	TokQuestion:   "?",
	TokPlusPlus:   "++",
	TokMinusMinus: "--",
	TokAmpAmp:     "&&",
	TokPipePipe:   "||",
	TokLtLt:       "<<",
	TokGtGt:       ">>",
	TokLtEq:       "<=",
	TokGtEq:       ">=",
	TokEqEq:       "==",
	TokBangEq:     "!=",
	TokPlusEq:     "+=",
	TokMinusEq:    "-=",
	TokStarEq:     "*=",
	TokSlashEq:    "/=",
	TokPercentEq:  "%=",
	TokAmpEq:      "&=",
	TokPipeEq:     "|=",
	TokCaretEq:    "^=",
	TokLtLtEq:     "<<=",
	TokGtGtEq:     ">>=",
	TokLParen:     "(",
	TokRParen:     ")",
	TokLBrace:     "{",
	TokRBrace:     "}",
	TokLBracket:   "[",
	TokRBracket:   "]",
	TokSemicolon:  ";",
	TokColon:      ":",
	TokComma:      ",",
}

// ----------------------------------------------------------------------------
// Token
// ----------------------------------------------------------------------------

// Token represents a lexical token.
type Token struct {
	Kind     TokenKind
	Position int    // Byte offset in source
	Line     int    // 1-based line number
	Name     string // Source text of the token
	Number   float64
	Integer  uint64
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Position + len(t.Name)
}

// Unsigned reports whether an integer literal carries a u suffix.
func (t Token) Unsigned() bool {
	return t.Kind == TokInteger && strings.HasSuffix(strings.ToLower(t.Name), "u")
}

// ----------------------------------------------------------------------------
// Keywords
// ----------------------------------------------------------------------------

// Keywords maps keyword strings to their token kinds.
var Keywords = map[string]TokenKind{
	"break":       TokBreak,
	"case":        TokCase,
	"cbuffer":     TokCBuffer,
	"continue":    TokContinue,
	"default":     TokDefault,
	"discard":     TokDiscard,
	"do":          TokDo,
	"else":        TokElse,
	"false":       TokFalse,
	"for":         TokFor,
	"if":          TokIf,
	"return":      TokReturn,
	"rwtexture2D": TokRWTexture2D,
	"slot":        TokSlot,
	"struct":      TokStruct,
	"switch":      TokSwitch,
	"texture2D":   TokTexture2D,
	"texture3D":   TokTexture3D,
	"textureCube": TokTextureCube,
	"true":        TokTrue,
	"while":       TokWhile,
}

// ----------------------------------------------------------------------------
// Scanner
// ----------------------------------------------------------------------------

// Scanner tokenizes shader source code one token at a time.
type Scanner struct {
	source string
	pos    int
	line   int

	current  Token
	previous Token
	pushed   Token
	hasPush  bool
}

// New creates a new scanner for the given source.
func New(source string) *Scanner {
	return &Scanner{source: source, line: 1}
}

// Current returns the most recently returned token.
func (s *Scanner) Current() Token {
	return s.current
}

// Next consumes and returns the next token.
func (s *Scanner) Next() Token {
	s.previous = s.current
	if s.hasPush {
		s.hasPush = false
		s.current = s.pushed
		return s.current
	}
	s.current = s.scan()
	return s.current
}

// Back un-consumes the current token so the following Next returns it
// again. Only one level of pushback exists.
func (s *Scanner) Back() Token {
	if s.hasPush {
		panic("lexer: Back called twice without Next")
	}
	s.pushed = s.current
	s.hasPush = true
	s.current = s.previous
	return s.current
}

// Tokenize returns all remaining tokens including the final EOF or error.
func (s *Scanner) Tokenize() []Token {
	var tokens []Token
	for {
		tok := s.Next()
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF || tok.Kind == TokError {
			return tokens
		}
	}
}

func (s *Scanner) scan() Token {
	if start, line, ok := s.skipWhitespaceAndComments(); !ok {
		return Token{Kind: TokError, Position: start, Line: line, Name: "/*"}
	}

	if s.pos >= len(s.source) {
		return Token{Kind: TokEOF, Position: s.pos, Line: s.line}
	}

	ch := s.source[s.pos]

	// Identifiers and keywords
	if asciiIdentStart[ch] {
		return s.scanIdentOrKeyword()
	}

	// Numbers
	if isDigit(ch) || (ch == '.' && s.pos+1 < len(s.source) && isDigit(s.source[s.pos+1])) {
		return s.scanNumber()
	}

	// Operators and punctuation
	return s.scanOperator()
}

// ----------------------------------------------------------------------------
// Scanning Helpers
// ----------------------------------------------------------------------------

// skipWhitespaceAndComments advances past blanks and comments. It fails
// with the position and line of a block comment that never closes.
func (s *Scanner) skipWhitespaceAndComments() (start, line int, ok bool) {
	for s.pos < len(s.source) {
		ch := s.source[s.pos]

		if ch == '\n' {
			s.line++
			s.pos++
			continue
		}
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\v' {
			s.pos++
			continue
		}

		// Line comment
		if ch == '/' && s.pos+1 < len(s.source) && s.source[s.pos+1] == '/' {
			s.pos += 2
			for s.pos < len(s.source) && s.source[s.pos] != '\n' {
				s.pos++
			}
			continue
		}

		// Block comment
		if ch == '/' && s.pos+1 < len(s.source) && s.source[s.pos+1] == '*' {
			start, line = s.pos, s.line
			s.pos += 2
			closed := false
			for s.pos < len(s.source) {
				if s.source[s.pos] == '*' && s.pos+1 < len(s.source) && s.source[s.pos+1] == '/' {
					s.pos += 2
					closed = true
					break
				}
				if s.source[s.pos] == '\n' {
					s.line++
				}
				s.pos++
			}
			if !closed {
				return start, line, false
			}
			continue
		}

		break
	}
	return 0, 0, true
}

func (s *Scanner) token(kind TokenKind, start int) Token {
	return Token{Kind: kind, Position: start, Line: s.line, Name: s.source[start:s.pos]}
}

func (s *Scanner) scanIdentOrKeyword() Token {
	start := s.pos
	for s.pos < len(s.source) && asciiIdentContinue[s.source[s.pos]] {
		s.pos++
	}

	text := s.source[start:s.pos]
	if kind, ok := Keywords[text]; ok {
		return s.token(kind, start)
	}
	return s.token(TokIdent, start)
}

func (s *Scanner) scanNumber() Token {
	start := s.pos
	isFloat := false

	if s.pos+1 < len(s.source) && s.source[s.pos] == '0' &&
		(s.source[s.pos+1] == 'x' || s.source[s.pos+1] == 'X') {
		s.pos += 2
		for s.pos < len(s.source) && isHexDigit(s.source[s.pos]) {
			s.pos++
		}
	} else {
		for s.pos < len(s.source) && isDigit(s.source[s.pos]) {
			s.pos++
		}
		if s.pos < len(s.source) && s.source[s.pos] == '.' {
			isFloat = true
			s.pos++
			for s.pos < len(s.source) && isDigit(s.source[s.pos]) {
				s.pos++
			}
		}
		if s.pos < len(s.source) && (s.source[s.pos] == 'e' || s.source[s.pos] == 'E') {
			isFloat = true
			s.pos++
			if s.pos < len(s.source) && (s.source[s.pos] == '+' || s.source[s.pos] == '-') {
				s.pos++
			}
			digits := s.pos
			for s.pos < len(s.source) && isDigit(s.source[s.pos]) {
				s.pos++
			}
			if digits == s.pos {
				return s.token(TokError, start)
			}
		}
	}

	body := s.source[start:s.pos]

	// Type suffix
	if s.pos < len(s.source) {
		switch s.source[s.pos] {
		case 'u', 'U':
			if isFloat {
				s.pos++
				return s.token(TokError, start)
			}
			s.pos++
		case 'f', 'F':
			if !strings.HasPrefix(body, "0x") && !strings.HasPrefix(body, "0X") {
				isFloat = true
				s.pos++
			}
		}
	}

	// A number glued to an identifier (e.g. 12abc) is malformed.
	if s.pos < len(s.source) && asciiIdentContinue[s.source[s.pos]] {
		for s.pos < len(s.source) && asciiIdentContinue[s.source[s.pos]] {
			s.pos++
		}
		return s.token(TokError, start)
	}

	if isFloat {
		value, err := strconv.ParseFloat(body, 64)
		if err != nil {
			return s.token(TokError, start)
		}
		tok := s.token(TokNumber, start)
		tok.Number = value
		return tok
	}

	// int and uint are 32 bits wide.
	value, err := strconv.ParseUint(body, 0, 32)
	if err != nil {
		return s.token(TokError, start)
	}
	tok := s.token(TokInteger, start)
	tok.Integer = value
	tok.Number = float64(value)
	return tok
}

func (s *Scanner) scanOperator() Token {
	start := s.pos
	ch := s.source[s.pos]
	s.pos++

	// Look for two-character operators
	var next byte
	if s.pos < len(s.source) {
		next = s.source[s.pos]
	}

	one := func(kind TokenKind) Token { return s.token(kind, start) }
	two := func(kind TokenKind) Token {
		s.pos++
		return s.token(kind, start)
	}

	switch ch {
	case '+':
		switch next {
		case '+':
			return two(TokPlusPlus)
		case '=':
			return two(TokPlusEq)
		}
		return one(TokPlus)

	case '-':
		switch next {
		case '-':
			return two(TokMinusMinus)
		case '=':
			return two(TokMinusEq)
		}
		return one(TokMinus)

	case '*':
		if next == '=' {
			return two(TokStarEq)
		}
		return one(TokStar)

	case '/':
		if next == '=' {
			return two(TokSlashEq)
		}
		return one(TokSlash)

	case '%':
		if next == '=' {
			return two(TokPercentEq)
		}
		return one(TokPercent)

	case '&':
		switch next {
		case '&':
			return two(TokAmpAmp)
		case '=':
			return two(TokAmpEq)
		}
		return one(TokAmp)

	case '|':
		switch next {
		case '|':
			return two(TokPipePipe)
		case '=':
			return two(TokPipeEq)
		}
		return one(TokPipe)

	case '^':
		if next == '=' {
			return two(TokCaretEq)
		}
		return one(TokCaret)

	case '<':
		if next == '<' {
			s.pos++
			if s.pos < len(s.source) && s.source[s.pos] == '=' {
				return two(TokLtLtEq)
			}
			return one(TokLtLt)
		}
		if next == '=' {
			return two(TokLtEq)
		}
		return one(TokLt)

	case '>':
		if next == '>' {
			s.pos++
			if s.pos < len(s.source) && s.source[s.pos] == '=' {
				return two(TokGtGtEq)
			}
			return one(TokGtGt)
		}
		if next == '=' {
			return two(TokGtEq)
		}
		return one(TokGt)

	case '=':
		if next == '=' {
			return two(TokEqEq)
		}
		return one(TokEq)

	case '!':
		if next == '=' {
			return two(TokBangEq)
		}
		return one(TokBang)

	case '~':
		return one(TokTilde)
	case '.':
		return one(TokDot)
	case '?':
		return one(TokQuestion)
	case '(':
		return one(TokLParen)
	case ')':
		return one(TokRParen)
	case '{':
		return one(TokLBrace)
	case '}':
		return one(TokRBrace)
	case '[':
		return one(TokLBracket)
	case ']':
		return one(TokRBracket)
	case ';':
		return one(TokSemicolon)
	case ':':
		return one(TokColon)
	case ',':
		return one(TokComma)
	}

	return one(TokError)
}

// ----------------------------------------------------------------------------
// Character Classification
// ----------------------------------------------------------------------------

var (
	asciiIdentStart    [256]bool
	asciiIdentContinue [256]bool
)

func init() {
	for c := 'a'; c <= 'z'; c++ {
		asciiIdentStart[c] = true
		asciiIdentContinue[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		asciiIdentStart[c] = true
		asciiIdentContinue[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		asciiIdentContinue[c] = true
	}
	asciiIdentStart['_'] = true
	asciiIdentContinue['_'] = true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
