package lexer

import (
	"errors"
	"strconv"
	"unicode"

	"github.com/xplshn/polc/pkg/token"
	"github.com/xplshn/polc/pkg/util"
)

type Lexer struct {
	source []rune
	pos    int
}

func NewLexer(source []rune) *Lexer {
	return &Lexer{source: source}
}

// Tokenize scans the whole source. The returned slice never contains EOF.
func Tokenize(source string) ([]token.Token, error) {
	l := NewLexer([]rune(source))
	var tokens []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if tok.Type == token.EOF {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespace()
	if l.isAtEnd() {
		return token.Token{Type: token.EOF}, nil
	}

	ch := l.advance()
	switch ch {
	case '+':
		return token.Token{Type: token.Plus}, nil
	case '-':
		return token.Token{Type: token.Minus}, nil
	case '*':
		return token.Token{Type: token.Star}, nil
	case '/':
		return token.Token{Type: token.Slash}, nil
	case '=':
		return token.Token{Type: token.Assign}, nil
	case ';':
		return token.Token{Type: token.Semi}, nil
	case '@':
		start := l.pos
		l.skipWord()
		return token.Token{Type: token.Call, Value: string(l.source[start:l.pos])}, nil
	}

	if isLetter(ch) || ch == '_' {
		return l.identifierOrKeyword(l.pos - 1), nil
	}
	if unicode.IsNumber(ch) {
		return l.numberLiteral(l.pos - 1)
	}
	return token.Token{}, util.Errorf(util.ErrUnsupportedChar, "%q", ch)
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) advance() rune {
	ch := l.source[l.pos]
	l.pos++
	return ch
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// isLetter accepts alphabetic runes, including combining vowel signs and
// other marks in the Other_Alphabetic class.
func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.Is(unicode.Other_Alphabetic, ch)
}

func isWordChar(ch rune) bool {
	return isLetter(ch) || unicode.IsNumber(ch) || ch == '_'
}

func (l *Lexer) skipWord() {
	for !l.isAtEnd() && isWordChar(l.peek()) {
		l.advance()
	}
}

func (l *Lexer) identifierOrKeyword(start int) token.Token {
	l.skipWord()
	value := string(l.source[start:l.pos])
	if tokType, isKeyword := token.KeywordMap[value]; isKeyword {
		return token.Token{Type: tokType}
	}
	return token.Token{Type: token.Ident, Value: value}
}

func (l *Lexer) numberLiteral(start int) (token.Token, error) {
	for !l.isAtEnd() && unicode.IsNumber(l.peek()) {
		l.advance()
	}
	valueStr := string(l.source[start:l.pos])
	val, err := strconv.ParseUint(valueStr, 10, 32)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return token.Token{}, util.Errorf(util.ErrIntOverflow, "%s does not fit in 32 bits", valueStr)
		}
		return token.Token{}, util.Errorf(util.ErrInvalidInt, "%q", valueStr)
	}
	return token.Token{Type: token.Number, Num: uint32(val)}, nil
}
