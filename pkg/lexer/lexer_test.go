package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nalgeon/be"
	"github.com/xplshn/polc/pkg/token"
	"github.com/xplshn/polc/pkg/util"
)

func TestOperatorsAndPunctuation(t *testing.T) {
	tokens, err := Tokenize("+ - * / = ;")
	be.Err(t, err, nil)
	want := []token.Token{
		{Type: token.Plus}, {Type: token.Minus}, {Type: token.Star},
		{Type: token.Slash}, {Type: token.Assign}, {Type: token.Semi},
	}
	if diff := cmp.Diff(want, tokens); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	tokens, err := Tokenize("function sys int functions _x9 int2")
	be.Err(t, err, nil)
	want := []token.Token{
		{Type: token.Function},
		{Type: token.Sys},
		{Type: token.Int},
		{Type: token.Ident, Value: "functions"},
		{Type: token.Ident, Value: "_x9"},
		{Type: token.Ident, Value: "int2"},
	}
	if diff := cmp.Diff(want, tokens); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestCallToken(t *testing.T) {
	tests := []struct {
		src  string
		want []token.Token
	}{
		{"@main", []token.Token{{Type: token.Call, Value: "main"}}},
		{"@do_it2;", []token.Token{{Type: token.Call, Value: "do_it2"}, {Type: token.Semi}}},
		{"@", []token.Token{{Type: token.Call}}},
		{"@ f", []token.Token{{Type: token.Call}, {Type: token.Ident, Value: "f"}}},
	}
	for _, tt := range tests {
		tokens, err := Tokenize(tt.src)
		be.Err(t, err, nil)
		if diff := cmp.Diff(tt.want, tokens); diff != "" {
			t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.src, diff)
		}
	}
}

func TestNumbers(t *testing.T) {
	tokens, err := Tokenize("0 42 4294967295")
	be.Err(t, err, nil)
	be.Equal(t, len(tokens), 3)
	be.Equal(t, tokens[0], token.Token{Type: token.Number, Num: 0})
	be.Equal(t, tokens[1], token.Token{Type: token.Number, Num: 42})
	be.Equal(t, tokens[2], token.Token{Type: token.Number, Num: 4294967295})
}

func TestNumberFollowedByLetters(t *testing.T) {
	tokens, err := Tokenize("12ab")
	be.Err(t, err, nil)
	want := []token.Token{{Type: token.Number, Num: 12}, {Type: token.Ident, Value: "ab"}}
	if diff := cmp.Diff(want, tokens); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestWhitespaceIsSkipped(t *testing.T) {
	tokens, err := Tokenize(" \t\n\r int\n\nx")
	be.Err(t, err, nil)
	be.Equal(t, len(tokens), 2)
	be.Equal(t, tokens[0].Type, token.Int)
	be.Equal(t, tokens[1].Value, "x")
}

func TestEmptySource(t *testing.T) {
	tokens, err := Tokenize("")
	be.Err(t, err, nil)
	be.Equal(t, len(tokens), 0)
}

func TestLexicalErrors(t *testing.T) {
	tests := []struct {
		src  string
		want error
	}{
		{"int x = 5 ; (", util.ErrUnsupportedChar},
		{"#", util.ErrUnsupportedChar},
		{"x.y", util.ErrUnsupportedChar},
		{"4294967296", util.ErrIntOverflow},
		{"99999999999999999999999", util.ErrIntOverflow},
		{"²", util.ErrInvalidInt},
	}
	for _, tt := range tests {
		_, err := Tokenize(tt.src)
		be.Err(t, err, tt.want)
		kind, ok := util.KindOf(err)
		be.True(t, ok)
		be.Equal(t, kind, util.Lexical)
	}
}

func TestNextReturnsEOF(t *testing.T) {
	l := NewLexer([]rune("x"))
	tok, err := l.Next()
	be.Err(t, err, nil)
	be.Equal(t, tok.Type, token.Ident)
	for i := 0; i < 2; i++ {
		tok, err = l.Next()
		be.Err(t, err, nil)
		be.Equal(t, tok.Type, token.EOF)
	}
}

func TestIdentifiersWithCombiningMarks(t *testing.T) {
	_, err := Tokenize("int x = 1 ; @न्")
	be.Err(t, err, util.ErrUnsupportedChar)

	tokens, err := Tokenize("int का = 1 ; @कामे")
	be.Err(t, err, nil)
	want := []token.Token{
		{Type: token.Int},
		{Type: token.Ident, Value: "का"},
		{Type: token.Assign},
		{Type: token.Number, Num: 1},
		{Type: token.Semi},
		{Type: token.Call, Value: "कामे"},
	}
	if diff := cmp.Diff(want, tokens); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}
