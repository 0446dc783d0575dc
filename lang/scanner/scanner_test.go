package scanner_test

import (
	"testing"

	"github.com/mna/loxa/lang/scanner"
	"github.com/mna/loxa/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	s := scanner.New([]byte(src))
	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll(t, "!= == <= >= < > = ! + - * /")
	require.Equal(t, []token.Kind{
		token.BANG_EQUAL, token.EQUAL_EQUAL, token.LESS_EQUAL, token.GREATER_EQUAL,
		token.LESS, token.GREATER, token.EQUAL, token.BANG,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.EOF,
	}, kinds(toks))
}

func TestScanKeywordsAndIdents(t *testing.T) {
	toks := scanAll(t, "var const x = foo")
	require.Equal(t, []token.Kind{
		token.VAR, token.CONST, token.IDENT, token.EQUAL, token.IDENT, token.EOF,
	}, kinds(toks))
	require.Equal(t, "foo", toks[4].Lexeme)
}

func TestScanNumber(t *testing.T) {
	toks := scanAll(t, "123 4.5")
	require.Equal(t, token.NUMBER, toks[0].Kind)
	require.Equal(t, "123", toks[0].Lexeme)
	require.Equal(t, token.NUMBER, toks[1].Kind)
	require.Equal(t, "4.5", toks[1].Lexeme)
}

func TestScanString(t *testing.T) {
	toks := scanAll(t, `"hello world"`)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, `"hello world"`, toks[0].Lexeme)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(t, `"oops`)
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
}

func TestScanComments(t *testing.T) {
	toks := scanAll(t, "1 // line comment\n/* block\ncomment */ 2")
	require.Equal(t, []token.Kind{token.NUMBER, token.NUMBER, token.EOF}, kinds(toks))
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 3, toks[1].Line)
}

func TestScanUnterminatedBlockComment(t *testing.T) {
	toks := scanAll(t, "1 /* never closes")
	require.Equal(t, []token.Kind{token.NUMBER, token.ILLEGAL, token.EOF}, kinds(toks))
}

func TestScanLineTracking(t *testing.T) {
	toks := scanAll(t, "1\n2\n3")
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 2, toks[1].Line)
	require.Equal(t, 3, toks[2].Line)
}
