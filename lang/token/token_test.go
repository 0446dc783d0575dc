package token_test

import (
	"testing"

	"github.com/mna/loxa/lang/token"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	cases := []struct {
		ident string
		want  token.Kind
	}{
		{"and", token.AND},
		{"class", token.CLASS},
		{"const", token.CONST},
		{"while", token.WHILE},
		{"fooBar", token.IDENT},
		{"", token.IDENT},
	}
	for _, c := range cases {
		require.Equal(t, c.want, token.Lookup(c.ident), c.ident)
	}
}

func TestKindString(t *testing.T) {
	require.Equal(t, "end of file", token.EOF.String())
	require.Equal(t, "+", token.PLUS.String())
	require.Equal(t, "while", token.WHILE.String())
}
