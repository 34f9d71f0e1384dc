package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mna/lumen/lang/scanner"
	"github.com/mna/lumen/lang/token"
)

func scanAll(src string) []token.Token {
	s := scanner.New([]byte(src))
	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return toks
}

func TestScanPunctuation(t *testing.T) {
	toks := scanAll("(){};,.+-/*!=<><=>=!===")
	want := []token.Type{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.SEMICOLON,
		token.COMMA, token.DOT, token.PLUS, token.MINUS, token.SLASH, token.STAR,
		token.BANGEQ, token.LT, token.GT, token.LE, token.GE, token.BANGEQ, token.EQEQ,
		token.EOF,
	}
	got := make([]token.Type, len(toks))
	for i, tok := range toks {
		got[i] = tok.Type
	}
	assert.Equal(t, want, got)
}

func TestScanKeywordsAndIdents(t *testing.T) {
	toks := scanAll("and class else false for fun if nil or print return super this true var while foo foo_bar")
	want := []token.Type{
		token.AND, token.CLASS, token.ELSE, token.FALSE, token.FOR, token.FUN,
		token.IF, token.NIL, token.OR, token.PRINT, token.RETURN, token.SUPER,
		token.THIS, token.TRUE, token.VAR, token.WHILE, token.IDENT, token.IDENT,
		token.EOF,
	}
	got := make([]token.Type, len(toks))
	for i, tok := range toks {
		got[i] = tok.Type
	}
	assert.Equal(t, want, got)
}

func TestScanNumbers(t *testing.T) {
	toks := scanAll("123 1.5 .5 5.")
	assert.Equal(t, token.NUMBER, toks[0].Type)
	assert.Equal(t, "123", toks[0].Lexeme)
	assert.Equal(t, token.NUMBER, toks[1].Type)
	assert.Equal(t, "1.5", toks[1].Lexeme)
	// a leading dot is not part of a number (no leading '.' form)
	assert.Equal(t, token.DOT, toks[2].Type)
	assert.Equal(t, token.NUMBER, toks[3].Type)
	// trailing dot with no following digit is not consumed as part of the number
	assert.Equal(t, token.NUMBER, toks[4].Type)
	assert.Equal(t, "5", toks[4].Lexeme)
	assert.Equal(t, token.DOT, toks[5].Type)
}

func TestScanStrings(t *testing.T) {
	toks := scanAll(`"hello world"`)
	assert.Equal(t, token.STRING, toks[0].Type)
	assert.Equal(t, `"hello world"`, toks[0].Lexeme)

	toks = scanAll(`"multi
line"`)
	assert.Equal(t, token.STRING, toks[0].Type)
	assert.Equal(t, 2, toks[1].Line)

	toks = scanAll(`"unterminated`)
	assert.Equal(t, token.ILLEGAL, toks[0].Type)
	assert.Equal(t, "Unterminated string literal.", toks[0].Lexeme)
}

func TestScanLineTracking(t *testing.T) {
	toks := scanAll("var a = 1;\nvar b = 2;")
	assert.Equal(t, 1, toks[0].Line)
	// find the second 'var'
	var second token.Token
	count := 0
	for _, tok := range toks {
		if tok.Type == token.VAR {
			count++
			if count == 2 {
				second = tok
			}
		}
	}
	assert.Equal(t, 2, second.Line)
}

func TestScanComments(t *testing.T) {
	toks := scanAll("1 // a comment\n2")
	assert.Equal(t, token.NUMBER, toks[0].Type)
	assert.Equal(t, "1", toks[0].Lexeme)
	assert.Equal(t, token.NUMBER, toks[1].Type)
	assert.Equal(t, "2", toks[1].Lexeme)
	assert.Equal(t, 2, toks[1].Line)
}

func TestScanUnexpectedCharacter(t *testing.T) {
	toks := scanAll("@")
	assert.Equal(t, token.ILLEGAL, toks[0].Type)
	assert.Equal(t, "Unexpected character.", toks[0].Lexeme)
}
