package estimator

import (
	"bytes"
	"regexp"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

var (
	// Pattern: assign <lhs> = <rhs containing + or -> ;
	arithmeticAssignPattern = regexp.MustCompile(`\bassign\s+[^;=]*=[^;]*[+\-][^;]*;`)

	// wordLexer splits text into identifier-like words and the gaps between them.
	// Digits and underscores are word characters, so "android" and "and_1" are
	// single words that never match "and".
	wordLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Word", Pattern: `[\p{L}\p{N}_]+`},
		{Name: "Gap", Pattern: `[^\p{L}\p{N}_]+`},
	})

	wordToken = wordLexer.Symbols()["Word"]
)

// countWords returns how many times each whole word occurs in content.
func countWords(name string, content []byte) (map[string]int, error) {
	counts := make(map[string]int)
	lex, err := wordLexer.Lex(name, bytes.NewReader(content))
	if err != nil {
		return nil, errors.Wrap(err, "tokenizing")
	}
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, errors.Wrap(err, "tokenizing")
		}
		if tok.EOF() {
			return counts, nil
		}
		if tok.Type == wordToken {
			counts[tok.Value]++
		}
	}
}

// countArithmeticAssigns returns the number of assign statements whose
// right-hand side contains an addition or subtraction.
func countArithmeticAssigns(content []byte) int {
	return len(arithmeticAssignPattern.FindAllIndex(content, -1))
}
