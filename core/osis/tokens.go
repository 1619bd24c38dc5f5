package osis

import (
	"regexp"
	"strings"
)

// Token is one word or punctuation unit within a verse. Positions are
// 0-based, contiguous, and follow emission order in the source document.
type Token struct {
	Position int
	Text     string
	Lexemes  []string // sorted Strong's references; nil for untagged tokens
}

// tokenPattern splits plain text runs into word and punctuation tokens.
// Word runs use Unicode letter and number classes rather than ASCII \w so
// accented text (the target corpora include French) tokenizes whole words.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_'’-]+|[.,;!?:]`)

// accumulator collects the two parallel sequences of an open verse scope:
// the raw text fragments that reconstruct the verse text, and the discrete
// word tokens. It is created at verse start and discarded at verse close,
// so scope state and accumulation cannot desynchronize.
type accumulator struct {
	fragments []string
	tokens    []Token
	tagged    int // tokens carrying lexical references
	plain     int // tokens produced from untagged text runs
}

// addFragment records a raw text fragment for verse text reconstruction.
// Empty fragments are dropped; whitespace-only ones are kept because they
// separate words in the final join.
func (a *accumulator) addFragment(s string) {
	if s != "" {
		a.fragments = append(a.fragments, s)
	}
}

// addWord appends one token for a lexical-bearing word element. The word
// text is trimmed; a whitespace-only word produces no token.
func (a *accumulator) addWord(text string, lexemes []string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	a.tokens = append(a.tokens, Token{Position: len(a.tokens), Text: text, Lexemes: lexemes})
	a.tagged++
}

// addPlain tokenizes an untagged text run into word and punctuation tokens.
func (a *accumulator) addPlain(s string) {
	for _, t := range tokenPattern.FindAllString(s, -1) {
		a.tokens = append(a.tokens, Token{Position: len(a.tokens), Text: t})
		a.plain++
	}
}

// finalize joins the collected fragments into the verse text, with interior
// whitespace collapsed to single spaces, and returns it with the ordered
// token list.
func (a *accumulator) finalize() (string, []Token) {
	joined := strings.Join(a.fragments, "")
	text := strings.Join(strings.Fields(joined), " ")
	return text, a.tokens
}
