// Package linkify turns the URLs of a plain chat message into rich media.
//
// A URL token is
//
//	token = ("http" | "https") "://" 1*(any character except whitespace and "<")
//
// with the scheme matched case-insensitively. Tokens are searched in the
// sanitized message, so every byte between and around them is already safe
// to insert into a document.
package linkify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/n0madic/unachat/media"
	"github.com/n0madic/unachat/render"
	"github.com/n0madic/unachat/sanitize"
)

var (
	tokenRe  = regexp.MustCompile(`(?i)https?://[^\s<]+`)
	markupRe = regexp.MustCompile(`(?is)<[a-z].*>`)
)

// Token is a URL found in a text
type Token struct {
	Text  string
	Start int
	End   int
}

// Tokenize returns the URL tokens of text from left to right
func Tokenize(text string) []Token {
	var tokens []Token
	for _, loc := range tokenRe.FindAllStringIndex(text, -1) {
		tokens = append(tokens, Token{Text: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
	}
	return tokens
}

// IsMarkup reports whether body already contains something shaped like an
// HTML tag. Such bodies are not linkified.
func IsMarkup(body string) bool {
	return markupRe.MatchString(body)
}

// Process sanitizes body and replaces each URL with its rendered fragment.
// A body that IsMarkup is returned unchanged and must be sanitized by the
// caller.
func Process(body string) string {
	if body == "" {
		return ""
	}
	if IsMarkup(body) {
		return body
	}

	text := sanitize.Sanitize(body)
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, tok := range tokens {
		b.WriteString(text[last:tok.Start])
		b.WriteString(replace(tok))
		last = tok.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// replace returns the fragment for tok, or its text when it is not a URL.
func replace(tok Token) string {
	rawURL := sanitize.Unescape(tok.Text)
	if _, err := url.Parse(rawURL); err != nil {
		return tok.Text
	}
	return render.Render(media.Classify(rawURL), rawURL)
}
