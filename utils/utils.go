package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode/utf8"
)

// StringInSlice checks if a string is present in a slice
func StringInSlice(a string, list []string) bool {
	for _, b := range list {
		if b == a {
			return true
		}
	}
	return false
}

// TruncateText to max runes
func TruncateText(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max])
}

// TruncateWords cuts text at a word boundary and appends an ellipsis
func TruncateWords(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	truncated := ""
	for _, word := range strings.Fields(text) {
		if utf8.RuneCountInString(truncated)+utf8.RuneCountInString(word)+1 > max {
			break
		}
		truncated += word + " "
	}
	if truncated == "" {
		return TruncateText(text, max) + "…"
	}
	return strings.TrimSpace(truncated) + "…"
}

// RandomColor returns a random #rrggbb color
func RandomColor() string {
	return fmt.Sprintf("#%06x", rand.Intn(0x1000000))
}
