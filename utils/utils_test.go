package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringInSlice(t *testing.T) {
	assert.True(t, StringInSlice("b", []string{"a", "b"}))
	assert.False(t, StringInSlice("c", []string{"a", "b"}))
	assert.False(t, StringInSlice("a", nil))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "hola", TruncateText("hola", 10))
	assert.Equal(t, "ñañ", TruncateText("ñañaña", 3))
	assert.Equal(t, "", TruncateText("abc", 0))
}

func TestTruncateWords(t *testing.T) {
	assert.Equal(t, "short", TruncateWords("short", 10))
	assert.Equal(t, "uno dos…", TruncateWords("uno dos tres cuatro", 10))
	assert.Equal(t, "abcde…", TruncateWords("abcdefghijkl", 5))
}

func TestRandomColor(t *testing.T) {
	re := regexp.MustCompile(`^#[0-9a-f]{6}$`)
	for i := 0; i < 100; i++ {
		assert.Regexp(t, re, RandomColor())
	}
}
