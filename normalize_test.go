package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAnswer(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"lowercases", "PARIS", "paris"},
		{"strips punctuation", "Paris!", "paris"},
		{"trims whitespace", "  bohemian rhapsody  ", "bohemian rhapsody"},
		{"keeps inner spaces", "Take On Me", "take on me"},
		{"mixed", " 'Round Midnight!!! ", "round midnight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAnswer(tt.in))
		})
	}
}

func TestNormalizeAnswerIdempotent(t *testing.T) {
	inputs := []string{"Paris!", "  A.B.B.A  ", "99 Luftballons", "", "¡Olé!"}

	for _, in := range inputs {
		once := normalizeAnswer(in)
		assert.Equal(t, once, normalizeAnswer(once), "normalize(%q) should be a fixed point", in)
	}
}

func TestNormalizeAnswerEquivalence(t *testing.T) {
	assert.Equal(t, normalizeAnswer("Paris!"), normalizeAnswer("paris"))
	assert.NotEqual(t, normalizeAnswer("london"), normalizeAnswer("paris"))
}
