// internal/textutil/textutil_test.go
package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "senor", Fold("Señor"))
	assert.Equal(t, "uber", Fold("Über"))
	assert.Equal(t, "cafe con leche", Fold("Café Con Leche"))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"punctuation collapsed", "Hello,   world!!", "hello world"},
		{"diacritics stripped", "Pésimo   servicio.", "pesimo servicio"},
		{"empty", "   ", ""},
		{"urls flattened", "see https://example.com/x?y=1", "see https example com x y 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"app", "no", "funciona"}, Tokenize("¡App no funciona!"))
	assert.Nil(t, Tokenize("...---..."))
}

func TestContainsTermShortAliasTokenSafe(t *testing.T) {
	// A two-character geo alias must not match inside a longer word.
	assert.False(t, ContainsTerm("el usuario reporta un fallo", "us"))
	assert.True(t, ContainsTerm("available in the US market", "us"))
}

func TestContainsTermPhrases(t *testing.T) {
	assert.True(t, ContainsTerm("Major DATA BREACH at the bank", "data breach"))
	assert.False(t, ContainsTerm("data was breached", "data breach"))
	assert.True(t, ContainsTerm("café cerrado", "cafe"))
}

func TestContainsAny(t *testing.T) {
	term, ok := ContainsAny("mobile banking app is down", []string{"credit card", "banking"})
	assert.True(t, ok)
	assert.Equal(t, "banking", term)

	_, ok = ContainsAny("weather report", []string{"banking", "loan"})
	assert.False(t, ok)
}

func TestDomainOf(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://www.example.com/path?q=1", "example.com"},
		{"http://news.example.co.uk:8080/a", "news.example.co.uk"},
		{"example.com", "example.com"},
		{"notadomain", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, DomainOf(tt.input), tt.input)
	}
}

func TestDedup(t *testing.T) {
	out := Dedup([]string{"Acme", "acmé", "ACME", "Beta", ""})
	assert.Equal(t, []string{"Acme", "Beta"}, out)
}
