// internal/textutil/textutil.go
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Fold lowercases text and strips diacritics, so "Señor" and "senor"
// compare equal. Falls back to plain lowercasing if the transform fails.
func Fold(text string) string {
	out, _, err := transform.String(foldTransformer, text)
	if err != nil {
		return strings.ToLower(text)
	}
	return strings.ToLower(out)
}

// Normalize folds text and collapses punctuation and whitespace runs into
// single spaces, yielding a canonical form for phrase matching.
func Normalize(text string) string {
	folded := Fold(text)
	var b strings.Builder
	b.Grow(len(folded))
	space := true
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteRune(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokenize splits text into folded alphanumeric tokens.
func Tokenize(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

// ContainsTerm reports whether term occurs in text. Terms of three runes
// or fewer must match as whole tokens so short aliases like "us" never
// match inside unrelated words like "usuario". Longer terms match as
// normalized substrings, which also covers multi-word phrases.
func ContainsTerm(text, term string) bool {
	nt := Normalize(term)
	if nt == "" {
		return false
	}
	nx := Normalize(text)
	if len([]rune(nt)) <= 3 && !strings.Contains(nt, " ") {
		for _, tok := range strings.Fields(nx) {
			if tok == nt {
				return true
			}
		}
		return false
	}
	return strings.Contains(nx, nt)
}

// ContainsAny reports whether any of the terms occurs in text, returning
// the first matching term.
func ContainsAny(text string, terms []string) (string, bool) {
	nx := Normalize(text)
	for _, term := range terms {
		nt := Normalize(term)
		if nt == "" {
			continue
		}
		if len([]rune(nt)) <= 3 && !strings.Contains(nt, " ") {
			for _, tok := range strings.Fields(nx) {
				if tok == nt {
					return term, true
				}
			}
			continue
		}
		if strings.Contains(nx, nt) {
			return term, true
		}
	}
	return "", false
}

// DomainOf extracts a bare host from a URL-ish string, dropping scheme,
// path, port and a leading "www.". Returns "" when nothing domain-like
// is present.
func DomainOf(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return ""
	}
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "www.")
	if !strings.Contains(s, ".") {
		return ""
	}
	return s
}

// Dedup returns terms with duplicates (after folding) removed, keeping
// first-seen order.
func Dedup(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	var out []string
	for _, t := range terms {
		key := Fold(strings.TrimSpace(t))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
