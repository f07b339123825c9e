// Package tags provides the normalized string-matching primitive shared by
// every scoring signal. All tag comparison in the service goes through here so
// the containment rule is defined exactly once.
package tags

import "strings"

// Normalize lowercases and trims a tag token. Empty results mean the token
// carries no signal and should be skipped.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeAll normalizes a token list, dropping empties.
func NormalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := Normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Matches reports whether a normalized profile token matches any of the
// normalized opportunity tokens, or appears literally inside the given
// free text. A token matches a tag when either contains the other.
func Matches(token string, against []string, text string) bool {
	if token == "" {
		return false
	}
	for _, tag := range against {
		if tag == "" {
			continue
		}
		if strings.Contains(tag, token) || strings.Contains(token, tag) {
			return true
		}
	}
	return text != "" && strings.Contains(text, token)
}

// CountMatches returns how many of the given tokens match, after normalizing
// both sides. text is matched as-is after lowercasing.
func CountMatches(tokens, against []string, text string) int {
	norm := NormalizeAll(against)
	text = strings.ToLower(text)
	count := 0
	for _, t := range tokens {
		if Matches(Normalize(t), norm, text) {
			count++
		}
	}
	return count
}
