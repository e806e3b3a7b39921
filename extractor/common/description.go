package common

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/viper"
)

// DefaultDescriptionFallback is the placeholder used when neither the
// pattern table nor the subject produced anything usable.
const DefaultDescriptionFallback = "Transacción procesada"

var camelLeakRegex = regexp.MustCompile(`[a-z][A-Z]`)

// DescriptionConfig carries a provider's phrase pattern table. Patterns are
// tried in order; Prefix strips the provider's own name from candidates and
// subjects; Fallback is the provider placeholder used as a last resort.
type DescriptionConfig struct {
	Patterns []*regexp.Regexp
	Prefix   *regexp.Regexp
	Fallback string
}

// ExtractDescription pulls a human-readable description out of an email.
// The subject is tried alone first since it carries far less markup noise
// than the body, then the subject and cleaned body together. Candidates
// must pass IsValidDescription before they are accepted. The result is
// never empty.
func ExtractDescription(body, subject string, cfg DescriptionConfig) string {
	cleanSubject := Normalize(subject)
	if cfg.Prefix != nil {
		cleanSubject = strings.TrimSpace(cfg.Prefix.ReplaceAllString(cleanSubject, ""))
	}

	haystacks := []string{cleanSubject, cleanSubject + "\n" + CleanBody(body)}
	for _, haystack := range haystacks {
		for _, pattern := range cfg.Patterns {
			if pattern == nil {
				continue
			}
			match := pattern.FindStringSubmatch(haystack)
			if match == nil {
				continue
			}
			candidate := match[0]
			if len(match) > 1 {
				candidate = match[1]
			}
			if cfg.Prefix != nil {
				candidate = cfg.Prefix.ReplaceAllString(candidate, "")
			}
			candidate = NormalizeDescription(candidate)
			if IsValidDescription(candidate) {
				return candidate
			}
		}
	}

	// A subject that talks about a transaction is better than a canned
	// placeholder even when no pattern matched it.
	subjectFallback := NormalizeDescription(cleanSubject)
	if IsValidDescription(subjectFallback) &&
		ContainsAny(strings.ToLower(subjectFallback), viper.GetStringSlice("pipeline.keywords")) {
		return subjectFallback
	}

	if cfg.Fallback != "" {
		return cfg.Fallback
	}
	return DefaultDescriptionFallback
}

// NormalizeDescription collapses whitespace, trims stray punctuation from
// both ends and caps the length at 200 characters.
func NormalizeDescription(text string) string {
	text = whitespaceRegex.ReplaceAllString(text, " ")
	text = strings.Trim(text, ".,;:!? ")
	if utf8.RuneCountInString(text) > 200 {
		runes := []rune(text)
		text = string(runes[:197]) + "..."
	}
	return text
}

// IsValidDescription is the gate between extracted candidates and the
// final record. It rejects fragments of stylesheet or URL noise that
// survive body cleaning.
func IsValidDescription(text string) bool {
	length := utf8.RuneCountInString(text)
	if length < 3 || length > 100 {
		return false
	}
	if strings.ContainsAny(text, "{};:@#<>") {
		return false
	}

	hasLetter := false
	for _, r := range text {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return false
	}

	if camelLeakRegex.MatchString(text) {
		return false
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "http://") || strings.Contains(lower, "https://") || strings.Contains(lower, "www.") {
		return false
	}
	return true
}
