package common

import (
	"regexp"
	"strings"
)

var (
	styleBlockRegex  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptBlockRegex = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlCommentRegex = regexp.MustCompile(`(?s)<!--.*?-->`)
	lineBreakTag     = regexp.MustCompile(`(?i)<(?:br\s*/?|/p|/div|/tr|/li|/h[1-6])>`)
	htmlTagRegex     = regexp.MustCompile(`<[^>]+>`)
	nbspRegex        = regexp.MustCompile(`&nbsp;`)
	whitespaceRegex  = regexp.MustCompile(`\s+`)
	spaceTabRegex    = regexp.MustCompile(`[ \t]+`)

	urlRegex = regexp.MustCompile(`(?i)\bhttps?://\S+|\bwww\.\S+`)

	// Numeric amount patterns only care about digits, currency punctuation
	// and the MXN/peso currency words. Everything else becomes a space.
	amountNoiseRegex = regexp.MustCompile(`[^0-9$.,\sMXNPESOmxnpeso]`)

	cssLineRegex = regexp.MustCompile(`(?i)^\s*(?:@(?:media|import|font-face)\b|#[0-9a-f]{3,8}\b|(?:font|color|background|margin|padding|border|width|height|display|text-align|line-height|mso)[\w-]*\s*:)`)
)

// Normalize flattens an email fragment for keyword and pattern matching.
// Style and script blocks, tags, URLs and &nbsp; entities become spaces
// and whitespace runs collapse to a single space. Every replacement
// inserts a space so stripped boundaries never glue two tokens together,
// which also makes the function idempotent.
func Normalize(text string) string {
	text = styleBlockRegex.ReplaceAllString(text, " ")
	text = scriptBlockRegex.ReplaceAllString(text, " ")
	text = htmlCommentRegex.ReplaceAllString(text, " ")
	text = htmlTagRegex.ReplaceAllString(text, " ")
	text = nbspRegex.ReplaceAllString(text, " ")
	text = urlRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// NormalizeForAmount prepares text for the numeric amount patterns. CSS
// carries digits (hex colors, pixel sizes) that would read as amounts, so
// style blocks go first.
func NormalizeForAmount(text string) string {
	text = styleBlockRegex.ReplaceAllString(text, " ")
	text = scriptBlockRegex.ReplaceAllString(text, " ")
	text = htmlTagRegex.ReplaceAllString(text, " ")
	text = nbspRegex.ReplaceAllString(text, " ")
	text = amountNoiseRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// CleanBody strips markup from an email body while keeping its line
// structure, so line-oriented description patterns like "Concepto: ..."
// still see one field per line. CSS and leftover stylesheet lines from
// HTML-only emails are dropped entirely.
func CleanBody(body string) string {
	body = styleBlockRegex.ReplaceAllString(body, " ")
	body = scriptBlockRegex.ReplaceAllString(body, " ")
	body = htmlCommentRegex.ReplaceAllString(body, " ")
	body = lineBreakTag.ReplaceAllString(body, "\n")
	body = htmlTagRegex.ReplaceAllString(body, " ")
	body = nbspRegex.ReplaceAllString(body, " ")

	lines := strings.Split(body, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(spaceTabRegex.ReplaceAllString(line, " "))
		if line == "" {
			continue
		}
		if strings.ContainsAny(line, "{}") {
			continue
		}
		if strings.Contains(line, "!important") {
			continue
		}
		if cssLineRegex.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
