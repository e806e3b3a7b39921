package common

import (
	"strings"

	"golang.org/x/net/html"
)

// Elements whose subtree never contains message text.
var skippedElements = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
	"title":  true,
}

// Elements that start a new line when rendered.
var blockElements = map[string]bool{
	"p": true, "div": true, "tr": true, "li": true, "table": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "ul": true, "ol": true,
}

// HTMLToText renders an HTML email body as plain text. Block elements and
// <br> become line breaks, table cells are separated by spaces, and script
// and style subtrees are dropped entirely. The output is line-trimmed so
// the extractors downstream see the same shape a text/plain part would
// have.
func HTMLToText(source string) string {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return CleanBody(source)
	}

	var builder strings.Builder
	builder.Grow(len(source) / 2)

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			if skippedElements[node.Data] {
				return
			}
			if node.Data == "br" || blockElements[node.Data] {
				builder.WriteByte('\n')
			}
			if node.Data == "td" || node.Data == "th" {
				builder.WriteByte(' ')
			}
		}
		if node.Type == html.TextNode {
			builder.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if node.Type == html.ElementNode && blockElements[node.Data] {
			builder.WriteByte('\n')
		}
	}
	walk(doc)

	// The parser decodes &nbsp; into U+00A0, which \s does not cover.
	text := strings.ReplaceAll(builder.String(), " ", " ")

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(spaceTabRegex.ReplaceAllString(line, " "))
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
