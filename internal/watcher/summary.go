package watcher

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxSummaryRunes = 280

// blockSelector lists elements whose text should not run into the next block.
const blockSelector = "p, div, li, br, h1, h2, h3, h4, h5, h6, blockquote, pre, tr"

// Summarize reduces an HTML description to a single line of plain text,
// truncated to a notice-friendly length.
func Summarize(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return truncate(strings.Join(strings.Fields(description), " "))
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml(" ")
	})

	return truncate(strings.Join(strings.Fields(doc.Text()), " "))
}

func truncate(text string) string {
	if utf8.RuneCountInString(text) <= maxSummaryRunes {
		return text
	}
	runes := []rune(text)
	cut := strings.TrimRight(string(runes[:maxSummaryRunes-1]), " ")
	return cut + "…"
}
