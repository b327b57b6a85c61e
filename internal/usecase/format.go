package usecase

import (
	"regexp"
	"strings"
)

// Compiled once; the cleaner runs on every assistant answer.
var (
	numberedListRegex   = regexp.MustCompile(`(?m)^\d+\.\s*`)
	inlineNumberedRegex = regexp.MustCompile(`\n\d+\.\s*`)
	bulletRegex         = regexp.MustCompile(`(?m)^[-•]\s*`)
	inlineBulletRegex   = regexp.MustCompile(`\n[-•]\s*`)
	lineBreakRegex      = regexp.MustCompile(`\n+`)
	repeatedSpaceRegex  = regexp.MustCompile(`\s+`)
)

// CleanFormatting flattens a model answer into one natural paragraph:
// markdown emphasis markers, numbered lists, and bullets are removed and
// line breaks collapse into spaces. The extractor runs on the cleaned
// text so list markers never leak into mention offsets.
func CleanFormatting(text string) string {
	if text == "" {
		return text
	}

	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "*", "")

	text = numberedListRegex.ReplaceAllString(text, "")
	text = inlineNumberedRegex.ReplaceAllString(text, " ")

	text = bulletRegex.ReplaceAllString(text, "")
	text = inlineBulletRegex.ReplaceAllString(text, " ")

	text = lineBreakRegex.ReplaceAllString(text, " ")
	text = repeatedSpaceRegex.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if text != "" {
		last := text[len(text)-1]
		if last != '.' && last != '!' && last != '?' {
			text += "."
		}
	}
	return text
}
