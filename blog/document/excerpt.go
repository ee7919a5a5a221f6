package document

import (
	"regexp"
	"strings"
)

const (
	excerptLength = 140
	ellipsis      = "..."
)

var (
	imageRegex    = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
	tagRegex      = regexp.MustCompile(`<[^>]*>`)
	linkRegex     = regexp.MustCompile(`\[(.*?)\]\(.*?\)`)
	markerRegex   = regexp.MustCompile("[#*`~]")
	spaceRunRegex = regexp.MustCompile(`\s+`)
)

// DeriveExcerpt turns a Markdown body into a short plain-text preview of at most
// 140 characters, followed by "..." when it had to be cut.
func DeriveExcerpt(body string) string {
	text := imageRegex.ReplaceAllString(body, "")
	text = tagRegex.ReplaceAllString(text, "")
	text = linkRegex.ReplaceAllString(text, "$1")
	text = markerRegex.ReplaceAllString(text, "")
	text = spaceRunRegex.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) <= excerptLength {
		return text
	}
	return string(runes[:excerptLength]) + ellipsis
}
