package resolver

import (
	"regexp"
	"strings"
)

var (
	brTagRegex          = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockCloseRegex     = regexp.MustCompile(`(?i)</(?:div|p)>`)
	anyTagRegex         = regexp.MustCompile(`<[^>]+>`)
	sectionLineRegex    = regexp.MustCompile(`\n\[[^\]]+\]\n`)
	sectionHeadingRegex = regexp.MustCompile(`\[[^\]]+\]`)
	contributorsRegex   = regexp.MustCompile(`(?im)^\d+\s*Contributors`)
	translationsRegex   = regexp.MustCompile(`(?im)^.*Translations`)
	newlineRunRegex     = regexp.MustCompile(`\n{3,}`)
)

// CleanLyricsText converts a raw container fragment into display-ready
// plain text. The transform is ordered: line-break and block-close tags
// become newlines, every remaining tag is stripped, a small fixed entity
// table is decoded, leading boilerplate is removed, section headings are
// re-spaced and newline runs collapsed. Pure text transformation.
func CleanLyricsText(fragment string) string {
	text := brTagRegex.ReplaceAllString(fragment, "\n")
	text = blockCloseRegex.ReplaceAllString(text, "\n")
	text = anyTagRegex.ReplaceAllString(text, "")
	text = decodeEntities(text)

	// Search pages prepend contributor credits and translation lists
	// before the lyric body. The first bracketed section heading on its
	// own line is the reliable anchor for where lyrics start; everything
	// before it goes. Pages without any section heading fall back to two
	// targeted strip rules.
	if loc := sectionLineRegex.FindStringIndex(text); loc != nil {
		text = strings.TrimSpace(text[loc[0]:])
	} else {
		text = stripLeadingBlock(text, contributorsRegex)
		text = stripLeadingBlock(text, translationsRegex)
	}

	// Guarantee a blank line around every section heading regardless of
	// the source formatting, then squash the excess.
	text = sectionHeadingRegex.ReplaceAllString(text, "\n${0}\n")
	text = strings.TrimSpace(text)
	text = newlineRunRegex.ReplaceAllString(text, "\n\n")

	return text
}

// decodeEntities decodes exactly the entities the song pages emit.
// Applied sequentially, not as a general entity table.
func decodeEntities(s string) string {
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&#x27;", "'")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	return s
}

// stripLeadingBlock removes the region from the first match of start up
// to (but not including) the next line that begins with an uppercase
// letter. Nothing is removed when no such line follows the match.
func stripLeadingBlock(text string, start *regexp.Regexp) string {
	loc := start.FindStringIndex(text)
	if loc == nil {
		return text
	}
	for i := loc[1]; i+1 < len(text); i++ {
		if text[i] == '\n' && text[i+1] >= 'A' && text[i+1] <= 'Z' {
			return text[:loc[0]] + text[i:]
		}
	}
	return text
}
