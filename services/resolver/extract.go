package resolver

import (
	"regexp"
	"strings"
)

// containerOpenRegex locates the opening tag of a lyrics container. Only
// the opener is found by regex; the container's extent is determined by
// the depth-tracked scan below, because lyrics containers routinely nest
// further divs (line groups, styling wrappers) whose closing tags a
// "first </div>" regex would match prematurely.
var containerOpenRegex = regexp.MustCompile(`<div[^>]*data-lyrics-container="true"[^>]*>`)

// ExtractContainers returns the concatenated inner content of every
// lyrics container in the document, in document order, with no separator
// inserted between containers. A container left unbalanced at the end of
// the document is silently abandoned. Returns "" when no container is
// found.
func ExtractContainers(html string) string {
	var out strings.Builder

	for _, loc := range containerOpenRegex.FindAllStringIndex(html, -1) {
		start := loc[1] // content begins immediately after the opener
		depth := 1
		cursor := start

		for depth > 0 {
			next := strings.Index(html[cursor:], "<")
			if next == -1 {
				break // ran off the document, abandon this container
			}
			pos := cursor + next

			switch {
			case strings.HasPrefix(html[pos:], "<div"):
				depth++
				cursor = pos + len("<div")
			case strings.HasPrefix(html[pos:], "</div"):
				depth--
				if depth == 0 {
					out.WriteString(html[start:pos])
				} else {
					cursor = pos + len("</div")
				}
			default:
				// Some other tag; skip the bracket and keep scanning.
				cursor = pos + 1
			}
		}
	}

	return out.String()
}
