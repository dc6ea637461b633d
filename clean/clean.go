// Package clean reduces raw page markup to a bounded amount of text for the
// extraction backends. It only strips bodies that carry no data (scripts,
// styles, comments, boilerplate regions) and collapses whitespace; every
// remaining tag and attribute is preserved verbatim because the backends rely
// on seeing them, image URLs in particular.
package clean

import (
	"regexp"
	"strings"
)

var (
	scriptRe   = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe    = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	commentRe  = regexp.MustCompile(`(?s)<!--.*?-->`)
	navRe      = regexp.MustCompile(`(?is)<nav[^>]*>.*?</nav>`)
	footerRe   = regexp.MustCompile(`(?is)<footer[^>]*>.*?</footer>`)
	iframeRe   = regexp.MustCompile(`(?is)<iframe[^>]*>.*?</iframe>`)
	noscriptRe = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	spaceRe    = regexp.MustCompile(`\s+`)
	tagGapRe   = regexp.MustCompile(`>\s*<`)
)

// HTML strips script and style bodies, comments, and boilerplate regions
// (nav, footer, iframe, noscript) from raw markup, collapses whitespace runs
// to single spaces, and reinserts a newline between adjacent tags to restore
// line-oriented structure. The result is never longer than the input.
func HTML(raw string) string {
	text := raw
	text = scriptRe.ReplaceAllString(text, "")
	text = styleRe.ReplaceAllString(text, "")
	text = commentRe.ReplaceAllString(text, "")
	text = navRe.ReplaceAllString(text, "")
	text = footerRe.ReplaceAllString(text, "")
	text = iframeRe.ReplaceAllString(text, "")
	text = noscriptRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	text = tagGapRe.ReplaceAllString(text, ">\n<")
	return strings.TrimSpace(text)
}

// Chunk splits text into pieces of at most maxChars characters so each fits
// within one backend call. Inputs within the limit are returned whole. Longer
// inputs are split on paragraph boundaries when any exist, otherwise on line
// boundaries, and the boundary-delimited units are packed greedily in order.
// A unit is never split further, so a single oversized unit may exceed
// maxChars on its own.
func Chunk(text string, maxChars int) []string {
	if len(text) <= maxChars {
		return []string{text}
	}

	sep := "\n"
	if strings.Contains(text, "\n\n") {
		sep = "\n\n"
	}
	units := strings.Split(text, sep)

	chunks := []string{}
	current := []string{}
	size := 0
	for _, unit := range units {
		unitSize := len(unit) + len(sep)
		if size+unitSize > maxChars && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, sep))
			current = []string{unit}
			size = unitSize
		} else {
			current = append(current, unit)
			size += unitSize
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, sep))
	}
	return chunks
}
