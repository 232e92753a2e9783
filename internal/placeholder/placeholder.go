// Package placeholder inlines resolved media links into generated text.
//
// Generated prose marks media slots with tokens of the form __image<slot>__
// and __ytvid<slot>__. Substitute swaps resolved slots for their URLs and
// blanks out the rest so no raw token ever reaches a reader.
package placeholder

import (
	"regexp"
	"strings"
)

const (
	ImagePrefix = "image"
	VideoPrefix = "ytvid"
)

// space is the whitespace class unicode.IsSpace accepts.
const space = `\s\v\x{85}\p{Z}`

var (
	tokenRe      = regexp.MustCompile(`__(?:image|ytvid)[A-Za-z0-9-]+__`)
	urlPunctRe   = regexp.MustCompile(`(https?://[^` + space + `]+?)[,.]+([` + space + `]|$)`)
	whitespaceRe = regexp.MustCompile(`[` + space + `]+`)
)

// ImageToken returns the placeholder token for an image slot.
func ImageToken(slot string) string { return "__" + ImagePrefix + slot + "__" }

// VideoToken returns the placeholder token for a video slot.
func VideoToken(slot string) string { return "__" + VideoPrefix + slot + "__" }

// Substitute replaces resolved placeholders with their URLs, removes the
// unresolved ones and tidies the punctuation and whitespace left behind.
// It is pure, and running it on its own output is a no-op.
func Substitute(text string, images, videos map[string]string) string {
	for slot, url := range images {
		text = strings.ReplaceAll(text, ImageToken(slot), url)
	}
	for slot, url := range videos {
		text = strings.ReplaceAll(text, VideoToken(slot), url)
	}
	text = tokenRe.ReplaceAllString(text, " ")
	text = urlPunctRe.ReplaceAllString(text, "${1}${2}")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.Trim(text, " ")
}

// Tokens lists the distinct image/video placeholder tokens in text, in order
// of first appearance.
func Tokens(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, tok := range tokenRe.FindAllString(text, -1) {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}
