package text

import (
	"regexp"
	"strings"
)

type INormalizer interface {
	Normalize(text string) string
}

// SpeechNormalizer prepares assistant replies for synthesis: markdown
// emphasis and code markers are stripped and whitespace is collapsed so the
// voice reads clean prose. The stored conversation turn is never modified.
type SpeechNormalizer struct{}

func NewSpeechNormalizer() *SpeechNormalizer {
	return &SpeechNormalizer{}
}

var (
	emphasisRe   = regexp.MustCompile(`[*_]{1,3}([^*_]+)[*_]{1,3}`)
	inlineCodeRe = regexp.MustCompile("`([^`]*)`")
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	bulletRe     = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

func (n *SpeechNormalizer) Normalize(text string) string {
	out := emphasisRe.ReplaceAllString(text, "$1")
	out = inlineCodeRe.ReplaceAllString(out, "$1")
	out = headingRe.ReplaceAllString(out, "")
	out = bulletRe.ReplaceAllString(out, "")
	out = whitespaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
