package match

import (
	"regexp"
	"strings"
)

// transform is one step of the normalization pipeline.
type transform struct {
	name  string
	apply func(string) string
}

var (
	// Leading articles and determiners across the languages the catalog
	// providers commonly mix in.
	articleRe = regexp.MustCompile(`^(?i:the|a|an|o|os|as|um|uma|el|la|los|las|le|les|un|une|des|der|die|das)\s+`)

	yearRe        = regexp.MustCompile(`\s*\(?\d{4}\)?`)
	bracketTagRe  = regexp.MustCompile(`\s*\[[^\]]*\]`)
	parenNoteRe   = regexp.MustCompile(`\s*\([^)]*\)`)
	qualityTailRe = regexp.MustCompile(`(?i)\s*(720p|1080p|2160p|4k|hd|bluray|brrip|webrip|web-dl|hdtv|dvdrip|cam|ts|tc).*$`)
	punctRe       = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

// pipeline is applied in order; each step is pure and testable on its own.
// The article strip runs last: stripping a year, tag or punctuation can
// unveil a leading article ("[4K] The Matrix"), and an earlier strip would
// leave it behind on the first pass.
var pipeline = []transform{
	{"lowercase", strings.ToLower},
	{"strip-years", func(s string) string { return yearRe.ReplaceAllString(s, "") }},
	{"strip-bracket-tags", func(s string) string { return bracketTagRe.ReplaceAllString(s, "") }},
	{"strip-paren-notes", func(s string) string { return parenNoteRe.ReplaceAllString(s, "") }},
	{"strip-quality-tail", func(s string) string { return qualityTailRe.ReplaceAllString(s, "") }},
	{"strip-punctuation", func(s string) string { return punctRe.ReplaceAllString(s, "") }},
	{"collapse-spaces", func(s string) string { return spaceRe.ReplaceAllString(s, " ") }},
	{"trim", strings.TrimSpace},
	{"strip-article", stripArticles},
}

// stripArticles removes leading articles until none remain, so stacked
// articles ("The Os ...") reduce the same way no matter how many passes run.
func stripArticles(s string) string {
	for {
		next := articleRe.ReplaceAllString(s, "")
		if next == s {
			return s
		}
		s = next
	}
}

// NormalizeTitle reduces a display title to its comparable form: lowercase,
// no leading article, no year/quality/bracket noise, letters (accents kept),
// digits and single spaces only. Idempotent.
func NormalizeTitle(title string) string {
	s := title
	for _, t := range pipeline {
		s = t.apply(s)
	}
	return s
}
