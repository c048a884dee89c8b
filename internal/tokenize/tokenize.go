// Package tokenize splits an editorial document into normalized lines and
// locates the exercise anchors, session headers and document-wide suffix
// lines that later stages slice on.
package tokenize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hyperifyio/epseditorial/internal/exercisecode"
	"github.com/hyperifyio/epseditorial/internal/textnorm"
)

// Document is an immutable, line-indexed snapshot of the input text.
type Document struct {
	// Text uses LF line endings with trailing spaces and tabs removed.
	Text  string
	Lines []string
	// Offsets[i] is the byte offset of Lines[i] in Text.
	Offsets []int
}

// Anchor marks the line where an exercise block starts.
type Anchor struct {
	Code   string
	Line   int
	Offset int
}

// SessionHeader is a "Session N - title" line. Count is the declared number
// of exercises, or 0 when the header does not declare one.
type SessionHeader struct {
	Session int
	Line    int
	Header  string
	Count   int
}

const dashClass = `\-\x{2010}-\x{2015}\x{2212}`

var (
	// Optional indentation, an optional heading or ordinal marker, optional
	// bold markup, then the code. Bullets are not markers: bulleted codes
	// are listings, not block starts.
	anchorRe = regexp.MustCompile(`^[ \t]*(?:(?:#{1,6}|\d{1,3}[.)])[ \t]*)?(?:\*\*[ \t]*)?(S[1-5][` + dashClass + `]\d{2})\b`)

	sessionHeaderRe = regexp.MustCompile(`(?i)^\s*Session\s+([1-5])\s*[:` + dashClass + `]\s*(.+)$`)
	sessionCountRe  = regexp.MustCompile(`(?i)^\s*Session\s+([1-5])\b.*\((\d+)\s+exercices?\)`)
	conclusionRe    = regexp.MustCompile(`(?i)^\s*Conclusion\s*:`)
	sourcesRe       = regexp.MustCompile(`(?i)^\s*Sources\s*:`)
)

// Tokenize normalizes line endings, strips trailing horizontal whitespace
// and indexes the lines of raw.
func Tokenize(raw string) Document {
	text := textnorm.StripTrailingWhitespace(textnorm.NormalizeLineEndings(raw))
	lines := strings.Split(text, "\n")
	offsets := make([]int, len(lines))
	pos := 0
	for i, l := range lines {
		offsets[i] = pos
		pos += len(l) + 1
	}
	return Document{Text: text, Lines: lines, Offsets: offsets}
}

// Span joins lines [start, end) without the final newline.
func (d Document) Span(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(d.Lines) {
		end = len(d.Lines)
	}
	if start >= end {
		return ""
	}
	return strings.Join(d.Lines[start:end], "\n")
}

// FindAnchors returns the exercise anchors in document order. Lines whose
// code does not normalize to a valid exercise code are skipped.
func FindAnchors(doc Document) []Anchor {
	var out []Anchor
	for i, line := range doc.Lines {
		m := anchorRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		code := exercisecode.Normalize(exercisecode.NormalizeDashes(m[1]))
		if !exercisecode.IsValid(code) {
			continue
		}
		out = append(out, Anchor{Code: code, Line: i, Offset: doc.Offsets[i]})
	}
	return out
}

// FindSessionHeaders returns session header lines in document order.
func FindSessionHeaders(doc Document) []SessionHeader {
	var out []SessionHeader
	for i, line := range doc.Lines {
		var session int
		if m := sessionHeaderRe.FindStringSubmatch(line); m != nil {
			session, _ = strconv.Atoi(m[1])
		}
		count := 0
		if m := sessionCountRe.FindStringSubmatch(line); m != nil {
			session, _ = strconv.Atoi(m[1])
			count, _ = strconv.Atoi(m[2])
		}
		if session == 0 {
			continue
		}
		out = append(out, SessionHeader{Session: session, Line: i, Header: strings.TrimSpace(line), Count: count})
	}
	return out
}

// FindSuffixLines returns the indexes of lines opening the document-wide
// "Conclusion:" and "Sources:" sections.
func FindSuffixLines(doc Document) (conclusion, sources []int) {
	for i, line := range doc.Lines {
		if conclusionRe.MatchString(line) {
			conclusion = append(conclusion, i)
		}
		if sourcesRe.MatchString(line) {
			sources = append(sources, i)
		}
	}
	return conclusion, sources
}
