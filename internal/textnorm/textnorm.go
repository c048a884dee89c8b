// Package textnorm holds the text normalization passes shared by the
// editorial pipeline: typography cleanup, referral phrase stripping,
// comparison folding and the span-mapped normalization used for label search.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Rule is a single regex rewrite pass.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Replace string
}

// Apply folds text through rules in order.
func Apply(text string, rules ...Rule) string {
	for _, r := range rules {
		text = r.Pattern.ReplaceAllString(text, r.Replace)
	}
	return text
}

var (
	lineEndingRule      = Rule{Name: "line-endings", Pattern: regexp.MustCompile(`\r\n?`), Replace: "\n"}
	trailingSpaceRule   = Rule{Name: "trailing-whitespace", Pattern: regexp.MustCompile(`(?m)[ \t]+$`), Replace: ""}
	bulletRule          = Rule{Name: "bullets", Pattern: regexp.MustCompile(`(?m)^[ \t]*[•●▪◦][ \t]+`), Replace: "- "}
	collapseSpaceRule   = Rule{Name: "collapse-spaces", Pattern: regexp.MustCompile(`[ \t]{2,}`), Replace: " "}
	collapseNewlineRule = Rule{Name: "collapse-newlines", Pattern: regexp.MustCompile(`\n{3,}`), Replace: "\n\n"}

	paragraphRe  = regexp.MustCompile(`\n{2,}`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// TypographyRules returns the ordered typography cleanup passes. Order
// matters: line endings are unified before trailing whitespace is stripped
// and bullets are rewritten before spaces are collapsed.
func TypographyRules() []Rule {
	return []Rule{lineEndingRule, trailingSpaceRule, bulletRule, collapseSpaceRule, collapseNewlineRule}
}

// NormalizeTypography applies TypographyRules and trims the result.
func NormalizeTypography(text string) string {
	return strings.TrimSpace(Apply(text, TypographyRules()...))
}

// NormalizeLineEndings maps CRLF and CR to LF.
func NormalizeLineEndings(text string) string {
	return Apply(text, lineEndingRule)
}

// StripTrailingWhitespace removes spaces and tabs at the end of every line.
func StripTrailingWhitespace(text string) string {
	return Apply(text, trailingSpaceRule)
}

// SplitParagraphs splits on blank lines and drops empty parts.
func SplitParagraphs(text string) []string {
	parts := paragraphRe.Split(NormalizeLineEndings(text), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ReferralRules returns the French referral phrases that point the reader
// to another exercise instead of describing this one.
func ReferralRules() []Rule {
	code := `S[1-5]\s*[-_ ]\s*\d{1,2}`
	mk := func(name, expr string) Rule {
		return Rule{Name: name, Pattern: regexp.MustCompile(`(?i)` + expr)}
	}
	return []Rule{
		mk("idem", `\bidem\b`),
		mk("id", `\bid\.`),
		mk("voir-exercice", `\bvoir\s+(?:l'|l’|le|les)?\s*(?:exercice|exo|fiche)\b`),
		mk("voir-code", `\bvoir\s+(?:`+code+`)\b`),
		mk("cf-exercice", `\bcf\.?\s+(?:l'|l’|le|les)?\s*(?:exercice|exo|fiche)\b`),
		mk("cf-code", `\bcf\.?\s+(?:`+code+`)\b`),
		mk("se-referer", `\bse\s+r[ée]f[ée]rer\b`),
		mk("comme-exercice", `\bcomme\s+l['’]exercice\b`),
		mk("exercice-code", `\bexercice\s+`+code+`\b`),
	}
}

// StripReferralPhrases removes every referral phrase and tidies the spacing
// left behind.
func StripReferralPhrases(text string) string {
	out := Apply(text, ReferralRules()...)
	out = Apply(out, collapseSpaceRule, collapseNewlineRule)
	return strings.TrimSpace(out)
}

// HasReferralPhrase reports whether any referral rule matches text.
func HasReferralPhrase(text string) bool {
	for _, r := range ReferralRules() {
		if r.Pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// Sanitize is the cleanup applied to every generated text field.
func Sanitize(text string) string {
	return NormalizeTypography(StripReferralPhrases(text))
}

// Compact collapses whitespace and cuts text to 160 runes, for log excerpts.
func Compact(text string) string {
	const max = 160
	s := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "…"
}

// expandLigatures spells out œ and æ, which NFKD leaves untouched.
var expandLigatures = strings.NewReplacer("œ", "oe", "Œ", "oe", "æ", "ae", "Æ", "ae")

func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.M)))
}

// Fold returns the comparison form of text: lower-case ASCII letters and
// digits separated by single spaces.
func Fold(text string) string {
	s := expandLigatures.Replace(strings.ToLower(text))
	if folded, _, err := transform.String(stripMarks(), s); err == nil {
		s = folded
	}
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

// SpanMap is a normalized rendition of a text together with, for every byte
// of Normalized, the byte range of the original rune it came from.
type SpanMap struct {
	Normalized string
	Start      []int
	End        []int
}

// Original returns the original byte range covering normalized bytes
// [from, to).
func (m SpanMap) Original(from, to int) (int, int) {
	if from >= to || from < 0 || to > len(m.Start) {
		return -1, -1
	}
	return m.Start[from], m.End[to-1]
}

// NormalizeWithSpans builds the label search form of text rune by rune:
// ligatures are expanded, marks stripped after NFKD, letters lower-cased and
// anything outside [a-z0-9:] and whitespace replaced by a space. Newlines are
// kept; other whitespace becomes a plain space, so Normalized is ASCII.
func NormalizeWithSpans(text string) SpanMap {
	t := stripMarks()
	m := SpanMap{
		Start: make([]int, 0, len(text)),
		End:   make([]int, 0, len(text)),
	}
	var b strings.Builder
	b.Grow(len(text))
	for i, r := range text {
		size := utf8.RuneLen(r)
		if r == utf8.RuneError {
			_, size = utf8.DecodeRuneInString(text[i:])
		}
		piece := string(r)
		if r >= utf8.RuneSelf {
			piece = expandLigatures.Replace(piece)
			if out, _, err := transform.String(t, piece); err == nil {
				piece = out
			}
		}
		for _, o := range strings.ToLower(piece) {
			var c byte
			switch {
			case (o >= 'a' && o <= 'z') || (o >= '0' && o <= '9') || o == ':' || o == '\n':
				c = byte(o)
			default:
				c = ' '
			}
			b.WriteByte(c)
			m.Start = append(m.Start, i)
			m.End = append(m.End, i+size)
		}
	}
	m.Normalized = b.String()
	return m
}
