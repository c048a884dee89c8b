// Package exercisecode normalizes and orders exercise identifiers of the form
// S{session}-{number}, e.g. S3-07.
package exercisecode

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Sessions is the number of sessions a code may refer to (S1..S5).
const Sessions = 5

var (
	canonicalRe = regexp.MustCompile(`^S[1-5]-\d{2}$`)
	looseRe     = regexp.MustCompile(`^S\s*([1-5])\s*-?\s*(\d{1,2})$`)
	// A code token inside free text. The separator is mandatory so that
	// numbers such as "S101" in prose are not mistaken for codes.
	tokenRe = regexp.MustCompile(`(?i)\bS\s?([1-5])\s?[-_\x{2010}-\x{2015}\x{2212}]\s?(\d{1,2})\b`)
)

// Token is a code found in free text, with its byte range in that text.
type Token struct {
	Code  string
	Raw   string
	Start int
	End   int
}

// IsDash reports whether r is an ASCII hyphen or one of the dash-like
// characters found in PDF exports (hyphen, non-breaking hyphen, figure dash,
// en dash, em dash, horizontal bar, minus sign).
func IsDash(r rune) bool {
	return r == '-' || (r >= '‐' && r <= '―') || r == '−'
}

// NormalizeDashes maps every dash-like rune to an ASCII hyphen.
func NormalizeDashes(s string) string {
	if !strings.ContainsFunc(s, func(r rune) bool { return r != '-' && IsDash(r) }) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if IsDash(r) {
			return '-'
		}
		return r
	}, s)
}

// Normalize returns the canonical spelling of a raw code. Spellings such as
// "s1_01", "S1-1", "S1–01" and "s1 01" all become "S1-01". Input that does
// not look like a code is returned trimmed and upper-cased, which IsValid
// rejects. Normalize is idempotent.
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = NormalizeDashes(s)
	s = strings.ReplaceAll(s, "_", "-")
	m := looseRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	session, _ := strconv.Atoi(m[1])
	num, err := strconv.Atoi(m[2])
	if err != nil {
		return s
	}
	return Format(session, num)
}

// Format builds a canonical code from its parts.
func Format(session, number int) string {
	return fmt.Sprintf("S%d-%02d", session, number)
}

// IsValid reports whether code is already in canonical form.
func IsValid(code string) bool {
	return canonicalRe.MatchString(code)
}

// Session returns the session digit of a canonical code, or 0.
func Session(code string) int {
	if !IsValid(code) {
		return 0
	}
	return int(code[1] - '0')
}

// Number returns the exercise number of a canonical code, or 0.
func Number(code string) int {
	if !IsValid(code) {
		return 0
	}
	n, _ := strconv.Atoi(code[3:])
	return n
}

// Less orders codes by session then number. Invalid codes sort after valid
// ones, lexically.
func Less(a, b string) bool {
	va, vb := IsValid(a), IsValid(b)
	switch {
	case va && vb:
		if sa, sb := Session(a), Session(b); sa != sb {
			return sa < sb
		}
		return Number(a) < Number(b)
	case va != vb:
		return va
	default:
		return a < b
	}
}

// Sort orders codes in place using Less.
func Sort(codes []string) {
	sort.SliceStable(codes, func(i, j int) bool { return Less(codes[i], codes[j]) })
}

// Expected lists every code implied by declared per-session exercise counts,
// in order. Sessions outside 1..5 and non-positive counts are ignored.
func Expected(counts map[int]int) []string {
	var out []string
	for s := 1; s <= Sessions; s++ {
		n := counts[s]
		for i := 1; i <= n; i++ {
			out = append(out, Format(s, i))
		}
	}
	return out
}

// ExpandRange lists the codes between two endpoints of the same session,
// inclusive. A reversed range ("S1-05" to "S1-01") expands like the forward
// one. Invalid endpoints or mixed sessions yield nil.
func ExpandRange(a, b string) []string {
	start, end := Normalize(a), Normalize(b)
	if !IsValid(start) || !IsValid(end) {
		return nil
	}
	if Session(start) != Session(end) {
		return nil
	}
	lo, hi := Number(start), Number(end)
	if lo > hi {
		lo, hi = hi, lo
	}
	session := Session(start)
	out := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, Format(session, i))
	}
	return out
}

// Tokens returns every valid code token in text, in order of appearance.
func Tokens(text string) []Token {
	idx := tokenRe.FindAllStringSubmatchIndex(text, -1)
	out := make([]Token, 0, len(idx))
	for _, m := range idx {
		session, _ := strconv.Atoi(text[m[2]:m[3]])
		num, err := strconv.Atoi(text[m[4]:m[5]])
		if err != nil {
			continue
		}
		code := Format(session, num)
		if !IsValid(code) {
			continue
		}
		out = append(out, Token{Code: code, Raw: text[m[0]:m[1]], Start: m[0], End: m[1]})
	}
	return out
}

// Unique returns the distinct codes of tokens, in order of first appearance.
func Unique(tokens []Token) []string {
	seen := make(map[string]struct{}, len(tokens))
	var out []string
	for _, t := range tokens {
		if _, ok := seen[t.Code]; ok {
			continue
		}
		seen[t.Code] = struct{}{}
		out = append(out, t.Code)
	}
	return out
}
