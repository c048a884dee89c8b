package segment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperifyio/epseditorial/internal/exercisecode"
	"github.com/hyperifyio/epseditorial/internal/tokenize"
)

// Guide is the document-level prose around the exercise blocks.
type Guide struct {
	Presentation string    `json:"presentation"`
	Conclusion   string    `json:"conclusion"`
	Sources      string    `json:"sources"`
	Notes        string    `json:"notes"`
	Sessions     []Session `json:"sessions"`
	// Spans are the document lines each part was read from.
	Spans []Span `json:"-"`
}

// Span is a [Start, End) line range owned by a guide part.
type Span struct {
	Part  string
	Start int
	End   int
}

// Session is the prose of one session: About sits between its header and
// its first exercise, Extra collects editorial notes attributed to it.
type Session struct {
	ID     string `json:"id"`
	Header string `json:"header"`
	About  string `json:"about"`
	Extra  string `json:"extra"`
}

var (
	presentationRe = regexp.MustCompile(`(?i)^\s*pr.?sentation\s*:\s*`)
	conclusionRe   = regexp.MustCompile(`(?i)^\s*conclusion\s*:\s*`)
	sourcesRe      = regexp.MustCompile(`(?i)^\s*sources\s*:\s*`)
	sessionWordRe  = regexp.MustCompile(`(?i)session\s+([1-5])`)
)

// ExtractGuide collects the presentation (everything before the first
// session header), the conclusion and sources sections, the per-session
// about text and the leaked editorial notes.
func ExtractGuide(doc tokenize.Document, headers []tokenize.SessionHeader, anchors []tokenize.Anchor, leaks []Leak) Guide {
	var g Guide
	conclusion, sources := tokenize.FindSuffixLines(doc)
	n := len(doc.Lines)

	first := n
	if len(headers) > 0 {
		first = headers[0].Line
	} else if len(anchors) > 0 {
		first = anchors[0].Line
	}
	g.Presentation = stripPrefix(nonEmpty(doc.Lines[:first]), presentationRe)
	g.Spans = append(g.Spans, Span{Part: "presentation", Start: 0, End: first})

	cl, sl := -1, -1
	if len(conclusion) > 0 {
		cl = conclusion[0]
	}
	if len(sources) > 0 {
		sl = sources[0]
	}
	if cl >= 0 {
		end := n
		if sl > cl {
			end = sl
		}
		g.Conclusion = stripPrefix(doc.Span(cl, end), conclusionRe)
		g.Spans = append(g.Spans, Span{Part: "conclusion", Start: cl, End: end})
	}
	if sl >= 0 {
		g.Sources = stripPrefix(doc.Span(sl, n), sourcesRe)
		g.Spans = append(g.Spans, Span{Part: "sources", Start: sl, End: n})
	}

	extra := make(map[string][]string)
	var notes []string
	for i, h := range headers {
		end := n
		if i+1 < len(headers) {
			end = headers[i+1].Line
		}
		if c := firstAfter(conclusion, h.Line); c >= 0 && c < end {
			end = c
		}
		for _, a := range anchors {
			if a.Line > h.Line && a.Line < end {
				end = a.Line
				break
			}
		}
		id := fmt.Sprintf("S%d", h.Session)
		g.Spans = append(g.Spans, Span{Part: "session " + id, Start: h.Line, End: end})
		var about []string
		for _, line := range doc.Lines[h.Line+1 : end] {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if IsMetaNote(line) {
				extra[id] = append(extra[id], unwrap(line))
				continue
			}
			about = append(about, line)
		}
		g.Sessions = append(g.Sessions, Session{ID: id, Header: h.Header, About: strings.TrimSpace(strings.Join(about, "\n"))})
	}

	known := make(map[string]bool, len(g.Sessions))
	for _, s := range g.Sessions {
		known[s.ID] = true
	}
	for _, l := range leaks {
		text := unwrap(l.Text)
		if text == "" {
			continue
		}
		if id := inferSession(text); known[id] {
			extra[id] = append(extra[id], text)
			continue
		}
		notes = append(notes, text)
	}
	for i := range g.Sessions {
		g.Sessions[i].Extra = strings.Join(extra[g.Sessions[i].ID], "\n\n")
	}
	g.Notes = strings.Join(notes, "\n\n")
	return g
}

func nonEmpty(lines []string) string {
	var out []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func stripPrefix(text string, re *regexp.Regexp) string {
	return strings.TrimSpace(re.ReplaceAllString(strings.TrimSpace(text), ""))
}

// unwrap drops the parentheses around a meta note.
func unwrap(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func inferSession(text string) string {
	if m := sessionWordRe.FindStringSubmatch(text); m != nil {
		return "S" + m[1]
	}
	if t := exercisecode.Tokens(text); len(t) > 0 {
		return fmt.Sprintf("S%d", exercisecode.Session(t[0].Code))
	}
	return ""
}
