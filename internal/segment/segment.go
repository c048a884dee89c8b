// Package segment slices a tokenized document into one block of text per
// exercise code.
package segment

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hyperifyio/epseditorial/internal/exercisecode"
	"github.com/hyperifyio/epseditorial/internal/tokenize"
)

// Provenance tells how a block was found.
type Provenance string

const (
	// Explicit blocks start at an anchor line.
	Explicit Provenance = "explicit"
	// Summary blocks are a single line that lists or ranges codes.
	Summary Provenance = "summary"
)

// Block is the text owned by one exercise code. Lines are [StartLine, EndLine).
type Block struct {
	Code      string     `json:"code"`
	Text      string     `json:"text"`
	StartLine int        `json:"startLine"`
	EndLine   int        `json:"endLine"`
	Offset    int        `json:"offset"`
	Source    Provenance `json:"source"`
}

// Leak is editorial prose cut off the end of an explicit block, such as a
// "(Suite des exercices ...)" note.
type Leak struct {
	Code      string `json:"code"`
	Text      string `json:"text"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
}

// Result maps each code to its block.
type Result struct {
	Blocks map[string]Block
	Leaks  []Leak
}

// Codes returns the block codes in session/number order.
func (r Result) Codes() []string {
	out := make([]string, 0, len(r.Blocks))
	for c := range r.Blocks {
		out = append(out, c)
	}
	exercisecode.Sort(out)
	return out
}

// Ordered returns the blocks in code order.
func (r Result) Ordered() []Block {
	codes := r.Codes()
	out := make([]Block, 0, len(codes))
	for _, c := range codes {
		out = append(out, r.Blocks[c])
	}
	return out
}

// DuplicateBlockError reports codes anchored more than once.
type DuplicateBlockError struct {
	Codes []string
	// Lines holds the zero-based anchor lines per duplicate code.
	Lines map[string][]int
}

func (e *DuplicateBlockError) Error() string {
	parts := make([]string, 0, len(e.Codes))
	for _, c := range e.Codes {
		lines := make([]string, 0, len(e.Lines[c]))
		for _, l := range e.Lines[c] {
			lines = append(lines, fmt.Sprint(l+1))
		}
		parts = append(parts, fmt.Sprintf("%s (lines %s)", c, strings.Join(lines, ", ")))
	}
	return "duplicate exercise block: " + strings.Join(parts, "; ")
}

var metaNoteRe = regexp.MustCompile(`(?i)(Suite des exercices|En raison de la longueur|Chaque fiche suit la m.?me structure|\(Les exercices S\d|\(En r.?sum|Probablement ins.?r|\(S[1-5]-\d{2})`)

// IsMetaNote reports whether line is a parenthesized editorial note about
// the document itself rather than exercise content.
func IsMetaNote(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "(") && metaNoteRe.MatchString(trimmed)
}

// Segment builds the explicit block of every anchor, then runs the summary
// pass for codes that have none. An explicit block runs from its anchor line
// to the next anchor, session header or Conclusion/Sources line. Anchoring
// the same code twice is fatal.
func Segment(doc tokenize.Document, anchors []tokenize.Anchor) (Result, error) {
	if err := checkDuplicates(anchors); err != nil {
		return Result{}, err
	}

	var stops []int
	for _, h := range tokenize.FindSessionHeaders(doc) {
		stops = append(stops, h.Line)
	}
	conclusion, sources := tokenize.FindSuffixLines(doc)
	stops = append(stops, conclusion...)
	stops = append(stops, sources...)
	sort.Ints(stops)

	res := Result{Blocks: make(map[string]Block, len(anchors))}
	for i, a := range anchors {
		end := len(doc.Lines)
		if i+1 < len(anchors) {
			end = anchors[i+1].Line
		}
		if s := firstAfter(stops, a.Line); s >= 0 && s < end {
			end = s
		}

		blockEnd := end
		for j := a.Line + 1; j < end; j++ {
			if IsMetaNote(doc.Lines[j]) {
				blockEnd = j
				break
			}
		}
		if blockEnd < end {
			res.Leaks = append(res.Leaks, Leak{
				Code:      a.Code,
				Text:      strings.TrimSpace(doc.Span(blockEnd, end)),
				StartLine: blockEnd,
				EndLine:   end,
			})
		}
		res.Blocks[a.Code] = Block{
			Code:      a.Code,
			Text:      doc.Span(a.Line, blockEnd),
			StartLine: a.Line,
			EndLine:   blockEnd,
			Offset:    a.Offset,
			Source:    Explicit,
		}
	}

	for code, b := range summaryBlocks(doc) {
		if _, ok := res.Blocks[code]; ok {
			continue
		}
		res.Blocks[code] = b
	}
	return res, nil
}

func checkDuplicates(anchors []tokenize.Anchor) error {
	lines := make(map[string][]int)
	for _, a := range anchors {
		lines[a.Code] = append(lines[a.Code], a.Line)
	}
	var dups []string
	for code, l := range lines {
		if len(l) > 1 {
			dups = append(dups, code)
		}
	}
	if len(dups) == 0 {
		return nil
	}
	exercisecode.Sort(dups)
	e := &DuplicateBlockError{Codes: dups, Lines: make(map[string][]int, len(dups))}
	for _, c := range dups {
		e.Lines[c] = lines[c]
	}
	return e
}

// firstAfter returns the first sorted value strictly greater than line, or -1.
func firstAfter(sorted []int, line int) int {
	i := sort.SearchInts(sorted, line+1)
	if i < len(sorted) {
		return sorted[i]
	}
	return -1
}
