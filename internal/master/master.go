// Package master parses the hand-maintained editorial master file, a
// markdown document with one "S1-01" headed block per exercise and
// "Label: value" lines inside each block.
package master

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/hyperifyio/epseditorial/internal/exercisecode"
	"github.com/hyperifyio/epseditorial/internal/segment"
	"github.com/hyperifyio/epseditorial/internal/textnorm"
	"github.com/hyperifyio/epseditorial/internal/tokenize"
)

// ErrNotFound is wrapped by Load when the master file does not exist.
var ErrNotFound = errors.New("master: file not found")

// DuplicateBlockError is returned when a code heads two master blocks.
type DuplicateBlockError = segment.DuplicateBlockError

// Entry holds the editorial fields of one exercise. Empty means absent.
type Entry struct {
	Description       string `json:"description,omitempty"`
	Muscles           string `json:"muscles,omitempty"`
	Objectifs         string `json:"objectifs,omitempty"`
	Justifications    string `json:"justifications,omitempty"`
	Benefices         string `json:"benefices,omitempty"`
	ContreIndications string `json:"contreIndications,omitempty"`
	Progression       string `json:"progression,omitempty"`
	Consignes         string `json:"consignes,omitempty"`
	Dosage            string `json:"dosage,omitempty"`
}

// IsZero reports whether no field is set.
func (e Entry) IsZero() bool { return e == Entry{} }

func (e *Entry) field(name string) *string {
	switch name {
	case "description":
		return &e.Description
	case "muscles":
		return &e.Muscles
	case "objectifs":
		return &e.Objectifs
	case "justifications":
		return &e.Justifications
	case "benefices":
		return &e.Benefices
	case "contreIndications":
		return &e.ContreIndications
	case "progression":
		return &e.Progression
	case "consignes":
		return &e.Consignes
	case "dosage":
		return &e.Dosage
	}
	return nil
}

// labels maps folded label spellings, French and English, to Entry fields.
var labels = map[string]string{
	"description":                       "description",
	"description anatomique":            "description",
	"anatomy":                           "description",
	"muscles":                           "muscles",
	"objectif":                          "objectifs",
	"objectifs":                         "objectifs",
	"objective":                         "objectifs",
	"objectifs fonctionnels":            "objectifs",
	"justification":                     "justifications",
	"justifications":                    "justifications",
	"justifications biomecaniques":      "justifications",
	"benefices":                         "benefices",
	"benefices averes":                  "benefices",
	"contre indications":                "contreIndications",
	"contre indications et adaptations": "contreIndications",
	"contre indications adaptations":    "contreIndications",
	"contreindications":                 "contreIndications",
	"securite":                          "contreIndications",
	"safety":                            "contreIndications",
	"progression":                       "progression",
	"progressions":                      "progression",
	"progressions regressions":          "progression",
	"progression regressions":           "progression",
	"progression regression":            "progression",
	"progressions regression":           "progression",
	"progress":                          "progression",
	"regress":                           "progression",
	"regression":                        "progression",
	"regressions":                       "progression",
	"consignes":                         "consignes",
	"consignes cles":                    "consignes",
	"consignes pedagogiques":            "consignes",
	"key points":                        "consignes",
	"dosage":                            "dosage",
	"dosage recommande":                 "dosage",
}

var labelLineRe = regexp.MustCompile(`^([^:]+):(.*)$`)

// Result is the parsed master file.
type Result struct {
	Entries map[string]Entry
	// Lines are the tokenized lines of the file.
	Lines []string
	// CodeLines is the zero-based line of each block heading.
	CodeLines map[string]int
	// SHA256 is the hex digest of the bytes read by Load.
	SHA256 string
}

// Codes returns the codes with a non-empty entry in session/number order.
func (r Result) Codes() []string {
	out := make([]string, 0, len(r.Entries))
	for c := range r.Entries {
		out = append(out, c)
	}
	exercisecode.Sort(out)
	return out
}

// Parse splits raw into blocks at each exercise anchor and reads the label
// lines of every block. A label line starts a field; following lines are
// appended to it until the next label. A label repeated within a block is
// concatenated on a new line. Blocks yielding no field are dropped.
func Parse(raw string) (Result, error) {
	doc := tokenize.Tokenize(raw)
	anchors := tokenize.FindAnchors(doc)
	res := Result{Entries: make(map[string]Entry), Lines: doc.Lines, CodeLines: make(map[string]int)}

	seen := make(map[string][]int)
	for _, a := range anchors {
		seen[a.Code] = append(seen[a.Code], a.Line)
	}
	dup := &DuplicateBlockError{Lines: make(map[string][]int)}
	for _, a := range anchors {
		if l := seen[a.Code]; len(l) > 1 && dup.Lines[a.Code] == nil {
			dup.Codes = append(dup.Codes, a.Code)
			dup.Lines[a.Code] = l
		}
	}
	if len(dup.Codes) > 0 {
		exercisecode.Sort(dup.Codes)
		return Result{}, fmt.Errorf("master: %w", dup)
	}

	for i, a := range anchors {
		end := len(doc.Lines)
		if i+1 < len(anchors) {
			end = anchors[i+1].Line
		}
		res.CodeLines[a.Code] = a.Line
		e, err := parseBlock(doc.Span(a.Line, end))
		if err != nil {
			return Result{}, fmt.Errorf("master: block %s (line %d): %w", a.Code, a.Line+1, err)
		}
		if !e.IsZero() {
			res.Entries[a.Code] = e
		}
	}
	return res, nil
}

func parseBlock(block string) (Entry, error) {
	var e Entry
	var current string
	var buf []string
	commit := func() {
		if current == "" {
			return
		}
		value := strings.TrimSpace(strings.Join(buf, "\n"))
		if value == "" {
			return
		}
		dst := e.field(current)
		if *dst != "" {
			*dst += "\n" + value
		} else {
			*dst = value
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(block))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if m := labelLineRe.FindStringSubmatch(line); m != nil {
			if name, ok := labels[textnorm.Fold(m[1])]; ok {
				commit()
				current = name
				buf = buf[:0]
				if rest := strings.TrimLeft(m[2], " \t"); rest != "" {
					buf = append(buf, rest)
				}
				continue
			}
		}
		if current != "" {
			buf = append(buf, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return Entry{}, err
	}
	commit()
	return e, nil
}

// Load reads and parses the master file at path. A missing file yields an
// empty result and an error wrapping ErrNotFound so callers can warn and go
// on without it.
func Load(path string) (Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Entries: map[string]Entry{}, CodeLines: map[string]int{}}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Result{}, fmt.Errorf("read master: %w", err)
	}
	res, err := Parse(string(b))
	if err != nil {
		return Result{}, err
	}
	sum := sha256.Sum256(b)
	res.SHA256 = hex.EncodeToString(sum[:])
	return res, nil
}
