// Package sheet reads the structured exercise sheet layout of the guide
// (upper-case headings such as "OBJECTIF" or "POINTS CLÉS") out of an
// exercise block.
package sheet

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/hyperifyio/epseditorial/internal/exercisecode"
	"github.com/hyperifyio/epseditorial/internal/textnorm"
)

const (
	DefaultLevel     = "Intermédiaire"
	DefaultEquipment = "Aucun"
)

// Levels lists the allowed difficulty levels.
func Levels() []string { return []string{"Débutant", "Intermédiaire", "Avancé"} }

// Sheet holds the short structured fields of one exercise.
type Sheet struct {
	Title       string   `json:"title"`
	Level       string   `json:"level"`
	Equipment   string   `json:"equipment"`
	Muscles     string   `json:"muscles"`
	Objective   string   `json:"objective"`
	Anatomy     string   `json:"anatomy"`
	KeyPoints   []string `json:"keyPoints"`
	Safety      []string `json:"safety"`
	Regression  string   `json:"regression"`
	Progression string   `json:"progression"`
	Dosage      string   `json:"dosage"`
}

type field int

const (
	none field = iota
	objective
	muscles
	anatomy
	keyPoints
	safety
	regression
	progression
	dosage
	equipment
	level
)

// headings are matched against the folded start of a line, first match wins.
var headings = []struct {
	prefix string
	f      field
}{
	{"contre indications", safety},
	{"objectif", objective},
	{"muscles", muscles},
	{"description anatomique", anatomy},
	{"anatomie", anatomy},
	{"points cles", keyPoints},
	{"technique", keyPoints},
	{"consignes", keyPoints},
	{"securite", safety},
	{"regression", regression},
	{"progression", progression},
	{"dosage", dosage},
	{"materiel", equipment},
	{"equipement", equipment},
	{"niveau", level},
}

var (
	pageRe    = regexp.MustCompile(`(?i)^(?:\d+\s*/\s*\d+|--?\s*\d+\s*of\s*\d+.*)$`)
	markupRe  = regexp.MustCompile(`^(?:[\s#*>•–—:\-]|\d{1,2}[.)]\s)+`)
	bulletRe  = regexp.MustCompile(`^\s*(?:[-*•▪◦]|\d{1,2}[.)])\s+`)
	splitRe   = regexp.MustCompile(`[•|\x07]`)
	spacingRe = regexp.MustCompile(`\s+`)
)

// detect returns the heading field of line and the text after its colon.
// A line is a heading when it starts with a known heading word and either
// has a colon or is written in capitals.
func detect(line string) (field, string) {
	trimmed := strings.TrimSpace(line)
	stripped := strings.TrimSpace(markupRe.ReplaceAllString(trimmed, ""))
	folded := textnorm.Fold(stripped)
	for _, h := range headings {
		if !strings.HasPrefix(folded, h.prefix) {
			continue
		}
		if i := strings.Index(stripped, ":"); i >= 0 {
			head := textnorm.Fold(stripped[:i])
			if strings.HasPrefix(head, h.prefix) && len(head) <= 40 {
				return h.f, strings.TrimSpace(strings.Trim(stripped[i+1:], "*"))
			}
			return none, ""
		}
		if isCapitals(stripped) {
			return h.f, ""
		}
		return none, ""
	}
	return none, ""
}

func isCapitals(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			if unicode.IsLower(r) {
				return false
			}
			letters++
		}
	}
	return letters > 0
}

func skip(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" {
		return true
	}
	if strings.HasPrefix(textnorm.Fold(t), "session ") {
		return true
	}
	return pageRe.MatchString(t)
}

func clean(s string) string {
	return strings.TrimSpace(spacingRe.ReplaceAllString(s, " "))
}

// Parse reads the sheet fields of block. The first line is the anchor line.
func Parse(block string) Sheet {
	lines := strings.Split(textnorm.NormalizeLineEndings(block), "\n")
	parts := make(map[field][]string)
	current := none
	for i, raw := range lines {
		if i == 0 {
			continue
		}
		if f, rest := detect(raw); f != none {
			current = f
			if rest != "" && !skip(rest) {
				parts[f] = append(parts[f], rest)
			}
			continue
		}
		if current == none || skip(raw) {
			continue
		}
		parts[current] = append(parts[current], raw)
	}

	text := func(f field) string { return clean(strings.Join(parts[f], " ")) }
	s := Sheet{
		Title:       title(lines),
		Level:       NormalizeLevel(text(level)),
		Equipment:   text(equipment),
		Muscles:     text(muscles),
		Objective:   text(objective),
		Anatomy:     text(anatomy),
		KeyPoints:   list(parts[keyPoints]),
		Safety:      list(parts[safety]),
		Regression:  text(regression),
		Progression: text(progression),
		Dosage:      text(dosage),
	}
	if s.Equipment == "" {
		s.Equipment = DefaultEquipment
	}
	if s.Muscles == "" {
		s.Muscles = s.Anatomy
	}
	if s.Anatomy == "" {
		s.Anatomy = s.Muscles
	}
	return s
}

// title is the text after the code on the anchor line, else the first plain
// line among the next eight.
func title(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	first := lines[0]
	if t := exercisecode.Tokens(first); len(t) > 0 {
		first = first[t[0].End:]
	}
	first = clean(strings.Trim(markupRe.ReplaceAllString(first, ""), "* "))
	if f, _ := detect(first); first != "" && f == none {
		return first
	}
	for i := 1; i < len(lines) && i < 9; i++ {
		c := clean(lines[i])
		if c == "" || skip(c) {
			continue
		}
		if f, _ := detect(c); f != none {
			continue
		}
		if exercisecode.IsValid(exercisecode.Normalize(c)) {
			continue
		}
		return c
	}
	return ""
}

// list splits heading content into items on bullets and pipes. Without any
// separator the whole content is one item.
func list(lines []string) []string {
	var items []string
	for _, l := range lines {
		l = bulletRe.ReplaceAllString(l, "")
		for _, part := range splitRe.Split(l, -1) {
			if p := clean(part); p != "" {
				items = append(items, p)
			}
		}
	}
	return items
}

// NormalizeLevel maps free-form level text onto the allowed levels. Empty
// input yields DefaultLevel; unrecognized text is returned cleaned so that
// validation can report it.
func NormalizeLevel(raw string) string {
	f := textnorm.Fold(raw)
	switch {
	case f == "":
		return DefaultLevel
	case strings.HasPrefix(f, "debut"):
		return "Débutant"
	case strings.HasPrefix(f, "inter"):
		return "Intermédiaire"
	case strings.HasPrefix(f, "avance"), strings.HasPrefix(f, "expert"):
		return "Avancé"
	}
	return clean(raw)
}
