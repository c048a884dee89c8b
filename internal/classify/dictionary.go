package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hyperifyio/epseditorial/internal/textnorm"
)

// Key is a canonical field name.
type Key string

const (
	Materiel       Key = "materiel"
	Consignes      Key = "consignes"
	Dosage         Key = "dosage"
	Securite       Key = "securite"
	Contre         Key = "contre"
	Description    Key = "description"
	Objectifs      Key = "objectifs"
	Justifications Key = "justifications"
	Benefices      Key = "benefices"
	Progression    Key = "progression"
	Regression     Key = "regression"
	Muscles        Key = "muscles"
	Anatomie       Key = "anatomie"
)

// Synonym maps one textual label to its canonical key.
type Synonym struct {
	Label string
	Key   Key
}

// DefaultSynonyms returns a fresh copy of the labels used by the audit
// report. Labels are matched case and diacritic insensitively.
func DefaultSynonyms() []Synonym {
	return []Synonym{
		{"matériel", Materiel},
		{"matériels", Materiel},
		{"consignes", Consignes},
		{"consignes clés", Consignes},
		{"consignes pédagogiques", Consignes},
		{"dosage recommandé", Dosage},
		{"dosage", Dosage},
		{"sécurité", Securite},
		{"contre-indications", Contre},
		{"contre-indications et adaptations", Contre},
		{"description anatomique", Description},
		{"description", Description},
		{"objectifs fonctionnels", Objectifs},
		{"objectifs", Objectifs},
		{"justifications biomécaniques", Justifications},
		{"justifications", Justifications},
		{"bénéfices avérés", Benefices},
		{"bénéfices", Benefices},
		{"progressions régressions", Progression},
		{"progressions / régressions", Progression},
		{"progressions", Progression},
		{"progression", Progression},
		{"régressions", Regression},
		{"régression", Regression},
		{"muscles", Muscles},
		{"anatomie", Anatomie},
	}
}

// Dictionary is a compiled synonym table.
type Dictionary struct {
	lookup map[string]Key
	re     *regexp.Regexp
}

// NewDictionary folds every label and compiles a single alternation,
// longest synonym first, each alternative followed by a colon.
func NewDictionary(synonyms []Synonym) (*Dictionary, error) {
	if len(synonyms) == 0 {
		return nil, fmt.Errorf("classify: empty dictionary")
	}
	d := &Dictionary{lookup: make(map[string]Key, len(synonyms))}
	for _, s := range synonyms {
		folded := textnorm.Fold(s.Label)
		if folded == "" {
			return nil, fmt.Errorf("classify: label %q folds to nothing", s.Label)
		}
		if s.Key == "" {
			return nil, fmt.Errorf("classify: label %q has no key", s.Label)
		}
		if prev, ok := d.lookup[folded]; ok && prev != s.Key {
			return nil, fmt.Errorf("classify: label %q maps to both %s and %s", s.Label, prev, s.Key)
		}
		d.lookup[folded] = s.Key
	}

	labels := make([]string, 0, len(d.lookup))
	for l := range d.lookup {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		if len(labels[i]) != len(labels[j]) {
			return len(labels[i]) > len(labels[j])
		}
		return labels[i] < labels[j]
	})
	alts := make([]string, len(labels))
	for i, l := range labels {
		alts[i] = strings.Join(strings.Fields(regexp.QuoteMeta(l)), `\s+`)
	}
	re, err := regexp.Compile(`\b(` + strings.Join(alts, "|") + `)\b\s*:`)
	if err != nil {
		return nil, fmt.Errorf("classify: compile labels: %w", err)
	}
	d.re = re
	return d, nil
}

// MustDefault returns the dictionary built from DefaultSynonyms.
func MustDefault() *Dictionary {
	d, err := NewDictionary(DefaultSynonyms())
	if err != nil {
		panic(err)
	}
	return d
}

// Lookup resolves a raw label.
func (d *Dictionary) Lookup(label string) (Key, bool) {
	k, ok := d.lookup[textnorm.Fold(label)]
	return k, ok
}
