// Package assemble merges classified sections, sheet fields, master entries
// and overrides into one record per expected exercise code.
package assemble

import (
	"sort"
	"strings"

	"github.com/hyperifyio/epseditorial/internal/classify"
	"github.com/hyperifyio/epseditorial/internal/exercisecode"
	"github.com/hyperifyio/epseditorial/internal/master"
	"github.com/hyperifyio/epseditorial/internal/segment"
	"github.com/hyperifyio/epseditorial/internal/sheet"
	"github.com/hyperifyio/epseditorial/internal/textnorm"
)

// Assembler holds the inputs shared by every record. A nil Dict means the
// default dictionary; the other fields may be nil.
type Assembler struct {
	Dict      *classify.Dictionary
	Master    map[string]master.Entry
	Overrides Overrides
	// Titles supplies a title when the block has none.
	Titles map[string]string
}

// Result is the assembled record set.
type Result struct {
	Records   []Record
	Fallbacks []Fallback
	// FallbacksBefore counts records that would have fallen back without
	// the master file.
	FallbacksBefore int
}

// Assemble builds one record per expected code. Any block code outside the
// expected set, or any expected code without a block, fails the run.
func (a Assembler) Assemble(blocks map[string]segment.Block, expected []string) (Result, error) {
	if err := checkCodeSet(blocks, expected); err != nil {
		return Result{}, err
	}

	var res Result
	for _, code := range expected {
		rec, fb, before := a.record(blocks[code])
		if len(before) > 0 {
			res.FallbacksBefore++
		}
		if len(fb) > 0 {
			res.Fallbacks = append(res.Fallbacks, Fallback{Code: code, Fields: fb, Reason: ReasonLabelAbsent})
		}
		a.Overrides.apply(&rec)
		res.Records = append(res.Records, rec)
	}
	sort.SliceStable(res.Fallbacks, func(i, j int) bool {
		return exercisecode.Less(res.Fallbacks[i].Code, res.Fallbacks[j].Code)
	})

	if len(res.Records) != len(expected) {
		return Result{}, &CountMismatchError{Expected: len(expected), Got: len(res.Records)}
	}
	return res, nil
}

func checkCodeSet(blocks map[string]segment.Block, expected []string) error {
	want := make(map[string]bool, len(expected))
	for _, c := range expected {
		want[c] = true
	}
	e := &CodeSetError{}
	for c := range blocks {
		if !want[c] {
			e.Extra = append(e.Extra, c)
		}
	}
	for _, c := range expected {
		if _, ok := blocks[c]; !ok {
			e.Missing = append(e.Missing, c)
		}
	}
	if len(e.Extra) == 0 && len(e.Missing) == 0 {
		return nil
	}
	exercisecode.Sort(e.Extra)
	exercisecode.Sort(e.Missing)
	return e
}

func content(sections []classify.Section, keys ...classify.Key) string {
	for _, k := range keys {
		if s, ok := classify.Find(sections, k); ok && strings.TrimSpace(s.Content) != "" {
			return s.Content
		}
	}
	return ""
}

// record derives the fields of one block. It returns the fallback fields
// after and before the master entry was taken into account.
func (a Assembler) record(b segment.Block) (Record, []string, []string) {
	dict := a.Dict
	if dict == nil {
		dict = classify.MustDefault()
	}
	sliced := classify.SliceForFields(b.Text)
	sections := classify.Classify(sliced, dict)

	materiel := content(sections, classify.Materiel)
	if materiel == "" {
		materiel = None
	}
	consignes := content(sections, classify.Consignes)
	dosage := content(sections, classify.Dosage)
	securite := content(sections, classify.Securite, classify.Contre)

	var before []string
	if consignes == "" {
		before = append(before, "consignes")
	}
	if dosage == "" {
		before = append(before, "dosage")
	}
	if securite == "" {
		before = append(before, "securite")
	}

	if m, ok := a.Master[b.Code]; ok {
		if strings.TrimSpace(m.Consignes) != "" {
			consignes = m.Consignes
		}
		if strings.TrimSpace(m.Dosage) != "" {
			dosage = m.Dosage
		}
		if strings.TrimSpace(m.ContreIndications) != "" {
			securite = m.ContreIndications
		}
	}

	var after []string
	if consignes == "" {
		consignes = sliced
		after = append(after, "consignes")
	}
	if dosage == "" {
		dosage = sliced
		after = append(after, "dosage")
	}
	if securite == "" {
		securite = None
		after = append(after, "securite")
	}
	sort.Strings(after)

	sh := sheet.Parse(b.Text)
	title := textnorm.Sanitize(sh.Title)
	if title == "" {
		title = textnorm.Sanitize(a.Titles[b.Code])
	}
	if title == "" {
		title = b.Code
	}

	rec := Record{
		Code:        b.Code,
		Source:      b.Source,
		Title:       title,
		Level:       textnorm.Sanitize(sh.Level),
		Equipment:   textnorm.Sanitize(sh.Equipment),
		Muscles:     textnorm.Sanitize(sh.Muscles),
		Objective:   textnorm.Sanitize(sh.Objective),
		Anatomy:     textnorm.Sanitize(sh.Anatomy),
		KeyPoints:   sanitizeList(sh.KeyPoints),
		Safety:      sanitizeList(sh.Safety),
		Regression:  textnorm.Sanitize(sh.Regression),
		Progression: textnorm.Sanitize(sh.Progression),
		Dosage:      textnorm.Sanitize(sh.Dosage),
		MaterielMd:  textnorm.Sanitize(materiel),
		ConsignesMd: textnorm.Sanitize(consignes),
		DosageMd:    textnorm.Sanitize(dosage),
		SecuriteMd:  textnorm.Sanitize(securite),
		DetailMd:    textnorm.Sanitize(sliced),
		FullMdRaw:   textnorm.Sanitize(b.Text),
	}
	return rec, after, before
}

func sanitizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := textnorm.Sanitize(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// MasterExtras returns the non-empty master entries of expected codes, for
// publication next to the records.
func MasterExtras(entries map[string]master.Entry, expected []string) map[string]master.Entry {
	out := make(map[string]master.Entry)
	for _, c := range expected {
		if e, ok := entries[c]; ok && !e.IsZero() {
			out[c] = e
		}
	}
	return out
}
