package assemble

import "github.com/hyperifyio/epseditorial/internal/segment"

// Record is the assembled output for one exercise code.
type Record struct {
	Code   string             `json:"code"`
	Source segment.Provenance `json:"source"`

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

	MaterielMd  string `json:"materielMd"`
	ConsignesMd string `json:"consignesMd"`
	DosageMd    string `json:"dosageMd"`
	SecuriteMd  string `json:"securiteMd"`
	DetailMd    string `json:"detailMd"`
	FullMdRaw   string `json:"fullMdRaw"`
}

// Field returns a pointer to the string field with the given JSON name, or
// nil for list fields and unknown names.
func (r *Record) Field(name string) *string {
	switch name {
	case "title":
		return &r.Title
	case "level":
		return &r.Level
	case "equipment":
		return &r.Equipment
	case "muscles":
		return &r.Muscles
	case "objective":
		return &r.Objective
	case "anatomy":
		return &r.Anatomy
	case "regression":
		return &r.Regression
	case "progression":
		return &r.Progression
	case "dosage":
		return &r.Dosage
	case "materielMd":
		return &r.MaterielMd
	case "consignesMd":
		return &r.ConsignesMd
	case "dosageMd":
		return &r.DosageMd
	case "securiteMd":
		return &r.SecuriteMd
	case "detailMd":
		return &r.DetailMd
	case "fullMdRaw":
		return &r.FullMdRaw
	}
	return nil
}

// StringFields lists the JSON names of the string fields, in output order.
func StringFields() []string {
	return []string{
		"title", "level", "equipment", "muscles", "objective", "anatomy",
		"regression", "progression", "dosage",
		"materielMd", "consignesMd", "dosageMd", "securiteMd", "detailMd", "fullMdRaw",
	}
}

// Fallback records fields that fell back to a default because their label
// was absent.
type Fallback struct {
	Code   string   `json:"code"`
	Fields []string `json:"fields"`
	Reason string   `json:"reason"`
}

// ReasonLabelAbsent is the only fallback reason produced today.
const ReasonLabelAbsent = "label absent"

// None is the default text of absent materiel and securite fields.
const None = "Aucun"
