// Package validate runs read-only checks over assembled records and reports
// the offending (code, field) pairs.
package validate

import (
    "fmt"
    "sort"
    "strings"

    "github.com/hyperifyio/epseditorial/internal/assemble"
    "github.com/hyperifyio/epseditorial/internal/exercisecode"
    "github.com/hyperifyio/epseditorial/internal/textnorm"
)

// Issue is one finding.
type Issue struct {
    Code    string `json:"code"`
    Field   string `json:"field"`
    Message string `json:"message"`
    Excerpt string `json:"excerpt"`
}

func (i Issue) String() string {
    return fmt.Sprintf("%s %s: %s", i.Code, i.Field, i.Message)
}

// FieldValue is a named text value of a record. List items are named
// "safety[0]", "keyPoints[1]" and so on.
type FieldValue struct {
    Name  string
    Value string
}

// TextFields lists the text values a reader sees. fullMdRaw is only shown
// when detailMd is blank, so it is skipped otherwise.
func TextFields(rec assemble.Record) []FieldValue {
    var out []FieldValue
    for _, name := range assemble.StringFields() {
        if name == "fullMdRaw" && strings.TrimSpace(rec.DetailMd) != "" {
            continue
        }
        out = append(out, FieldValue{Name: name, Value: *rec.Field(name)})
    }
    for i, v := range rec.KeyPoints {
        out = append(out, FieldValue{Name: fmt.Sprintf("keyPoints[%d]", i), Value: v})
    }
    for i, v := range rec.Safety {
        out = append(out, FieldValue{Name: fmt.Sprintf("safety[%d]", i), Value: v})
    }
    return out
}

// Validator checks one record. Validators never modify records.
type Validator interface {
    Name() string
    Check(rec assemble.Record) []Issue
}

// Run applies every validator to every record, in record then validator
// order.
func Run(records []assemble.Record, validators ...Validator) []Issue {
    var out []Issue
    for _, rec := range records {
        for _, v := range validators {
            out = append(out, v.Check(rec)...)
        }
    }
    return out
}

// All returns every validator in report order.
func All() []Validator {
    return []Validator{Placeholder(), CrossReference(), Typography(), Leak(), Markdown(), Mojibake(), Level()}
}

// ByName selects validators by name. No names selects all of them.
func ByName(names ...string) ([]Validator, error) {
    all := All()
    if len(names) == 0 {
        return all, nil
    }
    index := make(map[string]Validator, len(all))
    for _, v := range all {
        index[v.Name()] = v
    }
    out := make([]Validator, 0, len(names))
    for _, n := range names {
        v, ok := index[strings.ToLower(strings.TrimSpace(n))]
        if !ok {
            return nil, fmt.Errorf("unknown validator %q (known: %s)", n, strings.Join(Names(), ", "))
        }
        out = append(out, v)
    }
    return out, nil
}

// Names lists the validator names.
func Names() []string {
    var out []string
    for _, v := range All() {
        out = append(out, v.Name())
    }
    return out
}

// fieldCheck applies a per-value check to every non-blank text field.
type fieldCheck struct {
    name  string
    check func(code, value string) []string
}

func (f fieldCheck) Name() string { return f.name }

func (f fieldCheck) Check(rec assemble.Record) []Issue {
    var out []Issue
    for _, fv := range TextFields(rec) {
        if strings.TrimSpace(fv.Value) == "" {
            continue
        }
        for _, msg := range f.check(rec.Code, fv.Value) {
            out = append(out, Issue{Code: rec.Code, Field: fv.Name, Message: msg, Excerpt: textnorm.Compact(fv.Value)})
        }
    }
    return out
}

// GhostCodes returns the listed codes that have neither source data nor an
// asset, sorted.
func GhostCodes(listing, source, assets []string) []string {
    known := make(map[string]bool, len(source)+len(assets))
    for _, c := range source {
        known[exercisecode.Normalize(c)] = true
    }
    for _, c := range assets {
        known[exercisecode.Normalize(c)] = true
    }
    seen := make(map[string]bool)
    var out []string
    for _, c := range listing {
        n := exercisecode.Normalize(c)
        if known[n] || seen[n] {
            continue
        }
        seen[n] = true
        out = append(out, n)
    }
    exercisecode.Sort(out)
    return out
}

// Sort orders issues by code, field and message.
func Sort(issues []Issue) {
    sort.SliceStable(issues, func(i, j int) bool {
        a, b := issues[i], issues[j]
        if a.Code != b.Code {
            return exercisecode.Less(a.Code, b.Code)
        }
        if a.Field != b.Field {
            return a.Field < b.Field
        }
        return a.Message < b.Message
    })
}
