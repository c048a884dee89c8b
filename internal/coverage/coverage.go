// Package coverage checks that every paragraph of the audited exercise text
// reaches the assembled records and that every line of the document has an
// owner.
package coverage

import (
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "github.com/hyperifyio/epseditorial/internal/assemble"
    "github.com/hyperifyio/epseditorial/internal/classify"
    "github.com/hyperifyio/epseditorial/internal/exercisecode"
    "github.com/hyperifyio/epseditorial/internal/segment"
    "github.com/hyperifyio/epseditorial/internal/textnorm"
    "github.com/hyperifyio/epseditorial/internal/tokenize"
)

// Chunk is one paragraph of the exercise text under an anchor.
type Chunk struct {
    Code   string `json:"code"`
    Text   string `json:"text"`
    Folded string `json:"-"`
}

// Missing is a chunk that no record renders.
type Missing struct {
    Code    string `json:"code"`
    Excerpt string `json:"excerpt"`
}

// Report is the coverage summary.
type Report struct {
    Source        string              `json:"source"`
    Detected      int                 `json:"detected"`
    Injected      int                 `json:"injected"`
    Missing       []Missing           `json:"missing"`
    MissingByCode map[string][]string `json:"missingByCode"`
    TotalLines    int                 `json:"totalLines"`
    // Unassigned lists "line: text" for every non-blank line no block,
    // leak or guide part owns.
    Unassigned []string `json:"unassigned"`
}

// MismatchError is returned when some detected chunks were not injected or
// some lines are unassigned.
type MismatchError struct {
    Detected   int
    Injected   int
    Unassigned int
}

func (e *MismatchError) Error() string {
    return fmt.Sprintf("coverage mismatch: detected %d chunks, injected %d, %d unassigned lines", e.Detected, e.Injected, e.Unassigned)
}

// Err returns a *MismatchError when Detected differs from Injected or any
// line is unassigned.
func (r Report) Err() error {
    if r.Detected == r.Injected && len(r.Unassigned) == 0 {
        return nil
    }
    return &MismatchError{Detected: r.Detected, Injected: r.Injected, Unassigned: len(r.Unassigned)}
}

// anchoredText is the document text under an explicit anchor: the block and
// the leak cut off its end. Meta note lines become blank lines since they
// belong to the guide.
func anchoredText(doc tokenize.Document, b segment.Block, leaks []segment.Leak) string {
    end := b.EndLine
    for _, l := range leaks {
        if l.Code == b.Code && l.StartLine == b.EndLine {
            end = l.EndLine
        }
    }
    lines := make([]string, 0, end-b.StartLine)
    for i := b.StartLine; i < end && i < len(doc.Lines); i++ {
        if segment.IsMetaNote(doc.Lines[i]) {
            lines = append(lines, "")
            continue
        }
        lines = append(lines, doc.Lines[i])
    }
    return strings.Join(lines, "\n")
}

// Detect splits the uncut text under every explicit anchor, cut at its
// suffix marker and sanitized, into paragraph chunks. Chunks are ordered by
// code.
func Detect(doc tokenize.Document, seg segment.Result) []Chunk {
    var codes []string
    for c, b := range seg.Blocks {
        if b.Source == segment.Explicit {
            codes = append(codes, c)
        }
    }
    exercisecode.Sort(codes)
    var out []Chunk
    for _, c := range codes {
        text := textnorm.Sanitize(classify.SliceForFields(anchoredText(doc, seg.Blocks[c], seg.Leaks)))
        for _, p := range textnorm.SplitParagraphs(text) {
            folded := textnorm.Fold(p)
            if folded == "" {
                continue
            }
            out = append(out, Chunk{Code: c, Text: p, Folded: folded})
        }
    }
    return out
}

// rendered is the folded text a reader sees for rec. fullMdRaw is not
// rendered next to detailMd, so it does not count.
func rendered(rec assemble.Record) string {
    parts := []string{rec.MaterielMd, rec.ConsignesMd, rec.DosageMd, rec.SecuriteMd, rec.DetailMd}
    return " " + textnorm.Fold(strings.Join(parts, "\n\n")) + " "
}

// Unassigned returns "line: text" for every non-blank line of doc outside
// all blocks, leaks and guide spans. Line numbers start at 1.
func Unassigned(doc tokenize.Document, seg segment.Result, guide segment.Guide) []string {
    assigned := make([]bool, len(doc.Lines))
    mark := func(start, end int) {
        for i := max(0, start); i < min(len(doc.Lines), end); i++ {
            assigned[i] = true
        }
    }
    for _, b := range seg.Blocks {
        mark(b.StartLine, b.EndLine)
    }
    for _, l := range seg.Leaks {
        mark(l.StartLine, l.EndLine)
    }
    for _, sp := range guide.Spans {
        mark(sp.Start, sp.End)
    }
    var out []string
    for i, line := range doc.Lines {
        if strings.TrimSpace(line) == "" || assigned[i] {
            continue
        }
        out = append(out, fmt.Sprintf("%d: %s", i+1, line))
    }
    return out
}

// Reconcile counts the detected chunks found, folded, in the rendered text
// of the record with the same code, and collects the unassigned lines.
func Reconcile(doc tokenize.Document, seg segment.Result, guide segment.Guide, records []assemble.Record) Report {
    text := make(map[string]string, len(records))
    for _, r := range records {
        text[r.Code] = rendered(r)
    }
    r := Report{
        MissingByCode: map[string][]string{},
        TotalLines:    len(doc.Lines),
        Unassigned:    Unassigned(doc, seg, guide),
    }
    for _, c := range Detect(doc, seg) {
        r.Detected++
        if t, ok := text[c.Code]; ok && strings.Contains(t, " "+c.Folded+" ") {
            r.Injected++
            continue
        }
        excerpt := textnorm.Compact(c.Text)
        r.Missing = append(r.Missing, Missing{Code: c.Code, Excerpt: excerpt})
        r.MissingByCode[c.Code] = append(r.MissingByCode[c.Code], excerpt)
    }
    return r
}

// WriteJSON writes r as indented JSON, creating the parent directory.
func WriteJSON(path string, r Report) error {
    if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
        return fmt.Errorf("mkdir reports dir: %w", err)
    }
    b, err := json.MarshalIndent(r, "", "  ")
    if err != nil { return err }
    return os.WriteFile(path, append(b, '\n'), 0o644)
}

// RenderMarkdown renders r for editors.
func RenderMarkdown(r Report) string {
    var b strings.Builder
    b.WriteString("# Couverture éditoriale\n\n")
    fmt.Fprintf(&b, "- Source : %s\n", r.Source)
    fmt.Fprintf(&b, "- Détectés : %d\n", r.Detected)
    fmt.Fprintf(&b, "- Injectés : %d\n", r.Injected)
    fmt.Fprintf(&b, "- Manquants : %d\n", len(r.Missing))
    fmt.Fprintf(&b, "- Lignes non assignées : %d\n", len(r.Unassigned))
    if len(r.Unassigned) > 0 {
        b.WriteString("\n## Lignes non assignées\n\n")
        for _, l := range r.Unassigned {
            b.WriteString("- ")
            b.WriteString(l)
            b.WriteString("\n")
        }
    }
    if len(r.MissingByCode) == 0 {
        return b.String()
    }
    codes := make([]string, 0, len(r.MissingByCode))
    for c := range r.MissingByCode {
        codes = append(codes, c)
    }
    exercisecode.Sort(codes)
    b.WriteString("\n## Passages manquants\n")
    for _, c := range codes {
        fmt.Fprintf(&b, "\n### %s\n\n", c)
        for _, e := range r.MissingByCode[c] {
            b.WriteString("- ")
            b.WriteString(e)
            b.WriteString("\n")
        }
    }
    return b.String()
}
