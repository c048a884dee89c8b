package coverage

import (
    "errors"
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/google/go-cmp/cmp"

    "github.com/hyperifyio/epseditorial/internal/assemble"
    "github.com/hyperifyio/epseditorial/internal/segment"
    "github.com/hyperifyio/epseditorial/internal/tokenize"
)

const audit = `Session 1 – Mobilité (2 exercices)
S1-01 Gainage

Matériel : tapis

Tenir  30 s, idem S1-02.
S1-02 Planche
Consignes : tenir le dos droit
(En résumé, les exercices suivants reprennent S1-01.)

Dosage : 3 x 30 s avec repos complet
Conclusion: fin du guide`

func parse(t *testing.T, text string) (tokenize.Document, segment.Result, segment.Guide) {
    t.Helper()
    doc := tokenize.Tokenize(text)
    anchors := tokenize.FindAnchors(doc)
    seg, err := segment.Segment(doc, anchors)
    if err != nil { t.Fatalf("segment: %v", err) }
    guide := segment.ExtractGuide(doc, tokenize.FindSessionHeaders(doc), anchors, seg.Leaks)
    return doc, seg, guide
}

func records() []assemble.Record {
    return []assemble.Record{
        {Code: "S1-01", DetailMd: "S1-01 Gainage\n\nMatériel : tapis\n\nTenir 30 s, S1-02."},
        {Code: "S1-02", ConsignesMd: "tenir le dos droit", DetailMd: "S1-02 Planche\nConsignes : tenir le dos droit"},
    }
}

func TestDetect_ReadsTextCutOffAfterMetaNote(t *testing.T) {
    doc, seg, _ := parse(t, audit)
    if len(seg.Leaks) != 1 {
        t.Fatalf("expected the meta note to cut S1-02, leaks %+v", seg.Leaks)
    }
    var texts []string
    for _, c := range Detect(doc, seg) {
        texts = append(texts, c.Code+" "+c.Text)
    }
    want := []string{
        "S1-01 S1-01 Gainage",
        "S1-01 Matériel : tapis",
        "S1-01 Tenir 30 s, S1-02.",
        "S1-02 S1-02 Planche\nConsignes : tenir le dos droit",
        "S1-02 Dosage : 3 x 30 s avec repos complet",
    }
    if diff := cmp.Diff(want, texts); diff != "" {
        t.Fatalf("chunks (-want +got):\n%s", diff)
    }
}

func TestReconcile_DosageLostAfterMetaNoteIsMismatch(t *testing.T) {
    doc, seg, guide := parse(t, audit)
    r := Reconcile(doc, seg, guide, records())
    if r.Detected != 5 || r.Injected != 4 {
        t.Fatalf("report %+v", r)
    }
    want := map[string][]string{"S1-02": {"Dosage : 3 x 30 s avec repos complet"}}
    if diff := cmp.Diff(want, r.MissingByCode); diff != "" {
        t.Fatalf("missing (-want +got):\n%s", diff)
    }
    var me *MismatchError
    if !errors.As(r.Err(), &me) || me.Detected != 5 || me.Injected != 4 {
        t.Fatalf("expected MismatchError, got %v", r.Err())
    }
}

func TestReconcile_AllInjected(t *testing.T) {
    doc, seg, guide := parse(t, audit)
    recs := records()
    recs[1].DosageMd = "3 x 30 s avec repos complet"
    recs[1].DetailMd += "\n\nDosage : 3 x 30 s avec repos complet"
    r := Reconcile(doc, seg, guide, recs)
    if r.Detected != 5 || r.Injected != 5 || len(r.Missing) != 0 || len(r.Unassigned) != 0 {
        t.Fatalf("report %+v", r)
    }
    if err := r.Err(); err != nil {
        t.Fatalf("unexpected error %v", err)
    }
}

func TestReconcile_TokenBoundaries(t *testing.T) {
    doc, seg, guide := parse(t, "Session 2 – Force (1 exercice)\nS2-01 dos")
    rec := assemble.Record{Code: "S2-01", DetailMd: "S2-01 dossier"}
    if r := Reconcile(doc, seg, guide, []assemble.Record{rec}); r.Injected != 0 {
        t.Fatalf("partial word should not count: %+v", r)
    }
}

func TestUnassigned_LinesWithoutOwner(t *testing.T) {
    doc, seg, guide := parse(t, audit)
    if got := Unassigned(doc, seg, guide); len(got) != 0 {
        t.Fatalf("every line has an owner, got %v", got)
    }
    got := Unassigned(doc, seg, segment.Guide{})
    want := []string{"1: Session 1 – Mobilité (2 exercices)", "12: Conclusion: fin du guide"}
    if diff := cmp.Diff(want, got); diff != "" {
        t.Fatalf("unassigned (-want +got):\n%s", diff)
    }
    r := Report{Detected: 1, Injected: 1, Unassigned: got}
    var me *MismatchError
    if !errors.As(r.Err(), &me) || me.Unassigned != 2 {
        t.Fatalf("unassigned lines should fail, got %v", r.Err())
    }
}

func TestReportFiles(t *testing.T) {
    dir := t.TempDir()
    r := Report{Source: "audit.md", Detected: 2, Injected: 1,
        Missing:       []Missing{{Code: "S1-01", Excerpt: "Tenir la planche"}},
        MissingByCode: map[string][]string{"S1-01": {"Tenir la planche"}},
        Unassigned:    []string{"7: Ligne orpheline"},
    }
    jsonPath := filepath.Join(dir, "reports", "editorial.coverage.json")
    if err := WriteJSON(jsonPath, r); err != nil {
        t.Fatalf("write json: %v", err)
    }
    b, err := os.ReadFile(jsonPath)
    if err != nil || !strings.Contains(string(b), `"missingByCode"`) {
        t.Fatalf("json %q, %v", b, err)
    }
    md := RenderMarkdown(r)
    for _, want := range []string{"- Détectés : 2", "### S1-01", "- Tenir la planche", "- 7: Ligne orpheline"} {
        if !strings.Contains(md, want) {
            t.Fatalf("markdown missing %q:\n%s", want, md)
        }
    }
    pdfPath := filepath.Join(dir, "reports", "editorial.coverage.pdf")
    if err := WritePDF(md, pdfPath); err != nil {
        t.Fatalf("write pdf: %v", err)
    }
    head, err := os.ReadFile(pdfPath)
    if err != nil || !strings.HasPrefix(string(head), "%PDF") {
        t.Fatalf("expected a PDF file, err=%v", err)
    }
}
