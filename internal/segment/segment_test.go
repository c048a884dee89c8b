package segment

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hyperifyio/epseditorial/internal/tokenize"
)

const sample = `Présentation: Guide des exercices.
Session 1 – Mobilité (3 exercices)
Échauffement articulaire.
S1-01 Rotation des épaules
Consignes: tourner lentement
Dosage: 2 x 10
S1-02 Flexion
Consignes: plier
(Suite des exercices de la session 1 : S1-03 à S1-03, voir plus bas)
Session 2 – Force (1 exercice)
S2-01 Squat
Sécurité: dos droit
Conclusion: Bonne pratique.
Sources: INSEP.`

func segmentText(t *testing.T, text string) (tokenize.Document, Result) {
	t.Helper()
	doc := tokenize.Tokenize(text)
	res, err := Segment(doc, tokenize.FindAnchors(doc))
	if err != nil {
		t.Fatalf("segment: %v", err)
	}
	return doc, res
}

func TestSegment_ExplicitBoundaries(t *testing.T) {
	_, res := segmentText(t, sample)
	b := res.Blocks["S1-01"]
	if b.Source != Explicit || b.Text != "S1-01 Rotation des épaules\nConsignes: tourner lentement\nDosage: 2 x 10" {
		t.Fatalf("unexpected S1-01 block: %+v", b)
	}
	if got := res.Blocks["S1-02"].Text; got != "S1-02 Flexion\nConsignes: plier" {
		t.Fatalf("meta note should end S1-02, got %q", got)
	}
	if got := res.Blocks["S2-01"].Text; got != "S2-01 Squat\nSécurité: dos droit" {
		t.Fatalf("conclusion line should end S2-01, got %q", got)
	}
	if len(res.Leaks) != 1 || res.Leaks[0].Code != "S1-02" || !strings.HasPrefix(res.Leaks[0].Text, "(Suite des exercices") {
		t.Fatalf("unexpected leaks: %+v", res.Leaks)
	}
}

func TestSegment_DuplicateAnchorIsFatal(t *testing.T) {
	doc := tokenize.Tokenize("S3-04 Fente\nConsignes: a\nS3-05 Pont\nS3-04 Fente bis\n")
	_, err := Segment(doc, tokenize.FindAnchors(doc))
	var dup *DuplicateBlockError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateBlockError, got %v", err)
	}
	if diff := cmp.Diff([]string{"S3-04"}, dup.Codes); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
	if !strings.Contains(err.Error(), "S3-04") || !strings.Contains(err.Error(), "lines 1, 4") {
		t.Fatalf("error should name the code and lines: %v", err)
	}
}

func TestSegment_SummaryRangeExpansion(t *testing.T) {
	line := "S1-01 à S1-05: voir détails"
	_, res := segmentText(t, "Session 1 – Test (5 exercices)\n"+line+"\nS1-03 Gainage\nConsignes: tenir")
	want := []string{"S1-01", "S1-02", "S1-03", "S1-04", "S1-05"}
	if diff := cmp.Diff(want, SummaryCodes(line)); diff != "" {
		t.Fatalf("summary codes (-want +got):\n%s", diff)
	}
	// The line also anchors S1-01 and S1-03 has its own block.
	if b := res.Blocks["S1-01"]; b.Source != Explicit || b.Text != line {
		t.Fatalf("unexpected S1-01 block: %+v", b)
	}
	if b := res.Blocks["S1-03"]; b.Source != Explicit || b.Text != "S1-03 Gainage\nConsignes: tenir" {
		t.Fatalf("summary must not override explicit block: %+v", b)
	}
	for _, c := range []string{"S1-02", "S1-04", "S1-05"} {
		b, ok := res.Blocks[c]
		if !ok {
			t.Fatalf("missing block for %s", c)
		}
		if b.Source != Summary || b.Text != line || b.StartLine != 1 {
			t.Fatalf("expected summary block with the exact line for %s, got %+v", c, b)
		}
	}
}

func TestSegment_ReversedRangeExpandsLikeForward(t *testing.T) {
	if diff := cmp.Diff(SummaryCodes("S1-01 à S1-03"), SummaryCodes("S1-03 à S1-01")); diff != "" {
		t.Fatalf("reversed range differs (-fwd +rev):\n%s", diff)
	}
	if got := SummaryCodes("Voir S1-02 pour la suite"); got != nil {
		t.Fatalf("single code is not a summary line, got %v", got)
	}
	if diff := cmp.Diff([]string{"S2-01", "S2-04"}, SummaryCodes("S2-04 et S2-01")); diff != "" {
		t.Fatalf("two codes without range (-want +got):\n%s", diff)
	}
}

func TestSegment_RichestSummaryLineWins(t *testing.T) {
	text := "- S4-01, S4-02 : renforcement\n" +
		"- S4-02 et S4-03 : consignes et dosage identiques\n" +
		"- S4-01, S4-02 : mobilisation"
	_, res := segmentText(t, text)
	if got := res.Blocks["S4-02"].Text; got != "- S4-02 et S4-03 : consignes et dosage identiques" {
		t.Fatalf("expected keyword-rich line for S4-02, got %q", got)
	}
	if got := res.Blocks["S4-01"].Text; got != "- S4-01, S4-02 : renforcement" {
		t.Fatalf("tie should keep the first line for S4-01, got %q", got)
	}
	if Richness("consignes") != len("consignes")+200 {
		t.Fatalf("unexpected richness %d", Richness("consignes"))
	}
}

func TestExtractGuide(t *testing.T) {
	doc, res := segmentText(t, sample)
	g := ExtractGuide(doc, tokenize.FindSessionHeaders(doc), tokenize.FindAnchors(doc), res.Leaks)
	if g.Presentation != "Guide des exercices." {
		t.Fatalf("presentation %q", g.Presentation)
	}
	if g.Conclusion != "Bonne pratique." || g.Sources != "INSEP." {
		t.Fatalf("conclusion %q sources %q", g.Conclusion, g.Sources)
	}
	if len(g.Sessions) != 2 || g.Sessions[0].About != "Échauffement articulaire." {
		t.Fatalf("sessions %+v", g.Sessions)
	}
	if !strings.HasPrefix(g.Sessions[0].Extra, "Suite des exercices") {
		t.Fatalf("leak should land in session 1 extra, got %q", g.Sessions[0].Extra)
	}
}
