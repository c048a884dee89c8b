package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hyperifyio/epseditorial/internal/assemble"
	"github.com/hyperifyio/epseditorial/internal/coverage"
	"github.com/hyperifyio/epseditorial/internal/segment"
)

const audit = `Présentation: Guide des exercices.
Session 1 – Mobilité (2 exercices)
Échauffement articulaire.
S1-01 Rotation des épaules
Matériel: aucun
Consignes: tourner lentement
Dosage: 2 x 10
Sécurité: sans douleur
S1-02 Flexion
Consignes: plier les genoux
Dosage: 3 x 8
Conclusion: Bonne pratique.
Sources: INSEP.
`

// newTestApp writes the audit report into a temp dir and points every path
// of the config there.
func newTestApp(t *testing.T, report string, mutate func(cfg *Config, dir string)) (*App, Config) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "audit-editorial.report.md")
	if err := os.WriteFile(in, []byte(report), 0o600); err != nil {
		t.Fatalf("write audit: %v", err)
	}
	cfg := Config{
		InputPath:     in,
		MasterPath:    filepath.Join(dir, "master.fr.md"),
		OutputPath:    filepath.Join(dir, "src", "editorial.generated.ts"),
		ReportsDir:    filepath.Join(dir, "reports"),
		OverridesPath: filepath.Join(dir, "overrides.yaml"),
		CatalogPath:   filepath.Join(dir, "pdfIndex.json"),
		AssetsDir:     filepath.Join(dir, "public", "exercises"),
	}
	if mutate != nil {
		mutate(&cfg, dir)
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, cfg
}

func TestGenerate_WritesArtifacts(t *testing.T) {
	a, cfg := newTestApp(t, audit, nil)
	if err := a.Generate(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	out, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	for _, want := range []string{
		"export const editorialByCode: EditorialByCode = ",
		`"S1-02": {`,
		`"securiteMd": "Aucun"`,
		`"consignesMd": "tourner lentement"`,
		"export const sessionAbout: SessionAbout = ",
		`"aboutMd": "Échauffement articulaire."`,
		`"conclusion": "Bonne pratique."`,
	} {
		if !strings.Contains(string(out), want) {
			t.Fatalf("generated module missing %q:\n%s", want, out)
		}
	}

	b, err := os.ReadFile(filepath.Join(cfg.ReportsDir, fallbackReportName))
	if err != nil {
		t.Fatalf("read fallback report: %v", err)
	}
	var fb []assemble.Fallback
	if err := json.Unmarshal(b, &fb); err != nil {
		t.Fatalf("decode fallback report: %v", err)
	}
	want := []assemble.Fallback{{Code: "S1-02", Fields: []string{"securite"}, Reason: "label absent"}}
	if diff := cmp.Diff(want, fb); diff != "" {
		t.Fatalf("fallbacks (-want +got):\n%s", diff)
	}

	mb, err := os.ReadFile(deriveManifestSidecarPath(cfg.OutputPath))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if !strings.Contains(string(mb), computeSHA256Hex(string(out))) {
		t.Fatalf("manifest should carry the output digest:\n%s", mb)
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	a, cfg := newTestApp(t, audit, nil)
	read := func() ([]byte, []byte) {
		if err := a.Generate(context.Background()); err != nil {
			t.Fatalf("generate: %v", err)
		}
		out, _ := os.ReadFile(cfg.OutputPath)
		man, _ := os.ReadFile(deriveManifestSidecarPath(cfg.OutputPath))
		return out, man
	}
	out1, man1 := read()
	out2, man2 := read()
	if !bytes.Equal(out1, out2) || !bytes.Equal(man1, man2) {
		t.Fatalf("second run differs from the first")
	}
}

func TestGenerate_MasterFillsSecurite(t *testing.T) {
	a, cfg := newTestApp(t, audit, func(cfg *Config, dir string) {
		master := "## S1-02\nContre-indications: genoux fragiles\nMuscles: quadriceps\n"
		if err := os.WriteFile(cfg.MasterPath, []byte(master), 0o600); err != nil {
			t.Fatalf("write master: %v", err)
		}
	})
	if err := a.Generate(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	out, _ := os.ReadFile(cfg.OutputPath)
	if !strings.Contains(string(out), `"securiteMd": "genoux fragiles"`) {
		t.Fatalf("master securite not used:\n%s", out)
	}
	if !strings.Contains(string(out), `"muscles": "quadriceps"`) {
		t.Fatalf("master extras missing:\n%s", out)
	}
	b, _ := os.ReadFile(filepath.Join(cfg.ReportsDir, fallbackReportName))
	if strings.TrimSpace(string(b)) != "[]" {
		t.Fatalf("expected empty fallback report, got %s", b)
	}
	man, _ := os.ReadFile(deriveManifestSidecarPath(cfg.OutputPath))
	if !strings.Contains(string(man), `"role": "master"`) {
		t.Fatalf("manifest should list the master input:\n%s", man)
	}
	if !strings.Contains(string(man), computeSHA256Hex("## S1-02\nContre-indications: genoux fragiles\nMuscles: quadriceps\n")) {
		t.Fatalf("manifest should carry the master digest:\n%s", man)
	}
}

func TestGenerate_GhostCodes(t *testing.T) {
	a, cfg := newTestApp(t, audit, func(cfg *Config, dir string) {
		catalog := `[{"code":"S1-01","title":"Rotation","series":"mobilite"},{"code":"s1_09","title":"Fantôme","series":"mobilite"}]`
		if err := os.WriteFile(cfg.CatalogPath, []byte(catalog), 0o600); err != nil {
			t.Fatalf("write catalog: %v", err)
		}
	})
	err := a.Generate(context.Background())
	var ghost *GhostCodesError
	if !errors.As(err, &ghost) {
		t.Fatalf("expected GhostCodesError, got %v", err)
	}
	if diff := cmp.Diff([]string{"S1-09"}, ghost.Codes); diff != "" {
		t.Fatalf("ghosts (-want +got):\n%s", diff)
	}

	// An image for the code makes it legitimate.
	dir := filepath.Join(cfg.AssetsDir, "mobilite")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "S1-09.webp"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	if err := a.Generate(context.Background()); err != nil {
		t.Fatalf("generate with asset: %v", err)
	}
}

func TestGenerate_StructuralErrors(t *testing.T) {
	dup := strings.Replace(audit, "S1-02 Flexion", "S1-01 Flexion", 1)
	a, _ := newTestApp(t, dup, nil)
	var de *segment.DuplicateBlockError
	if err := a.Generate(context.Background()); !errors.As(err, &de) {
		t.Fatalf("expected DuplicateBlockError, got %v", err)
	}

	short := strings.Replace(audit, "(2 exercices)", "(3 exercices)", 1)
	a, _ = newTestApp(t, short, nil)
	var cse *assemble.CodeSetError
	if err := a.Generate(context.Background()); !errors.As(err, &cse) || len(cse.Missing) != 1 || cse.Missing[0] != "S1-03" {
		t.Fatalf("expected missing S1-03, got %v", err)
	}

	a, _ = newTestApp(t, audit, func(cfg *Config, dir string) {
		cfg.InputPath = filepath.Join(dir, "absent.md")
	})
	if err := a.Generate(context.Background()); !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound, got %v", err)
	}
}

func TestCheck_GateFailsOnIssues(t *testing.T) {
	a, _ := newTestApp(t, audit, func(cfg *Config, dir string) {
		ov := "S1-02:\n  consignesMd: Plier comme en S1-01\n"
		if err := os.WriteFile(cfg.OverridesPath, []byte(ov), 0o600); err != nil {
			t.Fatalf("write overrides: %v", err)
		}
	})
	issues, err := a.Check(context.Background(), []string{"crossref"}, false)
	if err != nil {
		t.Fatalf("non-gating check should succeed: %v", err)
	}
	if len(issues) != 1 || issues[0].Code != "S1-02" || issues[0].Field != "consignesMd" || issues[0].Message != "foreign codes: S1-01" {
		t.Fatalf("unexpected issues %+v", issues)
	}
	if _, err := a.Check(context.Background(), []string{"crossref"}, true); !errors.Is(err, ErrGateFailed) {
		t.Fatalf("expected ErrGateFailed, got %v", err)
	}
	if _, err := a.Check(context.Background(), []string{"nope"}, false); err == nil {
		t.Fatalf("expected unknown validator error")
	}
}

func TestCheck_CleanFixturePasses(t *testing.T) {
	a, _ := newTestApp(t, audit, nil)
	issues, err := a.Check(context.Background(), nil, true)
	if err != nil || len(issues) != 0 {
		t.Fatalf("expected a clean run, got %v %+v", err, issues)
	}
}

func TestParse_WritesInspectionReport(t *testing.T) {
	a, _ := newTestApp(t, audit, nil)
	path, err := a.Parse(context.Background())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var rep parsedReport
	if err := json.Unmarshal(b, &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff([]string{"S1-01", "S1-02"}, rep.Codes); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
	if len(rep.Blocks) != 2 || len(rep.Blocks[0].Sections) != 4 {
		t.Fatalf("unexpected blocks %+v", rep.Blocks)
	}
}

func TestCoverage_WritesReports(t *testing.T) {
	a, cfg := newTestApp(t, audit, func(cfg *Config, dir string) { cfg.CoveragePDF = true })
	rep, err := a.Coverage(context.Background())
	if err != nil {
		t.Fatalf("coverage: %v", err)
	}
	if rep.Detected == 0 || rep.Detected != rep.Injected {
		t.Fatalf("report %+v", rep)
	}
	for _, name := range []string{coverageJSONName, coverageMDName, coveragePDFName} {
		if _, err := os.Stat(filepath.Join(cfg.ReportsDir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}

func TestCoverage_FailsWhenMetaNoteCutsDosage(t *testing.T) {
	report := strings.Replace(audit, "Consignes: plier les genoux\n", "Consignes: plier les genoux\n(En résumé, voir la séance suivante.)\n", 1)
	a, cfg := newTestApp(t, report, nil)
	rep, err := a.Coverage(context.Background())
	var me *coverage.MismatchError
	if !errors.As(err, &me) {
		t.Fatalf("expected coverage mismatch, got %v", err)
	}
	if diff := cmp.Diff([]string{"Dosage: 3 x 8"}, rep.MissingByCode["S1-02"]); diff != "" {
		t.Fatalf("missing S1-02 chunks (-want +got):\n%s", diff)
	}
	if len(rep.Unassigned) != 0 {
		t.Fatalf("unexpected unassigned lines %v", rep.Unassigned)
	}
	if _, err := os.Stat(filepath.Join(cfg.ReportsDir, coverageJSONName)); err != nil {
		t.Fatalf("report should be written on failure: %v", err)
	}
}

func TestLineContext_MarksCenterLine(t *testing.T) {
	lines := []string{"a", "b", "c", "d"}
	want := []string{" 1: a", ">2: b", " 3: c", " 4: d"}
	if diff := cmp.Diff(want, lineContext(lines, 1, 2)); diff != "" {
		t.Fatalf("context (-want +got):\n%s", diff)
	}
	if lineContext(lines, 9, 2) != nil {
		t.Fatalf("out of range line should give no context")
	}
}
