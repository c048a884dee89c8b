package app

import (
    "context"
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"
)

// TestIntegration_HTMLExport_AllCommands runs every command against an HTML
// export of the audit report found through the candidate list.
func TestIntegration_HTMLExport_AllCommands(t *testing.T) {
    t.Parallel()

    tmp := t.TempDir()
    var b strings.Builder
    b.WriteString("<!doctype html><html><body>\n")
    for _, line := range strings.Split(strings.TrimSpace(audit), "\n") {
        b.WriteString("<p>" + line + "</p>\n")
    }
    b.WriteString("</body></html>")
    htmlPath := filepath.Join(tmp, "audit.html")
    if err := os.WriteFile(htmlPath, []byte(b.String()), 0o644); err != nil { t.Fatalf("write html: %v", err) }

    cfg := Config{
        InputCandidates: []string{filepath.Join(tmp, "missing.md"), htmlPath},
        MasterPath:      filepath.Join(tmp, "master.fr.md"),
        OutputPath:      filepath.Join(tmp, "editorial.generated.ts"),
        ReportsDir:      filepath.Join(tmp, "reports"),
        CoveragePDF:     true,
    }
    a, err := New(cfg)
    if err != nil { t.Fatalf("new app: %v", err) }
    ctx := context.Background()

    parsed, err := a.Parse(ctx)
    if err != nil { t.Fatalf("parse: %v", err) }
    raw, err := os.ReadFile(parsed)
    if err != nil { t.Fatalf("read parsed: %v", err) }
    var rep parsedReport
    if err := json.Unmarshal(raw, &rep); err != nil { t.Fatalf("decode parsed: %v", err) }
    if rep.Source != htmlPath { t.Fatalf("expected html source, got %q", rep.Source) }
    if strings.Join(rep.Codes, ",") != "S1-01,S1-02" { t.Fatalf("codes: %v", rep.Codes) }

    if err := a.Generate(ctx); err != nil { t.Fatalf("generate: %v", err) }
    out, err := os.ReadFile(cfg.OutputPath)
    if err != nil { t.Fatalf("read out: %v", err) }
    content := string(out)
    if !strings.Contains(content, `"S1-01"`) || !strings.Contains(content, `"S1-02"`) { t.Fatalf("missing records in output") }
    if !strings.Contains(content, "tourner lentement") { t.Fatalf("missing consignes in output") }

    if issues, err := a.Check(ctx, nil, true); err != nil { t.Fatalf("check: %v %v", err, issues) }

    if _, err := a.Coverage(ctx); err != nil { t.Fatalf("coverage: %v", err) }
    for _, name := range []string{coverageJSONName, coverageMDName, coveragePDFName} {
        if _, err := os.Stat(filepath.Join(cfg.ReportsDir, name)); err != nil { t.Fatalf("missing %s: %v", name, err) }
    }
}
