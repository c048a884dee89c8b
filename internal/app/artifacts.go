package app

import (
    "bytes"
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "github.com/hyperifyio/epseditorial/internal/assemble"
    "github.com/hyperifyio/epseditorial/internal/classify"
    "github.com/hyperifyio/epseditorial/internal/master"
    "github.com/hyperifyio/epseditorial/internal/segment"
)

// Report file names under Config.ReportsDir.
const (
    fallbackReportName = "editorial.fallbacks.json"
    parsedReportName   = "audit-editorial.parsed.json"
    coverageJSONName   = "editorial.coverage.json"
    coverageMDName     = "editorial.coverage.md"
    coveragePDFName    = "editorial.coverage.pdf"
)

// writeFile writes b to path, creating parent directories.
func writeFile(path string, b []byte) error {
    if dir := filepath.Dir(path); dir != "" {
        if err := os.MkdirAll(dir, 0o755); err != nil {
            return fmt.Errorf("mkdir %s: %w", dir, err)
        }
    }
    if err := os.WriteFile(path, b, 0o644); err != nil {
        return fmt.Errorf("write %s: %w", path, err)
    }
    return nil
}

// marshalJSON encodes v with two-space indentation, without HTML escaping
// and with a trailing newline.
func marshalJSON(v any) ([]byte, error) {
    var buf bytes.Buffer
    enc := json.NewEncoder(&buf)
    enc.SetEscapeHTML(false)
    enc.SetIndent("", "  ")
    if err := enc.Encode(v); err != nil {
        return nil, err
    }
    return buf.Bytes(), nil
}

func writeJSON(path string, v any) error {
    b, err := marshalJSON(v)
    if err != nil { return err }
    return writeFile(path, b)
}

// fallbackReport returns the fallback entries with a non-nil slice so an
// empty report encodes as [].
func fallbackReport(fb []assemble.Fallback) []assemble.Fallback {
    if fb == nil { return []assemble.Fallback{} }
    return fb
}

type sessionAbout struct {
    AboutMd string `json:"aboutMd"`
    ExtraMd string `json:"extraMd"`
}

type guideData struct {
    Presentation string `json:"presentation"`
    Conclusion   string `json:"conclusion"`
    Sources      string `json:"sources"`
    Notes        string `json:"notes"`
}

const generatedHeader = "/* This file is generated by epseditorial gen. Do not edit manually. */\n"

const editorialType = `export type EditorialRecord = {
  code: string;
  source: "explicit" | "summary";
  title: string;
  level: string;
  equipment: string;
  muscles: string;
  objective: string;
  anatomy: string;
  keyPoints: string[];
  safety: string[];
  regression: string;
  progression: string;
  dosage: string;
  materielMd: string;
  consignesMd: string;
  dosageMd: string;
  securiteMd: string;
  detailMd: string;
  fullMdRaw: string;
};

export type EditorialByCode = Record<string, EditorialRecord>;
`

const masterType = `export type MasterEditorialByCode = Record<string, {
  description?: string;
  muscles?: string;
  objectifs?: string;
  justifications?: string;
  benefices?: string;
  contreIndications?: string;
  progression?: string;
  consignes?: string;
  dosage?: string;
}>;
`

const guideType = `export type SessionAbout = Record<string, { aboutMd: string; extraMd: string }>;

export type GuideData = {
  presentation: string;
  conclusion: string;
  sources: string;
  notes: string;
};
`

// renderGenerated renders the TypeScript module read by the web app. Map
// keys are encoded in sorted order so the output is stable.
func renderGenerated(records []assemble.Record, extras map[string]master.Entry, guide segment.Guide) (string, error) {
    byCode := make(map[string]assemble.Record, len(records))
    for _, r := range records {
        if r.KeyPoints == nil { r.KeyPoints = []string{} }
        if r.Safety == nil { r.Safety = []string{} }
        byCode[r.Code] = r
    }
    about := make(map[string]sessionAbout, len(guide.Sessions))
    for _, s := range guide.Sessions {
        about[s.ID] = sessionAbout{AboutMd: s.About, ExtraMd: s.Extra}
    }
    gd := guideData{Presentation: guide.Presentation, Conclusion: guide.Conclusion, Sources: guide.Sources, Notes: guide.Notes}

    var b strings.Builder
    b.WriteString(generatedHeader)
    sections := []struct {
        typ, decl string
        v         any
    }{
        {editorialType, "export const editorialByCode: EditorialByCode = ", byCode},
        {masterType, "export const masterEditorialByCode: MasterEditorialByCode = ", extras},
        {guideType, "export const sessionAbout: SessionAbout = ", about},
        {"", "export const guide: GuideData = ", gd},
    }
    for _, s := range sections {
        js, err := marshalJSON(s.v)
        if err != nil {
            return "", fmt.Errorf("encode generated module: %w", err)
        }
        if s.typ != "" {
            b.WriteString("\n")
            b.WriteString(s.typ)
        }
        b.WriteString("\n")
        b.WriteString(s.decl)
        b.WriteString(strings.TrimRight(string(js), "\n"))
        b.WriteString(";\n")
    }
    return b.String(), nil
}

// parsedBlock is the inspection view of one segmented block.
type parsedBlock struct {
    Code      string             `json:"code"`
    Source    segment.Provenance `json:"source"`
    StartLine int                `json:"startLine"`
    EndLine   int                `json:"endLine"`
    Sections  []classify.Section `json:"sections"`
}

type parsedReport struct {
    Source   string         `json:"source"`
    Lines    int            `json:"lines"`
    Expected []string       `json:"expected"`
    Codes    []string       `json:"codes"`
    Blocks   []parsedBlock  `json:"blocks"`
    Leaks    []segment.Leak `json:"leaks"`
}
