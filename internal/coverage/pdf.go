package coverage

import (
    "bufio"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "github.com/jung-kurt/gofpdf"
)

// WritePDF renders the markdown report produced by RenderMarkdown. Only
// headings, bullets and paragraphs are laid out.
func WritePDF(markdown string, outPath string) error {
    if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
        return fmt.Errorf("mkdir reports dir: %w", err)
    }
    pdf := gofpdf.New("P", "mm", "A4", "")
    // Core fonts are cp1252; accented French text needs translating.
    tr := pdf.UnicodeTranslatorFromDescriptor("")
    pdf.SetFont("Helvetica", "", 11)
    pdf.AddPage()

    scanner := bufio.NewScanner(strings.NewReader(markdown))
    scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
    for scanner.Scan() {
        s := strings.TrimSpace(scanner.Text())
        if s == "" {
            pdf.Ln(3)
            continue
        }
        if strings.HasPrefix(s, "#") {
            i := 0
            for i < len(s) && s[i] == '#' { i++ }
            text := strings.TrimSpace(s[i:])
            if text == "" { continue }
            size := 14.0
            if i >= 2 { size = 12.0 }
            pdf.SetFont("Helvetica", "B", size)
            pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
            pdf.SetFont("Helvetica", "", 11)
            continue
        }
        if strings.HasPrefix(s, "- ") {
            s = "\x95 " + tr(strings.TrimSpace(s[2:]))
        } else {
            s = tr(s)
        }
        pdf.MultiCell(0, 5, s, "", "L", false)
    }
    if err := scanner.Err(); err != nil {
        return err
    }
    return pdf.OutputFileAndClose(outPath)
}
