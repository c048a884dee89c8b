// Package source loads the editorial input documents from disk.
package source

import (
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "unicode/utf8"
)

// ErrNotFound is returned by Resolve when none of the candidates exists.
var ErrNotFound = errors.New("source: no input document found")

// Format names how a document was read.
type Format string

const (
    FormatText Format = "text"
    FormatHTML Format = "html"
)

// Document is an input file read once per run. Text is never modified after
// Load returns.
type Document struct {
    Path   string
    Format Format
    Text   string
    // SHA256 is the hex digest of the raw bytes on disk.
    SHA256 string
}

// Resolve returns the first candidate path that exists as a regular file.
func Resolve(candidates ...string) (string, error) {
    for _, c := range candidates {
        c = strings.TrimSpace(c)
        if c == "" {
            continue
        }
        if st, err := os.Stat(c); err == nil && !st.IsDir() {
            return c, nil
        }
    }
    return "", fmt.Errorf("%w (tried %s)", ErrNotFound, strings.Join(candidates, ", "))
}

// Load reads path. HTML exports are flattened to text lines; any other file
// is taken verbatim and must be valid UTF-8.
func Load(path string) (Document, error) {
    raw, err := os.ReadFile(path)
    if err != nil {
        return Document{}, fmt.Errorf("read %s: %w", path, err)
    }
    sum := sha256.Sum256(raw)
    doc := Document{Path: path, Format: FormatText, SHA256: hex.EncodeToString(sum[:])}
    switch strings.ToLower(filepath.Ext(path)) {
    case ".html", ".htm", ".xhtml":
        doc.Format = FormatHTML
        doc.Text = FromHTML(raw)
    default:
        if !utf8.Valid(raw) {
            return Document{}, fmt.Errorf("read %s: not valid UTF-8", path)
        }
        doc.Text = strings.TrimPrefix(string(raw), "\ufeff")
    }
    return doc, nil
}
