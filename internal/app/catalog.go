package app

import (
    "encoding/json"
    "errors"
    "fmt"
    "io/fs"
    "os"
    "path/filepath"
    "regexp"
    "strings"

    "github.com/hyperifyio/epseditorial/internal/exercisecode"
)

// catalogEntry is one row of the exercise index extracted from the PDF.
type catalogEntry struct {
    Code   string `json:"code"`
    Title  string `json:"title"`
    Series string `json:"series"`
}

// loadCatalog reads the optional catalog index. A missing file yields no
// entries.
func loadCatalog(path string) ([]catalogEntry, error) {
    if trim(path) == "" { return nil, nil }
    b, err := os.ReadFile(path)
    if err != nil {
        if errors.Is(err, os.ErrNotExist) { return nil, nil }
        return nil, fmt.Errorf("read catalog: %w", err)
    }
    var entries []catalogEntry
    if err := json.Unmarshal(b, &entries); err != nil {
        return nil, fmt.Errorf("parse catalog %s: %w", path, err)
    }
    for i := range entries {
        entries[i].Code = exercisecode.Normalize(entries[i].Code)
    }
    return entries, nil
}

func catalogTitles(entries []catalogEntry) map[string]string {
    out := make(map[string]string, len(entries))
    for _, e := range entries {
        if t := trim(e.Title); t != "" && exercisecode.IsValid(e.Code) {
            out[e.Code] = t
        }
    }
    return out
}

var assetNameRe = regexp.MustCompile(`(?i)^(S[1-5]-\d{1,2})\.(?:webp|avif|jpe?g|png)$`)

// assetCodes lists the exercise codes that have an image under dir. A
// missing dir yields none.
func assetCodes(dir string) ([]string, error) {
    if trim(dir) == "" { return nil, nil }
    if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
        return nil, nil
    }
    var out []string
    err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
        if err != nil { return err }
        if d.IsDir() { return nil }
        if m := assetNameRe.FindStringSubmatch(d.Name()); m != nil {
            if code := exercisecode.Normalize(m[1]); exercisecode.IsValid(code) {
                out = append(out, code)
            }
        }
        return nil
    })
    if err != nil {
        return nil, fmt.Errorf("scan assets: %w", err)
    }
    return out, nil
}

// GhostCodesError reports codes listed for publication that have no source
// data and no asset.
type GhostCodesError struct {
    Codes []string
}

func (e *GhostCodesError) Error() string {
    return "ghost codes: " + strings.Join(e.Codes, ", ")
}
