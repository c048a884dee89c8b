package validate

import (
    "regexp"
    "strings"

    "github.com/hyperifyio/epseditorial/internal/assemble"
    "github.com/hyperifyio/epseditorial/internal/exercisecode"
    "github.com/hyperifyio/epseditorial/internal/sheet"
    "github.com/hyperifyio/epseditorial/internal/textnorm"
)

type pattern struct {
    label string
    re    *regexp.Regexp
}

func matching(value string, patterns []pattern) []string {
    var out []string
    for _, p := range patterns {
        if p.re.MatchString(value) {
            out = append(out, p.label)
        }
    }
    return out
}

var (
    placeholderStart = []pattern{
        {"placeholder: contenu à compléter", regexp.MustCompile(`(?i)^\s*contenu\s+[aà]\s+compl[eé]ter\b`)},
        {"placeholder: (omission", regexp.MustCompile(`(?i)^\s*\(omission`)},
        {"placeholder: similaire", regexp.MustCompile(`(?i)^\s*similaires?\b`)},
        {"placeholder: identique", regexp.MustCompile(`(?i)^\s*identiques?\b`)},
    }
    placeholderAnywhere = []pattern{
        {"placeholder: omission", regexp.MustCompile(`(?i)omission`)},
        {"placeholder: (les exercices", regexp.MustCompile(`(?i)\(les exercices`)},
        {"placeholder: (en résumé", regexp.MustCompile(`(?i)\(en r[eé]sum[eé]`)},
        {"placeholder: (…", regexp.MustCompile(`\(\s*(?:…|\.\.\.)`)},
        {"placeholder: isolated Le", regexp.MustCompile(`(?im)^[ \t]*le[ \t]*$`)},
    }
)

// Placeholder flags "content pending" text.
func Placeholder() Validator {
    return fieldCheck{name: "placeholder", check: func(_, value string) []string {
        return append(matching(value, placeholderStart), matching(value, placeholderAnywhere)...)
    }}
}

var referralRe = regexp.MustCompile(`(?i)(?:^|[\s"'(),.;:!?\[\]{}])(?:idem|id\.|identiques?|similaires?|cf\.?|voir\s+(?:l['’]\s*)?exercice|m[eê]me\s+exercice)(?:$|[\s"'(),.;:!?\[\]{}])`)

// selfReference matches a referral that points at code itself.
func selfReference(code string) *regexp.Regexp {
    num := strings.TrimLeft(code[3:], "0")
    codeExpr := `S\s?` + code[1:2] + `\s?[-_\x{2010}-\x{2015}\x{2212}]\s?0?` + regexp.QuoteMeta(num) + `\b`
    marker := `(?:(?:voir|cf\.?|idem|comme)\s+(?:(?:l['’]\s*|le\s+|à\s+|au\s+)?(?:exercice|exo)\s+)?|(?:exercice|exo)\s+)?`
    return regexp.MustCompile(`(?i)` + marker + codeExpr)
}

// CrossReference flags referral wording and codes of other exercises.
// References to the record's own code are ignored.
func CrossReference() Validator {
    return fieldCheck{name: "crossref", check: func(code, value string) []string {
        text := value
        if exercisecode.IsValid(code) {
            text = selfReference(code).ReplaceAllString(text, "")
        }
        var out []string
        if referralRe.MatchString(text) || textnorm.HasReferralPhrase(text) {
            out = append(out, "referral phrase")
        }
        var foreign []string
        for _, c := range exercisecode.Unique(exercisecode.Tokens(text)) {
            if c != code {
                foreign = append(foreign, c)
            }
        }
        if len(foreign) > 0 {
            out = append(out, "foreign codes: "+strings.Join(foreign, ", "))
        }
        return out
    }}
}

var typography = []pattern{
    {"trailing whitespace", regexp.MustCompile(`(?m)[ \t]+$`)},
    {"double spaces", regexp.MustCompile(`[^\n][ \t]{2,}[^\n]`)},
    {"excess newlines", regexp.MustCompile(`\n{3,}`)},
    {"empty heading", regexp.MustCompile(`(?m)^[^:\n]{2,40}:[ \t]*$`)},
}

// Typography flags whitespace defects and empty headings.
func Typography() Validator {
    return fieldCheck{name: "typography", check: func(_, value string) []string {
        return matching(value, typography)
    }}
}

var leaks = []pattern{
    {"contains session header", regexp.MustCompile(`(?i)Session\s+[1-5]\s*[-:\x{2010}-\x{2015}]`)},
    {"contains session summary marker", regexp.MustCompile(`(?i)suite des exercices`)},
}

// Leak flags session-level prose inside an exercise field.
func Leak() Validator {
    return fieldCheck{name: "leak", check: func(_, value string) []string {
        return matching(value, leaks)
    }}
}

var (
    markdownPatterns = []pattern{
        {"star-dash", regexp.MustCompile(`\*\s*-\s+`)},
        {"tab-bullet", regexp.MustCompile(`\t\x{2022}\t`)},
    }
    inlineColonRe = regexp.MustCompile(`:\s*-\s+`)
    inlineCodeRe  = regexp.MustCompile(`-\s*S[1-5]-\d{2}\b`)
)

// Markdown flags list markup that renders badly.
func Markdown() Validator {
    return fieldCheck{name: "markdown", check: func(_, value string) []string {
        out := matching(value, markdownPatterns)
        var colon, codes bool
        for _, line := range strings.Split(value, "\n") {
            if strings.TrimSpace(line) == "" {
                continue
            }
            colon = colon || inlineColonRe.MatchString(line)
            codes = codes || len(inlineCodeRe.FindAllString(line, -1)) > 1
        }
        if colon {
            out = append(out, "inline-colon-list")
        }
        if codes {
            out = append(out, "inline-code-list")
        }
        return out
    }}
}

var mojibake = []pattern{
    {"U+201A (‚)", regexp.MustCompile(`\x{201A}`)},
    {"OE in word (maŒ)", regexp.MustCompile(`[a-zA-Z]\x{0152}`)},
    {"replacement char (�)", regexp.MustCompile(`\x{FFFD}`)},
    {"UTF-8 mojibake (â€)", regexp.MustCompile(`â€`)},
}

// Mojibake flags sequences left by a wrong text encoding.
func Mojibake() Validator {
    return fieldCheck{name: "mojibake", check: func(_, value string) []string {
        return matching(value, mojibake)
    }}
}

type levelCheck struct{}

// Level flags a level outside the published set.
func Level() Validator { return levelCheck{} }

func (levelCheck) Name() string { return "level" }

func (levelCheck) Check(rec assemble.Record) []Issue {
    for _, l := range sheet.Levels() {
        if rec.Level == l {
            return nil
        }
    }
    return []Issue{{Code: rec.Code, Field: "level", Message: "unknown level", Excerpt: textnorm.Compact(rec.Level)}}
}
