package segment

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperifyio/epseditorial/internal/exercisecode"
	"github.com/hyperifyio/epseditorial/internal/textnorm"
	"github.com/hyperifyio/epseditorial/internal/tokenize"
)

var richnessKeywords = []string{"consignes", "dosage", "securite", "materiel", "objectif", "progression", "regression", "muscles"}

// Richness scores a summary line: its length in runes plus 200 for every
// field keyword it mentions.
func Richness(line string) int {
	score := utf8.RuneCountInString(line)
	folded := " " + textnorm.Fold(line) + " "
	for _, k := range richnessKeywords {
		if strings.Contains(folded, " "+k) {
			score += 200
		}
	}
	return score
}

// SummaryCodes returns the codes a line summarizes: every code token when
// the line holds two or more, plus the inclusive interpolation of every
// same-session range such as "S1-01 à S1-05". A line with a single code and
// no range summarizes nothing.
func SummaryCodes(line string) []string {
	tokens := exercisecode.Tokens(line)
	if len(tokens) < 2 {
		return nil
	}
	var codes []string
	seen := make(map[string]struct{})
	add := func(c string) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		codes = append(codes, c)
	}
	for i, t := range tokens {
		add(t.Code)
		if i+1 < len(tokens) && isRangeConnector(line[t.End:tokens[i+1].Start]) {
			for _, c := range exercisecode.ExpandRange(t.Code, tokens[i+1].Code) {
				add(c)
			}
		}
	}
	exercisecode.Sort(codes)
	return codes
}

func isRangeConnector(between string) bool {
	s := strings.ToLower(strings.Join(strings.Fields(between), ""))
	switch s {
	case "":
		return false
	case "a", "à", "au", "aux", "to", "…", "...":
		return true
	}
	for _, r := range s {
		if r != '.' && !exercisecode.IsDash(r) {
			return false
		}
	}
	return true
}

// summaryBlocks picks, per code, the richest line summarizing it. Ties keep
// the earliest line.
func summaryBlocks(doc tokenize.Document) map[string]Block {
	out := make(map[string]Block)
	score := make(map[string]int)
	for i, line := range doc.Lines {
		codes := SummaryCodes(line)
		if len(codes) == 0 {
			continue
		}
		r := Richness(line)
		for _, c := range codes {
			if prev, ok := score[c]; ok && prev >= r {
				continue
			}
			score[c] = r
			out[c] = Block{
				Code:      c,
				Text:      line,
				StartLine: i,
				EndLine:   i + 1,
				Offset:    doc.Offsets[i],
				Source:    Summary,
			}
		}
	}
	return out
}
