// Package classify finds field labels inside an exercise block and cuts the
// block into sections.
package classify

import (
	"regexp"
	"strings"

	"github.com/hyperifyio/epseditorial/internal/textnorm"
)

// Match is one label occurrence. Offsets are bytes in the original block.
type Match struct {
	Key          Key
	Label        string
	Start        int
	ContentStart int
}

// Section is the text following a label up to the next label, the first
// global suffix marker or the end of the block.
type Section struct {
	Key          Key    `json:"key"`
	Label        string `json:"label"`
	Content      string `json:"content"`
	Segment      string `json:"segment"`
	Start        int    `json:"start"`
	ContentStart int    `json:"contentStart"`
	End          int    `json:"end"`
}

// Document-wide trailing sections; a block never extends past them.
var suffixRe = regexp.MustCompile(`\b(?:Conclusion|Sources)\s*:`)

// Matches returns every label occurrence in block, in position order.
func Matches(block string, dict *Dictionary) []Match {
	spans := textnorm.NormalizeWithSpans(block)
	var out []Match
	for _, m := range dict.re.FindAllStringSubmatchIndex(spans.Normalized, -1) {
		key, ok := dict.lookup[strings.Join(strings.Fields(spans.Normalized[m[2]:m[3]]), " ")]
		if !ok {
			continue
		}
		start, labelEnd := spans.Original(m[2], m[3])
		_, contentStart := spans.Original(m[0], m[1])
		if start < 0 || contentStart < 0 {
			continue
		}
		out = append(out, Match{Key: key, Label: block[start:labelEnd], Start: start, ContentStart: contentStart})
	}
	return out
}

// SliceForFields cuts block at its first global suffix marker.
func SliceForFields(block string) string {
	if loc := suffixRe.FindStringIndex(block); loc != nil {
		return block[:loc[0]]
	}
	return block
}

// All returns a section for every label occurrence, duplicates included.
func All(block string, dict *Dictionary) []Section {
	cut := len(block)
	if loc := suffixRe.FindStringIndex(block); loc != nil {
		cut = loc[0]
	}
	var matches []Match
	for _, m := range Matches(block, dict) {
		if m.Start < cut {
			matches = append(matches, m)
		}
	}
	out := make([]Section, 0, len(matches))
	for i, m := range matches {
		end := cut
		if i+1 < len(matches) && matches[i+1].Start < end {
			end = matches[i+1].Start
		}
		out = append(out, Section{
			Key:          m.Key,
			Label:        m.Label,
			Content:      strings.TrimSpace(block[m.ContentStart:end]),
			Segment:      block[m.Start:end],
			Start:        m.Start,
			ContentStart: m.ContentStart,
			End:          end,
		})
	}
	return out
}

// Classify returns the canonical sections of block: the first occurrence of
// each key, in position order.
func Classify(block string, dict *Dictionary) []Section {
	all := All(block, dict)
	assigned := make(map[Key]bool, len(all))
	out := make([]Section, 0, len(all))
	for _, s := range all {
		if assigned[s.Key] {
			continue
		}
		assigned[s.Key] = true
		out = append(out, s)
	}
	return out
}

// Find returns the section for key.
func Find(sections []Section, key Key) (Section, bool) {
	for _, s := range sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}
