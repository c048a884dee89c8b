package assemble

import (
	"errors"
	"fmt"
	"os"
	"sort"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/epseditorial/internal/exercisecode"
	"github.com/hyperifyio/epseditorial/internal/textnorm"
)

// Overrides replaces record fields per code: code -> field name -> text.
// Field names are the record JSON names of string fields.
type Overrides map[string]map[string]string

// Codes returns the overridden codes in order.
func (o Overrides) Codes() []string {
	out := make([]string, 0, len(o))
	for c := range o {
		out = append(out, c)
	}
	exercisecode.Sort(out)
	return out
}

func (o Overrides) apply(rec *Record) {
	for name, text := range o[rec.Code] {
		if dst := rec.Field(name); dst != nil {
			*dst = textnorm.Sanitize(text)
		}
	}
}

// ParseOverrides decodes YAML overrides, normalizing codes and rejecting
// invalid codes and unknown fields.
func ParseOverrides(b []byte) (Overrides, error) {
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	out := make(Overrides, len(raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var probe Record
	for _, k := range keys {
		code := exercisecode.Normalize(k)
		if !exercisecode.IsValid(code) {
			return nil, fmt.Errorf("parse overrides: invalid exercise code %q", k)
		}
		if _, dup := out[code]; dup {
			return nil, fmt.Errorf("parse overrides: code %s listed twice", code)
		}
		fields := make(map[string]string, len(raw[k]))
		for name, text := range raw[k] {
			if probe.Field(name) == nil {
				return nil, fmt.Errorf("parse overrides: %s: unknown field %q", code, name)
			}
			fields[name] = text
		}
		out[code] = fields
	}
	return out, nil
}

// LoadOverrides reads the overrides file at path. An empty path or a
// missing file yields no overrides.
func LoadOverrides(path string) (Overrides, error) {
	if path == "" {
		return Overrides{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Overrides{}, nil
		}
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	return ParseOverrides(b)
}
