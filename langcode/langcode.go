// Package langcode validates and expands user-supplied language tokens.
//
// Raw tokens (exactly as typed) are what name output directories and
// appear in prompts; the expanded canonical forms produced here are used
// only for validation decisions and display. Keep that asymmetry: output
// paths must follow the user's input, not the normalized tag.
package langcode

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Confirm asks the user whether to continue despite an unrecognized
// language code. Injected so tests can answer without a console.
type Confirm func(raw string) bool

// Expanded is the result of expanding one raw token.
type Expanded struct {
	// Raw is the token as the user typed it.
	Raw string
	// Canonical is the long-form locale identifier (e.g. "es_ES"),
	// empty when the token is unrecognized.
	Canonical string
	// Name is the English display name, empty when unrecognized.
	Name string
}

// Expand normalizes a raw token into a long-form locale identifier.
// A token is unrecognized when it does not parse as a language tag or
// when no territory can be inferred for it.
func Expand(raw string) (Expanded, bool) {
	tag, err := language.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Expanded{Raw: raw}, false
	}

	base, baseConf := tag.Base()
	region, regionConf := tag.Region()
	if baseConf == language.No || regionConf == language.No {
		return Expanded{Raw: raw}, false
	}

	return Expanded{
		Raw:       raw,
		Canonical: base.String() + "_" + region.String(),
		Name:      display.English.Tags().Name(tag),
	}, true
}

// Validate expands every raw token. Unrecognized tokens are reported
// through warn and then put to confirm; a negative answer aborts the
// whole run. The returned slice parallels raws and is for display only.
func Validate(raws []string, confirm Confirm, warn func(format string, args ...any)) ([]Expanded, error) {
	out := make([]Expanded, 0, len(raws))
	for _, raw := range raws {
		exp, ok := Expand(raw)
		if !ok {
			if warn != nil {
				warn("unrecognized language: %s", raw)
			}
			if confirm == nil || !confirm(raw) {
				return nil, fmt.Errorf("aborted on unrecognized language %q", raw)
			}
			exp = Expanded{Raw: raw, Canonical: raw, Name: raw}
		}
		out = append(out, exp)
	}
	return out, nil
}

// DisplayList renders canonical forms for progress output.
func DisplayList(langs []Expanded) string {
	parts := make([]string, len(langs))
	for i, l := range langs {
		parts[i] = l.Canonical
	}
	return strings.Join(parts, ", ")
}
