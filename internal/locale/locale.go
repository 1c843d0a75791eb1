package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Normalize canonicalizes a single locale to its BCP 47 form.
// Underscore separators and mixed case are accepted ("de_de" -> "de-DE").
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(raw, "_", "-"))
	if trimmed == "" {
		return "", fmt.Errorf("empty locale")
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse locale %q: %w", raw, err)
	}
	return tag.String(), nil
}

// NormalizeAll canonicalizes every locale and drops duplicates while
// preserving first-seen order. Any invalid entry fails the whole list.
func NormalizeAll(raws []string) ([]string, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(raws))
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		normalized, err := Normalize(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out, nil
}

// Match picks the supported locale that best serves the requested ones,
// falling back to the first supported entry when nothing matches.
func Match(supported, requested []string) (string, error) {
	if len(supported) == 0 {
		return "", fmt.Errorf("no supported locales")
	}
	tags := make([]language.Tag, 0, len(supported))
	for _, s := range supported {
		tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
		if err != nil {
			return "", fmt.Errorf("parse supported locale %q: %w", s, err)
		}
		tags = append(tags, tag)
	}
	matcher := language.NewMatcher(tags)

	wanted := make([]language.Tag, 0, len(requested))
	for _, r := range requested {
		if tag, err := language.Parse(strings.ReplaceAll(r, "_", "-")); err == nil {
			wanted = append(wanted, tag)
		}
	}
	_, index, _ := matcher.Match(wanted...)
	return tags[index].String(), nil
}
