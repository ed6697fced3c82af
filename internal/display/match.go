package display

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// maxSuggestions bounds the did-you-mean list in NotFoundError.
const maxSuggestions = 3

// NotFoundError is returned when no display matches the target name. It
// carries every available name so the failure is diagnosable from the
// scheduler log alone.
type NotFoundError struct {
	Target      string
	Available   []string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("display %q not found (no displays reported)", e.Target)
	}
	msg := fmt.Sprintf("display %q not found; available: %s", e.Target, strings.Join(e.Available, ", "))
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestions[0])
	}
	return msg
}

// Match selects the display for target from records. Matching is
// case-insensitive: an exact name match wins; otherwise the target may
// appear as a substring of a display name or vice versa (abbreviated
// targets). Ties go to the first record in enumeration order; all matching
// names are returned so callers can warn when the choice was ambiguous.
func Match(target string, records []Record) (Record, []string, error) {
	want := strings.ToLower(strings.TrimSpace(target))
	if want == "" {
		return Record{}, nil, fmt.Errorf("display name is empty")
	}

	var exact []int
	for i, r := range records {
		if strings.ToLower(r.Name) == want {
			exact = append(exact, i)
		}
	}
	if len(exact) == 0 {
		for i, r := range records {
			name := strings.ToLower(r.Name)
			if name == "" {
				continue
			}
			if strings.Contains(name, want) || strings.Contains(want, name) {
				exact = append(exact, i)
			}
		}
	}

	if len(exact) == 0 {
		names := make([]string, 0, len(records))
		for _, r := range records {
			names = append(names, r.Name)
		}
		return Record{}, nil, &NotFoundError{
			Target:      target,
			Available:   names,
			Suggestions: suggest(target, names),
		}
	}

	candidates := make([]string, 0, len(exact))
	for _, i := range exact {
		candidates = append(candidates, records[i].Name)
	}
	return records[exact[0]], candidates, nil
}

func suggest(target string, names []string) []string {
	matches := fuzzy.Find(target, names)
	out := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		out = append(out, m.Str)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
