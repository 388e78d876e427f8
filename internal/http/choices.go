package http

import (
	"strings"
	"unicode"

	"outlay/internal/core"
)

// Choice is one entry of a category dropdown.
type Choice struct {
	Key   string
	Label string
}

// DefaultCategories is the fixed vocabulary every expense form starts from.
var DefaultCategories = []Choice{
	{"food", "Food & Dining"},
	{"shopping", "Shopping"},
	{"housing", "Housing"},
	{"transportation", "Transportation"},
	{"entertainment", "Entertainment"},
	{"utilities", "Utilities"},
	{"healthcare", "Healthcare"},
	{"personal", "Personal"},
	{"education", "Education"},
	{"travel", "Travel"},
	{"other", "Other"},
}

// CategoryChoices merges the default vocabulary with a user's custom
// categories, deduplicating by lowercase key. When current names a category
// missing from the merged list (an expense whose stored key predates a
// category deletion, say) it is synthesized and appended so an edit form
// can still pre-select it. Pure function; callable without request context.
func CategoryChoices(defaults []Choice, custom []core.Category, current string) []Choice {
	choices := make([]Choice, len(defaults))
	copy(choices, defaults)

	seen := make(map[string]bool, len(defaults))
	for _, c := range defaults {
		seen[c.Key] = true
	}

	for _, cat := range custom {
		label := strings.TrimSpace(cat.Name)
		key := strings.ToLower(label)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		choices = append(choices, Choice{Key: key, Label: label})
	}

	if current = strings.TrimSpace(current); current != "" {
		key := strings.ToLower(current)
		if !seen[key] {
			choices = append(choices, Choice{Key: key, Label: titleCase(current)})
		}
	}

	return choices
}

func titleCase(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}
