package resources

import (
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-slug"
)

var errSlug = validation.NewError("validation_slug", "must contain only lowercase letters, digits and dashes")

// Slug accepts a blank value or an already normalized slug.
var Slug = validation.By(func(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" || slug.IsValid(s) {
		return nil
	}
	return errSlug
})

// slugOf returns explicit when set, otherwise a slug derived from title.
func slugOf(explicit, title string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return s
	}
	normalized, err := slug.Normalize(title)
	if err != nil {
		return ""
	}
	return normalized
}

func input(kind FieldKind, name, label, value string) Field {
	return Field{Name: name, Label: label, Kind: kind, Value: value}
}

func (f Field) required() Field {
	f.Required = true
	return f
}

func (f Field) help(text string) Field {
	f.Help = text
	return f
}

func checkbox(name, label string, checked bool) Field {
	return Field{Name: name, Label: label, Kind: KindCheckbox, Value: "true", Checked: checked}
}

func textEntry(label, value string) Entry {
	return Entry{Label: label, Text: value}
}

func imageEntry(label, url string) Entry {
	return Entry{Label: label, Image: url}
}

func listEntry(label string, items ...string) Entry {
	return Entry{Label: label, List: items}
}

func visibleOf(v *bool) bool {
	return v == nil || *v
}

func boolPtr(v bool) *bool {
	return &v
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDate(value string) string {
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return value
}

// splitTags parses a comma separated tag list, dropping blanks and
// duplicates.
func splitTags(value string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, tag := range strings.Split(value, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		seen[strings.ToLower(tag)] = true
		out = append(out, tag)
	}
	return out
}

func media(pairs ...string) map[string][]string {
	out := make(map[string][]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			out[pairs[i]] = []string{pairs[i+1]}
		}
	}
	return out
}
