package table

import (
	"strings"

	"github.com/ziadkadry99/kqlcatalog/internal/catalog"
)

// Filter returns the rules for which keep reports true, in order.
func Filter(rules []catalog.Rule, keep func(catalog.Rule) bool) []catalog.Rule {
	out := make([]catalog.Rule, 0, len(rules))
	for _, r := range rules {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Search returns the rules whose name, description, source system or any
// classification contains term, ignoring case. An empty term matches all.
func Search(rules []catalog.Rule, term string) []catalog.Rule {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return Filter(rules, func(catalog.Rule) bool { return true })
	}
	return Filter(rules, func(r catalog.Rule) bool {
		return matches(r, term)
	})
}

func matches(r catalog.Rule, term string) bool {
	for _, field := range []string{r.Name, r.Description, r.SourceSystem} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	for _, c := range r.Classifications {
		if strings.Contains(strings.ToLower(c.Category), term) ||
			strings.Contains(strings.ToLower(c.Label), term) {
			return true
		}
	}
	return false
}

// BySeverity keeps rules with one of the given severities.
func BySeverity(severities ...catalog.Severity) func(catalog.Rule) bool {
	set := make(map[catalog.Severity]bool, len(severities))
	for _, s := range severities {
		set[s] = true
	}
	return func(r catalog.Rule) bool { return set[r.Severity] }
}
