package fragment

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// contentPolicy extends the UGC policy with the structural attributes the
// modal markup relies on. Inline event handlers and scripts are dropped.
func contentPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("class", "id", "role", "aria-label", "title").Globally()
		p.AllowDataAttributes()
		p.AllowAttrs("colspan", "rowspan", "scope").OnElements("td", "th")
		p.AllowElements("section", "article", "header", "footer", "dialog")
		policy = p
	})
	return policy
}

// Sanitize strips scripts, inline handlers and unknown markup from fetched
// HTML while keeping classes, ids, data attributes and tables.
func Sanitize(raw string) string {
	return contentPolicy().Sanitize(raw)
}
