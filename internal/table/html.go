package table

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

const rowsTemplate = `{{- if not .Rows -}}
<tr>
  <td colspan="7" class="no-data">No detection rules available for {{.Platform}}</td>
</tr>
{{- end -}}
{{- range .Rows}}
{{- if .Header}}
<tr class="detection-row" id="{{anchor .Rule}}" data-severity="{{.Rule.Severity}}">
  <td rowspan="{{.RowSpan}}" class="detection-name-cell">
    <div class="detection-title">
      <span class="severity-indicator {{.SeverityClass}}"></span>
      <strong>{{.Rule.Name}}</strong>
    </div>
    <div class="detection-meta">
      <span class="detection-timestamp">Last: {{timestamp .Rule.LastDetected}}</span>
      <span class="detection-count">{{results .Rule.DetectionCount}}</span>
    </div>
  </td>
  <td rowspan="{{.RowSpan}}" class="description-cell">{{.Rule.Description}}</td>
  <td class="mitre-tactic-cell">
    <div class="mitre-tactic">{{.Classification.Category}}</div>
    <div class="mitre-technique">{{.Classification.Label}}</div>
  </td>
  <td rowspan="{{.RowSpan}}" class="data-source-cell">{{.Rule.SourceSystem}}</td>
  <td rowspan="{{.RowSpan}}" class="action-cell">
    <button type="button" class="view-query-btn" data-modal-id="{{.Rule.QueryResourceID}}" data-kind="query" data-file="{{.Rule.QueryFileName}}">📄 View Query</button>
  </td>
  <td rowspan="{{.RowSpan}}" class="action-cell">
    {{- if .Rule.ReferenceURL}}
    <a href="{{.Rule.ReferenceURL}}" target="_blank" rel="noopener" class="attack-path-link">{{or .Rule.ReferenceLabel .Rule.ReferenceURL}}</a>
    {{- end}}
  </td>
  <td rowspan="{{.RowSpan}}" class="action-cell">
    <button type="button" class="view-logs-btn sample-btn" data-modal-id="{{.Rule.SampleLogResourceID}}" data-kind="log">📊 Sample Logs</button>
  </td>
</tr>
{{- else}}
<tr class="mitre-additional-row">
  <td class="mitre-tactic-cell">
    <div class="mitre-tactic">{{.Classification.Category}}</div>
    <div class="mitre-technique">{{.Classification.Label}}</div>
  </td>
</tr>
{{- end}}
{{- end}}
`

var rowsTmpl = template.Must(template.New("rows").Funcs(template.FuncMap{
	"timestamp": FormatTimestamp,
	"results":   ResultsCount,
	"anchor":    Anchor,
}).Parse(rowsTemplate))

// WriteHTML writes rows as <tr> elements for the rule table body. platform
// names the platform in the empty-table message.
func WriteHTML(w io.Writer, platform string, rows []Row) error {
	err := rowsTmpl.Execute(w, struct {
		Platform string
		Rows     []Row
	}{platform, rows})
	if err != nil {
		return fmt.Errorf("writing rule rows: %w", err)
	}
	return nil
}

// HTML returns the table body markup for rows, ready to embed in a page
// template.
func HTML(platform string, rows []Row) (template.HTML, error) {
	var b strings.Builder
	if err := WriteHTML(&b, platform, rows); err != nil {
		return "", err
	}
	return template.HTML(b.String()), nil
}
