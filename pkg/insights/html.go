package insights

import (
	"html/template"
	"strings"

	"xfeedback/pkg/analyze"
	"xfeedback/pkg/store"
)

// basicReport is the no-model fallback: a static categorized page built
// entirely from stored items.
var basicReport = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Feedback Report</title>
  <style>
    * { box-sizing: border-box; }
    body { max-width: 900px; margin: 40px auto; padding: 0 20px; font-family: system-ui, sans-serif; background: #fff; color: #1a1a1a; line-height: 1.5; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 10px; }
    h2 { margin-top: 32px; border-bottom: 1px solid #ccc; padding-bottom: 8px; }
    .meta { color: #666; font-size: 0.875rem; }
    .meta a { color: #666; }
    .stats-row { display: flex; gap: 2rem; margin: 1rem 0; flex-wrap: wrap; }
    .stat-box { text-align: center; }
    .stat-box .stat { font-size: 28px; font-weight: bold; }
    .stat-label { font-size: 12px; color: #666; }
    blockquote { border-left: 3px solid #ccc; margin: 0.5rem 0; padding: 8px 16px; background: #fafafa; }
    blockquote a.cite { color: #1a1a1a; font-weight: 600; }
    details { margin: 20px 0; padding-bottom: 20px; border-bottom: 1px solid #eee; }
    summary { cursor: pointer; font-size: 1.1em; font-weight: 500; }
  </style>
</head>
<body>
  <h1>Feedback Report</h1>
  <p class="meta">{{.Total}} responses &middot; <a href="{{.ParentURL}}">Original Post</a></p>

  <div class="stats-row">
    <div class="stat-box"><div class="stat">{{.Total}}</div><div class="stat-label">Total</div></div>
    <div class="stat-box"><div class="stat">{{len .FeatureRequests}}</div><div class="stat-label">Feature Requests</div></div>
    <div class="stat-box"><div class="stat">{{len .Questions}}</div><div class="stat-label">Questions</div></div>
    <div class="stat-box"><div class="stat">{{len .Praise}}</div><div class="stat-label">Praise</div></div>
  </div>

  <h2>Feature Requests ({{len .FeatureRequests}})</h2>
  {{range .FeatureRequests}}{{template "quote" .}}{{end}}

  <h2>Questions ({{len .Questions}})</h2>
  {{range .Questions}}{{template "quote" .}}{{end}}

  <h2>Bug Reports ({{len .BugReports}})</h2>
  {{range .BugReports}}{{template "quote" .}}{{end}}

  <details>
    <summary>Praise ({{len .Praise}})</summary>
    {{range .Praise}}{{template "quote" .}}{{end}}
  </details>

  <details>
    <summary>Criticism ({{len .Criticism}})</summary>
    {{range .Criticism}}{{template "quote" .}}{{end}}
  </details>

  <details>
    <summary>Other ({{len .Other}})</summary>
    {{range .Other}}{{template "quote" .}}{{end}}
  </details>
</body>
</html>
{{define "quote"}}<blockquote><a class="cite" href="https://x.com/{{.AuthorHandle}}/status/{{.ID}}">@{{.AuthorHandle}}</a>: {{.Text}}</blockquote>
{{end}}`))

type reportData struct {
	ParentURL       string
	Total           int
	FeatureRequests []store.Item
	Questions       []store.Item
	BugReports      []store.Item
	Praise          []store.Item
	Criticism       []store.Item
	Other           []store.Item
}

const perSectionLimit = 20

// renderBasicHTML groups items by classifier verdict and renders the
// static report.
func renderBasicHTML(items []store.Item, parentURL string) (string, error) {
	data := reportData{ParentURL: parentURL, Total: len(items)}
	for _, it := range items {
		switch analyze.Classify(it.Text).Category {
		case "feature_request":
			data.FeatureRequests = appendCapped(data.FeatureRequests, it)
		case "question":
			data.Questions = appendCapped(data.Questions, it)
		case "bug_report":
			data.BugReports = appendCapped(data.BugReports, it)
		case "praise":
			data.Praise = appendCapped(data.Praise, it)
		case "criticism":
			data.Criticism = appendCapped(data.Criticism, it)
		default:
			data.Other = appendCapped(data.Other, it)
		}
	}

	var buf strings.Builder
	if err := basicReport.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func appendCapped(items []store.Item, it store.Item) []store.Item {
	if len(items) >= perSectionLimit {
		return items
	}
	return append(items, it)
}
