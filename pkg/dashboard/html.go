package dashboard

import "html/template"

var categoryColors = map[string]string{
	"feature_request": "#22c55e",
	"question":        "#3b82f6",
	"bug_report":      "#ef4444",
	"praise":          "#a855f7",
	"criticism":       "#f97316",
	"joke":            "#eab308",
	"spam":            "#6b7280",
	"other":           "#94a3b8",
}

func categoryColor(cat string) string {
	if c, ok := categoryColors[cat]; ok {
		return c
	}
	return "#94a3b8"
}

var dashboardPage = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"color": categoryColor,
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Feedback Dashboard</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: #0f0f0f;
            color: #e5e5e5;
            min-height: 100vh;
        }
        .header {
            background: linear-gradient(135deg, #1a1a2e 0%, #16213e 100%);
            padding: 24px 32px;
            border-bottom: 1px solid #333;
            position: sticky;
            top: 0;
            z-index: 100;
        }
        .header h1 { font-size: 24px; font-weight: 600; margin-bottom: 8px; }
        .header .meta { color: #888; font-size: 14px; }
        .header .meta a { color: #60a5fa; }
        .refresh-indicator {
            position: absolute;
            right: 32px;
            top: 50%;
            transform: translateY(-50%);
            display: flex;
            align-items: center;
            gap: 8px;
            color: #888;
            font-size: 12px;
        }
        .refresh-indicator .dot {
            width: 8px;
            height: 8px;
            background: #22c55e;
            border-radius: 50%;
            animation: pulse 2s infinite;
        }
        @keyframes pulse {
            0%, 100% { opacity: 1; }
            50% { opacity: 0.4; }
        }
        .container { max-width: 1400px; margin: 0 auto; padding: 24px; }
        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(140px, 1fr));
            gap: 16px;
            margin-bottom: 32px;
        }
        .stat-card { background: #1a1a1a; border-radius: 8px; padding: 16px; }
        .stat-value { font-size: 32px; font-weight: 700; color: #fff; }
        .stat-label {
            font-size: 12px;
            color: #888;
            text-transform: uppercase;
            margin-top: 4px;
        }
        .section { margin-bottom: 32px; }
        .section h2 {
            font-size: 18px;
            font-weight: 600;
            margin-bottom: 16px;
            color: #fff;
            display: flex;
            align-items: center;
            gap: 8px;
        }
        .section h2 .count {
            background: #333;
            padding: 2px 8px;
            border-radius: 12px;
            font-size: 12px;
            color: #888;
        }
        .tweets-grid { display: grid; gap: 12px; }
        .tweet-card {
            background: #1a1a1a;
            border-radius: 8px;
            padding: 16px;
            border: 1px solid #262626;
            transition: border-color 0.2s;
        }
        .tweet-card:hover { border-color: #404040; }
        .tweet-card.priority-2 { border-left: 3px solid #ef4444; }
        .tweet-card.priority-1 { border-left: 3px solid #f97316; }
        .tweet-card.mini { padding: 12px; }
        .tweet-header {
            display: flex;
            align-items: center;
            gap: 8px;
            margin-bottom: 8px;
            flex-wrap: wrap;
        }
        .username { font-weight: 600; color: #60a5fa; text-decoration: none; }
        .username:hover { text-decoration: underline; }
        .tag {
            font-size: 10px;
            padding: 2px 8px;
            border-radius: 12px;
            color: #fff;
            text-transform: uppercase;
            font-weight: 500;
        }
        .likes { font-size: 12px; color: #888; margin-left: auto; }
        .tweet-text { font-size: 14px; line-height: 1.5; color: #ccc; }
        .mini .tweet-text { font-size: 13px; }
        .columns {
            display: grid;
            grid-template-columns: 1fr 1fr;
            gap: 24px;
        }
        @media (max-width: 900px) {
            .columns { grid-template-columns: 1fr; }
        }
        .total-badge {
            background: linear-gradient(135deg, #3b82f6, #8b5cf6);
            color: white;
            padding: 4px 12px;
            border-radius: 16px;
            font-size: 14px;
            font-weight: 600;
        }
        .empty { color: #666; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Feedback Dashboard <span class="total-badge">{{.Data.Total}} responses</span></h1>
        <div class="meta">
            Tracking:
            {{range $i, $id := .ParentIDs}}<a href="https://x.com/i/status/{{$id}}" target="_blank">{{$id}}</a> {{end}}
        </div>
        <div class="refresh-indicator">
            <div class="dot"></div>
            Auto-refresh 30s
        </div>
    </div>

    <div class="container">
        <div class="stats-grid">
            <div class="stat-card" style="border-left: 4px solid #fff">
                <div class="stat-value">{{.Data.Total}}</div>
                <div class="stat-label">Total Responses</div>
            </div>
            {{range .Data.Categories}}
            <div class="stat-card" style="border-left: 4px solid {{color .Category}}">
                <div class="stat-value">{{.Count}}</div>
                <div class="stat-label">{{.Category}}</div>
            </div>
            {{end}}
        </div>

        <div class="columns">
            <div class="section">
                <h2>High Priority <span class="count">{{len .Data.HighPriority}}</span></h2>
                <div class="tweets-grid">
                    {{range .Data.HighPriority}}
                    <div class="tweet-card priority-{{.Priority}}">
                        <div class="tweet-header">
                            <a href="{{.URL}}" target="_blank" class="username">@{{.AuthorHandle}}</a>
                            <span class="tag" style="background: {{color .Category}}">{{.Category}}</span>
                            <span class="likes">{{.Likes}} likes</span>
                        </div>
                        <div class="tweet-text">{{.Text}}</div>
                    </div>
                    {{else}}<div class="empty">No high priority items</div>{{end}}
                </div>
            </div>

            <div class="section">
                <h2>Recent Feedback <span class="count">{{len .Data.Recent}}</span></h2>
                <div class="tweets-grid">
                    {{range .Data.Recent}}
                    <div class="tweet-card mini">
                        <div class="tweet-header">
                            <a href="{{.URL}}" target="_blank" class="username">@{{.AuthorHandle}}</a>
                            <span class="tag" style="background: {{color .Category}}">{{.Category}}</span>
                        </div>
                        <div class="tweet-text">{{.Text}}</div>
                    </div>
                    {{end}}
                </div>
            </div>
        </div>
    </div>

    <script>
        setTimeout(() => location.reload(), 30000);
    </script>
</body>
</html>`))

type pageData struct {
	Data      *Data
	ParentIDs []string
}
