package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

var boardTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
		"join": strings.Join,
	}

	boardTemplate = template.Must(template.New("board").Funcs(funcMap).Parse(boardTemplateHTML))
}

// RenderBoardHTML renders the board template with provided data
func RenderBoardHTML(view BoardView) (string, error) {
	var buf bytes.Buffer
	if err := boardTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const boardTemplateHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.OrganizationName}} board</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 1.5rem; color: #222; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; margin-bottom: 0.25rem; }
    .meta { color: #666; font-size: 0.85em; margin-bottom: 1.5rem; }
    .board { display: flex; flex-wrap: wrap; gap: 1rem; align-items: flex-start; }
    .column { width: 30%; min-width: 220px; background: #f5f5f5; border-radius: 6px; padding: 0.75rem; page-break-inside: avoid; }
    .column h2 { font-size: 1em; margin: 0 0 0.75rem 0; border-bottom: 1px solid #ccc; padding-bottom: 0.4rem; }
    .card { background: white; border: 1px solid #ddd; border-radius: 4px; padding: 0.5rem 0.6rem; margin-bottom: 0.6rem; page-break-inside: avoid; }
    .card .title { font-weight: bold; font-size: 0.9em; }
    .card .badges { margin-top: 0.3rem; font-size: 0.75em; }
    .badge { display: inline-block; background: #e8eef7; border-radius: 3px; padding: 0.1rem 0.4rem; margin-right: 0.3rem; }
    .badge.status-done { background: #dcf0dc; }
    .badge.status-blocked { background: #f7dede; }
    .card .people { margin-top: 0.3rem; font-size: 0.75em; color: #555; }
    .empty { font-size: 0.8em; color: #999; font-style: italic; }
  </style>
</head>
<body>
  <h1>{{.OrganizationName}}</h1>
  <div class="meta">Board export | {{formatDate .GeneratedAt "Jan 2, 2006 15:04"}}</div>
  <div class="board">
    {{range .Projects}}
    <div class="column">
      <h2>{{.Title}}</h2>
      {{if .Tasks}}
        {{range .Tasks}}
        <div class="card">
          <div class="title">{{.Title}}</div>
          <div class="badges">
            <span class="badge status-{{lower .Status}}">{{.Status}}</span>
            <span class="badge">{{.Priority}}</span>
            {{if .ETA}}<span class="badge">due {{.ETA}}</span>{{end}}
            {{if .CommentCount}}<span class="badge">{{.CommentCount}} comments</span>{{end}}
          </div>
          {{if .Assignees}}<div class="people">{{join .Assignees ", "}}</div>{{end}}
        </div>
        {{end}}
      {{else}}
        <div class="empty">No tasks</div>
      {{end}}
    </div>
    {{end}}
  </div>
</body>
</html>`
