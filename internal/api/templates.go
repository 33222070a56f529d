package api

import (
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const absentCell = "—"

var funcMap = template.FuncMap{
	"cellText": func(present bool, text string) string {
		if !present {
			return absentCell
		}
		return text
	},
	"lines": func(text string) int {
		n := strings.Count(text, "\n") + 1
		if n < 2 {
			return 2
		}
		return n
	},
}

const tmplBase = `
{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Title}} · Bidder admin</title>
<style>
*{box-sizing:border-box}
body{font-family:system-ui,sans-serif;margin:0;color:#1f2328;font-size:14px}
nav{background:#24292f;padding:8px 16px;display:flex;gap:16px}
nav a{color:#f6f8fa;text-decoration:none}
main{padding:16px}
h1{font-size:18px;margin:0 0 12px}
.filters{display:flex;gap:12px;align-items:center;margin-bottom:12px}
.filters label{font-size:12px;color:#57606a}
table{border-collapse:collapse}
th,td{border:1px solid #d0d7de;padding:4px 8px;vertical-align:top;text-align:left}
th{background:#f6f8fa}
textarea{font-family:monospace;font-size:12px;width:220px}
.absent{color:#8c959f}
.error{background:#ffebe9;border:1px solid #ff8182;padding:8px;margin-bottom:12px}
.dim{color:#57606a}
</style>
</head>
<body>
<nav><a href="/profiles">Profiles</a><a href="/bidders">Bidders</a></nav>
<main>
{{if .Error}}<div class="error">{{.Error}}</div>{{end}}
{{template "content" .}}
</main>
</body>
</html>{{end}}

{{define "filters"}}
<form class="filters" method="get">
{{range .}}
<label>{{.Label}}
<select name="{{.Name}}" onchange="this.form.submit()">
{{if .AllowAll}}<option value="">All</option>{{end}}
{{$active := .Active}}
{{range .Options}}<option value="{{.}}"{{if eq . $active}} selected{{end}}>{{.}}</option>{{end}}
</select>
</label>
{{end}}
<noscript><button type="submit">Apply</button></noscript>
</form>
{{end}}
`

const tmplProfiles = `
{{define "content"}}
<h1>Profiles</h1>
{{template "filters" .Filters}}
{{if .Profiles}}
<table>
<tr><th>Profile</th><th>Env</th><th>Geo</th><th>Device</th><th>Page type</th></tr>
{{range .Profiles}}
<tr><td><a href="/profiles/{{.ID}}">{{.Label}}</a></td><td>{{.Environment}}</td><td>{{.Geo}}</td><td>{{.Device}}</td><td>{{.PageType}}</td></tr>
{{end}}
</table>
{{else}}
<p class="dim">No profiles match the filters</p>
{{end}}
{{end}}
`

const tmplProfile = `
{{define "content"}}
{{if .Matrix}}
<h1>{{.Matrix.Profile.Label}}</h1>
<p class="dim">{{.Matrix.Profile.Environment}} | {{.Matrix.Profile.Geo}} | {{.Matrix.Profile.Device}} | {{.Matrix.Profile.PageType}}</p>
{{$pid := .Matrix.Profile.ID}}
{{$slots := .SlotIDs}}
{{if .View.Empty}}
<p class="dim">No bidder mappings found</p>
{{else}}
<table>
<tr><th>Bidder</th>{{range .View.ColKeys}}<th>{{.}}</th>{{end}}</tr>
{{range .View.Rows}}
<tr><th>{{.Key}}</th>
{{range .Cells}}
<td>
{{if .Present}}
<form method="post" action="/bidder_configs/{{.BidderConfigID}}/params">
<input type="hidden" name="return_to" value="/profiles/{{$pid}}">
<textarea name="text" rows="{{lines .Text}}">{{.Text}}</textarea>
<button type="submit">Save</button>
</form>
{{else}}
{{$cell := .}}
<span class="absent">{{cellText .Present .Text}}</span>
{{with index $slots .ColKey}}
<form method="post" action="/profiles/{{$pid}}/cells">
<input type="hidden" name="bidder" value="{{$cell.RowKey}}">
<input type="hidden" name="slot_config_id" value="{{.}}">
<textarea name="text" rows="2"></textarea>
<button type="submit">Add</button>
</form>
{{end}}
{{end}}
</td>
{{end}}
</tr>
{{end}}
</table>
{{end}}
{{if .Matrix.Slots}}
<h2>Add mapping</h2>
<form method="post" action="/profiles/{{$pid}}/cells">
<label>Bidder <input name="bidder" required></label>
<label>Slot
<select name="slot_config_id">
{{range .Matrix.Slots}}<option value="{{.ID}}">{{.SlotCode}}</option>{{end}}
</select>
</label>
<textarea name="text" rows="2" placeholder="key: value"></textarea>
<button type="submit">Add</button>
</form>
{{end}}
{{end}}
{{end}}
`

const tmplBidders = `
{{define "content"}}
<h1>Bidders</h1>
<form class="filters" method="get">
<label>Search <input name="q" value="{{.Search}}"></label>
{{range .Filters}}
<label>{{.Label}}
<select name="{{.Name}}">
<option value="">All</option>
{{$active := .Active}}
{{range .Options}}<option value="{{.}}"{{if eq . $active}} selected{{end}}>{{.}}</option>{{end}}
</select>
</label>
{{end}}
<button type="submit">Apply</button>
</form>
{{if .Bidders}}
<ul>
{{range .Bidders}}<li><a href="/bidders/{{.}}">{{.}}</a></li>{{end}}
</ul>
{{else}}
<p class="dim">No bidders found</p>
{{end}}
{{end}}
`

const tmplBidder = `
{{define "content"}}
<h1>{{.Bidder}}</h1>
{{if .HasRows}}
{{template "filters" .Filters}}
{{if .View.Empty}}
<p class="dim">No configurations for {{.Geo}} / {{.Device}}</p>
{{else}}
<table>
<tr><th>Slot</th>{{range .View.ColKeys}}<th>{{.}}</th>{{end}}</tr>
{{range .View.Rows}}
<tr><th>{{.Key}}</th>
{{range .Cells}}
<td>
{{if .Present}}
<form method="post" action="/bidder_configs/{{.BidderConfigID}}/params">
<input type="hidden" name="return_to" value="{{$.ReturnTo}}">
<textarea name="text" rows="{{lines .Text}}">{{.Text}}</textarea>
<button type="submit">Save</button>
</form>
{{else}}
<span class="absent">{{cellText .Present .Text}}</span>
{{end}}
</td>
{{end}}
</tr>
{{end}}
</table>
{{end}}
{{else}}
<p class="dim">No configurations found for this bidder</p>
{{end}}
{{end}}
`

func parseViews() map[string]*template.Template {
	pages := map[string]string{
		"profiles": tmplProfiles,
		"profile":  tmplProfile,
		"bidders":  tmplBidders,
		"bidder":   tmplBidder,
	}
	views := make(map[string]*template.Template, len(pages))
	for name, body := range pages {
		views[name] = template.Must(template.New(name).Funcs(funcMap).Parse(tmplBase + body))
	}
	return views
}

func (s *Server) render(w http.ResponseWriter, status int, view string, data any) {
	t, ok := s.views[view]
	if !ok {
		http.Error(w, "unknown view", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		s.Logger.Error("render template", zap.String("view", view), zap.Error(err))
	}
}
