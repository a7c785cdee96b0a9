package web

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/Jyoti203/tic-tac-toe/internal/app"
	"github.com/Jyoti203/tic-tac-toe/internal/domain"
)

type templates struct {
	base  *template.Template
	game  *template.Template
	board *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"modeLabel": func(m string) string {
			if m == app.ModePvAI.String() {
				return "Player vs AI"
			}
			return "Player vs Player"
		},
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic Tac Toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org@1.9.12/dist/ext/sse.js"></script>
<style>
.grid{display:grid;grid-template-columns:repeat(3,5rem);gap:.25rem}
.cell{width:5rem;height:5rem;font-size:2.5rem}
.cell.win{background:#a8cc8c}
.mode.active{font-weight:bold}
</style>
</head><body>{{template "content" .}}</body></html>`))
	// Define the board template within the same set so game can include it
	template.Must(base.New("board").Parse(boardTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Tic Tac Toe</h1>
<form action="/game" method="post">
  <button name="mode" value="pvp">Player vs Player</button>
  <button name="mode" value="pvai">Player vs AI</button>
</form>`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Tic Tac Toe</h1>
<div hx-ext="sse" hx-sse="connect:/game/{{.ID}}/events">
  <div id="board-stream" hx-sse="swap:board">{{template "board" .}}</div>
</div>`))
	// Standalone board template used for fragment rendering
	board := template.Must(template.New("board_only").Funcs(funcs()).Parse(boardTemplate))
	return &templates{base: base, game: game, board: board, index: index}
}

func renderTemplate(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const boardTemplate = `
<div id="board">
  <div class="modes">
    {{range $m := .Modes}}
    <button class="mode{{if eq $m $.Mode}} active{{end}}" hx-post="/game/{{$.ID}}/mode" hx-vals='{"mode":"{{$m}}"}' hx-target="#board" hx-swap="outerHTML">{{modeLabel $m}}</button>
    {{end}}
  </div>
  <p id="status">{{.Status}}</p>
  {{if .Error}}
  <div class="alert">{{.Error}}</div>
  {{end}}
  <div class="grid">
    {{range .Cells}}
    <form hx-post="/game/{{$.ID}}/play" hx-target="#board" hx-swap="outerHTML" method="post" action="/game/{{$.ID}}/play">
      <input type="hidden" name="cell" value="{{.Index}}">
      <button type="submit" class="cell{{if .Win}} win{{end}}" data-index="{{.Index}}"{{if not .Playable}} disabled{{end}}>{{.Symbol}}</button>
    </form>
    {{end}}
  </div>
  <div class="scores">
    X: <span id="xScore">{{.Score.X}}</span>
    O: <span id="oScore">{{.Score.O}}</span>
    Draw: <span id="drawScore">{{.Score.Draws}}</span>
  </div>
  <button id="restart" hx-post="/game/{{.ID}}/restart" hx-target="#board" hx-swap="outerHTML">Restart</button>
</div>
`

type cellView struct {
	Index    int
	Symbol   string
	Win      bool
	Playable bool
}

// boardView is the template model of a session.
type boardView struct {
	ID     string
	Cells  [9]cellView
	Status string
	Score  domain.Tally
	Mode   string
	Modes  []string
	Error  string
}

func newBoardView(s app.Session, errMsg string) boardView {
	v := boardView{
		ID:     s.ID,
		Status: s.Status(),
		Score:  s.Score,
		Mode:   s.Mode.String(),
		Modes:  []string{app.ModePvP.String(), app.ModePvAI.String()},
		Error:  errMsg,
	}
	var win [9]bool
	if s.Game.Result.Phase == domain.Won {
		for _, idx := range s.Game.Result.Line {
			win[idx] = true
		}
	}
	humanTurn := !s.Game.Over() && !s.AITurn()
	for i, c := range s.Game.Board {
		v.Cells[i] = cellView{Index: i, Symbol: c.String(), Win: win[i], Playable: humanTurn && c == domain.Empty}
	}
	return v
}

const sessionCookie = "session_id"

// bindSession remembers the session in a cookie so "/" can resume it.
func bindSession(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: id, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

func sessionFromCookie(r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}
