package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Jyoti203/tic-tac-toe/internal/app"
	"github.com/Jyoti203/tic-tac-toe/internal/domain"
	"github.com/go-chi/chi/v5"
)

type handlers struct {
	svc       *app.Service
	tpl       *templates
	logger    *log.Logger
	heartbeat time.Duration
}

func (h *handlers) writeHTML(w http.ResponseWriter, t *template.Template, data any) {
	b, err := renderTemplate(t, data)
	if err != nil {
		h.logger.Printf("template error: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *handlers) writeBoard(w http.ResponseWriter, gs app.Session, errMsg string) {
	h.writeHTML(w, h.tpl.board, newBoardView(gs, errMsg))
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	if id := sessionFromCookie(r); id != "" {
		if gs, ok := h.svc.Get(id); ok {
			http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
			return
		}
	}
	h.writeHTML(w, h.tpl.index, nil)
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	mode, err := app.ParseMode(r.Form.Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	gs, err := h.svc.CreateSession(mode)
	if err != nil {
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	bindSession(w, gs.ID)
	http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	bindSession(w, gs.ID)
	h.writeHTML(w, h.tpl.game, newBoardView(*gs, ""))
}

// cellIndex reads "cell" (0..8), falling back to "r" and "c" (0..2).
// Unparsable input maps to -1 so the engine rejects it.
func cellIndex(r *http.Request) int {
	if v := r.Form.Get("cell"); v != "" {
		idx, err := strconv.Atoi(v)
		if err != nil {
			return -1
		}
		return idx
	}
	row, errR := strconv.Atoi(r.Form.Get("r"))
	col, errC := strconv.Atoi(r.Form.Get("c"))
	if errR != nil || errC != nil || row < 0 || row > 2 || col < 0 || col > 2 {
		return -1
	}
	return row*3 + col
}

func moveError(err error) string {
	switch {
	case errors.Is(err, app.ErrNotYourTurn), errors.Is(err, domain.ErrWrongTurn):
		return "Not your turn"
	case errors.Is(err, domain.ErrOccupied):
		return "Cell is occupied"
	case errors.Is(err, domain.ErrOutOfBounds):
		return "Out of bounds"
	case errors.Is(err, domain.ErrGameOver):
		return "Game is over"
	default:
		return "Invalid move"
	}
}

// serviceError answers a failed session lookup.
func serviceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, app.ErrClosed) {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	http.NotFound(w, r)
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_ = r.ParseForm()
	gs, err := h.svc.Play(id, cellIndex(r))
	var errMsg string
	if err != nil {
		if errors.Is(err, app.ErrNotFound) || errors.Is(err, app.ErrClosed) {
			serviceError(w, r, err)
			return
		}
		errMsg = moveError(err)
		if gs, _ = h.svc.Get(id); gs == nil {
			http.NotFound(w, r)
			return
		}
	}
	h.writeBoard(w, *gs, errMsg)
}

func (h *handlers) mode(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	mode, err := app.ParseMode(r.Form.Get("mode"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	gs, err := h.svc.SetMode(chi.URLParam(r, "id"), mode)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	h.writeBoard(w, *gs, "")
}

func (h *handlers) restart(w http.ResponseWriter, r *http.Request) {
	gs, err := h.svc.Restart(chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	h.writeBoard(w, *gs, "")
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(newStateView(*gs)); err != nil {
		h.logger.Printf("encode state: %v", err)
	}
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		serviceError(w, r, err)
		return
	}
	defer unsub()
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	// Initial flush of headers
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case u, ok := <-ch:
			if !ok {
				return
			}
			b, err := renderTemplate(h.tpl.board, newBoardView(u.Session, ""))
			if err != nil {
				h.logger.Printf("template error: %v", err)
				continue
			}
			writeSSE(w, "board", b)
			flusher.Flush()
		}
	}
}

// writeSSE emits one event; every payload line gets its own data field.
func writeSSE(w io.Writer, event string, payload []byte) {
	_, _ = fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range bytes.Split(bytes.TrimSpace(payload), []byte("\n")) {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = io.WriteString(w, "\n")
}

// stateView is the JSON shape of a session.
type stateView struct {
	ID     string       `json:"id"`
	Board  [9]string    `json:"board"`
	Turn   string       `json:"turn"`
	Phase  string       `json:"phase"`
	Winner string       `json:"winner,omitempty"`
	Line   []int        `json:"line,omitempty"`
	Mode   string       `json:"mode"`
	Score  domain.Tally `json:"score"`
	Round  int          `json:"round"`
	Status string       `json:"status"`
}

func newStateView(s app.Session) stateView {
	v := stateView{
		ID:     s.ID,
		Turn:   s.Game.Turn.String(),
		Phase:  s.Game.Result.Phase.String(),
		Mode:   s.Mode.String(),
		Score:  s.Score,
		Round:  s.Round,
		Status: s.Status(),
	}
	for i, c := range s.Game.Board {
		v.Board[i] = c.String()
	}
	if s.Game.Result.Phase == domain.Won {
		v.Winner = s.Game.Result.Winner.String()
		v.Line = s.Game.Result.Line[:]
	}
	return v
}
