// internal/adapters/http_server/handlers.go
package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Akharrat1991/AI-Property-Management/internal/app"
)

type Handlers struct{ Store *app.SummaryStore }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/summary", h.getSummary)
	s.mux.Get("/v1/summary/decisions", h.listDecisions)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON body failed")
	}
}

func (h *Handlers) getSummary(w http.ResponseWriter, r *http.Request) {
	sum, ok := h.Store.Latest()
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "no completed analysis run yet")
		return
	}
	writeJSON(w, sum)
}

func (h *Handlers) listDecisions(w http.ResponseWriter, r *http.Request) {
	decisions, ok := h.Store.Decisions()
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", "no completed analysis run yet")
		return
	}
	writeJSON(w, decisions)
}
