package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/gitlane/pkg/buildinfo"
	"github.com/matzehuels/gitlane/pkg/errors"
	"github.com/matzehuels/gitlane/pkg/pipeline"
	"github.com/matzehuels/gitlane/pkg/render/dot"
)

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/layout", s.handleLayout)
		r.Get("/graph.txt", s.handleText)
		r.Get("/graph.svg", s.handleSVG)
		r.Get("/ws", s.handleWebSocket)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"build":   buildinfo.Get(),
		"loaded":  snap.err == nil,
		"commits": len(snap.commits),
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	if snap.err != nil {
		writeError(w, snap.err)
		return
	}
	writeJSON(w, http.StatusOK, snap.layout)
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	if snap.err != nil {
		writeError(w, snap.err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(snap.text)
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	if snap.err != nil {
		writeError(w, snap.err)
		return
	}
	opts := s.opts.Pipeline
	src := dot.ToDOT(snap.commits, snap.rows, dot.Options{Hash: opts.ShowHash, Decorate: opts.ShowRefs})
	svg, err := dot.RenderSVG(r.Context(), src)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render %s", pipeline.FormatSVG))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func errorBody(err error) errorResponse {
	return errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody(err))
}

func statusFor(err error) int {
	switch {
	case err == errNotLoaded:
		return http.StatusServiceUnavailable
	case errors.Is(err, errors.ErrCodeRepoNotFound):
		return http.StatusNotFound
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
