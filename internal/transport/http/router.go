package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"pixelhunt/internal/app"
	"pixelhunt/internal/domain"
)

// Server exposes the game service over REST and websockets.
type Server struct {
	r       *chi.Mux
	service *app.GameService
}

// NewServer installs middleware and registers routes. An empty jwtSecret
// disables bearer identity; every caller then plays as a guest.
func NewServer(service *app.GameService, jwtSecret string) *Server {
	s := &Server{r: chi.NewRouter(), service: service}
	ws := NewWSHandler(service)

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(withOptionalAuth([]byte(jwtSecret)))

	s.r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	// Websocket connections outlive any request timeout.
	s.r.Get("/ws", ws.ServeWS)

	s.r.Route("/api", func(api chi.Router) {
		api.Use(chimw.Timeout(10 * time.Second))
		api.Use(jsonContentType)

		api.Get("/categories", s.handleCategories)
		api.Post("/games", s.handleStart)
		api.Get("/games/{id}", s.handleGet)
		api.Delete("/games/{id}", s.handleEnd)
		api.Post("/games/{id}/guess", s.handleGuess)
		api.Post("/games/{id}/reveal", s.handleReveal)
		api.Post("/games/{id}/skip", s.handleSkip)
		api.Get("/leaderboard", s.handleLeaderboard)
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		writeJSON(w, http.StatusNotFound, errorPayload{Message: "not found"})
	})
	return s
}

// ServeHTTP lets Server be used directly as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

type startRequest struct {
	CategoryID string `json:"categoryId"`
	Mode       string `json:"mode"`
}

type guessRequest struct {
	Guess string `json:"guess"`
}

type revealRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type errorPayload struct {
	Message string `json:"error"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.Categories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid json"})
		return
	}
	mode, err := domain.ParseGameMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := s.service.Start(r.Context(), req.CategoryID, mode, userID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.End(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid json"})
		return
	}
	out, err := s.service.Guess(r.Context(), chi.URLParam(r, "id"), req.Guess)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req revealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid json"})
		return
	}
	view, err := s.service.RevealCell(r.Context(), chi.URLParam(r, "id"), req.X, req.Y, req.Width, req.Height)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Skip(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rawMode := q.Get("mode")
	if rawMode == "" {
		rawMode = string(domain.ModeClassic)
	}
	mode, err := domain.ParseGameMode(rawMode)
	if err != nil {
		writeError(w, err)
		return
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid limit"})
			return
		}
	}
	entries, err := s.service.Leaderboard(r.Context(), mode, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrGameNotFound), errors.Is(err, domain.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownMode), errors.Is(err, domain.ErrEmptyGuess),
		errors.Is(err, domain.ErrInvalidGrid), errors.Is(err, domain.ErrNoImages):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrGameFinished), errors.Is(err, domain.ErrClickRevealDisabled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		msg = "internal error"
	}
	writeJSON(w, status, errorPayload{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}
