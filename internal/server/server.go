// Package server exposes the matchmaking and ladder operations over a small
// JSON API. Handlers are thin adapters: validation failures map to 409,
// unknown ids to 404 and everything else to 500.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/l8smu/hsmrankedbot/internal/domain"
	"github.com/l8smu/hsmrankedbot/internal/service"

	"github.com/rs/zerolog"
)

type RankedServer struct {
	matchmaker *service.Matchmaker
	players    *service.PlayerService
	logger     zerolog.Logger
}

func NewRankedServer(matchmaker *service.Matchmaker, players *service.PlayerService, logger zerolog.Logger) *RankedServer {
	return &RankedServer{matchmaker: matchmaker, players: players, logger: logger}
}

// Register installs every route on the mux.
func (s *RankedServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /queue/join", s.handleQueueJoin)
	mux.HandleFunc("POST /queue/leave", s.handleQueueLeave)
	mux.HandleFunc("POST /queue/touch", s.handleQueueTouch)
	mux.HandleFunc("GET /queue", s.handleQueueStatus)
	mux.HandleFunc("POST /queue/next", s.handleQueueNext)
	mux.HandleFunc("POST /queue/clear", s.handleQueueClear)

	mux.HandleFunc("GET /matches/recent", s.handleRecentMatches)
	mux.HandleFunc("GET /matches/{id}", s.handleGetMatch)
	mux.HandleFunc("POST /matches/{id}/report", s.handleReportRequest)
	mux.HandleFunc("POST /matches/{id}/result", s.handleSubmitResult)
	mux.HandleFunc("POST /admin/matches/{id}/result", s.handleAdminResult)

	mux.HandleFunc("GET /players/{id}", s.handleGetPlayer)
	mux.HandleFunc("GET /leaderboard", s.handleLeaderboard)

	mux.HandleFunc("POST /admin/availability", s.handleSetAvailability)
	mux.HandleFunc("POST /admin/reset", s.handleReset)
	mux.HandleFunc("GET /health", s.handleHealth)
}

type playerRequest struct {
	PlayerID string `json:"player_id"`
}

type resultRequest struct {
	PlayerID string `json:"player_id"`
	Winner   string `json:"winner"`
}

func (s *RankedServer) handleQueueJoin(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !s.decode(w, r, &req) || !s.requirePlayer(w, req.PlayerID) {
		return
	}

	res, err := s.matchmaker.Join(r.Context(), req.PlayerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *RankedServer) handleQueueLeave(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !s.decode(w, r, &req) || !s.requirePlayer(w, req.PlayerID) {
		return
	}

	if err := s.matchmaker.Leave(r.Context(), req.PlayerID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

func (s *RankedServer) handleQueueTouch(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !s.decode(w, r, &req) || !s.requirePlayer(w, req.PlayerID) {
		return
	}

	s.matchmaker.Touch(req.PlayerID)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (s *RankedServer) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.matchmaker.QueueStatus())
}

func (s *RankedServer) handleQueueNext(w http.ResponseWriter, r *http.Request) {
	playerID, err := s.matchmaker.PopFront(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"player_id": playerID})
}

func (s *RankedServer) handleQueueClear(w http.ResponseWriter, r *http.Request) {
	removed := s.matchmaker.ClearQueue(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *RankedServer) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := s.matchID(w, r)
	if !ok {
		return
	}

	match, err := s.matchmaker.Match(r.Context(), matchID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, match)
}

func (s *RankedServer) handleRecentMatches(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			s.writeJSON(w, http.StatusConflict, errorBody("invalid limit"))
			return
		}
		limit = n
	}

	matches, err := s.matchmaker.RecentMatches(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (s *RankedServer) handleReportRequest(w http.ResponseWriter, r *http.Request) {
	matchID, ok := s.matchID(w, r)
	if !ok {
		return
	}
	var req playerRequest
	if !s.decode(w, r, &req) || !s.requirePlayer(w, req.PlayerID) {
		return
	}

	cl, err := s.matchmaker.RequestReport(r.Context(), req.PlayerID, matchID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cl)
}

func (s *RankedServer) handleSubmitResult(w http.ResponseWriter, r *http.Request) {
	matchID, ok := s.matchID(w, r)
	if !ok {
		return
	}
	var req resultRequest
	if !s.decode(w, r, &req) || !s.requirePlayer(w, req.PlayerID) {
		return
	}
	winner, err := domain.ParseWinner(req.Winner)
	if err != nil {
		s.writeJSON(w, http.StatusConflict, errorBody(err.Error()))
		return
	}

	res, err := s.matchmaker.SubmitResult(r.Context(), req.PlayerID, matchID, winner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *RankedServer) handleAdminResult(w http.ResponseWriter, r *http.Request) {
	matchID, ok := s.matchID(w, r)
	if !ok {
		return
	}
	var req resultRequest
	if !s.decode(w, r, &req) {
		return
	}
	winner, err := domain.ParseWinner(req.Winner)
	if err != nil {
		s.writeJSON(w, http.StatusConflict, errorBody(err.Error()))
		return
	}

	res, err := s.matchmaker.AdminSetResult(r.Context(), matchID, winner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *RankedServer) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID := r.PathValue("id")
	if playerID == "" {
		s.writeJSON(w, http.StatusConflict, errorBody("player id is required"))
		return
	}

	profile, err := s.players.GetProfile(r.Context(), playerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *RankedServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	result, err := s.players.GetLeaderboardPage(r.Context(), page, pageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *RankedServer) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	mode, err := domain.ParseAvailabilityMode(req.Mode)
	if err != nil {
		s.writeJSON(w, http.StatusConflict, errorBody(err.Error()))
		return
	}

	s.matchmaker.SetAvailability(mode)
	s.writeJSON(w, http.StatusOK, map[string]string{"mode": string(mode)})
}

func (s *RankedServer) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.players.ResetAllPlayers(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *RankedServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"mode":   string(s.matchmaker.Availability()),
	})
}

func (s *RankedServer) matchID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusConflict, errorBody("invalid match id"))
		return 0, false
	}
	return id, true
}

func (s *RankedServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusConflict, errorBody("invalid request body"))
		return false
	}
	return true
}

func (s *RankedServer) requirePlayer(w http.ResponseWriter, playerID string) bool {
	if playerID == "" {
		s.writeJSON(w, http.StatusConflict, errorBody("player_id is required"))
		return false
	}
	return true
}

func (s *RankedServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case service.IsNotFound(err):
		s.writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, domain.ErrUnavailable):
		s.writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
	case domain.IsValidation(err):
		s.writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		s.writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func (s *RankedServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write response")
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
