package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/codm-arena/arena-hub/config"
	"github.com/codm-arena/arena-hub/internal/application/command"
	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HTTP SERVER
// ══════════════════════════════════════════════════════════════════════════════

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients don't send Origin.
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// Server exposes the gateway over HTTP.
type Server struct {
	hub  *Hub
	http *http.Server
	log  *logger.Logger
}

// NewServer creates the gateway HTTP server around a hub.
func NewServer(cfg config.ChatConfig, hub *Hub, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	s := &Server{
		hub: hub,
		log: log.With(logger.Component("ws_server")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/admin/rating", s.handleAdminAdjustRating)
	mux.HandleFunc("/admin/counters", s.handleAdminCounters)

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WriteTimeout + 5*time.Second,
	}
	return s
}

// Start serves until Shutdown. Blocks.
func (s *Server) Start() error {
	s.log.Info("gateway listening", logger.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains connections gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// handleWebSocket upgrades the connection and binds it to the player named
// by the session. Identity comes from the platform's session layer upstream
// of this service; here it is read from query parameters the proxy injects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		http.Error(w, "missing or invalid user_id", http.StatusBadRequest)
		return
	}
	username := r.URL.Query().Get("username")
	if username == "" {
		username = "player-" + strconv.FormatInt(userID, 10)
	}

	// First contact enrolls the player in the rating system; repeat
	// connections are a no-op.
	if s.hub.services != nil && s.hub.services.Register != nil {
		_, err := s.hub.services.Register.Execute(r.Context(), command.RegisterPlayerCommand{
			UserID:   rating.UserID(userID),
			Username: username,
		})
		if err != nil {
			s.log.Warn("player registration failed", logger.UserID(userID), logger.Err(err))
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", logger.Err(err))
		return
	}

	client := newClient(s.hub, conn, userID, username)
	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// ─────────────────────────────────────────────────────────────────────────────
// Admin endpoints
// These sit behind the platform's internal network; they carry no auth of
// their own.
// ─────────────────────────────────────────────────────────────────────────────

type adminAdjustRequest struct {
	UserID    int64  `json:"user_id"`
	NewRating int    `json:"new_rating"`
	RelatedID string `json:"related_id"`
}

type adminCountersRequest struct {
	UserID            int64 `json:"user_id"`
	MatchesPlayed     int   `json:"matches_played"`
	MatchesWon        int   `json:"matches_won"`
	TournamentsPlayed int   `json:"tournaments_played"`
	TournamentsWon    int   `json:"tournaments_won"`
}

// handleAdminAdjustRating sets a player's rating by hand.
func (s *Server) handleAdminAdjustRating(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.hub.services == nil || s.hub.services.Adjust == nil {
		http.Error(w, "not available", http.StatusServiceUnavailable)
		return
	}

	var req adminAdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}

	transition, err := s.hub.services.Adjust.Execute(r.Context(), command.AdjustRatingCommand{
		UserID:    rating.UserID(req.UserID),
		NewRating: req.NewRating,
		RelatedID: req.RelatedID,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(transition)
}

// handleAdminCounters bumps a player's stat counters.
func (s *Server) handleAdminCounters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.hub.services == nil || s.hub.services.Counters == nil {
		http.Error(w, "not available", http.StatusServiceUnavailable)
		return
	}

	var req adminCountersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}

	err := s.hub.services.Counters.Execute(r.Context(), command.IncrementCountersCommand{
		UserID: rating.UserID(req.UserID),
		Delta: rating.CounterDelta{
			MatchesPlayed:     req.MatchesPlayed,
			MatchesWon:        req.MatchesWon,
			TournamentsPlayed: req.TournamentsPlayed,
			TournamentsWon:    req.TournamentsWon,
		},
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
