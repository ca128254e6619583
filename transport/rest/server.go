package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/usecase"
)

type Server struct {
	logger *slog.Logger
	srv    *http.Server
}

func New(logger *slog.Logger, port string, games usecase.GameUseCase) *Server {
	h := newHandlers(logger, games)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", h.Ping)
	mux.HandleFunc("GET /stats", h.Stats)

	mux.HandleFunc("POST /games", h.CreateGame)
	mux.HandleFunc("GET /games/{id}", h.GetGame)
	mux.HandleFunc("POST /games/{id}/join", h.JoinGame)
	mux.HandleFunc("POST /games/{id}/ready", h.SignalReady)
	mux.HandleFunc("POST /games/{id}/move/{board}/{cell}", h.ApplyMove)
	mux.HandleFunc("POST /games/{id}/resign", h.Resign)
	mux.HandleFunc("POST /games/{id}/timeout", h.ClaimTimeout)

	mux.HandleFunc("GET /players/{id}", h.GetPlayer)

	mux.HandleFunc("POST /matchmaking/join", h.MatchmakingJoin)
	mux.HandleFunc("POST /matchmaking/ping", h.MatchmakingPing)
	mux.HandleFunc("POST /matchmaking/cancel", h.MatchmakingCancel)

	return &Server{
		logger: logger.With("component", "rest"),
		srv: &http.Server{
			Addr:         ":" + port,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
	}
}

func (that *Server) Handler() http.Handler {
	return that.srv.Handler
}

// Start blocks until the server stops. A graceful shutdown is not an error.
func (that *Server) Start() error {
	that.logger.Info("starting HTTP server", "addr", that.srv.Addr)

	if err := that.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) Shutdown(ctx context.Context) error {
	if err := that.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
