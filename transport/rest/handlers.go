package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/usecase"
)

const maxBodyBytes = 1 << 12

type playerRequest struct {
	PlayerID string `json:"player_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	logger *slog.Logger
	games  usecase.GameUseCase
}

func newHandlers(logger *slog.Logger, games usecase.GameUseCase) *handlers {
	return &handlers{
		logger: logger.With("component", "rest"),
		games:  games,
	}
}

func (that *handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write pong", "error", err)
	}
}

func (that *handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := that.games.Stats(r.Context())
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, stats)
}

func (that *handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.games.CreateOrFetchGame(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) CreateGame(w http.ResponseWriter, r *http.Request) {
	playerID, err := readPlayerID(w, r)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	game, err := that.games.CreateGame(r.Context(), playerID)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, game)
}

func (that *handlers) JoinGame(w http.ResponseWriter, r *http.Request) {
	playerID, err := readPlayerID(w, r)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	game, err := that.games.JoinGame(r.Context(), r.PathValue("id"), playerID)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) SignalReady(w http.ResponseWriter, r *http.Request) {
	playerID, err := readPlayerID(w, r)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	game, err := that.games.SignalReady(r.Context(), r.PathValue("id"), playerID)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) ApplyMove(w http.ResponseWriter, r *http.Request) {
	board, err := pathIndex(r, "board")
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	cell, err := pathIndex(r, "cell")
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	playerID, err := readPlayerID(w, r)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	game, err := that.games.ApplyMove(r.Context(), r.PathValue("id"), playerID, board, cell)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) Resign(w http.ResponseWriter, r *http.Request) {
	playerID, err := readPlayerID(w, r)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	game, err := that.games.Resign(r.Context(), r.PathValue("id"), playerID)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) ClaimTimeout(w http.ResponseWriter, r *http.Request) {
	playerID, err := readPlayerID(w, r)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	game, err := that.games.ClaimTimeout(r.Context(), r.PathValue("id"), playerID)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *handlers) GetPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := that.games.GetOrCreatePlayer(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, player)
}

func (that *handlers) MatchmakingJoin(w http.ResponseWriter, r *http.Request) {
	playerID, err := readPlayerID(w, r)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	ticket, err := that.games.MatchmakingJoin(r.Context(), playerID)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, ticket)
}

func (that *handlers) MatchmakingPing(w http.ResponseWriter, r *http.Request) {
	playerID, err := readPlayerID(w, r)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	ticket, err := that.games.MatchmakingPing(r.Context(), playerID)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, ticket)
}

func (that *handlers) MatchmakingCancel(w http.ResponseWriter, r *http.Request) {
	playerID, err := readPlayerID(w, r)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	if err = that.games.MatchmakingCancel(r.Context(), playerID); err != nil {
		that.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)

	log := that.logger.With("method", r.Method, "path", r.URL.Path)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
		that.writeJSON(w, status, errorResponse{Error: "internal server error"})

		return
	}

	log.Debug("request rejected", "status", status, "error", err)
	that.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusOf maps the error taxonomy onto HTTP statuses. Specific errors are checked before their categories.
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound), errors.Is(err, apperror.ErrPlayerNotInQueue):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrNotAPlayer), errors.Is(err, apperror.ErrReadyByWrongPlayer):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrTurn):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrState), errors.Is(err, apperror.ErrMatchmaking):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func readPlayerID(w http.ResponseWriter, r *http.Request) (string, error) {
	var request playerRequest

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&request); err != nil {
		return "", fmt.Errorf("%w: malformed body: %w", apperror.ErrValidation, err)
	}

	if request.PlayerID == "" {
		return "", apperror.ErrEmptyID
	}

	return request.PlayerID, nil
}

func pathIndex(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", apperror.ErrValidation, name, raw)
	}

	return value, nil
}
