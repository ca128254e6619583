package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/entity"
	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/matchmaking"
	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/rating"
	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/repository"
)

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.PlayerRecord) error
	GetByID(ctx context.Context, id string) (*entity.PlayerRecord, error)
	ApplyResults(ctx context.Context, defaultRating int, results ...entity.PlayerResult) error
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

type statsRepo interface {
	RecordGame(ctx context.Context, game *entity.Game) error
	Stats(ctx context.Context, now time.Time) (entity.Stats, error)
}

type gameRegistry interface {
	Create(playerX, playerO string) (*entity.Game, error)
	Get(id string) (*entity.Game, error)
	Adopt(game *entity.Game) *entity.Game
	Join(id, playerID string) (*entity.Game, error)
	Start(id, playerID string) (*entity.Game, error)
	ApplyMove(id, playerID string, move entity.Move) (*entity.Game, error)
	Resign(id, playerID string) (*entity.Game, error)
	ClaimTimeout(id, playerID string) (*entity.Game, error)
	MarkSettled(id string, deltaX, deltaO int) (*entity.Game, error)
	Len() int
}

type matchmaker interface {
	Join(playerID string) (matchmaking.Ticket, error)
	Ping(playerID string) (matchmaking.Ticket, error)
	Cancel(playerID string) error
	Len() (int, int)
}

// GameManager is the entry point for every external operation. The registry
// and the queue own the live state; Redis only ever receives snapshots.
type GameManager struct {
	logger *slog.Logger

	playerRepo playerRepo
	gameRepo   gameRepo
	statsRepo  statsRepo

	games gameRegistry
	queue matchmaker

	calculator    *rating.Calculator
	defaultRating int
}

func NewGameManager(
	logger *slog.Logger,
	playerRepo playerRepo,
	gameRepo gameRepo,
	statsRepo statsRepo,
	games gameRegistry,
	queue matchmaker,
	calculator *rating.Calculator,
	defaultRating int,
) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		playerRepo: playerRepo,
		gameRepo:   gameRepo,
		statsRepo:  statsRepo,

		games: games,
		queue: queue,

		calculator:    calculator,
		defaultRating: defaultRating,
	}
}

// CreateOrFetchGame returns the live game, falling back to the stored snapshot.
// A finished game whose ratings were never applied is settled on the way out.
func (that *GameManager) CreateOrFetchGame(ctx context.Context, gameID string) (*entity.Game, error) {
	game, err := that.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if game.IsFinished() && !game.Settled {
		game = that.settle(ctx, game)
		that.saveGame(ctx, game)
	}

	return game, nil
}

func (that *GameManager) loadGame(ctx context.Context, gameID string) (*entity.Game, error) {
	game, err := that.games.Get(gameID)
	if err == nil {
		return game, nil
	}

	if !errors.Is(err, apperror.ErrGameNotFound) {
		return nil, err
	}

	stored, err := that.gameRepo.GetByID(ctx, gameID)
	if errors.Is(err, repository.ErrGameNotFound) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrGameNotFound, gameID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return that.games.Adopt(stored), nil
}

// CreateGame opens an invite game with the caller seated as X.
func (that *GameManager) CreateGame(ctx context.Context, playerID string) (*entity.Game, error) {
	if _, err := that.GetOrCreatePlayer(ctx, playerID); err != nil {
		return nil, fmt.Errorf("failed to get or create player: %w", err)
	}

	game, err := that.games.Create(playerID, "")
	if err != nil {
		return nil, err
	}

	that.saveGame(ctx, game)
	that.recordGame(ctx, game)

	return game, nil
}

func (that *GameManager) JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	if _, err := that.CreateOrFetchGame(ctx, gameID); err != nil {
		return nil, err
	}

	if _, err := that.GetOrCreatePlayer(ctx, playerID); err != nil {
		return nil, fmt.Errorf("failed to get or create player: %w", err)
	}

	game, err := that.games.Join(gameID, playerID)
	if err != nil {
		return nil, err
	}

	that.saveGame(ctx, game)
	that.recordGame(ctx, game)

	return game, nil
}

func (that *GameManager) ApplyMove(ctx context.Context, gameID, playerID string, board, cell int) (*entity.Game, error) {
	move, err := entity.NewMove(board, cell)
	if err != nil {
		return nil, err
	}

	return that.mutate(ctx, gameID, func() (*entity.Game, error) {
		return that.games.ApplyMove(gameID, playerID, move)
	})
}

func (that *GameManager) Resign(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	return that.mutate(ctx, gameID, func() (*entity.Game, error) {
		return that.games.Resign(gameID, playerID)
	})
}

// SignalReady starts the clocks. Only the X player may call it.
func (that *GameManager) SignalReady(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	return that.mutate(ctx, gameID, func() (*entity.Game, error) {
		return that.games.Start(gameID, playerID)
	})
}

// ClaimTimeout ends the game when the opponent's clock ran out without them moving.
func (that *GameManager) ClaimTimeout(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	return that.mutate(ctx, gameID, func() (*entity.Game, error) {
		return that.games.ClaimTimeout(gameID, playerID)
	})
}

func (that *GameManager) MatchmakingJoin(ctx context.Context, playerID string) (matchmaking.Ticket, error) {
	if _, err := that.GetOrCreatePlayer(ctx, playerID); err != nil {
		return matchmaking.Ticket{}, fmt.Errorf("failed to get or create player: %w", err)
	}

	return that.queue.Join(playerID)
}

// MatchmakingPing keeps the player in the queue. The matched game is persisted
// the first time a player learns about it.
func (that *GameManager) MatchmakingPing(ctx context.Context, playerID string) (matchmaking.Ticket, error) {
	ticket, err := that.queue.Ping(playerID)
	if err != nil {
		return ticket, err
	}

	if ticket.Status == matchmaking.StatusMatched {
		game, err := that.games.Get(ticket.GameID)
		if err != nil {
			that.logger.With("method", "MatchmakingPing").Error("matched game is gone", "game_id", ticket.GameID, "error", err)
			return ticket, nil
		}

		that.saveGame(ctx, game)
		that.recordGame(ctx, game)
	}

	return ticket, nil
}

func (that *GameManager) MatchmakingCancel(_ context.Context, playerID string) error {
	return that.queue.Cancel(playerID)
}

// Stats combines the stored activity counters with the live queue and registry sizes.
func (that *GameManager) Stats(ctx context.Context) (entity.Stats, error) {
	stats, err := that.statsRepo.Stats(ctx, time.Now())
	if err != nil {
		return entity.Stats{}, fmt.Errorf("failed to get stats: %w", err)
	}

	waiting, pending := that.queue.Len()
	stats.PlayersInQueue = waiting + pending
	stats.ActiveGames = that.games.Len()

	return stats, nil
}

// DropAbandoned deletes the stored snapshots of unfinished games the registry
// evicted for inactivity. Finished games keep their snapshot until it expires.
func (that *GameManager) DropAbandoned(ctx context.Context, games []*entity.Game) {
	log := that.logger.With("method", "DropAbandoned")

	for _, game := range games {
		if game.IsFinished() {
			continue
		}

		err := that.gameRepo.DeleteByID(ctx, game.ID)
		switch {
		case err == nil:
			log.Info("abandoned game deleted", "game_id", game.ID)
		case errors.Is(err, repository.ErrGameNotFound):
		default:
			log.Error("failed to delete abandoned game", "game_id", game.ID, "error", err)
		}
	}
}

// SettleGame computes the rating changes of a finished game without touching any state.
func (that *GameManager) SettleGame(game *entity.Game, ratingX, ratingO int) (rating.Settlement, error) {
	result, err := game.Result()
	if err != nil {
		return rating.Settlement{}, err
	}

	return that.calculator.Settle(result, ratingX, ratingO), nil
}

// GetOrCreatePlayer loads the player record, creating one at the default rating for unknown ids.
func (that *GameManager) GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.PlayerRecord, error) {
	if playerID == "" {
		return nil, apperror.ErrEmptyID
	}

	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err == nil {
		return player, nil
	}

	if !errors.Is(err, repository.ErrPlayerNotFound) {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	player = entity.NewPlayerRecord(playerID, that.defaultRating)
	if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

// mutate makes sure the game is loaded, applies fn, persists the result and
// settles ratings if fn ended the game.
func (that *GameManager) mutate(ctx context.Context, gameID string, fn func() (*entity.Game, error)) (*entity.Game, error) {
	if _, err := that.CreateOrFetchGame(ctx, gameID); err != nil {
		return nil, err
	}

	game, err := fn()
	if err != nil {
		return nil, err
	}

	if game.IsFinished() && !game.Settled {
		game = that.settle(ctx, game)
	}

	that.saveGame(ctx, game)

	return game, nil
}

// settle applies the rating changes of a finished game exactly once. Failures
// are logged; the game result itself stands either way.
func (that *GameManager) settle(ctx context.Context, game *entity.Game) *entity.Game {
	log := that.logger.With("method", "settle", "game_id", game.ID)

	playerX, err := that.GetOrCreatePlayer(ctx, game.PlayerX.ID)
	if err != nil {
		log.Error("failed to load player x", "error", err)
		return game
	}

	playerO, err := that.GetOrCreatePlayer(ctx, game.PlayerO.ID)
	if err != nil {
		log.Error("failed to load player o", "error", err)
		return game
	}

	settlement, err := that.SettleGame(game, playerX.Rating, playerO.Rating)
	if err != nil {
		log.Error("failed to settle game", "error", err)
		return game
	}

	settled, err := that.games.MarkSettled(game.ID, settlement.DeltaX, settlement.DeltaO)
	if errors.Is(err, apperror.ErrAlreadySettled) {
		// a concurrent request got there first
		if current, getErr := that.games.Get(game.ID); getErr == nil {
			return current
		}

		return game
	}

	if err != nil {
		log.Error("failed to mark game settled", "error", err)
		return game
	}

	err = that.playerRepo.ApplyResults(ctx, that.defaultRating,
		entity.PlayerResult{PlayerID: playerX.ID, Score: settlement.ScoreX, Delta: settlement.DeltaX},
		entity.PlayerResult{PlayerID: playerO.ID, Score: settlement.ScoreO(), Delta: settlement.DeltaO},
	)
	if err != nil {
		log.Error("failed to save ratings", "error", err)
	}

	log.Info("game settled", "delta_x", settlement.DeltaX, "delta_o", settlement.DeltaO)

	return settled
}

func (that *GameManager) saveGame(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "saveGame", "game_id", game.ID)

	err := that.gameRepo.CreateOrUpdate(ctx, game)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrStaleVersion):
		log.Debug("newer snapshot already stored", "version", game.Version)
	default:
		log.Error("failed to save game", "error", err)
	}
}

func (that *GameManager) recordGame(ctx context.Context, game *entity.Game) {
	if err := that.statsRepo.RecordGame(ctx, game); err != nil {
		that.logger.With("method", "recordGame", "game_id", game.ID).Error("failed to record game", "error", err)
	}
}
