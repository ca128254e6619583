package usecase

import (
	"context"

	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/entity"
	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/matchmaking"
)

// GameUseCase is everything a transport needs to drive games and matchmaking.
type GameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.PlayerRecord, error)

	CreateOrFetchGame(ctx context.Context, gameID string) (*entity.Game, error)
	CreateGame(ctx context.Context, playerID string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)

	ApplyMove(ctx context.Context, gameID, playerID string, board, cell int) (*entity.Game, error)
	Resign(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	SignalReady(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	ClaimTimeout(ctx context.Context, gameID, playerID string) (*entity.Game, error)

	MatchmakingJoin(ctx context.Context, playerID string) (matchmaking.Ticket, error)
	MatchmakingPing(ctx context.Context, playerID string) (matchmaking.Ticket, error)
	MatchmakingCancel(ctx context.Context, playerID string) error

	Stats(ctx context.Context) (entity.Stats, error)
}

var _ GameUseCase = (*GameManager)(nil)
