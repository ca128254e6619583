package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/entity"
)

const (
	statsGamesKey   = "stats:games"
	statsPlayersKey = "stats:players"

	GamesWindow   = 24 * time.Hour
	PlayersWindow = 7 * 24 * time.Hour
)

type StatsRepository interface {
	RecordGame(ctx context.Context, game *entity.Game) error
	Stats(ctx context.Context, now time.Time) (entity.Stats, error)
}

type dbStats struct {
	client *redis.Client
}

// NewStatsRepository keeps two sorted sets scored by game creation time:
// game ids, and player ids with the creation time of their latest game.
func NewStatsRepository(client *redis.Client) StatsRepository {
	return &dbStats{
		client: client,
	}
}

// RecordGame is idempotent, so it can run every time a seat is filled.
func (that *dbStats) RecordGame(ctx context.Context, game *entity.Game) error {
	score := float64(game.CreatedAt.Unix())
	cutoff := strconv.FormatInt(game.CreatedAt.Add(-PlayersWindow).Unix(), 10)

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, statsGamesKey, redis.Z{Score: score, Member: game.ID})

		for _, playerID := range []string{game.PlayerX.ID, game.PlayerO.ID} {
			if playerID != "" {
				pipe.ZAddGT(ctx, statsPlayersKey, redis.Z{Score: score, Member: playerID})
			}
		}

		pipe.ZRemRangeByScore(ctx, statsGamesKey, "-inf", "("+cutoff)
		pipe.ZRemRangeByScore(ctx, statsPlayersKey, "-inf", "("+cutoff)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record game: %w", err)
	}

	return nil
}

// Stats counts games created within GamesWindow of now and distinct players
// seated in a game created within PlayersWindow.
func (that *dbStats) Stats(ctx context.Context, now time.Time) (entity.Stats, error) {
	var games, players *redis.IntCmd

	_, err := that.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		games = pipe.ZCount(ctx, statsGamesKey, strconv.FormatInt(now.Add(-GamesWindow).Unix(), 10), "+inf")
		players = pipe.ZCount(ctx, statsPlayersKey, strconv.FormatInt(now.Add(-PlayersWindow).Unix(), 10), "+inf")

		return nil
	})
	if err != nil {
		return entity.Stats{}, fmt.Errorf("failed to count stats: %w", err)
	}

	return entity.Stats{
		GamesToday:    games.Val(),
		PlayersOnline: players.Val(),
	}, nil
}
