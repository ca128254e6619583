package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/entity"
)

var (
	ErrPlayerNotFound   = errors.New("player not found")
	ErrTooManyConflicts = errors.New("player records kept changing")
)

const (
	playerKeyPrefix  = "player:"
	maxApplyAttempts = 16
)

type PlayerRepository interface {
	CreateOrUpdate(ctx context.Context, player *entity.PlayerRecord) error
	GetByID(ctx context.Context, id string) (*entity.PlayerRecord, error)
	ApplyResults(ctx context.Context, defaultRating int, results ...entity.PlayerResult) error
}

type dbPlayer struct {
	client *redis.Client
}

func NewPlayerRepository(client *redis.Client) PlayerRepository {
	return &dbPlayer{
		client: client,
	}
}

func (that *dbPlayer) CreateOrUpdate(ctx context.Context, player *entity.PlayerRecord) error {
	playerJSON, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	if err = that.client.Set(ctx, playerKeyPrefix+player.ID, playerJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set player: %w", err)
	}

	return nil
}

func (that *dbPlayer) GetByID(ctx context.Context, id string) (*entity.PlayerRecord, error) {
	return getPlayer(ctx, that.client, id)
}

// ApplyResults adds each result to the stored record under WATCH, retrying
// when another settlement touched the same players in between. Unknown
// players start at defaultRating.
func (that *dbPlayer) ApplyResults(ctx context.Context, defaultRating int, results ...entity.PlayerResult) error {
	keys := make([]string, 0, len(results))
	for _, result := range results {
		keys = append(keys, playerKeyPrefix+result.PlayerID)
	}

	apply := func(tx *redis.Tx) error {
		players := make([]*entity.PlayerRecord, 0, len(results))

		for _, result := range results {
			player, err := getPlayer(ctx, tx, result.PlayerID)
			if errors.Is(err, ErrPlayerNotFound) {
				player = entity.NewPlayerRecord(result.PlayerID, defaultRating)
			} else if err != nil {
				return err
			}

			player.ApplyResult(result.Score, result.Delta)
			players = append(players, player)
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, player := range players {
				playerJSON, err := json.Marshal(player)
				if err != nil {
					return fmt.Errorf("failed to marshal player %s: %w", player.ID, err)
				}

				pipe.Set(ctx, playerKeyPrefix+player.ID, playerJSON, 0)
			}

			return nil
		})

		return err
	}

	for range maxApplyAttempts {
		err := that.client.Watch(ctx, apply, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		if err != nil {
			return fmt.Errorf("failed to apply results: %w", err)
		}

		return nil
	}

	return ErrTooManyConflicts
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getPlayer(ctx context.Context, client stringGetter, id string) (*entity.PlayerRecord, error) {
	response, err := client.Get(ctx, playerKeyPrefix+id).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrPlayerNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get player by ID: %w", err)
	}

	var existingPlayer entity.PlayerRecord
	if err = json.Unmarshal([]byte(response), &existingPlayer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %w", err)
	}

	return &existingPlayer, nil
}
