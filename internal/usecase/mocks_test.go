package usecase

import (
	"context"
	"time"

	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/entity"
	"github.com/stretchr/testify/mock"
)

type mockPlayerRepo struct {
	mock.Mock
}

func (that *mockPlayerRepo) CreateOrUpdate(ctx context.Context, player *entity.PlayerRecord) error {
	args := that.Called(ctx, player)
	return args.Error(0)
}

func (that *mockPlayerRepo) GetByID(ctx context.Context, id string) (*entity.PlayerRecord, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.PlayerRecord)
	return player, args.Error(1)
}

func (that *mockPlayerRepo) ApplyResults(ctx context.Context, defaultRating int, results ...entity.PlayerResult) error {
	args := that.Called(ctx, defaultRating, results)
	return args.Error(0)
}

type mockGameRepo struct {
	mock.Mock
}

func (that *mockGameRepo) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	args := that.Called(ctx, game)
	return args.Error(0)
}

func (that *mockGameRepo) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

type mockStatsRepo struct {
	mock.Mock
}

func (that *mockStatsRepo) RecordGame(ctx context.Context, game *entity.Game) error {
	args := that.Called(ctx, game)
	return args.Error(0)
}

func (that *mockStatsRepo) Stats(ctx context.Context, now time.Time) (entity.Stats, error) {
	args := that.Called(ctx, now)
	stats, _ := args.Get(0).(entity.Stats)
	return stats, args.Error(1)
}
