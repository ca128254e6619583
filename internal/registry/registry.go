package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/entity"
	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/tictactoe"
)

const DefaultRetention = time.Hour

type slot struct {
	mu      sync.Mutex
	game    *entity.Game
	removed bool
}

// Registry owns every live game. Each game is guarded by its own mutex, so
// games never block each other. Callers only ever see deep copies.
type Registry struct {
	logger *slog.Logger

	mu    sync.RWMutex
	games map[string]*slot

	timeControl time.Duration
	retention   time.Duration
	now         func() time.Time
	newID       func() string
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) {
		r.newID = newID
	}
}

func WithRetention(retention time.Duration) Option {
	return func(r *Registry) {
		if retention > 0 {
			r.retention = retention
		}
	}
}

func New(logger *slog.Logger, timeControl time.Duration, opts ...Option) *Registry {
	if timeControl <= 0 {
		timeControl = entity.DefaultTimeControl
	}

	registry := &Registry{
		logger:      logger.With("component", "registry"),
		games:       make(map[string]*slot),
		timeControl: timeControl,
		retention:   DefaultRetention,
		now:         time.Now,
		newID:       uuid.NewString,
	}

	for _, opt := range opts {
		opt(registry)
	}

	return registry
}

// Create registers a new game with playerX seated. An empty playerO leaves
// the game open for an invited second player.
func (that *Registry) Create(playerX, playerO string) (*entity.Game, error) {
	if playerX == "" {
		return nil, apperror.ErrEmptyID
	}

	game := entity.NewGame(that.newID(), playerX, playerO, that.timeControl, that.now())

	that.mu.Lock()
	that.games[game.ID] = &slot{game: game}
	that.mu.Unlock()

	that.logger.Info("game created", "game_id", game.ID, "player_x", playerX, "player_o", playerO)

	return game.Clone(), nil
}

// CreateGame creates a game for two matched players and returns its id.
func (that *Registry) CreateGame(playerX, playerO string) (string, error) {
	if playerO == "" {
		return "", apperror.ErrEmptyID
	}

	game, err := that.Create(playerX, playerO)
	if err != nil {
		return "", err
	}

	return game.ID, nil
}

func (that *Registry) Get(id string) (*entity.Game, error) {
	s, err := that.slot(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removed {
		return nil, notFound(id)
	}

	return s.game.Clone(), nil
}

// Adopt stores a game loaded from persistence unless the registry already
// holds it, and returns whichever copy is now live.
func (that *Registry) Adopt(game *entity.Game) *entity.Game {
	that.mu.Lock()
	s, ok := that.games[game.ID]
	if !ok {
		s = &slot{game: game.Clone()}
		that.games[game.ID] = s
	}
	that.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.game.Clone()
}

func (that *Registry) Join(id, playerID string) (*entity.Game, error) {
	return that.update(id, func(game *entity.Game, now time.Time) error {
		return tictactoe.Join(game, playerID, now)
	})
}

func (that *Registry) Start(id, playerID string) (*entity.Game, error) {
	return that.update(id, func(game *entity.Game, now time.Time) error {
		return tictactoe.Start(game, playerID, now)
	})
}

func (that *Registry) ApplyMove(id, playerID string, move entity.Move) (*entity.Game, error) {
	return that.update(id, func(game *entity.Game, now time.Time) error {
		mark, err := game.MarkOf(playerID)
		if err != nil {
			return err
		}

		return tictactoe.MakeTurn(game, mark, move, now)
	})
}

func (that *Registry) Resign(id, playerID string) (*entity.Game, error) {
	return that.update(id, func(game *entity.Game, now time.Time) error {
		mark, err := game.MarkOf(playerID)
		if err != nil {
			return err
		}

		return tictactoe.Resign(game, mark, now)
	})
}

func (that *Registry) ClaimTimeout(id, playerID string) (*entity.Game, error) {
	return that.update(id, func(game *entity.Game, now time.Time) error {
		mark, err := game.MarkOf(playerID)
		if err != nil {
			return err
		}

		return tictactoe.ClaimTimeout(game, mark, now)
	})
}

// MarkSettled records the rating changes of a finished game. It succeeds once per game.
func (that *Registry) MarkSettled(id string, deltaX, deltaO int) (*entity.Game, error) {
	return that.update(id, func(game *entity.Game, now time.Time) error {
		if !game.IsFinished() {
			return apperror.ErrGameNotFinished
		}

		if game.Settled {
			return apperror.ErrAlreadySettled
		}

		game.Settled = true
		game.PlayerX.RatingChange = &deltaX
		game.PlayerO.RatingChange = &deltaO
		game.Touch(now)

		return nil
	})
}

func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.games)
}

// Sweep drops games that finished, or saw no activity, at least one retention
// period ago, and returns the dropped games.
func (that *Registry) Sweep() []*entity.Game {
	now := that.now()

	that.mu.Lock()
	defer that.mu.Unlock()

	var evicted []*entity.Game

	for id, s := range that.games {
		s.mu.Lock()

		last := s.game.UpdatedAt
		if s.game.IsFinished() && s.game.CompletedAt != nil {
			last = *s.game.CompletedAt
		}

		if now.Sub(last) >= that.retention {
			s.removed = true
			delete(that.games, id)
			evicted = append(evicted, s.game.Clone())
		}

		s.mu.Unlock()
	}

	return evicted
}

// EvictFunc receives the games dropped by one sweep.
type EvictFunc func(ctx context.Context, evicted []*entity.Game)

// Run sweeps periodically until ctx is done. onEvict may be nil.
func (that *Registry) Run(ctx context.Context, interval time.Duration, onEvict EvictFunc) {
	if interval <= 0 {
		interval = that.retention
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := that.Sweep()
			if len(evicted) == 0 {
				continue
			}

			that.logger.Info("dropped stale games", "count", len(evicted))

			if onEvict != nil {
				onEvict(ctx, evicted)
			}
		}
	}
}

func (that *Registry) slot(id string) (*slot, error) {
	if id == "" {
		return nil, apperror.ErrEmptyID
	}

	that.mu.RLock()
	s, ok := that.games[id]
	that.mu.RUnlock()

	if !ok {
		return nil, notFound(id)
	}

	return s, nil
}

// update runs fn on a working copy and publishes it only if fn succeeds,
// so a rejected call never leaves a half-applied game behind.
func (that *Registry) update(id string, fn func(game *entity.Game, now time.Time) error) (*entity.Game, error) {
	s, err := that.slot(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.removed {
		return nil, notFound(id)
	}

	working := s.game.Clone()
	if err = fn(working, that.now()); err != nil {
		return nil, err
	}

	s.game = working

	return working.Clone(), nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", apperror.ErrGameNotFound, id)
}
