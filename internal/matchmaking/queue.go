package matchmaking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/entity"
)

const DefaultTTL = 30 * time.Second

type Status string

const (
	StatusWaiting           Status = "waiting"
	StatusWaitingAcceptance Status = "waiting_acceptance"
	StatusMatched           Status = "matched"
	StatusNotFound          Status = "not_found"
)

// Ticket is what a polling client learns about its place in matchmaking.
type Ticket struct {
	Status     Status `json:"status"`
	GameID     string `json:"game_id,omitempty"`
	OpponentID string `json:"opponent_id,omitempty"`
}

// GameCreator creates the game for a freshly paired couple. It is called with
// the queue lock held and must not block on I/O.
type GameCreator interface {
	CreateGame(playerX, playerO string) (string, error)
}

type entry struct {
	playerID   string
	enqueuedAt time.Time
	lastSeenAt time.Time
}

// pendingMatch is shared by both players until each of them has observed the commit.
type pendingMatch struct {
	gameID   string
	players  [2]string
	accepted [2]bool
	lastSeen [2]time.Time
}

func (that *pendingMatch) side(playerID string) int {
	if that.players[0] == playerID {
		return 0
	}

	return 1
}

func (that *pendingMatch) committed() bool {
	return that.accepted[0] && that.accepted[1]
}

// expired is true as soon as either side stopped pinging for a full TTL.
func (that *pendingMatch) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(that.lastSeen[0]) >= ttl || now.Sub(that.lastSeen[1]) >= ttl
}

type Queue struct {
	logger *slog.Logger

	mu      sync.Mutex
	waiting map[string]*entry
	pending map[string]*pendingMatch

	creator GameCreator
	ttl     time.Duration
	now     func() time.Time
	shuffle func(first, second string) (string, string)
}

type Option func(*Queue)

func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		q.now = now
	}
}

// WithShuffle replaces the random X/O assignment.
func WithShuffle(shuffle func(first, second string) (string, string)) Option {
	return func(q *Queue) {
		q.shuffle = shuffle
	}
}

func NewQueue(logger *slog.Logger, creator GameCreator, ttl time.Duration, opts ...Option) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	queue := &Queue{
		logger:  logger.With("component", "matchmaking"),
		waiting: make(map[string]*entry),
		pending: make(map[string]*pendingMatch),
		creator: creator,
		ttl:     ttl,
		now:     time.Now,
		shuffle: entity.GetRandomMarks,
	}

	for _, opt := range opts {
		opt(queue)
	}

	return queue
}

// Join puts the player in the waiting set, or refreshes an existing live entry.
func (that *Queue) Join(playerID string) (Ticket, error) {
	if playerID == "" {
		return Ticket{}, apperror.ErrEmptyID
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	now := that.now()

	if e := that.liveEntryLocked(playerID, now); e != nil {
		e.lastSeenAt = now
		return Ticket{Status: StatusWaiting}, nil
	}

	if match, ok := that.pending[playerID]; ok {
		that.dropMatchLocked(match)
	}

	that.waiting[playerID] = &entry{
		playerID:   playerID,
		enqueuedAt: now,
		lastSeenAt: now,
	}
	that.logger.Info("player joined matchmaking", "player_id", playerID)

	that.pairLocked(now)

	return Ticket{Status: StatusWaiting}, nil
}

// Ping keeps the player alive and, once paired, accepts the match on the player's behalf.
func (that *Queue) Ping(playerID string) (Ticket, error) {
	if playerID == "" {
		return Ticket{}, apperror.ErrEmptyID
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	now := that.now()

	if e := that.liveEntryLocked(playerID, now); e != nil {
		e.lastSeenAt = now
		that.pairLocked(now)

		if _, paired := that.pending[playerID]; !paired {
			return Ticket{Status: StatusWaiting}, nil
		}
	}

	match := that.liveMatchLocked(playerID, now)
	if match == nil {
		return Ticket{Status: StatusNotFound}, nil
	}

	side := match.side(playerID)
	match.accepted[side] = true
	match.lastSeen[side] = now

	opponentID := match.players[1-side]

	if !match.committed() {
		return Ticket{Status: StatusWaitingAcceptance, OpponentID: opponentID}, nil
	}

	// each side releases its own reference once it has seen the commit
	delete(that.pending, playerID)
	that.logger.Info("match committed", "player_id", playerID, "game_id", match.gameID)

	return Ticket{Status: StatusMatched, GameID: match.gameID, OpponentID: opponentID}, nil
}

// Cancel removes the player from the waiting set and collapses a pending match for both sides.
func (that *Queue) Cancel(playerID string) error {
	if playerID == "" {
		return apperror.ErrEmptyID
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	now := that.now()
	removed := false

	if that.liveEntryLocked(playerID, now) != nil {
		delete(that.waiting, playerID)
		removed = true
	}

	if match := that.liveMatchLocked(playerID, now); match != nil {
		that.dropMatchLocked(match)
		removed = true
	}

	if !removed {
		return fmt.Errorf("%w: %s", apperror.ErrPlayerNotInQueue, playerID)
	}

	that.logger.Info("player left matchmaking", "player_id", playerID)

	return nil
}

// Len reports live waiting entries and live pending players.
func (that *Queue) Len() (int, int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.sweepLocked(that.now())

	return len(that.waiting), len(that.pending)
}

// Sweep drops every expired record. Expiry is also checked lazily on access,
// so this only keeps memory bounded.
func (that *Queue) Sweep() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.sweepLocked(that.now())
}

// Run sweeps periodically until ctx is done.
func (that *Queue) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = that.ttl
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := that.Sweep(); n > 0 {
				that.logger.Debug("expired matchmaking records", "count", n)
			}
		}
	}
}

func (that *Queue) liveEntryLocked(playerID string, now time.Time) *entry {
	e, ok := that.waiting[playerID]
	if !ok {
		return nil
	}

	if now.Sub(e.lastSeenAt) >= that.ttl {
		delete(that.waiting, playerID)
		return nil
	}

	return e
}

func (that *Queue) liveMatchLocked(playerID string, now time.Time) *pendingMatch {
	match, ok := that.pending[playerID]
	if !ok {
		return nil
	}

	// a side that already saw the commit is gone from the map; its partner may still collect
	if !match.committed() && match.expired(now, that.ttl) {
		that.dropMatchLocked(match)
		return nil
	}

	if match.committed() && now.Sub(match.lastSeen[match.side(playerID)]) >= that.ttl {
		delete(that.pending, playerID)
		return nil
	}

	return match
}

func (that *Queue) dropMatchLocked(match *pendingMatch) {
	for _, id := range match.players {
		if that.pending[id] == match {
			delete(that.pending, id)
		}
	}
}

// pairLocked pairs the two longest-waiting live players until fewer than two remain.
func (that *Queue) pairLocked(now time.Time) {
	live := make([]*entry, 0, len(that.waiting))
	for id := range that.waiting {
		if e := that.liveEntryLocked(id, now); e != nil {
			live = append(live, e)
		}
	}

	if len(live) < 2 {
		return
	}

	sort.Slice(live, func(i, j int) bool {
		if live[i].enqueuedAt.Equal(live[j].enqueuedAt) {
			return live[i].playerID < live[j].playerID
		}
		return live[i].enqueuedAt.Before(live[j].enqueuedAt)
	})

	for i := 0; i+1 < len(live); i += 2 {
		first, second := live[i], live[i+1]
		playerX, playerO := that.shuffle(first.playerID, second.playerID)

		gameID, err := that.creator.CreateGame(playerX, playerO)
		if err != nil {
			that.logger.Error("failed to create matched game", "error", err, "player_x", playerX, "player_o", playerO)
			return
		}

		match := &pendingMatch{
			gameID:   gameID,
			players:  [2]string{first.playerID, second.playerID},
			lastSeen: [2]time.Time{now, now},
		}

		delete(that.waiting, first.playerID)
		delete(that.waiting, second.playerID)
		that.pending[first.playerID] = match
		that.pending[second.playerID] = match

		that.logger.Info("players paired", "game_id", gameID, "player_x", playerX, "player_o", playerO)
	}
}

func (that *Queue) sweepLocked(now time.Time) int {
	before := len(that.waiting) + len(that.pending)

	for id := range that.waiting {
		that.liveEntryLocked(id, now)
	}

	for id := range that.pending {
		that.liveMatchLocked(id, now)
	}

	return before - len(that.waiting) - len(that.pending)
}
