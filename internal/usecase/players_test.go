package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/entity"
	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/repository"
)

const readGateTimeout = time.Second

// memoryPlayers is an in-memory player store whose ApplyResults is atomic.
// Reads of gatedID are held until gateSize of them are in flight, so
// concurrent settlements all see the same starting rating.
type memoryPlayers struct {
	mu      sync.Mutex
	records map[string]entity.PlayerRecord

	gatedID  string
	gateSize int
	reads    int
	gate     chan struct{}
}

func newMemoryPlayers(gatedID string, gateSize int, records ...*entity.PlayerRecord) *memoryPlayers {
	players := &memoryPlayers{
		records:  make(map[string]entity.PlayerRecord, len(records)),
		gatedID:  gatedID,
		gateSize: gateSize,
		gate:     make(chan struct{}),
	}

	for _, record := range records {
		players.records[record.ID] = *record
	}

	return players
}

func (that *memoryPlayers) CreateOrUpdate(_ context.Context, player *entity.PlayerRecord) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.records[player.ID] = *player

	return nil
}

func (that *memoryPlayers) GetByID(_ context.Context, id string) (*entity.PlayerRecord, error) {
	that.mu.Lock()
	record, ok := that.records[id]

	gated := id == that.gatedID
	if gated {
		that.reads++
		if that.reads == that.gateSize {
			close(that.gate)
		}
	}
	that.mu.Unlock()

	if gated {
		select {
		case <-that.gate:
		case <-time.After(readGateTimeout):
		}
	}

	if !ok {
		return nil, repository.ErrPlayerNotFound
	}

	return &record, nil
}

func (that *memoryPlayers) ApplyResults(_ context.Context, defaultRating int, results ...entity.PlayerResult) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, result := range results {
		record, ok := that.records[result.PlayerID]
		if !ok {
			record = *entity.NewPlayerRecord(result.PlayerID, defaultRating)
		}

		record.ApplyResult(result.Score, result.Delta)
		that.records[result.PlayerID] = record
	}

	return nil
}

func (that *memoryPlayers) record(id string) entity.PlayerRecord {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.records[id]
}
