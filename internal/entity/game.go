package entity

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/apperror"
)

type Phase string

const (
	PhaseAwaitingSecondPlayer Phase = "awaiting_second_player"
	PhaseReady                Phase = "ready"
	PhaseInProgress           Phase = "in_progress"
	PhaseGameOver             Phase = "game_over"
)

// Result says how a finished game ended.
type Result string

const (
	ResultWin     Result = "win"
	ResultDraw    Result = "draw"
	ResultResign  Result = "resign"
	ResultTimeout Result = "timeout"
)

const DefaultTimeControl = 360 * time.Second

type Seat struct {
	ID            string `json:"id"`
	TimeRemaining int    `json:"time_remaining"`
	RatingChange  *int   `json:"elo_change"`
}

type Game struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`

	Boards    [BoardSize]Board `json:"boards"`
	MetaBoard MetaBoard        `json:"meta_board"`

	CurrentPlayer Mark `json:"current_player"`
	NextBoard     *int `json:"next_board"`

	Phase       Phase  `json:"phase"`
	Started     bool   `json:"started"`
	GameOver    bool   `json:"game_over"`
	Winner      *Mark  `json:"winner"`
	Outcome     Result `json:"outcome,omitempty"`
	ForfeitedBy Mark   `json:"forfeited_by,omitempty"`
	Settled     bool   `json:"settled"`

	PlayerX Seat `json:"player_x"`
	PlayerO Seat `json:"player_o"`

	TimeControl int       `json:"time_control"`
	LastMoveAt  time.Time `json:"last_move_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MatchResult is what a finished game hands to rating settlement.
type MatchResult struct {
	GameID  string `json:"game_id"`
	PlayerX string `json:"player_x"`
	PlayerO string `json:"player_o"`
	Winner  Mark   `json:"winner"`
	Outcome Result `json:"outcome"`
}

// NewGame seats playerX and, if known, playerO. Without an O player the game waits for a second player.
func NewGame(id, playerX, playerO string, timeControl time.Duration, now time.Time) *Game {
	seconds := int(timeControl / time.Second)

	game := &Game{
		ID:            id,
		CurrentPlayer: PlayerX,
		Phase:         PhaseAwaitingSecondPlayer,
		PlayerX:       Seat{ID: playerX, TimeRemaining: seconds},
		PlayerO:       Seat{ID: playerO, TimeRemaining: seconds},
		TimeControl:   seconds,
		LastMoveAt:    now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if playerO != "" {
		game.Phase = PhaseReady
	}

	return game
}

func (that *Game) IsFinished() bool {
	return that.Phase == PhaseGameOver
}

func (that *Game) IsOngoing() bool {
	return that.Phase == PhaseInProgress
}

func (that *Game) IsWaiting() bool {
	return that.Phase == PhaseAwaitingSecondPlayer
}

// ConfirmOngoingState reports why a move cannot be made right now, if it cannot.
func (that *Game) ConfirmOngoingState() error {
	switch that.Phase {
	case PhaseInProgress:
		return nil
	case PhaseGameOver:
		return apperror.ErrGameAlreadyOver
	case PhaseAwaitingSecondPlayer, PhaseReady:
		return apperror.ErrGameIsNotStarted
	default:
		return fmt.Errorf("%w: unknown phase %q", apperror.ErrState, that.Phase)
	}
}

// Seat returns a pointer to the seat holding mark.
func (that *Game) Seat(mark Mark) *Seat {
	if mark == PlayerO {
		return &that.PlayerO
	}

	return &that.PlayerX
}

// MarkOf finds which seat playerID occupies.
func (that *Game) MarkOf(playerID string) (Mark, error) {
	switch {
	case playerID == "":
		return EmptyCell, apperror.ErrEmptyID
	case that.PlayerX.ID == playerID:
		return PlayerX, nil
	case that.PlayerO.ID == playerID:
		return PlayerO, nil
	default:
		return EmptyCell, apperror.ErrNotAPlayer
	}
}

// Touch bumps the version. Every successful mutation must call it exactly once.
func (that *Game) Touch(now time.Time) {
	that.Version++
	that.UpdatedAt = now
}

// Finish moves the game to its terminal phase.
func (that *Game) Finish(result Result, winner, forfeitedBy Mark, now time.Time) {
	that.Phase = PhaseGameOver
	that.GameOver = true
	that.Outcome = result
	that.ForfeitedBy = forfeitedBy
	that.NextBoard = nil
	that.CompletedAt = &now

	if winner.IsPlayer() {
		w := winner
		that.Winner = &w
	}
}

func (that *Game) Result() (MatchResult, error) {
	if !that.IsFinished() {
		return MatchResult{}, apperror.ErrGameNotFinished
	}

	result := MatchResult{
		GameID:  that.ID,
		PlayerX: that.PlayerX.ID,
		PlayerO: that.PlayerO.ID,
		Outcome: that.Outcome,
	}

	if that.Winner != nil {
		result.Winner = *that.Winner
	}

	return result, nil
}

// Clone returns a deep copy so callers never share state with the registry.
func (that *Game) Clone() *Game {
	clone := *that

	if that.NextBoard != nil {
		next := *that.NextBoard
		clone.NextBoard = &next
	}

	if that.Winner != nil {
		winner := *that.Winner
		clone.Winner = &winner
	}

	if that.CompletedAt != nil {
		completed := *that.CompletedAt
		clone.CompletedAt = &completed
	}

	clone.PlayerX.RatingChange = cloneInt(that.PlayerX.RatingChange)
	clone.PlayerO.RatingChange = cloneInt(that.PlayerO.RatingChange)

	return &clone
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}

	c := *v

	return &c
}

// GetRandomMarks shuffles two players onto the X and O seats.
func GetRandomMarks(first, second string) (string, string) {
	if rand.Intn(2) == 0 { //nolint: gosec // it's ok
		return first, second
	}
	return second, first
}
