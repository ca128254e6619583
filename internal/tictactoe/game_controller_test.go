package tictactoe

import (
	"testing"
	"time"

	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newStartedGame(t *testing.T) *entity.Game {
	t.Helper()

	game := entity.NewGame("123", "alice", "bob", entity.DefaultTimeControl, t0)
	require.NoError(t, Start(game, "alice", t0))

	return game
}

func move(t *testing.T, board, cell int) entity.Move {
	t.Helper()

	m, err := entity.NewMove(board, cell)
	require.NoError(t, err)

	return m
}

func TestJoin(t *testing.T) {
	t.Run("Second player takes the O seat", func(t *testing.T) {
		// Given: an invite game
		game := entity.NewGame("123", "alice", "", entity.DefaultTimeControl, t0)

		// When: bob joins
		err := Join(game, "bob", t0)

		// Then: bob is O and the game is ready
		require.NoError(t, err)
		assert.Equal(t, "bob", game.PlayerO.ID)
		assert.Equal(t, entity.PhaseReady, game.Phase)
	})

	t.Run("Joining again is a no-op", func(t *testing.T) {
		game := entity.NewGame("123", "alice", "bob", entity.DefaultTimeControl, t0)
		version := game.Version

		require.NoError(t, Join(game, "alice", t0))
		assert.Equal(t, version, game.Version)
	})

	t.Run("A third player cannot join", func(t *testing.T) {
		game := entity.NewGame("123", "alice", "bob", entity.DefaultTimeControl, t0)

		assert.ErrorIs(t, Join(game, "carol", t0), apperror.ErrGameFull)
	})
}

func TestStart(t *testing.T) {
	t.Run("Only X can signal ready", func(t *testing.T) {
		// Given: a ready game
		game := entity.NewGame("123", "alice", "bob", entity.DefaultTimeControl, t0)

		// When: O signals ready
		err := Start(game, "bob", t0)

		// Then: the game does not start
		require.ErrorIs(t, err, apperror.ErrReadyByWrongPlayer)
		assert.Equal(t, entity.PhaseReady, game.Phase)
		assert.False(t, game.Started)
	})

	t.Run("X starts the clock", func(t *testing.T) {
		game := entity.NewGame("123", "alice", "bob", entity.DefaultTimeControl, t0)

		require.NoError(t, Start(game, "alice", t0))

		assert.Equal(t, entity.PhaseInProgress, game.Phase)
		assert.True(t, game.Started)
		assert.Equal(t, t0, game.LastMoveAt)
		assert.Equal(t, 360, game.PlayerX.TimeRemaining)
		assert.Equal(t, 360, game.PlayerO.TimeRemaining)
	})

	t.Run("Repeated ready does not reset the clock", func(t *testing.T) {
		game := newStartedGame(t)

		require.NoError(t, Start(game, "alice", t0.Add(30*time.Second)))

		assert.Equal(t, t0, game.LastMoveAt)
	})

	t.Run("Cannot start without a second player", func(t *testing.T) {
		game := entity.NewGame("123", "alice", "", entity.DefaultTimeControl, t0)

		assert.ErrorIs(t, Start(game, "alice", t0), apperror.ErrGameNotReady)
	})

	t.Run("Strangers cannot start the game", func(t *testing.T) {
		game := entity.NewGame("123", "alice", "bob", entity.DefaultTimeControl, t0)

		assert.ErrorIs(t, Start(game, "mallory", t0), apperror.ErrNotAPlayer)
	})
}

func TestMakeTurn(t *testing.T) {
	t.Run("First move sends the opponent to the matching board", func(t *testing.T) {
		// Given: an empty started game
		game := newStartedGame(t)

		// When: X plays cell 4 of board 0
		err := MakeTurn(game, entity.PlayerX, move(t, 0, 4), t0.Add(5*time.Second))

		// Then: O must play in board 4
		require.NoError(t, err)
		require.NotNil(t, game.NextBoard)
		assert.Equal(t, 4, *game.NextBoard)
		assert.Equal(t, entity.PlayerO, game.CurrentPlayer)
		assert.Equal(t, entity.PlayerX, game.Boards[0][4])
		assert.Equal(t, 355, game.PlayerX.TimeRemaining)
		assert.Equal(t, 360, game.PlayerO.TimeRemaining)
		assert.Equal(t, t0.Add(5*time.Second), game.LastMoveAt)

		// And: O is held to board 4
		err = MakeTurn(game, entity.PlayerO, move(t, 3, 0), t0.Add(6*time.Second))
		require.ErrorIs(t, err, apperror.ErrWrongBoard)
		require.NoError(t, MakeTurn(game, entity.PlayerO, move(t, 4, 0), t0.Add(6*time.Second)))
	})

	t.Run("Error on playing out of turn", func(t *testing.T) {
		game := newStartedGame(t)
		before := game.Clone()

		err := MakeTurn(game, entity.PlayerO, move(t, 0, 0), t0)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.ErrorIs(t, err, apperror.ErrTurn)
		require.Equal(t, before, game)
	})

	t.Run("Rejected move leaves the game and the clock unchanged", func(t *testing.T) {
		// Given: X has played board 0 cell 0, O is sent to board 0
		game := newStartedGame(t)
		require.NoError(t, MakeTurn(game, entity.PlayerX, move(t, 0, 0), t0))
		before := game.Clone()

		// When: O tries the occupied cell 20 seconds later
		err := MakeTurn(game, entity.PlayerO, move(t, 0, 0), t0.Add(20*time.Second))

		// Then: the cell is rejected and nothing changed, including O's clock
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		require.Equal(t, before, game)
	})

	t.Run("Elapsed time is truncated to whole seconds", func(t *testing.T) {
		game := newStartedGame(t)

		require.NoError(t, MakeTurn(game, entity.PlayerX, move(t, 0, 1), t0.Add(10*time.Second+900*time.Millisecond)))

		assert.Equal(t, 350, game.PlayerX.TimeRemaining)
	})

	t.Run("Running out of time ends the game instead of applying the move", func(t *testing.T) {
		// Given: X has 360 seconds
		game := newStartedGame(t)

		// When: X tries a legal move after 361 seconds
		err := MakeTurn(game, entity.PlayerX, move(t, 0, 0), t0.Add(361*time.Second))

		// Then: no error, X timed out and O wins
		require.NoError(t, err)
		assert.Equal(t, entity.PhaseGameOver, game.Phase)
		assert.True(t, game.GameOver)
		assert.Equal(t, entity.ResultTimeout, game.Outcome)
		assert.Equal(t, entity.PlayerX, game.ForfeitedBy)
		require.NotNil(t, game.Winner)
		assert.Equal(t, entity.PlayerO, *game.Winner)
		assert.Equal(t, 0, game.PlayerX.TimeRemaining)
		assert.Equal(t, entity.EmptyCell, game.Boards[0][0])
	})

	t.Run("Timeout wins over an illegal target", func(t *testing.T) {
		game := newStartedGame(t)
		require.NoError(t, MakeTurn(game, entity.PlayerX, move(t, 0, 4), t0))

		err := MakeTurn(game, entity.PlayerO, move(t, 8, 8), t0.Add(400*time.Second))

		require.NoError(t, err)
		assert.Equal(t, entity.ResultTimeout, game.Outcome)
		assert.Equal(t, entity.PlayerO, game.ForfeitedBy)
	})

	t.Run("Winning the target board frees the next player", func(t *testing.T) {
		// Given: O has two in a row on board 4 and is sent there
		game := newStartedGame(t)
		game.Boards[4] = entity.Board{
			entity.EmptyCell, entity.EmptyCell, entity.EmptyCell,
			entity.PlayerO, entity.EmptyCell, entity.PlayerO,
			entity.PlayerX, entity.EmptyCell, entity.PlayerX,
		}
		next := 4
		game.NextBoard = &next
		game.CurrentPlayer = entity.PlayerO

		// When: O completes the row by playing the center, which points back at board 4
		require.NoError(t, MakeTurn(game, entity.PlayerO, move(t, 4, 4), t0))

		// Then: board 4 is O's and X has a free choice
		assert.Equal(t, entity.OutcomeO, game.MetaBoard[4])
		assert.Nil(t, game.NextBoard)
		assert.Equal(t, entity.PlayerX, game.CurrentPlayer)

		// When: X later plays a cell 4 that points at the decided board
		require.NoError(t, MakeTurn(game, entity.PlayerX, move(t, 2, 4), t0))

		// Then: O also gets a free choice
		assert.Nil(t, game.NextBoard)
		require.NoError(t, MakeTurn(game, entity.PlayerO, move(t, 7, 0), t0))
	})

	t.Run("Decided boards are not playable", func(t *testing.T) {
		game := newStartedGame(t)
		game.Boards[3] = entity.Board{entity.PlayerO, entity.PlayerO, entity.PlayerO}
		game.MetaBoard[3] = entity.OutcomeO

		err := MakeTurn(game, entity.PlayerX, move(t, 3, 5), t0)

		require.ErrorIs(t, err, apperror.ErrBoardNotPlayable)
	})

	t.Run("Three boards in a row win the game", func(t *testing.T) {
		// Given: X owns boards 0 and 1 and has two in a row on board 2
		game := newStartedGame(t)
		game.Boards[0] = entity.Board{entity.PlayerX, entity.PlayerX, entity.PlayerX}
		game.Boards[1] = entity.Board{entity.PlayerX, entity.PlayerX, entity.PlayerX}
		game.Boards[2] = entity.Board{entity.PlayerX, entity.PlayerX}
		game.MetaBoard = entity.NewMetaBoard(game.Boards)

		// When: X completes board 2
		require.NoError(t, MakeTurn(game, entity.PlayerX, move(t, 2, 2), t0.Add(time.Second)))

		// Then: X wins the game and no more moves are accepted
		assert.Equal(t, entity.PhaseGameOver, game.Phase)
		assert.Equal(t, entity.ResultWin, game.Outcome)
		require.NotNil(t, game.Winner)
		assert.Equal(t, entity.PlayerX, *game.Winner)
		assert.Nil(t, game.NextBoard)

		before := game.Clone()
		err := MakeTurn(game, entity.PlayerO, move(t, 5, 0), t0.Add(2*time.Second))
		require.ErrorIs(t, err, apperror.ErrGameAlreadyOver)
		require.Equal(t, before, game)
	})

	t.Run("Filling the meta-board without a line is a draw", func(t *testing.T) {
		// Given: eight decided boards without a line and board 8 one move from a tie
		game := newStartedGame(t)
		game.MetaBoard = entity.MetaBoard{
			entity.OutcomeX, entity.OutcomeO, entity.OutcomeX,
			entity.OutcomeX, entity.OutcomeO, entity.OutcomeO,
			entity.OutcomeO, entity.OutcomeX, entity.OutcomeInPlay,
		}
		game.Boards[8] = entity.Board{
			entity.PlayerX, entity.PlayerO, entity.PlayerX,
			entity.PlayerX, entity.PlayerO, entity.PlayerO,
			entity.PlayerO, entity.PlayerX, entity.EmptyCell,
		}
		next := 8
		game.NextBoard = &next

		// When: X fills the last cell
		require.NoError(t, MakeTurn(game, entity.PlayerX, move(t, 8, 8), t0))

		// Then: the game is drawn
		assert.Equal(t, entity.OutcomeTie, game.MetaBoard[8])
		assert.Equal(t, entity.ResultDraw, game.Outcome)
		assert.Nil(t, game.Winner)
		assert.True(t, game.GameOver)
	})

	t.Run("Moves before the ready signal are rejected", func(t *testing.T) {
		game := entity.NewGame("123", "alice", "bob", entity.DefaultTimeControl, t0)

		err := MakeTurn(game, entity.PlayerX, move(t, 0, 0), t0)

		assert.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})
}

func TestResign(t *testing.T) {
	t.Run("Resigning hands the win to the opponent", func(t *testing.T) {
		game := newStartedGame(t)

		require.NoError(t, Resign(game, entity.PlayerX, t0.Add(3*time.Second)))

		assert.Equal(t, entity.ResultResign, game.Outcome)
		assert.Equal(t, entity.PlayerX, game.ForfeitedBy)
		require.NotNil(t, game.Winner)
		assert.Equal(t, entity.PlayerO, *game.Winner)
		assert.Equal(t, 357, game.PlayerX.TimeRemaining)
	})

	t.Run("Resigning a finished game is a no-op", func(t *testing.T) {
		// Given: X has resigned
		game := newStartedGame(t)
		require.NoError(t, Resign(game, entity.PlayerX, t0))
		before := game.Clone()

		// When: O resigns afterwards
		err := Resign(game, entity.PlayerO, t0.Add(time.Second))

		// Then: nothing changes and no error is reported
		require.NoError(t, err)
		require.Equal(t, before, game)
	})

	t.Run("Cannot resign while waiting for an opponent", func(t *testing.T) {
		game := entity.NewGame("123", "alice", "", entity.DefaultTimeControl, t0)

		assert.ErrorIs(t, Resign(game, entity.PlayerX, t0), apperror.ErrGameNotReady)
	})
}

func TestClaimTimeout(t *testing.T) {
	t.Run("Waiting player can claim an expired clock", func(t *testing.T) {
		game := newStartedGame(t)

		require.NoError(t, ClaimTimeout(game, entity.PlayerO, t0.Add(360*time.Second)))

		assert.Equal(t, entity.ResultTimeout, game.Outcome)
		require.NotNil(t, game.Winner)
		assert.Equal(t, entity.PlayerO, *game.Winner)
	})

	t.Run("Claim is refused while time is left", func(t *testing.T) {
		game := newStartedGame(t)

		err := ClaimTimeout(game, entity.PlayerO, t0.Add(359*time.Second))

		require.ErrorIs(t, err, apperror.ErrTimeNotExpired)
		assert.True(t, game.IsOngoing())
	})

	t.Run("Player on move cannot claim", func(t *testing.T) {
		game := newStartedGame(t)

		assert.ErrorIs(t, ClaimTimeout(game, entity.PlayerX, t0.Add(time.Hour)), apperror.ErrTimeNotExpired)
	})
}

func TestRemaining(t *testing.T) {
	game := newStartedGame(t)

	assert.Equal(t, 300, Remaining(game, entity.PlayerX, t0.Add(time.Minute)))
	assert.Equal(t, 360, Remaining(game, entity.PlayerO, t0.Add(time.Minute)))
	assert.Equal(t, 0, Remaining(game, entity.PlayerX, t0.Add(time.Hour)))
	assert.Equal(t, 360, Remaining(game, entity.PlayerX, t0.Add(-time.Minute)))
}
