package tictactoe

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/apperror"
	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/entity"
)

// Join seats playerID as O in a game that is still waiting for a second player.
func Join(gameInstance *entity.Game, playerID string, now time.Time) error {
	if playerID == "" {
		return apperror.ErrEmptyID
	}

	if gameInstance.IsFinished() {
		return apperror.ErrGameAlreadyOver
	}

	if _, err := gameInstance.MarkOf(playerID); err == nil {
		return nil
	}

	if !gameInstance.IsWaiting() {
		return apperror.ErrGameFull
	}

	gameInstance.PlayerO.ID = playerID
	gameInstance.Phase = entity.PhaseReady
	gameInstance.Touch(now)

	return nil
}

// Start is the ready signal. Only X may start the clock, and a running clock is never reset.
func Start(gameInstance *entity.Game, playerID string, now time.Time) error {
	switch gameInstance.Phase {
	case entity.PhaseGameOver:
		return apperror.ErrGameAlreadyOver
	case entity.PhaseAwaitingSecondPlayer:
		return apperror.ErrGameNotReady
	}

	mark, err := gameInstance.MarkOf(playerID)
	if err != nil {
		return err
	}

	if mark != entity.PlayerX {
		return apperror.ErrReadyByWrongPlayer
	}

	if gameInstance.IsOngoing() {
		return nil
	}

	gameInstance.Phase = entity.PhaseInProgress
	gameInstance.Started = true
	gameInstance.LastMoveAt = now
	gameInstance.PlayerX.TimeRemaining = gameInstance.TimeControl
	gameInstance.PlayerO.TimeRemaining = gameInstance.TimeControl
	gameInstance.Touch(now)

	return nil
}

// MakeTurn applies one move for mark. Running out of time is not an error:
// the game ends with a timeout and the move is dropped.
func MakeTurn(gameInstance *entity.Game, mark entity.Mark, move entity.Move, now time.Time) error {
	if err := gameInstance.ConfirmOngoingState(); err != nil {
		return err
	}

	if gameInstance.CurrentPlayer != mark {
		return apperror.ErrNotYourTurn
	}

	remaining := Remaining(gameInstance, mark, now)
	if remaining == 0 {
		timeOut(gameInstance, mark, now)
		return nil
	}

	if err := validateMove(gameInstance, move); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	board := &gameInstance.Boards[move.Board]
	if err := board.Set(move.Cell, mark); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	gameInstance.Seat(mark).TimeRemaining = remaining
	gameInstance.LastMoveAt = now
	gameInstance.MetaBoard.Record(move.Board, board.Outcome())

	updateGameStatus(gameInstance, mark, move, now)
	gameInstance.Touch(now)

	return nil
}

// Resign ends the game in the opponent's favour. Resigning a finished game is a no-op.
func Resign(gameInstance *entity.Game, mark entity.Mark, now time.Time) error {
	switch gameInstance.Phase {
	case entity.PhaseGameOver:
		return nil
	case entity.PhaseAwaitingSecondPlayer:
		return apperror.ErrGameNotReady
	}

	if !mark.IsPlayer() {
		return apperror.ErrInvalidMark
	}

	if gameInstance.IsOngoing() {
		gameInstance.Seat(mark).TimeRemaining = Remaining(gameInstance, mark, now)
	}

	gameInstance.Finish(entity.ResultResign, mark.Opponent(), mark, now)
	gameInstance.Touch(now)

	return nil
}

// ClaimTimeout lets the waiting player end the game once the mover's clock has run out.
func ClaimTimeout(gameInstance *entity.Game, mark entity.Mark, now time.Time) error {
	if err := gameInstance.ConfirmOngoingState(); err != nil {
		return err
	}

	if !mark.IsPlayer() {
		return apperror.ErrInvalidMark
	}

	mover := gameInstance.CurrentPlayer
	if mover == mark {
		return apperror.ErrTimeNotExpired
	}

	if Remaining(gameInstance, mover, now) > 0 {
		return apperror.ErrTimeNotExpired
	}

	timeOut(gameInstance, mover, now)

	return nil
}

// Remaining is the live clock of mark: the stored budget, minus the whole
// seconds elapsed since the last move if mark is the player on move.
func Remaining(gameInstance *entity.Game, mark entity.Mark, now time.Time) int {
	stored := gameInstance.Seat(mark).TimeRemaining
	if !gameInstance.IsOngoing() || gameInstance.CurrentPlayer != mark {
		return stored
	}

	elapsed := int(now.Sub(gameInstance.LastMoveAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	return max(0, stored-elapsed)
}

func timeOut(gameInstance *entity.Game, mark entity.Mark, now time.Time) {
	gameInstance.Seat(mark).TimeRemaining = 0
	gameInstance.LastMoveAt = now
	gameInstance.Finish(entity.ResultTimeout, mark.Opponent(), mark, now)
	gameInstance.Touch(now)
}

// validateMove - checks the move against the board constraint and the meta-board.
func validateMove(gameInstance *entity.Game, move entity.Move) error {
	if gameInstance.NextBoard != nil && move.Board != *gameInstance.NextBoard {
		return apperror.ErrWrongBoard
	}

	if !gameInstance.MetaBoard.IsBoardPlayable(move.Board) {
		return apperror.ErrBoardNotPlayable
	}

	cell, err := gameInstance.Boards[move.Board].Get(move.Cell)
	if err != nil {
		return err
	}

	if cell != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

// updateGameStatus - checks the meta-board after a move and hands the turn over.
func updateGameStatus(gameInstance *entity.Game, mark entity.Mark, move entity.Move, now time.Time) {
	if winner := gameInstance.MetaBoard.Winner(); winner != entity.EmptyCell {
		gameInstance.Finish(entity.ResultWin, winner, entity.EmptyCell, now)
		return
	}

	if gameInstance.MetaBoard.IsFull() {
		gameInstance.Finish(entity.ResultDraw, entity.EmptyCell, entity.EmptyCell, now)
		return
	}

	if gameInstance.MetaBoard.IsBoardPlayable(move.Cell) {
		next := move.Cell
		gameInstance.NextBoard = &next
	} else {
		gameInstance.NextBoard = nil
	}

	gameInstance.CurrentPlayer = mark.Opponent()
}
