package entity

import (
	"fmt"

	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/apperror"
)

// Mark is the content of a single cell, and also identifies a player seat.
type Mark string

const (
	EmptyCell Mark = ""
	PlayerX   Mark = "X"
	PlayerO   Mark = "O"
)

// Outcome is the state of one sub-board as seen from the meta-board.
type Outcome string

const (
	OutcomeInPlay Outcome = ""
	OutcomeX      Outcome = "X"
	OutcomeO      Outcome = "O"
	OutcomeTie    Outcome = "T"
)

const BoardSize = 9

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

func (m Mark) IsPlayer() bool {
	return m == PlayerX || m == PlayerO
}

// Opponent returns the other player's mark. EmptyCell has no opponent.
func (m Mark) Opponent() Mark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return EmptyCell
	}
}

func (o Outcome) IsTerminal() bool {
	return o != OutcomeInPlay
}

// Winner returns the mark that won the sub-board, or EmptyCell for a tie or an open board.
func (o Outcome) Winner() Mark {
	switch o {
	case OutcomeX:
		return PlayerX
	case OutcomeO:
		return PlayerO
	default:
		return EmptyCell
	}
}

func outcomeOf(m Mark) Outcome {
	switch m {
	case PlayerX:
		return OutcomeX
	case PlayerO:
		return OutcomeO
	default:
		return OutcomeInPlay
	}
}

func validIndex(i int) bool {
	return i >= 0 && i < BoardSize
}

// Board is a single 3x3 grid, row-major.
type Board [BoardSize]Mark

func (that *Board) Get(pos int) (Mark, error) {
	if !validIndex(pos) {
		return EmptyCell, fmt.Errorf("%w: cell %d", apperror.ErrOutOfRange, pos)
	}

	return that[pos], nil
}

// Set places mark at pos. It never overwrites a taken cell.
func (that *Board) Set(pos int, mark Mark) error {
	if !validIndex(pos) {
		return fmt.Errorf("%w: cell %d", apperror.ErrOutOfRange, pos)
	}

	if !mark.IsPlayer() {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidMark, mark)
	}

	if that[pos] != EmptyCell {
		return apperror.ErrCellOccupied
	}

	that[pos] = mark

	return nil
}

// Winner returns the mark of the first completed triple, or EmptyCell.
func (that *Board) Winner() Mark {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

func (that *Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func (that *Board) Outcome() Outcome {
	if winner := that.Winner(); winner != EmptyCell {
		return outcomeOf(winner)
	}

	if that.IsFull() {
		return OutcomeTie
	}

	return OutcomeInPlay
}

// MetaBoard is the 3x3 grid of sub-board outcomes.
type MetaBoard [BoardSize]Outcome

func NewMetaBoard(boards [BoardSize]Board) MetaBoard {
	var meta MetaBoard
	for i := range boards {
		meta[i] = boards[i].Outcome()
	}

	return meta
}

// Record folds a sub-board outcome in. A decided board never goes back in play.
func (that *MetaBoard) Record(i int, outcome Outcome) {
	if !validIndex(i) || that[i].IsTerminal() {
		return
	}

	that[i] = outcome
}

// Winner scans the meta-level triples. Tied boards never count towards a line.
func (that *MetaBoard) Winner() Mark {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]].Winner(), that[combo[1]].Winner(), that[combo[2]].Winner()
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

func (that *MetaBoard) IsFull() bool {
	for _, outcome := range that {
		if !outcome.IsTerminal() {
			return false
		}
	}

	return true
}

func (that *MetaBoard) IsBoardPlayable(i int) bool {
	return validIndex(i) && !that[i].IsTerminal()
}
