package entity

import (
	"fmt"

	"github.com/rocketscienceinc/ultimate-tictactoe-backend/internal/apperror"
)

// Move addresses one cell of one sub-board.
type Move struct {
	Board int `json:"board_index"`
	Cell  int `json:"cell_index"`
}

// NewMove range-checks both indexes. Everything downstream may assume a valid Move.
func NewMove(board, cell int) (Move, error) {
	if !validIndex(board) {
		return Move{}, fmt.Errorf("%w: board %d", apperror.ErrOutOfRange, board)
	}

	if !validIndex(cell) {
		return Move{}, fmt.Errorf("%w: cell %d", apperror.ErrOutOfRange, cell)
	}

	return Move{Board: board, Cell: cell}, nil
}
