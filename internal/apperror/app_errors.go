package apperror

import (
	"errors"
	"fmt"
)

// Error categories. Every specific error below wraps exactly one of them,
// so callers can test either the category or the concrete cause with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrTurn        = errors.New("turn rejected")
	ErrState       = errors.New("invalid game state")
	ErrMatchmaking = errors.New("matchmaking error")
)

var (
	ErrOutOfRange  = fmt.Errorf("%w: index out of range", ErrValidation)
	ErrInvalidMark = fmt.Errorf("%w: invalid mark", ErrValidation)
	ErrEmptyID     = fmt.Errorf("%w: empty id", ErrValidation)
)

var (
	ErrNotYourTurn      = fmt.Errorf("%w: it's not your turn", ErrTurn)
	ErrWrongBoard       = fmt.Errorf("%w: must play in the indicated board", ErrTurn)
	ErrBoardNotPlayable = fmt.Errorf("%w: board already completed", ErrTurn)
	ErrCellOccupied     = fmt.Errorf("%w: cell is already occupied", ErrTurn)
)

var (
	ErrGameAlreadyOver    = fmt.Errorf("%w: game is already over", ErrState)
	ErrGameNotFound       = fmt.Errorf("%w: game not found", ErrState)
	ErrReadyByWrongPlayer = fmt.Errorf("%w: only player X can signal ready", ErrState)
	ErrGameIsNotStarted   = fmt.Errorf("%w: game is not started", ErrState)
	ErrGameNotReady       = fmt.Errorf("%w: game is waiting for a second player", ErrState)
	ErrGameFull           = fmt.Errorf("%w: game already has two players", ErrState)
	ErrNotAPlayer         = fmt.Errorf("%w: player is not seated in this game", ErrState)
	ErrTimeNotExpired     = fmt.Errorf("%w: opponent still has time left", ErrState)
	ErrGameNotFinished    = fmt.Errorf("%w: game is not finished", ErrState)
	ErrAlreadySettled     = fmt.Errorf("%w: game is already settled", ErrState)
)

var ErrPlayerNotInQueue = fmt.Errorf("%w: player not in matchmaking", ErrMatchmaking)
