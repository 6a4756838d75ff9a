package apperror

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownGameType = errors.New("unknown game type")
	ErrUnknownMode     = errors.New("unknown game mode")
	ErrOutOfBounds     = errors.New("cell is out of bounds")
	ErrInvalidCell     = errors.New("invalid cell value")
	ErrMalformedBoard  = errors.New("board is malformed")
	ErrMissingField    = errors.New("required field is missing")
	ErrNoConnection    = errors.New("no active connection")
)
