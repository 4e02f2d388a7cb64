package services

import "errors"

var (
	ErrOutOfBounds        = errors.New("coordinate out of bounds")
	ErrNotFound           = errors.New("participant not found")
	ErrOutOfTurn          = errors.New("participant is not the turn holder")
	ErrInvalidState       = errors.New("simulation is not ready")
	ErrPlacementConflict  = errors.New("placement conflict")
	ErrNoPlacement        = errors.New("no free tile to place participant")
	ErrInvalidAction      = errors.New("invalid action")
	ErrInvalidID          = errors.New("invalid participant id")
	ErrInvalidWorldConfig = errors.New("invalid world configuration")
	ErrAlreadyLoaded      = errors.New("world already loaded")
)
