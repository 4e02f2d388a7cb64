package persistence

import (
	"errors"
	"fmt"
)

var (
	ErrIO    = errors.New("world storage i/o failed")
	ErrParse = errors.New("world document is malformed")

	ErrWorldNotFound = fmt.Errorf("%w: world not found", ErrIO)
)
