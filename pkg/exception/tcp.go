package exception

import "errors"

// TCP errors
var (
	// ErrInvalidPortTCP is returned when a listen port is out of range.
	ErrInvalidPortTCP = errors.New("tcp: invalid port")
)
