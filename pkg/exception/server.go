package exception

import "errors"

var (
	ErrServerNilEngine       = errors.New("server: nil engine")
	ErrServerInvalidWorkers  = errors.New("server: invalid worker config")
	ErrServerQueueClosed     = errors.New("server: frame queue closed")
	ErrServerMessageTooLarge = errors.New("server: message exceeds size limit")
)
