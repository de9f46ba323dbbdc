package exception

import "errors"

var (
	ErrJournalClosed         = errors.New("journal: writer closed")
	ErrJournalNotStarted     = errors.New("journal: writer not started")
	ErrJournalAlreadyStarted = errors.New("journal: writer already started")
	ErrJournalQueueFull      = errors.New("journal: queue full")
)
