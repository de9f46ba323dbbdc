package engine

import "time"

// Rejection declines the order currently being checked. It is not an
// operational error: rules return it from an order check and the engine
// converts exactly one per order into a reject response.
type Rejection struct {
	Reason     string
	Detail     string
	Moratorium time.Duration
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return r.Reason
	}
	return r.Reason + ", " + r.Detail
}

// NewRejection builds a rejection with an optional detail value.
func NewRejection(moratorium time.Duration, reason, detail string) *Rejection {
	return &Rejection{Reason: reason, Detail: detail, Moratorium: moratorium}
}
