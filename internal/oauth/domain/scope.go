package domain

import "time"

// Scope is a named permission unit. Scopes are referenced by name everywhere
// else (weak reference, never ownership) and administered out-of-band.
type Scope struct {
	Name      string
	CreatedAt time.Time
}
