package domain

import "time"

// User is a resource owner. Scope entitlements come from group membership,
// never from the user record itself.
type User struct {
	ID           string
	Identifier   string // login name, unique
	PasswordHash string // argon2id encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Group owns scopes. A user's effective scope set is the union over the
// scopes of every group the user belongs to.
type Group struct {
	ID        string
	Title     string
	Scopes    []string // parsed from space-delimited storage
	CreatedAt time.Time
}
