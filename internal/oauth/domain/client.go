package domain

import (
	"slices"
	"strings"
	"time"
)

// Client is a registered OAuth2 client application. The identifier is
// immutable once persisted; the secret is stored hashed and the plaintext
// exists only at creation time.
type Client struct {
	Identifier   string
	Name         string
	SecretHash   string
	Grants       []string // allowed grant types, comma-decomposed at load
	RedirectURIs []string // comma-decomposed at load, segments kept verbatim
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AllowsGrant reports whether the client may use the given grant type.
// Grant types are opaque string classifiers.
func (c Client) AllowsGrant(grantType string) bool {
	return slices.Contains(c.Grants, grantType)
}

// SplitList decomposes a comma-delimited column value. Segments are kept
// exactly as stored: no trimming, empty segments preserved. Redirect URIs
// and grant lists have always been stored this way.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// JoinList is the inverse of SplitList.
func JoinList(parts []string) string {
	return strings.Join(parts, ",")
}
