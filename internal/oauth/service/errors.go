package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidClient      = errors.New("invalid_client")
	ErrInvalidScope       = errors.New("invalid_scope")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrInvalidGrant       = errors.New("invalid_grant")

	// Validation errors, in the order the validator applies its checks.
	ErrMalformedToken   = errors.New("malformed_token")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrTokenExpired     = errors.New("token_expired")
	ErrTokenRevoked     = errors.New("token_revoked")
)
