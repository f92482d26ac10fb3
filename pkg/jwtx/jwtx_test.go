package jwtx

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testSigner(t *testing.T) *Signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	s, err := NewSignerFromKey(key)
	require.NoError(t, err)
	return s
}

func testVerifier(t *testing.T, s *Signer, issuer string) *Verifier {
	t.Helper()
	keys := NewKeySet()
	require.NoError(t, keys.Add(s.Public()))
	return NewVerifier(keys, issuer)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer := testSigner(t)
	verifier := testVerifier(t, signer, "test-issuer")

	now := time.Now()
	claims := NewAccessClaims("jti-1", "subject-1", "client-1",
		[]string{"read", "write"}, time.Hour, "test-issuer", now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "jti-1", got.ID)
	require.Equal(t, "subject-1", got.Subject)
	require.Equal(t, "client-1", got.ClientID)
	require.Equal(t, []string{"read", "write"}, got.Scopes)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	t.Parallel()

	signer := testSigner(t)
	other := testSigner(t)
	verifier := testVerifier(t, other, "")

	token, err := signer.Sign(NewAccessClaims("j", "s", "c", nil, time.Hour, "", time.Now()))
	require.NoError(t, err)

	// The kid header names a key the verifier does not hold.
	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrUnknownKID)
}

func TestVerifyRejectsMalformed(t *testing.T) {
	t.Parallel()

	signer := testSigner(t)
	verifier := testVerifier(t, signer, "")

	_, err := verifier.Verify("not.a.jwt")
	require.Error(t, err)

	_, err = verifier.Verify("")
	require.Error(t, err)
}

func TestVerifyDoesNotCheckExpiry(t *testing.T) {
	t.Parallel()

	signer := testSigner(t)
	verifier := testVerifier(t, signer, "")

	// Expired an hour ago; structural verification still succeeds. The
	// validator applies expiry in its own ordering.
	claims := NewAccessClaims("j", "s", "c", nil, time.Hour, "", time.Now().Add(-2*time.Hour))
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.ErrorIs(t, got.ValidateExpiry(time.Now()), ErrExpired)
}

func TestValidateExpiryBoundary(t *testing.T) {
	t.Parallel()

	now := time.Now()
	claims := NewAccessClaims("j", "s", "c", nil, time.Hour, "", now)
	exp := claims.ExpiresAt.Time

	require.NoError(t, claims.ValidateExpiry(exp.Add(-time.Nanosecond)))
	require.ErrorIs(t, claims.ValidateExpiry(exp), ErrExpired)
	require.ErrorIs(t, claims.ValidateExpiry(exp.Add(time.Nanosecond)), ErrExpired)
}

func TestValidateIssuer(t *testing.T) {
	t.Parallel()

	claims := NewAccessClaims("j", "s", "c", nil, time.Hour, "issuer-a", time.Now())

	require.NoError(t, claims.ValidateIssuer(""))
	require.NoError(t, claims.ValidateIssuer("issuer-a"))
	require.ErrorIs(t, claims.ValidateIssuer("issuer-b"), ErrIssuer)
}

func TestKeyIDStable(t *testing.T) {
	t.Parallel()

	signer := testSigner(t)

	kid1, err := KeyID(signer.Public())
	require.NoError(t, err)
	kid2, err := KeyID(signer.Public())
	require.NoError(t, err)

	require.Equal(t, kid1, kid2)
	require.Equal(t, signer.KID(), kid1)
	require.Len(t, kid1, 16)
}

func TestKeySetJWKS(t *testing.T) {
	t.Parallel()

	keys := NewKeySet()
	require.False(t, keys.IsReady())

	signer := testSigner(t)
	require.NoError(t, keys.Add(signer.Public()))
	require.True(t, keys.IsReady())

	jwks := keys.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "RSA", jwks.Keys[0].Kty)
	require.Equal(t, "RS256", jwks.Keys[0].Alg)
	require.Equal(t, signer.KID(), jwks.Keys[0].Kid)
	require.NotEmpty(t, jwks.Keys[0].N)
	require.NotEmpty(t, jwks.Keys[0].E)
}
