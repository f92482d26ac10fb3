package app

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"log/slog"
	"os"

	"github.com/advancedlearning/oauthd/pkg/jwtx"
)

// InitSigningKeys loads the RS256 signing key and builds the verification
// key set.
//
// A configured key file that cannot be read or parsed is fatal: silently
// minting tokens under a different key than the operator configured would
// strand every relying party. With no file configured an ephemeral key is
// generated, which invalidates all outstanding tokens on restart.
func InitSigningKeys(cfg Config, logger *slog.Logger) (*jwtx.Signer, *jwtx.KeySet, error) {
	var signer *jwtx.Signer

	if cfg.SigningKeyFile != "" {
		pemBytes, err := os.ReadFile(cfg.SigningKeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("read signing key %s: %w", cfg.SigningKeyFile, err)
		}
		signer, err = jwtx.NewSigner(pemBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("parse signing key %s: %w", cfg.SigningKeyFile, err)
		}
		logger.Info("signing key loaded", "path", cfg.SigningKeyFile, "kid", signer.KID())
	} else {
		bits := cfg.RSABits
		if bits < 2048 {
			bits = 2048
		}
		key, err := rsa.GenerateKey(rand.Reader, bits)
		if err != nil {
			return nil, nil, fmt.Errorf("generate ephemeral RSA key: %w", err)
		}
		signer, err = jwtx.NewSignerFromKey(key)
		if err != nil {
			return nil, nil, err
		}
		logger.Warn("no signing key configured, generated ephemeral key; outstanding tokens are now invalid",
			"kid", signer.KID(), "bits", bits)
	}

	keys := jwtx.NewKeySet()
	if err := keys.Add(signer.Public()); err != nil {
		return nil, nil, err
	}

	// An extra public key lets the verifier accept tokens minted under a
	// previous signing key during rollover.
	if cfg.PublicKeyFile != "" {
		pemBytes, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("read public key %s: %w", cfg.PublicKeyFile, err)
		}
		pub, err := jwtx.ParsePublicKey(pemBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("parse public key %s: %w", cfg.PublicKeyFile, err)
		}
		if err := keys.Add(pub); err != nil {
			return nil, nil, err
		}
		logger.Info("additional verification key loaded", "path", cfg.PublicKeyFile)
	}

	return signer, keys, nil
}
