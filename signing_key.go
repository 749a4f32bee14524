package identity

import (
	"crypto/rsa"
	"encoding/base64"
	"math/big"

	"github.com/goliatone/go-errors"
)

// SigningAlgorithm is the JWS algorithm tag this service signs with.
const SigningAlgorithm = "RS256"

// criticalHeaders is emitted in the JWS `crit` header for wire compatibility
// with existing token consumers.
var criticalHeaders = []string{"exp", "aud"}

// SigningKey is the process signing keypair, assembled once at startup from
// the base64url encoded modulus, public exponent and private exponent, and
// shared read only by every signing and verification operation.
type SigningKey struct {
	keyID   string
	private *rsa.PrivateKey
}

// NewSigningKey builds the RS256 keypair. The public exponent is usually the
// constant "AQAB" (65537).
func NewSigningKey(modulus, publicExponent, privateExponent, keyID string) (*SigningKey, error) {
	n, err := decodeBase64Int(modulus)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid signing key modulus")
	}

	e, err := decodeBase64Int(publicExponent)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid signing key public exponent")
	}
	if !e.IsInt64() || e.Int64() <= 1 {
		return nil, errors.New("signing key public exponent out of range", errors.CategoryBadInput)
	}

	d, err := decodeBase64Int(privateExponent)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid signing key private exponent")
	}

	key := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{
			N: n,
			E: int(e.Int64()),
		},
		D: d,
	}

	return &SigningKey{keyID: keyID, private: key}, nil
}

// NewSigningKeyFromConfig loads the keypair from auth configuration.
func NewSigningKeyFromConfig(cfg Config) (*SigningKey, error) {
	return NewSigningKey(
		cfg.GetSigningModulus(),
		cfg.GetSigningPublicExponent(),
		cfg.GetSigningPrivateExponent(),
		cfg.GetSigningKeyID(),
	)
}

// KeyID returns the identifier emitted in the JWS `kid` header.
func (k *SigningKey) KeyID() string {
	return k.keyID
}

// Private returns the signing key.
func (k *SigningKey) Private() *rsa.PrivateKey {
	return k.private
}

// Public returns the verification key.
func (k *SigningKey) Public() *rsa.PublicKey {
	return &k.private.PublicKey
}

func decodeBase64Int(value string) (*big.Int, error) {
	if value == "" {
		return nil, ErrNoEmptyString
	}

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		// tolerate padded or standard alphabet inputs from older config
		if raw, err = base64.StdEncoding.DecodeString(value); err != nil {
			return nil, err
		}
	}

	return new(big.Int).SetBytes(raw), nil
}
