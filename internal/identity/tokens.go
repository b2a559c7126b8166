package identity

import (
	"crypto"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid covers expired, malformed and wrongly signed tokens.
var ErrTokenInvalid = errors.New("identity: token invalid")

// DefaultTokenTTL applies when callers do not request an explicit lifetime.
const DefaultTokenTTL = 30 * time.Minute

// TokenIssuer mints and verifies EdDSA-signed JWTs and publishes the matching
// key set. The keypair is derived deterministically from the signing secret so
// every instance sharing a secret publishes the same JWKS.
type TokenIssuer struct {
	priv   ed25519.PrivateKey
	pub    ed25519.PublicKey
	kid    string
	issuer string
}

// NewTokenIssuer derives the signing keypair from the configured secret.
func NewTokenIssuer(secret, issuer string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("identity: signing secret required")
	}
	seed := sha256.Sum256([]byte(secret))
	priv := ed25519.NewKeyFromSeed(seed[:])
	pub := priv.Public().(ed25519.PublicKey)

	jwk := jose.JSONWebKey{Key: pub, Algorithm: string(jose.EdDSA), Use: "sig"}
	thumb, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return nil, fmt.Errorf("identity: key thumbprint: %w", err)
	}

	return &TokenIssuer{
		priv:   priv,
		pub:    pub,
		kid:    base64.RawURLEncoding.EncodeToString(thumb),
		issuer: issuer,
	}, nil
}

// KeyID returns the key identifier carried in token headers and the JWKS.
func (ti *TokenIssuer) KeyID() string {
	return ti.kid
}

// Issue mints a signed token for the given subject.
func (ti *TokenIssuer) Issue(subject string, audience string, scopes []string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := jwt.MapClaims{
		"sub": subject,
		"iss": ti.issuer,
		"iat": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(expiresAt),
	}
	if audience != "" {
		claims["aud"] = audience
	}
	if len(scopes) > 0 {
		claims["scope"] = scopes
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	tok.Header["kid"] = ti.kid

	signed, err := tok.SignedString(ti.priv)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("identity: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks a bearer token's signature and expiry and returns its subject.
func (ti *TokenIssuer) Verify(tokenString string) (string, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return ti.pub, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}))
	if err != nil || !tok.Valid {
		return "", ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrTokenInvalid
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrTokenInvalid
	}
	return sub, nil
}

// JWKS returns the public key set for offline verification.
func (ti *TokenIssuer) JWKS() jose.JSONWebKeySet {
	return jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{{
			Key:       ti.pub,
			KeyID:     ti.kid,
			Algorithm: string(jose.EdDSA),
			Use:       "sig",
		}},
	}
}
