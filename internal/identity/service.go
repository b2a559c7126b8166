package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/gatehouse-auth/gatehouse/internal/credential"
	"github.com/gatehouse-auth/gatehouse/internal/shared"
)

// ErrEmailTaken indicates a sign-up with an email that already has an account.
var ErrEmailTaken = errors.New("identity: email already registered")

const apiKeyPrefix = "gh_"

// Service wraps account, session, API key and token operations.
type Service struct {
	store    Store
	sessions *shared.SessionManager
	issuer   *TokenIssuer
}

// NewService constructs a Service.
func NewService(store Store, sessions *shared.SessionManager, issuer *TokenIssuer) *Service {
	return &Service{store: store, sessions: sessions, issuer: issuer}
}

// Sessions exposes the session manager for transport wiring.
func (s *Service) Sessions() *shared.SessionManager {
	return s.sessions
}

// SignUp registers a new account with a bcrypt password hash.
func (s *Service) SignUp(ctx context.Context, email, name, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("identity: invalid email")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("identity: password too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.store.CreateUser(ctx, email, strings.TrimSpace(name), string(hash))
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.store.FindUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// ResolveSession maps a raw session cookie value to a principal.
func (s *Service) ResolveSession(ctx context.Context, sessionID string) (*Principal, error) {
	sess, err := s.sessions.Lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsNew() || sess.User() == "" {
		return nil, shared.ErrNotFound
	}
	userID, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		return nil, shared.ErrNotFound
	}
	return s.principalByID(ctx, userID, credential.SchemeCookie)
}

// ResolveAPIKey maps a raw API key to its owning principal. Expired keys
// never resolve.
func (s *Service) ResolveAPIKey(ctx context.Context, rawKey string) (*Principal, error) {
	key, err := s.store.GetAPIKeyByDigest(ctx, digest(rawKey))
	if err != nil {
		return nil, err
	}
	if key.Expired(time.Now()) {
		return nil, shared.ErrNotFound
	}
	return s.principalByID(ctx, key.UserID, credential.SchemeAPIKey)
}

// ResolveBearer verifies a signed token and maps its subject to a principal.
func (s *Service) ResolveBearer(ctx context.Context, token string) (*Principal, error) {
	sub, err := s.issuer.Verify(token)
	if err != nil {
		return nil, err
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return s.principalByID(ctx, userID, credential.SchemeBearer)
}

func (s *Service) principalByID(ctx context.Context, userID int64, scheme credential.Scheme) (*Principal, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrNotFound
	}
	return &Principal{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		GlobalRole: user.GlobalRole,
		Scheme:     scheme,
	}, nil
}

// MintAPIKey generates a key for the user and stores only its digest. The raw
// secret is returned once and cannot be recovered afterwards.
func (s *Service) MintAPIKey(ctx context.Context, userID int64, label string, expiresInDays int) (string, *APIKey, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("identity: generate key: %w", err)
	}
	raw := apiKeyPrefix + base64.RawURLEncoding.EncodeToString(buf)

	var expiresAt *time.Time
	if expiresInDays > 0 {
		t := time.Now().AddDate(0, 0, expiresInDays)
		expiresAt = &t
	}

	key, err := s.store.CreateAPIKey(ctx, userID, strings.TrimSpace(label), raw[:len(apiKeyPrefix)+6], digest(raw), expiresAt)
	if err != nil {
		return "", nil, err
	}
	return raw, key, nil
}

// ListAPIKeys returns the user's keys.
func (s *Service) ListAPIKeys(ctx context.Context, userID int64) ([]APIKey, error) {
	return s.store.ListAPIKeysByUser(ctx, userID)
}

// GetAPIKey fetches a key by id.
func (s *Service) GetAPIKey(ctx context.Context, id int64) (*APIKey, error) {
	return s.store.GetAPIKeyByID(ctx, id)
}

// RevokeAPIKey deletes a key by id.
func (s *Service) RevokeAPIKey(ctx context.Context, id int64) error {
	return s.store.DeleteAPIKey(ctx, id)
}

// PurgeExpiredAPIKeys removes keys past their expiry.
func (s *Service) PurgeExpiredAPIKeys(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredAPIKeys(ctx, time.Now())
}

// IssueToken mints a signed token for the user.
func (s *Service) IssueToken(ctx context.Context, userID int64, audience string, scopes []string, ttl time.Duration) (string, time.Time, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.issuer.Issue(strconv.FormatInt(user.ID, 10), audience, scopes, ttl)
}

// JWKS exposes the public verification material.
func (s *Service) JWKS() any {
	return s.issuer.JWKS()
}

// ListUsers returns up to limit users.
func (s *Service) ListUsers(ctx context.Context, limit int32) ([]User, error) {
	return s.store.ListUsers(ctx, limit)
}

// FindUserByEmail exposes account lookup for membership operations.
func (s *Service) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.store.FindUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
}

// FindUserByID exposes account lookup by primary key.
func (s *Service) FindUserByID(ctx context.Context, id int64) (*User, error) {
	return s.store.FindUserByID(ctx, id)
}

// MintSession creates a persisted session bound to the user, used for
// impersonation and sign-in.
func (s *Service) MintSession(ctx context.Context, userID int64) (*shared.Session, error) {
	return s.sessions.Mint(ctx, strconv.FormatInt(userID, 10))
}

func digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
