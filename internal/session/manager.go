package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrNoToken      = errors.New("session token missing")
	ErrInvalidToken = errors.New("session token invalid")
	ErrRevoked      = errors.New("session ended")
)

// Claims is what a verified token tells the caller.
type Claims struct {
	SessionID string
	Username  string
	ExpiresAt time.Time
}

// Manager issues HS256 tokens and tracks their ids in a Store, so a token
// stops working on logout even before it expires.
type Manager struct {
	secret []byte
	ttl    time.Duration
	store  Store
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration, store Store) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		store:  store,
		now:    time.Now,
	}
}

func (m *Manager) Issue(ctx context.Context, username string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	id := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        id,
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}

	if err := m.store.Save(ctx, id, username, m.ttl); err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks the signature and expiry, then asks the store whether the
// session is still live.
func (m *Manager) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}

	live, err := m.store.Exists(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Revoke ends the session behind token. Revoking an already ended session
// is not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return err
	}
	return m.store.Delete(ctx, claims.SessionID)
}

func (m *Manager) parse(token string) (*Claims, error) {
	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &rc, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if rc.ID == "" || rc.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{
		SessionID: rc.ID,
		Username:  rc.Subject,
		ExpiresAt: rc.ExpiresAt.Time,
	}, nil
}
