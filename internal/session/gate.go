package session

import (
	"context"
	"strings"
)

// TokenVerifier decides whether a present token belongs to a live session.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// Gate guards admin views. The presence check happens here; what a token
// means is up to the verifier.
type Gate struct {
	verifier TokenVerifier
}

func NewGate(verifier TokenVerifier) *Gate {
	return &Gate{verifier: verifier}
}

func (g *Gate) Check(ctx context.Context, token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNoToken
	}
	return g.verifier.Verify(ctx, token)
}
