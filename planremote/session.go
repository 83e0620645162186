// Copyright 2026 MoneyPlan Authors
// SPDX-License-Identifier: Apache-2.0

package planremote

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/thosapor1/moneyplan-ai-sub001/plansync"
)

// TokenSessionProvider derives the current session from the bearer token the
// gateway already uses. The token is parsed without signature verification:
// the client only needs the subject claim for owner injection, and the
// backend verifies the signature on every call.
type TokenSessionProvider struct {
	Token TokenFunc
}

// NewTokenSessionProvider creates a session provider backed by tok.
func NewTokenSessionProvider(tok TokenFunc) *TokenSessionProvider {
	return &TokenSessionProvider{Token: tok}
}

// Session returns the current user identity, or (nil, nil) when no token is
// available. Sync passes treat that as a silent skip.
func (p *TokenSessionProvider) Session(ctx context.Context) (*plansync.Session, error) {
	tokenString, err := p.Token(ctx)
	if err != nil || tokenString == "" {
		return nil, nil
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("session token missing sub claim")
	}
	return &plansync.Session{UserID: claims.Subject}, nil
}

// StaticSessionProvider always returns the same user. Used by tests and by
// single-user daemon deployments.
type StaticSessionProvider struct {
	UserID string
}

// Session returns the fixed session, or (nil, nil) when UserID is empty.
func (p *StaticSessionProvider) Session(ctx context.Context) (*plansync.Session, error) {
	if p.UserID == "" {
		return nil, nil
	}
	return &plansync.Session{UserID: p.UserID}, nil
}
