// Package auth reads the identity carried by the bearer token that the
// content and persistence services issue. The token is never verified
// here: the services verify it on every request, and the client only
// needs the username to key local data and the expiry to fail fast.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoToken is returned when no bearer token is configured.
	ErrNoToken = errors.New("auth: no token")

	// ErrExpired is returned when the token's exp claim is in the past.
	ErrExpired = errors.New("auth: token expired")
)

// Identity is the user a token was issued to.
type Identity struct {
	Username  string
	Token     string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Anonymous reports whether the identity has no username.
func (i Identity) Anonymous() bool { return i.Username == "" }

type claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Parse extracts the identity from token as of now. The username comes
// from the "username" claim, falling back to "sub" and then "email".
func Parse(token string, now time.Time) (Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Identity{}, ErrNoToken
	}

	c := &claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, c); err != nil {
		return Identity{}, fmt.Errorf("parse token: %w", err)
	}

	id := Identity{Token: token}
	switch {
	case c.Username != "":
		id.Username = c.Username
	case c.Subject != "":
		id.Username = c.Subject
	default:
		id.Username = c.Email
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
		if !now.Before(id.ExpiresAt) {
			return id, ErrExpired
		}
	}
	if id.Username == "" {
		return id, errors.New("auth: token carries no username")
	}
	return id, nil
}

// Resolve picks the identity for a run. An explicit user always wins; the
// token is still parsed so an expired one is reported before any request
// is made. With neither a user nor a token the identity is anonymous.
func Resolve(user, token string, now time.Time) (Identity, error) {
	if token == "" {
		return Identity{Username: user}, nil
	}
	id, err := Parse(token, now)
	if err != nil {
		return Identity{Username: user, Token: token}, err
	}
	if user != "" {
		id.Username = user
	}
	return id, nil
}
