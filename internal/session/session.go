package session

import (
	"context"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Session holds the commerce API access token and the minimal identity
// decoded from it. One session exists per logged-in browser; it is resolved
// once by middleware and handed to everything else through the request
// context, never read from ambient globals.
type Session struct {
	ID     string `json:"id"`
	Token  string `json:"token"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

type ctxKey string

const sessionCtx ctxKey = "session"

// WithContext attaches the session to a request context.
func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtx, s)
}

// FromContext returns the attached session, or nil for anonymous requests.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionCtx).(*Session)
	return s
}

// FromToken builds a session from an access token issued by the commerce
// API. The token is parsed without signature verification: the API is the
// issuer and verifies it on every call we forward it to; we only need the
// identity claims for display and for user-scoped endpoints.
func FromToken(token string) (*Session, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", parsed.Claims)
	}

	userID, err := subjectID(claims)
	if err != nil {
		return nil, err
	}

	s := &Session{Token: token, UserID: userID}
	if v, ok := claims["name"].(string); ok {
		s.Name = v
	}
	if v, ok := claims["email"].(string); ok {
		s.Email = v
	}
	return s, nil
}

// subjectID reads the user id from "nameid" (what the commerce API issues)
// falling back to the standard "sub" claim. Either may arrive as a JSON
// number or a string.
func subjectID(claims jwt.MapClaims) (int64, error) {
	for _, key := range []string{"nameid", "sub"} {
		switch v := claims[key].(type) {
		case float64:
			return int64(v), nil
		case string:
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("claim %q is not a user id: %w", key, err)
			}
			return id, nil
		}
	}
	return 0, fmt.Errorf("token carries no user id claim")
}
