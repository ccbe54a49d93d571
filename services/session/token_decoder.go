package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims holds what the client reads from a bearer token without verifying it.
type TokenClaims struct {
	Subject   string
	UserID    string
	Email     string
	Scope     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type storefrontClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Scope  string `json:"scope,omitempty"`
}

type TokenDecoder interface {
	Decode(rawToken string) (TokenClaims, error)
}

type jwtDecoder struct {
	parser *jwt.Parser
}

func NewTokenDecoder() TokenDecoder {
	return &jwtDecoder{
		parser: jwt.NewParser(),
	}
}

// Decode reads the claims; the signature is the identity service's business.
func (d *jwtDecoder) Decode(rawToken string) (TokenClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return TokenClaims{}, errors.New("empty token")
	}

	claims := &storefrontClaims{}
	_, _, err := d.parser.ParseUnverified(rawToken, claims)
	if err != nil {
		return TokenClaims{}, fmt.Errorf("error parsing token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return TokenClaims{}, errors.New("token carries no expiry")
	}

	decoded := TokenClaims{
		Subject:   claims.Subject,
		UserID:    claims.UserID,
		Email:     claims.Email,
		Scope:     claims.Scope,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		decoded.IssuedAt = claims.IssuedAt.Time
	}
	return decoded, nil
}
