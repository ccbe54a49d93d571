package fakebackend

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MarcGrol/shopfront/lib/myerrors"
)

type accessClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Scope  string `json:"scope"`
}

func (s *Service) issueToken(user User) (string, error) {
	now := s.nower.Now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.uuider.Create(),
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		UserID: user.UserID,
		Email:  user.Email,
		Scope:  "ROLE_USER",
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", myerrors.NewInternalError(fmt.Errorf("error signing token: %w", err))
	}
	return signed, nil
}

// verifyAccess accepts only unexpired, unrevoked tokens signed by this server.
func (s *Service) verifyAccess(raw string) (accessClaims, error) {
	claims, err := s.parse(raw, jwt.WithTimeFunc(s.nower.Now), jwt.WithExpirationRequired())
	if err != nil {
		return accessClaims{}, err
	}

	s.Lock()
	revoked := s.revoked[claims.ID]
	s.Unlock()

	if revoked {
		return accessClaims{}, myerrors.NewUnauthorizedError(errors.New("token has been revoked"))
	}
	return claims, nil
}

// verifyRefreshable checks the signature only: expired and revoked tokens may still be exchanged.
func (s *Service) verifyRefreshable(raw string) (accessClaims, error) {
	return s.parse(raw, jwt.WithoutClaimsValidation())
}

func (s *Service) parse(raw string, options ...jwt.ParserOption) (accessClaims, error) {
	claims := accessClaims{}
	options = append(options, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return s.signingKey, nil
	}, options...)
	if err != nil {
		return accessClaims{}, myerrors.NewUnauthorizedError(fmt.Errorf("invalid token: %w", err))
	}
	if claims.Subject == "" {
		return accessClaims{}, myerrors.NewUnauthorizedError(errors.New("token without subject"))
	}
	return claims, nil
}

func expiryOf(claims accessClaims) time.Time {
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
