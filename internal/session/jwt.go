// File: internal/session/jwt.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JWTService mints and verifies HS256 session tokens signed with SESSION_JWT_SECRET.
type JWTService struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewJWTService(secret, issuer string, lifetime time.Duration, logger *zap.Logger) *JWTService {
	return &JWTService{
		secret:   []byte(secret),
		issuer:   issuer,
		lifetime: lifetime,
		now:      time.Now,
		logger:   logger.Named("JWTService"),
	}
}

func (s *JWTService) Mint(ctx context.Context, userID string, claims map[string]interface{}) (string, error) {
	now := s.now()
	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	// Registered claims are set last so hints can never override them.
	mc["sub"] = userID
	mc["iss"] = s.issuer
	mc["iat"] = jwt.NewNumericDate(now)
	mc["exp"] = jwt.NewNumericDate(now.Add(s.lifetime))
	mc["jti"] = uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to sign session token", zap.Error(err))
		return "", fmt.Errorf("could not sign session token: %w", err)
	}
	return tokenString, nil
}

// VerifySession validates a session token and returns its subject.
func (s *JWTService) VerifySession(ctx context.Context, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.logger.Debug("Failed to validate session token", zap.Error(err))
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token claims")
	}
	return claims.Subject, nil
}
