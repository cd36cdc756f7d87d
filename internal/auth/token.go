// Package auth issues and verifies session tokens.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"mesto/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// Issuer is the iss claim of every session token.
	Issuer = "mesto-api"
	// Audience is the aud claim of every session token.
	Audience = "mesto-client"
	// TokenTTL is the lifetime of a session token and its cookie.
	TokenTTL = 7 * 24 * time.Hour
)

// Claims are the verified parts of a session token.
type Claims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

// IssueToken signs a session token for userID with HS256.
func IssueToken(key []byte, userID uint) (string, Claims, error) {
	if len(key) == 0 {
		return "", Claims{}, errors.New("JWT secret not configured")
	}

	now := time.Now()
	claims := Claims{
		UserID:    userID,
		JTI:       uuid.NewString(),
		ExpiresAt: now.Add(TokenTTL),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": Issuer,
		"aud": Audience,
		"exp": claims.ExpiresAt.Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": claims.JTI,
	})

	signed, err := token.SignedString(key)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

// ParseToken verifies signature, expiry, issuer and audience and returns
// the claims. Every failure is an unauthorized AppError.
func ParseToken(key []byte, tokenString string) (Claims, error) {
	if tokenString == "" {
		return Claims{}, models.NewUnauthorizedError("Authorization required")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return key, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return Claims{}, models.NewUnauthorizedError("Invalid or expired token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, models.NewUnauthorizedError("Invalid token claims")
	}

	sub, ok := mapClaims["sub"].(string)
	if !ok {
		return Claims{}, models.NewUnauthorizedError("Invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return Claims{}, models.NewUnauthorizedError("Invalid user ID in token")
	}

	claims := Claims{UserID: uint(userID)}
	claims.JTI, _ = mapClaims["jti"].(string)
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}
