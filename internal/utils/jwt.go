package utils

import (
	"errors"
	"strconv"
	"time"

	"blizz/internal/config"
	"blizz/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "blizz-api"

// GenerateTokens creates an access/refresh token pair for the given user
// claims. The signing secret comes from JWT_SECRET; the lifetimes can be
// tuned with JWT_ACCESS_TTL and JWT_REFRESH_TTL.
func GenerateTokens(claims *models.UserClaims) (accessToken string, refreshToken string, err error) {
	secret := config.GetEnv("JWT_SECRET", "")
	if secret == "" {
		return "", "", errors.New("JWT_SECRET not configured")
	}

	accessToken, err = signToken(claims, secret, config.GetDurationEnv("JWT_ACCESS_TTL", 15*time.Minute))
	if err != nil {
		return "", "", err
	}
	refreshToken, err = signToken(claims, secret, config.GetDurationEnv("JWT_REFRESH_TTL", 7*24*time.Hour))
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func signToken(claims *models.UserClaims, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	full := models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(claims.UserID), 10),
		},
		UserID:       claims.UserID,
		Email:        claims.Email,
		Role:         claims.Role,
		TokenVersion: claims.TokenVersion,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, full).SignedString([]byte(secret))
}

// ParseToken validates a token's signature, expiry, and issuer and returns
// its claims.
func ParseToken(tokenStr string) (*jwt.Token, *models.UserClaims, error) {
	secret := config.GetEnv("JWT_SECRET", "")
	if secret == "" {
		return nil, nil, errors.New("JWT_SECRET not configured")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, nil, err
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid {
		return nil, nil, errors.New("invalid token claims")
	}
	return token, claims, nil
}
