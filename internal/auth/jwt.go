package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims bind a browser to its console.
type Claims struct {
	ConsoleID string `json:"consoleId"`
	UserID    int    `json:"userId,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs a console cookie valid for ttl.
func GenerateToken(secret, consoleID string, userID int, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		ConsoleID: consoleID,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ConsoleID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
