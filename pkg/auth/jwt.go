package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/taskhive/backend/domain"
)

// TokenManager issues and verifies the HMAC-signed tokens that authenticate
// both REST requests and websocket handshakes.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Generate signs a token carrying the user identity.
func (m *TokenManager) Generate(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iss":     m.issuer,
		"iat":     now.Unix(),
		"exp":     now.Add(m.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify validates the token signature and expiry and returns the embedded
// user id.
func (m *TokenManager) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthorized
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", domain.WrapError(domain.ErrCodeUnauthorized, "invalid token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", domain.ErrUnauthorized
	}
	return userID, nil
}
