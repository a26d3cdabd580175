package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"huddle/domain"
	"huddle/errors"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates the HS256 tokens that gate every
// websocket accept. The secret comes from configuration, never from
// the binary.
type TokenManager struct {
	secret   []byte
	duration time.Duration
}

func NewTokenManager(secret string, duration time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), duration: duration}
}

// Generate creates a signed JWT for a specific user.
func (t *TokenManager) Generate(principal domain.Principal) (string, error) {
	expirationTime := time.Now().Add(t.duration)

	claims := &CustomClaims{
		UserID: principal.UserID,
		Name:   principal.Name,
		Avatar: principal.Avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "huddle",
		},
	}

	// Create the token using the HS256 algorithm (HMAC with SHA256).
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	// Sign the token with the server's secret key.
	return token.SignedString(t.secret)
}

// Validate parses and validates the signature and expiration of a JWT string.
func (t *TokenManager) Validate(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}

// Authenticate resolves a raw token into the principal it names.
// Any validation failure surfaces as ErrAuthenticationFailed so the
// transport maps it to a single close code.
func (t *TokenManager) Authenticate(token string) (domain.Principal, error) {
	claims, err := t.Validate(token)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", errors.ErrAuthenticationFailed, err)
	}
	if claims.UserID == "" {
		return domain.Principal{}, fmt.Errorf("%w: token has no user id", errors.ErrAuthenticationFailed)
	}

	return domain.Principal{
		UserID: claims.UserID,
		Name:   claims.Name,
		Avatar: claims.Avatar,
	}, nil
}
