package auth

import (
	"errors"
	"fmt"
	"time"

	"music-store/internal/apperrors"
	"music-store/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by every issued token. UserID serializes as the standard
// "sub" claim; iat/exp come from the embedded registered claims.
type Claims struct {
	UserID int64  `json:"sub"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies compact signed credentials. It holds no
// server-side state: any process with the same secret can verify tokens
// issued by any other.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService fails when no signing secret is configured.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// Issue produces a signed token for the user with the service's TTL.
func (t *TokenService) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses and validates a token, mapping library failures onto the
// service error taxonomy. Signature comparison inside the library is
// constant-time.
func (t *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrInvalidSignature
		}
		return t.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, apperrors.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, apperrors.ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, apperrors.ErrTokenMalformed
		default:
			return nil, apperrors.ErrUnauthorized
		}
	}

	if !token.Valid {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}
