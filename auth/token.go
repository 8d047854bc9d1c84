package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and validates the JWTs used as connection credentials.
// The signing key is injected from configuration; the REST layer issues
// tokens with the same key.
type TokenService struct {
	key      []byte
	issuer   string
	duration time.Duration
}

func NewTokenService(secret, issuer string, duration time.Duration) *TokenService {
	return &TokenService{key: []byte(secret), issuer: issuer, duration: duration}
}

// Generate creates a signed JWT for a specific user. Used by the dev token
// tool and by tests; production tokens come from the REST layer.
func (s *TokenService) Generate(userID, role string) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}

	// HS256: HMAC with SHA256, symmetric with the issuing side.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Validate parses and validates the signature and expiration of a JWT string.
// The signing method is pinned to HS256 so a token declaring another
// algorithm never reaches the HMAC key.
func (s *TokenService) Validate(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
