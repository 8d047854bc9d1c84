package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenService_GenerateAndValidate(t *testing.T) {
	req := require.New(t)
	service := NewTokenService("test-secret", "collab-live", time.Hour)

	// Given a signed token
	token, err := service.Generate("u1", "member")
	req.NoError(err)
	req.NotEmpty(token)

	// When validating it
	claims, err := service.Validate(token)

	// Then the claims round-trip
	req.NoError(err)
	req.Equal("u1", claims.UserID)
	req.Equal("member", claims.Role)
	req.Equal("collab-live", claims.Issuer)
}

func TestTokenService_RejectsWrongKey(t *testing.T) {
	req := require.New(t)
	issuing := NewTokenService("secret-a", "collab-live", time.Hour)
	validating := NewTokenService("secret-b", "collab-live", time.Hour)

	token, err := issuing.Generate("u1", "member")
	req.NoError(err)

	_, err = validating.Validate(token)
	req.Error(err)
}

func TestTokenService_RejectsExpiredToken(t *testing.T) {
	req := require.New(t)
	service := NewTokenService("test-secret", "collab-live", -time.Minute)

	token, err := service.Generate("u1", "member")
	req.NoError(err)

	_, err = service.Validate(token)
	req.Error(err)
}

func TestTokenService_RejectsForeignSigningMethod(t *testing.T) {
	req := require.New(t)
	service := NewTokenService("test-secret", "collab-live", time.Hour)

	// Given a well-formed token declaring the "none" algorithm
	claims := &CustomClaims{
		UserID: "u1",
		Role:   "member",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    "collab-live",
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	req.NoError(err)

	// Then validation refuses it before any key comparison
	_, err = service.Validate(unsigned)
	req.Error(err)
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	req := require.New(t)
	service := NewTokenService("test-secret", "collab-live", time.Hour)

	_, err := service.Validate("not-a-jwt")
	req.Error(err)
}
