package auth

import (
	"context"
	"fmt"

	"collab-live/contract"
	"collab-live/domain"
	"collab-live/errors"
)

// Verifier resolves a connection credential to a full Identity. It checks
// the JWT first, then confirms the subject still exists in the user
// directory: a valid token for a deleted user must not admit a connection.
type Verifier struct {
	tokens *TokenService
	users  contract.UserDirectory
}

func NewVerifier(tokens *TokenService, users contract.UserDirectory) *Verifier {
	return &Verifier{tokens: tokens, users: users}
}

func (v *Verifier) Verify(ctx context.Context, credential string) (domain.Identity, error) {
	if credential == "" {
		return domain.Identity{}, errors.ErrInvalidToken
	}

	claims, err := v.tokens.Validate(credential)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	display, err := v.users.GetUserDisplay(ctx, claims.UserID)
	if err != nil {
		// Generic error: do not leak whether the token or the account is the problem.
		return domain.Identity{}, errors.ErrInvalidToken
	}

	return domain.Identity{
		UserID:      claims.UserID,
		Username:    display.Username,
		DisplayName: display.DisplayName,
		Avatar:      display.Avatar,
		Role:        claims.Role,
	}, nil
}
