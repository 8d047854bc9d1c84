package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"collab-live/domain"
	"collab-live/errors"
	"collab-live/mocks"
)

func TestVerifier_ResolvesIdentity(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	tokens := NewTokenService("test-secret", "collab-live", time.Hour)
	users := mocks.NewMockUserDirectory(ctrl)
	verifier := NewVerifier(tokens, users)

	credential, err := tokens.Generate("u1", "member")
	req.NoError(err)

	// Given a known user behind the token subject
	users.EXPECT().GetUserDisplay(ctx, "u1").Return(domain.UserDisplay{
		Username:    "alice",
		DisplayName: "Alice Martin",
		Avatar:      "https://cdn.example.com/alice.png",
	}, nil)

	// When verifying the credential
	identity, err := verifier.Verify(ctx, credential)

	// Then claims and display merge into one identity
	req.NoError(err)
	req.Equal("u1", identity.UserID)
	req.Equal("alice", identity.Username)
	req.Equal("Alice Martin", identity.DisplayName)
	req.Equal("member", identity.Role)
}

func TestVerifier_RejectsEmptyCredential(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	verifier := NewVerifier(NewTokenService("test-secret", "collab-live", time.Hour), mocks.NewMockUserDirectory(ctrl))

	_, err := verifier.Verify(context.Background(), "")
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestVerifier_RejectsBadSignature(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	foreign := NewTokenService("other-secret", "collab-live", time.Hour)
	credential, err := foreign.Generate("u1", "member")
	req.NoError(err)

	// The directory must never be consulted for an invalid token
	verifier := NewVerifier(NewTokenService("test-secret", "collab-live", time.Hour), mocks.NewMockUserDirectory(ctrl))

	_, err = verifier.Verify(context.Background(), credential)
	req.ErrorIs(err, errors.ErrInvalidToken)
}

func TestVerifier_RejectsDeletedUser(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	tokens := NewTokenService("test-secret", "collab-live", time.Hour)
	users := mocks.NewMockUserDirectory(ctrl)
	verifier := NewVerifier(tokens, users)

	credential, err := tokens.Generate("gone", "member")
	req.NoError(err)

	// Given a valid token whose subject no longer exists
	users.EXPECT().GetUserDisplay(ctx, "gone").Return(domain.UserDisplay{}, errors.ErrUserNotFound)

	// Then the error stays generic
	_, err = verifier.Verify(ctx, credential)
	req.ErrorIs(err, errors.ErrInvalidToken)
}
