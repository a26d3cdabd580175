package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"huddle/domain"
	"huddle/errors"
)

func TestGenerateAndAuthenticate(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test_secret_key_for_unit_tests", time.Hour)
	alice := domain.Principal{UserID: "u-1", Name: "Alice", Avatar: "https://example.com/a.png"}

	token, err := manager.Generate(alice)
	req.NoError(err)
	req.NotEmpty(token)

	principal, err := manager.Authenticate(token)
	req.NoError(err)
	req.Equal(alice, principal)
}

func TestAuthenticate_Rejects_Garbage(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test_secret_key_for_unit_tests", time.Hour)

	_, err := manager.Authenticate("not-a-jwt")
	req.ErrorIs(err, errors.ErrAuthenticationFailed)
}

func TestAuthenticate_Rejects_Wrong_Secret(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenManager("the_right_secret", time.Hour)
	validator := NewTokenManager("a_different_secret", time.Hour)

	token, err := issuer.Generate(domain.Principal{UserID: "u-1", Name: "Alice"})
	req.NoError(err)

	_, err = validator.Authenticate(token)
	req.ErrorIs(err, errors.ErrAuthenticationFailed)
}

func TestAuthenticate_Rejects_Expired_Token(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test_secret_key_for_unit_tests", -time.Minute)

	// Signing an already expired token works, accepting it must not
	token, err := manager.Generate(domain.Principal{UserID: "u-1", Name: "Alice"})
	req.NoError(err)

	_, err = manager.Authenticate(token)
	req.ErrorIs(err, errors.ErrAuthenticationFailed)
}
