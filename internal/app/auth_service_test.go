package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragdocs/internal/pkg/jwtutil"
	"ragdocs/internal/repository"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(repository.NewUserRepository(newTestDB(t)), "test-secret", time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)

	registered, err := svc.Register(RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.NotNil(t, registered)
	assert.NotZero(t, registered.User.ID)
	assert.Equal(t, "alice@example.com", registered.User.Email, "email is normalised to lower case")
	assert.NotEqual(t, "correct horse", registered.User.PasswordHash)

	claims, err := jwtutil.ParseToken("test-secret", registered.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	logged, err := svc.Login(LoginInput{Username: "alice", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, logged.User.ID)
	assert.NotEmpty(t, logged.Token)
}

func TestRegisterValidation(t *testing.T) {
	svc := newAuthService(t)

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{name: "short username", input: RegisterInput{Username: "ab", Email: "a@b.com", Password: "longenough"}},
		{name: "empty email", input: RegisterInput{Username: "alice", Email: "  ", Password: "longenough"}},
		{name: "short password", input: RegisterInput{Username: "alice", Email: "a@b.com", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(tt.input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRegisterDuplicates(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(RegisterInput{Username: "alice", Email: "alice@example.com", Password: "longenough"})
	require.NoError(t, err)

	_, err = svc.Register(RegisterInput{Username: "alice", Email: "other@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = svc.Register(RegisterInput{Username: "bob", Email: "alice@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLoginBadCredentials(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Register(RegisterInput{Username: "alice", Email: "alice@example.com", Password: "longenough"})
	require.NoError(t, err)

	_, err = svc.Login(LoginInput{Username: "alice", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(LoginInput{Username: "nobody", Password: "longenough"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(LoginInput{Username: "", Password: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
