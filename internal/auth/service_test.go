package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/firewatch/internal/auth"
)

func TestLogin(t *testing.T) {
	svc := auth.NewService("test-secret", "operator", "hunter2")

	t.Run("should issue verifiable token for valid credentials", func(t *testing.T) {
		token, err := svc.Login("operator", "hunter2")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := svc.VerifyToken(token)
		require.NoError(t, err)
		assert.Equal(t, "operator", claims.Username)
		assert.Equal(t, "operator", claims.Role)
	})

	t.Run("should reject wrong password", func(t *testing.T) {
		_, err := svc.Login("operator", "wrong")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("should reject unknown user", func(t *testing.T) {
		_, err := svc.Login("intruder", "hunter2")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestVerifyToken(t *testing.T) {
	svc := auth.NewService("test-secret", "operator", "hunter2")

	t.Run("should accept bearer prefix", func(t *testing.T) {
		token, err := svc.Login("operator", "hunter2")
		require.NoError(t, err)

		claims, err := svc.VerifyToken("Bearer " + token)
		require.NoError(t, err)
		assert.Equal(t, "operator", claims.Username)
	})

	t.Run("should reject garbage", func(t *testing.T) {
		_, err := svc.VerifyToken("not-a-token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("should reject token signed with another secret", func(t *testing.T) {
		other := auth.NewService("other-secret", "operator", "hunter2")
		token, err := other.Login("operator", "hunter2")
		require.NoError(t, err)

		_, err = svc.VerifyToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
