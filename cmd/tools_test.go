package cmd

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitbridge/internal/session"
	"fitbridge/pkg/oauth"
)

func TestSecretGenerate(t *testing.T) {
	var buf bytes.Buffer
	c := newSecretCmd()
	c.SetOut(&buf)
	c.SetArgs([]string{"generate"})
	require.NoError(t, c.Execute())

	secret := strings.TrimSpace(buf.String())
	assert.Len(t, secret, 64)
	key, err := hex.DecodeString(secret)
	require.NoError(t, err)
	assert.Len(t, key, session.KeySize)
}

func TestMealCommand(t *testing.T) {
	tests := map[string]string{
		"07:30": "Breakfast (1)\n",
		"9:05":  "Breakfast (1)\n",
		"11:30": "Lunch (3)\n",
		"16:29": "Afternoon Snack (4)\n",
		"21:00": "Anytime (7)\n",
	}
	for arg, want := range tests {
		t.Run(arg, func(t *testing.T) {
			var buf bytes.Buffer
			c := newMealCmd()
			c.SetOut(&buf)
			c.SetArgs([]string{arg})
			require.NoError(t, c.Execute())
			assert.Equal(t, want, buf.String())
		})
	}
}

func TestMealCommand_InvalidTime(t *testing.T) {
	c := newMealCmd()
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})
	c.SetArgs([]string{"noon"})
	err := c.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "24 hour time")
}

func TestInspectSession(t *testing.T) {
	secret := strings.Repeat("42", 32)
	key, err := hex.DecodeString(secret)
	require.NoError(t, err)
	codec, err := session.NewCodec(key)
	require.NoError(t, err)

	fixed := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	original := now
	now = func() time.Time { return fixed }
	defer func() { now = original }()

	cookie, err := codec.Encrypt(session.Data{
		TokenSet: &oauth.TokenSet{
			AccessToken:  "access-token-value-that-is-long",
			RefreshToken: "refresh-token-value-that-is-long",
			TokenType:    "Bearer",
			Scope:        "nutrition profile",
			UserID:       "ABC123",
			ExpiresIn:    3600,
			ExpiresAt:    fixed.Add(time.Hour),
		},
	})
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, inspectSession(&buf, secret, cookie))
		out := buf.String()
		assert.Contains(t, out, "ABC123")
		assert.Contains(t, out, "nutrition profile")
		assert.NotContains(t, out, "missingScopes")
		assert.Contains(t, out, "2024-03-10T13:00:00Z")
		assert.Contains(t, out, "[REDACTED]")
		assert.NotContains(t, out, "access-token-value-that-is-long")
		assert.NotContains(t, out, "refresh-token-value-that-is-long")
	})

	t.Run("missing scopes", func(t *testing.T) {
		partial, err := codec.Encrypt(session.Data{
			TokenSet: &oauth.TokenSet{
				AccessToken:  "a",
				RefreshToken: "r",
				TokenType:    "Bearer",
				Scope:        "profile",
				UserID:       "ABC123",
				ExpiresIn:    3600,
				ExpiresAt:    fixed.Add(time.Hour),
			},
		})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, inspectSession(&buf, secret, partial))
		assert.Contains(t, buf.String(), "missingScopes")
		assert.Contains(t, buf.String(), "nutrition")
	})

	t.Run("wrong secret", func(t *testing.T) {
		err := inspectSession(&bytes.Buffer{}, strings.Repeat("24", 32), cookie)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tampered session")
	})

	t.Run("malformed", func(t *testing.T) {
		err := inspectSession(&bytes.Buffer{}, secret, "not a cookie")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid envelope")
	})

	t.Run("missing secret", func(t *testing.T) {
		err := inspectSession(&bytes.Buffer{}, "", cookie)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SESSION_SECRET")
	})
}
