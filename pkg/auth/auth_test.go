package auth_test

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"swiftjobs-backend/pkg/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hs256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestVerify_HS256(t *testing.T) {
	v := auth.NewVerifier("s3cret", "")
	require.True(t, v.Enabled())

	id, err := v.Verify(hs256(t, "s3cret", jwt.MapClaims{
		"sub": "user-1", "role": "employer", "exp": time.Now().Add(time.Hour).Unix(),
	}))
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, "employer", id.Role)
}

func TestVerify_RejectsBadTokens(t *testing.T) {
	v := auth.NewVerifier("s3cret", "")
	future := time.Now().Add(time.Hour).Unix()

	tests := map[string]string{
		"wrong secret": hs256(t, "other", jwt.MapClaims{"sub": "u", "exp": future}),
		"expired":      hs256(t, "s3cret", jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Hour).Unix()}),
		"no expiry":    hs256(t, "s3cret", jwt.MapClaims{"sub": "u"}),
		"no subject":   hs256(t, "s3cret", jwt.MapClaims{"exp": future}),
		"garbage":      "not-a-token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			assert.Error(t, err)
		})
	}
}

func TestVerify_Disabled(t *testing.T) {
	v := auth.NewVerifier("", "")
	assert.False(t, v.Enabled())
	_, err := v.Verify("anything")
	assert.ErrorIs(t, err, auth.ErrNoVerifier)
}

func TestVerify_RS256FromJWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var fetches int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kid": "k1",
				"kty": "RSA",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
	defer srv.Close()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": "user-2", "exp": time.Now().Add(time.Hour).Unix(),
	})
	token.Header["kid"] = "k1"
	signed, err := token.SignedString(key)
	require.NoError(t, err)

	v := auth.NewVerifier("", srv.URL)
	for i := 0; i < 3; i++ {
		id, err := v.Verify(signed)
		require.NoError(t, err)
		assert.Equal(t, "user-2", id.UserID)
	}
	assert.Equal(t, 1, fetches, "keys are cached")

	token.Header["kid"] = "unknown"
	signed, err = token.SignedString(key)
	require.NoError(t, err)
	_, err = v.Verify(signed)
	assert.Error(t, err)
}
