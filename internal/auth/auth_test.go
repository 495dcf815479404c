package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://clerk.example.com"

func generateKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() Claims {
	now := time.Now()
	return Claims{
		Email:           "Ana@Example.com",
		Name:            "Ana",
		Phone:           "8112345678",
		AuthorizedParty: "https://coolmorning.mx",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_123",
			Issuer:    testIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
}

func TestVerifier(t *testing.T) {
	key, pub := generateKey(t)
	v, err := NewVerifier(config.AuthConfig{
		PublicKey:         pub,
		Issuer:            testIssuer,
		AuthorizedParties: []string{"https://coolmorning.mx"},
		LeewaySeconds:     5,
	})
	require.NoError(t, err)

	t.Run("Valid", func(t *testing.T) {
		id, err := v.Verify(signToken(t, key, validClaims()))
		require.NoError(t, err)
		assert.Equal(t, "user_123", id.AuthID)
		assert.Equal(t, "ana@example.com", id.Email)
		assert.Equal(t, "Ana", id.Name)
		assert.Equal(t, "8112345678", id.Phone)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := v.Verify("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("Expired", func(t *testing.T) {
		c := validClaims()
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		_, err := v.Verify(signToken(t, key, c))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("NoExpiry", func(t *testing.T) {
		c := validClaims()
		c.ExpiresAt = nil
		_, err := v.Verify(signToken(t, key, c))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		c := validClaims()
		c.Issuer = "https://evil.example.com"
		_, err := v.Verify(signToken(t, key, c))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongKey", func(t *testing.T) {
		other, _ := generateKey(t)
		_, err := v.Verify(signToken(t, other, validClaims()))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("HS256Rejected", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte(pub))
		require.NoError(t, err)
		_, err = v.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("UnauthorizedParty", func(t *testing.T) {
		c := validClaims()
		c.AuthorizedParty = "https://other.example.com"
		_, err := v.Verify(signToken(t, key, c))
		assert.ErrorIs(t, err, ErrUnauthorizedParty)
	})

	t.Run("MissingSubject", func(t *testing.T) {
		c := validClaims()
		c.Subject = ""
		_, err := v.Verify(signToken(t, key, c))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewVerifier(t *testing.T) {
	_, pub := generateKey(t)
	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, []byte(pub), 0o600))

	_, err := NewVerifier(config.AuthConfig{PublicKeyFile: path})
	assert.NoError(t, err)

	_, err = NewVerifier(config.AuthConfig{PublicKeyFile: filepath.Join(t.TempDir(), "missing.pem")})
	assert.Error(t, err)

	_, err = NewVerifier(config.AuthConfig{PublicKey: "not a pem"})
	assert.Error(t, err)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, TokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer abc.def")
	assert.Equal(t, "abc.def", TokenFromRequest(r))

	r.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	assert.Empty(t, TokenFromRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "cookie.token"})
	assert.Equal(t, "cookie.token", TokenFromRequest(r))
}

func TestMiddleware(t *testing.T) {
	key, pub := generateKey(t)
	v, err := NewVerifier(config.AuthConfig{PublicKey: pub})
	require.NoError(t, err)

	var gotAuthID string
	h := Middleware(v, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		require.True(t, ok)
		gotAuthID = id.AuthID
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rr.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, key, validClaims()))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "user_123", gotAuthID)
}
