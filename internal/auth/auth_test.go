package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/streamline/internal/config"
)

var testKey = []byte(strings.Repeat("k", 32))

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	iss, err := NewIssuer(testKey, "streamline", time.Hour)
	require.NoError(t, err)
	return iss
}

func TestNewIssuer_Validation(t *testing.T) {
	_, err := NewIssuer([]byte("short"), "streamline", time.Hour)
	assert.Error(t, err)

	_, err = NewIssuer(testKey, "streamline", 0)
	assert.Error(t, err)
}

func TestIssuer_IssueAndVerify(t *testing.T) {
	iss := newTestIssuer(t)

	token, err := iss.Issue("ada")
	require.NoError(t, err)

	claims, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ada", claims.Subject)
	assert.Equal(t, "streamline", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, claims.IssuedAt.Add(time.Hour), claims.ExpiresAt, time.Second)

	_, err = iss.Issue("  ")
	assert.Error(t, err)
}

func TestIssuer_VerifyExpired(t *testing.T) {
	iss := newTestIssuer(t)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := iss.Issue("ada")
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestIssuer_VerifyRejects(t *testing.T) {
	iss := newTestIssuer(t)

	other, err := NewIssuer([]byte(strings.Repeat("x", 32)), "streamline", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue("ada")
	require.NoError(t, err)

	wrongIssuer, err := NewIssuer(testKey, "someone-else", time.Hour)
	require.NoError(t, err)
	misissued, err := wrongIssuer.Issue("ada")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "ada",
		Issuer:    "streamline",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "ada",
		Issuer:  "streamline",
	}).SignedString(testKey)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not-a-jwt", ErrInvalidToken},
		{"wrong key", foreign, ErrInvalidToken},
		{"wrong issuer", misissued, ErrInvalidToken},
		{"alg none", none, ErrInvalidToken},
		{"no expiry", noExpiry, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := iss.Verify(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStaticToken(t *testing.T) {
	v := NewStaticToken("shared", "static")

	claims, err := v.Verify("shared")
	require.NoError(t, err)
	assert.Equal(t, "static", claims.Subject)

	_, err = v.Verify("other")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestFromConfig(t *testing.T) {
	v, iss, err := FromConfig(config.AuthConfig{})
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Nil(t, iss)

	v, iss, err = FromConfig(config.AuthConfig{StaticToken: "shared"})
	require.NoError(t, err)
	assert.IsType(t, &StaticToken{}, v)
	assert.Nil(t, iss)

	v, iss, err = FromConfig(config.AuthConfig{
		SigningKey: config.Secret(testKey),
		Issuer:     "streamline",
		TokenTTL:   config.Duration(time.Hour),
	})
	require.NoError(t, err)
	require.NotNil(t, iss)
	assert.Same(t, iss, v)

	_, _, err = FromConfig(config.AuthConfig{SigningKey: "short", TokenTTL: config.Duration(time.Hour)})
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		err    error
	}{
		{"Bearer abc", "abc", nil},
		{"bearer  abc ", "abc", nil},
		{"", "", ErrMissingToken},
		{"Basic abc", "", ErrInvalidToken},
		{"Bearer", "", ErrInvalidToken},
		{"Bearer   ", "", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
