package jwt

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/levelup/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

func newTestJWT(t *testing.T, now time.Time) *Symmetric {
	t.Helper()
	j, err := NewHS512(Config{
		Secret:     []byte(strings.Repeat("k", 64)),
		Issuer:     "levelup",
		Audiences:  []string{"levelup-web"},
		TTLMinutes: 15 * time.Minute,
		Clock:      clock.Fixed(now),
		UUID:       fixedID("jti-1"),
	})
	require.NoError(t, err)
	return j
}

func TestSymmetric_GenerateVerify(t *testing.T) {
	// Arrange
	j := newTestJWT(t, time.Now())

	// Act
	token, err := j.Generate(42, "ada")
	require.NoError(t, err)
	clm, err := j.Verify(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(42), clm.UserID)
	assert.Equal(t, "ada", clm.Username)
	assert.Equal(t, "42", clm.Subject)
	assert.Equal(t, "jti-1", clm.ID)
}

func TestSymmetric_VerifyExpired(t *testing.T) {
	issued := newTestJWT(t, time.Now().Add(-time.Hour))
	token, err := issued.Generate(1, "old")
	require.NoError(t, err)

	_, err = newTestJWT(t, time.Now()).Verify(token)

	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestNewHS512_ShortSecret(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short")})

	assert.ErrorIs(t, err, ErrSigningKeyTooShort)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		url    string
		want   string
	}{
		{name: "header", header: "Bearer abc", url: "/ws", want: "abc"},
		{name: "case insensitive scheme", header: "bearer abc", url: "/ws", want: "abc"},
		{name: "query fallback", url: "/ws?access_token=xyz", want: "xyz"},
		{name: "malformed header falls back", header: "Token abc", url: "/ws?access_token=q", want: "q"},
		{name: "none", url: "/ws", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			assert.Equal(t, tt.want, BearerToken(r))
		})
	}
}

func TestSymmetric_VerifyRejectsTokensWithoutLearner(t *testing.T) {
	j := newTestJWT(t, time.Now())

	tests := []struct {
		name string
		uid  int64
	}{
		{name: "zero user id", uid: 0},
		{name: "negative user id", uid: -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := j.Generate(tt.uid, "ghost")
			require.NoError(t, err)

			_, err = j.Verify(token)

			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestSymmetric_VerifyRejectsForeignSecret(t *testing.T) {
	token, err := newTestJWT(t, time.Now()).Generate(5, "ana")
	require.NoError(t, err)

	other, err := NewHS512(Config{
		Secret:     []byte(strings.Repeat("x", 64)),
		Issuer:     "levelup",
		Audiences:  []string{"levelup-web"},
		TTLMinutes: 15 * time.Minute,
		Clock:      clock.New(),
		UUID:       fixedID("jti-2"),
	})
	require.NoError(t, err)

	_, err = other.Verify(token)

	assert.Error(t, err)
}
