package jwt

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shandysiswandi/levelup/internal/pkg/goerror"
)

var (
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")
	ErrSigningKeyTooShort   = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")
	ErrTokenExpired         = errors.New("JWT token has expired")
	// ErrInvalidToken covers malformed tokens and tokens that do not name a learner.
	ErrInvalidToken = errors.New("invalid token")
)

type JWT interface {
	Generate(uid int64, username string) (string, error)
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type Config struct {
	// Secret must be at least 64 bytes.
	Secret     []byte
	Issuer     string
	Audiences  []string
	TTLMinutes time.Duration
	Clock      clocker
	// UUID generates the jti of issued tokens.
	UUID generator
}

// Claims identify the learner behind a request or socket.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id,string"`
	// Username is the handle shown on the leaderboard.
	Username string `json:"username"`
}

type authKey struct{}

// GetAuth returns the claims stored by the authentication middleware, or nil.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(authKey{}).(Claims)
	if !ok {
		return nil
	}
	return &clm
}

func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, authKey{}, clm)
}

// RequireAuth is GetAuth for usecases: a request without claims is a 401 business error.
func RequireAuth(ctx context.Context) (*Claims, error) {
	if clm := GetAuth(ctx); clm != nil {
		return clm, nil
	}
	return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
}

// BearerToken reads the Authorization header. Browsers cannot set headers on a
// websocket handshake or an EventSource, so the access_token query parameter is
// accepted when the header is absent or not a bearer.
func BearerToken(r *http.Request) string {
	if scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " "); ok &&
		strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}
