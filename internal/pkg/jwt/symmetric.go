package jwt

import (
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

const minSecretLen = 64

// Symmetric signs and verifies HS512 tokens with a shared secret.
type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	clock     clocker
	uuid      generator
	parser    *libJWT.Parser
}

func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, ErrSigningKeyTooShort
	}

	return &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTLMinutes,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
		parser: libJWT.NewParser(
			libJWT.WithIssuer(cfg.Issuer),
			libJWT.WithAudience(cfg.Audiences...),
			libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
			libJWT.WithIssuedAt(),
			libJWT.WithExpirationRequired(),
			libJWT.WithTimeFunc(cfg.Clock.Now),
		),
	}, nil
}

func (s *Symmetric) Generate(uid int64, username string) (string, error) {
	now := s.clock.Now()

	claims := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.uuid.Generate(),
			Subject:   strconv.FormatInt(uid, 10),
			Issuer:    s.issuer,
			Audience:  s.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:   uid,
		Username: username,
	}

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(s.secret)
}

// Verify validates tokenStr and returns its claims. The user id names the learner's
// recipient channel, so a token without a positive id matching its subject is invalid.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	token, err := s.parser.ParseWithClaims(tokenStr, &claims, func(t *libJWT.Token) (any, error) {
		if t.Method != libJWT.SigningMethodHS512 {
			return nil, ErrInvalidSigningMethod
		}
		return s.secret, nil
	})
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, err
	case !token.Valid:
		return Claims{}, ErrInvalidToken
	}

	if claims.UserID <= 0 || claims.Subject != strconv.FormatInt(claims.UserID, 10) {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
