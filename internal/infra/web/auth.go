package web

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingCredentials = errors.New("missing credentials")
	errInvalidToken       = errors.New("invalid token")
)

const apiKeyHeader = "X-API-KEY"

// ServiceClaims identify the internal service calling the REST API.
type ServiceClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator accepts either the shared API key or an HS256 token signed with the JWT secret.
// Either credential may be left unconfigured; with neither set every request is refused.
type Authenticator struct {
	apiKey    []byte
	jwtSecret []byte
}

func NewAuthenticator(apiKey, jwtSecret string) *Authenticator {
	return &Authenticator{apiKey: []byte(apiKey), jwtSecret: []byte(jwtSecret)}
}

func (a *Authenticator) Configured() bool {
	return len(a.apiKey) > 0 || len(a.jwtSecret) > 0
}

// Mint signs a service token valid for ttl.
func (a *Authenticator) Mint(subject string, ttl time.Duration) (string, error) {
	if len(a.jwtSecret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := ServiceClaims{
		Role: "service",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   subject,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
}

// Authenticate checks X-API-KEY first, then Authorization: Bearer <jwt>.
func (a *Authenticator) Authenticate(r *http.Request) (string, error) {
	if key := r.Header.Get(apiKeyHeader); key != "" {
		if len(a.apiKey) == 0 || subtle.ConstantTimeCompare([]byte(key), a.apiKey) != 1 {
			return "", errInvalidToken
		}
		return "api-key", nil
	}
	hdr := r.Header.Get("Authorization")
	if len(hdr) > 7 && strings.EqualFold(hdr[:7], "bearer ") {
		claims, err := a.parse(strings.TrimSpace(hdr[7:]))
		if err != nil {
			return "", err
		}
		return claims.Subject, nil
	}
	return "", errMissingCredentials
}

func (a *Authenticator) parse(tok string) (*ServiceClaims, error) {
	if len(a.jwtSecret) == 0 {
		return nil, errInvalidToken
	}
	claims := &ServiceClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}
