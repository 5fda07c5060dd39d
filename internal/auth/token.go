package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"

	"monochrome/internal/models"
)

var (
	// ErrMissingCredential means no credential was supplied at all.
	ErrMissingCredential = errors.New("auth: no credential supplied")
	// ErrInvalidCredential wraps the underlying verification failure
	// (expired, malformed, signature mismatch) after all candidates have
	// been tried.
	ErrInvalidCredential = errors.New("auth: invalid credential")
)

// Principal is the verified identity attached to a request. The zero value
// is anonymous.
type Principal struct {
	ID   string
	Role models.Role
}

func (p Principal) IsAnonymous() bool { return p.ID == "" }

func (p Principal) IsAdmin() bool { return p.ID != "" && p.Role == models.RoleAdmin }

// Claims is the signed payload of a credential: who, in what role, until
// when.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service mints and verifies credentials. It is pure: a function of the
// signing key, the clock and its inputs, with no I/O and no shared state.
type Service struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewService(key []byte, ttl time.Duration) *Service {
	return &Service{key: key, ttl: ttl, now: time.Now}
}

// Mint signs a credential for u, valid for the configured TTL.
func (s *Service) Mint(u *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// ParseHeader turns a raw Authorization header value into a verified
// Principal. Browsers holding corrupted localStorage values send quoted
// tokens, tokens with embedded whitespace, and two tokens glued together
// with a dot, so the value is run through Normalize first and every
// resulting candidate is verified in order. The first candidate that
// verifies wins; if none do, the error carries the last failure cause.
func (s *Service) ParseHeader(raw string) (Principal, error) {
	candidates := Normalize(raw)
	if len(candidates) == 0 {
		return Principal{}, ErrMissingCredential
	}
	var last error
	for _, candidate := range candidates {
		p, err := s.verify(candidate)
		if err == nil {
			return p, nil
		}
		last = err
	}
	return Principal{}, fmt.Errorf("%w: %w", ErrInvalidCredential, last)
}

func (s *Service) verify(token string) (Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Principal{}, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return Principal{}, errors.New("token has no subject")
	}
	role := claims.Role
	if role != models.RoleAdmin {
		role = models.RoleUser
	}
	return Principal{ID: claims.Subject, Role: role}, nil
}

// Normalize applies the cleanup pipeline to a raw Authorization header
// value and returns candidate tokens in verification order. Stages, in
// this order:
//
//  1. strip a leading case-insensitive "Bearer " prefix
//  2. strip one pair of wrapping double quotes
//  3. remove all whitespace
//  4. split on "."; with more than 3 segments (two tokens concatenated),
//     each consecutive group of 3 segments is one candidate
//
// An empty result means no credential was supplied.
func Normalize(raw string) []string {
	token := strings.TrimSpace(raw)
	if len(token) >= 7 && strings.EqualFold(token[:7], "Bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if len(token) >= 2 && token[0] == '"' && token[len(token)-1] == '"' {
		token = token[1 : len(token)-1]
	}
	token = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, token)
	if token == "" {
		return nil
	}

	parts := strings.Split(token, ".")
	if len(parts) <= 3 {
		return []string{token}
	}
	candidates := make([]string, 0, len(parts)/3)
	for i := 0; i+3 <= len(parts); i += 3 {
		candidates = append(candidates, strings.Join(parts[i:i+3], "."))
	}
	return candidates
}
