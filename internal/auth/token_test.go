package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monochrome/internal/models"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func mintFor(t *testing.T, s *Service, id string, role models.Role) string {
	t.Helper()
	token, err := s.Mint(&models.User{ID: id, Role: role})
	require.NoError(t, err)
	return token
}

func TestMintAndParseRoundTrip(t *testing.T) {
	s := NewService(testKey, time.Hour)
	token := mintFor(t, s, "u1", models.RoleUser)

	p, err := s.ParseHeader("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, models.RoleUser, p.Role)
	assert.False(t, p.IsAnonymous())
	assert.False(t, p.IsAdmin())
}

func TestAdminRole(t *testing.T) {
	s := NewService(testKey, time.Hour)
	token := mintFor(t, s, "a1", models.RoleAdmin)

	p, err := s.ParseHeader("Bearer " + token)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())
}

func TestParseHeaderToleratesCorruption(t *testing.T) {
	s := NewService(testKey, time.Hour)
	token := mintFor(t, s, "u1", models.RoleUser)

	variants := []string{
		token,
		"Bearer " + token,
		"bearer " + token,
		"BEARER " + token,
		`Bearer "` + token + `"`,
		`"` + token + `"`,
		"Bearer  " + token[:12] + " " + token[12:],
		"Bearer " + token[:20] + "\t" + token[20:] + "\n",
	}
	for _, raw := range variants {
		p, err := s.ParseHeader(raw)
		require.NoError(t, err, "header %q", raw)
		assert.Equal(t, "u1", p.ID)
	}
}

func TestParseHeaderDoubleToken(t *testing.T) {
	s := NewService(testKey, time.Hour)
	first := mintFor(t, s, "u1", models.RoleUser)
	second := mintFor(t, s, "u2", models.RoleUser)

	// Two valid tokens glued with a dot: the first group of three
	// segments verifies and wins.
	p, err := s.ParseHeader("Bearer " + first + "." + second)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)

	// A garbage first group falls through to the second candidate.
	p, err = s.ParseHeader("Bearer x.y.z." + second)
	require.NoError(t, err)
	assert.Equal(t, "u2", p.ID)
}

func TestParseHeaderMissing(t *testing.T) {
	s := NewService(testKey, time.Hour)

	for _, raw := range []string{"", "   ", "Bearer ", `""`, `Bearer ""`} {
		_, err := s.ParseHeader(raw)
		assert.ErrorIs(t, err, ErrMissingCredential, "header %q", raw)
	}
}

func TestParseHeaderExpired(t *testing.T) {
	expired := NewService(testKey, -time.Hour)
	token := mintFor(t, expired, "u1", models.RoleUser)

	s := NewService(testKey, time.Hour)
	_, err := s.ParseHeader("Bearer " + token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseHeaderTampered(t *testing.T) {
	s := NewService(testKey, time.Hour)
	token := mintFor(t, s, "u1", models.RoleUser)

	// Flip the final signature byte.
	last := token[len(token)-1]
	flipped := byte('A')
	if last == flipped {
		flipped = 'B'
	}
	_, err := s.ParseHeader("Bearer " + token[:len(token)-1] + string(flipped))
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestParseHeaderWrongKey(t *testing.T) {
	other := NewService([]byte("another-key-another-key-32-bytes"), time.Hour)
	token := mintFor(t, other, "u1", models.RoleUser)

	s := NewService(testKey, time.Hour)
	_, err := s.ParseHeader("Bearer " + token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"prefix only", "Bearer ", nil},
		{"plain", "a.b.c", []string{"a.b.c"}},
		{"prefixed", "Bearer a.b.c", []string{"a.b.c"}},
		{"quoted", `"a.b.c"`, []string{"a.b.c"}},
		{"prefixed and quoted", `Bearer "a.b.c"`, []string{"a.b.c"}},
		{"inner whitespace", "Bearer a.b .c\t", []string{"a.b.c"}},
		{"two tokens", "a.b.c.d.e.f", []string{"a.b.c", "d.e.f"}},
		{"trailing partial group", "a.b.c.d.e.f.g", []string{"a.b.c", "d.e.f"}},
		{"two segments kept as is", "a.b", []string{"a.b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.raw))
		})
	}
}
