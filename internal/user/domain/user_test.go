package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davicafu/hexaquery/pkg/query"
)

func TestUser_Age(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		birth    time.Time
		expected int
	}{
		{
			name:     "cumpleaños ya pasado este año",
			birth:    time.Date(1994, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 30,
		},
		{
			name:     "cumpleaños aún no ha pasado este año",
			birth:    time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC),
			expected: 24, // aún no cumplió 25 este año
		},
		{
			name:     "cumpleaños hoy",
			birth:    time.Date(1984, 6, 15, 0, 0, 0, 0, time.UTC),
			expected: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ageAt(tt.birth, now))
		})
	}
}

func TestUser_Validate(t *testing.T) {
	assert.NoError(t, (&User{Email: "ana@example.com", Nombre: "Ana"}).Validate())
	assert.ErrorIs(t, (&User{Email: "ana@example.com"}).Validate(), ErrInvalidUser)
	assert.ErrorIs(t, (&User{Email: "no-es-email", Nombre: "Ana"}).Validate(), ErrInvalidUser)
}

// Los límites de AgeFilter coinciden con ageAt en los días frontera.
func TestAgeFilter_MatchesAge(t *testing.T) {
	now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	minAge, maxAge := 18, 30

	raw := WithFilters("", AgeFilter(&minAge, &maxAge, now)...)
	spec, err := query.ParseFor[User](raw, "createdAt")
	require.NoError(t, err)
	match, _, err := query.Compile[*User](spec)
	require.NoError(t, err)

	cases := []struct {
		birth time.Time
		want  bool
	}{
		{time.Date(2006, 6, 15, 0, 0, 0, 0, time.UTC), true},  // cumple 18 hoy
		{time.Date(2006, 6, 16, 0, 0, 0, 0, time.UTC), false}, // 17
		{time.Date(1993, 6, 16, 0, 0, 0, 0, time.UTC), true},  // 30, cumple 31 mañana
		{time.Date(1993, 6, 15, 0, 0, 0, 0, time.UTC), false}, // 31 hoy
	}
	for _, c := range cases {
		u := &User{BirthDate: c.birth}
		assert.Equal(t, c.want, match(u), c.birth.Format(dateLayout))
		assert.Equal(t, c.want, ageAt(c.birth, now) >= minAge && ageAt(c.birth, now) <= maxAge)
	}
}

func TestAgeFilter_NoBounds(t *testing.T) {
	assert.Empty(t, AgeFilter(nil, nil, time.Now()))
}

func TestEmailFilter_Escapes(t *testing.T) {
	assert.Equal(t, "email=ana%2Btest%40example.com||eq", EmailFilter("ana+test@example.com"))
}
