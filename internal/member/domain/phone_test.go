package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"07123456789", "+447123456789"},
		{"07123 456789", "+447123456789"},
		{"(07123) 456-789", "+447123456789"},
		{"447123456789", "+447123456789"},
		{"+447123456789", "+447123456789"},
		{"+44 7123 456789", "+447123456789"},
		{"7123456789", "+447123456789"},
		{"123", "+44123"},
		{"+15551234567", "+15551234567"},
		{"", ""},
		{"abc", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizePhone(tc.in), "input %q", tc.in)
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	inputs := []string{
		"07123456789",
		"447123456789",
		"+447123456789",
		"7123456789",
		"15551234567",
		"123",
		"0712345",
		"44",
		"0",
		"+1 (555) 123-4567",
		"garbage 9",
		"",
	}

	for _, in := range inputs {
		once := NormalizePhone(in)
		assert.Equal(t, once, NormalizePhone(once), "input %q", in)
	}
}

func TestMemberCoverageValid(t *testing.T) {
	today := mustParse(t, "2026-08-29T10:30:00Z")

	tomorrow := mustParse(t, "2026-08-30T00:00:00Z")
	assert.True(t, Member{NextPayment: &tomorrow}.CoverageValid(today))

	sameDay := mustParse(t, "2026-08-29T00:00:00Z")
	assert.True(t, Member{NextPayment: &sameDay}.CoverageValid(today))

	yesterday := mustParse(t, "2026-08-28T23:59:59Z")
	assert.False(t, Member{NextPayment: &yesterday}.CoverageValid(today))

	assert.False(t, Member{}.CoverageValid(today))
}
