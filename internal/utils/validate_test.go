package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in string
		ok bool
	}{
		{"alice@example.com", true},
		{"a.b+tag@sub.example.org", true},
		{"no-at-sign", false},
		{"two@@example.com", false},
		{"spaces in@example.com", false},
		{"missing@tld", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, ValidEmail(tc.in), "email %q", tc.in)
	}
}

func TestValidPhone(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in string
		ok bool
	}{
		{"+49 170 1234567", true},
		{"0301234567", true},
		{"030-123-4567", true},
		{"12345", false}, // too short
		{"++491701234567", false},
		{"phone", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, ValidPhone(tc.in), "phone %q", tc.in)
	}
}

func TestValidPriceAndQuantity(t *testing.T) {
	t.Parallel()
	assert.True(t, ValidPrice(0))
	assert.True(t, ValidPrice(1299))
	assert.False(t, ValidPrice(-1))

	assert.True(t, ValidQuantity(1))
	assert.True(t, ValidQuantity(42))
	assert.False(t, ValidQuantity(0))
	assert.False(t, ValidQuantity(-3))
}
