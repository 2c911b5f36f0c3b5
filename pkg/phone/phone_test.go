package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatE164(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		country string
		want    string
	}{
		{"Should keep international numbers", "+27 60 278 5621", "", "+27602785621"},
		{"Should replace a 00 prefix", "0044 20 7946 0958", "", "+442079460958"},
		{"Should expand a local South African number", "060 278 5621", "", "+27602785621"},
		{"Should add a plus to a 27 prefix", "27602785621", "", "+27602785621"},
		{"Should assume South Africa for bare subscriber numbers", "602785621", "", "+27602785621"},
		{"Should prepend a foreign country code", "4155550100", "+1", "+14155550100"},
		{"Should strip punctuation", "(067) 037-4461", "", "+27670374461"},
		{"Should return empty for input without digits", "call me", "", ""},
		{"Should return empty for empty input", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatE164(tc.raw, tc.country))
		})
	}
}

func TestIsValid(t *testing.T) {
	t.Run("Should accept formatted South African numbers", func(t *testing.T) {
		assert.True(t, IsValid("0602785621"))
		assert.True(t, IsValidSouthAfrican("0602785621"))
	})
	t.Run("Should reject numbers that start with a zero country code", func(t *testing.T) {
		assert.False(t, IsValid("+0123456"))
	})
	t.Run("Should reject numbers longer than fifteen digits", func(t *testing.T) {
		assert.False(t, IsValid("+1234567890123456"))
	})
	t.Run("Should not treat foreign numbers as South African", func(t *testing.T) {
		assert.True(t, IsValid("+14155550100"))
		assert.False(t, IsValidSouthAfrican("+14155550100"))
	})
}

func TestDisplay(t *testing.T) {
	t.Run("Should group South African numbers", func(t *testing.T) {
		assert.Equal(t, "+27 60 278 5621", Display("0602785621"))
	})
	t.Run("Should split the leading code for other numbers", func(t *testing.T) {
		assert.Equal(t, "+441 2079460958", Display("+4412079460958"))
	})
}

func TestNormalize(t *testing.T) {
	t.Run("Should require a value", func(t *testing.T) {
		_, err := Normalize("")
		require.ErrorIs(t, err, ErrRequired)
	})
	t.Run("Should reject garbage", func(t *testing.T) {
		_, err := Normalize("not a phone")
		require.ErrorIs(t, err, ErrInvalid)
	})
	t.Run("Should return the E.164 form", func(t *testing.T) {
		got, err := Normalize("067 037 4461")
		require.NoError(t, err)
		assert.Equal(t, "+27670374461", got)
	})
}
