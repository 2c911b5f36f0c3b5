// Package phone normalizes the numbers visitors type into contact forms into
// E.164, the format the outbound call provider accepts.
package phone

import (
	"errors"
	"regexp"
	"strings"
)

// SouthAfrica is the default country calling code.
const SouthAfrica = "+27"

var (
	ErrRequired = errors.New("phone number is required")
	ErrInvalid  = errors.New("phone number is not a valid E.164 number")

	nonDialable  = regexp.MustCompile(`[^\d+]`)
	e164Pattern  = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	saPattern    = regexp.MustCompile(`^\+27[1-8]\d{8}$`)
	displayParts = regexp.MustCompile(`^(\+\d{1,3})(\d+)$`)
)

// FormatE164 rewrites raw into E.164 using countryCode for national numbers.
// An empty countryCode means South Africa. Input without any digit yields "".
func FormatE164(raw, countryCode string) string {
	if countryCode == "" {
		countryCode = SouthAfrica
	}
	cleaned := nonDialable.ReplaceAllString(raw, "")
	if strings.Trim(cleaned, "+") == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(cleaned, "+"):
		return cleaned
	case strings.HasPrefix(cleaned, "00"):
		return "+" + cleaned[2:]
	}
	if countryCode == SouthAfrica {
		switch {
		case strings.HasPrefix(cleaned, "0"):
			return SouthAfrica + cleaned[1:]
		case strings.HasPrefix(cleaned, "27"):
			return "+" + cleaned
		case len(cleaned) >= 9:
			return SouthAfrica + cleaned
		}
	}
	return countryCode + cleaned
}

// IsValid reports whether raw formats to a well-formed E.164 number.
func IsValid(raw string) bool {
	return e164Pattern.MatchString(FormatE164(raw, SouthAfrica))
}

// IsValidSouthAfrican reports whether raw is a South African landline or
// mobile number.
func IsValidSouthAfrican(raw string) bool {
	return saPattern.MatchString(FormatE164(raw, SouthAfrica))
}

// Display renders a number for humans, e.g. "+27 60 278 5621".
func Display(raw string) string {
	e164 := FormatE164(raw, SouthAfrica)
	if strings.HasPrefix(e164, SouthAfrica) && len(e164) == 12 {
		return e164[:3] + " " + e164[3:5] + " " + e164[5:8] + " " + e164[8:]
	}
	if m := displayParts.FindStringSubmatch(e164); m != nil {
		return m[1] + " " + m[2]
	}
	return e164
}

// Validate returns ErrRequired or ErrInvalid, or nil for a usable number.
func Validate(raw string) error {
	if raw == "" {
		return ErrRequired
	}
	if !IsValid(raw) {
		return ErrInvalid
	}
	return nil
}

// Normalize validates raw and returns its E.164 form.
func Normalize(raw string) (string, error) {
	if err := Validate(raw); err != nil {
		return "", err
	}
	return FormatE164(raw, SouthAfrica), nil
}
