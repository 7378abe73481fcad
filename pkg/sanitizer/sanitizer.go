// Package sanitizer normalizes free-form input before validation: listing
// titles and locations, display names, phone numbers, and amenity/image
// slices. Sanitization never rejects; invalid values fall through to the
// validators unchanged or emptied.
package sanitizer

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	supportedRegions = []string{
		"US",
		"GB",
	}

	reValidPhone = regexp.MustCompile(`^(?:|\+?[0-9][0-9 \-()]{6,18})$`)
)

// NormalizePhone trims and reformats a phone number to E.164. Values that do
// not parse in any supported region come back empty.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" || !reValidPhone.MatchString(phone) {
		return ""
	}

	for _, region := range supportedRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err == nil && phonenumbers.IsValidNumber(parsed) {
			return phonenumbers.Format(parsed, phonenumbers.E164)
		}
	}
	return ""
}
