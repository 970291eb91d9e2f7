package services

import (
	"regexp"
	"strings"
)

// Address is the structured form of a combined address string.
type Address struct {
	Street    string
	Apartment string
	City      string
	State     string
	Zip       string
}

// Apartment token recognized by a leading keyword, e.g. "Apt 4B",
// "Unit 12", "# 3", "Suite 200"
var (
	addressWithAptPattern = regexp.MustCompile(`(?i)^(.+?),\s*((?:Apt|Unit|#|Suite)\.?\s*\S*),\s*(.+?),\s*([A-Za-z]{2})\s+(\d{5}(?:-\d{4})?)$`)
	addressSimplePattern  = regexp.MustCompile(`^(.+?),\s*(.+?),\s*([A-Za-z]{2})\s+(\d{5}(?:-\d{4})?)$`)
)

// ParseAddress splits a combined address string into structured components.
// It tries the "with apartment" pattern first, then the simple
// street/city/state/zip pattern. When neither matches, the entire input is
// returned as the street component and ok is false so the caller can report
// the ambiguous outcome instead of silently swallowing it.
func ParseAddress(raw string) (Address, bool) {
	s := strings.TrimSpace(raw)

	if m := addressWithAptPattern.FindStringSubmatch(s); m != nil {
		return Address{
			Street:    strings.TrimSpace(m[1]),
			Apartment: strings.TrimSpace(m[2]),
			City:      strings.TrimSpace(m[3]),
			State:     strings.ToUpper(m[4]),
			Zip:       m[5],
		}, true
	}

	if m := addressSimplePattern.FindStringSubmatch(s); m != nil {
		return Address{
			Street: strings.TrimSpace(m[1]),
			City:   strings.TrimSpace(m[2]),
			State:  strings.ToUpper(m[3]),
			Zip:    m[4],
		}, true
	}

	return Address{Street: s}, false
}

// SplitName splits a combined full name into first and last name.
//
// Known limitation: suffixes (Jr., III) and multi-word last names are not
// handled; everything before the final token is treated as the first name.
func SplitName(fullName string) (first, last string) {
	tokens := strings.Fields(fullName)
	switch len(tokens) {
	case 0:
		return "", ""
	case 1:
		return tokens[0], ""
	case 2:
		return tokens[0], tokens[1]
	default:
		return strings.Join(tokens[:len(tokens)-1], " "), tokens[len(tokens)-1]
	}
}
