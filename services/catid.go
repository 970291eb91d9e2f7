package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrCatIDFormat is returned when a cat ID does not match the expected
// "M/D/YY- N" pattern. Batch callers treat this as a per-row skip, not a
// fatal error.
var ErrCatIDFormat = errors.New("cat ID does not match expected format")

// Expected shape: month/day/year, a dash, a space, then the per-day sequence
// number, e.g. "3/5/24- 7" or "12/31/2024- 12"
var catIDPattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4})- (\d+)$`)

// CatID is the normalized form of a human-entered cat identifier.
type CatID struct {
	Month    string // Zero-padded to 2 digits
	Day      string // Zero-padded to 2 digits
	Year     string // 4 digits, 2-digit input expanded with "20" prefix
	Sequence string // Zero-padded to 3 digits

	// Key is the sanitized display key "MM_DD_YYYY- NNN" used for file
	// naming (slashes are not valid in storage keys)
	Key string
	// Number is the canonical sort key YYYYMMDDNNN. It must always be
	// recomputed from the source string, never trusted from input.
	Number int64
}

// NormalizeCatID parses a free-text cat identifier into its canonical form.
// Returns an error wrapping ErrCatIDFormat when the input does not match.
func NormalizeCatID(raw string) (*CatID, error) {
	m := catIDPattern.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrCatIDFormat, raw)
	}

	month := fmt.Sprintf("%02s", m[1])
	day := fmt.Sprintf("%02s", m[2])
	year := m[3]
	if len(year) == 2 {
		year = "20" + year
	}
	sequence := fmt.Sprintf("%03s", m[4])

	number, err := strconv.ParseInt(year+month+day+sequence, 10, 64)
	if err != nil {
		// Only reachable with an absurdly long sequence number
		return nil, fmt.Errorf("%w: %q", ErrCatIDFormat, raw)
	}

	return &CatID{
		Month:    month,
		Day:      day,
		Year:     year,
		Sequence: sequence,
		Key:      fmt.Sprintf("%s_%s_%s- %s", month, day, year, sequence),
		Number:   number,
	}, nil
}

// Date returns the service date encoded in the identifier
func (c *CatID) Date() time.Time {
	year, _ := strconv.Atoi(c.Year)
	month, _ := strconv.Atoi(c.Month)
	day, _ := strconv.Atoi(c.Day)
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// CatNumberFromID returns the sortable integer for a cat ID string, or nil
// when the string does not match the expected pattern. Interactive record
// saves use this so a malformed ID yields a null sort key instead of an
// error.
func CatNumberFromID(raw string) *int64 {
	id, err := NormalizeCatID(raw)
	if err != nil {
		return nil
	}
	return &id.Number
}
