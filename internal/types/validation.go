package types

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// maxKeyLength bounds cache keys; date keys are always 10 bytes but the
// stores accept arbitrary identifiers.
const maxKeyLength = 256

// ValidateKey checks that a cache key is usable as a durable store
// identifier.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}

	if len(key) > maxKeyLength {
		return fmt.Errorf("%w: key length %d exceeds maximum %d bytes",
			ErrInvalidKey, len(key), maxKeyLength)
	}

	if !utf8.ValidString(key) {
		return fmt.Errorf("%w: key contains invalid UTF-8", ErrInvalidKey)
	}

	for i, r := range key {
		if r < 32 || r == 127 {
			return fmt.Errorf("%w: key contains control character at position %d", ErrInvalidKey, i)
		}
	}

	return nil
}

// ParseDate parses a YYYY-MM-DD identifier and checks it falls within the
// archive's valid range [EarliestDate, today].
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateFormat, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a valid YYYY-MM-DD date", ErrInvalidKey, date)
	}

	if t.Before(EarliestDate) {
		return time.Time{}, fmt.Errorf("%w: %q predates the archive (earliest %s)",
			ErrInvalidKey, date, EarliestDate.Format(DateFormat))
	}

	// End of today in UTC; the service publishes one record per calendar day
	today := time.Now().UTC().Truncate(24 * time.Hour).Add(24*time.Hour - time.Nanosecond)
	if t.After(today) {
		return time.Time{}, fmt.Errorf("%w: %q is in the future", ErrInvalidKey, date)
	}

	return t, nil
}

// Validate checks the record's required fields and date range on ingress.
func (p *Picture) Validate() error {
	if p == nil {
		return &DecodeError{Err: fmt.Errorf("nil record")}
	}

	if strings.TrimSpace(p.Title) == "" {
		return &DecodeError{Err: fmt.Errorf("record missing title")}
	}
	if strings.TrimSpace(p.URL) == "" {
		return &DecodeError{Err: fmt.Errorf("record missing media url")}
	}
	if strings.TrimSpace(p.Date) == "" {
		return &DecodeError{Err: fmt.Errorf("record missing date")}
	}

	if _, err := time.Parse(DateFormat, p.Date); err != nil {
		return &DecodeError{Err: fmt.Errorf("record date %q not parseable: %v", p.Date, err)}
	}

	return nil
}
