// Package numlit parses decimal number literals. Underscores may separate
// digits: 1_000_000, 3.141_592.
package numlit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrOutOfRange = errors.New("literal out of range")

func ParseInt(lit string) (int64, error) {
	if err := validateDigits(lit); err != nil {
		return 0, fmt.Errorf("invalid integer literal: %w", err)
	}
	v, err := strconv.ParseInt(stripUnderscores(lit), 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return 0, fmt.Errorf("integer %w", ErrOutOfRange)
		}
		return 0, fmt.Errorf("invalid integer literal")
	}
	return v, nil
}

// ParseFloat accepts digits '.' digits; both sides are required.
func ParseFloat(lit string) (float64, error) {
	whole, frac, ok := strings.Cut(lit, ".")
	if !ok || whole == "" || frac == "" {
		return 0, fmt.Errorf("float literal requires digits on both sides of decimal point")
	}
	if err := validateDigits(whole); err != nil {
		return 0, fmt.Errorf("invalid float literal: %w", err)
	}
	if err := validateDigits(frac); err != nil {
		return 0, fmt.Errorf("invalid float literal: %w", err)
	}
	v, err := strconv.ParseFloat(stripUnderscores(whole)+"."+stripUnderscores(frac), 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return 0, fmt.Errorf("float %w", ErrOutOfRange)
		}
		return 0, fmt.Errorf("invalid float literal")
	}
	return v, nil
}

func validateDigits(s string) error {
	if s == "" {
		return fmt.Errorf("digits required")
	}
	prevUnderscore := false
	seenDigit := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '_' {
			if !seenDigit || prevUnderscore {
				return fmt.Errorf("underscores must separate digits")
			}
			prevUnderscore = true
			continue
		}
		if ch < '0' || ch > '9' {
			return fmt.Errorf("invalid digit %q", ch)
		}
		seenDigit = true
		prevUnderscore = false
	}
	if prevUnderscore {
		return fmt.Errorf("underscores must separate digits")
	}
	return nil
}

func stripUnderscores(s string) string {
	if strings.IndexByte(s, '_') == -1 {
		return s
	}
	return strings.ReplaceAll(s, "_", "")
}
