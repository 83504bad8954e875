package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ClockMinutes converts a canonical "HH:MM" string to minutes past midnight.
func ClockMinutes(clock string) (int, error) {
	h, m, ok := strings.Cut(clock, ":")
	if !ok || len(m) != 2 {
		return 0, fmt.Errorf("%w: malformed clock time %q", ErrParseFailure, clock)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: malformed clock time %q", ErrParseFailure, clock)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: malformed clock time %q", ErrParseFailure, clock)
	}
	return hour*60 + minute, nil
}

// DurationHours computes elapsed hours between two clock times on a common
// reference day, rounded to two decimals. Entries cannot cross midnight, so
// a zero or negative span is ErrInvalidRange.
func DurationHours(start, end string) (float64, error) {
	startMin, err := ClockMinutes(start)
	if err != nil {
		return 0, err
	}
	endMin, err := ClockMinutes(end)
	if err != nil {
		return 0, err
	}
	elapsed := endMin - startMin
	if elapsed <= 0 {
		return 0, fmt.Errorf("%w: end %q is not after start %q", ErrInvalidRange, end, start)
	}
	return roundHours(elapsed), nil
}

func roundHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*100) / 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParseDecimalToCents parses a non-negative decimal amount ("4.50", "4,5",
// "12") into cents, rounding a third decimal half up. Signs are rejected;
// zero is allowed.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return int64(math.Round(v * 100)), nil
}
