package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// rangeSeparator splits "<start> to <end>" on the words "to"/"until" (which
// need surrounding spaces so "october" cannot split) or on a dash.
var rangeSeparator = regexp.MustCompile(`(?i)\s(?:to|until)\s|\s*-\s*`)

// Accepted clock formats, tried in priority order per segment. "noon" and
// "midnight" are intentionally not recognized.
var (
	reClock24    = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)
	reClock12    = regexp.MustCompile(`(?i)^(1[0-2]|0?[1-9]):([0-5][0-9]) ?(am|pm)$`)
	reHourOnly12 = regexp.MustCompile(`(?i)^(1[0-2]|0?[1-9]) ?(am|pm)$`)
)

// ParseTimeRange turns free text like "9am to 5pm" or "9:30-17:45" into a
// canonical ("HH:MM", "HH:MM") pair. Both endpoints must parse; a partial
// match is a full ErrParseFailure, so callers never see one normalized
// endpoint alongside a missing one.
func ParseTimeRange(text string) (start, end string, err error) {
	collapsed := strings.Join(strings.Fields(text), " ")
	if collapsed == "" {
		return "", "", fmt.Errorf("%w: empty input", ErrParseFailure)
	}

	parts := rangeSeparator.Split(collapsed, -1)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q does not split into two segments", ErrParseFailure, text)
	}

	start, err = parseClockSegment(parts[0])
	if err != nil {
		return "", "", err
	}
	end, err = parseClockSegment(parts[1])
	if err != nil {
		return "", "", err
	}
	return start, end, nil
}

// parseClockSegment matches one segment against the accepted formats in
// priority order. The first format that matches wins; no backtracking.
func parseClockSegment(segment string) (string, error) {
	if m := reClock24.FindStringSubmatch(segment); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%02d:%02d", hour, minute), nil
	}
	if m := reClock12.FindStringSubmatch(segment); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return fmt.Sprintf("%02d:%02d", to24Hour(hour, m[3]), minute), nil
	}
	if m := reHourOnly12.FindStringSubmatch(segment); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%02d:00", to24Hour(hour, m[2])), nil
	}
	return "", fmt.Errorf("%w: unrecognized time %q", ErrParseFailure, segment)
}

// to24Hour converts a 12-hour clock hour plus meridiem to 24-hour form.
// 12am is midnight (0), 12pm is noon (12).
func to24Hour(hour int, meridiem string) int {
	if strings.EqualFold(meridiem, "am") {
		if hour == 12 {
			return 0
		}
		return hour
	}
	if hour == 12 {
		return 12
	}
	return hour + 12
}
