package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/noobzdxz-gif/Tracking-App/internal/core"
)

const maxBodySize = 1 << 20 // 1 MiB

// decodeJSON reads a bounded JSON body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// queryDate parses a "YYYY-MM-DD" query parameter. Missing values fall back
// to the given default; malformed ones are an error, never defaulted.
func queryDate(query url.Values, key string, fallback core.Date) (core.Date, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return fallback, nil
	}
	return core.ParseDate(raw)
}

// queryRange resolves the range a view request asks for. Two shapes are
// accepted: explicit start/end bounds, or a period plus an optional anchor
// date (anchor defaults to today, so "this week" needs no parameters).
func queryRange(query url.Values) (core.DateRange, error) {
	startRaw := strings.TrimSpace(query.Get("start"))
	endRaw := strings.TrimSpace(query.Get("end"))

	if startRaw != "" || endRaw != "" {
		if startRaw == "" || endRaw == "" {
			return core.DateRange{}, fmt.Errorf("start and end must be given together")
		}
		start, err := core.ParseDate(startRaw)
		if err != nil {
			return core.DateRange{}, err
		}
		end, err := core.ParseDate(endRaw)
		if err != nil {
			return core.DateRange{}, err
		}
		return core.NewDateRange(start, end)
	}

	period := core.Period(strings.TrimSpace(query.Get("period")))
	if period == "" {
		period = core.PeriodWeek
	}
	anchor, err := queryDate(query, "anchor", today())
	if err != nil {
		return core.DateRange{}, err
	}
	return core.ResolveRange(period, anchor)
}

func today() core.Date {
	now := time.Now()
	return core.NewDate(now.Year(), int(now.Month()), now.Day())
}
