package http

import (
	"fmt"
	"net/http"

	"github.com/noobzdxz-gif/Tracking-App/internal/export"
)

// handleExport streams the range's entries as a CSV download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	rng, err := queryRange(r.URL.Query())
	if err != nil {
		writeQueryError(w, err)
		return
	}

	buckets, err := s.service.BucketsForRange(r.Context(), rng)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(rng)))

	if err := export.WriteCSV(w, buckets, rng); err != nil {
		// Headers are gone; all we can do is log.
		s.logger.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}
