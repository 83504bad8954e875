package http

import (
	"net/http"

	"github.com/noobzdxz-gif/Tracking-App/internal/core"
)

type rankedTask struct {
	Task  string  `json:"task"`
	Hours float64 `json:"hours"`
}

type rankedExpense struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type summaryResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`

	TotalHours float64 `json:"total_hours"`
	TotalMoney string  `json:"total_money"`

	Tasks    []rankedTask    `json:"tasks"`
	Expenses []rankedExpense `json:"expenses"`
}

// handleSummary aggregates a range. Accepts period+anchor (day, week, month,
// year) or explicit start/end bounds.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	rng, err := queryRange(r.URL.Query())
	if err != nil {
		writeQueryError(w, err)
		return
	}

	cacheKey := rng.Start.Key() + "_" + rng.End.Key()
	result, hit := s.summaryCache.Get(cacheKey)
	if !hit {
		result, err = s.service.Summarize(r.Context(), rng)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		s.summaryCache.Set(cacheKey, result)
	}

	writeJSON(w, http.StatusOK, buildSummaryResponse(rng, result))
}

func buildSummaryResponse(rng core.DateRange, result core.AggregationResult) summaryResponse {
	resp := summaryResponse{
		Start:      rng.Start.Key(),
		End:        rng.End.Key(),
		TotalHours: result.TotalHours,
		TotalMoney: result.TotalMoney.Decimal(),
		Tasks:      make([]rankedTask, 0),
		Expenses:   make([]rankedExpense, 0),
	}
	for _, share := range result.RankedTasks() {
		resp.Tasks = append(resp.Tasks, rankedTask{Task: share.Task, Hours: share.Hours})
	}
	for _, share := range result.RankedExpenses() {
		resp.Expenses = append(resp.Expenses, rankedExpense{
			Description: share.Description,
			Amount:      share.Amount.Decimal(),
		})
	}
	return resp
}

type gridCellResponse struct {
	Date       string  `json:"date"`
	TotalHours float64 `json:"total_hours"`
	TotalMoney string  `json:"total_money"`
}

// handleCalendar returns per-day totals for the month containing the anchor
// date (default: today).
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	anchor, err := queryDate(r.URL.Query(), "anchor", today())
	if err != nil {
		writeQueryError(w, err)
		return
	}

	cacheKey := anchor.Format("2006-01")
	cells, hit := s.gridCache.Get(cacheKey)
	if !hit {
		cells, err = s.service.CalendarGrid(r.Context(), anchor)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		s.gridCache.Set(cacheKey, cells)
	}

	out := make([]gridCellResponse, 0, len(cells))
	for _, cell := range cells {
		out = append(out, gridCellResponse{
			Date:       cell.Day.Key(),
			TotalHours: cell.TotalHours,
			TotalMoney: cell.TotalMoney.Decimal(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": out})
}
