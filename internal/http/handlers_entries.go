package http

import (
	"net/http"

	"github.com/noobzdxz-gif/Tracking-App/internal/core"
	"github.com/noobzdxz-gif/Tracking-App/internal/services"
)

type timeEntryRequest struct {
	Date      string `json:"date"`
	Task      string `json:"task"`
	TimeRange string `json:"time_range"`
}

type expenseEntryRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type entryResponse struct {
	LocalID int64  `json:"local_id"`
	ID      string `json:"id"`
	Date    string `json:"date"`
	Kind    string `json:"kind"`
	Status  string `json:"status"`

	Task      string  `json:"task,omitempty"`
	StartTime string  `json:"start_time,omitempty"`
	EndTime   string  `json:"end_time,omitempty"`
	Hours     float64 `json:"hours,omitempty"`

	Description string `json:"description,omitempty"`
	Amount      string `json:"amount,omitempty"`
}

func toEntryResponse(e services.Entry) entryResponse {
	resp := entryResponse{
		LocalID: e.LocalID,
		Date:    e.Date.Key(),
		Kind:    e.Kind,
	}
	if e.Kind == "time" {
		resp.ID = e.Time.ID
		resp.Status = string(e.Time.Status)
		resp.Task = e.Time.Task
		resp.StartTime = e.Time.Start
		resp.EndTime = e.Time.End
		resp.Hours = e.Time.Hours
	} else {
		resp.ID = e.Expense.ID
		resp.Status = string(e.Expense.Status)
		resp.Description = e.Expense.Description
		resp.Amount = e.Expense.Amount.Decimal()
	}
	return resp
}

func (s *Server) handleCreateTime(w http.ResponseWriter, r *http.Request) {
	var req timeEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	entry, err := s.service.CreateTime(r.Context(), date, req.Task, req.TimeRange)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	entry, err := s.service.CreateExpense(r.Context(), date, req.Description, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (s *Server) handleUpdateTime(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req timeEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	entry, err := s.service.UpdateTime(r.Context(), id, date, req.Task, req.TimeRange)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req expenseEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	entry, err := s.service.UpdateExpense(r.Context(), id, date, req.Description, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateViews()
	writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	s.invalidateViews()
	w.WriteHeader(http.StatusNoContent)
}

type dayResponse struct {
	Date     string          `json:"date"`
	Times    []timeEntryView `json:"times"`
	Expenses []expenseView   `json:"expenses"`
}

type timeEntryView struct {
	ID        string  `json:"id"`
	Task      string  `json:"task"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Hours     float64 `json:"hours"`
	Status    string  `json:"status"`
}

type expenseView struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
}

// handleListEntries returns the entries of a range grouped per day. Days
// without entries are included with empty lists so clients never have to
// distinguish "absent" from "empty".
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
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

	days := make([]dayResponse, 0)
	for _, day := range rng.Days() {
		bucket := buckets[day.Key()]
		resp := dayResponse{
			Date:     day.Key(),
			Times:    make([]timeEntryView, 0, len(bucket.Times)),
			Expenses: make([]expenseView, 0, len(bucket.Expenses)),
		}
		for _, entry := range bucket.Times {
			resp.Times = append(resp.Times, timeEntryView{
				ID:        entry.ID,
				Task:      entry.Task,
				StartTime: entry.Start,
				EndTime:   entry.End,
				Hours:     entry.Hours,
				Status:    string(entry.Status),
			})
		}
		for _, entry := range bucket.Expenses {
			resp.Expenses = append(resp.Expenses, expenseView{
				ID:          entry.ID,
				Description: entry.Description,
				Amount:      entry.Amount.Decimal(),
				Status:      string(entry.Status),
			})
		}
		days = append(days, resp)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"start": rng.Start.Key(),
		"end":   rng.End.Key(),
		"days":  days,
	})
}
