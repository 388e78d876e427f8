package http

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"

	"outlay/internal/core"
	"outlay/internal/storage"
)

const recentExpenseLimit = 5

type trendPoint struct {
	Label string
	Value float64
}

type dashboardView struct {
	Summary core.Summary
	Trend   []trendPoint
	Recent  []core.Expense
	Period  string
	Start   string
	End     string
}

// rangeFromRequest resolves the dashboard filter parameters into an
// optional date range. Defaults to the current month.
func rangeFromRequest(r *http.Request) (*core.DateRange, string, string, string) {
	q := r.URL.Query()
	period := q.Get("period")
	if period == "" {
		period = "this_month"
	}
	startStr, endStr := q.Get("start"), q.Get("end")

	rng, ok := core.ResolveRange(period, startStr, endStr, timeNow())
	if !ok {
		return nil, period, startStr, endStr
	}
	return &rng, period, startStr, endStr
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, user *core.User) {
	rng, period, startStr, endStr := rangeFromRequest(r)

	expenses, err := s.repo.ListExpenses(r.Context(), storage.ExpenseFilter{UserID: user.ID, Range: rng})
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard query failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	summary := core.Summarize(expenses, user.Budget, rng)

	trend := make([]trendPoint, len(summary.TrendLabels))
	for i, label := range summary.TrendLabels {
		trend[i] = trendPoint{Label: label, Value: summary.TrendValues[i]}
	}

	recent := expenses
	if len(recent) > recentExpenseLimit {
		recent = recent[:recentExpenseLimit]
	}

	start, end := startStr, endStr
	if rng != nil {
		start = rng.Start.Format("2006-01-02")
		end = rng.End.Format("2006-01-02")
	}

	s.render(w, r, "dashboard.html", viewData{
		Title: "Dashboard",
		User:  user,
		Data: dashboardView{
			Summary: summary,
			Trend:   trend,
			Recent:  recent,
			Period:  period,
			Start:   start,
			End:     end,
		},
	})
}

// handleExport streams the dashboard's filtered expense set as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, user *core.User) {
	rng, _, _, _ := rangeFromRequest(r)

	expenses, err := s.repo.ListExpenses(r.Context(), storage.ExpenseFilter{UserID: user.ID, Range: rng})
	if err != nil {
		slog.ErrorContext(r.Context(), "Export query failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("expenses_%s.csv", timeNow().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename=`+filename)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Date", "Title", "Category", "Amount", "Description"})
	for _, e := range expenses {
		_ = cw.Write([]string{
			e.Timestamp.Format("2006-01-02 15:04"),
			e.Title,
			e.Category,
			fmt.Sprintf("%.2f", e.Amount),
			e.Description,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.ErrorContext(r.Context(), "CSV write failed", "error", err)
	}

	slog.InfoContext(r.Context(), "Expenses exported", "user_id", user.ID, "rows", len(expenses))
}
