package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"outlay/internal/core"
	"outlay/internal/forms"
	"outlay/internal/storage"
)

const expensesPerPage = 10

type expenseListView struct {
	Expenses   []core.Expense
	Page       int
	TotalPages int
	PrevPage   int
	NextPage   int
	HasPrev    bool
	HasNext    bool
}

type expenseFormView struct {
	Form    *forms.ExpenseForm
	Errors  forms.Errors
	Choices []Choice
	IsEdit  bool
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, user *core.User) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}

	total, err := s.repo.CountExpenses(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Count expenses failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	totalPages := (total + expensesPerPage - 1) / expensesPerPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	expenses, err := s.repo.ListExpenses(r.Context(), storage.ExpenseFilter{
		UserID: user.ID,
		Limit:  expensesPerPage,
		Offset: (page - 1) * expensesPerPage,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "expenses.html", viewData{
		Title: "My Expenses",
		User:  user,
		Data: expenseListView{
			Expenses:   expenses,
			Page:       page,
			TotalPages: totalPages,
			PrevPage:   page - 1,
			NextPage:   page + 1,
			HasPrev:    page > 1,
			HasNext:    page < totalPages,
		},
	})
}

// expenseChoices builds the category dropdown for the acting user.
func (s *Server) expenseChoices(r *http.Request, user *core.User, current string) []Choice {
	custom, err := s.repo.ListCategories(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err, "user_id", user.ID)
		custom = nil
	}
	return CategoryChoices(DefaultCategories, custom, current)
}

func (s *Server) handleAddExpenseForm(w http.ResponseWriter, r *http.Request, user *core.User) {
	s.render(w, r, "expense_form.html", viewData{
		Title: "Add Expense",
		User:  user,
		Data: expenseFormView{
			Form:    &forms.ExpenseForm{},
			Choices: s.expenseChoices(r, user, ""),
		},
	})
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request, user *core.User) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	form := forms.ParseExpense(r.PostForm)
	if errs := form.Validate(); errs.Any() {
		s.renderStatus(w, r, http.StatusUnprocessableEntity, "expense_form.html", viewData{
			Title: "Add Expense",
			User:  user,
			Data: expenseFormView{
				Form:    form,
				Errors:  errs,
				Choices: s.expenseChoices(r, user, form.Category),
			},
		})
		return
	}

	expense, err := s.repo.CreateExpense(r.Context(), &core.Expense{
		UserID:      user.ID,
		Title:       form.Title,
		Amount:      form.Amount,
		Category:    form.Category,
		Description: form.Description,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Create expense failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Expense created",
		"expense_id", expense.ID, "user_id", user.ID, "amount", expense.Amount, "category", expense.Category)

	flashes := []flash{infoFlash("Expense has been added!")}
	if total, err := s.repo.SumExpenses(r.Context(), user.ID); err == nil && user.Budget-total < 0 {
		flashes = append([]flash{warningFlash("Warning: You have exceeded your budget!")}, flashes...)
	}
	s.redirectWithFlash(w, r, "/dashboard", flashes...)
}

// ownedExpense loads an expense and enforces ownership. A nil return means
// the response has already been written.
func (s *Server) ownedExpense(w http.ResponseWriter, r *http.Request, user *core.User) *core.Expense {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.notFound(w, r)
		return nil
	}

	expense, err := s.repo.ExpenseByID(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		s.notFound(w, r)
		return nil
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense lookup failed", "error", err, "expense_id", id)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return nil
	}

	if expense.UserID != user.ID {
		slog.WarnContext(r.Context(), "Refused expense access",
			"expense_id", expense.ID, "owner_id", expense.UserID, "user_id", user.ID)
		s.redirectWithFlash(w, r, "/expenses", warningFlash("You cannot modify this expense."))
		return nil
	}
	return expense
}

func (s *Server) handleEditExpenseForm(w http.ResponseWriter, r *http.Request, user *core.User) {
	expense := s.ownedExpense(w, r, user)
	if expense == nil {
		return
	}

	form := &forms.ExpenseForm{
		Title:       expense.Title,
		AmountRaw:   strconv.FormatFloat(expense.Amount, 'f', 2, 64),
		Amount:      expense.Amount,
		Category:    expense.Category,
		Description: expense.Description,
	}
	s.render(w, r, "expense_form.html", viewData{
		Title: "Edit Expense",
		User:  user,
		Data: expenseFormView{
			Form:    form,
			Choices: s.expenseChoices(r, user, expense.Category),
			IsEdit:  true,
		},
	})
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request, user *core.User) {
	expense := s.ownedExpense(w, r, user)
	if expense == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	form := forms.ParseExpense(r.PostForm)
	if errs := form.Validate(); errs.Any() {
		s.renderStatus(w, r, http.StatusUnprocessableEntity, "expense_form.html", viewData{
			Title: "Edit Expense",
			User:  user,
			Data: expenseFormView{
				Form:    form,
				Errors:  errs,
				Choices: s.expenseChoices(r, user, form.Category),
				IsEdit:  true,
			},
		})
		return
	}

	expense.Title = form.Title
	expense.Amount = form.Amount
	expense.Category = form.Category
	expense.Description = form.Description
	if err := s.repo.UpdateExpense(r.Context(), expense); err != nil {
		slog.ErrorContext(r.Context(), "Update expense failed", "error", err, "expense_id", expense.ID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Expense updated", "expense_id", expense.ID, "user_id", user.ID)
	s.redirectWithFlash(w, r, "/expenses", infoFlash("Expense has been updated!"))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, user *core.User) {
	expense := s.ownedExpense(w, r, user)
	if expense == nil {
		return
	}

	if err := s.repo.DeleteExpense(r.Context(), expense.ID); err != nil {
		slog.ErrorContext(r.Context(), "Delete expense failed", "error", err, "expense_id", expense.ID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Expense deleted", "expense_id", expense.ID, "user_id", user.ID)
	s.redirectWithFlash(w, r, "/expenses", infoFlash("Expense deleted!"))
}
