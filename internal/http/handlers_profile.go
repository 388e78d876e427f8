package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"outlay/internal/core"
	"outlay/internal/forms"
)

type profileView struct {
	BudgetForm     *forms.BudgetForm
	BudgetErrors   forms.Errors
	ProfileForm    *forms.ProfileForm
	ProfileErrors  forms.Errors
	CategoryForm   *forms.CategoryForm
	CategoryErrors forms.Errors
	Categories     []core.Category
}

// profileViewFor builds the default view model with the user's stored values
// pre-filled. Individual form/error slots are overridden after a failed
// submission of that form.
func (s *Server) profileViewFor(r *http.Request, user *core.User) profileView {
	categories, err := s.repo.ListCategories(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err, "user_id", user.ID)
	}
	return profileView{
		BudgetForm:   &forms.BudgetForm{BudgetRaw: strconv.FormatFloat(user.Budget, 'f', 2, 64), Budget: user.Budget},
		ProfileForm:  &forms.ProfileForm{FullName: user.FullName, Bio: user.Bio},
		CategoryForm: &forms.CategoryForm{},
		Categories:   categories,
	}
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, user *core.User) {
	s.render(w, r, "profile.html", viewData{
		Title: "Profile",
		User:  user,
		Data:  s.profileViewFor(r, user),
	})
}

// handleProfilePost dispatches the three independently-submittable profile
// forms on the hidden "form" field.
func (s *Server) handleProfilePost(w http.ResponseWriter, r *http.Request, user *core.User) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	// FormValue parses both urlencoded and multipart bodies.
	switch r.FormValue("form") {
	case "budget":
		s.handleBudgetSubmit(w, r, user)
	case "profile":
		s.handleProfileSubmit(w, r, user)
	case "category":
		s.handleCategorySubmit(w, r, user)
	default:
		http.Error(w, "unknown form", http.StatusBadRequest)
	}
}

func (s *Server) handleBudgetSubmit(w http.ResponseWriter, r *http.Request, user *core.User) {
	form := forms.ParseBudget(r.Form)
	if errs := form.Validate(); errs.Any() {
		view := s.profileViewFor(r, user)
		view.BudgetForm = form
		view.BudgetErrors = errs
		s.renderStatus(w, r, http.StatusUnprocessableEntity, "profile.html", viewData{Title: "Profile", User: user, Data: view})
		return
	}

	if err := s.repo.UpdateBudget(r.Context(), user.ID, form.Budget); err != nil {
		slog.ErrorContext(r.Context(), "Update budget failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Budget updated", "user_id", user.ID, "budget", form.Budget)
	s.redirectWithFlash(w, r, "/profile", infoFlash("Your budget has been updated!"))
}

func (s *Server) handleProfileSubmit(w http.ResponseWriter, r *http.Request, user *core.User) {
	form := forms.ParseProfile(r.Form)
	if errs := form.Validate(); errs.Any() {
		view := s.profileViewFor(r, user)
		view.ProfileForm = form
		view.ProfileErrors = errs
		s.renderStatus(w, r, http.StatusUnprocessableEntity, "profile.html", viewData{Title: "Profile", User: user, Data: view})
		return
	}

	if err := s.repo.UpdateProfile(r.Context(), user.ID, form.FullName, form.Bio); err != nil {
		slog.ErrorContext(r.Context(), "Update profile failed", "error", err, "user_id", user.ID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	flashes := []flash{infoFlash("Your profile has been updated!")}
	if warn := s.saveAvatar(r, user); warn != "" {
		flashes = append([]flash{warningFlash(warn)}, flashes...)
	}
	s.redirectWithFlash(w, r, "/profile", flashes...)
}

// saveAvatar stores an uploaded avatar under the configured directory and
// records its reference. Returns a warning message instead of failing when
// the upload cannot be honored.
func (s *Server) saveAvatar(r *http.Request, user *core.User) string {
	file, header, err := r.FormFile("avatar")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return ""
	}
	if err != nil {
		slog.WarnContext(r.Context(), "Avatar read failed", "error", err, "user_id", user.ID)
		return "Could not read the uploaded photo."
	}
	defer file.Close()

	if s.cfg.ReadOnly {
		return "Running in read-only mode; avatar not saved."
	}

	filename := sanitizeFilename(header.Filename)
	if filename == "" {
		return "Invalid photo filename."
	}

	dst, err := os.Create(filepath.Join(s.cfg.UploadDir, filename))
	if err != nil {
		slog.ErrorContext(r.Context(), "Avatar create failed", "error", err, "user_id", user.ID)
		return "Could not save the uploaded photo."
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		slog.ErrorContext(r.Context(), "Avatar write failed", "error", err, "user_id", user.ID)
		return "Could not save the uploaded photo."
	}

	rel := filepath.Join("uploads", filename)
	if err := s.repo.UpdateAvatarPath(r.Context(), user.ID, rel); err != nil {
		slog.ErrorContext(r.Context(), "Avatar path update failed", "error", err, "user_id", user.ID)
		return "Could not save the uploaded photo."
	}

	slog.InfoContext(r.Context(), "Avatar uploaded", "user_id", user.ID, "file", rel)
	return ""
}

// sanitizeFilename strips directories and any character outside a safe set.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), ".")
	if cleaned == "" {
		return ""
	}
	return cleaned
}

func (s *Server) handleCategorySubmit(w http.ResponseWriter, r *http.Request, user *core.User) {
	form := forms.ParseCategory(r.Form)
	errs := form.Validate()

	if !errs.Any() {
		exists, err := s.repo.CategoryExists(r.Context(), user.ID, form.Name)
		if err != nil {
			slog.ErrorContext(r.Context(), "Category pre-check failed", "error", err, "user_id", user.ID)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if exists {
			errs.Add("name", "Category already exists")
		}
	}

	if !errs.Any() {
		_, err := s.repo.CreateCategory(r.Context(), &core.Category{
			UserID: user.ID,
			Name:   form.Name,
			Color:  form.Color,
		})
		switch {
		case errors.Is(err, core.ErrConflict):
			errs.Add("name", "Category already exists")
		case err != nil:
			slog.ErrorContext(r.Context(), "Create category failed", "error", err, "user_id", user.ID)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		default:
			slog.InfoContext(r.Context(), "Category created", "user_id", user.ID, "name", form.Name)
			s.redirectWithFlash(w, r, "/profile", infoFlash("Category added!"))
			return
		}
	}

	view := s.profileViewFor(r, user)
	view.CategoryForm = form
	view.CategoryErrors = errs
	s.renderStatus(w, r, http.StatusUnprocessableEntity, "profile.html", viewData{Title: "Profile", User: user, Data: view})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, user *core.User) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.notFound(w, r)
		return
	}

	category, err := s.repo.CategoryByID(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Category lookup failed", "error", err, "category_id", id)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if category.UserID != user.ID {
		slog.WarnContext(r.Context(), "Refused category access",
			"category_id", category.ID, "owner_id", category.UserID, "user_id", user.ID)
		s.redirectWithFlash(w, r, "/profile", warningFlash("You cannot delete this category."))
		return
	}

	if err := s.repo.DeleteCategory(r.Context(), category.ID); err != nil {
		slog.ErrorContext(r.Context(), "Delete category failed", "error", err, "category_id", category.ID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(r.Context(), "Category deleted", "category_id", category.ID, "user_id", user.ID)
	s.redirectWithFlash(w, r, "/profile", infoFlash("Category deleted!"))
}
