// Package forms implements declarative validation for HTML form submissions.
// Each form type parses itself from url.Values and returns a per-field error
// set; handlers re-render the form with the errors attached when validation
// fails, so nothing is committed on a bad submission.
package forms

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const MinPasswordLength = 8

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	hexColorPattern = regexp.MustCompile(`^#?[0-9A-Fa-f]{3,6}$`)
)

// Errors maps field names to validation messages.
type Errors map[string][]string

// Add records a validation message for a field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Has reports whether a specific field failed validation.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Any reports whether any field failed validation.
func (e Errors) Any() bool {
	return len(e) > 0
}

// First returns the first message for a field, or "".
func (e Errors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// LoginForm carries credentials plus the remember-me flag.
type LoginForm struct {
	Username string
	Password string
	Remember bool
}

func ParseLogin(values url.Values) *LoginForm {
	return &LoginForm{
		Username: strings.TrimSpace(values.Get("username")),
		Password: values.Get("password"),
		Remember: values.Get("remember_me") != "",
	}
}

func (f *LoginForm) Validate() Errors {
	errs := Errors{}
	if f.Username == "" {
		errs.Add("username", "Username is required")
	}
	if f.Password == "" {
		errs.Add("password", "Password is required")
	}
	return errs
}

// RegisterForm carries new-account fields. Username and email uniqueness is
// checked by the handler against storage and attached to the same error set.
type RegisterForm struct {
	Username  string
	Email     string
	Password  string
	Password2 string
}

func ParseRegister(values url.Values) *RegisterForm {
	return &RegisterForm{
		Username:  strings.TrimSpace(values.Get("username")),
		Email:     strings.TrimSpace(values.Get("email")),
		Password:  values.Get("password"),
		Password2: values.Get("password2"),
	}
}

func (f *RegisterForm) Validate() Errors {
	errs := Errors{}
	if f.Username == "" {
		errs.Add("username", "Username is required")
	} else if len(f.Username) < 3 || len(f.Username) > 64 {
		errs.Add("username", "Username must be between 3 and 64 characters")
	}
	if f.Email == "" {
		errs.Add("email", "Email is required")
	} else if len(f.Email) > 120 || !emailPattern.MatchString(f.Email) {
		errs.Add("email", "Enter a valid email address")
	}
	if f.Password == "" {
		errs.Add("password", "Password is required")
	} else if len(f.Password) < MinPasswordLength {
		errs.Add("password", "Password must be at least 8 characters")
	}
	if f.Password2 != f.Password {
		errs.Add("password2", "Passwords must match")
	}
	return errs
}

// ExpenseForm carries add/edit expense fields. Amount is kept as the raw
// string so a failed parse can re-render what the user typed.
type ExpenseForm struct {
	Title       string
	AmountRaw   string
	Amount      float64
	Category    string
	Description string
}

func ParseExpense(values url.Values) *ExpenseForm {
	f := &ExpenseForm{
		Title:       strings.TrimSpace(values.Get("title")),
		AmountRaw:   strings.TrimSpace(values.Get("amount")),
		Category:    strings.TrimSpace(values.Get("category")),
		Description: strings.TrimSpace(values.Get("description")),
	}
	f.Amount, _ = strconv.ParseFloat(f.AmountRaw, 64)
	return f
}

func (f *ExpenseForm) Validate() Errors {
	errs := Errors{}
	if f.Title == "" {
		errs.Add("title", "Title is required")
	} else if len(f.Title) > 140 {
		errs.Add("title", "Title must be at most 140 characters")
	}
	if f.AmountRaw == "" {
		errs.Add("amount", "Amount is required")
	} else if _, err := strconv.ParseFloat(f.AmountRaw, 64); err != nil {
		errs.Add("amount", "Amount must be a number")
	} else if f.Amount <= 0 {
		errs.Add("amount", "Amount must be greater than zero")
	}
	if f.Category == "" {
		errs.Add("category", "Category is required")
	} else if len(f.Category) > 64 {
		errs.Add("category", "Category must be at most 64 characters")
	}
	if len(f.Description) > 256 {
		errs.Add("description", "Description must be at most 256 characters")
	}
	return errs
}

// BudgetForm carries the monthly budget field.
type BudgetForm struct {
	BudgetRaw string
	Budget    float64
}

func ParseBudget(values url.Values) *BudgetForm {
	f := &BudgetForm{BudgetRaw: strings.TrimSpace(values.Get("budget"))}
	f.Budget, _ = strconv.ParseFloat(f.BudgetRaw, 64)
	return f
}

func (f *BudgetForm) Validate() Errors {
	errs := Errors{}
	if f.BudgetRaw == "" {
		errs.Add("budget", "Budget is required")
	} else if _, err := strconv.ParseFloat(f.BudgetRaw, 64); err != nil {
		errs.Add("budget", "Budget must be a number")
	} else if f.Budget < 0 {
		errs.Add("budget", "Budget cannot be negative")
	}
	return errs
}

// ProfileForm carries the editable profile fields. The avatar file is
// handled separately by the upload path.
type ProfileForm struct {
	FullName string
	Bio      string
}

func ParseProfile(values url.Values) *ProfileForm {
	return &ProfileForm{
		FullName: strings.TrimSpace(values.Get("full_name")),
		Bio:      strings.TrimSpace(values.Get("bio")),
	}
}

func (f *ProfileForm) Validate() Errors {
	errs := Errors{}
	if len(f.FullName) > 120 {
		errs.Add("full_name", "Full name must be at most 120 characters")
	}
	if len(f.Bio) > 256 {
		errs.Add("bio", "Bio must be at most 256 characters")
	}
	return errs
}

// CategoryForm carries new-category fields. Per-user name uniqueness is
// checked by the handler.
type CategoryForm struct {
	Name  string
	Color string
}

func ParseCategory(values url.Values) *CategoryForm {
	return &CategoryForm{
		Name:  strings.TrimSpace(values.Get("name")),
		Color: strings.TrimSpace(values.Get("color")),
	}
}

func (f *CategoryForm) Validate() Errors {
	errs := Errors{}
	if f.Name == "" {
		errs.Add("name", "Category name is required")
	} else if len(f.Name) < 2 || len(f.Name) > 64 {
		errs.Add("name", "Category name must be between 2 and 64 characters")
	}
	if f.Color != "" && !hexColorPattern.MatchString(f.Color) {
		errs.Add("color", "Use a hex color like #ff9900 or f90")
	}
	return errs
}
