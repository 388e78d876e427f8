package http

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outlay/internal/auth"
	"outlay/internal/config"
	"outlay/internal/core"
	"outlay/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Port:           "8080",
		SecretKey:      "test-secret",
		DatabasePath:   ":memory:",
		ReadOnly:       true,
		UploadDir:      t.TempDir(),
		MaxUploadBytes: 2 << 20,
	}

	repo, err := storage.Open(cfg.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	srv, err := NewServer(cfg, repo)
	require.NoError(t, err)
	return srv
}

func createTestUser(t *testing.T, s *Server, username string) *core.User {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	user, err := s.repo.CreateUser(context.Background(), username, username+"@example.com", hash)
	require.NoError(t, err)
	return user
}

// signIn issues a session for the user and returns the cookie a browser
// would carry.
func signIn(t *testing.T, s *Server, user *core.User) *http.Cookie {
	t.Helper()

	token := auth.NewSessionToken()
	err := s.repo.CreateSession(context.Background(), token, user.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return &http.Cookie{Name: SessionCookieName, Value: auth.SignValue(s.cfg.SecretKey, token)}
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func postForm(s *Server, path string, values url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return doRequest(s, req)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestDashboardRequiresLogin(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/dashboard?period=this_year", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	loc := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(loc, "/auth/login?next="), "got %q", loc)
	assert.Contains(t, loc, url.QueryEscape("/dashboard?period=this_year"))
}

func TestTamperedSessionCookieRejected(t *testing.T) {
	s := newTestServer(t)
	user := createTestUser(t, s, "alice")
	cookie := signIn(t, s, user)
	cookie.Value += "ff"

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	rec := doRequest(s, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "/auth/login")
}

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t)
	createTestUser(t, s, "alice")

	t.Run("wrong password re-renders", func(t *testing.T) {
		rec := postForm(s, "/auth/login", url.Values{
			"username": {"alice"},
			"password": {"wrong-password"},
		}, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid username or password")
	})

	t.Run("valid credentials set a session", func(t *testing.T) {
		rec := postForm(s, "/auth/login", url.Values{
			"username": {"alice"},
			"password": {"password123"},
		}, nil)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

		var session *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == SessionCookieName {
				session = c
			}
		}
		require.NotNil(t, session)

		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.AddCookie(session)
		assert.Equal(t, http.StatusOK, doRequest(s, req).Code)
	})

	t.Run("next parameter is honored", func(t *testing.T) {
		rec := postForm(s, "/auth/login?next=%2Fexpenses", url.Values{
			"username": {"alice"},
			"password": {"password123"},
		}, nil)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/expenses", rec.Header().Get("Location"))
	})

	t.Run("absolute next URL falls back to dashboard", func(t *testing.T) {
		rec := postForm(s, "/auth/login?next=https%3A%2F%2Fevil.example", url.Values{
			"username": {"alice"},
			"password": {"password123"},
		}, nil)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	})
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)
	createTestUser(t, s, "taken")

	t.Run("success redirects to login", func(t *testing.T) {
		rec := postForm(s, "/auth/register", url.Values{
			"username":  {"bob"},
			"email":     {"bob@example.com"},
			"password":  {"password123"},
			"password2": {"password123"},
		}, nil)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/auth/login", rec.Header().Get("Location"))

		_, err := s.repo.UserByUsername(context.Background(), "bob")
		assert.NoError(t, err)
	})

	t.Run("duplicate username re-renders with error", func(t *testing.T) {
		rec := postForm(s, "/auth/register", url.Values{
			"username":  {"taken"},
			"email":     {"new@example.com"},
			"password":  {"password123"},
			"password2": {"password123"},
		}, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Please use a different username")
	})

	t.Run("mismatched passwords re-render", func(t *testing.T) {
		rec := postForm(s, "/auth/register", url.Values{
			"username":  {"carol"},
			"email":     {"carol@example.com"},
			"password":  {"password123"},
			"password2": {"different456"},
		}, nil)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Passwords must match")
	})
}

func TestLogoutClearsSession(t *testing.T) {
	s := newTestServer(t)
	user := createTestUser(t, s, "alice")
	cookie := signIn(t, s, user)

	req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(cookie)
	rec := doRequest(s, req)
	require.Equal(t, http.StatusFound, rec.Code)

	// The stored session is gone, so the old cookie no longer works.
	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	assert.Equal(t, http.StatusFound, doRequest(s, req).Code)
}

func TestAddExpense(t *testing.T) {
	s := newTestServer(t)
	user := createTestUser(t, s, "alice")
	cookie := signIn(t, s, user)

	t.Run("valid expense is stored", func(t *testing.T) {
		rec := postForm(s, "/add_expense", url.Values{
			"title":    {"Groceries"},
			"amount":   {"42.50"},
			"category": {"food"},
		}, cookie)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

		total, err := s.repo.SumExpenses(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, 42.50, total)
	})

	t.Run("non-numeric amount re-renders", func(t *testing.T) {
		rec := postForm(s, "/add_expense", url.Values{
			"title":    {"Groceries"},
			"amount":   {"abc"},
			"category": {"food"},
		}, cookie)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Amount must be a number")
	})

	t.Run("zero amount re-renders", func(t *testing.T) {
		rec := postForm(s, "/add_expense", url.Values{
			"title":    {"Free lunch"},
			"amount":   {"0"},
			"category": {"food"},
		}, cookie)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "greater than zero")
	})
}

func TestExpenseOwnership(t *testing.T) {
	s := newTestServer(t)
	owner := createTestUser(t, s, "owner")
	other := createTestUser(t, s, "other")

	expense, err := s.repo.CreateExpense(context.Background(), &core.Expense{
		UserID: owner.ID, Title: "Rent", Amount: 900, Category: "housing",
	})
	require.NoError(t, err)

	cookie := signIn(t, s, other)
	req := httptest.NewRequest(http.MethodGet, "/expense/"+itoa(expense.ID)+"/edit", nil)
	req.AddCookie(cookie)
	rec := doRequest(s, req)

	// Refused, not revealed: redirect back to the list.
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/expenses", rec.Header().Get("Location"))

	// The owner still gets the edit form.
	cookie = signIn(t, s, owner)
	req = httptest.NewRequest(http.MethodGet, "/expense/"+itoa(expense.ID)+"/edit", nil)
	req.AddCookie(cookie)
	rec = doRequest(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rent")
}

func TestEditAndDeleteExpense(t *testing.T) {
	s := newTestServer(t)
	user := createTestUser(t, s, "alice")
	cookie := signIn(t, s, user)

	expense, err := s.repo.CreateExpense(context.Background(), &core.Expense{
		UserID: user.ID, Title: "Bus ticket", Amount: 3, Category: "transportation",
	})
	require.NoError(t, err)

	rec := postForm(s, "/expense/"+itoa(expense.ID)+"/edit", url.Values{
		"title":    {"Train ticket"},
		"amount":   {"12.00"},
		"category": {"transportation"},
	}, cookie)
	require.Equal(t, http.StatusFound, rec.Code)

	updated, err := s.repo.ExpenseByID(context.Background(), expense.ID)
	require.NoError(t, err)
	assert.Equal(t, "Train ticket", updated.Title)
	assert.Equal(t, 12.00, updated.Amount)

	req := httptest.NewRequest(http.MethodGet, "/expense/"+itoa(expense.ID)+"/delete", nil)
	req.AddCookie(cookie)
	rec = doRequest(s, req)
	require.Equal(t, http.StatusFound, rec.Code)

	_, err = s.repo.ExpenseByID(context.Background(), expense.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMissingExpenseIs404(t *testing.T) {
	s := newTestServer(t)
	user := createTestUser(t, s, "alice")
	cookie := signIn(t, s, user)

	for _, path := range []string{"/expense/9999/edit", "/expense/abc/edit"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(cookie)
		assert.Equal(t, http.StatusNotFound, doRequest(s, req).Code, path)
	}
}

func TestCSVExport(t *testing.T) {
	s := newTestServer(t)
	user := createTestUser(t, s, "alice")
	cookie := signIn(t, s, user)

	ts := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	for i, e := range []core.Expense{
		{Title: "Coffee", Amount: 4.5, Category: "food"},
		{Title: "Book", Amount: 19, Category: "education"},
	} {
		e.UserID = user.ID
		e.Timestamp = ts.AddDate(0, 0, i)
		_, err := s.repo.CreateExpense(context.Background(), &e)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard/export?period=this_year", nil)
	req.AddCookie(cookie)

	restore := timeNow
	timeNow = func() time.Time { return ts }
	defer func() { timeNow = restore }()

	rec := doRequest(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "expenses_20260310.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Title,Category,Amount,Description", strings.TrimSpace(lines[0]))
	// Newest first, two-decimal amounts.
	assert.Contains(t, lines[1], "Book")
	assert.Contains(t, lines[1], "19.00")
	assert.Contains(t, lines[2], "Coffee")
	assert.Contains(t, lines[2], "4.50")
}

func TestProfileForms(t *testing.T) {
	s := newTestServer(t)
	user := createTestUser(t, s, "alice")
	cookie := signIn(t, s, user)

	t.Run("budget update", func(t *testing.T) {
		rec := postForm(s, "/profile", url.Values{
			"form":   {"budget"},
			"budget": {"750.00"},
		}, cookie)

		require.Equal(t, http.StatusFound, rec.Code)
		stored, err := s.repo.UserByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, 750.0, stored.Budget)
	})

	t.Run("negative budget re-renders", func(t *testing.T) {
		rec := postForm(s, "/profile", url.Values{
			"form":   {"budget"},
			"budget": {"-5"},
		}, cookie)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "cannot be negative")
	})

	t.Run("profile details update", func(t *testing.T) {
		rec := postForm(s, "/profile", url.Values{
			"form":      {"profile"},
			"full_name": {"Alice Example"},
			"bio":       {"Saving up."},
		}, cookie)

		require.Equal(t, http.StatusFound, rec.Code)
		stored, err := s.repo.UserByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice Example", stored.FullName)
		assert.Equal(t, "Saving up.", stored.Bio)
	})

	t.Run("category lifecycle", func(t *testing.T) {
		rec := postForm(s, "/profile", url.Values{
			"form":  {"category"},
			"name":  {"Subscriptions"},
			"color": {"#ff9900"},
		}, cookie)
		require.Equal(t, http.StatusFound, rec.Code)

		// Duplicate name is rejected.
		rec = postForm(s, "/profile", url.Values{
			"form": {"category"},
			"name": {"Subscriptions"},
		}, cookie)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Category already exists")

		categories, err := s.repo.ListCategories(context.Background(), user.ID)
		require.NoError(t, err)
		require.Len(t, categories, 1)

		req := httptest.NewRequest(http.MethodGet, "/category/"+itoa(categories[0].ID)+"/delete", nil)
		req.AddCookie(cookie)
		rec = doRequest(s, req)
		require.Equal(t, http.StatusFound, rec.Code)

		categories, err = s.repo.ListCategories(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Empty(t, categories)
	})

	t.Run("avatar upload warns in read-only mode", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("form", "profile"))
		require.NoError(t, mw.WriteField("full_name", "Alice Example"))
		part, err := mw.CreateFormFile("avatar", "me.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("not-really-a-png"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/profile", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.AddCookie(cookie)
		rec := doRequest(s, req)
		require.Equal(t, http.StatusFound, rec.Code)

		// The warning flash shows on the next page view.
		req = httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.AddCookie(cookie)
		for _, c := range rec.Result().Cookies() {
			if c.Name == flashCookieName {
				req.AddCookie(c)
			}
		}
		rec = doRequest(s, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "read-only mode")

		stored, err := s.repo.UserByID(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.AvatarPath, "no avatar recorded in read-only mode")
	})

	t.Run("cannot delete another user's category", func(t *testing.T) {
		other := createTestUser(t, s, "other")
		cat, err := s.repo.CreateCategory(context.Background(), &core.Category{
			UserID: other.ID, Name: "Private", Color: "#123456",
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/category/"+itoa(cat.ID)+"/delete", nil)
		req.AddCookie(cookie)
		rec := doRequest(s, req)

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/profile", rec.Header().Get("Location"))

		_, err = s.repo.CategoryByID(context.Background(), cat.ID)
		assert.NoError(t, err)
	})
}

func TestIndexRedirectsSignedInUser(t *testing.T) {
	s := newTestServer(t)
	user := createTestUser(t, s, "alice")
	cookie := signIn(t, s, user)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := doRequest(s, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
