package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"eets/internal/auth"
	"eets/internal/models"
	"eets/internal/storage"
	"eets/internal/tracker"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const templateDir = "../../web/templates"

// HandlersTestSuite drives the router against an in-memory store.
type HandlersTestSuite struct {
	suite.Suite
	db     *storage.DB
	svc    *tracker.Service
	issuer *auth.Issuer
	h      *Handlers
	router http.Handler
	ctx    context.Context
}

// SetupTest runs before each test
func (suite *HandlersTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.ctx = context.Background()
	suite.svc = tracker.NewService(db)
	suite.issuer = auth.NewIssuer([]byte("test-secret"), time.Hour)
	suite.h = NewHandlers(suite.svc, suite.issuer, templateDir, false)
	suite.h.now = func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) }
	suite.router = NewRouter(suite.h)
}

// TearDownTest runs after each test
func (suite *HandlersTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *HandlersTestSuite) do(method, path string, form url.Values, employeeID string) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, http.NoBody)
	}
	if employeeID != "" {
		token, _, err := suite.issuer.Issue(employeeID)
		require.NoError(suite.T(), err)
		req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) addExpense(employeeID, id, category, amount, date string) {
	err := suite.db.UpsertExpense(suite.ctx, models.Expense{
		ExpenseID:  id,
		EmployeeID: employeeID,
		Category:   category,
		Amount:     decimal.RequireFromString(amount),
		Date:       date,
	}, false)
	require.NoError(suite.T(), err)
}

func (suite *HandlersTestSuite) TestProtectedRoutesRedirectToLogin() {
	for _, path := range []string{"/dashboard", "/add_expenses", "/view_expenses", "/edit_expense/x", "/delete_expense/x", "/visualization"} {
		w := suite.do(http.MethodGet, path, nil, "")
		assert.Equal(suite.T(), http.StatusFound, w.Code, path)
		assert.Equal(suite.T(), "/login", w.Header().Get("Location"), path)
	}
}

func (suite *HandlersTestSuite) TestTamperedTokenRedirects() {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", http.NoBody)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: "forged"})
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	assert.Equal(suite.T(), http.StatusFound, w.Code)
	assert.Equal(suite.T(), "/login", w.Header().Get("Location"))
}

func (suite *HandlersTestSuite) TestHealth() {
	w := suite.do(http.MethodGet, "/health", nil, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "OK", w.Body.String())
}

func (suite *HandlersTestSuite) TestLoginPage() {
	w := suite.do(http.MethodGet, "/", nil, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "login-form")

	w = suite.do(http.MethodGet, "/login", nil, "12345")
	assert.Equal(suite.T(), http.StatusFound, w.Code)
	assert.Equal(suite.T(), "/dashboard", w.Header().Get("Location"))
}

func (suite *HandlersTestSuite) TestRegisterThenLogin() {
	w := suite.do(http.MethodPost, "/register", url.Values{"employee_id": {"12345"}, "password": {"Passw0rd!"}}, "")
	require.Equal(suite.T(), http.StatusFound, w.Code)
	assert.Equal(suite.T(), "/login", w.Header().Get("Location"))

	w = suite.do(http.MethodPost, "/login", url.Values{"employee_id": {"12345"}, "password": {"Passw0rd!"}}, "")
	require.Equal(suite.T(), http.StatusFound, w.Code)
	assert.Equal(suite.T(), "/dashboard", w.Header().Get("Location"))

	var token string
	for _, c := range w.Result().Cookies() {
		if c.Name == TokenCookieName {
			token = c.Value
		}
	}
	require.NotEmpty(suite.T(), token)

	employeeID, err := suite.issuer.Parse(token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "12345", employeeID)
}

func (suite *HandlersTestSuite) TestRegisterErrors() {
	w := suite.do(http.MethodPost, "/register", url.Values{"employee_id": {"12a45"}, "password": {"Passw0rd!"}}, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), tracker.ErrInvalidEmployeeID.Error())

	w = suite.do(http.MethodPost, "/register", url.Values{"employee_id": {"12345"}, "password": {"abc"}}, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "longer than 8 characters")

	require.NoError(suite.T(), suite.svc.Register(suite.ctx, "12345", "Passw0rd!"))
	w = suite.do(http.MethodPost, "/register", url.Values{"employee_id": {"12345"}, "password": {"Passw0rd!"}}, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), tracker.ErrEmployeeExists.Error())
}

func (suite *HandlersTestSuite) TestLoginInvalid() {
	require.NoError(suite.T(), suite.svc.Register(suite.ctx, "12345", "Passw0rd!"))

	w := suite.do(http.MethodPost, "/login", url.Values{"employee_id": {"12345"}, "password": {"nope"}}, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Invalid employee ID or password")
	assert.Empty(suite.T(), w.Result().Cookies())
}

func (suite *HandlersTestSuite) TestLogoutClearsCookie() {
	w := suite.do(http.MethodGet, "/logout", nil, "12345")
	assert.Equal(suite.T(), http.StatusFound, w.Code)
	cookies := w.Result().Cookies()
	require.Len(suite.T(), cookies, 1)
	assert.Equal(suite.T(), TokenCookieName, cookies[0].Name)
	assert.Negative(suite.T(), cookies[0].MaxAge)
}

func (suite *HandlersTestSuite) TestDashboardGreeting() {
	w := suite.do(http.MethodGet, "/dashboard", nil, "12345")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Good Morning, 12345")
}

func (suite *HandlersTestSuite) TestAddAndViewExpense() {
	w := suite.do(http.MethodPost, "/add_expenses", url.Values{"category": {"Office Supplies"}, "amount": {"12.5"}, "date": {"2024-01-01"}}, "12345")
	require.Equal(suite.T(), http.StatusFound, w.Code)
	assert.Equal(suite.T(), "/view_expenses", w.Header().Get("Location"))

	suite.addExpense("22222", "theirs", "Secret", "99", "2024-01-01")

	w = suite.do(http.MethodGet, "/view_expenses", nil, "12345")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(suite.T(), body, "Office Supplies")
	assert.Contains(suite.T(), body, "12.50")
	assert.NotContains(suite.T(), body, "Secret")
}

func (suite *HandlersTestSuite) TestAddExpenseValidation() {
	w := suite.do(http.MethodPost, "/add_expenses", url.Values{"category": {"Food1"}, "amount": {"1"}, "date": {"2024-01-01"}}, "12345")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "category must contain only text")

	w = suite.do(http.MethodPost, "/add_expenses", url.Values{"category": {"Food"}, "amount": {""}, "date": {"2024-01-01"}}, "12345")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "amount is required")

	expenses, err := suite.db.ListExpenses(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), expenses)
}

func (suite *HandlersTestSuite) TestEditExpense() {
	suite.addExpense("12345", "e1", "Food", "12.5", "2024-01-01")

	w := suite.do(http.MethodGet, "/edit_expense/e1", nil, "12345")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), `value="Food"`)

	w = suite.do(http.MethodPost, "/edit_expense/e1", url.Values{"category": {"Food"}, "amount": {"20.0"}, "date": {"2024-01-01"}}, "12345")
	assert.Equal(suite.T(), http.StatusFound, w.Code)

	got, found, err := suite.db.GetExpenseByID(suite.ctx, "e1")
	require.NoError(suite.T(), err)
	require.True(suite.T(), found)
	assert.True(suite.T(), got.Amount.Equal(decimal.NewFromInt(20)))
	assert.Equal(suite.T(), "12345", got.EmployeeID)
}

func (suite *HandlersTestSuite) TestEditExpenseOfOtherEmployeeRedirects() {
	suite.addExpense("11111", "e1", "Food", "1", "2024-01-01")

	w := suite.do(http.MethodGet, "/edit_expense/e1", nil, "22222")
	assert.Equal(suite.T(), http.StatusFound, w.Code)
	assert.Equal(suite.T(), "/view_expenses", w.Header().Get("Location"))

	w = suite.do(http.MethodPost, "/edit_expense/e1", url.Values{"category": {"Travel"}, "amount": {"5"}, "date": {"d"}}, "22222")
	assert.Equal(suite.T(), http.StatusFound, w.Code)

	got, _, err := suite.db.GetExpenseByID(suite.ctx, "e1")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Food", got.Category)
}

func (suite *HandlersTestSuite) TestDeleteExpense() {
	suite.addExpense("12345", "e1", "Food", "1", "2024-01-01")

	w := suite.do(http.MethodGet, "/delete_expense/e1", nil, "12345")
	assert.Equal(suite.T(), http.StatusFound, w.Code)
	assert.Equal(suite.T(), "/view_expenses", w.Header().Get("Location"))

	_, found, err := suite.db.GetExpenseByID(suite.ctx, "e1")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), found)

	w = suite.do(http.MethodGet, "/delete_expense/e1", nil, "12345")
	assert.Equal(suite.T(), http.StatusFound, w.Code)
}

func (suite *HandlersTestSuite) TestVisualization() {
	w := suite.do(http.MethodGet, "/visualization", nil, "12345")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "No expenses to chart yet")

	suite.addExpense("12345", "a", "Food", "10", "2024-01-01")
	suite.addExpense("12345", "b", "Food", "5", "2024-01-02")
	suite.addExpense("12345", "c", "Travel", "7", "2024-01-01")
	suite.addExpense("99999", "d", "Hidden", "100", "2024-01-01")

	w = suite.do(http.MethodGet, "/visualization", nil, "12345")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(suite.T(), body, "15.00")
	assert.Contains(suite.T(), body, "7.00")
	assert.Contains(suite.T(), body, "17.00") // 2024-01-01
	assert.NotContains(suite.T(), body, "Hidden")
}

func (suite *HandlersTestSuite) TestStorageFailureRendersErrorPage() {
	require.NoError(suite.T(), suite.db.Close())

	w := suite.do(http.MethodGet, "/view_expenses", nil, "12345")
	assert.Equal(suite.T(), http.StatusInternalServerError, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "An unexpected error occurred")

	w = suite.do(http.MethodPost, "/login", url.Values{"employee_id": {"12345"}, "password": {"x"}}, "")
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "An unexpected error occurred")
}

func (suite *HandlersTestSuite) TestPagesAreServedAsHTML() {
	w := suite.do(http.MethodGet, "/login", nil, "")

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(suite.T(), w.Body.String(), "<html")
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func TestEmployeeIDFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	assert.Empty(t, EmployeeID(req))

	req = req.WithContext(WithEmployeeID(req.Context(), "12345"))
	assert.Equal(t, "12345", EmployeeID(req))
}

// headerCounter records how many times WriteHeader is called.
type headerCounter struct {
	*httptest.ResponseRecorder
	writes int
}

func (c *headerCounter) WriteHeader(status int) {
	c.writes++
	c.ResponseRecorder.WriteHeader(status)
}

func TestRenderErrorWritesStatusOnce(t *testing.T) {
	tests := []struct {
		name        string
		templateDir string
		wantBody    string
	}{
		{name: "templates available", templateDir: templateDir, wantBody: "boom"},
		{name: "templates missing", templateDir: t.TempDir(), wantBody: "Template error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(nil, nil, tt.templateDir, false)
			w := &headerCounter{ResponseRecorder: httptest.NewRecorder()}

			h.renderError(w, "boom")

			assert.Equal(t, 1, w.writes)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}
