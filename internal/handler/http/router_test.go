package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/jamaica-payroll/internal/config"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/payroll"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/period"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/statutory"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/transaction"
	"github.com/cmlabs-hris/jamaica-payroll/internal/domain/user"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/jwt"
	"github.com/cmlabs-hris/jamaica-payroll/internal/pkg/sse"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret  = "test-secret-key-for-jwt"
	handlerTestCompany = "11111111-1111-4111-8111-111111111111"
)

// ========== FAKES ==========

type fakePayrollService struct {
	payroll.PayrollService
	lastCompany string
	lastPeriod  period.Period
	lastFilter  payroll.PayrollFilter
	finalizeBy  string
	finalizeErr error
}

func (f *fakePayrollService) GetBatch(ctx context.Context, companyID string, p period.Period) (payroll.BatchResponse, error) {
	f.lastCompany, f.lastPeriod = companyID, p
	return payroll.BatchResponse{Period: p.Key()}, nil
}

func (f *fakePayrollService) Calculate(ctx context.Context, companyID string, p period.Period) (payroll.CalculateResult, error) {
	f.lastCompany, f.lastPeriod = companyID, p
	return payroll.CalculateResult{Period: p.Key(), Calculated: 2}, nil
}

func (f *fakePayrollService) Finalize(ctx context.Context, companyID string, p period.Period, finalizedBy string) (payroll.FinalizeResult, error) {
	f.lastCompany, f.lastPeriod, f.finalizeBy = companyID, p, finalizedBy
	if f.finalizeErr != nil {
		return payroll.FinalizeResult{}, f.finalizeErr
	}
	return payroll.FinalizeResult{Period: p.Key(), Finalized: 2}, nil
}

func (f *fakePayrollService) ListRecords(ctx context.Context, companyID string, filter payroll.PayrollFilter) (payroll.ListPayrollRecordResponse, error) {
	f.lastCompany, f.lastFilter = companyID, filter
	return payroll.ListPayrollRecordResponse{
		Data:       []payroll.PayrollRecordResponse{{ID: "r1", Period: "2025-06", GrossSalary: decimal.NewFromInt(100000)}},
		TotalCount: 41,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (f *fakePayrollService) YearToDate(ctx context.Context, companyID string, employeeID string, through period.Period) (payroll.YearToDate, error) {
	f.lastCompany, f.lastPeriod = companyID, through
	return payroll.YearToDate{EmployeeID: employeeID, Year: through.Year, Through: through.Key()}, nil
}

type fakeStatutoryService struct {
	statutory.StatutoryService
	published bool
}

func (f *fakeStatutoryService) Publish(ctx context.Context, req statutory.PublishRateSetRequest) (statutory.RateSetResponse, error) {
	f.published = true
	return statutory.RateSetResponse{Version: "v2"}, nil
}

func (f *fakeStatutoryService) ListRateSets(ctx context.Context) ([]statutory.RateSetResponse, error) {
	return []statutory.RateSetResponse{{Version: "v1"}}, nil
}

type fakeTransactionService struct {
	transaction.TransactionService
	lastFilter transaction.TransactionFilter
	posted     transaction.PostTransactionRequest
}

func (f *fakeTransactionService) Post(ctx context.Context, companyID string, req transaction.PostTransactionRequest) (transaction.TransactionResponse, error) {
	f.posted = req
	return transaction.TransactionResponse{ID: "t1", EmployeeID: req.EmployeeID, Period: req.Period, Code: req.Code}, nil
}

func (f *fakeTransactionService) List(ctx context.Context, companyID string, filter transaction.TransactionFilter) ([]transaction.TransactionResponse, error) {
	f.lastFilter = filter
	return []transaction.TransactionResponse{}, nil
}

// ========== HELPERS ==========

type testServer struct {
	router       *chi.Mux
	jwt          jwt.Service
	hub          *sse.Hub
	payroll      *fakePayrollService
	statutory    *fakeStatutoryService
	transactions *fakeTransactionService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		jwt:          jwt.NewJWTService(handlerTestSecret, time.Hour),
		hub:          sse.NewHub(),
		payroll:      &fakePayrollService{},
		statutory:    &fakeStatutoryService{},
		transactions: &fakeTransactionService{},
	}
	ts.router = NewRouter(
		config.AppConfig{Name: "jamaica-payroll-test", Version: "test", Env: "test", CORSOrigins: []string{"*"}},
		ts.jwt,
		NewPayrollHandler(ts.payroll),
		NewStatutoryHandler(ts.statutory),
		NewTransactionHandler(ts.transactions),
		NewEventsHandler(ts.hub),
	)
	return ts
}

func (ts *testServer) token(t *testing.T, role user.Role) string {
	t.Helper()
	token, _, err := ts.jwt.GenerateAccessToken(user.Principal{
		UserID:    "user-" + string(role),
		CompanyID: handlerTestCompany,
		Role:      role,
	})
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path string, role user.Role, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token(t, role))
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		TotalItems int64 `json:"total_items"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

// ========== TESTS ==========

func TestRouter_Authorization(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		role   user.Role
		body   interface{}
		want   int
	}{
		{"no token", http.MethodGet, "/api/v1/payroll/batches/2025-06", "", nil, http.StatusUnauthorized},
		{"employee cannot view payroll", http.MethodGet, "/api/v1/payroll/batches/2025-06", user.RoleEmployee, nil, http.StatusForbidden},
		{"manager views batch", http.MethodGet, "/api/v1/payroll/batches/2025-06", user.RoleManager, nil, http.StatusOK},
		{"manager calculates", http.MethodPost, "/api/v1/payroll/batches/2025-06/calculate", user.RoleManager, nil, http.StatusOK},
		{"manager cannot finalize", http.MethodPost, "/api/v1/payroll/batches/2025-06/finalize", user.RoleManager, nil, http.StatusForbidden},
		{"owner finalizes", http.MethodPost, "/api/v1/payroll/batches/2025-06/finalize", user.RoleOwner, nil, http.StatusOK},
		{"manager cannot publish rates", http.MethodPost, "/api/v1/statutory/rate-sets", user.RoleManager, map[string]string{}, http.StatusForbidden},
		{"manager lists rate sets", http.MethodGet, "/api/v1/statutory/rate-sets", user.RoleManager, nil, http.StatusOK},
		{"employee cannot list transactions", http.MethodGet, "/api/v1/transactions", user.RoleEmployee, nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.do(t, tt.method, tt.path, tt.role, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_CompanyComesFromToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/payroll/batches/2025-06/calculate", user.RoleManager, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, handlerTestCompany, ts.payroll.lastCompany)
	assert.Equal(t, period.MustParse("2025-06"), ts.payroll.lastPeriod)

	var result payroll.CalculateResult
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &result))
	assert.Equal(t, 2, result.Calculated)
}

func TestRouter_InvalidPeriod(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/payroll/batches/2025-13", user.RoleOwner, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "period")
}

func TestRouter_FinalizeIncompleteBatch(t *testing.T) {
	ts := newTestServer(t)
	ts.payroll.finalizeErr = &payroll.IncompleteBatchError{
		CompanyID:    handlerTestCompany,
		Period:       period.MustParse("2025-06"),
		PendingCount: 3,
	}

	rec := ts.do(t, http.MethodPost, "/api/v1/payroll/batches/2025-06/finalize", user.RoleOwner, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "3", env.Error.Details["pending_count"])
	assert.Equal(t, "user-owner", ts.payroll.finalizeBy)
}

func TestRouter_ListRecordsPagination(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/payroll/records?period=2025-06&status=Calculated&page=2&limit=20&sort_by=net_salary", user.RoleManager, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	filter := ts.payroll.lastFilter
	require.NotNil(t, filter.Period)
	assert.Equal(t, "2025-06", *filter.Period)
	require.NotNil(t, filter.Status)
	assert.Equal(t, "Calculated", *filter.Status)
	assert.Nil(t, filter.EmployeeID)
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, "net_salary", filter.SortBy)

	env := decode(t, rec)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(41), env.Meta.TotalItems)
	assert.Equal(t, 3, env.Meta.TotalPages)
}

func TestRouter_YearToDateDefaultsToCurrentPeriod(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/payroll/employees/e1/ytd", user.RoleManager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, period.Of(time.Now()), ts.payroll.lastPeriod)

	rec = ts.do(t, http.MethodGet, "/api/v1/payroll/employees/e1/ytd?through=2025-03", user.RoleManager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, period.MustParse("2025-03"), ts.payroll.lastPeriod)
}

func TestRouter_PublishRateSet(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/statutory/rate-sets", user.RoleOwner, map[string]string{"version": "v2"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, ts.statutory.published)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/statutory/rate-sets", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+ts.token(t, user.RoleOwner))
	bad := httptest.NewRecorder()
	ts.router.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestRouter_Transactions(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/transactions", user.RoleManager, map[string]string{
		"employee_id": "6f1c1c5e-8a51-4c1e-9a0e-3d2b7e0f4a10",
		"period":      "2025-06",
		"code":        "MEAL",
		"amount":      "5000",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, ts.transactions.posted.Amount)
	assert.Equal(t, "5000", ts.transactions.posted.Amount.String())

	rec = ts.do(t, http.MethodGet, "/api/v1/transactions?period=2025-06&status=POSTED", user.RoleManager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, ts.transactions.lastFilter.Period)
	assert.Equal(t, "2025-06", ts.transactions.lastFilter.Period.Key())
	require.NotNil(t, ts.transactions.lastFilter.Status)
	assert.Equal(t, transaction.StatusPosted, *ts.transactions.lastFilter.Status)

	rec = ts.do(t, http.MethodGet, "/api/v1/transactions?employee_id=nope&status=PAID", user.RoleManager, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "employee_id")
	assert.Contains(t, env.Error.Details, "status")
}

func TestEvents_StreamsCompanyEvents(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.router)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/payroll/events?jwt="+ts.token(t, user.RoleManager), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "event: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "event: "))
			}
		}
	}

	assert.Equal(t, "connected", readEvent())

	ts.hub.Publish("another-company", "batch.calculated", nil)
	ts.hub.Publish(handlerTestCompany, "batch.finalized", map[string]string{"period": "2025-06"})
	assert.Equal(t, "batch.finalized", readEvent())
}

func TestEvents_RequiresToken(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/v1/payroll/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
