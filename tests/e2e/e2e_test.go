package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bookingpay/internal/config"
	"bookingpay/internal/database"
	"bookingpay/internal/domain"
	"bookingpay/internal/middleware"
	"bookingpay/internal/modules/admin"
	"bookingpay/internal/modules/auth"
	"bookingpay/internal/modules/booking"
	"bookingpay/internal/modules/payment"
	"bookingpay/internal/modules/provider"
	jwtsvc "bookingpay/internal/pkg/jwt"
	"bookingpay/internal/repository"
	"bookingpay/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGateway returns queued outcomes so flows are deterministic.
type scriptedGateway struct {
	mu       sync.Mutex
	charges  []provider.Outcome
	checks   []domain.PaymentStatus
	nCharges int
}

func (g *scriptedGateway) queueCharge(o provider.Outcome) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges = append(g.charges, o)
}

func (g *scriptedGateway) queueCheck(s domain.PaymentStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checks = append(g.checks, s)
}

func (g *scriptedGateway) chargeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nCharges
}

func (g *scriptedGateway) Charge(ctx context.Context, p *domain.Payment) (*provider.Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nCharges++
	if len(g.charges) == 0 {
		return &provider.Outcome{Status: domain.PaymentSuccess, Reference: "TEST_REF"}, nil
	}
	out := g.charges[0]
	g.charges = g.charges[1:]
	return &out, nil
}

func (g *scriptedGateway) CheckStatus(ctx context.Context, p *domain.Payment) (domain.PaymentStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.checks) == 0 {
		return domain.PaymentPending, nil
	}
	st := g.checks[0]
	g.checks = g.checks[1:]
	return st, nil
}

type testSuite struct {
	router  *gin.Engine
	gateway *scriptedGateway
	sched   *scheduler.Scheduler
}

type testResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *errorDetail           `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func setupSuite(t *testing.T) *testSuite {
	gin.SetMode(gin.TestMode)

	db, err := database.Connect("file::memory:?cache=shared")
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))

	cfg := &config.Runtime{
		RecheckInterval: time.Minute,
		StaleInterval:   time.Hour,
		StaleAfter:      30 * time.Minute,
		StalePolicy:     config.StalePolicyFlag,
	}

	userRepo := repository.NewUserRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	j := jwtsvc.New("test-secret", time.Hour)
	gateway := &scriptedGateway{}

	authService := auth.NewService(userRepo, j)
	bookingService := booking.NewService(bookingRepo, t.Logf)
	paymentService := payment.NewService(paymentRepo, bookingRepo, gateway, nil, t.Logf)

	sched, err := scheduler.New(paymentService, bookingService, cfg, t.Logf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Stop() })

	r := gin.New()
	v1 := r.Group("/api/v1")
	auth.NewHandler(authService).RegisterRoutes(v1)

	protected := v1.Group("/")
	protected.Use(middleware.Auth(j))
	booking.NewHandler(bookingService).RegisterRoutes(protected)
	payment.NewHandler(paymentService).RegisterRoutes(protected)

	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.Auth(j), middleware.RequireRole("admin"))
	admin.NewHandler(bookingService, paymentService, sched, cfg.StaleAfter).RegisterRoutes(adminGroup)

	return &testSuite{router: r, gateway: gateway, sched: sched}
}

func (s *testSuite) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp testResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (s *testSuite) signup(t *testing.T, email string) string {
	t.Helper()

	w, _ := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":    email,
		"password": "secret-password",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": "secret-password",
	})
	require.Equal(t, http.StatusOK, w.Code)
	return resp.Data["access_token"].(string)
}

func (s *testSuite) createBooking(t *testing.T, token string, amount float64, currency, country string) string {
	t.Helper()

	w, resp := s.do(t, http.MethodPost, "/api/v1/bookings", token, gin.H{
		"amount":       amount,
		"currency":     currency,
		"description":  "test booking",
		"country_code": country,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	b := resp.Data["booking"].(map[string]interface{})
	return b["token"].(string)
}

func cardPayload() gin.H {
	return gin.H{
		"card_number": "4111111111111234",
		"card_holder": "JOHN DOE",
		"card_expiry": "12/30",
		"cvv":         "123",
	}
}

func TestPaymentSuccessFlow(t *testing.T) {
	s := setupSuite(t)
	token := s.signup(t, "payer@example.com")
	bookingToken := s.createBooking(t, token, 100, "USD", "US")

	s.gateway.queueCharge(provider.Outcome{
		Status:    domain.PaymentSuccess,
		Reference: "PROVIDER_B_1700000000000",
		Response:  map[string]string{"code": "000", "message": "Transaction successful"},
	})

	w, resp := s.do(t, http.MethodPost, "/api/v1/bookings/"+bookingToken+"/pay", token, cardPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	p := resp.Data["payment"].(map[string]interface{})
	assert.Equal(t, string(domain.PaymentSuccess), p["status"])
	assert.Equal(t, string(domain.ProviderInternational), p["provider"])
	assert.Equal(t, "**** **** **** 1234", p["card_number"])
	assert.Equal(t, 100.0, p["amount"])

	w, resp = s.do(t, http.MethodGet, "/api/v1/bookings/"+bookingToken, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	b := resp.Data["booking"].(map[string]interface{})
	assert.Equal(t, string(domain.BookingPaid), b["status"])
}

func TestPaymentIdempotentRepay(t *testing.T) {
	s := setupSuite(t)
	token := s.signup(t, "repay@example.com")
	bookingToken := s.createBooking(t, token, 50, "EUR", "DE")

	s.gateway.queueCharge(provider.Outcome{Status: domain.PaymentSuccess, Reference: "REF_1"})

	w, resp := s.do(t, http.MethodPost, "/api/v1/bookings/"+bookingToken+"/pay", token, cardPayload())
	require.Equal(t, http.StatusCreated, w.Code)
	first := resp.Data["payment"].(map[string]interface{})["id"]

	w, resp = s.do(t, http.MethodPost, "/api/v1/bookings/"+bookingToken+"/pay", token, cardPayload())
	require.Equal(t, http.StatusCreated, w.Code)
	second := resp.Data["payment"].(map[string]interface{})["id"]

	assert.Equal(t, first, second)
	assert.Equal(t, 1, s.gateway.chargeCount(), "second pay must not reach the provider")
}

func TestPendingPaymentReconciledToPaid(t *testing.T) {
	s := setupSuite(t)
	token := s.signup(t, "pending@example.com")
	bookingToken := s.createBooking(t, token, 200, "RUB", "RU")

	s.gateway.queueCharge(provider.Outcome{
		Status:    domain.PaymentPending,
		Reference: "PROVIDER_A_1700000000000",
		Response:  map[string]string{"code": "99", "message": "Processing"},
	})

	w, resp := s.do(t, http.MethodPost, "/api/v1/bookings/"+bookingToken+"/pay", token, cardPayload())
	require.Equal(t, http.StatusCreated, w.Code)
	p := resp.Data["payment"].(map[string]interface{})
	assert.Equal(t, string(domain.PaymentPending), p["status"])
	assert.Equal(t, string(domain.ProviderDomestic), p["provider"])

	w, resp = s.do(t, http.MethodGet, "/api/v1/bookings/"+bookingToken, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(domain.BookingNew), resp.Data["booking"].(map[string]interface{})["status"])

	// Reconciliation tick settles the payment.
	s.gateway.queueCheck(domain.PaymentSuccess)
	s.sched.CheckPendingPayments()

	w, resp = s.do(t, http.MethodGet, "/api/v1/bookings/"+bookingToken+"/payment", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(domain.PaymentSuccess), resp.Data["payment"].(map[string]interface{})["status"])

	w, resp = s.do(t, http.MethodGet, "/api/v1/bookings/"+bookingToken, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(domain.BookingPaid), resp.Data["booking"].(map[string]interface{})["status"])
}

func TestCancelFlow(t *testing.T) {
	s := setupSuite(t)
	token := s.signup(t, "cancel@example.com")
	bookingToken := s.createBooking(t, token, 80, "GBP", "GB")

	w, resp := s.do(t, http.MethodDelete, "/api/v1/bookings/"+bookingToken, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(domain.BookingCanceled), resp.Data["booking"].(map[string]interface{})["status"])

	// Canceling again is a no-op, not an error.
	w, resp = s.do(t, http.MethodDelete, "/api/v1/bookings/"+bookingToken, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(domain.BookingCanceled), resp.Data["booking"].(map[string]interface{})["status"])

	// A canceled booking cannot be paid.
	w, resp = s.do(t, http.MethodPost, "/api/v1/bookings/"+bookingToken+"/pay", token, cardPayload())
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", resp.Error.Code)
	assert.Equal(t, 0, s.gateway.chargeCount())
}

func TestCancelPaidBookingRejected(t *testing.T) {
	s := setupSuite(t)
	token := s.signup(t, "paid-cancel@example.com")
	bookingToken := s.createBooking(t, token, 120, "USD", "US")

	s.gateway.queueCharge(provider.Outcome{Status: domain.PaymentSuccess, Reference: "REF_2"})
	w, _ := s.do(t, http.MethodPost, "/api/v1/bookings/"+bookingToken+"/pay", token, cardPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := s.do(t, http.MethodDelete, "/api/v1/bookings/"+bookingToken, token, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", resp.Error.Code)
}

func TestForeignBookingAccessDenied(t *testing.T) {
	s := setupSuite(t)
	owner := s.signup(t, "owner@example.com")
	intruder := s.signup(t, "intruder@example.com")
	bookingToken := s.createBooking(t, owner, 60, "USD", "US")

	w, resp := s.do(t, http.MethodGet, "/api/v1/bookings/"+bookingToken, intruder, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCESS_DENIED", resp.Error.Code)

	w, resp = s.do(t, http.MethodPost, "/api/v1/bookings/"+bookingToken+"/pay", intruder, cardPayload())
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCESS_DENIED", resp.Error.Code)
}

func TestFailedPaymentLeavesBookingNew(t *testing.T) {
	s := setupSuite(t)
	token := s.signup(t, "declined@example.com")
	bookingToken := s.createBooking(t, token, 40, "USD", "US")

	s.gateway.queueCharge(provider.Outcome{
		Status:    domain.PaymentFailed,
		Reference: "PROVIDER_B_1700000000001",
		Response:  map[string]string{"code": "500", "message": "Declined"},
	})

	w, resp := s.do(t, http.MethodPost, "/api/v1/bookings/"+bookingToken+"/pay", token, cardPayload())
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, string(domain.PaymentFailed), resp.Data["payment"].(map[string]interface{})["status"])

	w, resp = s.do(t, http.MethodGet, "/api/v1/bookings/"+bookingToken, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(domain.BookingNew), resp.Data["booking"].(map[string]interface{})["status"])

	// Failed attempts are terminal: a reconciliation tick must not
	// touch them.
	s.gateway.queueCheck(domain.PaymentSuccess)
	s.sched.CheckPendingPayments()

	w, resp = s.do(t, http.MethodGet, "/api/v1/bookings/"+bookingToken+"/payment", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(domain.PaymentFailed), resp.Data["payment"].(map[string]interface{})["status"])
}

func TestAdminEndpointsRequireRole(t *testing.T) {
	s := setupSuite(t)
	user := s.signup(t, "plain@example.com")

	w, resp := s.do(t, http.MethodGet, "/admin/bookings", user, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)

	w, _ = s.do(t, http.MethodGet, "/admin/bookings", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidationErrors(t *testing.T) {
	s := setupSuite(t)
	token := s.signup(t, "invalid@example.com")

	for i, body := range []gin.H{
		{"amount": -1, "currency": "USD", "country_code": "US"},
		{"amount": 10, "currency": "DOLLARS", "country_code": "US"},
		{"amount": 10, "currency": "USD"},
	} {
		w, resp := s.do(t, http.MethodPost, "/api/v1/bookings", token, body)
		require.Equal(t, http.StatusBadRequest, w.Code, fmt.Sprintf("case %d", i))
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	}

	bookingToken := s.createBooking(t, token, 10, "USD", "US")
	w, resp := s.do(t, http.MethodPost, "/api/v1/bookings/"+bookingToken+"/pay", token, gin.H{
		"card_number": "not-a-card",
		"card_holder": "X",
		"card_expiry": "12/30",
		"cvv":         "12",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, 0, s.gateway.chargeCount())
}
