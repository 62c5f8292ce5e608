package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"membership-iap-core/internal/dto"
	"membership-iap-core/internal/entity"
	"membership-iap-core/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPurchases struct {
	membership  *dto.MembershipStatus
	purchaseErr error
	lastPlan    string

	refreshData *dto.RefreshData
	restoreErr  error

	status  *dto.MembershipStatus
	history []dto.TransactionRecord
}

func (s *stubPurchases) Purchase(ctx context.Context, planCode string) (*dto.MembershipStatus, error) {
	s.lastPlan = planCode
	return s.membership, s.purchaseErr
}

func (s *stubPurchases) Restore(ctx context.Context) (*dto.RefreshData, error) {
	return s.refreshData, s.restoreErr
}

func (s *stubPurchases) GetStatus(ctx context.Context) (*dto.MembershipStatus, error) {
	return s.status, nil
}

func (s *stubPurchases) GetHistory(ctx context.Context) ([]dto.TransactionRecord, error) {
	return s.history, nil
}

type stubCatalog struct {
	entries []*entity.CatalogEntry
	handles map[string]*entity.ProductHandle
}

func (s *stubCatalog) LoadCatalog(ctx context.Context) ([]*entity.CatalogEntry, error) {
	return s.entries, nil
}

func (s *stubCatalog) Resolve(planCode string) (*entity.ProductHandle, bool) {
	h, ok := s.handles[planCode]
	return h, ok
}

func (s *stubCatalog) Entries() []*entity.CatalogEntry { return s.entries }
func (s *stubCatalog) IsEmpty() bool                   { return len(s.entries) == 0 }

func newTestApp(purchases *stubPurchases, catalog *stubCatalog) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewPurchaseController(purchases, catalog).RegisterRoutes(api)
	return app
}

func signedToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return resp, decoded
}

func TestPurchaseRequiresToken(t *testing.T) {
	app := newTestApp(&stubPurchases{}, &stubCatalog{})
	resp, _ := doJSON(t, app, http.MethodPost, "/api/iap/purchase", "", dto.PurchaseRequest{PlanCode: "plus_monthly"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPurchaseFinalized(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	purchases := &stubPurchases{
		membership: &dto.MembershipStatus{HasMembership: true, Status: "active"},
	}
	app := newTestApp(purchases, &stubCatalog{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/iap/purchase",
		signedToken(t, "test-secret"), dto.PurchaseRequest{PlanCode: "plus_monthly"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "finalized", body["status"])
	assert.Equal(t, "plus_monthly", purchases.lastPlan)
}

func TestPurchaseMissingPlanCode(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newTestApp(&stubPurchases{}, &stubCatalog{})

	resp, _ := doJSON(t, app, http.MethodPost, "/api/iap/purchase",
		signedToken(t, "test-secret"), map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPurchaseCancelledIsNotAnHTTPError(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newTestApp(&stubPurchases{purchaseErr: entity.ErrUserCancelled}, &stubCatalog{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/iap/purchase",
		signedToken(t, "test-secret"), dto.PurchaseRequest{PlanCode: "plus_monthly"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cancelled", body["status"])
}

func TestPurchaseInProgressAnswers202(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newTestApp(&stubPurchases{purchaseErr: entity.ErrPurchaseInProgress}, &stubCatalog{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/iap/purchase",
		signedToken(t, "test-secret"), dto.PurchaseRequest{PlanCode: "plus_monthly"})

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "in_progress", body["status"])
}

func TestPurchaseUnknownPlanAnswers404(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newTestApp(&stubPurchases{purchaseErr: entity.ErrProductNotFound}, &stubCatalog{})

	resp, _ := doJSON(t, app, http.MethodPost, "/api/iap/purchase",
		signedToken(t, "test-secret"), dto.PurchaseRequest{PlanCode: "ghost"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVerificationFailureAnswers402(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newTestApp(&stubPurchases{
		purchaseErr: entity.NewReceiptVerificationFailed("receipt expired"),
	}, &stubCatalog{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/iap/purchase",
		signedToken(t, "test-secret"), dto.PurchaseRequest{PlanCode: "plus_monthly"})

	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Contains(t, body["message"], "receipt expired")
}

func TestGetProductsIsPublic(t *testing.T) {
	catalog := &stubCatalog{
		entries: []*entity.CatalogEntry{
			{PlanCode: "plus_monthly", ProductID: "com.app.plus.monthly", PlanName: "Plus", Resolved: true},
			{PlanCode: "pro_yearly", ProductID: "com.app.pro.yearly", PlanName: "Pro", Resolved: false},
		},
		handles: map[string]*entity.ProductHandle{
			"plus_monthly": {ID: "com.app.plus.monthly", DisplayPrice: "¥28.00"},
		},
	}
	app := newTestApp(&stubPurchases{}, catalog)

	resp, body := doJSON(t, app, http.MethodGet, "/api/iap/products", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 2)

	first := data[0].(map[string]interface{})
	assert.Equal(t, true, first["available"])
	assert.Equal(t, "¥28.00", first["display_price"])

	second := data[1].(map[string]interface{})
	assert.Equal(t, false, second["available"])
}

func TestRestoreEndpoint(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newTestApp(&stubPurchases{
		refreshData: &dto.RefreshData{IsActive: true},
	}, &stubCatalog{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/iap/restore",
		signedToken(t, "test-secret"), nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["isActive"])
}
