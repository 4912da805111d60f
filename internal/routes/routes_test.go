package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
)

type recordingNotifier struct {
	mu    sync.Mutex
	codes map[string]string
}

func (n *recordingNotifier) SendOTP(_ context.Context, phone, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes[phone] = code
	return nil
}

func (n *recordingNotifier) NotifyNewOrder(context.Context, services.OrderNotification) error {
	return nil
}

func (n *recordingNotifier) code(phone string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[phone]
}

type testServer struct {
	app      *fiber.App
	deps     Dependencies
	notifier *recordingNotifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.Connect(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	notifier := &recordingNotifier{codes: make(map[string]string)}
	deps := Dependencies{
		DB: db,
		Config: &config.Config{
			JWTSecret:       "test-secret",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
			OTPCooldown:     3 * time.Minute,
			OTPMaxAttempts:  3,
		},
		Logger:      zap.NewNop(),
		Notifier:    notifier,
		Revocations: services.NewMemoryRevocationStore(),
	}
	return &testServer{app: NewApp(deps), deps: deps, notifier: notifier}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (s *testServer) login(t *testing.T, phone string) string {
	t.Helper()

	status, _ := s.do(t, http.MethodPost, "/api/auth/otp/send", fiber.Map{"phone_number": phone}, "")
	require.Equal(t, http.StatusOK, status)

	status, body := s.do(t, http.MethodPost, "/api/auth/otp/verify", fiber.Map{
		"phone_number": phone,
		"code":         s.notifier.code(phone),
	}, "")
	require.Equal(t, http.StatusOK, status)
	return body["access_token"].(string)
}

func (s *testServer) createStaff(t *testing.T, phone, password string) {
	t.Helper()
	_, err := services.NewUserService(s.deps.DB).CreateUser(context.Background(), services.CreateUserInput{
		PhoneNumber: phone,
		Password:    password,
		IsStaff:     true,
	})
	require.NoError(t, err)
}

func (s *testServer) createProduct(t *testing.T, price string, stock int) *models.Product {
	t.Helper()
	catalog := services.NewCatalogService(s.deps.DB)
	category, err := catalog.CreateCategory(context.Background(), services.CategoryInput{Name: "Shoes"})
	require.NoError(t, err)

	product, err := catalog.CreateProduct(context.Background(), services.ProductInput{
		Title:      "Trail Runner",
		UnitPrice:  decimal.RequireFromString(price),
		Stock:      stock,
		CategoryID: category.ID,
	})
	require.NoError(t, err)
	return product
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestOTPFlow(t *testing.T) {
	s := newTestServer(t)
	phone := "09123456789"

	status, body := s.do(t, http.MethodPost, "/api/auth/otp/send", fiber.Map{"phone_number": phone}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OTP sent successfully", body["message"])

	status, body = s.do(t, http.MethodPost, "/api/auth/otp/send", fiber.Map{"phone_number": phone}, "")
	require.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Please wait before requesting a new OTP", body["error"])
	remaining, ok := body["time_remaining_seconds"].(float64)
	require.True(t, ok)
	assert.Greater(t, remaining, 0.0)

	wrong := "000000"
	if s.notifier.code(phone) == wrong {
		wrong = "111111"
	}
	status, body = s.do(t, http.MethodPost, "/api/auth/otp/verify", fiber.Map{
		"phone_number": phone,
		"code":         wrong,
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid or expired OTP", body["error"])

	status, body = s.do(t, http.MethodPost, "/api/auth/otp/verify", fiber.Map{
		"phone_number": phone,
		"code":         s.notifier.code(phone),
	}, "")
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
}

func TestSendOTP_InvalidPhone(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/api/auth/otp/send", fiber.Map{"phone_number": "12345"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid request", body["error"])
	fields, ok := body["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "phone_number")
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.createStaff(t, "09120000001", "password123")

	t.Run("valid credentials", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, "/api/auth/login", fiber.Map{
			"phone_number": "09120000001",
			"password":     "password123",
		}, "")
		assert.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, body["access_token"])
	})

	t.Run("wrong password", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, "/api/auth/login", fiber.Map{
			"phone_number": "09120000001",
			"password":     "nope-nope",
		}, "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid phone number or password", body["error"])
	})

	t.Run("inactive account", func(t *testing.T) {
		require.NoError(t, s.deps.DB.Model(&models.User{}).
			Where("phone_number = ?", "09120000001").
			Update("is_active", false).Error)

		status, body := s.do(t, http.MethodPost, "/api/auth/login", fiber.Map{
			"phone_number": "09120000001",
			"password":     "password123",
		}, "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "User account is inactive", body["error"])
	})
}

func TestRefreshAndLogout(t *testing.T) {
	s := newTestServer(t)
	phone := "09123456789"

	s.do(t, http.MethodPost, "/api/auth/otp/send", fiber.Map{"phone_number": phone}, "")
	_, tokens := s.do(t, http.MethodPost, "/api/auth/otp/verify", fiber.Map{
		"phone_number": phone,
		"code":         s.notifier.code(phone),
	}, "")
	access := tokens["access_token"].(string)
	refresh := tokens["refresh_token"].(string)

	status, body := s.do(t, http.MethodPost, "/api/auth/token/refresh", fiber.Map{"refresh": refresh}, "")
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["access_token"])

	status, _ = s.do(t, http.MethodPost, "/api/auth/logout", fiber.Map{"refresh": refresh}, access)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, "/api/auth/token/refresh", fiber.Map{"refresh": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(t, http.MethodPost, "/api/auth/logout", fiber.Map{"refresh": "garbage"}, access)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid token", body["error"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodGet, "/api/carts", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodGet, "/api/carts", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUnknownRoutes(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/does-not-exist", "/api/admin/does-not-exist"} {
		t.Run(path, func(t *testing.T) {
			status, body := s.do(t, http.MethodGet, path, nil, "")
			assert.Equal(t, http.StatusNotFound, status)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestCartLimit(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "09123456789")

	status, body := s.do(t, http.MethodPost, "/api/carts", nil, token)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.CartLabelPrimary, body["data"].(map[string]interface{})["label"])

	status, body = s.do(t, http.MethodPost, "/api/carts", nil, token)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.CartLabelSecondary, body["data"].(map[string]interface{})["label"])

	status, body = s.do(t, http.MethodPost, "/api/carts", nil, token)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, body["success"])
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "09123456789")
	product := s.createProduct(t, "25.50", 5)

	_, body := s.do(t, http.MethodPost, "/api/carts", nil, token)
	cartID := body["data"].(map[string]interface{})["id"].(string)

	status, body := s.do(t, http.MethodPost, "/api/carts/"+cartID+"/items", fiber.Map{
		"product_id": product.ID,
		"quantity":   2,
	}, token)
	require.Equal(t, http.StatusCreated, status)
	total := decimal.RequireFromString(body["data"].(map[string]interface{})["total_price"].(string))
	assert.True(t, total.Equal(decimal.NewFromInt(51)), "total %s", total)

	status, body = s.do(t, http.MethodPost, "/api/addresses", fiber.Map{
		"address":   "12 Main Street",
		"city":      "Tehran",
		"is_active": true,
	}, token)
	require.Equal(t, http.StatusCreated, status)
	addressID := body["data"].(map[string]interface{})["id"].(string)

	status, body = s.do(t, http.MethodPost, "/api/carts/"+cartID+"/checkout", fiber.Map{"address_id": addressID}, token)
	require.Equal(t, http.StatusCreated, status)
	order := body["data"].(map[string]interface{})
	assert.Equal(t, models.OrderStatusPending, order["status"])
	assert.Equal(t, "12 Main Street", order["shipping_address"])

	var stored models.Product
	require.NoError(t, s.deps.DB.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 3, stored.Stock)

	status, body = s.do(t, http.MethodPost, "/api/carts/"+cartID+"/checkout", fiber.Map{"address_id": addressID}, token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cart is empty", body["error"])

	status, body = s.do(t, http.MethodGet, "/api/orders", nil, token)
	require.Equal(t, http.StatusOK, status)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, 1.0, pagination["total_items"])
}

func TestCheckout_MissingAddress(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "09123456789")

	_, body := s.do(t, http.MethodPost, "/api/carts", nil, token)
	cartID := body["data"].(map[string]interface{})["id"].(string)

	status, body := s.do(t, http.MethodPost, "/api/carts/"+cartID+"/checkout", fiber.Map{}, token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["fields"], "address_id")
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	s.createStaff(t, "09120000001", "password123")

	t.Run("customers are forbidden", func(t *testing.T) {
		token := s.login(t, "09123456789")
		status, _ := s.do(t, http.MethodGet, "/api/admin/orders", nil, token)
		assert.Equal(t, http.StatusForbidden, status)

		status, _ = s.do(t, http.MethodPost, "/api/admin/auth/login", fiber.Map{
			"phone_number": "09123456789",
			"password":     "whatever1",
		}, "")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("staff manage the catalog", func(t *testing.T) {
		status, body := s.do(t, http.MethodPost, "/api/admin/auth/login", fiber.Map{
			"phone_number": "09120000001",
			"password":     "password123",
		}, "")
		require.Equal(t, http.StatusOK, status)
		token := body["access_token"].(string)
		assert.Equal(t, true, body["user"].(map[string]interface{})["is_staff"])

		status, body = s.do(t, http.MethodPost, "/api/admin/categories", fiber.Map{"name": "Jackets"}, token)
		require.Equal(t, http.StatusCreated, status)
		categoryID := body["data"].(map[string]interface{})["id"].(string)

		status, body = s.do(t, http.MethodPost, "/api/admin/products", fiber.Map{
			"title":       "Rain Jacket",
			"unit_price":  "120.00",
			"stock":       4,
			"category_id": categoryID,
		}, token)
		require.Equal(t, http.StatusCreated, status)
		product := body["data"].(map[string]interface{})
		assert.Equal(t, "prd-rain-jacket", product["slug"])
		productID := product["id"].(string)

		status, body = s.do(t, http.MethodPut, "/api/admin/products/"+productID+"/stock", fiber.Map{"stock": 0}, token)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, false, body["data"].(map[string]interface{})["is_available"])

		status, body = s.do(t, http.MethodPut, "/api/admin/products/"+productID+"/stock", fiber.Map{}, token)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["fields"], "stock")

		status, body = s.do(t, http.MethodGet, "/api/products/prd-rain-jacket", nil, "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Rain Jacket", body["data"].(map[string]interface{})["title"])

		status, body = s.do(t, http.MethodGet, "/api/admin/stats", nil, token)
		require.Equal(t, http.StatusOK, status)
		assert.NotNil(t, body["data"])
	})
}
