package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestIssuer() *utils.TokenIssuer {
	return utils.NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)
}

type fakeNotifier struct {
	mu     sync.Mutex
	codes  map[string]string
	orders []OrderNotification
	err    error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{codes: make(map[string]string)}
}

func (f *fakeNotifier) SendOTP(_ context.Context, phone, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[phone] = code
	return f.err
}

func (f *fakeNotifier) NotifyNewOrder(_ context.Context, order OrderNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, order)
	return f.err
}

func (f *fakeNotifier) code(phone string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[phone]
}

func createUser(t *testing.T, db *gorm.DB, phone string) *models.User {
	t.Helper()
	user, err := NewUserService(db).FindOrCreateByPhone(context.Background(), phone)
	require.NoError(t, err)
	return user
}

func createUserWithPassword(t *testing.T, db *gorm.DB, phone, password string, staff bool) *models.User {
	t.Helper()
	user, err := NewUserService(db).CreateUser(context.Background(), CreateUserInput{
		PhoneNumber: phone,
		Password:    password,
		IsStaff:     staff,
	})
	require.NoError(t, err)
	return user
}

func deactivate(t *testing.T, db *gorm.DB, userID uuid.UUID) {
	t.Helper()
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", userID).Update("is_active", false).Error)
}

func createCategory(t *testing.T, db *gorm.DB) *models.Category {
	t.Helper()
	category, err := NewCatalogService(db).CreateCategory(context.Background(), CategoryInput{Name: "Shirts"})
	require.NoError(t, err)
	return category
}

func createProduct(t *testing.T, db *gorm.DB, title, price string, stock int) *models.Product {
	t.Helper()
	var category models.Category
	if err := db.First(&category).Error; err != nil {
		category = *createCategory(t, db)
	}

	product, err := NewCatalogService(db).CreateProduct(context.Background(), ProductInput{
		Title:      title,
		UnitPrice:  decimal.RequireFromString(price),
		Stock:      stock,
		CategoryID: category.ID,
	})
	require.NoError(t, err)
	return product
}

func stockOf(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", productID).Error)
	return product.Stock
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
