package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/models"
)

func TestCartService_CreateLimit(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	ctx := context.Background()
	user := createUser(t, db, "09120000020")

	first, err := svc.Create(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CartLabelPrimary, first.Label)

	second, err := svc.Create(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CartLabelSecondary, second.Label)

	_, err = svc.Create(ctx, user.ID)
	assert.ErrorIs(t, err, ErrTooManyCarts)

	require.NoError(t, svc.Delete(ctx, user.ID, first.ID))
	again, err := svc.Create(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CartLabelPrimary, again.Label, "freed label is reused")

	carts, err := svc.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, carts, 2)

	_, err = svc.Create(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCartService_AddItemMergesLines(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	ctx := context.Background()
	user := createUser(t, db, "09120000021")
	shirt := createProduct(t, db, "Shirt", "12.50", 10)
	hat := createProduct(t, db, "Hat", "3", 10)

	cart, err := svc.Create(ctx, user.ID)
	require.NoError(t, err)

	cart, err = svc.AddItem(ctx, user.ID, cart.ID, shirt.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	requireDecimal(t, "25", cart.TotalPrice)

	cart, err = svc.AddItem(ctx, user.ID, cart.ID, shirt.ID, 3)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	requireDecimal(t, "62.5", cart.Items[0].Price)
	requireDecimal(t, "62.5", cart.TotalPrice)

	cart, err = svc.AddItem(ctx, user.ID, cart.ID, hat.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	requireDecimal(t, "65.5", cart.TotalPrice)

	var stored models.Cart
	require.NoError(t, db.First(&stored, "id = ?", cart.ID).Error)
	requireDecimal(t, "65.5", stored.TotalPrice)
}

func TestCartService_UpdateAndRemoveItem(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	ctx := context.Background()
	user := createUser(t, db, "09120000022")
	shirt := createProduct(t, db, "Shirt", "10", 10)

	cart, err := svc.Create(ctx, user.ID)
	require.NoError(t, err)
	cart, err = svc.AddItem(ctx, user.ID, cart.ID, shirt.ID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = svc.UpdateItem(ctx, user.ID, cart.ID, itemID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Items[0].Quantity)
	requireDecimal(t, "70", cart.TotalPrice)

	var verr *ValidationError
	_, err = svc.UpdateItem(ctx, user.ID, cart.ID, itemID, 0)
	assert.ErrorAs(t, err, &verr)

	cart, err = svc.RemoveItem(ctx, user.ID, cart.ID, itemID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	requireDecimal(t, "0", cart.TotalPrice)

	_, err = svc.RemoveItem(ctx, user.ID, cart.ID, itemID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_Ownership(t *testing.T) {
	db := newTestDB(t)
	svc := NewCartService(db)
	ctx := context.Background()
	owner := createUser(t, db, "09120000023")
	other := createUser(t, db, "09120000024")
	shirt := createProduct(t, db, "Shirt", "10", 10)

	cart, err := svc.Create(ctx, owner.ID)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, other.ID, cart.ID, shirt.ID, 1)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = svc.Get(ctx, other.ID, cart.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.ErrorIs(t, svc.Delete(ctx, other.ID, cart.ID), ErrPermissionDenied)

	_, err = svc.Get(ctx, owner.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.AddItem(ctx, owner.ID, cart.ID, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
