package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/utils"
)

func TestReviewService(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)
	ctx := context.Background()
	user := createUser(t, db, "09120000050")
	product := createProduct(t, db, "Boots", "40", 1)

	review, err := svc.Create(ctx, user.ID, product.Slug, ReviewInput{Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.Equal(t, product.ID, review.ProductID)

	_, err = svc.Create(ctx, user.ID, product.Slug, ReviewInput{Rating: 2})
	require.NoError(t, err)

	var verr *ValidationError
	_, err = svc.Create(ctx, user.ID, product.Slug, ReviewInput{Rating: 6})
	assert.ErrorAs(t, err, &verr)
	_, err = svc.Create(ctx, user.ID, product.Slug, ReviewInput{Rating: 0})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Create(ctx, user.ID, "prd-nothing", ReviewInput{Rating: 3})
	assert.ErrorIs(t, err, ErrNotFound)

	reviews, total, err := svc.ListByProduct(ctx, product.Slug, utils.NewPagination(1, 1))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, reviews, 1)

	mine, err := svc.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
