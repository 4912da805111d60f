package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

func TestUserService_FindOrCreateByPhone(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	user, err := svc.FindOrCreateByPhone(ctx, "09120000001")
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	assert.False(t, user.HasPassword())
	require.NotNil(t, user.Profile)
	assert.Equal(t, user.ID, user.Profile.UserID)

	again, err := svc.FindOrCreateByPhone(ctx, "09120000001")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	var profiles int64
	require.NoError(t, db.Model(&models.UserProfile{}).Count(&profiles).Error)
	assert.EqualValues(t, 1, profiles)
}

func TestUserService_RejectsMalformedPhone(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	for _, phone := range []string{"", "9120000001", "0912000000a", "091200000011", "08120000001"} {
		_, err := svc.FindOrCreateByPhone(context.Background(), phone)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, phone)
	}

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}

func TestUserService_CreateUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserInput{PhoneNumber: "09120000002", Password: "secret123", IsSuperuser: true})
	require.NoError(t, err)
	assert.True(t, user.IsStaff)
	assert.True(t, user.IsSuperuser)
	assert.True(t, utils.CheckPassword(user.PasswordHash, "secret123"))

	_, err = svc.CreateUser(ctx, CreateUserInput{PhoneNumber: "09120000002"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "exists", verr.Fields["phone_number"])

	_, err = svc.CreateUser(ctx, CreateUserInput{PhoneNumber: "09120000003", Password: "short"})
	assert.ErrorAs(t, err, &verr)
}

func TestUserService_UpdateProfile(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()
	user := createUser(t, db, "09120000004")

	first, email, password := "Sara", "sara@example.com", "password1"
	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{FirstName: &first, Email: &email, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "Sara", updated.Profile.FirstName)
	assert.Equal(t, "sara@example.com", updated.Profile.Email)
	assert.True(t, utils.CheckPassword(updated.PasswordHash, "password1"))

	bad := "not-an-email"
	_, err = svc.UpdateProfile(ctx, user.ID, ProfileInput{Email: &bad})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUserService_SetPassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()
	createUser(t, db, "09120000005")

	require.NoError(t, svc.SetPassword(ctx, "09120000005", "newpassword"))
	user, err := svc.GetByPhone(ctx, "09120000005")
	require.NoError(t, err)
	assert.True(t, utils.CheckPassword(user.PasswordHash, "newpassword"))

	assert.ErrorIs(t, svc.SetPassword(ctx, "09129999999", "newpassword"), ErrUserNotFound)
}

func TestUserService_List(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	for _, phone := range []string{"09120000101", "09120000102", "09350000103"} {
		createUser(t, db, phone)
	}

	users, total, err := svc.List(context.Background(), utils.NewPagination(1, 10), "0912")
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, users, 2)

	_, total, err = svc.List(context.Background(), utils.NewPagination(1, 10), "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}
