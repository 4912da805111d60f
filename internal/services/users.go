package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

// UserService owns user accounts and their profiles.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// FindOrCreateByPhone returns the account for phone, creating it together
// with an empty profile when none exists.
func (s *UserService) FindOrCreateByPhone(ctx context.Context, phone string) (*models.User, error) {
	if err := validatePhone(phone); err != nil {
		return nil, err
	}

	user, err := s.GetByPhone(ctx, phone)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	created := &models.User{PhoneNumber: phone, IsActive: true}
	createErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createUserWithProfile(tx, created)
	})
	if createErr == nil {
		return created, nil
	}

	// a concurrent request may have registered the same phone first
	if user, err := s.GetByPhone(ctx, phone); err == nil {
		return user, nil
	}
	return nil, fmt.Errorf("failed to create user: %w", createErr)
}

func createUserWithProfile(tx *gorm.DB, user *models.User) error {
	if err := tx.Create(user).Error; err != nil {
		return err
	}
	profile := &models.UserProfile{UserID: user.ID}
	if err := tx.Create(profile).Error; err != nil {
		return err
	}
	user.Profile = profile
	return nil
}

func (s *UserService) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Profile").Where("phone_number = ?", phone).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Profile").First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUserInput describes an account created outside the OTP flow.
type CreateUserInput struct {
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
	Password    string `json:"password" validate:"omitempty,min=8"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// CreateUser registers a new account. Superusers are always staff.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if err := ValidateStruct(input); err != nil {
		return nil, err
	}

	user := &models.User{
		PhoneNumber: input.PhoneNumber,
		IsActive:    true,
		IsStaff:     input.IsStaff || input.IsSuperuser,
		IsSuperuser: input.IsSuperuser,
	}
	if input.Password != "" {
		hash, err := utils.HashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("phone_number = ?", input.PhoneNumber).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return NewValidationError("phone_number", "exists")
		}
		return createUserWithProfile(tx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ProfileInput carries the editable profile fields. Nil fields are left untouched.
type ProfileInput struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Username  *string `json:"username" validate:"omitempty,max=150"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Password  *string `json:"password" validate:"omitempty,min=8"`
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*models.User, error) {
	if err := ValidateStruct(input); err != nil {
		return nil, err
	}

	var passwordHash string
	if input.Password != nil {
		hash, err := utils.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		passwordHash = hash
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile models.UserProfile
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			profile = models.UserProfile{UserID: userID}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if input.FirstName != nil {
			updates["first_name"] = *input.FirstName
		}
		if input.LastName != nil {
			updates["last_name"] = *input.LastName
		}
		if input.Username != nil {
			updates["username"] = *input.Username
		}
		if input.Email != nil {
			updates["email"] = *input.Email
		}
		if len(updates) > 0 {
			if err := tx.Model(&profile).Updates(updates).Error; err != nil {
				return err
			}
		}

		if passwordHash != "" {
			return tx.Model(&models.User{}).Where("id = ?", userID).Update("password_hash", passwordHash).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, userID)
}

// SetPassword replaces the password of the account with the given phone.
func (s *UserService) SetPassword(ctx context.Context, phone, password string) error {
	if err := validatePhone(phone); err != nil {
		return err
	}
	if len(password) < 8 {
		return NewValidationError("password", "min")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("phone_number = ?", phone).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// lockUser takes a row lock on the user that serialises per-user mutations.
func lockUser(tx *gorm.DB, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns one page of users, optionally filtered by a phone number fragment.
func (s *UserService) List(ctx context.Context, page utils.Pagination, search string) ([]models.User, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if search != "" {
		q = q.Where("phone_number LIKE ?", "%"+search+"%")
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := q.Preload("Profile").Order("created_at desc").Limit(page.Limit).Offset(page.Offset).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
