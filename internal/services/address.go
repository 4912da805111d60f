package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// AddressService manages a user's address book. At most one address is active.
type AddressService struct {
	db *gorm.DB
}

func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db}
}

// AddressInput is the payload for creating an address.
type AddressInput struct {
	Address    string `json:"address" validate:"required,max=255"`
	City       string `json:"city" validate:"max=100"`
	Province   string `json:"province" validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"omitempty,numeric,max=10"`
	IsActive   bool   `json:"is_active"`
}

// AddressUpdate changes only the fields that are set.
type AddressUpdate struct {
	Address    *string `json:"address" validate:"omitempty,min=1,max=255"`
	City       *string `json:"city" validate:"omitempty,max=100"`
	Province   *string `json:"province" validate:"omitempty,max=100"`
	PostalCode *string `json:"postal_code" validate:"omitempty,numeric,max=10"`
	IsActive   *bool   `json:"is_active"`
}

func (s *AddressService) Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*models.Address, error) {
	if err := ValidateStruct(input); err != nil {
		return nil, err
	}

	address := &models.Address{
		UserID:     userID,
		Address:    input.Address,
		City:       input.City,
		Province:   input.Province,
		PostalCode: input.PostalCode,
		IsActive:   input.IsActive,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockUser(tx, userID); err != nil {
			return err
		}
		if input.IsActive {
			if err := deactivateAddresses(tx, userID, uuid.Nil); err != nil {
				return err
			}
		}
		return tx.Create(address).Error
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

func (s *AddressService) Update(ctx context.Context, userID, addressID uuid.UUID, input AddressUpdate) (*models.Address, error) {
	if err := ValidateStruct(input); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockUser(tx, userID); err != nil {
			return err
		}

		address, err := ownedAddress(tx, userID, addressID)
		if err != nil {
			return err
		}

		if input.IsActive != nil && *input.IsActive {
			if err := deactivateAddresses(tx, userID, address.ID); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{}
		if input.Address != nil {
			updates["address"] = *input.Address
		}
		if input.City != nil {
			updates["city"] = *input.City
		}
		if input.Province != nil {
			updates["province"] = *input.Province
		}
		if input.PostalCode != nil {
			updates["postal_code"] = *input.PostalCode
		}
		if input.IsActive != nil {
			updates["is_active"] = *input.IsActive
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(address).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return ownedAddress(s.db.WithContext(ctx), userID, addressID)
}

// deactivateAddresses clears the active flag on all of the user's addresses except keep.
func deactivateAddresses(tx *gorm.DB, userID, keep uuid.UUID) error {
	q := tx.Model(&models.Address{}).Where("user_id = ? AND is_active = ?", userID, true)
	if keep != uuid.Nil {
		q = q.Where("id <> ?", keep)
	}
	return q.Update("is_active", false).Error
}

func ownedAddress(db *gorm.DB, userID, addressID uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := db.First(&address, "id = ?", addressID).Error; err != nil {
		return nil, notFound(err)
	}
	if address.UserID != userID {
		return nil, ErrPermissionDenied
	}
	return &address, nil
}

func (s *AddressService) Get(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	return ownedAddress(s.db.WithContext(ctx), userID, addressID)
}

// List returns the user's addresses, the active one first.
func (s *AddressService) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var addresses []models.Address
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_active desc").
		Order("created_at asc").
		Find(&addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

func (s *AddressService) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		address, err := ownedAddress(tx, userID, addressID)
		if err != nil {
			return err
		}
		return tx.Delete(address).Error
	})
}
