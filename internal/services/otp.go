package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

// OTPService issues and checks one-time login codes.
type OTPService struct {
	db          *gorm.DB
	users       *UserService
	tokens      *utils.TokenIssuer
	notifier    Notifier
	log         *zap.Logger
	cooldown    time.Duration
	maxAttempts int
	now         func() time.Time
}

// OTPConfig holds the OTP lifetime rules.
type OTPConfig struct {
	Cooldown    time.Duration
	MaxAttempts int
}

func NewOTPService(db *gorm.DB, users *UserService, tokens *utils.TokenIssuer, notifier Notifier, cfg OTPConfig, log *zap.Logger) *OTPService {
	return &OTPService{
		db:          db,
		users:       users,
		tokens:      tokens,
		notifier:    notifier,
		log:         log.Named("otp"),
		cooldown:    cfg.Cooldown,
		maxAttempts: cfg.MaxAttempts,
		now:         time.Now,
	}
}

// Send creates a fresh code for phone, registering the user on first contact.
// A code is only issued once the previous one's cooldown has elapsed.
func (s *OTPService) Send(ctx context.Context, phone string) error {
	if err := validatePhone(phone); err != nil {
		return err
	}

	user, err := s.users.FindOrCreateByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return ErrInactiveAccount
	}

	var code string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockUser(tx, user.ID); err != nil {
			return err
		}

		now := s.now()
		var latest models.OTP
		err := tx.Where("user_id = ?", user.ID).Order("created_at desc").First(&latest).Error
		switch {
		case err == nil:
			if !latest.CanResend(now, s.cooldown) {
				return &RateLimitError{Remaining: latest.ResendIn(now, s.cooldown)}
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		code, err = generateOTPCode()
		if err != nil {
			return fmt.Errorf("failed to generate otp: %w", err)
		}

		otp := models.OTP{
			BaseModel: models.BaseModel{CreatedAt: now, UpdatedAt: now},
			UserID:    user.ID,
			Code:      code,
		}
		if err := tx.Create(&otp).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND id <> ?", user.ID, otp.ID).Delete(&models.OTP{}).Error
	})
	if err != nil {
		return err
	}

	if err := s.notifier.SendOTP(ctx, phone, code); err != nil {
		s.log.Warn("failed to deliver otp", zap.String("phone", phone), zap.Error(err))
	}
	return nil
}

// Verify checks code against the latest OTP of phone. Every check of a live
// OTP consumes an attempt, including failed ones.
func (s *OTPService) Verify(ctx context.Context, phone, code string) (utils.TokenPair, error) {
	if err := validatePhone(phone); err != nil {
		return utils.TokenPair{}, err
	}
	if !utils.ValidOTP(code) {
		return utils.TokenPair{}, NewValidationError("code", "otp")
	}

	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return utils.TokenPair{}, err
	}

	matched := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var otp models.OTP
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", user.ID).
			Order("created_at desc").
			First(&otp).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidOrExpiredOTP
		}
		if err != nil {
			return err
		}

		if !otp.IsValid(s.now(), s.cooldown, s.maxAttempts) {
			return ErrInvalidOrExpiredOTP
		}

		otp.Attempts++
		if err := tx.Model(&otp).Update("attempts", otp.Attempts).Error; err != nil {
			return err
		}
		if otp.Code != code {
			return nil
		}

		matched = true
		return tx.Delete(&otp).Error
	})
	if err != nil {
		return utils.TokenPair{}, err
	}
	if !matched {
		return utils.TokenPair{}, ErrInvalidOrExpiredOTP
	}

	pair, err := s.tokens.IssuePair(user.ID, user.IsStaff)
	if err != nil {
		return utils.TokenPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return pair, nil
}

func generateOTPCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
