package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

// AuthService handles password login and the refresh token lifecycle.
type AuthService struct {
	users   *UserService
	tokens  *utils.TokenIssuer
	revoked RevocationStore
	now     func() time.Time
}

func NewAuthService(users *UserService, tokens *utils.TokenIssuer, revoked RevocationStore) *AuthService {
	return &AuthService{users: users, tokens: tokens, revoked: revoked, now: time.Now}
}

// Login checks phone and password and issues a token pair.
func (s *AuthService) Login(ctx context.Context, phone, password string) (utils.TokenPair, error) {
	user, err := s.authenticate(ctx, phone, password)
	if err != nil {
		return utils.TokenPair{}, err
	}
	return s.issue(user)
}

// StaffLogin is Login restricted to staff accounts.
func (s *AuthService) StaffLogin(ctx context.Context, phone, password string) (utils.TokenPair, *models.User, error) {
	user, err := s.authenticate(ctx, phone, password)
	if err != nil {
		return utils.TokenPair{}, nil, err
	}
	if !user.IsStaff {
		return utils.TokenPair{}, nil, ErrPermissionDenied
	}
	pair, err := s.issue(user)
	if err != nil {
		return utils.TokenPair{}, nil, err
	}
	return pair, user, nil
}

func (s *AuthService) authenticate(ctx context.Context, phone, password string) (*models.User, error) {
	if err := validatePhone(phone); err != nil {
		return nil, err
	}

	user, err := s.users.GetByPhone(ctx, phone)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.HasPassword() || !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveAccount
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (utils.TokenPair, error) {
	pair, err := s.tokens.IssuePair(user.ID, user.IsStaff)
	if err != nil {
		return utils.TokenPair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return pair, nil
}

// Refresh exchanges a live refresh token for a new access token.
// The refresh token itself stays valid.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.checkRefresh(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", err
	}
	if !user.IsActive {
		return "", ErrInactiveAccount
	}

	access, err := s.tokens.IssueAccess(user.ID, user.IsStaff)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}
	return access, nil
}

// Logout revokes a refresh token. If userID is set the token must belong to that user.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	claims, err := s.checkRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	if userID != uuid.Nil && claims.UserID != userID {
		return ErrPermissionDenied
	}
	return s.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt.Sub(s.now()))
}

func (s *AuthService) checkRefresh(ctx context.Context, refreshToken string) (*utils.TokenClaims, error) {
	if refreshToken == "" {
		return nil, NewValidationError("refresh", "required")
	}

	claims, err := s.tokens.Parse(refreshToken, utils.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
