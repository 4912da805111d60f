package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrWrongTokenType = errors.New("unexpected token type")

type jwtCustomClaims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	IsStaff   bool   `json:"is_staff,omitempty"`
	jwt.RegisteredClaims
}

// TokenClaims is the validated content of a token.
type TokenClaims struct {
	UserID    uuid.UUID
	TokenID   string
	TokenType string
	IsStaff   bool
	ExpiresAt time.Time
}

// TokenPair is what a successful login returns.
type TokenPair struct {
	Access  string `json:"access_token"`
	Refresh string `json:"refresh_token"`
}

// TokenIssuer signs and validates HS256 access and refresh tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssuePair creates a fresh access and refresh token for the user.
func (i *TokenIssuer) IssuePair(userID uuid.UUID, isStaff bool) (TokenPair, error) {
	access, err := i.sign(userID, isStaff, TokenTypeAccess, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(userID, isStaff, TokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess creates an access token only.
func (i *TokenIssuer) IssueAccess(userID uuid.UUID, isStaff bool) (string, error) {
	return i.sign(userID, isStaff, TokenTypeAccess, i.accessTTL)
}

func (i *TokenIssuer) sign(userID uuid.UUID, isStaff bool, tokenType string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &jwtCustomClaims{
		UserID:    userID.String(),
		TokenType: tokenType,
		IsStaff:   isStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Parse validates signature, expiry and token type.
func (i *TokenIssuer) Parse(tokenString, wantType string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, err
	}

	parsed := &TokenClaims{
		UserID:    userID,
		TokenID:   claims.ID,
		TokenType: claims.TokenType,
		IsStaff:   claims.IsStaff,
	}
	if claims.ExpiresAt != nil {
		parsed.ExpiresAt = claims.ExpiresAt.Time
	}
	return parsed, nil
}
