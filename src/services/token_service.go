package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/salespilot/admin-auth-server/src/models"
)

const (
	tokenTypeAccess    = "access"
	tokenTypeRefresh   = "refresh"
	tokenTypeTwoFactor = "2fa_pending"

	tokenIssuer = "salespilot-admin"
)

// AccessClaims are carried by access tokens
type AccessClaims struct {
	AdminID   string           `json:"admin_id"`
	Email     string           `json:"email"`
	Role      models.AdminRole `json:"role"`
	TokenType string           `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims are carried by refresh tokens
type RefreshClaims struct {
	AdminID   string `json:"admin_id"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TwoFactorClaims are carried by the short-lived intermediate token issued
// between a successful password check and 2FA verification
type TwoFactorClaims struct {
	AdminID     string `json:"admin_id"`
	Requires2FA bool   `json:"requires2FA"`
	TokenType   string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies the three JWT flavors used by the
// authentication flow. Access and 2FA-pending tokens share JWTSecret;
// refresh tokens are signed with a separate secret.
type TokenService struct {
	secret        []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	tempExpiry    time.Duration
}

// NewTokenService creates a new token service
func NewTokenService(secret, refreshSecret string, accessExpiry, refreshExpiry, tempExpiry time.Duration) (*TokenService, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}
	if len(refreshSecret) < 32 {
		return nil, fmt.Errorf("JWT_REFRESH_SECRET must be at least 32 characters long")
	}
	return &TokenService{
		secret:        []byte(secret),
		refreshSecret: []byte(refreshSecret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		tempExpiry:    tempExpiry,
	}, nil
}

// AccessExpiry returns the configured access token lifetime
func (ts *TokenService) AccessExpiry() time.Duration {
	return ts.accessExpiry
}

// IssueAccessToken creates a signed access token for the admin
func (ts *TokenService) IssueAccessToken(admin *models.AdminAccount) (token string, expiresAt time.Time, err error) {
	now := time.Now()
	expiresAt = now.Add(ts.accessExpiry)

	claims := AccessClaims{
		AdminID:   admin.ID.String(),
		Email:     admin.Email,
		Role:      admin.Role,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	return token, expiresAt, err
}

// IssueRefreshToken creates a signed refresh token for the admin
func (ts *TokenService) IssueRefreshToken(adminID uuid.UUID) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		AdminID:   adminID.String(),
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.refreshExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.refreshSecret)
}

// IssueTwoFactorToken creates the short-lived token returned when a password
// check succeeds but a TOTP code is still required
func (ts *TokenService) IssueTwoFactorToken(adminID uuid.UUID) (string, error) {
	now := time.Now()
	claims := TwoFactorClaims{
		AdminID:     adminID.String(),
		Requires2FA: true,
		TokenType:   tokenTypeTwoFactor,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.tempExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
}

// ParseAccessToken verifies an access token and returns its claims
func (ts *TokenService) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := ts.parse(tokenString, claims, ts.secret); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseRefreshToken verifies a refresh token and returns its claims
func (ts *TokenService) ParseRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := ts.parse(tokenString, claims, ts.refreshSecret); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseTwoFactorToken verifies an intermediate 2FA token. A token without the
// requires2FA flag is rejected so a normal access token cannot be replayed here.
func (ts *TokenService) ParseTwoFactorToken(tokenString string) (*TwoFactorClaims, error) {
	claims := &TwoFactorClaims{}
	if err := ts.parse(tokenString, claims, ts.secret); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeTwoFactor || !claims.Requires2FA {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (ts *TokenService) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}
