package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/salespilot/admin-auth-server/src/config"
	"github.com/salespilot/admin-auth-server/src/logging"
	"github.com/salespilot/admin-auth-server/src/middleware"
	"github.com/salespilot/admin-auth-server/src/models"
	"github.com/salespilot/admin-auth-server/src/services"

	"github.com/rs/zerolog"
)

// AuthHandler implements the login / 2FA / refresh / logout flow
type AuthHandler struct {
	admins     *services.AdminService
	sessions   *services.SessionService
	tokens     *services.TokenService
	totp       *services.TOTPService
	bruteForce *services.BruteForceService
	csrf       services.CSRFIssuer
	cfg        *config.Config
	logger     zerolog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	admins *services.AdminService,
	sessions *services.SessionService,
	tokens *services.TokenService,
	totp *services.TOTPService,
	bruteForce *services.BruteForceService,
	csrf services.CSRFIssuer,
	cfg *config.Config,
) *AuthHandler {
	return &AuthHandler{
		admins:     admins,
		sessions:   sessions,
		tokens:     tokens,
		totp:       totp,
		bruteForce: bruteForce,
		csrf:       csrf,
		cfg:        cfg,
		logger:     logging.NewLogger("auth"),
	}
}

// LoginRequest is the request body for POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Verify2FARequest is the request body for POST /api/auth/verify-2fa
type Verify2FARequest struct {
	TempToken string `json:"tempToken" binding:"required"`
	Code      string `json:"code" binding:"required,min=6,max=10"`
}

// RefreshRequest is the request body for POST /api/auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TwoFactorCodeRequest carries a bare TOTP code for enable/disable
type TwoFactorCodeRequest struct {
	Code string `json:"code" binding:"required,min=6,max=10"`
}

// HandleLogin runs the credential check state machine: rate limiting happens
// upstream, then the brute-force gate, account state gates, the password
// compare and finally either a full session or a 2FA-pending token.
func (ah *AuthHandler) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	ctx := c.Request.Context()
	ip := c.ClientIP()

	// Brute-force gate, keyed by the submitted email (IP when email absent)
	identifier, identifierType := req.Email, models.AttemptTypeEmail
	if identifier == "" {
		identifier, identifierType = ip, models.AttemptTypeIP
	}

	blocked, err := ah.bruteForce.IsBlocked(ctx, identifier, identifierType)
	if err != nil {
		respondInternalError(c, ah.cfg, err)
		return
	}
	if blocked {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"message": "Too many failed attempts. Please try again later.",
		})
		return
	}

	admin, err := ah.admins.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, services.ErrAdminNotFound) {
			// Do not reveal whether the email exists
			ah.recordFailure(c, identifier, identifierType, nil)
			respondInvalidCredentials(c)
			return
		}
		respondInternalError(c, ah.cfg, err)
		return
	}

	// Inactive is not a credential failure, no attempt recorded
	if !admin.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "account is deactivated"})
		return
	}

	if admin.IsLocked(time.Now()) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "account temporarily locked"})
		return
	}

	if !ah.admins.CheckPassword(admin, req.Password) {
		ah.recordFailure(c, identifier, identifierType, admin)
		respondInvalidCredentials(c)
		return
	}

	// Successful password check: clear both lockout layers and stamp login
	if err := ah.bruteForce.ResetAttempts(ctx, identifier, identifierType); err != nil {
		ah.logger.Error().Err(err).Msg("failed to reset brute-force attempts")
	}
	if err := ah.admins.RecordLoginSuccess(ctx, admin.ID, ip); err != nil {
		ah.logger.Error().Err(err).Msg("failed to record login success")
	}

	if admin.TwoFactorEnabled {
		tempToken, err := ah.tokens.IssueTwoFactorToken(admin.ID)
		if err != nil {
			respondInternalError(c, ah.cfg, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"requires2FA": true,
			"tempToken":   tempToken,
		})
		return
	}

	ah.issueSession(c, admin)
}

// HandleVerify2FA completes a 2FA-pending login. Failed codes are bounded
// only by the auth rate limiter, not by lockout: identity was already proven
// by password.
func (ah *AuthHandler) HandleVerify2FA(c *gin.Context) {
	var req Verify2FARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	claims, err := ah.tokens.ParseTwoFactorToken(req.TempToken)
	if err != nil {
		respondInvalidCredentials(c)
		return
	}

	adminID, err := uuid.Parse(claims.AdminID)
	if err != nil {
		respondInvalidCredentials(c)
		return
	}

	ctx := c.Request.Context()
	admin, err := ah.admins.GetByID(ctx, adminID)
	if err != nil {
		respondInvalidCredentials(c)
		return
	}
	if !admin.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "account is deactivated"})
		return
	}

	// Defensive inconsistency check: the flow requires a configured secret
	if !admin.TwoFactorEnabled || admin.TwoFactorSecret == nil {
		respondInvalidCredentials(c)
		return
	}

	if !ah.totp.VerifyCode(*admin.TwoFactorSecret, req.Code) {
		// Fall back to single-use backup codes
		remaining, matched := ah.totp.RedeemBackupCode(admin.BackupCodes, req.Code)
		if !matched {
			respondInvalidCredentials(c)
			return
		}
		if err := ah.admins.SetBackupCodes(ctx, admin.ID, remaining); err != nil {
			respondInternalError(c, ah.cfg, err)
			return
		}
		ah.logger.Info().Str("admin_id", admin.ID.String()).Msg("backup code redeemed")
	}

	ah.issueSession(c, admin)
}

// HandleRefresh rotates the access token for a live session
func (ah *AuthHandler) HandleRefresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if _, err := ah.tokens.ParseRefreshToken(req.RefreshToken); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or expired token"})
		return
	}

	ctx := c.Request.Context()
	session, err := ah.sessions.GetByRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or expired token"})
		return
	}

	admin, err := ah.admins.GetByID(ctx, session.AdminID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or expired token"})
		return
	}
	if !admin.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "account is deactivated"})
		return
	}

	token, expiresAt, err := ah.tokens.IssueAccessToken(admin)
	if err != nil {
		respondInternalError(c, ah.cfg, err)
		return
	}
	if err := ah.sessions.Rotate(ctx, session.ID, token, expiresAt); err != nil {
		respondInternalError(c, ah.cfg, err)
		return
	}

	csrfToken, err := ah.csrf.Issue()
	if err != nil {
		respondInternalError(c, ah.cfg, err)
		return
	}

	ah.setTokenCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"token":     token,
		"csrfToken": csrfToken,
	})
}

// HandleLogout deletes the session for the presented token. Idempotent.
func (ah *AuthHandler) HandleLogout(c *gin.Context) {
	token := middleware.TokenFromContext(c)
	if token != "" {
		if err := ah.sessions.Invalidate(c.Request.Context(), token); err != nil {
			respondInternalError(c, ah.cfg, err)
			return
		}
	}

	ah.clearTokenCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleSetup2FA issues fresh TOTP enrollment material for the
// authenticated admin. 2FA stays disabled until a code is verified via
// enable-2fa.
func (ah *AuthHandler) HandleSetup2FA(c *gin.Context) {
	admin, ok := middleware.AdminFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing authentication token"})
		return
	}

	secret, otpauthURL, err := ah.totp.GenerateSecret(admin.Email)
	if err != nil {
		respondInternalError(c, ah.cfg, err)
		return
	}

	backupCodes, hashes, err := ah.totp.GenerateBackupCodes()
	if err != nil {
		respondInternalError(c, ah.cfg, err)
		return
	}

	if err := ah.admins.SetTwoFactorSecret(c.Request.Context(), admin.ID, secret, hashes); err != nil {
		respondInternalError(c, ah.cfg, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"secret":      secret,
		"qrCode":      otpauthURL,
		"backupCodes": backupCodes,
	})
}

// HandleEnable2FA verifies a first code against the stored secret and flips
// the 2FA flag
func (ah *AuthHandler) HandleEnable2FA(c *gin.Context) {
	admin, ok := middleware.AdminFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing authentication token"})
		return
	}

	var req TwoFactorCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if admin.TwoFactorSecret == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "two-factor setup has not been started"})
		return
	}

	if !ah.totp.VerifyCode(*admin.TwoFactorSecret, req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid two-factor code"})
		return
	}

	if err := ah.admins.SetTwoFactorEnabled(c.Request.Context(), admin.ID, true); err != nil {
		respondInternalError(c, ah.cfg, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleDisable2FA verifies a code and removes the 2FA configuration
func (ah *AuthHandler) HandleDisable2FA(c *gin.Context) {
	admin, ok := middleware.AdminFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing authentication token"})
		return
	}

	var req TwoFactorCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if !admin.TwoFactorEnabled || admin.TwoFactorSecret == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "two-factor authentication is not enabled"})
		return
	}

	if !ah.totp.VerifyCode(*admin.TwoFactorSecret, req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid two-factor code"})
		return
	}

	if err := ah.admins.ClearTwoFactor(c.Request.Context(), admin.ID); err != nil {
		respondInternalError(c, ah.cfg, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleMe returns the authenticated admin's public profile
func (ah *AuthHandler) HandleMe(c *gin.Context) {
	admin, ok := middleware.AdminFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing authentication token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "admin": admin.Public()})
}

// HandleCSRFToken reissues a CSRF token for the authenticated session
func (ah *AuthHandler) HandleCSRFToken(c *gin.Context) {
	token, err := ah.csrf.Issue()
	if err != nil {
		respondInternalError(c, ah.cfg, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "csrfToken": token})
}

// recordFailure bumps both lockout layers: the keyed brute-force guard and,
// when the account exists, the account-level failure counter
func (ah *AuthHandler) recordFailure(c *gin.Context, identifier string, identifierType models.AttemptType, admin *models.AdminAccount) {
	ctx := c.Request.Context()

	if _, _, err := ah.bruteForce.RecordFailedAttempt(ctx, identifier, identifierType); err != nil {
		ah.logger.Error().Err(err).Msg("failed to record brute-force attempt")
	}

	if admin != nil {
		_, locked, err := ah.admins.RecordLoginFailure(ctx, admin.ID, ah.cfg.BruteForceMaxAttempts, ah.cfg.BruteForceBlockDuration)
		if err != nil {
			ah.logger.Error().Err(err).Msg("failed to record account login failure")
		} else if locked {
			ah.logger.Warn().Str("admin_id", admin.ID.String()).Msg("account locked after repeated failures")
		}
	}
}

// issueSession is the terminal AUTHENTICATED step shared by password-only
// login and 2FA verification: access + refresh tokens, a session row, a CSRF
// token and the public admin fields
func (ah *AuthHandler) issueSession(c *gin.Context, admin *models.AdminAccount) {
	token, expiresAt, err := ah.tokens.IssueAccessToken(admin)
	if err != nil {
		respondInternalError(c, ah.cfg, err)
		return
	}

	refreshToken, err := ah.tokens.IssueRefreshToken(admin.ID)
	if err != nil {
		respondInternalError(c, ah.cfg, err)
		return
	}

	if _, err := ah.sessions.Create(c.Request.Context(), admin.ID, token, refreshToken,
		c.ClientIP(), c.Request.UserAgent(), expiresAt); err != nil {
		respondInternalError(c, ah.cfg, err)
		return
	}

	csrfToken, err := ah.csrf.Issue()
	if err != nil {
		respondInternalError(c, ah.cfg, err)
		return
	}

	ah.setTokenCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"token":        token,
		"refreshToken": refreshToken,
		"csrfToken":    csrfToken,
		"admin":        admin.Public(),
	})
}

func (ah *AuthHandler) setTokenCookie(c *gin.Context, token string) {
	c.SetCookie(
		middleware.AdminTokenCookie,
		token,
		int(ah.tokens.AccessExpiry().Seconds()),
		"/",
		"",
		ah.cfg.IsProduction(), // Secure
		true,                  // HttpOnly
	)
}

func (ah *AuthHandler) clearTokenCookie(c *gin.Context) {
	c.SetCookie(middleware.AdminTokenCookie, "", -1, "/", "", ah.cfg.IsProduction(), true)
}
