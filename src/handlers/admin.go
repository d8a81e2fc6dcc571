package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/salespilot/admin-auth-server/src/config"
	"github.com/salespilot/admin-auth-server/src/logging"
	"github.com/salespilot/admin-auth-server/src/middleware"
	"github.com/salespilot/admin-auth-server/src/models"
	"github.com/salespilot/admin-auth-server/src/services"

	"github.com/rs/zerolog"
)

// AdminHandler serves the SUPER_ADMIN account management endpoints
type AdminHandler struct {
	admins     *services.AdminService
	bruteForce *services.BruteForceService
	audit      *services.AuditService
	cfg        *config.Config
	logger     zerolog.Logger
}

// NewAdminHandler creates a new admin management handler
func NewAdminHandler(
	admins *services.AdminService,
	bruteForce *services.BruteForceService,
	audit *services.AuditService,
	cfg *config.Config,
) *AdminHandler {
	return &AdminHandler{
		admins:     admins,
		bruteForce: bruteForce,
		audit:      audit,
		cfg:        cfg,
		logger:     logging.NewLogger("admin"),
	}
}

// CreateAccountRequest is the request body for POST /api/admin/accounts
type CreateAccountRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=SUPER_ADMIN ADMIN SUPPORT"`
}

// HandleCreateAccount creates a new admin account
func (h *AdminHandler) HandleCreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	admin, err := h.admins.CreateAdmin(c.Request.Context(), req.Email, req.Password, models.AdminRole(req.Role))
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "email is already in use"})
			return
		}
		respondInternalError(c, h.cfg, err)
		return
	}

	h.logger.Info().
		Str("admin_id", admin.ID.String()).
		Str("role", string(admin.Role)).
		Msg("admin account created")

	c.JSON(http.StatusCreated, gin.H{"success": true, "admin": admin.Public()})
}

// HandleListAccounts lists all admin accounts
func (h *AdminHandler) HandleListAccounts(c *gin.Context) {
	admins, err := h.admins.List(c.Request.Context())
	if err != nil {
		respondInternalError(c, h.cfg, err)
		return
	}

	public := make([]models.PublicAdmin, 0, len(admins))
	for _, a := range admins {
		public = append(public, a.Public())
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "admins": public})
}

// HandleUnlockAccount clears both lockout layers for an account: the
// account-level failure counter and the email-keyed brute-force row
func (h *AdminHandler) HandleUnlockAccount(c *gin.Context) {
	id, ok := h.parseAccountID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	admin, err := h.admins.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrAdminNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "admin account not found"})
			return
		}
		respondInternalError(c, h.cfg, err)
		return
	}

	if err := h.admins.Unlock(ctx, admin.ID); err != nil {
		respondInternalError(c, h.cfg, err)
		return
	}
	if err := h.bruteForce.ResetAttempts(ctx, admin.Email, models.AttemptTypeEmail); err != nil {
		h.logger.Error().Err(err).Msg("failed to reset brute-force attempts on unlock")
	}

	h.logger.Info().Str("admin_id", admin.ID.String()).Msg("admin account unlocked")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleDeactivateAccount deactivates an admin account. Deactivation does
// not revoke live sessions directly; the auth middleware rejects inactive
// accounts on the next request.
func (h *AdminHandler) HandleDeactivateAccount(c *gin.Context) {
	h.setAccountActive(c, false)
}

// HandleReactivateAccount reactivates a previously deactivated account
func (h *AdminHandler) HandleReactivateAccount(c *gin.Context) {
	h.setAccountActive(c, true)
}

func (h *AdminHandler) setAccountActive(c *gin.Context, active bool) {
	id, ok := h.parseAccountID(c)
	if !ok {
		return
	}

	if !active {
		// Self-deactivation would strand the caller mid-session
		if actor, found := middleware.AdminFromContext(c); found && actor.ID == id {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "cannot deactivate your own account"})
			return
		}
	}

	if err := h.admins.SetActive(c.Request.Context(), id, active); err != nil {
		if errors.Is(err, services.ErrAdminNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "admin account not found"})
			return
		}
		respondInternalError(c, h.cfg, err)
		return
	}

	h.logger.Info().Str("admin_id", id.String()).Bool("active", active).Msg("admin account state changed")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleListAuditLogs returns the newest audit entries, paginated
func (h *AdminHandler) HandleListAuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.audit.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondInternalError(c, h.cfg, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "logs": entries})
}

func (h *AdminHandler) parseAccountID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid account id"})
		return uuid.Nil, false
	}
	return id, true
}
