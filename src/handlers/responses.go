package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/salespilot/admin-auth-server/src/config"
	"github.com/salespilot/admin-auth-server/src/logging"
)

var responseLogger = logging.NewLogger("handlers")

// respondValidationError converts binding failures into the standard
// {success, message, errors} envelope with per-field messages when the
// validator produced them
func respondValidationError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]gin.H, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, gin.H{
				"field":   strings.ToLower(fe.Field()),
				"message": validationMessage(fe),
			})
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "validation failed",
			"errors":  fields,
		})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "invalid request body",
	})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "is too short"
	case "max":
		return "is too long"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

// respondInvalidCredentials is the single generic answer for every
// credential failure so responses do not leak which part was wrong
func respondInvalidCredentials(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": "invalid credentials",
	})
}

// respondInternalError logs the real error and hides the detail from
// clients in production
func respondInternalError(c *gin.Context, cfg *config.Config, err error) {
	responseLogger.Error().
		Err(err).
		Str("path", c.Request.URL.Path).
		Msg("request failed")

	body := gin.H{"success": false, "message": "internal server error"}
	if !cfg.IsProduction() {
		body["detail"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}
