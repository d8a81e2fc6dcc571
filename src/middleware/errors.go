package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

// RecoveryMiddleware turns panics into a uniform 500 response. Stack traces
// are logged always but returned to the client only outside production.
func RecoveryMiddleware(isProduction bool) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		log.Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Str("request_id", GetRequestID(c)).
			Msg("panic recovered")

		body := gin.H{"success": false, "message": "internal server error"}
		if !isProduction {
			body["detail"] = recovered
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}

// ErrorHandlerMiddleware is the safety net for errors handlers attached via
// c.Error without writing a response themselves. JWT errors and unique
// constraint violations are mapped into the auth/conflict buckets; anything
// else becomes a 500 with details redacted in production.
func ErrorHandlerMiddleware(isProduction bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		switch {
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrSignatureInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or expired token"})
			return
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "resource already exists"})
			return
		}

		log.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Str("request_id", GetRequestID(c)).
			Msg("unhandled error")

		body := gin.H{"success": false, "message": "internal server error"}
		if !isProduction {
			body["detail"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}
