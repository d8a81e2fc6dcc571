package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// IPWhitelistMiddleware restricts admin routes to an allow-list of IPs or
// CIDR ranges when enabled. An empty or disabled list is a pass-through.
func IPWhitelistMiddleware(enabled bool, whitelist string) gin.HandlerFunc {
	if !enabled || strings.TrimSpace(whitelist) == "" {
		return func(c *gin.Context) { c.Next() }
	}

	var ips []net.IP
	var nets []*net.IPNet
	for _, item := range strings.Split(whitelist, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, cidr, err := net.ParseCIDR(item); err == nil {
			nets = append(nets, cidr)
			continue
		}
		if ip := net.ParseIP(item); ip != nil {
			ips = append(ips, ip)
			continue
		}
		log.Warn().Str("entry", item).Msg("ignoring invalid IP whitelist entry")
	}

	return func(c *gin.Context) {
		clientIP := net.ParseIP(c.ClientIP())
		if clientIP != nil {
			for _, ip := range ips {
				if ip.Equal(clientIP) {
					c.Next()
					return
				}
			}
			for _, cidr := range nets {
				if cidr.Contains(clientIP) {
					c.Next()
					return
				}
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "access denied"})
		c.Abort()
	}
}
