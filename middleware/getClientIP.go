package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// getClientIP keys rate limiting and request logs. The first X-Forwarded-For
// hop wins, then X-Real-IP, then the connection's remote host.
func getClientIP(c *gin.Context) string {
	for _, header := range []string{"X-Forwarded-For", "X-Real-IP"} {
		first, _, _ := strings.Cut(c.GetHeader(header), ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	addr := c.Request.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
