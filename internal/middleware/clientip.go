package middleware

import (
	"net"
	"strings"

	"github.com/labstack/echo/v4"

	"venuebook/internal/logger"
)

// ClientIP picks how c.RealIP resolves the caller. With no trusted proxies
// the TCP peer address is used and forwarding headers are ignored. Otherwise
// X-Forwarded-For is honoured only for hops inside the listed ranges.
func ClientIP(trustedProxies []string, log logger.Logger) echo.IPExtractor {
	var opts []echo.TrustOption
	for _, p := range trustedProxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.Contains(p, "/") {
			if strings.Contains(p, ":") {
				p += "/128"
			} else {
				p += "/32"
			}
		}
		_, ipNet, err := net.ParseCIDR(p)
		if err != nil {
			log.Warn("ignoring invalid trusted proxy", "value", p, "error", err)
			continue
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	if len(opts) == 0 {
		return echo.ExtractIPDirect()
	}
	opts = append(opts,
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	)
	return echo.ExtractIPFromXFFHeader(opts...)
}
