package middleware

import (
	"fmt"
	"net"

	"github.com/labstack/echo/v4"
)

// TrustedProxies makes c.RealIP() resolve the client behind a reverse
// proxy. X-Forwarded-For is only honoured on connections from one of the
// trusted CIDRs; anything else reports the peer address, so a client
// can't dodge the per-IP login limiter by forging the header.
//
// An empty list trusts no proxy at all.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) error {
	opts := []echo.TrustOption{
		// Echo trusts loopback and private ranges by default. Only the
		// configured ranges count here.
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trustedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return fmt.Errorf("parsing trusted proxy %q: %w", cidr, err)
		}
		opts = append(opts, echo.TrustIPRange(network))
	}

	e.IPExtractor = echo.ExtractIPFromXFFHeader(opts...)
	return nil
}
