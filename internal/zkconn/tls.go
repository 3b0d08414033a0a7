package zkconn

import (
	"crypto/tls"
	"net"
	"time"

	"github.com/Shopify/zk"
)

// TLSDialer returns a zk.Dialer that performs a TLS handshake within the
// dial timeout. An empty ServerName in cfg is filled from the address.
func TLSDialer(cfg *tls.Config) zk.Dialer {
	return func(network, address string, timeout time.Duration) (net.Conn, error) {
		c := cfg.Clone()
		if c.ServerName == "" {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return nil, err
			}
			c.ServerName = host
		}
		return tls.DialWithDialer(&net.Dialer{Timeout: timeout}, network, address, c)
	}
}
