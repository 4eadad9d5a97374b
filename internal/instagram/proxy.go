package instagram

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// newTransport builds the HTTP transport for one identity from its proxy
// string. Supported forms:
//
//   - ""                         direct connection
//   - "host:port"                SOCKS5, no authentication
//   - "socks5://[user:pass@]host:port"  SOCKS5
//   - "http://host:port" / "https://host:port"  HTTP(S) CONNECT proxy
//
// Bare host:port defaults to SOCKS5 because that is what residential
// proxy vendors hand out.
func newTransport(proxyAddr string) (*http.Transport, error) {
	// Connection pool kept small: each session talks to one site with
	// one request in flight.
	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}

	if proxyAddr == "" {
		return transport, nil
	}

	if strings.Contains(proxyAddr, "://") {
		u, err := url.Parse(proxyAddr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %s", ErrInvalidProxy, proxyAddr, err)
		}
		switch u.Scheme {
		case "http", "https":
			transport.Proxy = http.ProxyURL(u)
			return transport, nil
		case "socks5", "socks5h":
			var auth *proxy.Auth
			if u.User != nil {
				password, _ := u.User.Password()
				auth = &proxy.Auth{User: u.User.Username(), Password: password}
			}
			return socks5Transport(transport, u.Host, auth)
		default:
			return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidProxy, u.Scheme)
		}
	}

	if !isHostPort(proxyAddr) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProxy, proxyAddr)
	}
	return socks5Transport(transport, proxyAddr, nil)
}

// socks5Transport routes the transport's connections through a SOCKS5
// dialer. The dialer is created once and reused for every connection.
func socks5Transport(transport *http.Transport, address string, auth *proxy.Auth) (*http.Transport, error) {
	dialer, err := proxy.SOCKS5("tcp", address, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProxy, err)
	}

	// proxy.Dialer has no context support, so the dial runs in a
	// goroutine and the select honors cancellation. The underlying
	// connection attempt may continue briefly after cancel.
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		type dialResult struct {
			conn net.Conn
			err  error
		}
		resultCh := make(chan dialResult, 1)

		go func() {
			conn, err := dialer.Dial(network, addr)
			resultCh <- dialResult{conn, err}
		}()

		select {
		case result := <-resultCh:
			return result.conn, result.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return transport, nil
}

// isHostPort checks that the address is a plain "host:port". A simple
// scan beats a URL parser here because the format allows no scheme and
// no path.
func isHostPort(address string) bool {
	parts := strings.Split(address, ":")
	if len(parts) != 2 {
		return false
	}
	host, port := parts[0], parts[1]
	if host == "" || port == "" {
		return false
	}

	portNum := 0
	for _, c := range port {
		if c < '0' || c > '9' {
			return false
		}
		portNum = portNum*10 + int(c-'0')
		if portNum > 65535 {
			return false
		}
	}
	return portNum >= 1
}
