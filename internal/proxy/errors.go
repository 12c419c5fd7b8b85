package proxy

import "errors"

// Proxy configuration errors.
var (
	// ErrInvalidProxyURL is returned when a proxy URL cannot be parsed or has
	// no host.
	ErrInvalidProxyURL = errors.New("invalid proxy URL")

	// ErrUnsupportedScheme is returned for proxy URLs that are not http,
	// https or socks5.
	ErrUnsupportedScheme = errors.New("unsupported proxy scheme: expected http, https or socks5")
)
