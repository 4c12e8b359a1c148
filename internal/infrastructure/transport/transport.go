// Package transport builds the outbound HTTP clients used by the LLM
// adapters and the static browser driver.
package transport

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

var ErrUnsupportedProxy = errors.New("unsupported proxy scheme")

type Config struct {
	// ProxyURL is http://, https://, socks5:// or socks5h://. Empty falls
	// back to the HTTP_PROXY family of environment variables.
	ProxyURL string
	Timeout  time.Duration
}

func NewClient(cfg Config) (*http.Client, error) {
	rt, err := NewTransport(cfg.ProxyURL)
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: rt, Timeout: cfg.Timeout}, nil
}

func NewTransport(proxyURL string) (*http.Transport, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL == "" {
		base.Proxy = http.ProxyFromEnvironment
		return base, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		base.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks dialer: %w", err)
		}
		cd, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("%w: %s dialer lacks DialContext", ErrUnsupportedProxy, u.Scheme)
		}
		base.Proxy = nil
		base.DialContext = cd.DialContext
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProxy, u.Scheme)
	}
	return base, nil
}
