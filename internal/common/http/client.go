// internal/common/http/client.go
package http

import (
	"context"
	"net"
	"net/http"
	"time"
)

// PoolConfig bounds the shared outbound connection pool.
type PoolConfig struct {
	MaxConnsPerHost int
	MaxIdleConns    int
	IdleConnTimeout time.Duration
	DialTimeout     time.Duration
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConnsPerHost: 10,
		MaxIdleConns:    5,
		IdleConnTimeout: 30 * time.Second,
		DialTimeout:     5 * time.Second,
	}
}

// Client is one keep-alive connection pool shared by every outbound caller
// (registry searches and callback deliveries). It is safe for concurrent use.
// Per-call deadlines come from the request context, so the client itself
// carries no overall timeout.
type Client struct {
	httpClient *http.Client
	transport  *http.Transport
}

func NewClient(cfg PoolConfig) *Client {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConns,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.DialTimeout,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &Client{
		httpClient: &http.Client{Transport: transport},
		transport:  transport,
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}

// HTTPClient exposes the underlying client for libraries that want one.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Close drops idle keep-alive connections; in-flight requests are unaffected.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}
