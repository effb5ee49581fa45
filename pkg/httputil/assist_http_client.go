// Package httputil provides pooled HTTP clients for external capability calls.
package httputil

import (
	"context"
	"net"
	"net/http"
	"time"
)

// ClientConfig holds HTTP client configuration.
type ClientConfig struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration

	DialTimeout         time.Duration
	TLSHandshakeTimeout time.Duration
	ResponseTimeout     time.Duration

	DisableKeepAlives bool
	KeepAliveInterval time.Duration
}

// DefaultClientConfig returns the default configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,
		DialTimeout:         10 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ResponseTimeout:     30 * time.Second,
		DisableKeepAlives:   false,
		KeepAliveInterval:   30 * time.Second,
	}
}

// CapabilityClientConfig returns the configuration tuned for the external
// language-model capabilities. Completions are slow, so the response timeout
// is generous; concurrency stays moderate.
func CapabilityClientConfig() *ClientConfig {
	return &ClientConfig{
		MaxIdleConns:        30,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     30,
		IdleConnTimeout:     120 * time.Second,
		DialTimeout:         10 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ResponseTimeout:     120 * time.Second,
		DisableKeepAlives:   false,
		KeepAliveInterval:   30 * time.Second,
	}
}

// NewPooledClient creates an HTTP client with connection pooling.
func NewPooledClient(cfg *ClientConfig) *http.Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAliveInterval,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		DisableKeepAlives:     cfg.DisableKeepAlives,
		ForceAttemptHTTP2:     true,
		DisableCompression:    false,
		ResponseHeaderTimeout: cfg.ResponseTimeout,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.ResponseTimeout,
	}
}

var (
	defaultClient    *http.Client
	capabilityClient *http.Client
)

func init() {
	defaultClient = NewPooledClient(DefaultClientConfig())
	capabilityClient = NewPooledClient(CapabilityClientConfig())
}

// DefaultClient returns the shared default HTTP client.
func DefaultClient() *http.Client {
	return defaultClient
}

// CapabilityClient returns the shared client for LLM capability calls.
func CapabilityClient() *http.Client {
	return capabilityClient
}

// DoWithContext executes an HTTP request with context.
func DoWithContext(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	if client == nil {
		client = defaultClient
	}
	return client.Do(req.WithContext(ctx))
}
