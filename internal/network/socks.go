// Package network provides dialing and address helpers shared by services.
package network

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/proxy"

	"tickrunner/internal/config"
)

// NewSOCKS5Dialer creates a SOCKS5 proxy dialer.
func NewSOCKS5Dialer(host string, port int) (proxy.Dialer, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer for %s: %w", addr, err)
	}
	return dialer, nil
}

// ContextDialFunc returns a context-aware dial function that goes through the
// configured SOCKS5 proxy, or nil when no proxy is configured.
func ContextDialFunc(cfg config.SOCKSConfig) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if !cfg.Enabled() {
		return nil
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		dialer, err := NewSOCKS5Dialer(cfg.Host, cfg.Port)
		if err != nil {
			return nil, err
		}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return dialer.Dial(network, addr)
	}
}
