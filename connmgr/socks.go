// Copyright (c) 2025 The Vision developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package connmgr

import (
	"net"
	"time"

	"github.com/decred/go-socks/socks"
)

// ProxyConfig describes an optional SOCKS proxy to dial peers through,
// so a node can run entirely over Tor or another SOCKS front end
// without the rest of the dial path knowing the difference.
type ProxyConfig struct {
	Addr     string
	Username string
	Password string

	// TorIsolation requests a fresh circuit per connection by varying
	// the proxy credentials per dial, rather than reusing one circuit
	// for every peer.
	TorIsolation bool
}

// Dialer is the function shape the rest of the package dials through,
// matching net.Dialer.Dial's signature so either a direct dialer or a
// SOCKS-proxied one can be dropped in.
type Dialer func(network, addr string) (net.Conn, error)

// NewDialer returns a Dialer. With a nil cfg it dials directly; with a
// cfg set it routes every connection through the configured SOCKS
// proxy.
func NewDialer(cfg *ProxyConfig) Dialer {
	if cfg == nil {
		d := &net.Dialer{Timeout: 30 * time.Second}
		return d.Dial
	}

	proxy := &socks.Proxy{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		TorIsolation: cfg.TorIsolation,
	}
	return func(network, addr string) (net.Conn, error) {
		return proxy.DialTimeout(network, addr, 30*time.Second)
	}
}
