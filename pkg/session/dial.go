package session

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"ircbot/pkg/config"
)

// Dialer opens the transport to the server. *net.Dialer and *tls.Dialer
// satisfy it.
type Dialer interface {
	DialContext(ctx context.Context, network string, address string) (net.Conn, error)
}

// NewDialer builds the default dialer for cfg, wrapping the TCP stream in TLS
// when use_tls is set.
func NewDialer(cfg config.IRCConfig) Dialer {
	netDialer := &net.Dialer{
		Timeout:   time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if !cfg.UseTLS {
		return netDialer
	}

	return &tls.Dialer{
		NetDialer: netDialer,
		Config: &tls.Config{
			ServerName:         cfg.Server,
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}
}

// Address joins the configured server and port.
func Address(cfg config.IRCConfig) string {
	return net.JoinHostPort(cfg.Server, strconv.Itoa(cfg.Port))
}
