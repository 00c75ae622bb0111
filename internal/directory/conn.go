package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

// Conn is the subset of *ldap.Conn the connector uses.
type Conn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	SearchWithPaging(req *ldap.SearchRequest, pagingSize uint32) (*ldap.SearchResult, error)
	Close() error
}

// Dialer opens a connection to the directory described by cfg.
// Errors must already be translated (ErrConnectionFailed).
type Dialer func(ctx context.Context, cfg *models.TenantDirectoryConfig) (Conn, error)

// DialLDAP connects with go-ldap using the transport security of cfg.
// The dial and every later request are bounded by the configured timeout, or by
// the context deadline when it is closer.
func DialLDAP(ctx context.Context, cfg *models.TenantDirectoryConfig) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConnectionFailed, err.Error())
	}

	timeout := boundedTimeout(ctx, cfg.Timeout())

	var tlsConfig *tls.Config
	if cfg.Security == models.SecuritySSL || cfg.Security == models.SecurityStartTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: cfg.SkipVerify, //nolint:gosec // opt-in per tenant for self signed directory certs
			ServerName:         cfg.Host(),
			MinVersion:         tls.VersionTLS12,
		}
	}

	opts := []ldap.DialOpt{ldap.DialWithDialer(&net.Dialer{Timeout: timeout})}
	if cfg.Security == models.SecuritySSL {
		opts = append(opts, ldap.DialWithTLSConfig(tlsConfig))
	}

	conn, err := ldap.DialURL(cfg.URL(), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConnectionFailed, err.Error())
	}

	if cfg.Security == models.SecurityStartTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			closeConn(conn)

			return nil, fmt.Errorf("%w: start tls: %s", ErrConnectionFailed, errStartTLS.Error())
		}
	}

	conn.SetTimeout(timeout)

	return conn, nil
}

// boundedTimeout returns the smaller of d and the time left until the ctx deadline.
func boundedTimeout(ctx context.Context, d time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return d
	}

	left := time.Until(deadline)
	if left <= 0 {
		return time.Millisecond
	}

	if left < d {
		return left
	}

	return d
}

func closeConn(conn Conn) {
	if conn == nil {
		return
	}

	if err := conn.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close directory connection")
	}
}
