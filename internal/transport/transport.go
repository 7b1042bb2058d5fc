// Package transport resolves backend socket targets and moves single
// request/reply message pairs across them. Every exchange dials a fresh
// connection; callers that need a long-lived stream keep the returned
// connection open themselves.
package transport

import (
	"context"
	"errors"
	"net"
	"strconv"

	"github.com/black3806/clixon/internal/protocol/frame"
	"github.com/black3806/clixon/options"
)

var (
	ErrNoSockPath = errors.New("transport: unix socket path not configured")
	ErrNoSockAddr = errors.New("transport: backend address not configured")
	ErrNoSockPort = errors.New("transport: backend port not configured")
)

// Target is a resolved dial destination for net.Dial.
type Target struct {
	Network string
	Address string
}

// ResolveTarget maps configured options onto a concrete dial target.
func ResolveTarget(opts options.Options) (Target, error) {
	switch opts.Family {
	case options.FamilyInet:
		if opts.Sock == "" {
			return Target{}, ErrNoSockAddr
		}
		if opts.Port <= 0 {
			return Target{}, ErrNoSockPort
		}
		return Target{
			Network: "tcp",
			Address: net.JoinHostPort(opts.Sock, strconv.Itoa(opts.Port)),
		}, nil
	default:
		if opts.Sock == "" {
			return Target{}, ErrNoSockPath
		}
		return Target{Network: "unix", Address: opts.Sock}, nil
	}
}

// Dial opens one connection to the target. The context bounds connection
// establishment only; reads and writes on the returned connection are
// unbounded.
func Dial(ctx context.Context, target Target) (net.Conn, error) {
	var dialer net.Dialer
	return dialer.DialContext(ctx, target.Network, target.Address)
}

// Roundtrip writes one message and blocks for the single reply.
func Roundtrip(conn net.Conn, msg frame.Msg, limits frame.Limits) (frame.Msg, error) {
	if err := frame.WriteMsg(conn, msg, limits); err != nil {
		return frame.Msg{}, err
	}
	return frame.ReadMsg(conn, limits)
}
