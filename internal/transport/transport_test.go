package transport

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/black3806/clixon/internal/protocol/frame"
	"github.com/black3806/clixon/internal/testutil/testlog"
	"github.com/black3806/clixon/options"
)

func TestResolveTargetUnix(t *testing.T) {
	testlog.Start(t)
	opts := options.DefaultOptions()
	opts.Sock = "/var/run/backend.sock"
	target, err := ResolveTarget(opts)
	if err != nil {
		t.Fatalf("resolve target: %v", err)
	}
	if target.Network != "unix" || target.Address != "/var/run/backend.sock" {
		t.Fatalf("unexpected target: %+v", target)
	}
}

func TestResolveTargetInet(t *testing.T) {
	testlog.Start(t)
	opts := options.DefaultOptions()
	opts.Family = options.FamilyInet
	opts.Sock = "backend.example.net"
	opts.Port = 4535
	target, err := ResolveTarget(opts)
	if err != nil {
		t.Fatalf("resolve target: %v", err)
	}
	if target.Network != "tcp" || target.Address != "backend.example.net:4535" {
		t.Fatalf("unexpected target: %+v", target)
	}
}

func TestResolveTargetMissingPieces(t *testing.T) {
	testlog.Start(t)
	opts := options.DefaultOptions()
	if _, err := ResolveTarget(opts); !errors.Is(err, ErrNoSockPath) {
		t.Fatalf("expected ErrNoSockPath, got %v", err)
	}

	opts.Family = options.FamilyInet
	if _, err := ResolveTarget(opts); !errors.Is(err, ErrNoSockAddr) {
		t.Fatalf("expected ErrNoSockAddr, got %v", err)
	}

	opts.Sock = "backend.example.net"
	if _, err := ResolveTarget(opts); !errors.Is(err, ErrNoSockPort) {
		t.Fatalf("expected ErrNoSockPort, got %v", err)
	}
}

func TestDialAndRoundtripUnixSocket(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "backend.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	done := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()
		msg, err := frame.ReadMsg(conn, frame.DefaultLimits())
		if err != nil {
			done <- err
			return
		}
		reply := frame.New(7, "<rpc-reply>"+string(msg.Body)+"</rpc-reply>")
		done <- frame.WriteMsg(conn, reply, frame.DefaultLimits())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, err := Dial(ctx, Target{Network: "unix", Address: path})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	reply, err := Roundtrip(conn, frame.New(0, "<hello/>"), frame.DefaultLimits())
	if err != nil {
		t.Fatalf("roundtrip: %v", err)
	}
	if reply.SessionID != 7 {
		t.Fatalf("unexpected session id: %d", reply.SessionID)
	}
	if string(reply.Body) != "<rpc-reply><hello/></rpc-reply>" {
		t.Fatalf("unexpected reply body: %q", reply.Body)
	}
	if err := <-done; err != nil {
		t.Fatalf("backend: %v", err)
	}
}

func TestDialFailsOnMissingSocket(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	path := filepath.Join(t.TempDir(), "missing.sock")
	if _, err := Dial(ctx, Target{Network: "unix", Address: path}); err == nil {
		t.Fatalf("expected dial error for %s", path)
	}
}
