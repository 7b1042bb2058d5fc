// Package backendtest runs a scriptable in-process backend over real
// unix or tcp sockets for exercising the client.
package backendtest

import (
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/beevik/etree"

	"github.com/black3806/clixon/internal/protocol/frame"
	"github.com/black3806/clixon/options"
)

const okReply = "<rpc-reply><ok/></rpc-reply>"

// Request is one recorded inbound message.
type Request struct {
	SessionID uint32
	Body      string
}

// Config scripts backend behavior.
type Config struct {
	// OnMessage overrides the reply for any inbound message, hello
	// included. Returning handled false falls back to the built-in
	// behavior.
	OnMessage func(req Request) (reply string, handled bool)
	// Datastores maps db names to the data XML served by reads.
	Datastores map[string]string
}

// Backend is one listening fake backend. Hellos assign session ids from
// a counter, locks are tracked per db, and subscription connections
// stay open for pushed notifications.
type Backend struct {
	cfg Config
	ln  net.Listener

	nextSession atomic.Uint32

	mu          sync.Mutex
	requests    []Request
	locks       map[string]uint32
	subscribers map[net.Conn]uint32
	conns       map[net.Conn]struct{}
}

// Start serves on a fresh unix socket until the test ends.
func Start(t *testing.T, cfg Config) *Backend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backend.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen backend: %v", err)
	}
	return serve(t, cfg, ln)
}

// StartTCP serves on a loopback tcp port until the test ends.
func StartTCP(t *testing.T, cfg Config) *Backend {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen backend: %v", err)
	}
	return serve(t, cfg, ln)
}

func serve(t *testing.T, cfg Config, ln net.Listener) *Backend {
	b := &Backend{
		cfg:         cfg,
		ln:          ln,
		locks:       make(map[string]uint32),
		subscribers: make(map[net.Conn]uint32),
		conns:       make(map[net.Conn]struct{}),
	}
	go b.acceptLoop()
	t.Cleanup(b.Close)
	return b
}

// Options returns client options pointed at this backend.
func (b *Backend) Options() options.Options {
	opts := options.DefaultOptions()
	switch addr := b.ln.Addr().(type) {
	case *net.TCPAddr:
		opts.Family = options.FamilyInet
		opts.Sock = addr.IP.String()
		opts.Port = addr.Port
	default:
		opts.Sock = addr.String()
	}
	return opts
}

// Close stops the listener and drops every live connection.
func (b *Backend) Close() {
	_ = b.ln.Close()
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.conns {
		_ = conn.Close()
		delete(b.conns, conn)
		delete(b.subscribers, conn)
	}
}

// Requests returns a snapshot of every message received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// LastRequest returns the most recent message received.
func (b *Backend) LastRequest() (Request, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return Request{}, false
	}
	return b.requests[len(b.requests)-1], true
}

// SessionCount reports how many hello exchanges assigned session ids.
func (b *Backend) SessionCount() uint32 {
	return b.nextSession.Load()
}

// Notify pushes one notification body to every live subscriber.
func (b *Backend) Notify(body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn, sid := range b.subscribers {
		_ = frame.WriteMsg(conn, frame.New(sid, body), frame.DefaultLimits())
	}
}

func (b *Backend) acceptLoop() {
	for {
		conn, err := b.ln.Accept()
		if err != nil {
			return
		}
		b.trackConn(conn)
		go b.handleConn(conn)
	}
}

func (b *Backend) handleConn(conn net.Conn) {
	defer conn.Close()
	defer b.untrackConn(conn)
	for {
		msg, err := frame.ReadMsg(conn, frame.DefaultLimits())
		if err != nil {
			return
		}
		req := Request{SessionID: msg.SessionID, Body: string(msg.Body)}
		b.record(req)
		reply, subscribe := b.reply(req)
		if subscribe {
			b.addSubscriber(conn, msg.SessionID)
		}
		if err := frame.WriteMsg(conn, frame.New(msg.SessionID, reply), frame.DefaultLimits()); err != nil {
			return
		}
	}
}

func (b *Backend) reply(req Request) (string, bool) {
	if b.cfg.OnMessage != nil {
		if body, handled := b.cfg.OnMessage(req); handled {
			return body, false
		}
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(req.Body); err != nil || doc.Root() == nil {
		return errorReply("rpc", "malformed-message", "cannot parse request"), false
	}
	root := doc.Root()
	if root.Tag == "hello" {
		return fmt.Sprintf("<hello><session-id>%d</session-id></hello>", b.nextSession.Add(1)), false
	}
	ops := root.ChildElements()
	if len(ops) == 0 {
		return errorReply("rpc", "missing-element", "empty rpc"), false
	}
	op := ops[0]
	switch op.Tag {
	case "get-config":
		return "<rpc-reply><data>" + b.datastore(targetDB(op, "source")) + "</data></rpc-reply>", false
	case "get":
		return "<rpc-reply><data>" + b.datastore("running") + "</data></rpc-reply>", false
	case "lock":
		return b.lockReply(req.SessionID, targetDB(op, "target")), false
	case "unlock":
		return b.unlockReply(req.SessionID, targetDB(op, "target")), false
	case "create-subscription":
		return okReply, true
	default:
		return okReply, false
	}
}

func (b *Backend) datastore(db string) string {
	return b.cfg.Datastores[db]
}

func (b *Backend) lockReply(sid uint32, db string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if holder, held := b.locks[db]; held {
		return fmt.Sprintf("<rpc-reply><rpc-error>"+
			"<error-type>protocol</error-type>"+
			"<error-tag>lock-denied</error-tag>"+
			"<error-info><session-id>%d</session-id></error-info>"+
			"<error-severity>error</error-severity>"+
			"<error-message>lock is already held</error-message>"+
			"</rpc-error></rpc-reply>", holder)
	}
	b.locks[db] = sid
	return okReply
}

func (b *Backend) unlockReply(sid uint32, db string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if holder, held := b.locks[db]; !held || holder != sid {
		return errorReply("protocol", "operation-failed", "lock not held by session")
	}
	delete(b.locks, db)
	return okReply
}

func errorReply(errType, tag, message string) string {
	return fmt.Sprintf("<rpc-reply><rpc-error>"+
		"<error-type>%s</error-type>"+
		"<error-tag>%s</error-tag>"+
		"<error-severity>error</error-severity>"+
		"<error-message>%s</error-message>"+
		"</rpc-error></rpc-reply>", errType, tag, message)
}

func targetDB(op *etree.Element, container string) string {
	parent := op.FindElement(container)
	if parent == nil {
		return ""
	}
	children := parent.ChildElements()
	if len(children) == 0 {
		return ""
	}
	return children[0].Tag
}

func (b *Backend) record(req Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)
}

func (b *Backend) addSubscriber(conn net.Conn, sid uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[conn] = sid
}

func (b *Backend) trackConn(conn net.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conns[conn] = struct{}{}
}

func (b *Backend) untrackConn(conn net.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conns, conn)
	delete(b.subscribers, conn)
}
