package client

import (
	"sync"

	"github.com/beevik/etree"

	"github.com/black3806/clixon/internal/protocol/frame"
	"github.com/black3806/clixon/options"
)

// ReplyBinder post-processes a successful rpc-reply document. The rpc
// name is the request's first child element tag, captured before the
// exchange so schema-aware callers can associate the reply with it.
type ReplyBinder func(rpcName string, reply *etree.Element) error

// Handle is a client endpoint for one backend. It caches the session id
// across operations; the id survives the per-operation connections.
// A Handle is safe for concurrent use.
type Handle struct {
	opts   options.Options
	limits frame.Limits
	binder ReplyBinder

	mu         sync.Mutex
	sessionID  uint32
	hasSession bool
}

// New validates opts and returns a handle. No connection is made until
// the first operation.
func New(opts options.Options) (*Handle, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Handle{opts: opts, limits: opts.Limits()}, nil
}

// Options returns the effective options after defaulting.
func (h *Handle) Options() options.Options {
	return h.opts
}

// SetReplyBinder installs a binder applied to NetconfXML replies that
// carry no rpc-error. Install before issuing operations.
func (h *Handle) SetReplyBinder(b ReplyBinder) {
	h.binder = b
}
