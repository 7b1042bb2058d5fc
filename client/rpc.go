package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/beevik/etree"
	"github.com/rs/zerolog/log"

	"github.com/black3806/clixon/internal/observability"
	"github.com/black3806/clixon/internal/protocol/frame"
	"github.com/black3806/clixon/internal/transport"
)

// Netconf sends one raw message body under the cached session id and
// returns the parsed reply document.
func (h *Handle) Netconf(ctx context.Context, body string) (*etree.Document, error) {
	return h.roundtrip(ctx, "rpc", body)
}

// NetconfXML serializes one rpc element, sends it, and applies the
// installed reply binder to a fault-free rpc-reply.
func (h *Handle) NetconfXML(ctx context.Context, rpc *etree.Element) (*etree.Document, error) {
	name := rpcName(rpc)
	if name == "" {
		return nil, &ProtocolError{Reason: "missing rpc name in request"}
	}
	body, err := serialize(rpc)
	if err != nil {
		return nil, fmt.Errorf("client: serialize rpc: %w", err)
	}
	doc, err := h.roundtrip(ctx, name, body)
	if err != nil {
		return nil, err
	}
	if h.binder != nil {
		if reply := doc.FindElement("/rpc-reply"); reply != nil && reply.FindElement("rpc-error") == nil {
			if err := h.binder(name, reply); err != nil {
				return nil, err
			}
		}
	}
	return doc, nil
}

// send serializes one rpc element and exchanges it under the cached
// session id.
func (h *Handle) send(ctx context.Context, op string, rpc *etree.Element) (*etree.Document, error) {
	body, err := serialize(rpc)
	if err != nil {
		return nil, fmt.Errorf("client: serialize %s request: %w", op, err)
	}
	return h.roundtrip(ctx, op, body)
}

func (h *Handle) roundtrip(ctx context.Context, op, body string) (*etree.Document, error) {
	sid, err := h.Session(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	doc, _, err := h.exchange(ctx, sid, body, false)
	observability.RecordRPC(op, time.Since(start), err == nil)
	return doc, err
}

// callOK sends one rpc and requires a reply free of rpc-error.
func (h *Handle) callOK(ctx context.Context, op, errContext string, rpc *etree.Element) error {
	doc, err := h.send(ctx, op, rpc)
	if err != nil {
		return err
	}
	if fault := doc.FindElement("//rpc-error"); fault != nil {
		return remoteError(fault, errContext, "")
	}
	return nil
}

// exchange performs one connect/write/read cycle against the backend.
// When persistent is true and the exchange succeeds, the connection is
// returned open for stream reads and the caller owns closing it.
func (h *Handle) exchange(ctx context.Context, sessionID uint32, body string, persistent bool) (*etree.Document, net.Conn, error) {
	target, err := transport.ResolveTarget(h.opts)
	if err != nil {
		return nil, nil, &ConnectError{Target: string(h.opts.Family), Err: err}
	}
	conn, err := transport.Dial(ctx, target)
	if err != nil {
		return nil, nil, &ConnectError{Target: target.Address, Err: err}
	}
	log.Debug().Uint32("session_id", sessionID).Str("request", body).Msg("rpc_request")
	reply, err := transport.Roundtrip(conn, frame.New(sessionID, body), h.limits)
	if err != nil {
		_ = conn.Close()
		if errors.Is(err, frame.ErrBodyTooLarge) {
			return nil, nil, &ResourceError{Err: err}
		}
		return nil, nil, &ProtocolError{Reason: "message exchange", Err: err}
	}
	log.Debug().Uint32("session_id", reply.SessionID).Str("reply", string(reply.Body)).Msg("rpc_reply")
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(reply.Body); err != nil {
		_ = conn.Close()
		return nil, nil, &ProtocolError{Reason: "parse reply", Err: err}
	}
	if doc.Root() == nil {
		_ = conn.Close()
		return nil, nil, &ProtocolError{Reason: "empty reply"}
	}
	if persistent {
		return doc, conn, nil
	}
	_ = conn.Close()
	return doc, nil, nil
}

// rpcEnvelope builds the rpc element carrying the username attribute
// when one is known.
func rpcEnvelope(username string) *etree.Element {
	rpc := etree.NewElement("rpc")
	if username != "" {
		rpc.CreateAttr("username", username)
	}
	return rpc
}

func (h *Handle) newRPC() *etree.Element {
	return rpcEnvelope(h.opts.Username)
}

func rpcName(rpc *etree.Element) string {
	if rpc == nil {
		return ""
	}
	children := rpc.ChildElements()
	if len(children) == 0 {
		return ""
	}
	return children[0].Tag
}

// serialize renders a detached copy of el so callers keep ownership of
// their documents.
func serialize(el *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	return doc.WriteToString()
}
