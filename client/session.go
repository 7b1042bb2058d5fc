package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/rs/zerolog/log"

	"github.com/black3806/clixon/internal/observability"
	"github.com/black3806/clixon/netconf"
)

// Session returns the cached session id, performing the hello exchange
// on first use. The id survives the per-operation connections until
// CloseSession or ClearSession drops it.
func (h *Handle) Session(ctx context.Context) (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hasSession {
		return h.sessionID, nil
	}
	id, err := h.hello(ctx)
	if err != nil {
		return 0, err
	}
	h.sessionID = id
	h.hasSession = true
	observability.RecordSessionEstablished()
	log.Debug().Uint32("session_id", id).Msg("session_established")
	return id, nil
}

// ClearSession drops the cached session id so the next operation
// performs a fresh hello exchange.
func (h *Handle) ClearSession() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessionID = 0
	h.hasSession = false
}

// hello announces capabilities under session id zero and returns the id
// the backend assigned. Callers hold h.mu.
func (h *Handle) hello(ctx context.Context) (uint32, error) {
	el := etree.NewElement("hello")
	if h.opts.Username != "" {
		el.CreateAttr("username", h.opts.Username)
	}
	el.CreateAttr("xmlns", netconf.BaseNamespace)
	caps := el.CreateElement("capabilities")
	for _, c := range h.opts.Capabilities {
		caps.CreateElement("capability").SetText(c)
	}
	body, err := serialize(el)
	if err != nil {
		return 0, fmt.Errorf("client: serialize hello: %w", err)
	}
	start := time.Now()
	doc, _, err := h.exchange(ctx, 0, body, false)
	observability.RecordRPC("hello", time.Since(start), err == nil)
	if err != nil {
		return 0, err
	}
	if fault := doc.FindElement("//rpc-error"); fault != nil {
		return 0, remoteError(fault, "Hello", "")
	}
	sid := doc.FindElement("//hello/session-id")
	if sid == nil {
		return 0, &ProtocolError{Reason: "hello reply missing session-id"}
	}
	id, err := strconv.ParseUint(strings.TrimSpace(sid.Text()), 10, 32)
	if err != nil {
		return 0, &ProtocolError{Reason: "parse hello session-id", Err: err}
	}
	return uint32(id), nil
}

// CloseSession ends the backend session and drops the cached id so a
// later operation starts a fresh one.
func (h *Handle) CloseSession(ctx context.Context) error {
	rpc := h.newRPC()
	rpc.CreateElement("close-session")
	if err := h.callOK(ctx, "close-session", "Close session", rpc); err != nil {
		return err
	}
	h.ClearSession()
	return nil
}

// KillSession terminates another session by id. The request itself runs
// under this handle's own session.
func (h *Handle) KillSession(ctx context.Context, sessionID uint32) error {
	rpc := h.newRPC()
	ks := rpc.CreateElement("kill-session")
	ks.CreateElement("session-id").SetText(strconv.FormatUint(uint64(sessionID), 10))
	return h.callOK(ctx, "kill-session", "Kill session", rpc)
}

// Debug sets the backend debug level. The backend must acknowledge with
// an explicit ok.
func (h *Handle) Debug(ctx context.Context, level int) error {
	rpc := h.newRPC()
	dbg := rpc.CreateElement("debug")
	dbg.CreateAttr("xmlns", netconf.LibNamespace)
	dbg.CreateElement("level").SetText(strconv.Itoa(level))
	doc, err := h.send(ctx, "debug", rpc)
	if err != nil {
		return err
	}
	if fault := doc.FindElement("//rpc-error"); fault != nil {
		return remoteError(fault, "Debug", "")
	}
	if doc.FindElement("//rpc-reply/ok") == nil {
		return &ProtocolError{Reason: "debug reply missing ok"}
	}
	return nil
}
