package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/beevik/etree"

	"github.com/black3806/clixon/internal/observability"
	"github.com/black3806/clixon/internal/protocol/frame"
	"github.com/black3806/clixon/netconf"
)

// CreateSubscription registers for a notification stream and returns a
// reader over the connection the backend pushes events on. An empty
// filter subscribes to the whole stream.
func (h *Handle) CreateSubscription(ctx context.Context, stream, filter string) (*NotificationReader, error) {
	sid, err := h.Session(ctx)
	if err != nil {
		return nil, err
	}
	rpc := h.newRPC()
	sub := rpc.CreateElement("create-subscription")
	sub.CreateAttr("xmlns", netconf.SubscriptionNamespace)
	sub.CreateElement("stream").SetText(stream)
	f := sub.CreateElement("filter")
	f.CreateAttr("type", "xpath")
	f.CreateAttr("select", filter)
	body, err := serialize(rpc)
	if err != nil {
		return nil, fmt.Errorf("client: serialize create-subscription: %w", err)
	}
	start := time.Now()
	doc, conn, err := h.exchange(ctx, sid, body, true)
	observability.RecordRPC("create-subscription", time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	if fault := doc.FindElement("//rpc-error"); fault != nil {
		_ = conn.Close()
		return nil, remoteError(fault, "Create subscription", "")
	}
	return &NotificationReader{conn: conn, limits: h.limits}, nil
}

// NotificationReader delivers pushed notification documents from one
// subscription stream.
type NotificationReader struct {
	conn   net.Conn
	limits frame.Limits
}

// Recv blocks for the next notification. It returns io.EOF once the
// backend closes the stream.
func (r *NotificationReader) Recv() (*etree.Document, error) {
	msg, err := frame.ReadMsg(r.conn, r.limits)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, frame.ErrBodyTooLarge) {
			return nil, &ResourceError{Err: err}
		}
		return nil, &ProtocolError{Reason: "read notification", Err: err}
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(msg.Body); err != nil {
		return nil, &ProtocolError{Reason: "parse notification", Err: err}
	}
	observability.RecordNotification()
	return doc, nil
}

// Close tears down the subscription connection.
func (r *NotificationReader) Close() error {
	return r.conn.Close()
}
