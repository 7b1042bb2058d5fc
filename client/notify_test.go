package client

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/black3806/clixon/internal/testutil/backendtest"
	"github.com/black3806/clixon/internal/testutil/testlog"
	"github.com/black3806/clixon/netconf"
)

func TestCreateSubscriptionBody(t *testing.T) {
	testlog.Start(t)
	backend := backendtest.Start(t, backendtest.Config{})
	h := newHandle(t, backend.Options())

	reader, err := h.CreateSubscription(context.Background(), "NETCONF", "/event")
	if err != nil {
		t.Fatalf("create-subscription: %v", err)
	}
	defer reader.Close()

	last, _ := backend.LastRequest()
	cs := parseBody(t, last.Body).FindElement("/rpc/create-subscription")
	if cs == nil {
		t.Fatalf("missing create-subscription: %q", last.Body)
	}
	if got := cs.SelectAttrValue("xmlns", ""); got != netconf.SubscriptionNamespace {
		t.Fatalf("subscription namespace: got=%q", got)
	}
	if got := cs.FindElement("stream").Text(); got != "NETCONF" {
		t.Fatalf("stream: got=%q", got)
	}
	filter := cs.FindElement("filter")
	if filter == nil {
		t.Fatalf("missing filter: %q", last.Body)
	}
	if got := filter.SelectAttrValue("type", ""); got != "xpath" {
		t.Fatalf("filter type: got=%q", got)
	}
	if got := filter.SelectAttrValue("select", ""); got != "/event" {
		t.Fatalf("filter select: got=%q", got)
	}
}

func TestCreateSubscriptionEmitsEmptySelectors(t *testing.T) {
	testlog.Start(t)
	backend := backendtest.Start(t, backendtest.Config{})
	h := newHandle(t, backend.Options())

	reader, err := h.CreateSubscription(context.Background(), "", "")
	if err != nil {
		t.Fatalf("create-subscription: %v", err)
	}
	defer reader.Close()

	last, _ := backend.LastRequest()
	cs := parseBody(t, last.Body).FindElement("/rpc/create-subscription")
	if cs.FindElement("stream") == nil || cs.FindElement("filter") == nil {
		t.Fatalf("selectors must be present even when empty: %q", last.Body)
	}
}

func TestSubscriptionReceivesNotifications(t *testing.T) {
	testlog.Start(t)
	backend := backendtest.Start(t, backendtest.Config{})
	h := newHandle(t, backend.Options())

	reader, err := h.CreateSubscription(context.Background(), "NETCONF", "")
	if err != nil {
		t.Fatalf("create-subscription: %v", err)
	}
	defer reader.Close()

	backend.Notify(`<notification xmlns="` + netconf.EventNamespace + `"><event><op>add</op></event></notification>`)
	doc, err := reader.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if got := doc.Root().SelectAttrValue("xmlns", ""); got != netconf.EventNamespace {
		t.Fatalf("notification namespace: got=%q want=%q", got, netconf.EventNamespace)
	}
	op := doc.FindElement("/notification/event/op")
	if op == nil || op.Text() != "add" {
		t.Fatalf("unexpected notification: %v", doc)
	}
}

func TestOperationsContinueWhileSubscribed(t *testing.T) {
	testlog.Start(t)
	backend := backendtest.Start(t, backendtest.Config{})
	h := newHandle(t, backend.Options())
	ctx := context.Background()

	reader, err := h.CreateSubscription(ctx, "NETCONF", "")
	if err != nil {
		t.Fatalf("create-subscription: %v", err)
	}
	defer reader.Close()

	if err := h.Commit(ctx); err != nil {
		t.Fatalf("commit alongside subscription: %v", err)
	}

	backend.Notify(`<notification xmlns="` + netconf.EventNamespace + `"><event/></notification>`)
	if _, err := reader.Recv(); err != nil {
		t.Fatalf("recv after commit: %v", err)
	}
}

func TestSubscriptionEndReportsEOF(t *testing.T) {
	testlog.Start(t)
	backend := backendtest.Start(t, backendtest.Config{})
	h := newHandle(t, backend.Options())

	reader, err := h.CreateSubscription(context.Background(), "NETCONF", "")
	if err != nil {
		t.Fatalf("create-subscription: %v", err)
	}
	defer reader.Close()

	backend.Close()
	if _, err := reader.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after stream end, got %v", err)
	}
}

func TestCreateSubscriptionFault(t *testing.T) {
	testlog.Start(t)
	backend := backendtest.Start(t, backendtest.Config{
		OnMessage: func(req backendtest.Request) (string, bool) {
			if strings.Contains(req.Body, "<create-subscription") {
				return "<rpc-reply><rpc-error>" +
					"<error-type>application</error-type>" +
					"<error-tag>invalid-value</error-tag>" +
					"<error-severity>error</error-severity>" +
					"<error-message>no such stream</error-message>" +
					"</rpc-error></rpc-reply>", true
			}
			return "", false
		},
	})
	h := newHandle(t, backend.Options())

	_, err := h.CreateSubscription(context.Background(), "bogus", "")
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Context != "Create subscription" {
		t.Fatalf("remote context: got=%q", remote.Context)
	}
	if !strings.Contains(remote.Fault, "no such stream") {
		t.Fatalf("fault text: %q", remote.Fault)
	}
}

func TestSubscriptionRejectsMalformedNotification(t *testing.T) {
	testlog.Start(t)
	backend := backendtest.Start(t, backendtest.Config{})
	h := newHandle(t, backend.Options())

	reader, err := h.CreateSubscription(context.Background(), "NETCONF", "")
	if err != nil {
		t.Fatalf("create-subscription: %v", err)
	}
	defer reader.Close()

	backend.Notify("not a document <<<")
	_, err = reader.Recv()
	var proto *ProtocolError
	if !errors.As(err, &proto) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}
