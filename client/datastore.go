package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/black3806/clixon/netconf"
)

// GetConfig reads configuration from db, optionally filtered by xpath
// with its namespace context. A non-empty username overrides the
// configured one for this request.
//
// On a backend fault the whole rpc-reply subtree is returned in place
// of data, with no error; callers inspect the root tag.
func (h *Handle) GetConfig(ctx context.Context, username, db, xpath string, nsc *netconf.NamespaceContext) (*etree.Element, error) {
	if username == "" {
		username = h.opts.Username
	}
	rpc := rpcEnvelope(username)
	rpc.CreateAttr("xmlns:"+netconf.BasePrefix, netconf.BaseNamespace)
	gc := rpc.CreateElement("get-config")
	gc.CreateElement("source").CreateElement(db)
	if xpath != "" {
		netconf.AppendFilter(gc, xpath, nsc)
	}
	doc, err := h.send(ctx, "get-config", rpc)
	if err != nil {
		return nil, err
	}
	return dataOrFault(doc), nil
}

// Get reads configuration and state data. Content and depth are
// extensions; ContentAll and DepthUnlimited suppress their attributes
// and leave the choice to the backend. Fault replies surface the same
// way as in GetConfig.
func (h *Handle) Get(ctx context.Context, xpath string, nsc *netconf.NamespaceContext, content netconf.Content, depth int32) (*etree.Element, error) {
	rpc := h.newRPC()
	rpc.CreateAttr("xmlns:"+netconf.BasePrefix, netconf.BaseNamespace)
	get := rpc.CreateElement("get")
	if content != netconf.ContentAll {
		get.CreateAttr("content", content.String())
	}
	if depth != netconf.DepthUnlimited {
		get.CreateAttr("depth", strconv.FormatInt(int64(depth), 10))
	}
	if xpath != "" {
		netconf.AppendFilter(get, xpath, nsc)
	}
	doc, err := h.send(ctx, "get", rpc)
	if err != nil {
		return nil, err
	}
	return dataOrFault(doc), nil
}

// dataOrFault extracts the read result: the rpc-reply subtree when it
// carries an rpc-error, the data subtree otherwise. A reply without
// data yields a fresh empty data element. The result is detached so
// the rest of the parsed reply is left for the collector.
func dataOrFault(doc *etree.Document) *etree.Element {
	el := doc.FindElement("/rpc-reply/rpc-error")
	if el != nil {
		el = el.Parent()
	} else {
		el = doc.FindElement("/rpc-reply/data")
	}
	if el == nil {
		return etree.NewElement("data")
	}
	if p := el.Parent(); p != nil {
		p.RemoveChild(el)
	}
	return el
}

// EditConfig applies configXML changes to db under the given default
// operation. configXML must carry config as its top element.
func (h *Handle) EditConfig(ctx context.Context, db string, op netconf.Operation, configXML string) error {
	rpc := etree.NewElement("rpc")
	rpc.CreateAttr("xmlns", netconf.BaseNamespace)
	rpc.CreateAttr("xmlns:"+netconf.BasePrefix, netconf.BaseNamespace)
	if h.opts.Username != "" {
		rpc.CreateAttr("username", h.opts.Username)
	}
	ec := rpc.CreateElement("edit-config")
	ec.CreateElement("target").CreateElement(db)
	ec.CreateElement("default-operation").SetText(op.String())
	if configXML != "" {
		frag := etree.NewDocument()
		if err := frag.ReadFromString(configXML); err != nil {
			return fmt.Errorf("client: parse config payload: %w", err)
		}
		if root := frag.Root(); root != nil {
			ec.AddChild(root)
		}
	}
	return h.callOK(ctx, "edit-config", "Editing configuration", rpc)
}

// CopyConfig replaces the contents of dst with src.
func (h *Handle) CopyConfig(ctx context.Context, src, dst string) error {
	rpc := h.newRPC()
	cc := rpc.CreateElement("copy-config")
	cc.CreateElement("source").CreateElement(src)
	cc.CreateElement("target").CreateElement(dst)
	return h.callOK(ctx, "copy-config", "Copying configuration", rpc)
}

// DeleteConfig clears db. The wire form is an edit-config deleting the
// config root, not the delete-config operation.
func (h *Handle) DeleteConfig(ctx context.Context, db string) error {
	rpc := h.newRPC()
	ec := rpc.CreateElement("edit-config")
	ec.CreateElement("target").CreateElement(db)
	ec.CreateElement("default-operation").SetText(netconf.OpNone.String())
	ec.CreateElement("config").CreateAttr("operation", "delete")
	return h.callOK(ctx, "delete-config", "Deleting configuration", rpc)
}

// Lock takes the exclusive lock on db for this session.
func (h *Handle) Lock(ctx context.Context, db string) error {
	rpc := h.newRPC()
	rpc.CreateElement("lock").CreateElement("target").CreateElement(db)
	return h.callOK(ctx, "lock", "Locking configuration", rpc)
}

// Unlock releases this session's lock on db.
func (h *Handle) Unlock(ctx context.Context, db string) error {
	rpc := h.newRPC()
	rpc.CreateElement("unlock").CreateElement("target").CreateElement(db)
	return h.callOK(ctx, "unlock", "Configuration unlock", rpc)
}

// Validate asks the backend to validate db.
func (h *Handle) Validate(ctx context.Context, db string) error {
	rpc := h.newRPC()
	rpc.CreateElement("validate").CreateElement("source").CreateElement(db)
	return h.callOK(ctx, "validate", "Validate failed. Edit and try again or discard changes", rpc)
}

// Commit promotes the candidate datastore into running.
func (h *Handle) Commit(ctx context.Context) error {
	rpc := h.newRPC()
	rpc.CreateElement("commit")
	return h.callOK(ctx, "commit", "Commit failed. Edit and try again or discard changes", rpc)
}

// DiscardChanges reverts the candidate datastore to running.
func (h *Handle) DiscardChanges(ctx context.Context) error {
	rpc := h.newRPC()
	rpc.CreateElement("discard-changes")
	return h.callOK(ctx, "discard-changes", "Discard changes", rpc)
}
