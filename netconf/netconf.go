// Package netconf owns the protocol document vocabulary.
//
// Ownership boundary:
// - namespace constants shared by requests, replies, and notifications
// - edit-config operation and get content/depth value sets
// - namespace-context and filter primitives for read requests
// - rpc-error fault rendering
package netconf

import "fmt"

const (
	// BaseNamespace is the NETCONF base protocol namespace.
	BaseNamespace = "urn:ietf:params:xml:ns:netconf:base:1.0"
	// BasePrefix is the prefix bound to BaseNamespace on request documents.
	BasePrefix = "nc"
	// SubscriptionNamespace qualifies create-subscription requests.
	SubscriptionNamespace = "urn:ietf:params:xml:ns:netmod:notification"
	// EventNamespace qualifies notification documents pushed by the backend.
	EventNamespace = "urn:ietf:params:xml:ns:netconf:notification:1.0"
	// LibNamespace carries private protocol extensions such as debug.
	LibNamespace = "http://clicon.org/lib"
)

// BaseCapability is the capability every session declares in its hello.
const BaseCapability = "urn:ietf:params:netconf:base:1.0"

// Operation is the edit-config default-operation mode.
type Operation int

const (
	OpMerge Operation = iota
	OpReplace
	OpCreate
	OpDelete
	OpRemove
	OpNone
)

func (o Operation) String() string {
	switch o {
	case OpMerge:
		return "merge"
	case OpReplace:
		return "replace"
	case OpCreate:
		return "create"
	case OpDelete:
		return "delete"
	case OpRemove:
		return "remove"
	case OpNone:
		return "none"
	}
	return "merge"
}

// ParseOperation maps an edit-config default-operation keyword to its mode.
func ParseOperation(s string) (Operation, error) {
	switch s {
	case "merge":
		return OpMerge, nil
	case "replace":
		return OpReplace, nil
	case "create":
		return OpCreate, nil
	case "delete":
		return OpDelete, nil
	case "remove":
		return OpRemove, nil
	case "none":
		return OpNone, nil
	}
	return OpMerge, fmt.Errorf("netconf: unknown operation %q", s)
}

// Content selects which class of data a get operation returns.
// ContentAll is the server default and is never emitted on the wire.
type Content int32

const (
	ContentAll       Content = -1
	ContentConfig    Content = 0
	ContentNonconfig Content = 1
)

func (c Content) String() string {
	switch c {
	case ContentConfig:
		return "config"
	case ContentNonconfig:
		return "nonconfig"
	}
	return "all"
}

// ParseContent maps a get content keyword to its selector value.
func ParseContent(s string) (Content, error) {
	switch s {
	case "all":
		return ContentAll, nil
	case "config":
		return ContentConfig, nil
	case "nonconfig":
		return ContentNonconfig, nil
	}
	return ContentAll, fmt.Errorf("netconf: unknown content selector %q", s)
}

// DepthUnlimited suppresses the depth attribute on a get request.
// Depth zero is a valid wire value meaning no levels at all.
const DepthUnlimited int32 = -1
