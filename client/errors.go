package client

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/black3806/clixon/netconf"
)

// ConnectError reports that the backend socket could not be reached,
// either because the target is not configured or because the dial failed.
type ConnectError struct {
	Target string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("client: connect %s: %v", e.Target, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ProtocolError reports a reply that violates the message contract:
// a failed exchange on an established connection, an unparsable reply
// document, or a reply missing a required element.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return "client: protocol: " + e.Reason
	}
	return fmt.Sprintf("client: protocol: %s: %v", e.Reason, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ResourceError reports a locally enforced bound, such as the configured
// message size limit.
type ResourceError struct {
	Err error
}

func (e *ResourceError) Error() string { return "client: resource: " + e.Err.Error() }

func (e *ResourceError) Unwrap() error { return e.Err }

// RemoteError carries a backend rpc-error rendered to text, together
// with a description of the operation that triggered it. Arg optionally
// names the offending input, quoted in the rendered message.
type RemoteError struct {
	Fault   string
	Context string
	Arg     string
}

func (e *RemoteError) Error() string {
	msg := e.Fault + ". " + e.Context
	if e.Arg != "" {
		msg += " \"" + e.Arg + "\" "
	}
	return msg
}

func remoteError(fault *etree.Element, msg, arg string) *RemoteError {
	return &RemoteError{Fault: netconf.FaultText(fault), Context: msg, Arg: arg}
}
