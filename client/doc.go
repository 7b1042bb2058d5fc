// Package client implements the management-protocol client engine.
//
// Ownership boundary:
// - session-id caching and the hello exchange
// - datastore and session rpc operations
// - notification subscription streams
// - backend fault translation into typed errors
//
// Every operation dials its own backend connection and releases it after
// the reply; only notification subscriptions hold a connection open.
package client
