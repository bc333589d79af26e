// Package action implements the named, schema-described capabilities a model
// may request to invoke, and the Registry that owns them.
//
// An Action couples a JSON-schema parameter description with a Func handler.
// Actions are immutable: Bind returns a copy carrying a receiver, which the
// handler reads back through core.CallContext.Receiver (see Method).
//
// Registries preserve registration order. Register is strict about duplicate
// names; Put, FromActions, Merge and Compose are last-write-wins, which is how
// per-type action sets are composed from parents once at wiring time.
package action
