// Package store defines the key-value state abstraction shared by every
// reconciliation component.
//
// All durable state lives behind the KV interface; keys are namespaced
// strings built by this package so an entity's records never collide
// with another's. The driver is the sole writer, so implementations only
// need to be safe for concurrent readers.
package store
