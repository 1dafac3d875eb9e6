// Package feed implements the marketplace REST client.
//
// The client is the only component that talks to the upstream API. It
// returns typed errors; the driver downgrades any failure to "no data
// this cycle" so one collection's feed never stalls another's.
package feed
