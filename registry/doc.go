// Package registry implements the in-memory user record store and the
// background reaper that evicts idle records.
//
// The store is the sole owner of all records: every read returns a
// copy, and a single RWMutex orders all mutations. The reaper runs as
// one background goroutine with an explicit Start/Stop lifecycle.
package registry
