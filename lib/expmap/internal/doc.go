// Package internal contains the two independently synchronized halves of an expiring map:
// the EntryStore holding the live entries and the ExpirationIndex ordering their deadlines.
//
// Neither half references the other. The expmap package composes them and runs index updates
// from inside the store's per-key critical section, so the lock order is always
// "store key lock -> index mutex".
package internal
