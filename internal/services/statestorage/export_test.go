package statestorage

import "time"

// NewLocalStorageWithClock exposes the clock-injected constructor to tests.
func NewLocalStorageWithClock(nodeID string, now func() time.Time) *LocalStorage {
	return newLocalStorageWithClock(nodeID, now)
}
