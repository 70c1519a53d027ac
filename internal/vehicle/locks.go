package vehicle

import "sync"

// keyedLocks serializes read-modify-write of one vehicle's state. Without it,
// near-simultaneous samples for the same vehicle race on
// stoppedAt/totalStoppedTime and lose updates.
type keyedLocks struct {
	mu sync.Map // vehicleID -> *sync.Mutex
}

func (k *keyedLocks) lock(vehicleID string) func() {
	v, _ := k.mu.LoadOrStore(vehicleID, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
