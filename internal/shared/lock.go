package shared

import (
	"fmt"

	"github.com/gofrs/flock"
)

// RunLock serializes transfers that write to the same destination account.
type RunLock struct {
	fl *flock.Flock
}

// LockPath returns the lock file used for the given auth artifact.
func LockPath(authFile string) string {
	return authFile + ".lock"
}

// AcquireRunLock takes a non-blocking exclusive lock on path.
// It returns [ErrRunInProgress] when another process holds it.
func AcquireRunLock(path string) (*RunLock, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: lock held on %s", ErrRunInProgress, path)
	}
	return &RunLock{fl: fl}, nil
}

// Release unlocks the run lock. It is safe to call on a nil lock.
func (l *RunLock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
