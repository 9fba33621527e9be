package database

import (
	"strings"

	"guild-mirror/utils"

	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

func init() {
	configureLockDiagnostics()
}

// configureLockDiagnostics keeps go-deadlock's lock-order checks but makes
// every report non-fatal. A writer queued behind slow store round trips is
// not a deadlock, so the wait timeout is off; anything the library still
// reports goes to the process logger instead of exiting.
func configureLockDiagnostics() {
	deadlock.Opts.DeadlockTimeout = 0
	deadlock.Opts.LogBuf = lockReportWriter{}
	deadlock.Opts.OnPotentialDeadlock = func() {
		utils.L().Error("potential deadlock detected")
	}
}

// lockReportWriter forwards go-deadlock's diagnostic dump to zap.
type lockReportWriter struct{}

func (lockReportWriter) Write(p []byte) (int, error) {
	if report := strings.TrimSpace(string(p)); report != "" {
		utils.L().Warn("lock diagnostics", zap.String("report", report))
	}
	return len(p), nil
}

// KeyLocker serializes work per natural key. Entries are reference counted and
// dropped once nobody holds or waits for them.
type KeyLocker struct {
	mu    deadlock.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   deadlock.Mutex
	refs int
}

// NewKeyLocker returns an empty locker.
func NewKeyLocker() *KeyLocker {
	return &KeyLocker{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *KeyLocker) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Len reports how many keys are currently held or awaited.
func (k *KeyLocker) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
