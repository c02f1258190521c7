package gate

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/amourisk/amourisk/internal/model"
	"github.com/amourisk/amourisk/internal/store"
)

const (
	limitWindow   = 24 * time.Hour
	limitMaxTests = 3
)

// Limiter throttles test starts per device: at most three inside a rolling
// 24-hour window, counted under a fingerprint-derived key.
type Limiter struct {
	store       *store.Store
	fingerprint string
	now         func() time.Time
}

// NewLimiter builds a limiter keyed by the local device fingerprint.
func NewLimiter(s *store.Store) *Limiter {
	return &Limiter{store: s, fingerprint: Fingerprint(), now: time.Now}
}

// Allow reports whether another test may start, updating the counter when it
// may. A denied call leaves the counter untouched.
func (l *Limiter) Allow() (bool, error) {
	now := l.now()
	counter, err := l.store.GetUsage(l.fingerprint)
	if err != nil {
		return false, err
	}
	if counter == nil {
		fresh := model.UsageCounter{Count: 1, WindowStart: now, LastSeen: now}
		return true, l.store.SetUsage(l.fingerprint, fresh)
	}

	withinWindow := counter.LastSeen.After(now.Add(-limitWindow))
	if withinWindow && counter.Count >= limitMaxTests {
		return false, nil
	}

	updated := model.UsageCounter{Count: 1, WindowStart: now, LastSeen: now}
	if withinWindow {
		updated.Count = counter.Count + 1
		updated.WindowStart = counter.WindowStart
	}
	return true, l.store.SetUsage(l.fingerprint, updated)
}

// Fingerprint derives a stable identifier for this device from host
// attributes.
func Fingerprint() string {
	hostname, _ := os.Hostname()
	h := sha256.New()
	h.Write([]byte(hostname))
	h.Write([]byte(runtime.GOOS))
	h.Write([]byte(runtime.GOARCH))
	h.Write([]byte(strconv.Itoa(os.Getuid())))
	return hex.EncodeToString(h.Sum(nil))
}
