package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amourisk/amourisk/internal/model"
	"github.com/amourisk/amourisk/internal/secure"
	"github.com/amourisk/amourisk/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:", secure.NewCodec(""))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenValidatorAcceptsAnything(t *testing.T) {
	s := newTestStore(t)
	v := New(model.GateOpen, 0, s)

	for _, code := range []string{"Abcdef12", "x", "", "!!!!!!!!", "测试码"} {
		if err := v.Validate(context.Background(), code); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", code, err)
		}
		got, err := s.ValidatedCode()
		if err != nil {
			t.Fatalf("ValidatedCode: %v", err)
		}
		if got != code {
			t.Errorf("stored code = %q, want %q", got, code)
		}
	}
}

func TestOpenValidatorHonorsCancellation(t *testing.T) {
	s := newTestStore(t)
	v := New(model.GateOpen, time.Minute, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := v.Validate(ctx, "any"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Validate on cancelled context = %v, want context.Canceled", err)
	}
	code, _ := s.ValidatedCode()
	if code != "" {
		t.Errorf("cancelled validation stored code %q", code)
	}
}

func TestStrictValidator(t *testing.T) {
	tests := []struct {
		name string
		code string
		ok   bool
	}{
		{"all classes", "Abcdef12", true},
		{"classes spread out", "1aB2cD3e", true},
		{"missing upper", "abcdef12", false},
		{"missing lower", "ABCDEF12", false},
		{"missing digit", "Abcdefgh", false},
		{"too short", "Abcde12", false},
		{"too long", "Abcdef123", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			v := New(model.GateStrict, 0, s)

			err := v.Validate(context.Background(), tt.code)
			if tt.ok && err != nil {
				t.Fatalf("Validate(%q) = %v, want nil", tt.code, err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidCode) {
				t.Fatalf("Validate(%q) = %v, want ErrInvalidCode", tt.code, err)
			}

			code, _ := s.ValidatedCode()
			if tt.ok && code != tt.code {
				t.Errorf("stored code = %q, want %q", code, tt.code)
			}
			if !tt.ok && code != "" {
				t.Errorf("rejected code was stored: %q", code)
			}
		})
	}
}

func TestLimiterWindow(t *testing.T) {
	s := newTestStore(t)
	current := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	l := &Limiter{store: s, fingerprint: "fp-test", now: func() time.Time { return current }}

	for i := 1; i <= limitMaxTests; i++ {
		ok, err := l.Allow()
		if err != nil {
			t.Fatalf("Allow %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("Allow %d denied inside the limit", i)
		}
		current = current.Add(time.Minute)
	}

	ok, err := l.Allow()
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatal("fourth start inside the window was allowed")
	}

	// Denial leaves the counter untouched.
	counter, err := s.GetUsage("fp-test")
	if err != nil {
		t.Fatalf("GetUsage: %v", err)
	}
	if counter == nil || counter.Count != limitMaxTests {
		t.Fatalf("counter = %+v, want count %d", counter, limitMaxTests)
	}

	// Once the window expires the counter resets.
	current = current.Add(limitWindow + time.Hour)
	ok, err = l.Allow()
	if err != nil {
		t.Fatalf("Allow after window: %v", err)
	}
	if !ok {
		t.Fatal("start after the window expired was denied")
	}
	counter, _ = s.GetUsage("fp-test")
	if counter == nil || counter.Count != 1 {
		t.Fatalf("counter after reset = %+v, want count 1", counter)
	}
	if !counter.WindowStart.Equal(current) {
		t.Errorf("window start = %v, want %v", counter.WindowStart, current)
	}
}

func TestLimiterPerFingerprint(t *testing.T) {
	s := newTestStore(t)
	now := func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	a := &Limiter{store: s, fingerprint: "fp-a", now: now}
	b := &Limiter{store: s, fingerprint: "fp-b", now: now}

	for i := 0; i < limitMaxTests; i++ {
		if ok, err := a.Allow(); err != nil || !ok {
			t.Fatalf("a.Allow %d = %v, %v", i, ok, err)
		}
	}
	if ok, _ := a.Allow(); ok {
		t.Fatal("fp-a should be exhausted")
	}
	if ok, err := b.Allow(); err != nil || !ok {
		t.Fatalf("b.Allow = %v, %v, want allowed", ok, err)
	}
}

func TestFingerprintStable(t *testing.T) {
	first := Fingerprint()
	if len(first) != 64 {
		t.Fatalf("fingerprint length = %d, want 64 hex chars", len(first))
	}
	if Fingerprint() != first {
		t.Error("fingerprint not stable across calls")
	}
}
