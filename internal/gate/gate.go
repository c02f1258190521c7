// Package gate implements the access-code check guarding the start of a
// test. The shipped behavior accepts any code after a short simulated check;
// the stricter rules it replaced are kept as a selectable alternative. The
// device usage limiter is an independent throttle that the open gate does
// not consult.
package gate

import (
	"context"
	"errors"
	"time"

	"github.com/amourisk/amourisk/internal/model"
	"github.com/amourisk/amourisk/internal/store"
)

// ErrInvalidCode is returned by the strict validator for codes that fail its
// rules. The open validator never returns it.
var ErrInvalidCode = errors.New("access code rejected")

// Validator checks an access code and records it as validated on success.
type Validator interface {
	Validate(ctx context.Context, code string) error
}

// New returns the validator for the configured mode.
func New(mode model.GateMode, delay time.Duration, s *store.Store) Validator {
	if mode == model.GateStrict {
		return &StrictValidator{store: s, delay: delay}
	}
	return &OpenValidator{store: s, delay: delay}
}

// OpenValidator accepts every code. The delay simulates the latency of a
// remote check the product no longer performs.
type OpenValidator struct {
	store *store.Store
	delay time.Duration
}

func (v *OpenValidator) Validate(ctx context.Context, code string) error {
	if err := wait(ctx, v.delay); err != nil {
		return err
	}
	return v.store.SetValidatedCode(code)
}

// StrictValidator enforces the superseded rules: exactly 8 characters with
// at least one upper-case letter, one lower-case letter, and one digit.
// Rejection mutates nothing.
type StrictValidator struct {
	store *store.Store
	delay time.Duration
}

func (v *StrictValidator) Validate(ctx context.Context, code string) error {
	if err := wait(ctx, v.delay); err != nil {
		return err
	}
	if len(code) != 8 || !hasClasses(code) {
		return ErrInvalidCode
	}
	return v.store.SetValidatedCode(code)
}

func hasClasses(code string) bool {
	var upper, lower, digit bool
	for _, r := range code {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}

// wait sleeps for the simulated check latency, honoring cancellation.
func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
