package otp

import (
	"errors"
	"testing"
	"time"
)

func newTestRegistry(t *testing.T, opts Options) (*Registry, *time.Time) {
	t.Helper()
	r := NewRegistry(opts)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	r.now = func() time.Time { return *clock }
	return r, clock
}

func TestIssueProducesNumericCode(t *testing.T) {
	r, _ := newTestRegistry(t, Options{Length: 6})
	code, err := r.Issue(1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("code length = %d, want 6", len(code))
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Fatalf("non-digit in code: %q", code)
		}
	}
}

func TestVerifyWithoutIssue(t *testing.T) {
	r, _ := newTestRegistry(t, Options{})
	if err := r.Verify(1, "123456"); !errors.Is(err, ErrNotRequested) {
		t.Fatalf("err = %v, want ErrNotRequested", err)
	}
}

func TestVerifySuccessIsSingleUse(t *testing.T) {
	r, _ := newTestRegistry(t, Options{})
	code, _ := r.Issue(1)

	if err := r.Verify(1, code); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if err := r.Verify(1, code); !errors.Is(err, ErrNotRequested) {
		t.Fatalf("second verify = %v, want ErrNotRequested", err)
	}
}

func TestReissueInvalidatesPreviousCode(t *testing.T) {
	r, _ := newTestRegistry(t, Options{})
	first, _ := r.Issue(1)
	second, _ := r.Issue(1)
	if first == second {
		t.Skip("collision between random codes")
	}

	if err := r.Verify(1, first); err == nil {
		t.Fatal("stale code accepted")
	}
	// The mismatch above burned one attempt but the new code still works.
	if err := r.Verify(1, second); err != nil {
		t.Fatalf("fresh code rejected: %v", err)
	}
}

func TestVerifyMismatchCountsDownThenLocks(t *testing.T) {
	r, _ := newTestRegistry(t, Options{Attempts: 3})
	code, _ := r.Issue(1)

	err := r.Verify(1, "000000")
	var mm *MismatchError
	if !errors.As(err, &mm) || mm.Remaining != 2 {
		t.Fatalf("first wrong attempt = %v, want mismatch with 2 remaining", err)
	}

	err = r.Verify(1, "000000")
	if !errors.As(err, &mm) || mm.Remaining != 1 {
		t.Fatalf("second wrong attempt = %v, want mismatch with 1 remaining", err)
	}

	if err := r.Verify(1, "000000"); !errors.Is(err, ErrLocked) {
		t.Fatalf("third wrong attempt = %v, want ErrLocked", err)
	}

	// Lockout purges the entry, even for the correct code.
	if err := r.Verify(1, code); !errors.Is(err, ErrNotRequested) {
		t.Fatalf("verify after lockout = %v, want ErrNotRequested", err)
	}
}

func TestVerifyExpiredCode(t *testing.T) {
	r, clock := newTestRegistry(t, Options{TTL: 10 * time.Minute})
	code, _ := r.Issue(1)

	*clock = clock.Add(11 * time.Minute)
	if err := r.Verify(1, code); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	// Expiry purges; a retry reports no pending code.
	if err := r.Verify(1, code); !errors.Is(err, ErrNotRequested) {
		t.Fatalf("retry = %v, want ErrNotRequested", err)
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	r, clock := newTestRegistry(t, Options{TTL: 10 * time.Minute})
	r.Issue(1)

	*clock = clock.Add(5 * time.Minute)
	r.Issue(2)

	*clock = clock.Add(6 * time.Minute)
	if removed := r.Sweep(); removed != 1 {
		t.Fatalf("Sweep removed %d, want 1", removed)
	}
	if err := r.Verify(1, "x"); !errors.Is(err, ErrNotRequested) {
		t.Fatalf("user 1 entry should be swept: %v", err)
	}
	if err := r.Verify(2, "x"); errors.Is(err, ErrNotRequested) {
		t.Fatal("user 2 entry should survive the sweep")
	}
}
