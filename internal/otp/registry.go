package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"trainbot/core/logger"
)

var (
	// ErrNotRequested means no code is pending for the user.
	ErrNotRequested = errors.New("otp: no code requested")
	// ErrExpired means the pending code outlived its TTL.
	ErrExpired = errors.New("otp: code expired")
	// ErrLocked means the attempt budget is exhausted.
	ErrLocked = errors.New("otp: attempts exhausted")
)

// MismatchError reports a wrong code with attempts left.
type MismatchError struct {
	Remaining int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("otp: wrong code, %d attempts remaining", e.Remaining)
}

type entry struct {
	code      string
	expiresAt time.Time
	remaining int
}

// Options tunes code shape and lifecycle.
type Options struct {
	Length   int
	TTL      time.Duration
	Attempts int
}

// Registry holds pending one-time codes in memory. A code survives until it
// is used once, expires, runs out of attempts, or is overwritten by reissue.
type Registry struct {
	mu      sync.Mutex
	pending map[int64]*entry
	opts    Options
	now     func() time.Time
}

// NewRegistry applies defaults for zeroed options.
func NewRegistry(opts Options) *Registry {
	if opts.Length <= 0 {
		opts.Length = 6
	}
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	return &Registry{
		pending: make(map[int64]*entry),
		opts:    opts,
		now:     time.Now,
	}
}

// TTL returns the configured code lifetime.
func (r *Registry) TTL() time.Duration { return r.opts.TTL }

// Issue mints a fresh numeric code for the user, replacing any pending one.
func (r *Registry) Issue(uid int64) (string, error) {
	code, err := randomDigits(r.opts.Length)
	if err != nil {
		return "", fmt.Errorf("otp: generate code: %w", err)
	}

	r.mu.Lock()
	r.pending[uid] = &entry{
		code:      code,
		expiresAt: r.now().Add(r.opts.TTL),
		remaining: r.opts.Attempts,
	}
	r.mu.Unlock()

	logger.OTP.LogAttrs(context.Background(), slog.LevelInfo, "otp.issue",
		slog.Int64("user_id", uid),
		slog.Int("code_len", r.opts.Length),
		slog.Int64("ttl_s", int64(r.opts.TTL.Seconds())),
	)
	return code, nil
}

// Verify checks the submitted code. Any terminal outcome (success, expiry,
// lockout) purges the pending entry; a plain mismatch only burns an attempt.
func (r *Registry) Verify(uid int64, submitted string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.pending[uid]
	if !ok {
		return ErrNotRequested
	}
	if r.now().After(e.expiresAt) {
		delete(r.pending, uid)
		return ErrExpired
	}
	if e.code != submitted {
		e.remaining--
		if e.remaining <= 0 {
			delete(r.pending, uid)
			logger.OTP.LogAttrs(context.Background(), slog.LevelWarn, "otp.locked",
				slog.Int64("user_id", uid),
			)
			return ErrLocked
		}
		return &MismatchError{Remaining: e.remaining}
	}

	delete(r.pending, uid)
	logger.OTP.LogAttrs(context.Background(), slog.LevelInfo, "otp.verify",
		slog.Int64("user_id", uid),
		slog.String("status", "ok"),
	)
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	removed := 0
	for uid, e := range r.pending {
		if now.After(e.expiresAt) {
			delete(r.pending, uid)
			removed++
		}
	}
	r.mu.Unlock()

	if removed > 0 {
		logger.OTP.LogAttrs(context.Background(), slog.LevelDebug, "otp.sweep",
			slog.Int("count", removed),
		)
	}
	return removed
}

// StartSweeper evicts expired codes periodically until ctx is done.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep()
			}
		}
	}()
}

func randomDigits(n int) (string, error) {
	buf := make([]byte, n)
	for i := range buf {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}
