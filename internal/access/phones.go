package access

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"trainbot/core/logger"
)

// NormalizePhone strips everything except digits and prefixes "+".
// Empty input normalizes to the empty string.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, c := range raw {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "+" + b.String()
}

// PhoneList is a reloadable whitelist of approved phone numbers.
type PhoneList struct {
	mu       sync.RWMutex
	static   []string
	file     string
	approved map[string]struct{}
}

// NewPhoneList builds a whitelist from a static list plus an optional file.
// The file holds one number per line; blank lines and '#' comments are
// skipped. An empty whitelist approves nobody.
func NewPhoneList(static []string, file string) (*PhoneList, error) {
	p := &PhoneList{static: static, file: file}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload re-reads the file source and rebuilds the approved set.
func (p *PhoneList) Reload() error {
	approved := make(map[string]struct{})
	for _, raw := range p.static {
		if n := NormalizePhone(raw); n != "" {
			approved[n] = struct{}{}
		}
	}

	if p.file != "" {
		f, err := os.Open(p.file)
		if err != nil {
			return fmt.Errorf("access: open phone list %s: %w", p.file, err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if n := NormalizePhone(line); n != "" {
				approved[n] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("access: read phone list %s: %w", p.file, err)
		}
	}

	p.mu.Lock()
	p.approved = approved
	p.mu.Unlock()

	logger.Gate.LogAttrs(context.Background(), slog.LevelInfo, "phones.reload",
		slog.Int("phones", len(approved)),
	)
	return nil
}

// Approved reports whether the normalized number is whitelisted.
func (p *PhoneList) Approved(phone string) bool {
	n := NormalizePhone(phone)
	if n == "" {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.approved[n]
	return ok
}

// Size returns the number of approved entries.
func (p *PhoneList) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.approved)
}
