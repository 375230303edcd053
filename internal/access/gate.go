package access

import (
	"context"
	"errors"
	"log/slog"

	"trainbot/core/logger"
)

// Verdict is the outcome of a single gate check.
type Verdict int

const (
	// Next passes the request to the following check.
	Next Verdict = iota
	// Allow admits the request immediately, skipping later checks.
	Allow
	// Deny drops the request silently.
	Deny
	// Challenge blocks the request and asks the user to complete an action.
	Challenge
)

// Action names the remediation a Challenge asks for.
type Action string

const (
	ActionNone         Action = ""
	ActionRequestPhone Action = "request_phone"
	ActionJoinChannel  Action = "join_channel"
	ActionSubmitCode   Action = "submit_code"
)

// Decision is the result of evaluating one check or the whole chain.
type Decision struct {
	Verdict Verdict
	Action  Action
}

// Request carries the request attributes the checks look at.
type Request struct {
	UserID   int64
	ChatID   int64
	IsGroup  bool
	Phone    string
	PhoneOK  bool
	Verified bool
}

// Check inspects a request and votes. Checks returning Next delegate to the
// rest of the chain.
type Check interface {
	Name() string
	Evaluate(ctx context.Context, req Request) (Decision, error)
}

// ErrUnconfigured means the code challenge cannot be satisfied because the
// operator configured neither a form URL nor a static access code.
var ErrUnconfigured = errors.New("access: code challenge has no configured verification path")

// Gate runs an ordered chain of checks, short-circuiting on the first
// non-Next verdict. A chain where every check passes yields Allow.
type Gate struct {
	checks []Check
}

// NewGate builds a gate over the given chain. Order is significant.
func NewGate(checks ...Check) *Gate {
	return &Gate{checks: checks}
}

// Evaluate resolves the chain for one request.
func (g *Gate) Evaluate(ctx context.Context, req Request) (Decision, error) {
	for _, check := range g.checks {
		dec, err := check.Evaluate(ctx, req)
		if err != nil {
			return dec, err
		}
		if dec.Verdict == Next {
			continue
		}
		logger.Gate.LogAttrs(ctx, slog.LevelInfo, "gate.decision",
			slog.Int64("user_id", req.UserID),
			slog.String("check", check.Name()),
			slog.String("verdict", verdictString(dec.Verdict)),
			slog.String("action", string(dec.Action)),
		)
		return dec, nil
	}
	return Decision{Verdict: Allow}, nil
}

func verdictString(v Verdict) string {
	switch v {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case Challenge:
		return "challenge"
	default:
		return "next"
	}
}
