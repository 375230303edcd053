package access

import (
	"context"
	"log/slog"

	"trainbot/core/logger"
)

// MembershipChecker answers live channel membership lookups.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID int64) (bool, error)
}

// AdminCheck admits configured admins unconditionally.
type AdminCheck struct {
	IDs []int64
}

func (c *AdminCheck) Name() string { return "admin" }

func (c *AdminCheck) Evaluate(_ context.Context, req Request) (Decision, error) {
	for _, id := range c.IDs {
		if id == req.UserID {
			return Decision{Verdict: Allow}, nil
		}
	}
	return Decision{Verdict: Next}, nil
}

// GroupCheck silently denies updates coming from group chats.
type GroupCheck struct {
	AllowGroups bool
}

func (c *GroupCheck) Name() string { return "group" }

func (c *GroupCheck) Evaluate(_ context.Context, req Request) (Decision, error) {
	if !c.AllowGroups && req.IsGroup {
		return Decision{Verdict: Deny}, nil
	}
	return Decision{Verdict: Next}, nil
}

// PhoneCheck challenges users whose phone has not been approved yet.
type PhoneCheck struct{}

func (c *PhoneCheck) Name() string { return "phone" }

func (c *PhoneCheck) Evaluate(_ context.Context, req Request) (Decision, error) {
	if !req.PhoneOK {
		return Decision{Verdict: Challenge, Action: ActionRequestPhone}, nil
	}
	return Decision{Verdict: Next}, nil
}

// ChannelCheck requires live membership in the configured channel. Lookup
// failures count as non-membership, and either outcome revokes a previously
// granted Verified flag so a leaver cannot coast on old state.
type ChannelCheck struct {
	Members MembershipChecker
	// Revoke clears the persisted Verified flag.
	Revoke func(ctx context.Context, uid int64) error
}

func (c *ChannelCheck) Name() string { return "channel" }

func (c *ChannelCheck) Evaluate(ctx context.Context, req Request) (Decision, error) {
	member, err := c.Members.IsMember(ctx, req.UserID)
	if err != nil {
		logger.Gate.LogAttrs(ctx, slog.LevelWarn, "gate.membership_lookup_failed",
			slog.Int64("user_id", req.UserID),
			slog.String("err", err.Error()),
		)
		member = false
	}
	if member {
		return Decision{Verdict: Next}, nil
	}
	if req.Verified && c.Revoke != nil {
		if rerr := c.Revoke(ctx, req.UserID); rerr != nil {
			logger.Gate.LogAttrs(ctx, slog.LevelError, "gate.revoke_failed",
				slog.Int64("user_id", req.UserID),
				slog.String("err", rerr.Error()),
			)
		}
	}
	return Decision{Verdict: Challenge, Action: ActionJoinChannel}, nil
}

// CodeCheck challenges unverified users to submit a one-time code. It is a
// configuration error to require codes with no way to obtain or verify one.
type CodeCheck struct {
	FormURL    string
	StaticCode string
}

func (c *CodeCheck) Name() string { return "code" }

func (c *CodeCheck) Evaluate(_ context.Context, req Request) (Decision, error) {
	if req.Verified {
		return Decision{Verdict: Next}, nil
	}
	if c.FormURL == "" && c.StaticCode == "" {
		return Decision{Verdict: Challenge, Action: ActionSubmitCode}, ErrUnconfigured
	}
	return Decision{Verdict: Challenge, Action: ActionSubmitCode}, nil
}
