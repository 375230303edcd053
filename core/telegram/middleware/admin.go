package middleware

import (
	"log/slog"

	"trainbot/core/logger"
	"trainbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions configures the admin-only guard.
type AdminOptions struct {
	AdminIDs []int64
	OnReject tele.HandlerFunc
}

// AdminOnly restricts a handler to the configured admin set. Non-admin
// attempts are logged and rejected via OnReject (or silently dropped).
func AdminOnly(opts AdminOptions) tele.MiddlewareFunc {
	admins := make(map[int64]struct{}, len(opts.AdminIDs))
	for _, id := range opts.AdminIDs {
		admins[id] = struct{}{}
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return nil
			}
			if _, ok := admins[user.ID]; ok {
				return next(c)
			}
			ctx := helpers.ContextFrom(c)
			logger.TG.LogAttrs(ctx, slog.LevelWarn, "admin.reject",
				slog.Int64("user_id", user.ID),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
