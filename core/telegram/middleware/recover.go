package middleware

import (
	"log/slog"
	"runtime/debug"

	"trainbot/core/logger"
	"trainbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Recover wraps handlers and turns panics into error logs instead of
// crashing the poller goroutine.
func Recover() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			defer func() {
				if r := recover(); r != nil {
					ctx := helpers.ContextFrom(c)
					logger.TG.LogAttrs(ctx, slog.LevelError, "handler.panic",
						slog.Any("cause", r),
						slog.String("stack", logger.SanitizeLimit(string(debug.Stack()), 2048)),
					)
				}
			}()
			return next(c)
		}
	}
}
