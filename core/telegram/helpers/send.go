package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"trainbot/core/logger"
	"trainbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := ContextFrom(c)
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendWithMarkup sends plain text with an attached reply markup.
func SendWithMarkup(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	return SendText(c, text, &tele.SendOptions{ReplyMarkup: markup})
}

// SendVideo sends a video by file ID. Delivery runs through the async
// dispatcher like text messages.
func SendVideo(c tele.Context, fileID string, caption string) error {
	video := &tele.Video{File: tele.File{FileID: fileID}, Caption: caption}
	return sendAsync(c, "send.video", "sendVideo", func() error {
		return c.Send(video)
	})
}

// EditOrSend tries to edit the current message or sends a new one if edit fails.
func EditOrSend(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	return c.EditOrSend(text, &tele.SendOptions{ReplyMarkup: markup})
}
