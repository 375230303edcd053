package bot

import (
	"context"
	"errors"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

// channelMembers resolves live channel membership through the Telegram API.
// The bot handle arrives only after the transport starts, hence the pointer.
type channelMembers struct {
	bot       atomic.Pointer[tele.Bot]
	channelID int64
}

func newChannelMembers(channelID int64) *channelMembers {
	return &channelMembers{channelID: channelID}
}

func (m *channelMembers) attach(b *tele.Bot) {
	m.bot.Store(b)
}

func (m *channelMembers) IsMember(_ context.Context, userID int64) (bool, error) {
	b := m.bot.Load()
	if b == nil {
		return false, errors.New("bot: transport not started")
	}
	member, err := b.ChatMemberOf(tele.ChatID(m.channelID), &tele.User{ID: userID})
	if err != nil {
		return false, err
	}
	switch member.Role {
	case tele.Creator, tele.Administrator, tele.Member, tele.Restricted:
		return true, nil
	default:
		return false, nil
	}
}
