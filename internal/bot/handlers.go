package bot

import (
	"fmt"
	"log/slog"
	"strings"

	"trainbot/core/logger"
	"trainbot/core/telegram/helpers"
	"trainbot/core/telegram/keyboard"
	"trainbot/core/telegram/state"
	"trainbot/internal/access"
	"trainbot/internal/catalog"
	"trainbot/internal/i18n"

	tele "gopkg.in/telebot.v4"
)

const (
	stateAwaitingLanguage = state.State("awaiting_language")
	stateAwaitingName     = state.State("awaiting_name")
	stateMain             = state.State("main")
	stateMaterials        = state.State("materials")
	stateVideoGuides      = state.State("videoguides")
	stateContact          = state.State("contact")
	stateSearch           = state.State("search")
	stateAwaitingCode     = state.State("awaiting_code")
)

const (
	tempLang      = "lang"
	tempLangMsg   = "lang_msg"
	tempNameMsg   = "name_msg"
	tempIntroSent = "intro_sent"
)

const (
	msgPhonePrompt = "Доступ только для номеров из списка.\n" +
		"Нажмите «Подтвердить номер 📱», чтобы отправить свой номер из Telegram."
	msgPhoneButton     = "Подтвердить номер 📱"
	msgCodePrompt      = "🔒 Требуется подтверждение входа. Откройте форму, получите код и отправьте его сюда."
	msgCodeOnlyPrompt  = "🔒 Требуется подтверждение входа. Введите код доступа:"
	msgCodeFormButton  = "Открыть форму подтверждения"
	msgChannelPrompt   = "Для доступа подпишитесь на закрытый канал."
	msgChannelButton   = "Подписаться"
	msgUnconfigured    = "Форма подтверждения не настроена. Обратитесь к администратору."
	msgAccessGranted   = "✅ Доступ разрешён. Открываю меню…"
	msgChooseLanguage  = "Выберите язык / Select language / Dil seçin:"
	msgPhoneNotAllowed = "❌ Ваш номер не в списке доступа. Обратитесь к администратору."
)

func (a *App) handleStart(c tele.Context) error {
	return a.startFlow(c)
}

func (a *App) handleMenu(c tele.Context) error {
	uid := c.Sender().ID
	rec, err := a.users.Get(helpers.ContextFrom(c), uid)
	if err != nil {
		a.logStoreErr(c, err)
	}
	if rec.Name == "" {
		return a.startFlow(c)
	}
	return a.sendMainMenu(c, rec.Name)
}

func (a *App) handleStats(c tele.Context) error {
	all, err := a.users.All(helpers.ContextFrom(c))
	if err != nil {
		return err
	}
	verified := 0
	for _, rec := range all {
		if rec.Verified {
			verified++
		}
	}
	return helpers.SendText(c, fmt.Sprintf("Всего пользователей: %d\nПодтверждены (OTP): %d", len(all), verified))
}

func (a *App) handleReloadPhones(c tele.Context) error {
	if a.phones == nil {
		return helpers.SendText(c, "Проверка номеров отключена.")
	}
	if err := a.phones.Reload(); err != nil {
		return err
	}
	return helpers.SendText(c, fmt.Sprintf("Список телефонов обновлён. Всего: %d", a.phones.Size()))
}

func (a *App) handleRotateCode(c tele.Context) error {
	code, err := a.RotateStaticCode()
	if err != nil {
		return err
	}
	return helpers.SendText(c, "Новый код доступа: "+code)
}

// startFlow is the conversation entry trigger: users without a stored name
// go through language and name capture, everyone else lands on the menu.
func (a *App) startFlow(c tele.Context) error {
	uid := c.Sender().ID
	rec, err := a.users.Get(helpers.ContextFrom(c), uid)
	if err != nil {
		a.logStoreErr(c, err)
	}

	if rec.Name != "" {
		return a.sendMainMenu(c, rec.Name)
	}

	if _, sent := a.sessions.GetTemp(uid, tempIntroSent); !sent {
		if id := catalog.IntroVideoID(); id != "" {
			// Best effort; the greeting must go out either way.
			_ = helpers.SendVideo(c, id, "")
		}
		a.sessions.SetTemp(uid, tempIntroSent, true)
	}

	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "🇷🇺 Русский", Unique: "lang", Data: "ru"},
		{Text: "🇦🇿 Azərbaycan", Unique: "lang", Data: "az"},
		{Text: "🇬🇧 English", Unique: "lang", Data: "en"},
	})
	msg, err := c.Bot().Send(c.Sender(), msgChooseLanguage, markup)
	if err != nil {
		return err
	}
	a.sessions.SetState(uid, stateAwaitingLanguage)
	a.sessions.SetTemp(uid, tempLangMsg, int64(msg.ID))
	return nil
}

func (a *App) sendMainMenu(c tele.Context, name string) error {
	uid := c.Sender().ID
	texts := i18n.For(a.lang(uid))

	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: texts.Materials, Unique: "sec", Data: "materials"},
			{Text: texts.VideoGuides, Unique: "sec", Data: "videoguides"},
		},
		[]keyboard.InlineBtn{
			{Text: texts.Contact, Unique: "sec", Data: "contact"},
			{Text: texts.Search, Unique: "sec", Data: "search"},
		},
	)
	a.sessions.SetState(uid, stateMain)
	return helpers.SendWithMarkup(c, fmt.Sprintf(texts.NameReply, name), markup)
}

func (a *App) lang(uid int64) i18n.Lang {
	if v, ok := a.sessions.GetTemp(uid, tempLang); ok {
		if l, ok := v.(i18n.Lang); ok {
			return l
		}
	}
	return i18n.Default
}

// promptChallenge emits exactly one outbound prompt for a gate challenge.
func (a *App) promptChallenge(c tele.Context, action access.Action, gateErr error) error {
	switch action {
	case access.ActionRequestPhone:
		// A reply keyboard cannot ride on an edited message, always send.
		return helpers.SendWithMarkup(c, msgPhonePrompt, keyboard.ContactRequest(msgPhoneButton))

	case access.ActionJoinChannel:
		if invite := strings.TrimSpace(a.cfg.Access.ChannelInvite); invite != "" {
			return helpers.EditOrSend(c, msgChannelPrompt, keyboard.URLButton(msgChannelButton, invite))
		}
		return helpers.EditOrSend(c, msgChannelPrompt, nil)

	case access.ActionSubmitCode:
		if gateErr != nil {
			// ErrUnconfigured: no form and no static code.
			return helpers.SendText(c, msgUnconfigured)
		}
		a.sessions.SetState(c.Sender().ID, stateAwaitingCode)
		if url := a.cfg.WebApp.URL; url != "" {
			markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
				{Text: msgCodeFormButton, WebApp: url + "/webapp"},
			})
			return helpers.EditOrSend(c, msgCodePrompt, markup)
		}
		return helpers.EditOrSend(c, msgCodeOnlyPrompt, nil)
	}
	return nil
}

func (a *App) logStoreErr(c tele.Context, err error) {
	logger.Store.LogAttrs(helpers.ContextFrom(c), slog.LevelError, "store.error",
		slog.String("err", err.Error()),
	)
}
