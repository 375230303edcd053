package bot

import (
	"fmt"
	"strings"

	"trainbot/core/telegram/helpers"
	"trainbot/core/telegram/keyboard"
	"trainbot/internal/access"
	"trainbot/internal/catalog"
	"trainbot/internal/domain"
	"trainbot/internal/i18n"
	"trainbot/internal/otp"

	tele "gopkg.in/telebot.v4"
)

// callbackPayload extracts the data part of a button callback.
func callbackPayload(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	if i := strings.IndexByte(raw, '|'); i >= 0 {
		return raw[i+1:]
	}
	return ""
}

// deleteTempMessage removes a previously stored prompt, best effort.
func (a *App) deleteTempMessage(c tele.Context, uid int64, key string) {
	if id, ok := a.sessions.GetTempInt64(uid, key); ok && id != 0 {
		_ = c.Bot().Delete(tele.StoredMessage{MessageID: fmt.Sprint(id), ChatID: c.Chat().ID})
		a.sessions.ClearTemp(uid, key)
	}
}

func (a *App) cbLanguage(c tele.Context) error {
	uid := c.Sender().ID
	lang, ok := i18n.Parse(callbackPayload(c))
	if !ok {
		lang = i18n.Default
	}
	a.sessions.SetTemp(uid, tempLang, lang)
	a.deleteTempMessage(c, uid, tempLangMsg)

	msg, err := c.Bot().Send(c.Sender(), i18n.For(lang).Welcome)
	if err != nil {
		return err
	}
	a.sessions.SetState(uid, stateAwaitingName)
	a.sessions.SetTemp(uid, tempNameMsg, int64(msg.ID))
	return nil
}

func (a *App) cbSection(c tele.Context) error {
	uid := c.Sender().ID
	texts := i18n.For(a.lang(uid))

	// Sections replace the previous menu message.
	_ = c.Delete()

	switch callbackPayload(c) {
	case "materials":
		buttons := make([]keyboard.InlineBtn, 0, len(catalog.MaterialKeys())+1)
		for _, key := range catalog.MaterialKeys() {
			buttons = append(buttons, keyboard.InlineBtn{Text: texts.FileTitles[key], Unique: "file", Data: key})
		}
		buttons = append(buttons, keyboard.InlineBtn{Text: texts.Back, Unique: "sec", Data: "main"})
		a.sessions.SetState(uid, stateMaterials)
		return helpers.SendWithMarkup(c, texts.ChooseFile, keyboard.InlineButtons(buttons))

	case "videoguides":
		buttons := make([]keyboard.InlineBtn, 0, len(catalog.VideoGuideOrder)+1)
		for _, key := range catalog.VideoGuideOrder {
			buttons = append(buttons, keyboard.InlineBtn{Text: texts.FileTitles[key], Unique: "file", Data: key})
		}
		buttons = append(buttons, keyboard.InlineBtn{Text: texts.Back, Unique: "sec", Data: "main"})
		a.sessions.SetState(uid, stateVideoGuides)
		return helpers.SendWithMarkup(c, texts.VideoChoice, keyboard.InlineButtons(buttons))

	case "contact":
		lang := string(a.lang(uid))
		markup := &tele.ReplyMarkup{}
		rows := make([][]tele.InlineButton, 0, len(catalog.Contacts)+1)
		for _, link := range catalog.Contacts {
			label := link.Label[lang]
			if label == "" {
				label = link.Label["ru"]
			}
			rows = append(rows, []tele.InlineButton{{Text: label, URL: link.URL}})
		}
		backBtn := markup.Data(texts.Back, "sec", "main")
		rows = append(rows, []tele.InlineButton{*backBtn.Inline()})
		markup.InlineKeyboard = rows
		a.sessions.SetState(uid, stateContact)
		return helpers.SendWithMarkup(c, texts.ContactText, markup)

	case "search":
		a.sessions.SetState(uid, stateSearch)
		return helpers.SendText(c, texts.Search+": Введите ключевое слово для поиска.")

	case "main":
		rec, err := a.users.Get(helpers.ContextFrom(c), uid)
		if err != nil {
			a.logStoreErr(c, err)
		}
		name := rec.Name
		if name == "" {
			name = "User"
		}
		return a.sendMainMenu(c, name)
	}
	return nil
}

func (a *App) cbFile(c tele.Context) error {
	uid := c.Sender().ID
	texts := i18n.For(a.lang(uid))
	key := callbackPayload(c)

	backTo := "videoguides"
	entry, ok := catalog.Lookup(key)
	if ok && entry.Kind == catalog.Link {
		backTo = "materials"
	}
	markup := keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: texts.Back, Unique: "sec", Data: backTo},
	})

	_ = c.Delete()

	if !ok {
		return helpers.SendWithMarkup(c, "Файл не найден.", markup)
	}

	title := i18n.FileTitle(a.lang(uid), key)
	switch entry.Kind {
	case catalog.Video:
		video := &tele.Video{File: tele.File{FileID: entry.FileID}, Caption: title}
		return c.Send(video, &tele.SendOptions{ReplyMarkup: markup})
	default:
		return helpers.SendWithMarkup(c, title+":\n"+entry.URL, markup)
	}
}

// InProgress reports whether free text should be routed to the conversation.
func (a *App) InProgress(uid int64) bool {
	switch a.sessions.GetState(uid) {
	case stateAwaitingName, stateSearch, stateAwaitingCode:
		return true
	}
	return false
}

// Handle dispatches free text according to the conversation state.
func (a *App) Handle(c tele.Context) error {
	switch a.sessions.GetState(c.Sender().ID) {
	case stateAwaitingName:
		return a.saveName(c)
	case stateSearch:
		return a.runSearch(c)
	case stateAwaitingCode:
		return a.submitCode(c)
	}
	return nil
}

func (a *App) saveName(c tele.Context) error {
	uid := c.Sender().ID
	name := strings.TrimSpace(c.Text())

	err := a.users.Update(helpers.ContextFrom(c), uid, func(u *domain.UserRecord) {
		u.Name = name
	})
	if err != nil {
		a.logStoreErr(c, err)
	}

	a.deleteTempMessage(c, uid, tempNameMsg)
	_ = c.Delete()

	return a.sendMainMenu(c, name)
}

func (a *App) runSearch(c tele.Context) error {
	uid := c.Sender().ID
	texts := i18n.For(a.lang(uid))
	query := c.Text()

	hits := catalog.Search(query)
	if len(hits) == 0 {
		return helpers.SendText(c, fmt.Sprintf("По запросу «%s» ничего не найдено. Попробуйте другое ключевое слово.", query))
	}

	buttons := make([]keyboard.InlineBtn, 0, len(hits)+1)
	for _, key := range hits {
		buttons = append(buttons, keyboard.InlineBtn{Text: texts.FileTitles[key], Unique: "file", Data: key})
	}
	buttons = append(buttons, keyboard.InlineBtn{Text: texts.Back, Unique: "sec", Data: "main"})
	return helpers.SendWithMarkup(c, fmt.Sprintf("Результаты поиска по запросу: «%s»", query),
		keyboard.InlineButtons(buttons))
}

// submitCode resolves the awaiting_code state. The per-user OTP is checked
// first; the shared access code only counts after the OTP path failed.
func (a *App) submitCode(c tele.Context) error {
	uid := c.Sender().ID
	submitted := strings.TrimSpace(c.Text())

	verr := a.codes.Verify(uid, submitted)
	if verr != nil {
		static := a.StaticCode()
		if static == "" || submitted != static {
			return helpers.SendText(c, otp.FailureText(verr))
		}
	}

	err := a.users.Update(helpers.ContextFrom(c), uid, func(u *domain.UserRecord) {
		u.Verified = true
	})
	if err != nil {
		a.logStoreErr(c, err)
	}
	a.sessions.ClearState(uid)

	if err := helpers.SendText(c, msgAccessGranted); err != nil {
		return err
	}
	return a.startFlow(c)
}

// handleContact processes a shared phone number for the phone challenge.
func (a *App) handleContact(c tele.Context) error {
	uid := c.Sender().ID
	msg := c.Message()
	if msg == nil || msg.Contact == nil {
		return nil
	}

	if msg.Contact.UserID != uid {
		return helpers.SendText(c, "Отправьте свой номер через кнопку «Подтвердить номер 📱».")
	}

	phone := access.NormalizePhone(msg.Contact.PhoneNumber)
	if phone == "" {
		return helpers.SendText(c, "Не удалось распознать номер. Попробуйте ещё раз.")
	}

	approved := a.phones != nil && a.phones.Approved(phone)
	err := a.users.Update(helpers.ContextFrom(c), uid, func(u *domain.UserRecord) {
		u.Phone = phone
		u.PhoneOK = approved
	})
	if err != nil {
		a.logStoreErr(c, err)
	}

	if err := helpers.SendWithMarkup(c, "Номер получен: "+phone, keyboard.RemoveKeyboard()); err != nil {
		return err
	}

	if !approved {
		return helpers.SendText(c, msgPhoneNotAllowed)
	}

	rec, err := a.users.Get(helpers.ContextFrom(c), uid)
	if err != nil {
		a.logStoreErr(c, err)
	}
	if a.cfg.Access.RequireCode && !rec.Verified {
		return a.promptChallenge(c, access.ActionSubmitCode, nil)
	}

	if err := helpers.SendText(c, msgAccessGranted); err != nil {
		return err
	}
	return a.startFlow(c)
}
