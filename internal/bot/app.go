package bot

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	coreconfig "trainbot/core/config"
	"trainbot/core/logger"
	tg "trainbot/core/telegram"
	"trainbot/core/telegram/commands"
	"trainbot/core/telegram/helpers"
	"trainbot/core/telegram/router"
	"trainbot/core/telegram/state"
	"trainbot/internal/access"
	"trainbot/internal/domain"
	"trainbot/internal/otp"
	"trainbot/internal/store"

	tele "gopkg.in/telebot.v4"
)

// App wires the access gate, user store, OTP registry and conversation
// handlers into a runnable bot.
type App struct {
	cfg      *coreconfig.Config
	users    store.Store
	codes    *otp.Registry
	sessions state.Manager
	phones   *access.PhoneList
	members  *channelMembers

	staticMu   sync.RWMutex
	staticCode string
}

// New assembles the application. The phone whitelist may be nil when the
// phone requirement is off.
func New(cfg *coreconfig.Config, users store.Store, codes *otp.Registry, phones *access.PhoneList) *App {
	return &App{
		cfg:        cfg,
		users:      users,
		codes:      codes,
		sessions:   state.NewMemoryManager(),
		phones:     phones,
		members:    newChannelMembers(cfg.Access.ChannelID),
		staticCode: cfg.Access.StaticCode,
	}
}

// AttachBot hands the live transport to components that need API access.
func (a *App) AttachBot(b *tele.Bot) {
	a.members.attach(b)
}

// StaticCode returns the current shared access code, empty when disabled.
func (a *App) StaticCode() string {
	a.staticMu.RLock()
	defer a.staticMu.RUnlock()
	return a.staticCode
}

// RotateStaticCode replaces the shared access code with a fresh random one.
func (a *App) RotateStaticCode() (string, error) {
	code, err := randomCode(8)
	if err != nil {
		return "", err
	}
	a.staticMu.Lock()
	a.staticCode = code
	a.staticMu.Unlock()
	logger.Gate.LogAttrs(context.Background(), slog.LevelInfo, "gate.static_code_rotated")
	return code, nil
}

func randomCode(n int) (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}

// gate builds the check chain for the current configuration. The chain is
// rebuilt per evaluation because the static code can rotate at runtime.
func (a *App) gate() *access.Gate {
	acc := a.cfg.Access
	checks := []access.Check{
		&access.AdminCheck{IDs: acc.AdminIDs},
		&access.GroupCheck{AllowGroups: acc.AllowGroups},
	}
	if acc.RequirePhone {
		checks = append(checks, &access.PhoneCheck{})
	}
	if acc.RequireChannel {
		checks = append(checks, &access.ChannelCheck{
			Members: a.members,
			Revoke: func(ctx context.Context, uid int64) error {
				return a.users.Update(ctx, uid, func(u *domain.UserRecord) { u.Verified = false })
			},
		})
	}
	if acc.RequireCode {
		checks = append(checks, &access.CodeCheck{
			FormURL:    a.cfg.WebApp.URL,
			StaticCode: a.StaticCode(),
		})
	}
	return access.NewGate(checks...)
}

// Registry declares all commands and callbacks.
func (a *App) Registry() *tg.Registry {
	reg := tg.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Начать работу с ботом",
	})
	reg.RegisterCommand("/menu", commands.Command{
		Handler:     a.handleMenu,
		Description: "Показать главное меню",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "Статистика пользователей",
		AdminOnly:   true,
		Aliases:     []string{"count"},
	})
	reg.RegisterCommand("/reload_phones", commands.Command{
		Handler:     a.handleReloadPhones,
		Description: "Перечитать список телефонов",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/rotate_code", commands.Command{
		Handler:     a.handleRotateCode,
		Description: "Сменить код доступа",
		AdminOnly:   true,
	})

	_ = reg.RegisterCallback("lang", a.cbLanguage)
	_ = reg.RegisterCallback("sec", a.cbSection)
	_ = reg.RegisterCallback("file", a.cbFile)

	return reg
}

// Routes binds the registry and conversation endpoints.
func (a *App) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminIDs: a.cfg.Access.AdminIDs,
	})
	routes = append(routes,
		router.CallbackRoute(reg, router.CallbackOptions{}),
		router.TextRoute(a, reg, router.TextOptions{}),
		router.ContactRoute(a.handleContact),
	)
	return routes
}

// Middlewares returns the access gate chain appended to the defaults.
func (a *App) Middlewares() []tg.Middleware {
	mws := tg.DefaultMiddlewares(a.cfg, nil)
	mws = append(mws, tg.Middleware{Name: "gate", Use: a.GateMiddleware})
	return mws
}

// GateMiddleware enforces the access policy in front of every handler.
// Contact shares and pending code submissions bypass the gate so the user
// can actually complete the challenge they were given.
func (a *App) GateMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		user := c.Sender()
		if user == nil {
			return nil
		}
		if msg := c.Message(); msg != nil && msg.Contact != nil {
			return next(c)
		}
		if txt := c.Text(); txt != "" && !strings.HasPrefix(txt, "/") &&
			c.Callback() == nil && a.sessions.GetState(user.ID) == stateAwaitingCode {
			return next(c)
		}

		ctx := helpers.ContextFrom(c)
		rec, err := a.users.Get(ctx, user.ID)
		if err != nil {
			logger.Store.LogAttrs(ctx, slog.LevelError, "store.get_failed",
				slog.Int64("user_id", user.ID),
				slog.String("err", err.Error()),
			)
		}

		req := access.Request{
			UserID:   user.ID,
			PhoneOK:  rec.PhoneOK,
			Verified: rec.Verified,
		}
		if chat := c.Chat(); chat != nil {
			req.ChatID = chat.ID
			req.IsGroup = chat.Type == tele.ChatGroup || chat.Type == tele.ChatSuperGroup
		}
		if a.phones != nil && rec.PhoneOK && !a.phones.Approved(rec.Phone) {
			// Whitelist may have shrunk since approval.
			req.PhoneOK = false
		}

		dec, gerr := a.gate().Evaluate(ctx, req)

		switch dec.Verdict {
		case access.Allow:
			return next(c)
		case access.Deny:
			a.ackCallback(c)
			return nil
		case access.Challenge:
			err := a.promptChallenge(c, dec.Action, gerr)
			a.ackCallback(c)
			return err
		default:
			return next(c)
		}
	}
}

// ackCallback stops the client spinner for blocked button presses. Allowed
// callbacks are acknowledged by the callback route instead.
func (a *App) ackCallback(c tele.Context) {
	if c.Callback() != nil {
		_ = c.Respond()
	}
}
