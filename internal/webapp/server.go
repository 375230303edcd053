package webapp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"trainbot/core/logger"
	"trainbot/internal/access"
	"trainbot/internal/domain"
	"trainbot/internal/otp"
	"trainbot/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Options wires the confirmation form server.
type Options struct {
	Listen       string
	BotToken     string
	Codes        *otp.Registry
	Users        store.Store
	Phones       *access.PhoneList
	RequirePhone bool
}

// Server exposes the WebApp page and the signed OTP endpoints.
type Server struct {
	opts Options
	srv  *http.Server
}

// NewServer validates options and builds the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.BotToken == "" {
		return nil, errors.New("webapp: empty bot token")
	}
	if opts.Codes == nil || opts.Users == nil {
		return nil, errors.New("webapp: missing registry or store")
	}
	if opts.Listen == "" {
		opts.Listen = ":8080"
	}
	s := &Server{opts: opts}
	s.srv = &http.Server{
		Addr:              opts.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Handler builds the chi router. Exposed separately for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(10 * time.Second))

	r.Get("/webapp", s.handlePage)
	r.Post("/api/otp/issue", s.handleIssue)
	r.Post("/api/otp/verify", s.handleVerify)
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Web.LogAttrs(ctx, slog.LevelInfo, "web.listen",
			slog.String("listen", s.opts.Listen),
		)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

type apiRequest struct {
	InitData string `json:"init_data"`
	Code     string `json:"code"`
}

// initDataFrom accepts init data from the X-Init-Data header, the init_data
// query parameter, or the JSON body, in that order.
func initDataFrom(r *http.Request, body *apiRequest) string {
	if v := r.Header.Get("X-Init-Data"); v != "" {
		return v
	}
	if v := r.URL.Query().Get("init_data"); v != "" {
		return v
	}
	if body != nil {
		return body.InitData
	}
	return ""
}

func decodeBody(r *http.Request) *apiRequest {
	var req apiRequest
	if r.Body == nil {
		return &req
	}
	_ = json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64*1024)).Decode(&req)
	return &req
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(pageHTML)
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, body *apiRequest) (int64, bool) {
	uid, err := VerifyInitData(initDataFrom(r, body), s.opts.BotToken)
	if err != nil {
		logger.Web.LogAttrs(r.Context(), slog.LevelWarn, "web.bad_signature",
			slog.String("path", r.URL.Path),
		)
		writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": "bad signature"})
		return 0, false
	}
	return uid, true
}

func (s *Server) handleIssue(w http.ResponseWriter, r *http.Request) {
	body := decodeBody(r)
	uid, ok := s.authenticate(w, r, body)
	if !ok {
		return
	}

	if s.opts.RequirePhone {
		rec, err := s.opts.Users.Get(r.Context(), uid)
		if err != nil {
			logger.Web.LogAttrs(r.Context(), slog.LevelError, "web.store_error",
				slog.Int64("user_id", uid),
				slog.String("err", err.Error()),
			)
		}
		approved := rec.PhoneOK
		if approved && s.opts.Phones != nil && !s.opts.Phones.Approved(rec.Phone) {
			// The whitelist may have shrunk since the phone was approved.
			approved = false
		}
		if !approved {
			writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": "phone not approved"})
			return
		}
	}

	code, err := s.opts.Codes.Issue(uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "internal error"})
		return
	}

	ttl := s.opts.Codes.TTL()
	ttlMin := int(ttl.Minutes())
	if ttlMin < 1 {
		// A sub-minute TTL still reads as one minute in the form.
		ttlMin = 1
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"code":    code,
		"ttl":     int(ttl.Seconds()),
		"ttl_min": ttlMin,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	body := decodeBody(r)
	uid, ok := s.authenticate(w, r, body)
	if !ok {
		return
	}

	if err := s.opts.Codes.Verify(uid, body.Code); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": otp.FailureText(err)})
		return
	}

	if err := s.opts.Users.Update(r.Context(), uid, func(u *domain.UserRecord) { u.Verified = true }); err != nil {
		logger.Web.LogAttrs(r.Context(), slog.LevelError, "web.store_error",
			slog.Int64("user_id", uid),
			slog.String("err", err.Error()),
		)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
