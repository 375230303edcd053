package webapp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"trainbot/internal/domain"
	"trainbot/internal/otp"
	"trainbot/internal/store"
)

func newTestServer(t *testing.T, requirePhone bool) (*Server, store.Store) {
	t.Helper()
	users, err := store.NewFileStore(filepath.Join(t.TempDir(), "users.json"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	codes := otp.NewRegistry(otp.Options{Length: 6, TTL: 10 * time.Minute, Attempts: 3})
	s, err := NewServer(Options{
		Listen:       ":0",
		BotToken:     testToken,
		Codes:        codes,
		Users:        users,
		RequirePhone: requirePhone,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s, users
}

func doJSON(t *testing.T, h http.Handler, method, path string, headers map[string]string, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload map[string]any
	if strings.Contains(rec.Header().Get("Content-Type"), "json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("response not JSON: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, payload
}

func signedFor(t *testing.T, uid string) string {
	t.Helper()
	v := url.Values{}
	v.Set("user", `{"id":`+uid+`}`)
	v.Set("auth_date", "1717243200")
	return SignInitData(v, testToken)
}

func TestServerPageServed(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec, _ := doJSON(t, s.Handler(), http.MethodGet, "/webapp", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "telegram-web-app.js") {
		t.Fatal("page does not embed the WebApp script")
	}
}

func TestServerIssueAndVerifyFlow(t *testing.T) {
	s, users := newTestServer(t, false)
	h := s.Handler()
	initData := signedFor(t, "777")

	rec, payload := doJSON(t, h, http.MethodPost, "/api/otp/issue",
		map[string]string{"X-Init-Data": initData}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("issue status = %d, want 200", rec.Code)
	}
	if payload["ok"] != true {
		t.Fatalf("issue payload = %v", payload)
	}
	code, _ := payload["code"].(string)
	if len(code) != 6 {
		t.Fatalf("code = %q, want six digits", code)
	}
	if payload["ttl_min"].(float64) != 10 {
		t.Fatalf("ttl_min = %v, want 10", payload["ttl_min"])
	}

	body, _ := json.Marshal(map[string]string{"init_data": initData, "code": code})
	rec, payload = doJSON(t, h, http.MethodPost, "/api/otp/verify", nil, string(body))
	if rec.Code != http.StatusOK || payload["ok"] != true {
		t.Fatalf("verify = %d %v", rec.Code, payload)
	}

	rec2, err := users.Get(context.Background(), 777)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !rec2.Verified {
		t.Fatal("user not marked verified after successful verify")
	}
}

func TestServerRejectsTamperedSignature(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()
	initData := signedFor(t, "777")
	tampered := strings.Replace(initData, "777", "778", 1)

	rec, payload := doJSON(t, h, http.MethodPost, "/api/otp/issue",
		map[string]string{"X-Init-Data": tampered}, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if payload["error"] != "bad signature" {
		t.Fatalf("error = %v, want bad signature", payload["error"])
	}
}

func TestServerVerifyWrongCodeIsSoftFailure(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()
	initData := signedFor(t, "777")

	doJSON(t, h, http.MethodPost, "/api/otp/issue",
		map[string]string{"X-Init-Data": initData}, "")

	body, _ := json.Marshal(map[string]string{"init_data": initData, "code": "000000"})
	rec, payload := doJSON(t, h, http.MethodPost, "/api/otp/verify", nil, string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for OTP failures", rec.Code)
	}
	if payload["ok"] != false || payload["error"] == "" {
		t.Fatalf("payload = %v, want ok:false with error text", payload)
	}
}

func TestServerIssueRequiresApprovedPhone(t *testing.T) {
	s, users := newTestServer(t, true)
	h := s.Handler()
	initData := signedFor(t, "500")

	rec, payload := doJSON(t, h, http.MethodPost, "/api/otp/issue",
		map[string]string{"X-Init-Data": initData}, "")
	if rec.Code != http.StatusForbidden || payload["ok"] != false {
		t.Fatalf("unapproved phone: %d %v, want 403", rec.Code, payload)
	}

	err := users.Update(context.Background(), 500, func(u *domain.UserRecord) {
		u.Phone = "+994501234567"
		u.PhoneOK = true
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	rec, payload = doJSON(t, h, http.MethodPost, "/api/otp/issue",
		map[string]string{"X-Init-Data": initData}, "")
	if rec.Code != http.StatusOK || payload["ok"] != true {
		t.Fatalf("approved phone: %d %v", rec.Code, payload)
	}
}

func TestServerIssueFloorsSubMinuteTTL(t *testing.T) {
	users, err := store.NewFileStore(filepath.Join(t.TempDir(), "users.json"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	codes := otp.NewRegistry(otp.Options{Length: 6, TTL: 30 * time.Second, Attempts: 3})
	s, err := NewServer(Options{Listen: ":0", BotToken: testToken, Codes: codes, Users: users})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	rec, payload := doJSON(t, s.Handler(), http.MethodPost, "/api/otp/issue",
		map[string]string{"X-Init-Data": signedFor(t, "9")}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload["ttl"].(float64) != 30 {
		t.Errorf("ttl = %v, want 30", payload["ttl"])
	}
	if payload["ttl_min"].(float64) != 1 {
		t.Errorf("ttl_min = %v, want floor of 1", payload["ttl_min"])
	}
}

func TestServerInitDataFromQueryParam(t *testing.T) {
	s, _ := newTestServer(t, false)
	h := s.Handler()
	initData := signedFor(t, "321")

	rec, payload := doJSON(t, h, http.MethodPost,
		"/api/otp/issue?init_data="+url.QueryEscape(initData), nil, "")
	if rec.Code != http.StatusOK || payload["ok"] != true {
		t.Fatalf("query init data: %d %v", rec.Code, payload)
	}
}
