package bot

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	coreconfig "trainbot/core/config"
	"trainbot/internal/otp"
	"trainbot/internal/store"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	users, err := store.NewFileStore(filepath.Join(t.TempDir(), "users.json"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	cfg := &coreconfig.Config{}
	cfg.Access.StaticCode = "LETMEIN"
	codes := otp.NewRegistry(otp.Options{Length: 6, TTL: time.Minute, Attempts: 3})
	return New(cfg, users, codes, nil)
}

func TestStaticCodeRotation(t *testing.T) {
	a := newTestApp(t)
	if a.StaticCode() != "LETMEIN" {
		t.Fatalf("initial static code = %q", a.StaticCode())
	}

	code, err := a.RotateStaticCode()
	if err != nil {
		t.Fatalf("RotateStaticCode: %v", err)
	}
	if len(code) != 8 {
		t.Fatalf("rotated code length = %d, want 8", len(code))
	}
	if a.StaticCode() != code {
		t.Fatal("StaticCode does not reflect rotation")
	}
	for _, ch := range code {
		if !strings.ContainsRune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789", ch) {
			t.Fatalf("unexpected character %q in code", ch)
		}
	}
}

func TestRegistryDeclaresAllCommands(t *testing.T) {
	a := newTestApp(t)
	reg := a.Registry()

	for _, cmd := range []string{"/start", "/menu", "/stats", "/reload_phones", "/rotate_code"} {
		if _, _, ok := reg.LookupCommand(cmd); !ok {
			t.Errorf("command %s not registered", cmd)
		}
	}
	// /stats answers to its legacy alias as well.
	if key, _, ok := reg.LookupCommand("/count"); !ok || key != "/stats" {
		t.Errorf("alias /count resolves to %q, want /stats", key)
	}

	visible := reg.ListCommands(true)
	for _, cmd := range visible {
		if cmd.Text == "/stats" || cmd.Text == "/reload_phones" || cmd.Text == "/rotate_code" {
			t.Errorf("admin command %s exposed in the public menu", cmd.Text)
		}
	}
}

func TestInProgressOnlyForTextStates(t *testing.T) {
	a := newTestApp(t)

	a.sessions.SetState(1, stateAwaitingName)
	a.sessions.SetState(2, stateMain)
	a.sessions.SetState(3, stateAwaitingCode)
	a.sessions.SetState(4, stateSearch)
	a.sessions.SetState(5, stateMaterials)

	for uid, want := range map[int64]bool{1: true, 2: false, 3: true, 4: true, 5: false, 6: false} {
		if got := a.InProgress(uid); got != want {
			t.Errorf("InProgress(%d) = %v, want %v", uid, got, want)
		}
	}
}
