package keyboard

import (
	"strings"
	"testing"
)

func TestInlineButtonsOneRowPerButton(t *testing.T) {
	m := InlineButtons([]InlineBtn{
		{Text: "A", Unique: "sec", Data: "a"},
		{Text: "B", Unique: "sec", Data: "b"},
	})
	if len(m.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.InlineKeyboard))
	}
	btn := m.InlineKeyboard[1][0]
	if btn.Text != "B" || !strings.Contains(btn.Data, "b") {
		t.Fatalf("second row = %+v", btn)
	}
}

func TestInlineButtonsRowsWebApp(t *testing.T) {
	m := InlineButtonsRows([]InlineBtn{
		{Text: "Open", WebApp: "https://example.org/webapp"},
	})
	btn := m.InlineKeyboard[0][0]
	if btn.WebApp == nil || btn.WebApp.URL != "https://example.org/webapp" {
		t.Fatalf("web app button = %+v", btn)
	}
	if btn.Data != "" {
		t.Fatal("web app button must not carry callback data")
	}
}

func TestContactRequestIsOneTime(t *testing.T) {
	m := ContactRequest("share")
	if !m.OneTimeKeyboard || !m.ResizeKeyboard {
		t.Fatalf("markup = %+v, want one-time resized keyboard", m)
	}
	if len(m.ReplyKeyboard) != 1 || !m.ReplyKeyboard[0][0].Contact {
		t.Fatalf("reply keyboard = %+v, want single contact button", m.ReplyKeyboard)
	}
}

func TestURLButton(t *testing.T) {
	m := URLButton("join", "https://t.me/+invite")
	if m.InlineKeyboard[0][0].URL != "https://t.me/+invite" {
		t.Fatalf("markup = %+v", m)
	}
}
