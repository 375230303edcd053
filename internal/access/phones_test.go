package access

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+994 50 123-45-67": "+994501234567",
		"(050) 123 45 67":   "+0501234567",
		"994501234567":      "+994501234567",
		"abc":               "",
		"":                  "",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPhoneListFromStaticAndFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "phones.txt")
	content := "# approved numbers\n+994 50 111 11 11\n\n994502222222\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("write phone file: %v", err)
	}

	p, err := NewPhoneList([]string{"+994503333333"}, file)
	if err != nil {
		t.Fatalf("NewPhoneList: %v", err)
	}

	for _, phone := range []string{"+994501111111", "+994502222222", "994503333333"} {
		if !p.Approved(phone) {
			t.Errorf("phone %q should be approved", phone)
		}
	}
	if p.Approved("+994509999999") {
		t.Error("unlisted phone approved")
	}
	if p.Size() != 3 {
		t.Errorf("Size = %d, want 3", p.Size())
	}
}

func TestPhoneListReloadPicksUpChanges(t *testing.T) {
	file := filepath.Join(t.TempDir(), "phones.txt")
	if err := os.WriteFile(file, []byte("+994501111111\n"), 0o600); err != nil {
		t.Fatalf("write phone file: %v", err)
	}

	p, err := NewPhoneList(nil, file)
	if err != nil {
		t.Fatalf("NewPhoneList: %v", err)
	}
	if p.Approved("+994502222222") {
		t.Fatal("phone approved before reload")
	}

	if err := os.WriteFile(file, []byte("+994501111111\n+994502222222\n"), 0o600); err != nil {
		t.Fatalf("rewrite phone file: %v", err)
	}
	if err := p.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if !p.Approved("+994502222222") {
		t.Fatal("phone not approved after reload")
	}
}

func TestPhoneListEmptyApprovesNobody(t *testing.T) {
	p, err := NewPhoneList(nil, "")
	if err != nil {
		t.Fatalf("NewPhoneList: %v", err)
	}
	if p.Approved("+994501111111") {
		t.Fatal("empty whitelist must approve nobody")
	}
}
