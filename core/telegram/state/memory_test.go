package state

import "testing"

func TestMemoryManagerStateLifecycle(t *testing.T) {
	m := NewMemoryManager()

	if got := m.GetState(42); got != StateIdle {
		t.Fatalf("fresh user state = %q, want idle", got)
	}
	if m.HasState(42) {
		t.Fatal("fresh user should not have an active state")
	}

	m.SetState(42, State("awaiting_name"))
	if got := m.GetState(42); got != State("awaiting_name") {
		t.Fatalf("state = %q, want awaiting_name", got)
	}
	if !m.HasState(42) {
		t.Fatal("user should have an active state")
	}

	m.ClearState(42)
	if got := m.GetState(42); got != StateIdle {
		t.Fatalf("state after clear = %q, want idle", got)
	}
}

func TestMemoryManagerTempData(t *testing.T) {
	m := NewMemoryManager()

	m.SetTemp(7, "prompt_msg", int64(1001))
	v, ok := m.GetTempInt64(7, "prompt_msg")
	if !ok || v != 1001 {
		t.Fatalf("GetTempInt64 = (%d, %v), want (1001, true)", v, ok)
	}

	if _, ok := m.GetTemp(7, "missing"); ok {
		t.Fatal("missing key should not be found")
	}

	m.ClearTemp(7, "prompt_msg")
	if _, ok := m.GetTemp(7, "prompt_msg"); ok {
		t.Fatal("cleared key should not be found")
	}

	m.SetState(7, State("search"))
	m.SetTemp(7, "k", "v")
	m.Clear(7)
	if m.HasState(7) {
		t.Fatal("Clear must drop the whole session")
	}
	if _, ok := m.GetTemp(7, "k"); ok {
		t.Fatal("Clear must drop temp data")
	}
}

func TestMemoryManagerClearStateKeepsTemp(t *testing.T) {
	m := NewMemoryManager()

	m.SetState(9, State("awaiting_code"))
	m.SetTemp(9, "lang", "ru")
	m.ClearState(9)

	if v, ok := m.GetTemp(9, "lang"); !ok || v != "ru" {
		t.Fatalf("temp data lost on ClearState: (%v, %v)", v, ok)
	}
}
