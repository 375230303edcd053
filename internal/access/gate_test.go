package access

import (
	"context"
	"errors"
	"testing"
)

type staticMembers struct {
	member bool
	err    error
}

func (s *staticMembers) IsMember(context.Context, int64) (bool, error) {
	return s.member, s.err
}

func fullChain(members MembershipChecker, revoke func(context.Context, int64) error) *Gate {
	return NewGate(
		&AdminCheck{IDs: []int64{99}},
		&GroupCheck{},
		&PhoneCheck{},
		&ChannelCheck{Members: members, Revoke: revoke},
		&CodeCheck{FormURL: "https://example.org/webapp"},
	)
}

func TestGateAdminBypassesEverything(t *testing.T) {
	g := fullChain(&staticMembers{member: false}, nil)
	dec, err := g.Evaluate(context.Background(), Request{UserID: 99, IsGroup: true})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if dec.Verdict != Allow {
		t.Fatalf("verdict = %v, want Allow", dec.Verdict)
	}
}

func TestGateGroupDeniedSilently(t *testing.T) {
	g := fullChain(&staticMembers{member: true}, nil)
	dec, err := g.Evaluate(context.Background(), Request{UserID: 1, IsGroup: true})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if dec.Verdict != Deny || dec.Action != ActionNone {
		t.Fatalf("decision = %+v, want silent Deny", dec)
	}
}

func TestGatePhoneChallengeComesFirst(t *testing.T) {
	g := fullChain(&staticMembers{member: false}, nil)
	dec, err := g.Evaluate(context.Background(), Request{UserID: 1})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if dec.Verdict != Challenge || dec.Action != ActionRequestPhone {
		t.Fatalf("decision = %+v, want phone challenge", dec)
	}
}

func TestGateMembershipFailureRevokesVerified(t *testing.T) {
	revoked := false
	revoke := func(context.Context, int64) error {
		revoked = true
		return nil
	}
	g := fullChain(&staticMembers{err: errors.New("api timeout")}, revoke)

	dec, err := g.Evaluate(context.Background(), Request{UserID: 1, PhoneOK: true, Verified: true})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if dec.Verdict != Challenge || dec.Action != ActionJoinChannel {
		t.Fatalf("decision = %+v, want join-channel challenge", dec)
	}
	if !revoked {
		t.Fatal("verified flag not revoked on lookup failure")
	}
}

func TestGateCodeChallengeForUnverified(t *testing.T) {
	g := fullChain(&staticMembers{member: true}, nil)
	dec, err := g.Evaluate(context.Background(), Request{UserID: 1, PhoneOK: true})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if dec.Verdict != Challenge || dec.Action != ActionSubmitCode {
		t.Fatalf("decision = %+v, want code challenge", dec)
	}
}

func TestGateAllChecksPassAllows(t *testing.T) {
	g := fullChain(&staticMembers{member: true}, nil)
	dec, err := g.Evaluate(context.Background(), Request{UserID: 1, PhoneOK: true, Verified: true})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if dec.Verdict != Allow {
		t.Fatalf("verdict = %v, want Allow", dec.Verdict)
	}
}

func TestGateCodeCheckUnconfigured(t *testing.T) {
	g := NewGate(&CodeCheck{})
	dec, err := g.Evaluate(context.Background(), Request{UserID: 1})
	if !errors.Is(err, ErrUnconfigured) {
		t.Fatalf("err = %v, want ErrUnconfigured", err)
	}
	if dec.Verdict != Challenge {
		t.Fatalf("verdict = %v, want Challenge", dec.Verdict)
	}
}
