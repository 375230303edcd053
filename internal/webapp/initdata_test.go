package webapp

import (
	"errors"
	"net/url"
	"strings"
	"testing"
)

const testToken = "12345:TEST_TOKEN"

func signedPayload(t *testing.T, userJSON string) string {
	t.Helper()
	v := url.Values{}
	v.Set("user", userJSON)
	v.Set("auth_date", "1717243200")
	v.Set("query_id", "AAF3YQAA")
	return SignInitData(v, testToken)
}

func TestVerifyInitDataAccepted(t *testing.T) {
	raw := signedPayload(t, `{"id":777000,"first_name":"Test"}`)
	uid, err := VerifyInitData(raw, testToken)
	if err != nil {
		t.Fatalf("VerifyInitData: %v", err)
	}
	if uid != 777000 {
		t.Fatalf("uid = %d, want 777000", uid)
	}
}

func TestVerifyInitDataParameterOrderIrrelevant(t *testing.T) {
	raw := signedPayload(t, `{"id":42}`)
	// Reverse the parameter order on the wire.
	parts := strings.Split(raw, "&")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	uid, err := VerifyInitData(strings.Join(parts, "&"), testToken)
	if err != nil {
		t.Fatalf("VerifyInitData: %v", err)
	}
	if uid != 42 {
		t.Fatalf("uid = %d, want 42", uid)
	}
}

func TestVerifyInitDataTamperedPayload(t *testing.T) {
	raw := signedPayload(t, `{"id":42}`)
	tampered := strings.Replace(raw, "auth_date=1717243200", "auth_date=1717243201", 1)
	if tampered == raw {
		t.Fatal("tampering did not change the payload")
	}
	if _, err := VerifyInitData(tampered, testToken); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("err = %v, want ErrBadSignature", err)
	}
}

func TestVerifyInitDataWrongToken(t *testing.T) {
	raw := signedPayload(t, `{"id":42}`)
	if _, err := VerifyInitData(raw, "99999:OTHER_TOKEN"); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("err = %v, want ErrBadSignature", err)
	}
}

func TestVerifyInitDataGarbageInputs(t *testing.T) {
	for _, raw := range []string{
		"",
		"hash=deadbeef",
		"user=%zz&hash=deadbeef",
		"a=b",
	} {
		if _, err := VerifyInitData(raw, testToken); !errors.Is(err, ErrBadSignature) {
			t.Errorf("VerifyInitData(%q) = %v, want ErrBadSignature", raw, err)
		}
	}
}

func TestVerifyInitDataMissingUserID(t *testing.T) {
	raw := signedPayload(t, `{"first_name":"NoID"}`)
	if _, err := VerifyInitData(raw, testToken); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("err = %v, want ErrBadSignature", err)
	}
}

func TestVerifyInitDataNonHexHash(t *testing.T) {
	raw := signedPayload(t, `{"id":42}`)
	v, _ := url.ParseQuery(raw)
	v.Set("hash", "not-hex")
	if _, err := VerifyInitData(v.Encode(), testToken); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("err = %v, want ErrBadSignature", err)
	}
}
