package webapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strings"
)

// ErrBadSignature covers every way init data can fail verification. Callers
// must not distinguish parse errors from signature mismatches.
var ErrBadSignature = errors.New("webapp: bad init data signature")

// VerifyInitData authenticates a Telegram WebApp init data payload against
// the bot token and returns the embedded user id.
//
// The check string is every key=value pair except hash, sorted by key and
// joined with newlines; the HMAC key is SHA-256 of the bot token.
func VerifyInitData(raw, botToken string) (int64, error) {
	if raw == "" || botToken == "" {
		return 0, ErrBadSignature
	}

	values, err := url.ParseQuery(raw)
	if err != nil {
		return 0, ErrBadSignature
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return 0, ErrBadSignature
	}
	values.Del("hash")

	pairs := make([]string, 0, len(values))
	for key, vals := range values {
		for _, v := range vals {
			pairs = append(pairs, key+"="+v)
		}
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(checkString))
	want := mac.Sum(nil)

	got, err := hex.DecodeString(gotHash)
	if err != nil {
		return 0, ErrBadSignature
	}
	if !hmac.Equal(got, want) {
		return 0, ErrBadSignature
	}

	var user struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil {
		return 0, ErrBadSignature
	}
	if user.ID == 0 {
		return 0, ErrBadSignature
	}
	return user.ID, nil
}

// SignInitData produces a signed init data payload. Exported for tests and
// local tooling; production payloads come from Telegram clients.
func SignInitData(values url.Values, botToken string) string {
	values.Del("hash")
	pairs := make([]string, 0, len(values))
	for key, vals := range values {
		for _, v := range vals {
			pairs = append(pairs, key+"="+v)
		}
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(checkString))
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}
