package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// replayWindow is how far a request timestamp may drift from now before the
// request is rejected as a possible replay.
const replayWindow = 5 * time.Minute

// ErrNoSigningSecret is returned when a Verifier is constructed without a secret.
var ErrNoSigningSecret = errors.New("signing secret is not configured")

// Verifier authenticates inbound requests against Slack's v0 signing scheme.
// It must be fed the exact raw body bytes as received on the wire, before any
// parsing middleware touches them.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(signingSecret string) (*Verifier, error) {
	if signingSecret == "" {
		return nil, ErrNoSigningSecret
	}
	return &Verifier{secret: []byte(signingSecret), now: time.Now}, nil
}

// Verify reports whether signature matches HMAC-SHA256 over
// "v0:<timestamp>:<rawBody>" and the timestamp is within the replay window.
// An invalid signature is a plain false, never an error.
func (v *Verifier) Verify(rawBody []byte, signature, timestamp string) bool {
	if signature == "" || timestamp == "" {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}

	drift := v.now().Unix() - ts
	if drift < 0 {
		drift = -drift
	}
	if drift > int64(replayWindow.Seconds()) {
		return false
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "v0:%s:", timestamp)
	mac.Write(rawBody)
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	// Constant-time compare; a plain == would leak timing information.
	return hmac.Equal([]byte(expected), []byte(signature))
}
