package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Install state carries an optional Taskdeck identity through the OAuth
// redirect. Two forms exist:
//
//	anon_<nonce>          install started outside Taskdeck
//	user_<userID>_<nonce> install started by a signed-in Taskdeck user
//
// Known limitation: the state is generated but never persisted, so the
// callback cannot verify it against the original redirect (CSRF).
const (
	statePrefixAnon = "anon"
	statePrefixUser = "user"
)

// NewInstallState builds a state parameter. taskdeckUserID may be nil for an
// anonymous install.
func NewInstallState(taskdeckUserID *string) (string, error) {
	nonce, err := stateNonce()
	if err != nil {
		return "", err
	}
	if taskdeckUserID == nil || *taskdeckUserID == "" {
		return statePrefixAnon + "_" + nonce, nil
	}
	return statePrefixUser + "_" + *taskdeckUserID + "_" + nonce, nil
}

// DecodeInstallState recovers the optional Taskdeck identity from a callback
// state. Anything that is not a well-formed user state decodes as anonymous.
// The nonce never contains an underscore, so the user ID is everything between
// the prefix and the final separator, underscores included.
func DecodeInstallState(state string) *string {
	rest, found := strings.CutPrefix(state, statePrefixUser+"_")
	if !found {
		return nil
	}
	i := strings.LastIndex(rest, "_")
	if i <= 0 {
		return nil
	}
	userID := rest[:i]
	return &userID
}

func stateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating state nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}
