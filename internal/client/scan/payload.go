package scan

import (
	"encoding/json"
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidPayload is returned for a QR payload that names no session.
var ErrInvalidPayload = errors.New("QR code does not contain an attendance session")

var (
	sessionParams = []string{"session_id", "sessionId", "session"}
	bareID        = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)
)

// ParsePayload extracts the session id from a scanned payload. Accepted
// forms: a URL carrying session_id, sessionId or session in its query, a
// JSON object with session_id or sessionId, or a bare id.
func ParsePayload(payload string) (string, error) {
	p := strings.TrimSpace(payload)
	if p == "" {
		return "", ErrInvalidPayload
	}

	if strings.HasPrefix(p, "{") {
		var obj struct {
			SessionID    string `json:"session_id"`
			SessionIDAlt string `json:"sessionId"`
		}
		if err := json.Unmarshal([]byte(p), &obj); err != nil {
			return "", ErrInvalidPayload
		}
		return checkID(firstNonEmpty(obj.SessionID, obj.SessionIDAlt))
	}

	if u, err := url.Parse(p); err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "") {
		q := u.Query()
		for _, name := range sessionParams {
			if v := q.Get(name); v != "" {
				return checkID(v)
			}
		}
		return "", ErrInvalidPayload
	}

	return checkID(p)
}

func checkID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if !bareID.MatchString(id) {
		return "", ErrInvalidPayload
	}
	return id, nil
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
