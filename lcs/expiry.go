package lcs

import (
	"strings"
	"time"
)

// ExpiresAfterKey introduces the optional expiration date inside the body.
// Older licenses may carry a "Valid until:" field, which is not an expiration.
const ExpiresAfterKey = "Expires after:"

const dateLayout = "2006-01-02"

// findExpiresAfter returns the date text following the marker, up to the end
// of its line.
func findExpiresAfter(body string) (string, bool) {
	i := strings.Index(body, ExpiresAfterKey)
	if i < 0 {
		return "", false
	}

	rest := strings.TrimLeft(body[i+len(ExpiresAfterKey):], " ")
	if end := strings.IndexByte(rest, '\n'); end >= 0 {
		rest = rest[:end]
	}

	return strings.TrimSuffix(rest, "\r"), true
}

// CheckExpiration fails with KindExpired when the body carries an expiration
// date earlier than today's calendar date in today's location.
func CheckExpiration(body string, today time.Time) error {
	expiresAfter, ok := findExpiresAfter(body)
	if !ok {
		return nil
	}

	// Both sides are fixed-width, zero-padded YYYY-MM-DD strings, so the
	// lexical order is the chronological one.
	if expiresAfter >= today.Format(dateLayout) {
		return nil
	}

	return &Error{Kind: KindExpired, Detail: "expired since " + expiresAfter, ExpiresAfter: expiresAfter}
}
