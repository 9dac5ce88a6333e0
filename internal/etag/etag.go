// Package etag computes and checks entity fingerprints for optimistic
// concurrency over user records.
package etag

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Fingerprint derives the opaque entity tag for a user record from its
// identity and last modification time. Records with the same id and
// updated_at always produce the same tag; any write bumps updated_at and
// therefore changes the tag.
func Fingerprint(userID int64, updatedAt time.Time) string {
	payload := fmt.Sprintf("%d-%s", userID, updatedAt.UTC().Format(time.RFC3339Nano))
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Normalize strips optional quoting and the weak-validator prefix from a
// client-supplied header value so it can be compared against Fingerprint
// output.
func Normalize(headerValue string) string {
	v := strings.TrimSpace(headerValue)
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, `"`)
}

// Matches reports whether a client-supplied header value identifies the
// current fingerprint.
func Matches(headerValue, current string) bool {
	return Normalize(headerValue) == current
}
