package etag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_Deterministic(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 589793238, time.UTC)
	a := Fingerprint(42, at)
	b := Fingerprint(42, at)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64, "sha256 hex digest")
}

func TestFingerprint_ChangesWithUpdatedAt(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	a := Fingerprint(42, at)
	b := Fingerprint(42, at.Add(time.Nanosecond))
	assert.NotEqual(t, a, b)
}

func TestFingerprint_ChangesWithUserID(t *testing.T) {
	at := time.Now().UTC()
	assert.NotEqual(t, Fingerprint(1, at), Fingerprint(2, at))
}

func TestFingerprint_TimezoneInsensitive(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	denver, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	assert.Equal(t, Fingerprint(7, at), Fingerprint(7, at.In(denver)))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"abc123"`, "abc123"},
		{`W/"abc123"`, "abc123"},
		{"abc123", "abc123"},
		{"  abc123  ", "abc123"},
		{`""`, ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestMatches(t *testing.T) {
	at := time.Now().UTC()
	fp := Fingerprint(9, at)

	assert.True(t, Matches(fp, fp))
	assert.True(t, Matches(`"`+fp+`"`, fp))
	assert.True(t, Matches(`W/"`+fp+`"`, fp))
	assert.False(t, Matches("stale", fp))
	assert.False(t, Matches("", fp))
}
