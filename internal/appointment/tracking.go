package appointment

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	trackingPrefix    = "APT"
	trackingSuffixLen = 6
	// Crockford base32 without I, L, O, U so ids survive being read aloud.
	trackingAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
)

// NewTrackingID returns an opaque, shareable appointment reference: a millisecond timestamp in
// base36 followed by random characters. Collisions are improbable, not impossible; the store's
// unique index rejects the rare duplicate.
func NewTrackingID(now time.Time) string {
	random := uuid.New()
	var b strings.Builder
	b.Grow(len(trackingPrefix) + 9 + trackingSuffixLen)
	b.WriteString(trackingPrefix)
	b.WriteString(strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)))
	for i := 0; i < trackingSuffixLen; i++ {
		b.WriteByte(trackingAlphabet[int(random[i])%len(trackingAlphabet)])
	}
	return b.String()
}

// NormalizeTrackingID trims and upper-cases user input.
func NormalizeTrackingID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
