package session

import (
	"strconv"
	"time"
)

// Clock abstracts time retrieval so expiry logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IsExpired reports whether a session recorded at signInTime (epoch
// milliseconds, as stored) with a lifetime of expiresIn seconds has run out
// at now. Missing or malformed values count as expired, so a corrupt store
// can never keep a session alive.
func IsExpired(signInTime, expiresIn string, now time.Time) bool {
	signedInMillis, err := strconv.ParseInt(signInTime, 10, 64)
	if err != nil {
		return true
	}
	lifetimeSeconds, err := strconv.ParseInt(expiresIn, 10, 64)
	if err != nil || lifetimeSeconds <= 0 {
		return true
	}
	elapsed := now.UnixMilli() - signedInMillis
	if elapsed < 0 {
		// A sign-in timestamp in the future means clock skew or a
		// tampered store. Treat it as expired.
		return true
	}
	return elapsed >= lifetimeSeconds*1000
}
