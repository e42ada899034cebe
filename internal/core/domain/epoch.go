package domain

import (
	"math"
	"time"
)

// Browser history stores timestamps relative to non-Unix epochs.
const (
	// webKitEpochOffset is the number of seconds from 1601-01-01 to 1970-01-01.
	webKitEpochOffset int64 = 11644473600

	// cocoaEpochOffset is the number of seconds from 1970-01-01 to 2001-01-01.
	cocoaEpochOffset int64 = 978307200
)

// FromWebKitMicros converts microseconds since 1601-01-01 UTC (Chrome) to a time.
func FromWebKitMicros(us int64) time.Time {
	return time.UnixMicro(us - webKitEpochOffset*1_000_000).UTC()
}

// ToWebKitMicros converts t to microseconds since 1601-01-01 UTC.
func ToWebKitMicros(t time.Time) int64 {
	return t.UnixMicro() + webKitEpochOffset*1_000_000
}

// FromCocoaSeconds converts fractional seconds since 2001-01-01 UTC (Safari) to a time.
func FromCocoaSeconds(s float64) time.Time {
	whole, frac := math.Modf(s)
	return time.Unix(int64(whole)+cocoaEpochOffset, int64(math.Round(frac*1e9))).UTC()
}

// ToCocoaSeconds converts t to fractional seconds since 2001-01-01 UTC.
func ToCocoaSeconds(t time.Time) float64 {
	secs := t.Unix() - cocoaEpochOffset
	return float64(secs) + float64(t.Nanosecond())/1e9
}
