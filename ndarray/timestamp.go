package ndarray

import "time"

const (
	// EpochOffset is the number of seconds between the Unix epoch and the EPICS
	// epoch (1990-01-01T00:00:00Z).
	EpochOffset = 631152000
	// NanosPerSecond converts whole seconds to nanoseconds.
	NanosPerSecond = 1000000000
)

// TimeStamp is an EPICS timestamp: whole seconds since the EPICS epoch and a
// nanosecond remainder.
type TimeStamp struct {
	SecPastEpoch uint32
	Nsec         uint32
}

// Nanoseconds converts the timestamp to nanoseconds since the Unix epoch using
// integer arithmetic only.
func (t TimeStamp) Nanoseconds() uint64 {
	return (uint64(t.SecPastEpoch)+EpochOffset)*NanosPerSecond + uint64(t.Nsec)
}

// Time converts the timestamp to a time.Time.
func (t TimeStamp) Time() time.Time {
	return time.Unix(int64(t.SecPastEpoch)+EpochOffset, int64(t.Nsec))
}

// Seconds returns the timestamp as floating point seconds since the EPICS epoch,
// the representation areaDetector keeps in NDArray.timeStamp.
func (t TimeStamp) Seconds() float64 {
	return float64(t.SecPastEpoch) + float64(t.Nsec)/NanosPerSecond
}

// FromNanoseconds is the inverse of TimeStamp.Nanoseconds. Instants before the
// EPICS epoch have no representation and clamp to the zero TimeStamp.
func FromNanoseconds(ns uint64) TimeStamp {
	if ns < EpochOffset*NanosPerSecond {
		return TimeStamp{}
	}
	return TimeStamp{
		SecPastEpoch: uint32(ns/NanosPerSecond - EpochOffset),
		Nsec:         uint32(ns % NanosPerSecond),
	}
}

// FromTime converts a time.Time to a TimeStamp. Times before the EPICS epoch
// clamp to the zero TimeStamp.
func FromTime(t time.Time) TimeStamp {
	ns := t.UnixNano()
	if ns < 0 {
		return TimeStamp{}
	}
	return FromNanoseconds(uint64(ns))
}

// SecondsFromNanoseconds mirrors how a decoded NDArray.timeStamp is derived from the
// wire timestamp: floating point seconds since the EPICS epoch.
func SecondsFromNanoseconds(ns uint64) float64 {
	return float64(ns)/NanosPerSecond - EpochOffset
}
