package ndstream

import "time"

// Event is an asynchronous notification from a transport handle. It is one of
// ErrorEvent, StatsEvent, LogEvent, ThrottleEvent or DeliveryEvent.
type Event interface {
	isEvent()
}

// EventHandler receives the events of a handle.
type EventHandler func(Event)

// ErrorEvent reports a client or broker level error.
type ErrorEvent struct {
	Code           int
	AllBrokersDown bool
	Reason         string
}

// StatsEvent carries a statistics report in librdkafka's JSON layout.
type StatsEvent struct {
	JSON string
}

// LogEvent is a log line emitted by the client library.
type LogEvent struct {
	Level    int
	Facility string
	Message  string
}

// ThrottleEvent reports broker side throttling.
type ThrottleEvent struct {
	Broker   string
	Duration time.Duration
}

// DeliveryEvent reports the outcome of a single publish.
type DeliveryEvent struct {
	Topic string
	Err   error
}

func (ErrorEvent) isEvent()    {}
func (StatsEvent) isEvent()    {}
func (LogEvent) isEvent()      {}
func (ThrottleEvent) isEvent() {}
func (DeliveryEvent) isEvent() {}

func (e ErrorEvent) Error() string {
	return e.Reason
}
