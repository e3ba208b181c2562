package ndstream

import (
	"encoding/json"
	"fmt"
)

// ConnectionStatus is the state of a Producer's broker connection.
type ConnectionStatus int

const (
	StatusConnected ConnectionStatus = iota
	StatusConnecting
	StatusDisconnected
	StatusError
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusConnecting:
		return "connecting"
	case StatusDisconnected:
		return "disconnected"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("ConnectionStatus(%d)", int(s))
	}
}

// Status is what a Producer reports about its connection.
type Status struct {
	State   ConnectionStatus
	Message string
	Unsent  int
}

const (
	msgNoErrors       = "No errors."
	msgNoBrokers      = "Status msg.: No brokers."
	msgUnparsable     = "Status msg.: Unable to parse."
	msgBrokersDown    = "Brokers down. Attempting reconnection."
	msgAllBrokersDown = "Brokers down. Attempting to reconnect."
)

type brokerStats struct {
	State string `json:"state"`
}

type stats struct {
	Brokers json.RawMessage `json:"brokers"`
	MsgCnt  float64         `json:"msg_cnt"`
}

// ParseStats derives a new status from a statistics report. brokers may be an
// object keyed by broker name, as librdkafka emits it, or an array. Text that
// does not parse yields StatusError and keeps the unsent count of current.
func ParseStats(raw string, current Status) Status {
	var s stats
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Status{State: StatusError, Message: msgUnparsable, Unsent: current.Unsent}
	}

	next := Status{Unsent: int(s.MsgCnt)}
	brokers, ok := decodeBrokers(s.Brokers)
	switch {
	case !ok || len(brokers) == 0:
		next.State, next.Message = StatusError, msgNoBrokers
	case anyUp(brokers):
		next.State, next.Message = StatusConnected, msgNoErrors
	default:
		next.State, next.Message = StatusDisconnected, msgBrokersDown
	}
	return next
}

func decodeBrokers(raw json.RawMessage) ([]brokerStats, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, true
	}
	var byName map[string]brokerStats
	if err := json.Unmarshal(raw, &byName); err == nil {
		list := make([]brokerStats, 0, len(byName))
		for _, b := range byName {
			list = append(list, b)
		}
		return list, true
	}
	var list []brokerStats
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, true
	}
	return nil, false
}

func anyUp(brokers []brokerStats) bool {
	for _, b := range brokers {
		if b.State == "UP" {
			return true
		}
	}
	return false
}
