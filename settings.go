package ndstream

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultMessageBufferKbytes = 10240
	DefaultMessageQueueLength  = 10
	DefaultStatsInterval       = 500 * time.Millisecond
	DefaultFlushTimeout        = 500 * time.Millisecond
	DefaultPollInterval        = 50 * time.Millisecond
)

// Settings is the connection configuration of a Producer or Consumer. A zero
// MaxMessageSize means the size has not been set; the first oversized Send
// raises it.
type Settings struct {
	Broker              string        `yaml:"broker"`
	Topic               string        `yaml:"topic"`
	MaxMessageSize      int           `yaml:"maxMessageSize"`
	MessageBufferKbytes int           `yaml:"messageBufferKbytes"`
	MessageQueueLength  int           `yaml:"messageQueueLength"`
	StatsInterval       time.Duration `yaml:"statsInterval"`
	FlushOnReconnect    bool          `yaml:"flushOnReconnect"`
	FlushTimeout        time.Duration `yaml:"flushTimeout"`
	GroupID             string        `yaml:"groupId"`
}

// DefaultSettings returns the settings a Producer starts from.
func DefaultSettings() Settings {
	return Settings{
		MessageBufferKbytes: DefaultMessageBufferKbytes,
		MessageQueueLength:  DefaultMessageQueueLength,
		StatsInterval:       DefaultStatsInterval,
		FlushTimeout:        DefaultFlushTimeout,
	}
}

// Validate reports every out of range field. Broker and Topic may be empty.
func (s Settings) Validate() error {
	var errs []error
	if s.MaxMessageSize < 0 {
		errs = append(errs, fmt.Errorf("max message size %d is negative", s.MaxMessageSize))
	}
	if s.MessageBufferKbytes <= 0 {
		errs = append(errs, fmt.Errorf("message buffer size %d kB must be positive", s.MessageBufferKbytes))
	}
	if s.MessageQueueLength <= 0 {
		errs = append(errs, fmt.Errorf("message queue length %d must be positive", s.MessageQueueLength))
	}
	if s.StatsInterval < time.Millisecond {
		errs = append(errs, fmt.Errorf("stats interval %s must be at least 1ms", s.StatsInterval))
	}
	if s.FlushTimeout < 0 {
		errs = append(errs, fmt.Errorf("flush timeout %s is negative", s.FlushTimeout))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
