// Command ndstream streams detector arrays to a broker and reads them back.
//
//	ndstream produce -config ndstream.yaml -rate 10 -count 100
//	ndstream consume -config ndstream.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/RobertWHurst/ndstream/config"
)

const appName = "ndstream"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return errors.New("no command given")
	}

	command, args := args[0], args[1:]
	switch command {
	case "produce":
		return runProduce(args)
	case "consume":
		return runConsume(args)
	case "help", "-h", "-help", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "usage: %s <produce|consume> [flags]\n", appName)
}

// commonFlags are shared by every command.
type commonFlags struct {
	configPath string
	broker     string
	topic      string
	transport  string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "path to a YAML configuration file")
	fs.StringVar(&c.broker, "broker", "", "broker address, overrides the configuration")
	fs.StringVar(&c.topic, "topic", "", "topic, overrides the configuration")
	fs.StringVar(&c.transport, "transport", "", "kafka or nats, overrides the configuration")
}

// load reads the configuration. Flags take precedence over the environment,
// which takes precedence over the file.
func (c *commonFlags) load() (*config.Config, error) {
	cfg, err := config.Read(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if c.broker != "" {
		cfg.Producer.Broker = c.broker
	}
	if c.topic != "" {
		cfg.Producer.Topic = c.topic
	}
	if c.transport != "" {
		cfg.Transport = c.transport
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	zerolog.DurationFieldUnit = time.Millisecond
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(cfg.Level()).
		With().
		Timestamp().
		Str("app", appName).
		Logger()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
