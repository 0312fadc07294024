// Package config loads server configuration from the environment and flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds server configuration.
type Config struct {
	GRPCAddr              string        `env:"SUMMITPOKER_GRPC_ADDR" envDefault:":50051"`
	HTTPAddr              string        `env:"SUMMITPOKER_HTTP_ADDR" envDefault:":8000"`
	Port                  string        `env:"PORT"`
	TelemetryDB           string        `env:"SUMMITPOKER_TELEMETRY_DB" envDefault:"./summitpoker-telemetry.db"`
	SweepInterval         time.Duration `env:"SUMMITPOKER_SWEEP_INTERVAL" envDefault:"30m"`
	RoomTTL               time.Duration `env:"SUMMITPOKER_ROOM_TTL" envDefault:"192h"`
	ChatRetention         time.Duration `env:"SUMMITPOKER_CHAT_RETENTION" envDefault:"24h"`
	HeartbeatIntervalSecs int           `env:"HEARTBEAT_INTERVAL_SECS" envDefault:"60"`
	CountdownTick         time.Duration `env:"SUMMITPOKER_COUNTDOWN_TICK" envDefault:"1s"`
	SubscriberBuffer      int           `env:"SUMMITPOKER_SUBSCRIBER_BUFFER" envDefault:"64"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ParseConfig parses environment and flags into Config. Flags win.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	if fs == nil {
		return Config{}, errors.New("flag parser is required")
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "The gRPC listen address")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The HTTP (health, websocket) listen address")
	fs.StringVar(&cfg.TelemetryDB, "telemetry-db", cfg.TelemetryDB, "Path of the sqlite telemetry database; empty disables it")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "Interval between eviction sweeps")
	fs.DurationVar(&cfg.RoomTTL, "room-ttl", cfg.RoomTTL, "Idle time after which a room is evicted")
	fs.DurationVar(&cfg.ChatRetention, "chat-retention", cfg.ChatRetention, "Age after which chat messages are pruned")
	fs.IntVar(&cfg.HeartbeatIntervalSecs, "heartbeat-secs", cfg.HeartbeatIntervalSecs, "Seconds between telemetry samples")
	fs.DurationVar(&cfg.CountdownTick, "countdown-tick", cfg.CountdownTick, "Pause between reveal countdown steps")
	fs.IntVar(&cfg.SubscriberBuffer, "subscriber-buffer", cfg.SubscriberBuffer, "Per-subscriber event queue length")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.SweepInterval <= 0:
		return fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval)
	case c.RoomTTL <= 0:
		return fmt.Errorf("room ttl must be positive, got %s", c.RoomTTL)
	case c.ChatRetention <= 0:
		return fmt.Errorf("chat retention must be positive, got %s", c.ChatRetention)
	case c.HeartbeatIntervalSecs <= 0:
		return fmt.Errorf("heartbeat interval must be positive, got %d", c.HeartbeatIntervalSecs)
	case c.CountdownTick <= 0:
		return fmt.Errorf("countdown tick must be positive, got %s", c.CountdownTick)
	case c.SubscriberBuffer <= 0:
		return fmt.Errorf("subscriber buffer must be positive, got %d", c.SubscriberBuffer)
	}
	return nil
}

func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatIntervalSecs) * time.Second
}

// HTTPListenAddr honours PORT, as set by most hosting platforms.
func (c Config) HTTPListenAddr() string {
	if c.Port != "" {
		return ":" + c.Port
	}
	return c.HTTPAddr
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
