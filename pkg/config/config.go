// Package config holds the configuration of the colorboard command line tool and
// the build information injected at link time.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/colorboard"
	"github.com/mklimuk/colorboard/adapter"
	"github.com/mklimuk/colorboard/board"
	"github.com/mklimuk/colorboard/protocol"
)

// Set with -ldflags -X by the build tool.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func BuildInfo() string {
	return fmt.Sprintf("%s-%s-%s", Version, Date, Commit)
}

// Supported bus adapters
const (
	AdapterMCP2221  = "mcp2221"
	AdapterGeneric  = "generic"
	AdapterNanoPi   = "nanopi"
	AdapterEmulator = "emulator"
)

var adapters = []string{AdapterMCP2221, AdapterGeneric, AdapterNanoPi, AdapterEmulator}

const defaultTimeout = 100 * time.Millisecond

type Config struct {
	// Adapter selects how the I2C bus is reached.
	Adapter string `yaml:"adapter"`
	// Device is the periph.io bus name for the generic adapter, e.g. /dev/i2c-1.
	Device string `yaml:"device"`
	// BusSpeed is the clock of the generic adapter bus in Hz; zero keeps the current one.
	BusSpeed int `yaml:"bus_speed"`
	// Bus is the bus number for the nanopi adapter.
	Bus     int   `yaml:"bus"`
	Address uint8 `yaml:"address"`
	// Timeout bounds a single bus transaction. Zero picks one that fits the adapter.
	Timeout  time.Duration     `yaml:"timeout"`
	Sampling string            `yaml:"sampling"`
	Interval time.Duration     `yaml:"interval"`
	Board    colorboard.Config `yaml:"board"`
	MQTT     MQTT              `yaml:"mqtt"`
}

type MQTT struct {
	URL      string        `yaml:"url"`
	QoS      byte          `yaml:"qos"`
	Retain   bool          `yaml:"retain"`
	Interval time.Duration `yaml:"interval"`
}

func Defaults() Config {
	return Config{
		Adapter:  AdapterMCP2221,
		Device:   "",
		Bus:      0,
		Address:  colorboard.Address,
		Sampling: board.SamplingOnDemand.String(),
		Interval: time.Millisecond,
		MQTT: MQTT{
			Interval: 100 * time.Millisecond,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path gives the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("could not open config file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a YAML document over the defaults and validates the result.
func Read(r io.Reader) (Config, error) {
	cfg := Defaults()
	err := yaml.NewDecoder(r).Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("could not decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	known := false
	for _, a := range adapters {
		if c.Adapter == a {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("%w: unknown adapter %q (one of %v)", colorboard.ErrInvalidArgument, c.Adapter, adapters)
	}
	if c.Address > 0x7F {
		return fmt.Errorf("%w: address %#x is not a 7-bit address", colorboard.ErrInvalidArgument, c.Address)
	}
	if c.BusSpeed < 0 {
		return fmt.Errorf("%w: negative bus speed", colorboard.ErrInvalidArgument)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout", colorboard.ErrInvalidArgument)
	}
	if c.Adapter == AdapterMCP2221 && c.Timeout > 0 && c.Timeout < adapter.MinTxTimeout(adapter.DefaultResponseWait) {
		return fmt.Errorf("%w: timeout %s is too short for the %s adapter (at least %s)",
			colorboard.ErrInvalidArgument, c.Timeout, c.Adapter, adapter.MinTxTimeout(adapter.DefaultResponseWait))
	}
	if _, err := board.ParseSampling(c.Sampling); err != nil {
		return err
	}
	if c.Interval < 0 {
		return fmt.Errorf("%w: negative sampling interval", colorboard.ErrInvalidArgument)
	}
	if c.MQTT.Interval <= 0 {
		return fmt.Errorf("%w: mqtt interval must be positive", colorboard.ErrInvalidArgument)
	}
	if c.Board.Gain != 0 {
		if _, err := protocol.GainCode(c.Board.Gain); err != nil {
			return err
		}
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("%w: qos %d", colorboard.ErrInvalidArgument, c.MQTT.QoS)
	}
	return nil
}

// TxTimeout returns the bus transaction timeout, derived from the adapter unless set.
func (c Config) TxTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	if c.Adapter == AdapterMCP2221 {
		return adapter.MinTxTimeout(adapter.DefaultResponseWait) + adapter.DefaultResponseWait
	}
	return defaultTimeout
}

// BoardOpts translates the configuration into board options.
func (c Config) BoardOpts() []board.Opt {
	sampling, _ := board.ParseSampling(c.Sampling)
	opts := []board.Opt{
		board.WithAddress(c.Address),
		board.WithTimeout(c.TxTimeout()),
		board.WithSampling(sampling),
		board.WithInterval(c.Interval),
	}
	if c.Board != (colorboard.Config{}) {
		opts = append(opts, board.WithConfig(c.Board))
	}
	return opts
}

// Write encodes the configuration as YAML.
func (c Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("could not encode config: %w", err)
	}
	return enc.Close()
}
