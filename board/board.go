// Package board implements the driver of the five-sensor color board.
//
// Typical usage:
//
//	b := board.New(bus, board.WithSampling(board.SamplingBackground))
//	if err := b.Start(ctx); err != nil { ... }
//	defer b.Close()
//	_ = b.WaitReady(ctx)
//	snap, err := b.Colors(ctx)
//
// Configuration commands and pin reads always go to the bus synchronously,
// whichever sampling mode is selected.
package board

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mklimuk/colorboard"
	"github.com/mklimuk/colorboard/protocol"
)

// Sampling selects how color readings are obtained.
type Sampling int

const (
	// SamplingOnDemand reads the bus on every color request.
	SamplingOnDemand Sampling = iota
	// SamplingBackground polls all sensors continuously and serves reads from the latest snapshot.
	SamplingBackground
)

func (s Sampling) String() string {
	switch s {
	case SamplingBackground:
		return "background"
	default:
		return "on-demand"
	}
}

func ParseSampling(name string) (Sampling, error) {
	switch name {
	case "background", "bg", "sampled":
		return SamplingBackground, nil
	case "on-demand", "ondemand", "direct", "":
		return SamplingOnDemand, nil
	}
	return 0, fmt.Errorf("%w: unknown sampling mode %q", colorboard.ErrInvalidArgument, name)
}

type Opts struct {
	Address  byte
	Timeout  time.Duration
	Sampling Sampling
	Interval time.Duration
	Config   *colorboard.Config
	Logger   *slog.Logger
}

type Opt func(*Opts)

func WithAddress(address byte) Opt {
	return func(o *Opts) {
		o.Address = address
	}
}

// WithTimeout bounds every bus transaction.
func WithTimeout(timeout time.Duration) Opt {
	return func(o *Opts) {
		o.Timeout = timeout
	}
}

func WithSampling(mode Sampling) Opt {
	return func(o *Opts) {
		o.Sampling = mode
	}
}

// WithInterval sets the pause between background sampling cycles.
func WithInterval(interval time.Duration) Opt {
	return func(o *Opts) {
		o.Interval = interval
	}
}

// WithConfig makes Start send cfg to the device before sampling begins.
func WithConfig(cfg colorboard.Config) Opt {
	return func(o *Opts) {
		o.Config = &cfg
	}
}

func WithLogger(logger *slog.Logger) Opt {
	return func(o *Opts) {
		o.Logger = logger
	}
}

// Board is the color board driver. It owns the bus: nothing else may issue
// transactions on it while the board is in use.
type Board struct {
	tx      *transport
	source  ColorSource
	sampler *Sampler
	initial *colorboard.Config
	log     *slog.Logger

	mx   sync.Mutex
	last colorboard.Config
	sent bool
}

func New(bus colorboard.Transactor, opts ...Opt) *Board {
	config := Opts{
		Address:  colorboard.Address,
		Timeout:  100 * time.Millisecond,
		Sampling: SamplingOnDemand,
		Interval: time.Millisecond,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	b := &Board{
		tx:      newTransport(bus, config.Address, config.Timeout),
		initial: config.Config,
		log:     config.Logger.With("device", "colorboard", "addr", fmt.Sprintf("%#x", config.Address)),
	}
	switch config.Sampling {
	case SamplingBackground:
		b.sampler = newSampler(b.tx, config.Interval, b.log)
		b.source = b.sampler
	default:
		b.source = &Direct{tx: b.tx}
	}
	return b
}

// Start applies the initial configuration, if any, and starts background sampling
// when it was selected.
func (b *Board) Start(ctx context.Context) error {
	if b.initial != nil {
		if err := b.Configure(ctx, *b.initial); err != nil {
			return fmt.Errorf("could not apply initial configuration: %w", err)
		}
	}
	if b.sampler != nil {
		return b.sampler.Start(ctx)
	}
	return nil
}

// Close stops background sampling. It is safe to call more than once.
func (b *Board) Close() error {
	if b.sampler != nil {
		b.sampler.Stop()
	}
	return nil
}

// Source returns the color source selected at construction.
func (b *Board) Source() ColorSource {
	return b.source
}

// Sampler returns the background sampler or nil in on-demand mode.
func (b *Board) Sampler() *Sampler {
	return b.sampler
}

// WaitReady blocks until colors can be served. It returns at once in on-demand mode.
func (b *Board) WaitReady(ctx context.Context) error {
	if b.sampler == nil {
		return nil
	}
	return b.sampler.WaitReady(ctx)
}

// DeviceID reads the type of the fitted color sensors.
func (b *Board) DeviceID(ctx context.Context) (colorboard.DeviceID, error) {
	resp, err := b.tx.exec(ctx, "read device id", protocol.DeviceID())
	if err != nil {
		return 0, err
	}
	id, err := protocol.DecodeDeviceID(resp)
	return id, b.tx.decodeErr("read device id", err)
}

// SetBrightness sets the LEDs of the three center sensors and of the two outer ones.
// Values outside 0-255 are clamped.
func (b *Board) SetBrightness(ctx context.Context, center, sides int) error {
	cmd := protocol.Brightness(center, sides)
	if _, err := b.tx.exec(ctx, "set brightness", cmd); err != nil {
		return err
	}
	b.remember(func(c *colorboard.Config) {
		c.CenterBrightness, c.SideBrightness = int(cmd.Write[1]), int(cmd.Write[2])
	})
	b.log.Debug("brightness set", "center", cmd.Write[1], "sides", cmd.Write[2])
	return nil
}

// SetGain sets the gain of all sensors. Only 1, 4, 16 and 60 are accepted;
// any other value returns ErrUnsupportedGain without touching the bus.
func (b *Board) SetGain(ctx context.Context, gain int) error {
	cmd, err := protocol.Gain(gain)
	if err != nil {
		return err
	}
	if _, err := b.tx.exec(ctx, "set gain", cmd); err != nil {
		return err
	}
	b.remember(func(c *colorboard.Config) { c.Gain = gain })
	b.log.Debug("gain set", "gain", gain)
	return nil
}

// SetTiming sets the number of integration cycles per sample. Fewer cycles give
// faster but lower readings.
func (b *Board) SetTiming(ctx context.Context, cycles int) error {
	if _, err := b.tx.exec(ctx, "set timing", protocol.Timing(cycles)); err != nil {
		return err
	}
	cycles = protocol.TimingCycles(cycles)
	b.remember(func(c *colorboard.Config) { c.TimingCycles = cycles })
	b.log.Debug("timing set", "cycles", cycles)
	return nil
}

// Configure sends brightness and, when non-zero, gain and timing.
// An unsupported gain is rejected before anything is written.
func (b *Board) Configure(ctx context.Context, cfg colorboard.Config) error {
	if cfg.Gain != 0 {
		if _, err := protocol.GainCode(cfg.Gain); err != nil {
			return err
		}
	}
	if err := b.SetBrightness(ctx, cfg.CenterBrightness, cfg.SideBrightness); err != nil {
		return err
	}
	if cfg.Gain != 0 {
		if err := b.SetGain(ctx, cfg.Gain); err != nil {
			return err
		}
	}
	if cfg.TimingCycles != 0 {
		return b.SetTiming(ctx, cfg.TimingCycles)
	}
	return nil
}

// LastConfig returns the configuration last sent to the device. The second value
// is false when nothing was sent yet.
func (b *Board) LastConfig() (colorboard.Config, bool) {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.last, b.sent
}

func (b *Board) remember(update func(*colorboard.Config)) {
	b.mx.Lock()
	defer b.mx.Unlock()
	update(&b.last)
	b.sent = true
}

// Colors returns readings of all five sensors.
func (b *Board) Colors(ctx context.Context) (colorboard.Snapshot, error) {
	return b.source.Colors(ctx)
}

// Channel returns one channel of all five sensors.
func (b *Board) Channel(ctx context.Context, ch colorboard.Channel) ([colorboard.SensorCount]uint16, error) {
	return b.source.Channel(ctx, ch)
}

// SensorColor returns the reading of a single sensor (0-4).
func (b *Board) SensorColor(ctx context.Context, sensor int) (colorboard.Color, error) {
	return b.source.Sensor(ctx, sensor)
}

// AnalogPins reads the two ADC inputs of the pin header.
func (b *Board) AnalogPins(ctx context.Context) (colorboard.AnalogPins, error) {
	resp, err := b.tx.exec(ctx, "read analog pins", protocol.AnalogPins())
	if err != nil {
		return colorboard.AnalogPins{}, err
	}
	pins, err := protocol.DecodeAnalogPins(resp)
	return pins, b.tx.decodeErr("read analog pins", err)
}

// DigitalPins reads the two digital inputs of the pin header.
func (b *Board) DigitalPins(ctx context.Context) (colorboard.DigitalPins, error) {
	resp, err := b.tx.exec(ctx, "read digital pins", protocol.DigitalPins())
	if err != nil {
		return colorboard.DigitalPins{}, err
	}
	pins, err := protocol.DecodeDigitalPins(resp)
	return pins, b.tx.decodeErr("read digital pins", err)
}
