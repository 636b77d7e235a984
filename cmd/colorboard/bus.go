package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/colorboard"
	"github.com/mklimuk/colorboard/adapter"
	"github.com/mklimuk/colorboard/board"
	"github.com/mklimuk/colorboard/i2c"
	"github.com/mklimuk/colorboard/pkg/config"
	"github.com/mklimuk/colorboard/protocol"
)

// openBus connects to the I2C bus selected by the configuration. The returned
// function releases it.
func openBus(cfg config.Config) (colorboard.Transactor, func() error, error) {
	switch cfg.Adapter {
	case config.AdapterMCP2221:
		return adapter.NewMCP2221(), func() error { return nil }, nil
	case config.AdapterGeneric:
		bus, err := i2c.NewGenericBus(cfg.Device)
		if err != nil {
			return nil, nil, err
		}
		if cfg.BusSpeed > 0 {
			if err := bus.SetSpeed(physic.Frequency(cfg.BusSpeed) * physic.Hertz); err != nil {
				_ = bus.Close()
				return nil, nil, err
			}
		}
		return bus, bus.Close, nil
	case config.AdapterNanoPi:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		bus := i2c.NewGobotBus(npi, cfg.Bus)
		return bus, func() error {
			err := bus.Close()
			if ferr := npi.I2cBusAdaptor.Finalize(); ferr != nil && err == nil {
				err = ferr
			}
			return err
		}, nil
	case config.AdapterEmulator:
		return demoEmulator(), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown adapter %q", colorboard.ErrInvalidArgument, cfg.Adapter)
}

// demoEmulator returns an emulated board whose readings slowly change so that
// watch and publish have something to show.
func demoEmulator() *protocol.Emulator {
	emu := protocol.NewEmulator()
	var reads atomic.Uint64
	emu.SetSampleFunc(func(sensor int) colorboard.Color {
		phase := float64(reads.Add(1))/500 + float64(sensor)
		wave := func(shift float64) uint16 {
			return uint16(30000 + 30000*math.Sin(phase+shift))
		}
		return colorboard.Color{Red: wave(0), Green: wave(2), Blue: wave(4), Clear: 60000}
	})
	emu.SetAnalog(colorboard.AnalogPins{128, 64})
	return emu
}

// openBoard opens the bus, creates the board and starts it. The returned
// function stops the board and releases the bus.
func openBoard(ctx context.Context, cfg config.Config) (*board.Board, func(), error) {
	bus, closeBus, err := openBus(cfg)
	if err != nil {
		return nil, nil, err
	}
	opts := append(cfg.BoardOpts(), board.WithLogger(slog.Default()))
	b := board.New(bus, opts...)
	cleanup := func() {
		_ = b.Close()
		if err := closeBus(); err != nil {
			slog.Warn("could not close bus", "error", err)
		}
	}
	if err := b.Start(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	slog.Debug("board started", "adapter", cfg.Adapter, "sampling", cfg.Sampling)
	return b, cleanup, nil
}
