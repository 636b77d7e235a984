package i2c

import (
	"context"
	"fmt"
	"sync"

	"gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/colorboard"
)

var _ colorboard.I2CBus = &GobotBus{}

// GobotBus talks to the board through a gobot I2C connector, e.g. the NanoPi NEO adaptor.
// A gobot generic driver is started lazily for every address in use.
//
// Gobot has no combined write-read, so Tx issues a write followed by a read with
// a stop condition in between; the board firmware tolerates that.
type GobotBus struct {
	mx        sync.Mutex
	connector i2c.Connector
	busNr     int
	drivers   map[byte]*i2c.GenericDriver
}

func NewGobotBus(connector i2c.Connector, busNr int) *GobotBus {
	return &GobotBus{
		connector: connector,
		busNr:     busNr,
		drivers:   make(map[byte]*i2c.GenericDriver),
	}
}

func (b *GobotBus) driver(address byte) (*i2c.GenericDriver, error) {
	if d, ok := b.drivers[address]; ok {
		return d, nil
	}
	d := i2c.NewGenericDriver(b.connector, "colorboard", int(address), func(c i2c.Config) {
		c.SetBus(b.busNr)
	})
	if err := d.Start(); err != nil {
		return nil, fmt.Errorf("start error (addr %#x): %w", address, err)
	}
	b.drivers[address] = d
	return d, nil
}

func (b *GobotBus) Tx(ctx context.Context, address byte, w, r []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	d, err := b.driver(address)
	if err != nil {
		return err
	}
	if len(w) > 0 {
		if err := d.Write(w); err != nil {
			return fmt.Errorf("write error (addr %#x): %w", address, err)
		}
	}
	if len(r) > 0 {
		if err := d.Read(r); err != nil {
			return fmt.Errorf("read error (addr %#x): %w", address, err)
		}
	}
	return nil
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	return b.Tx(ctx, address, nil, buffer)
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return b.Tx(ctx, address, buffer, nil)
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}

// Close halts all started drivers.
func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var firstErr error
	for addr, d := range b.drivers {
		if err := d.Halt(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("halt error (addr %#x): %w", addr, err)
		}
		delete(b.drivers, addr)
	}
	return firstErr
}
