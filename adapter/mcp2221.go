// Package adapter drives USB to I2C bridges so that the board can be used from a
// workstation. The only supported bridge is the Microchip MCP2221(A).
package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/colorboard"
	"github.com/mklimuk/colorboard/snsctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

var ErrCommandFailed = errors.New("command failed")
var ErrDeviceNotFound = errors.New("MCP2221 device not found")

// HID report codes
const (
	cmdStatus         = 0x10
	cmdGetData        = 0x40
	cmdWrite          = 0x90
	cmdRead           = 0x91
	cmdReadRepeated   = 0x93
	cmdWriteNoStop    = 0x94
	cancelTransfer    = 0x10
	readEngineFailure = 0x41
	invalidDataSize   = 127
)

const reportSize = 64

// MaxTransfer is the largest payload of a single I2C read or write.
const MaxTransfer = 60

// DefaultResponseWait is how long the adapter is given to answer each report.
const DefaultResponseWait = 50 * time.Millisecond

// TxExchanges is the number of reports a write-then-read transaction takes:
// write without stop, repeated start read and get data.
const TxExchanges = 3

// MinTxTimeout returns the shortest transaction timeout that leaves room for a
// write-then-read with the given response wait.
func MinTxTimeout(wait time.Duration) time.Duration {
	return TxExchanges * wait
}

// Device is an open HID device.
type Device interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	Close() error
}

// OpenFunc opens the HID device of the adapter for a single exchange.
type OpenFunc func() (Device, error)

var _ colorboard.I2CBus = &MCP2221{}

type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
	open         OpenFunc
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

type MCP2221Opts struct {
	ResponseWait time.Duration
	// Index selects one of several connected adapters; negative means the only one.
	Index int
	Open  OpenFunc
}

type MCP2221Opt func(*MCP2221Opts)

func WithResponseWait(wait time.Duration) MCP2221Opt {
	return func(o *MCP2221Opts) {
		o.ResponseWait = wait
	}
}

func WithDeviceIndex(index int) MCP2221Opt {
	return func(o *MCP2221Opts) {
		o.Index = index
	}
}

// WithOpener replaces HID enumeration, e.g. with a simulated adapter.
func WithOpener(open OpenFunc) MCP2221Opt {
	return func(o *MCP2221Opts) {
		o.Open = open
	}
}

func NewMCP2221(opts ...MCP2221Opt) *MCP2221 {
	config := MCP2221Opts{
		ResponseWait: DefaultResponseWait,
		Index:        -1,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Open == nil {
		config.Open = hidOpener(config.Index)
	}
	return &MCP2221{
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: config.ResponseWait,
		open:         config.Open,
	}
}

// Devices lists connected MCP2221 adapters.
func Devices() []hid.DeviceInfo {
	return hid.Enumerate(VendorID, ProductID)
}

func hidOpener(index int) OpenFunc {
	return func() (Device, error) {
		devs := Devices()
		if len(devs) == 0 {
			return nil, ErrDeviceNotFound
		}
		if index < 0 {
			if len(devs) > 1 {
				return nil, fmt.Errorf("ambiguous device identification: %d adapters connected", len(devs))
			}
			index = 0
		}
		if index >= len(devs) {
			return nil, fmt.Errorf("no device with id %d", index)
		}
		dev, err := devs[index].Open()
		if err != nil {
			return nil, fmt.Errorf("error opening device: %w", err)
		}
		return dev, nil
	}
}

// Tx writes w and reads r. When both are present the read follows the write
// with a repeated start.
func (d *MCP2221) Tx(ctx context.Context, address byte, w, r []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	switch {
	case len(w) > 0 && len(r) > 0:
		if err := d.write(ctx, cmdWriteNoStop, address, w); err != nil {
			return err
		}
		return d.read(ctx, cmdReadRepeated, address, r)
	case len(w) > 0:
		return d.write(ctx, cmdWrite, address, w)
	case len(r) > 0:
		return d.read(ctx, cmdRead, address, r)
	}
	return nil
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.write(ctx, cmdWrite, address, buffer)
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.read(ctx, cmdRead, address, buffer)
}

func (d *MCP2221) write(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	if len(buffer) > MaxTransfer {
		return fmt.Errorf("%w: write of %d bytes exceeds %d", colorboard.ErrInvalidArgument, len(buffer), MaxTransfer)
	}
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	err := d.exchange(ctx)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	// write could not be performed
	if d.response[1] != 0x00 {
		snsctx.Logger(ctx).Debug("adapter busy", "command", fmt.Sprintf("%#x", cmd))
		return colorboard.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) read(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	if len(buffer) > MaxTransfer {
		return fmt.Errorf("%w: read of %d bytes exceeds %d", colorboard.ErrInvalidArgument, len(buffer), MaxTransfer)
	}
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.exchange(ctx)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	if d.response[1] != 0x00 {
		return colorboard.ErrBusBusy
	}
	d.resetBuffers()
	d.request[0] = cmdGetData
	err = d.exchange(ctx)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == readEngineFailure {
		return fmt.Errorf("%w: error reading the I2C slave data from the I2C engine", ErrCommandFailed)
	}
	if d.response[3] == invalidDataSize || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:])
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	err := d.exchange(ctx)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9-10:  requested I2C transfer length
		11-12: already transferred number of bytes
		13:    internal I2C data buffer counter
		14:    current I2C communication speed divider value
		15:    current I2C timeout value
		16-17: I2C address being used
		25:    read pending
	*/
	return &MCP2221Status{
		I2CDataBufferCounter:   int(buffer[13]),
		I2CSpeedDivider:        int(buffer[14]),
		I2CTimeout:             int(buffer[15]),
		ReadPending:            int(buffer[25]),
		CurrentAddress:         hex.EncodeToString(buffer[16:18]),
		LastWriteRequestedSize: binary.LittleEndian.Uint16(buffer[9:11]),
		LastWriteSentSize:      binary.LittleEndian.Uint16(buffer[11:13]),
	}
}

// Release cancels any pending transfer and frees the bus.
func (d *MCP2221) Release(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	_, err := d.releaseBus(ctx)
	return err
}

// ReleaseBus is Release returning the adapter status after the cancellation.
func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.releaseBus(ctx)
}

func (d *MCP2221) releaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = cancelTransfer
	err := d.exchange(ctx)
	if err != nil {
		return nil, fmt.Errorf("release request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// exchange sends the request report and reads the response report.
func (d *MCP2221) exchange(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dev, err := d.open()
	if err != nil {
		return err
	}
	log := snsctx.Logger(ctx)
	defer func() {
		if err := dev.Close(); err != nil {
			log.Warn("could not close adapter", "error", err)
		}
	}()
	verbose := snsctx.IsVerbose(ctx)
	if verbose {
		log.Debug("sending message to adapter", "report", "\n"+hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	select {
	case <-time.After(d.responseWait):
	case <-ctx.Done():
		return ctx.Err()
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		log.Debug("read message from adapter", "report", "\n"+hex.Dump(d.response))
	}
	if d.response[0] != d.request[0] {
		return fmt.Errorf("%w: response to %#x instead of %#x", ErrCommandFailed, d.response[0], d.request[0])
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}
