package protocol

import (
	"context"
	"fmt"
	"sync"

	"github.com/mklimuk/colorboard"
)

var _ colorboard.I2CBus = &Emulator{}

// ErrNoAck is returned by the Emulator for transactions addressed to another device.
var ErrNoAck = fmt.Errorf("no acknowledge from device")

// Emulator answers bus transactions the way the board firmware does. It can stand in
// for real hardware in tests and in the CLI.
//
//	emu := protocol.NewEmulator()
//	emu.SetSensor(0, colorboard.Color{Red: 100})
//	b := board.New(emu)
type Emulator struct {
	mx sync.Mutex

	address  byte
	id       colorboard.DeviceID
	sensors  [colorboard.SensorCount]colorboard.Color
	analog   colorboard.AnalogPins
	digital  byte
	pending  byte
	sampleFn func(sensor int) colorboard.Color

	// device state as last written
	center, sides byte
	gainCode      byte
	timing        byte
}

func NewEmulator() *Emulator {
	return &Emulator{
		address: colorboard.Address,
		id:      colorboard.DeviceTCS34725,
		timing:  0xFF,
	}
}

func (e *Emulator) SetDeviceID(id colorboard.DeviceID) {
	e.mx.Lock()
	defer e.mx.Unlock()
	e.id = id
}

func (e *Emulator) SetSensor(sensor int, c colorboard.Color) {
	e.mx.Lock()
	defer e.mx.Unlock()
	e.sensors[sensor] = c
}

// SetSampleFunc makes every color read ask fn for the current value of a sensor.
func (e *Emulator) SetSampleFunc(fn func(sensor int) colorboard.Color) {
	e.mx.Lock()
	defer e.mx.Unlock()
	e.sampleFn = fn
}

func (e *Emulator) SetAnalog(pins colorboard.AnalogPins) {
	e.mx.Lock()
	defer e.mx.Unlock()
	e.analog = pins
}

// SetDigitalRaw sets the raw pin register byte.
func (e *Emulator) SetDigitalRaw(v byte) {
	e.mx.Lock()
	defer e.mx.Unlock()
	e.digital = v
}

// Brightness returns the last brightness written to the device.
func (e *Emulator) Brightness() (center, sides byte) {
	e.mx.Lock()
	defer e.mx.Unlock()
	return e.center, e.sides
}

func (e *Emulator) GainCode() byte {
	e.mx.Lock()
	defer e.mx.Unlock()
	return e.gainCode
}

// TimingRegister returns the raw timing register (256-cycles).
func (e *Emulator) TimingRegister() byte {
	e.mx.Lock()
	defer e.mx.Unlock()
	return e.timing
}

func (e *Emulator) Tx(ctx context.Context, address byte, w, r []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mx.Lock()
	defer e.mx.Unlock()
	if address != e.address {
		return ErrNoAck
	}
	if len(w) > 0 {
		if err := e.write(w); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		return e.read(r)
	}
	return nil
}

func (e *Emulator) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return e.Tx(ctx, address, buffer, nil)
}

func (e *Emulator) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	return e.Tx(ctx, address, nil, buffer)
}

func (e *Emulator) Release(ctx context.Context) error {
	return nil
}

func (e *Emulator) write(w []byte) error {
	op := w[0]
	switch op {
	case OpBrightness:
		if len(w) != 3 {
			return fmt.Errorf("brightness: expected 3 bytes, got %d", len(w))
		}
		e.center, e.sides = w[1], w[2]
	case OpGain:
		if len(w) != 2 || w[1] > 3 {
			return fmt.Errorf("gain: invalid command % x", w)
		}
		e.gainCode = w[1]
	case OpTiming:
		if len(w) != 2 {
			return fmt.Errorf("timing: expected 2 bytes, got %d", len(w))
		}
		e.timing = w[1]
	default:
		if op < OpDeviceID || op > OpDigitalPins {
			return fmt.Errorf("unknown opcode %#x", op)
		}
	}
	e.pending = op
	return nil
}

func (e *Emulator) read(r []byte) error {
	var resp []byte
	switch op := e.pending; {
	case op == OpDeviceID:
		resp = []byte{byte(e.id)}
	case op >= OpSensorColor && op < OpSensorColor+colorboard.SensorCount:
		c := e.sensor(int(op - OpSensorColor))
		resp = []byte{
			byte(c.Clear), byte(c.Clear >> 8),
			byte(c.Red), byte(c.Red >> 8),
			byte(c.Green), byte(c.Green >> 8),
			byte(c.Blue), byte(c.Blue >> 8),
		}
	case op >= OpClear && op <= OpBlue:
		ch := colorboard.Channels[op-OpClear]
		resp = make([]byte, 2*colorboard.SensorCount)
		for i := range colorboard.SensorCount {
			v := e.sensor(i).Get(ch)
			resp[i] = byte(v)
			resp[i+colorboard.SensorCount] = byte(v >> 8)
		}
	case op == OpAnalogPins:
		resp = []byte{e.analog[0], e.analog[1]}
	case op == OpDigitalPins:
		resp = []byte{e.digital}
	default:
		return fmt.Errorf("nothing to read after opcode %#x", op)
	}
	if len(r) != len(resp) {
		return fmt.Errorf("opcode %#x: requested %d bytes, device sends %d", e.pending, len(r), len(resp))
	}
	copy(r, resp)
	return nil
}

func (e *Emulator) sensor(i int) colorboard.Color {
	if e.sampleFn != nil {
		return e.sampleFn(i)
	}
	return e.sensors[i]
}
