// Package protocol encodes color board operations into command bytes and decodes
// the controller's responses.
//
// The board answers at a single address and every operation is one write of
// 1-3 bytes optionally followed by a read of up to 10 bytes. All 16-bit values
// are little-endian (low byte first).
package protocol

import (
	"fmt"

	"github.com/mklimuk/colorboard"
)

// Opcodes
const (
	OpTiming      byte = 0x51
	OpDeviceID    byte = 0x52
	OpBrightness  byte = 0x53
	OpGain        byte = 0x54
	OpSensorColor byte = 0x55 // +sensor index, 0x55..0x59
	OpClear       byte = 0x5A
	OpRed         byte = 0x5B
	OpGreen       byte = 0x5C
	OpBlue        byte = 0x5D
	OpAnalogPins  byte = 0x5E
	OpDigitalPins byte = 0x5F
)

// Response lengths
const (
	deviceIDLen    = 1
	sensorColorLen = 8
	channelLen     = 2 * colorboard.SensorCount
	analogLen      = 2
	digitalLen     = 1
)

const (
	digitalPin0Mask = 0x01
	digitalPin1Mask = 0x20
)

// Command is a single bus transaction: bytes to write and the number of bytes to read back.
type Command struct {
	Write   []byte
	ReadLen int
}

func (c Command) Opcode() byte {
	if len(c.Write) == 0 {
		return 0
	}
	return c.Write[0]
}

func DeviceID() Command {
	return Command{Write: []byte{OpDeviceID}, ReadLen: deviceIDLen}
}

func DecodeDeviceID(resp []byte) (colorboard.DeviceID, error) {
	if err := checkLen(resp, deviceIDLen); err != nil {
		return 0, err
	}
	return colorboard.DeviceID(resp[0]), nil
}

// Brightness sets the LEDs of the three center sensors and the two outer ones.
// Values are clamped to 0-255.
func Brightness(center, sides int) Command {
	return Command{Write: []byte{OpBrightness, clampByte(center), clampByte(sides)}}
}

// GainCode maps a sensor gain to its register value.
func GainCode(gain int) (byte, error) {
	switch gain {
	case 1:
		return 0, nil
	case 4:
		return 1, nil
	case 16:
		return 2, nil
	case 60:
		return 3, nil
	}
	return 0, fmt.Errorf("%w: %d (accepted: 1, 4, 16, 60)", colorboard.ErrUnsupportedGain, gain)
}

func Gain(gain int) (Command, error) {
	code, err := GainCode(gain)
	if err != nil {
		return Command{}, err
	}
	return Command{Write: []byte{OpGain, code}}, nil
}

// TimingCycles normalizes a requested cycle count: below 1 means 255, above 256 means 1,
// anything else is clamped to 1-255.
func TimingCycles(cycles int) int {
	switch {
	case cycles < 1:
		return 255
	case cycles > 256:
		return 1
	case cycles > 255:
		return 255
	}
	return cycles
}

// Timing sets the integration time. The register holds 256-cycles, so a higher
// register value means fewer cycles.
func Timing(cycles int) Command {
	return Command{Write: []byte{OpTiming, byte(256 - TimingCycles(cycles))}}
}

func SensorColor(sensor int) (Command, error) {
	if err := CheckSensor(sensor); err != nil {
		return Command{}, err
	}
	return Command{Write: []byte{OpSensorColor + byte(sensor)}, ReadLen: sensorColorLen}, nil
}

// DecodeSensorColor decodes a single sensor response. The layout is
// [clear L, clear H, red L, red H, green L, green H, blue L, blue H].
func DecodeSensorColor(resp []byte) (colorboard.Color, error) {
	if err := checkLen(resp, sensorColorLen); err != nil {
		return colorboard.Color{}, err
	}
	return colorboard.Color{
		Clear: word(resp[0], resp[1]),
		Red:   word(resp[2], resp[3]),
		Green: word(resp[4], resp[5]),
		Blue:  word(resp[6], resp[7]),
	}, nil
}

// ChannelOpcode returns the batch read opcode of a channel.
func ChannelOpcode(ch colorboard.Channel) (byte, error) {
	switch ch {
	case colorboard.Clear:
		return OpClear, nil
	case colorboard.Red:
		return OpRed, nil
	case colorboard.Green:
		return OpGreen, nil
	case colorboard.Blue:
		return OpBlue, nil
	}
	return 0, fmt.Errorf("%w: %s", colorboard.ErrInvalidArgument, ch)
}

func ChannelBatch(ch colorboard.Channel) (Command, error) {
	op, err := ChannelOpcode(ch)
	if err != nil {
		return Command{}, err
	}
	return Command{Write: []byte{op}, ReadLen: channelLen}, nil
}

// DecodeChannelBatch decodes one channel of all sensors: five low bytes followed by five high bytes.
func DecodeChannelBatch(resp []byte) ([colorboard.SensorCount]uint16, error) {
	var out [colorboard.SensorCount]uint16
	if err := checkLen(resp, channelLen); err != nil {
		return out, err
	}
	for i := range out {
		out[i] = word(resp[i], resp[i+colorboard.SensorCount])
	}
	return out, nil
}

func AnalogPins() Command {
	return Command{Write: []byte{OpAnalogPins}, ReadLen: analogLen}
}

func DecodeAnalogPins(resp []byte) (colorboard.AnalogPins, error) {
	if err := checkLen(resp, analogLen); err != nil {
		return colorboard.AnalogPins{}, err
	}
	return colorboard.AnalogPins{resp[0], resp[1]}, nil
}

func DigitalPins() Command {
	return Command{Write: []byte{OpDigitalPins}, ReadLen: digitalLen}
}

// DecodeDigitalPins maps bit 0 to input 0 and bit 5 to input 1. Other bits are ignored.
func DecodeDigitalPins(resp []byte) (colorboard.DigitalPins, error) {
	if err := checkLen(resp, digitalLen); err != nil {
		return colorboard.DigitalPins{}, err
	}
	return colorboard.DigitalPins{
		resp[0]&digitalPin0Mask != 0,
		resp[0]&digitalPin1Mask != 0,
	}, nil
}

func CheckSensor(sensor int) error {
	if sensor < 0 || sensor >= colorboard.SensorCount {
		return fmt.Errorf("%w: sensor index %d out of range 0-%d", colorboard.ErrInvalidArgument, sensor, colorboard.SensorCount-1)
	}
	return nil
}

func word(low, high byte) uint16 {
	return uint16(low) + uint16(high)*256
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 0xFF {
		return 0xFF
	}
	return byte(v)
}

func checkLen(resp []byte, expected int) error {
	if len(resp) != expected {
		return fmt.Errorf("%w: expected %d bytes, got %d", colorboard.ErrMalformedResponse, expected, len(resp))
	}
	return nil
}
