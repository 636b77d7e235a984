package protocol

import (
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/colorboard"
)

func TestDecodeSensorColor(t *testing.T) {
	tests := []struct {
		given    []byte
		expected colorboard.Color
	}{
		{[]byte{0, 0, 0, 0, 0, 0, 0, 0}, colorboard.Color{}},
		{[]byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x00}, colorboard.Color{Clear: 1, Red: 2, Green: 3, Blue: 4}},
		{[]byte{0x34, 0x12, 0xFF, 0xFF, 0x00, 0x01, 0x80, 0x00}, colorboard.Color{Clear: 0x1234, Red: 65535, Green: 256, Blue: 128}},
		{[]byte{0x10, 0x27, 0xE8, 0x03, 0x64, 0x00, 0x0A, 0x00}, colorboard.Color{Clear: 10000, Red: 1000, Green: 100, Blue: 10}},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given), func(t *testing.T) {
			c, err := DecodeSensorColor(test.given)
			require.NoError(t, err)
			assert.Equal(t, test.expected, c)
		})
	}
}

func TestDecodeSensorColor_Layout(t *testing.T) {
	// every byte distinct so that a swapped pair or channel shows up
	for sensor := 0; sensor < colorboard.SensorCount; sensor++ {
		cL, cH := byte(sensor*8+1), byte(sensor*8+2)
		rL, rH := byte(sensor*8+3), byte(sensor*8+4)
		gL, gH := byte(sensor*8+5), byte(sensor*8+6)
		bL, bH := byte(sensor*8+7), byte(sensor*8+8)
		c, err := DecodeSensorColor([]byte{cL, cH, rL, rH, gL, gH, bL, bH})
		require.NoError(t, err)
		assert.Equal(t, uint16(cL)+uint16(cH)*256, c.Clear)
		assert.Equal(t, uint16(rL)+uint16(rH)*256, c.Red)
		assert.Equal(t, uint16(gL)+uint16(gH)*256, c.Green)
		assert.Equal(t, uint16(bL)+uint16(bH)*256, c.Blue)
	}
}

func TestDecodeChannelBatch(t *testing.T) {
	low := []byte{0x01, 0x02, 0x03, 0xFE, 0xFF}
	high := []byte{0x00, 0x01, 0x10, 0x7F, 0xFF}
	resp := append(append([]byte{}, low...), high...)
	values, err := DecodeChannelBatch(resp)
	require.NoError(t, err)
	for i := range values {
		assert.Equal(t, uint16(low[i])+uint16(high[i])*256, values[i], "sensor %d", i)
	}
	assert.Equal(t, uint16(65535), values[4])
}

func TestDecode_MalformedLength(t *testing.T) {
	_, err := DecodeSensorColor(make([]byte, 7))
	assert.ErrorIs(t, err, colorboard.ErrMalformedResponse)
	_, err = DecodeChannelBatch(make([]byte, 11))
	assert.ErrorIs(t, err, colorboard.ErrMalformedResponse)
	_, err = DecodeDeviceID(nil)
	assert.ErrorIs(t, err, colorboard.ErrMalformedResponse)
	_, err = DecodeAnalogPins([]byte{1})
	assert.ErrorIs(t, err, colorboard.ErrMalformedResponse)
	_, err = DecodeDigitalPins([]byte{1, 2})
	assert.ErrorIs(t, err, colorboard.ErrMalformedResponse)
}

func TestBrightness(t *testing.T) {
	tests := []struct {
		center, sides int
		expected      []byte
	}{
		{300, -5, []byte{OpBrightness, 255, 0}},
		{0, 255, []byte{OpBrightness, 0, 255}},
		{128, 64, []byte{OpBrightness, 128, 64}},
		{-1, 256, []byte{OpBrightness, 0, 255}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d_%d", test.center, test.sides), func(t *testing.T) {
			cmd := Brightness(test.center, test.sides)
			assert.Equal(t, test.expected, cmd.Write)
			assert.Zero(t, cmd.ReadLen)
		})
	}
}

func TestGain(t *testing.T) {
	tests := []struct {
		gain int
		code byte
	}{
		{1, 0}, {4, 1}, {16, 2}, {60, 3},
	}
	for _, test := range tests {
		t.Run(fmt.Sprint(test.gain), func(t *testing.T) {
			cmd, err := Gain(test.gain)
			require.NoError(t, err)
			assert.Equal(t, []byte{OpGain, test.code}, cmd.Write)
		})
	}
	for _, gain := range []int{0, 2, 7, 61, -4} {
		_, err := Gain(gain)
		assert.ErrorIs(t, err, colorboard.ErrUnsupportedGain, "gain %d", gain)
		assert.ErrorIs(t, err, colorboard.ErrInvalidArgument, "gain %d", gain)
	}
}

func TestTiming(t *testing.T) {
	tests := []struct {
		cycles   int
		register byte
	}{
		{1, 255},
		{255, 1},
		{300, 255},
		{0, 1},
		{-10, 1},
		{100, 156},
		{256, 1},
		{257, 255},
	}
	for _, test := range tests {
		t.Run(fmt.Sprint(test.cycles), func(t *testing.T) {
			assert.Equal(t, []byte{OpTiming, test.register}, Timing(test.cycles).Write)
		})
	}
}

func TestSensorColorCommand(t *testing.T) {
	for i := 0; i < colorboard.SensorCount; i++ {
		cmd, err := SensorColor(i)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x55 + byte(i)}, cmd.Write)
		assert.Equal(t, 8, cmd.ReadLen)
	}
	for _, i := range []int{-1, 5, 100} {
		_, err := SensorColor(i)
		assert.ErrorIs(t, err, colorboard.ErrInvalidArgument)
	}
}

func TestChannelBatchCommand(t *testing.T) {
	expected := map[colorboard.Channel]byte{
		colorboard.Clear: 0x5A,
		colorboard.Red:   0x5B,
		colorboard.Green: 0x5C,
		colorboard.Blue:  0x5D,
	}
	for ch, op := range expected {
		cmd, err := ChannelBatch(ch)
		require.NoError(t, err)
		assert.Equal(t, op, cmd.Opcode())
		assert.Equal(t, 10, cmd.ReadLen)
	}
	_, err := ChannelBatch(colorboard.Channel(9))
	assert.ErrorIs(t, err, colorboard.ErrInvalidArgument)
}

func TestDecodePins(t *testing.T) {
	analog, err := DecodeAnalogPins([]byte{0x00, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, colorboard.AnalogPins{0, 255}, analog)

	tests := []struct {
		raw      byte
		expected colorboard.DigitalPins
	}{
		{0x00, colorboard.DigitalPins{false, false}},
		{0x01, colorboard.DigitalPins{true, false}},
		{0x20, colorboard.DigitalPins{false, true}},
		{0x21, colorboard.DigitalPins{true, true}},
		{0xDE, colorboard.DigitalPins{false, false}},
		{0xFF, colorboard.DigitalPins{true, true}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#x", test.raw), func(t *testing.T) {
			pins, err := DecodeDigitalPins([]byte{test.raw})
			require.NoError(t, err)
			assert.Equal(t, test.expected, pins)
		})
	}
}
