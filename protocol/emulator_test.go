package protocol

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/colorboard"
)

func TestEmulator_RoundTrip(t *testing.T) {
	ctx := context.Background()
	emu := NewEmulator()
	emu.SetDeviceID(colorboard.DeviceTCS34715)
	for i := 0; i < colorboard.SensorCount; i++ {
		emu.SetSensor(i, colorboard.Color{
			Red:   uint16(1000 + i),
			Green: uint16(2000 + i),
			Blue:  uint16(3000 + i),
			Clear: uint16(60000 + i),
		})
	}
	emu.SetAnalog(colorboard.AnalogPins{12, 250})
	emu.SetDigitalRaw(0x20)

	exec := func(cmd Command) []byte {
		resp := make([]byte, cmd.ReadLen)
		require.NoError(t, emu.Tx(ctx, colorboard.Address, cmd.Write, resp))
		return resp
	}

	id, err := DecodeDeviceID(exec(DeviceID()))
	require.NoError(t, err)
	assert.Equal(t, colorboard.DeviceTCS34715, id)

	for i := 0; i < colorboard.SensorCount; i++ {
		cmd, err := SensorColor(i)
		require.NoError(t, err)
		c, err := DecodeSensorColor(exec(cmd))
		require.NoError(t, err)
		assert.Equal(t, uint16(1000+i), c.Red)
		assert.Equal(t, uint16(60000+i), c.Clear)
	}

	cmd, err := ChannelBatch(colorboard.Blue)
	require.NoError(t, err)
	blue, err := DecodeChannelBatch(exec(cmd))
	require.NoError(t, err)
	assert.Equal(t, [5]uint16{3000, 3001, 3002, 3003, 3004}, blue)

	analog, err := DecodeAnalogPins(exec(AnalogPins()))
	require.NoError(t, err)
	assert.Equal(t, colorboard.AnalogPins{12, 250}, analog)

	digital, err := DecodeDigitalPins(exec(DigitalPins()))
	require.NoError(t, err)
	assert.Equal(t, colorboard.DigitalPins{false, true}, digital)

	exec(Brightness(10, 20))
	center, sides := emu.Brightness()
	assert.Equal(t, byte(10), center)
	assert.Equal(t, byte(20), sides)

	gain, err := Gain(16)
	require.NoError(t, err)
	exec(gain)
	assert.Equal(t, byte(2), emu.GainCode())

	exec(Timing(100))
	assert.Equal(t, byte(156), emu.TimingRegister())
}

func TestEmulator_WrongAddress(t *testing.T) {
	emu := NewEmulator()
	err := emu.Tx(context.Background(), 0x31, []byte{OpDeviceID}, make([]byte, 1))
	assert.ErrorIs(t, err, ErrNoAck)
}

func TestEmulator_WrongReadLength(t *testing.T) {
	emu := NewEmulator()
	err := emu.Tx(context.Background(), colorboard.Address, []byte{OpSensorColor}, make([]byte, 4))
	assert.Error(t, err)
}
