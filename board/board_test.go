package board

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/colorboard"
	"github.com/mklimuk/colorboard/i2c"
	"github.com/mklimuk/colorboard/protocol"
)

// MockI2CBus is a mock implementation of colorboard.Transactor using testify/mock.
// Calls are matched on the written bytes and the number of bytes to read.
type MockI2CBus struct {
	mock.Mock
	concurrentOps int64
	maxConcurrent int64
}

func (m *MockI2CBus) Tx(ctx context.Context, address byte, w, r []byte) error {
	concurrent := atomic.AddInt64(&m.concurrentOps, 1)
	defer atomic.AddInt64(&m.concurrentOps, -1)
	for {
		max := atomic.LoadInt64(&m.maxConcurrent)
		if concurrent <= max || atomic.CompareAndSwapInt64(&m.maxConcurrent, max, concurrent) {
			break
		}
	}
	args := m.Called(ctx, address, w, len(r))
	if data, ok := args.Get(0).([]byte); ok {
		copy(r, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) expect(w []byte, readLen int, resp []byte, err error) *mock.Call {
	return m.On("Tx", mock.Anything, colorboard.Address, w, readLen).Return(resp, err).Once()
}

func TestBoard_SetBrightness(t *testing.T) {
	tests := []struct {
		center, sides int
		expected      []byte
	}{
		{300, -5, []byte{0x53, 255, 0}},
		{100, 200, []byte{0x53, 100, 200}},
		{-1, 1000, []byte{0x53, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%d", tt.center, tt.sides), func(t *testing.T) {
			bus := new(MockI2CBus)
			bus.expect(tt.expected, 0, nil, nil)
			b := New(bus)

			require.NoError(t, b.SetBrightness(context.Background(), tt.center, tt.sides))
			bus.AssertExpectations(t)

			cfg, ok := b.LastConfig()
			assert.True(t, ok)
			assert.Equal(t, int(tt.expected[1]), cfg.CenterBrightness)
			assert.Equal(t, int(tt.expected[2]), cfg.SideBrightness)
		})
	}
}

func TestBoard_SetGain(t *testing.T) {
	tests := []struct {
		gain int
		code byte
	}{
		{1, 0}, {4, 1}, {16, 2}, {60, 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.gain), func(t *testing.T) {
			bus := new(MockI2CBus)
			bus.expect([]byte{0x54, tt.code}, 0, nil, nil)
			b := New(bus)
			require.NoError(t, b.SetGain(context.Background(), tt.gain))
			bus.AssertExpectations(t)
			cfg, _ := b.LastConfig()
			assert.Equal(t, tt.gain, cfg.Gain)
		})
	}
}

func TestBoard_SetGain_Unsupported(t *testing.T) {
	bus := new(MockI2CBus)
	b := New(bus)

	err := b.SetGain(context.Background(), 7)
	assert.ErrorIs(t, err, colorboard.ErrUnsupportedGain)
	assert.ErrorIs(t, err, colorboard.ErrInvalidArgument)
	assert.NotErrorIs(t, err, colorboard.ErrBus)
	bus.AssertNotCalled(t, "Tx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	_, sent := b.LastConfig()
	assert.False(t, sent)
}

func TestBoard_SetTiming(t *testing.T) {
	tests := []struct {
		cycles   int
		register byte
		assumed  int
	}{
		{1, 255, 1},
		{255, 1, 255},
		{300, 255, 1},
		{0, 1, 255},
		{64, 192, 64},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.cycles), func(t *testing.T) {
			bus := new(MockI2CBus)
			bus.expect([]byte{0x51, tt.register}, 0, nil, nil)
			b := New(bus)
			require.NoError(t, b.SetTiming(context.Background(), tt.cycles))
			bus.AssertExpectations(t)
			cfg, _ := b.LastConfig()
			assert.Equal(t, tt.assumed, cfg.TimingCycles)
		})
	}
}

func TestBoard_DeviceID(t *testing.T) {
	bus := new(MockI2CBus)
	bus.expect([]byte{0x52}, 1, []byte{0x14}, nil)
	b := New(bus)

	id, err := b.DeviceID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, colorboard.DeviceTCS34715, id)
	assert.False(t, id.HasIRFilter())
	bus.AssertExpectations(t)
}

func TestBoard_SensorColor_InvalidIndex(t *testing.T) {
	bus := new(MockI2CBus)
	b := New(bus)
	for _, sensor := range []int{-1, 5, 42} {
		_, err := b.SensorColor(context.Background(), sensor)
		assert.ErrorIs(t, err, colorboard.ErrInvalidArgument)
		assert.NotErrorIs(t, err, colorboard.ErrBus)
	}
	bus.AssertNotCalled(t, "Tx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBoard_SensorColor(t *testing.T) {
	bus := new(MockI2CBus)
	bus.expect([]byte{0x57}, 8, []byte{0x10, 0x27, 0xE8, 0x03, 0x64, 0x00, 0x0A, 0x00}, nil)
	b := New(bus)

	c, err := b.SensorColor(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, colorboard.Color{Clear: 10000, Red: 1000, Green: 100, Blue: 10}, c)
	bus.AssertExpectations(t)
}

func TestBoard_BusErrorPropagates(t *testing.T) {
	bus := new(MockI2CBus)
	bus.expect([]byte{0x5E}, 2, nil, errors.New("i2c read failed"))
	b := New(bus)

	_, err := b.AnalogPins(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, colorboard.ErrBus)
	var busErr *colorboard.BusError
	require.True(t, errors.As(err, &busErr))
	assert.Equal(t, "read analog pins", busErr.Op)
	assert.Equal(t, colorboard.Address, busErr.Addr)
	assert.Contains(t, err.Error(), "i2c read failed")
}

func TestBoard_Pins(t *testing.T) {
	bus := new(MockI2CBus)
	bus.expect([]byte{0x5E}, 2, []byte{17, 240}, nil)
	bus.expect([]byte{0x5F}, 1, []byte{0x21}, nil)
	b := New(bus)
	ctx := context.Background()

	analog, err := b.AnalogPins(ctx)
	require.NoError(t, err)
	assert.Equal(t, colorboard.AnalogPins{17, 240}, analog)

	digital, err := b.DigitalPins(ctx)
	require.NoError(t, err)
	assert.Equal(t, colorboard.DigitalPins{true, true}, digital)
	bus.AssertExpectations(t)
}

func TestBoard_StartAppliesConfig(t *testing.T) {
	bus := new(MockI2CBus)
	bus.expect([]byte{0x53, 200, 50}, 0, nil, nil)
	bus.expect([]byte{0x54, 3}, 0, nil, nil)
	bus.expect([]byte{0x51, 255}, 0, nil, nil)
	b := New(bus, WithConfig(colorboard.Config{CenterBrightness: 200, SideBrightness: 50, Gain: 60, TimingCycles: 1}))

	require.NoError(t, b.Start(context.Background()))
	require.NoError(t, b.Close())
	bus.AssertExpectations(t)

	cfg, ok := b.LastConfig()
	assert.True(t, ok)
	assert.Equal(t, colorboard.Config{CenterBrightness: 200, SideBrightness: 50, Gain: 60, TimingCycles: 1}, cfg)
}

func TestBoard_ConfigureRejectsGainFirst(t *testing.T) {
	bus := new(MockI2CBus)
	b := New(bus)
	err := b.Configure(context.Background(), colorboard.Config{CenterBrightness: 10, Gain: 5})
	assert.ErrorIs(t, err, colorboard.ErrUnsupportedGain)
	bus.AssertNotCalled(t, "Tx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBoard_DirectColors(t *testing.T) {
	emu := protocol.NewEmulator()
	for i := 0; i < colorboard.SensorCount; i++ {
		emu.SetSensor(i, colorboard.Color{Red: uint16(i + 1), Green: uint16(i + 10), Blue: uint16(i + 300), Clear: uint16(i + 65000)})
	}
	var ops []byte
	bus := i2c.NewMockBus(func(ctx context.Context, address byte, w, r []byte) error {
		ops = append(ops, w[0])
		return emu.Tx(ctx, address, w, r)
	})
	b := New(bus, WithSampling(SamplingOnDemand))
	ctx := context.Background()

	snap, err := b.Colors(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []byte{0x5A, 0x5B, 0x5C, 0x5D}, ops, "all colors should use channel batch reads")
	for i, c := range snap.Sensors {
		assert.Equal(t, colorboard.Color{Red: uint16(i + 1), Green: uint16(i + 10), Blue: uint16(i + 300), Clear: uint16(i + 65000)}, c)
	}
	assert.Zero(t, snap.Generation)

	green, err := b.Channel(ctx, colorboard.Green)
	require.NoError(t, err)
	assert.Equal(t, [colorboard.SensorCount]uint16{10, 11, 12, 13, 14}, green)

	c, err := b.SensorColor(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, uint16(65004), c.Clear)

	assert.NoError(t, b.WaitReady(ctx))
	assert.Nil(t, b.Sampler())
}

func TestParseSampling(t *testing.T) {
	mode, err := ParseSampling("background")
	require.NoError(t, err)
	assert.Equal(t, SamplingBackground, mode)
	mode, err = ParseSampling("direct")
	require.NoError(t, err)
	assert.Equal(t, SamplingOnDemand, mode)
	_, err = ParseSampling("sometimes")
	assert.ErrorIs(t, err, colorboard.ErrInvalidArgument)
}
