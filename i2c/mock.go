package i2c

import (
	"context"

	"github.com/mklimuk/colorboard"
)

var _ colorboard.I2CBus = &MockBus{}

// TxBehaviorFunc defines the function signature for bus behavior.
// It fills r with the device response to w or returns an error.
type TxBehaviorFunc func(ctx context.Context, address byte, w, r []byte) error

// MockBus is a bus that uses a behavior function to answer transactions without
// requiring any hardware.
//
// Example usage:
//
//	// Forward to an emulated board, failing every tenth transaction
//	emu := protocol.NewEmulator()
//	n := 0
//	bus := NewMockBus(func(ctx context.Context, addr byte, w, r []byte) error {
//		n++
//		if n%10 == 0 {
//			return fmt.Errorf("nack")
//		}
//		return emu.Tx(ctx, addr, w, r)
//	})
type MockBus struct {
	behavior TxBehaviorFunc
}

func NewMockBus(behavior TxBehaviorFunc) *MockBus {
	return &MockBus{behavior: behavior}
}

func (m *MockBus) Tx(ctx context.Context, address byte, w, r []byte) error {
	return m.behavior(ctx, address, w, r)
}

// ReadFromAddr calls the behavior with an empty write.
func (m *MockBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	return m.behavior(ctx, address, nil, buffer)
}

// WriteToAddr calls the behavior with an empty read.
func (m *MockBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return m.behavior(ctx, address, buffer, nil)
}

func (m *MockBus) Release(ctx context.Context) error {
	return nil
}
