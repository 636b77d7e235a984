package i2c

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockBus_Behavior(t *testing.T) {
	var gotW []byte
	var gotReadLen int
	bus := NewMockBus(func(ctx context.Context, address byte, w, r []byte) error {
		gotW = append([]byte{}, w...)
		gotReadLen = len(r)
		for i := range r {
			r[i] = address
		}
		return nil
	})
	ctx := context.Background()

	r := make([]byte, 3)
	require.NoError(t, bus.Tx(ctx, 0x30, []byte{0x52}, r))
	assert.Equal(t, []byte{0x52}, gotW)
	assert.Equal(t, 3, gotReadLen)
	assert.Equal(t, []byte{0x30, 0x30, 0x30}, r)

	require.NoError(t, bus.WriteToAddr(ctx, 0x30, []byte{0x53, 1, 2}))
	assert.Equal(t, []byte{0x53, 1, 2}, gotW)
	assert.Zero(t, gotReadLen)

	r = make([]byte, 2)
	require.NoError(t, bus.ReadFromAddr(ctx, 0x31, r))
	assert.Empty(t, gotW)
	assert.Equal(t, []byte{0x31, 0x31}, r)
	assert.NoError(t, bus.Release(ctx))
}

func TestMockBus_Error(t *testing.T) {
	bus := NewMockBus(func(ctx context.Context, address byte, w, r []byte) error {
		return fmt.Errorf("nack")
	})
	err := bus.Tx(context.Background(), 0x30, []byte{0x52}, make([]byte, 1))
	assert.EqualError(t, err, "nack")
}
