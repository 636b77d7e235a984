package colorboard

import (
	"context"
)

// Address is the 7-bit I2C address of the color board controller.
const Address byte = 0x30

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// Transactor performs a single write-then-read exchange with the device at address.
// Either w or r may be empty. Implementations must not interleave two transactions on the wire.
type Transactor interface {
	Tx(ctx context.Context, address byte, w, r []byte) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
	Transactor
}
