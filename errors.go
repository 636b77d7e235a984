package colorboard

import (
	"errors"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// ErrBus is matched by every BusError.
var ErrBus = errors.New("bus transaction failed")

var ErrInvalidArgument = errors.New("invalid argument")

// ErrUnsupportedGain is returned for gains the sensors cannot be set to. It also matches ErrInvalidArgument.
var ErrUnsupportedGain = fmt.Errorf("%w: unsupported gain", ErrInvalidArgument)

var ErrMalformedResponse = errors.New("malformed response")

// ErrNotReady means no sampling cycle has completed yet.
var ErrNotReady = errors.New("no snapshot available yet")

var ErrClosed = errors.New("sampler stopped")

// BusError describes a failed transaction with the board.
type BusError struct {
	Op   string
	Addr byte
	Err  error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("%s (addr %#x): %v", e.Op, e.Addr, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

func (e *BusError) Is(target error) bool {
	return target == ErrBus
}
