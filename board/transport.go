package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/mklimuk/colorboard"
	"github.com/mklimuk/colorboard/protocol"
)

var ErrTimeout = errors.New("transaction timed out")

// transport serializes transactions on the bus and bounds each of them in time.
type transport struct {
	lock    *semaphore.Weighted
	bus     colorboard.Transactor
	addr    byte
	timeout time.Duration
}

func newTransport(bus colorboard.Transactor, addr byte, timeout time.Duration) *transport {
	return &transport{
		lock:    semaphore.NewWeighted(1),
		bus:     bus,
		addr:    addr,
		timeout: timeout,
	}
}

// exec runs cmd as one transaction and returns exactly cmd.ReadLen bytes.
//
// When the transaction outlives the timeout the caller gets a timeout error right away,
// while the lock stays held until the underlying bus call returns.
func (t *transport) exec(ctx context.Context, op string, cmd protocol.Command) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lockCtx, cancelLock := context.WithTimeout(ctx, t.timeout)
	err := t.lock.Acquire(lockCtx, 1)
	cancelLock()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &colorboard.BusError{Op: op, Addr: t.addr, Err: colorboard.ErrBusBusy}
	}

	txCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	resp := make([]byte, cmd.ReadLen)
	done := make(chan error, 1)
	go func() {
		defer t.lock.Release(1)
		done <- t.bus.Tx(txCtx, t.addr, cmd.Write, resp)
	}()

	select {
	case err := <-done:
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &colorboard.BusError{Op: op, Addr: t.addr, Err: err}
		}
		return resp, nil
	case <-txCtx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, &colorboard.BusError{Op: op, Addr: t.addr, Err: fmt.Errorf("%w after %s", ErrTimeout, t.timeout)}
	}
}

// decodeErr wraps codec errors on a received response as bus failures.
func (t *transport) decodeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &colorboard.BusError{Op: op, Addr: t.addr, Err: err}
}
