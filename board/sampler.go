package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mklimuk/colorboard"
)

// ErrRunning is returned when starting a sampler that is already running.
var ErrRunning = errors.New("sampler already running")

// Sampler continuously reads all five sensors in the background and publishes
// each complete cycle to a Store. Reads never touch the bus.
//
// A failed transaction aborts the cycle it belongs to: nothing is published for
// that cycle, the previous snapshot stays current and sampling carries on with
// the next cycle. Failures are counted in Stats.
type Sampler struct {
	tx       *transport
	store    *Store
	interval time.Duration
	log      *slog.Logger

	mx      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool

	cycles   atomic.Uint64
	failures atomic.Uint64
	errMx    sync.Mutex
	lastErr  error
}

// Stats describes the sampler's progress.
type Stats struct {
	Cycles    uint64
	Failures  uint64
	LastError error
}

func newSampler(tx *transport, interval time.Duration, log *slog.Logger) *Sampler {
	return &Sampler{
		tx:       tx,
		store:    NewStore(),
		interval: interval,
		log:      log,
	}
}

// Start launches the sampling loop. It runs until ctx is done or Stop is called.
// Either way the sampler is closed afterwards and reads return ErrClosed.
func (s *Sampler) Start(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.stopped {
		return colorboard.ErrClosed
	}
	if s.done != nil {
		return ErrRunning
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
	return nil
}

// Stop signals the loop and waits for it to exit. A transaction in flight is
// abandoned and the bus is released once it returns.
func (s *Sampler) Stop() {
	s.mx.Lock()
	s.stopped = true
	cancel, done := s.cancel, s.done
	s.mx.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Sampler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		s.mx.Lock()
		s.stopped = true
		s.mx.Unlock()
	}()
	s.log.Debug("sampler started", "interval", s.interval)
	defer func() {
		s.log.Debug("sampler stopped", "cycles", s.cycles.Load(), "failures", s.failures.Load())
	}()
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		err := s.cycle(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.failures.Add(1)
			s.errMx.Lock()
			s.lastErr = err
			s.errMx.Unlock()
			s.log.Warn("sampling cycle failed", "error", err)
		}
		timer.Reset(s.interval)
	}
}

func (s *Sampler) cycle(ctx context.Context) error {
	var sensors [colorboard.SensorCount]colorboard.Color
	for i := range sensors {
		c, err := readSensor(ctx, s.tx, i)
		if err != nil {
			return fmt.Errorf("sensor %d: %w", i, err)
		}
		sensors[i] = c
	}
	snap := s.store.Publish(sensors, time.Now())
	s.cycles.Add(1)
	s.log.Debug("snapshot published", "generation", snap.Generation)
	return nil
}

func (s *Sampler) Stats() Stats {
	s.errMx.Lock()
	defer s.errMx.Unlock()
	return Stats{
		Cycles:    s.cycles.Load(),
		Failures:  s.failures.Load(),
		LastError: s.lastErr,
	}
}

// Store exposes the snapshot store fed by the sampler.
func (s *Sampler) Store() *Store {
	return s.store
}

// WaitReady blocks until the first snapshot is available.
func (s *Sampler) WaitReady(ctx context.Context) error {
	if err := s.checkStopped(); err != nil {
		return err
	}
	select {
	case <-s.store.Ready():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sampler) Colors(ctx context.Context) (colorboard.Snapshot, error) {
	if err := s.checkStopped(); err != nil {
		return colorboard.Snapshot{}, err
	}
	return s.store.Snapshot()
}

func (s *Sampler) Channel(ctx context.Context, ch colorboard.Channel) ([colorboard.SensorCount]uint16, error) {
	if err := s.checkStopped(); err != nil {
		return [colorboard.SensorCount]uint16{}, err
	}
	return s.store.Channel(ch)
}

func (s *Sampler) Sensor(ctx context.Context, sensor int) (colorboard.Color, error) {
	if err := s.checkStopped(); err != nil {
		return colorboard.Color{}, err
	}
	return s.store.Sensor(sensor)
}

func (s *Sampler) checkStopped() error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.stopped {
		return colorboard.ErrClosed
	}
	return nil
}

// IsNotReady reports whether err means that no snapshot was produced yet.
func IsNotReady(err error) bool {
	return errors.Is(err, colorboard.ErrNotReady)
}
