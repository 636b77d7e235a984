package board

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mklimuk/colorboard"
	"github.com/mklimuk/colorboard/protocol"
)

// Store holds the latest complete snapshot. Published snapshots are never modified;
// every publish swaps in a new one.
type Store struct {
	current    atomic.Pointer[colorboard.Snapshot]
	generation atomic.Uint64
	ready      chan struct{}
	readyOnce  sync.Once
}

func NewStore() *Store {
	return &Store{ready: make(chan struct{})}
}

// Publish makes sensors the current snapshot and returns it.
func (s *Store) Publish(sensors [colorboard.SensorCount]colorboard.Color, at time.Time) colorboard.Snapshot {
	snap := &colorboard.Snapshot{
		Sensors:    sensors,
		Generation: s.generation.Add(1),
		Time:       at,
	}
	s.current.Store(snap)
	s.readyOnce.Do(func() { close(s.ready) })
	return *snap
}

// Snapshot returns the current snapshot or ErrNotReady when nothing was published yet.
func (s *Store) Snapshot() (colorboard.Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return colorboard.Snapshot{}, colorboard.ErrNotReady
	}
	return *snap, nil
}

func (s *Store) Channel(ch colorboard.Channel) ([colorboard.SensorCount]uint16, error) {
	if _, err := protocol.ChannelOpcode(ch); err != nil {
		return [colorboard.SensorCount]uint16{}, err
	}
	snap, err := s.Snapshot()
	if err != nil {
		return [colorboard.SensorCount]uint16{}, err
	}
	return snap.Channel(ch), nil
}

func (s *Store) Sensor(sensor int) (colorboard.Color, error) {
	if err := protocol.CheckSensor(sensor); err != nil {
		return colorboard.Color{}, err
	}
	snap, err := s.Snapshot()
	if err != nil {
		return colorboard.Color{}, err
	}
	return snap.Sensors[sensor], nil
}

// Ready is closed once the first snapshot is published.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}
