package colorboard

import (
	"fmt"
	"strings"
	"time"
)

// SensorCount is the number of color sensors mounted on the board.
const SensorCount = 5

// Color is a single reading of one sensor.
type Color struct {
	Red   uint16 `json:"red" yaml:"red"`
	Green uint16 `json:"green" yaml:"green"`
	Blue  uint16 `json:"blue" yaml:"blue"`
	Clear uint16 `json:"clear" yaml:"clear"`
}

// Get returns the value of a single channel.
func (c Color) Get(ch Channel) uint16 {
	switch ch {
	case Red:
		return c.Red
	case Green:
		return c.Green
	case Blue:
		return c.Blue
	default:
		return c.Clear
	}
}

// Snapshot is a complete set of readings, one per sensor, taken in the same sampling cycle.
type Snapshot struct {
	Sensors [SensorCount]Color `json:"sensors" yaml:"sensors"`

	// Generation increases with every published snapshot. Zero for on-demand reads.
	Generation uint64    `json:"generation" yaml:"generation"`
	Time       time.Time `json:"time" yaml:"time"`
}

// Channel returns one channel value of every sensor.
func (s Snapshot) Channel(ch Channel) [SensorCount]uint16 {
	var out [SensorCount]uint16
	for i, c := range s.Sensors {
		out[i] = c.Get(ch)
	}
	return out
}

type Channel byte

const (
	Clear Channel = iota
	Red
	Green
	Blue
)

// Channels lists all channels in batch register order.
var Channels = []Channel{Clear, Red, Green, Blue}

func (c Channel) String() string {
	switch c {
	case Clear:
		return "clear"
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	default:
		return fmt.Sprintf("channel(%d)", byte(c))
	}
}

func (c Channel) Valid() bool {
	return c <= Blue
}

func ParseChannel(name string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "clear", "c":
		return Clear, nil
	case "red", "r":
		return Red, nil
	case "green", "g":
		return Green, nil
	case "blue", "b":
		return Blue, nil
	}
	return 0, fmt.Errorf("%w: unknown channel %q", ErrInvalidArgument, name)
}

// DeviceID identifies the type of color sensors fitted on the board.
type DeviceID byte

const (
	DeviceTCS34725 DeviceID = 0x44 // with IR filter
	DeviceTCS34715 DeviceID = 0x14 // without IR filter
)

func (id DeviceID) String() string {
	switch id {
	case DeviceTCS34725:
		return "TCS34725"
	case DeviceTCS34715:
		return "TCS34715"
	default:
		return fmt.Sprintf("unknown(%#x)", byte(id))
	}
}

func (id DeviceID) HasIRFilter() bool {
	return id == DeviceTCS34725
}

// AnalogPins holds the two 8-bit ADC readings of the pin header.
type AnalogPins [2]uint8

// DigitalPins holds the two digital inputs of the pin header.
type DigitalPins [2]bool

// Config is the write-only device configuration. The board keeps no copy;
// the last value sent is the assumed device state.
// Gain and TimingCycles of zero leave the device setting untouched.
type Config struct {
	CenterBrightness int `yaml:"center_brightness"`
	SideBrightness   int `yaml:"side_brightness"`
	Gain             int `yaml:"gain"`
	TimingCycles     int `yaml:"timing_cycles"`
}
