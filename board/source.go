package board

import (
	"context"
	"time"

	"github.com/mklimuk/colorboard"
	"github.com/mklimuk/colorboard/protocol"
)

// ColorSource delivers color readings of the five sensors.
type ColorSource interface {
	Colors(ctx context.Context) (colorboard.Snapshot, error)
	Channel(ctx context.Context, ch colorboard.Channel) ([colorboard.SensorCount]uint16, error)
	Sensor(ctx context.Context, sensor int) (colorboard.Color, error)
}

var (
	_ ColorSource = &Direct{}
	_ ColorSource = &Sampler{}
)

// Direct reads the sensors on every call.
type Direct struct {
	tx *transport
}

// Colors reads all sensors with one batch read per channel.
func (d *Direct) Colors(ctx context.Context) (colorboard.Snapshot, error) {
	var snap colorboard.Snapshot
	for _, ch := range colorboard.Channels {
		values, err := d.Channel(ctx, ch)
		if err != nil {
			return colorboard.Snapshot{}, err
		}
		for i, v := range values {
			switch ch {
			case colorboard.Clear:
				snap.Sensors[i].Clear = v
			case colorboard.Red:
				snap.Sensors[i].Red = v
			case colorboard.Green:
				snap.Sensors[i].Green = v
			case colorboard.Blue:
				snap.Sensors[i].Blue = v
			}
		}
	}
	snap.Time = time.Now()
	return snap, nil
}

func (d *Direct) Channel(ctx context.Context, ch colorboard.Channel) ([colorboard.SensorCount]uint16, error) {
	cmd, err := protocol.ChannelBatch(ch)
	if err != nil {
		return [colorboard.SensorCount]uint16{}, err
	}
	op := "read " + ch.String()
	resp, err := d.tx.exec(ctx, op, cmd)
	if err != nil {
		return [colorboard.SensorCount]uint16{}, err
	}
	values, err := protocol.DecodeChannelBatch(resp)
	return values, d.tx.decodeErr(op, err)
}

func (d *Direct) Sensor(ctx context.Context, sensor int) (colorboard.Color, error) {
	return readSensor(ctx, d.tx, sensor)
}

func readSensor(ctx context.Context, tx *transport, sensor int) (colorboard.Color, error) {
	cmd, err := protocol.SensorColor(sensor)
	if err != nil {
		return colorboard.Color{}, err
	}
	resp, err := tx.exec(ctx, "read sensor", cmd)
	if err != nil {
		return colorboard.Color{}, err
	}
	c, err := protocol.DecodeSensorColor(resp)
	return c, tx.decodeErr("read sensor", err)
}
