package adapter

import "github.com/mklimuk/colorboard"

// NewSimulated returns an adapter whose HID device is simulated, with bus behind it.
func NewSimulated(bus colorboard.I2CBus, opts ...MCP2221Opt) *MCP2221 {
	fake := &fakeAdapter{bus: bus}
	return NewMCP2221(append([]MCP2221Opt{WithOpener(fake.open)}, opts...)...)
}
