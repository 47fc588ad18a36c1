package mediatest

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/dkeye/groupcall/internal/core"
)

var ErrConnClosed = errors.New("mediatest: connection closed")

// Conn is a SignalConnection that keeps every frame it is given.
type Conn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func NewConn() *Conn { return &Conn{} }

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	c.frames = append(c.frames, append(core.Frame(nil), f...))
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Conn) Frames() []core.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Frame(nil), c.frames...)
}

// Messages decodes every frame as a JSON object.
func (c *Conn) Messages() []map[string]any {
	frames := c.Frames()
	out := make([]map[string]any, 0, len(frames))
	for _, f := range frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

// ByID returns the decoded messages whose id equals id.
func (c *Conn) ByID(id string) []map[string]any {
	var out []map[string]any
	for _, m := range c.Messages() {
		if m["id"] == id {
			out = append(out, m)
		}
	}
	return out
}

func (c *Conn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}
