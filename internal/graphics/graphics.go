// Package graphics drives the frame loop: it drains window events, samples
// gamepads, renders into the framebuffer and presents it.
package graphics

import (
	"fmt"

	"github.com/tinyrange/blitwin/internal/framebuffer"
	"github.com/tinyrange/blitwin/internal/input"
	"github.com/tinyrange/blitwin/internal/present"
	"github.com/tinyrange/blitwin/internal/window"
)

// Window is what the loop needs from the platform.
type Window interface {
	present.Surface

	// Drain appends all pending events to dst without blocking.
	Drain(dst []window.Event) []window.Event
	ClientSize() (width, height int)
}

// State is the loop's run state.
type State int

const (
	StateRunning State = iota
	// StateStopped is terminal.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// RunState is the per-frame data the loop accumulates and hands to the
// renderer.
type RunState struct {
	Frame   uint64
	XOffset int
	YOffset int

	// Rumble is the force feedback requested for each slot this frame.
	Rumble [input.MaxSlots]input.Vibration
}

// Renderer fills the framebuffer for one frame. It must treat an empty
// framebuffer as a no-op.
type Renderer interface {
	Render(fb *framebuffer.Framebuffer, s RunState)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(fb *framebuffer.Framebuffer, s RunState)

func (f RendererFunc) Render(fb *framebuffer.Framebuffer, s RunState) { f(fb, s) }

// Stats counts what the loop has done.
type Stats struct {
	Ticks         uint64
	Rendered      uint64
	Presented     uint64
	Resizes       uint64
	ResizeErrors  uint64
	PresentErrors uint64
}
