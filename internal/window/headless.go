package window

import (
	"image"

	"github.com/tinyrange/blitwin/internal/framebuffer"
)

// Headless is a window without a display. Events are scripted per drain
// and presented frames are counted, with the most recent one kept.
type Headless struct {
	width, height int

	script map[int][]Event
	queued []Event
	drains int

	presents int
	last     []byte
	lastW    int
	lastH    int
	closed   bool
}

// NewHeadless returns a headless window with the given client size. Like a
// native window it reports its initial size with a resize event.
func NewHeadless(width, height int) *Headless {
	return &Headless{
		width:  width,
		height: height,
		script: make(map[int][]Event),
		queued: []Event{Resize(width, height)},
	}
}

// Queue adds events for the next drain.
func (h *Headless) Queue(events ...Event) {
	h.queued = append(h.queued, events...)
}

// At schedules events for the drain with index n (0 is the first drain).
func (h *Headless) At(n int, events ...Event) {
	h.script[n] = append(h.script[n], events...)
}

func (h *Headless) Drain(dst []Event) []Event {
	if h.closed {
		return dst
	}
	events := append(h.queued, h.script[h.drains]...)
	delete(h.script, h.drains)
	h.queued = nil
	h.drains++

	for _, ev := range events {
		if ev.Kind == EventResize {
			h.width, h.height = ev.Width, ev.Height
		}
	}
	return append(dst, events...)
}

// Drains is the number of Drain calls so far.
func (h *Headless) Drains() int { return h.drains }

func (h *Headless) ClientSize() (int, int) { return h.width, h.height }

func (h *Headless) Present(pixels []byte, width, height, pitch int) error {
	h.presents++
	n := width * framebuffer.BytesPerPixel
	h.last = h.last[:0]
	for y := 0; y < height; y++ {
		h.last = append(h.last, pixels[y*pitch:y*pitch+n]...)
	}
	h.lastW, h.lastH = width, height
	return nil
}

// Presents is the number of frames presented.
func (h *Headless) Presents() int { return h.presents }

// LastFrame converts the most recently presented frame to RGBA, or returns
// nil when nothing has been presented.
func (h *Headless) LastFrame() *image.RGBA {
	if h.presents == 0 {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, h.lastW, h.lastH))
	framebuffer.SwizzleToRGBA(img.Pix, h.last)
	return img
}

func (h *Headless) Close() { h.closed = true }
