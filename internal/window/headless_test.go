package window_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyrange/blitwin/internal/window"
)

func TestHeadlessReportsInitialSize(t *testing.T) {
	h := window.NewHeadless(320, 200)
	events := h.Drain(nil)
	assert.Equal(t, []window.Event{window.Resize(320, 200)}, events)
	assert.Empty(t, h.Drain(nil))
	assert.Equal(t, 2, h.Drains())
}

func TestHeadlessScript(t *testing.T) {
	h := window.NewHeadless(10, 10)
	h.At(1, window.Resize(40, 30), window.KeyPress(window.KeyEscape, false))
	h.At(2, window.Event{Kind: window.EventDestroy})

	h.Drain(nil)
	events := h.Drain(nil)
	require.Len(t, events, 2)
	assert.Equal(t, window.EventResize, events[0].Kind)
	assert.True(t, events[1].Down)

	w, hh := h.ClientSize()
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, hh)

	h.Queue(window.Event{Kind: window.EventPaint})
	events = h.Drain(events[:0])
	assert.Equal(t, []window.Event{{Kind: window.EventPaint}, {Kind: window.EventDestroy}}, events)

	h.Close()
	assert.Empty(t, h.Drain(nil))
}

func TestHeadlessLastFrame(t *testing.T) {
	h := window.NewHeadless(2, 1)
	assert.Nil(t, h.LastFrame())

	// Pitch wider than the row: padding must be dropped.
	pixels := []byte{
		0x01, 0x02, 0x03, 0x00, 0x04, 0x05, 0x06, 0x00, 0xee, 0xee,
	}
	require.NoError(t, h.Present(pixels, 2, 1, 10))
	assert.Equal(t, 1, h.Presents())

	img := h.LastFrame()
	require.NotNil(t, img)
	assert.Equal(t, []byte{0x03, 0x02, 0x01, 0xff, 0x06, 0x05, 0x04, 0xff}, img.Pix)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "destroy", window.EventDestroy.String())
	assert.Equal(t, "EventKind(99)", window.EventKind(99).String())
}

func TestKeyEvents(t *testing.T) {
	down := window.KeyPress(window.KeyDown, true)
	assert.Equal(t, window.Event{Kind: window.EventKey, Key: window.KeyDown, Down: true, Alt: true}, down)

	up := window.KeyRelease(window.KeyUp)
	assert.Equal(t, window.EventKey, up.Kind)
	assert.Equal(t, window.KeyUp, up.Key)
	assert.False(t, up.Down)
}
