package graphics_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyrange/blitwin/internal/framebuffer"
	"github.com/tinyrange/blitwin/internal/graphics"
	"github.com/tinyrange/blitwin/internal/input"
	"github.com/tinyrange/blitwin/internal/window"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig() graphics.Config {
	cfg := graphics.DefaultConfig()
	cfg.Provider = framebuffer.HeapProvider()
	cfg.Logger = quiet
	return cfg
}

type countingRenderer struct {
	calls  int
	states []graphics.RunState
}

func (r *countingRenderer) Render(fb *framebuffer.Framebuffer, s graphics.RunState) {
	r.calls++
	r.states = append(r.states, s)
	graphics.Gradient{}.Render(fb, s)
}

type padDriver struct {
	states map[int]input.State
	vibes  []vibeCall
}

type vibeCall struct {
	slot int
	v    input.Vibration
}

func (d *padDriver) State(slot int) (input.State, error) {
	if slot == 1 {
		return input.State{}, errors.New("read failed")
	}
	st, ok := d.states[slot]
	if !ok {
		return input.State{}, input.ErrNotConnected
	}
	return st, nil
}

func (d *padDriver) Vibrate(slot int, v input.Vibration) error {
	d.vibes = append(d.vibes, vibeCall{slot, v})
	return nil
}

func TestGradientScenario(t *testing.T) {
	fb := framebuffer.New(framebuffer.HeapProvider())
	assert.True(t, fb.Empty())

	require.NoError(t, fb.Resize(1280, 720))
	assert.Equal(t, 5120, fb.Pitch())
	assert.Equal(t, 3686400, fb.Len())

	graphics.Gradient{}.Render(fb, graphics.RunState{})
	assert.Equal(t, uint32(0x00000000), fb.Pixel(0, 0))
	assert.Equal(t, uint32(0x0A2C), fb.Pixel(300, 10))
	assert.Equal(t, uint32(0xCFFF), fb.Pixel(1279, 719))

	graphics.Gradient{}.Render(fb, graphics.RunState{XOffset: 5, YOffset: -20})
	assert.Equal(t, uint32(0xEC05), fb.Pixel(0, 0))
	assert.Equal(t, uint32(0xF631), fb.Pixel(300, 10))
}

func TestGradientEmptyIsNoop(t *testing.T) {
	fb := framebuffer.New(framebuffer.HeapProvider())
	assert.NotPanics(t, func() { graphics.Gradient{}.Render(fb, graphics.RunState{}) })
}

func TestLoopStopsOnDestroy(t *testing.T) {
	const k = 5
	win := window.NewHeadless(64, 48)
	win.At(k, window.Event{Kind: window.EventDestroy})

	r := &countingRenderer{}
	cfg := testConfig()
	cfg.Renderer = r
	l := graphics.New(win, cfg)

	for i := 0; i < k; i++ {
		require.True(t, l.Tick(), "tick %d", i)
	}
	assert.False(t, l.Tick())
	assert.Equal(t, graphics.StateStopped, l.State())
	assert.Equal(t, "destroy", l.StopReason())

	assert.False(t, l.Tick())
	assert.Equal(t, k, r.calls)
	assert.Equal(t, k, win.Presents())
	assert.Equal(t, k+1, win.Drains(), "a stopped loop does not drain again")
}

func TestLoopStopTransitions(t *testing.T) {
	tests := []struct {
		name   string
		event  window.Event
		escape bool
		stops  bool
	}{
		{name: "close", event: window.Event{Kind: window.EventClose}, stops: true},
		{name: "quit", event: window.Event{Kind: window.EventQuit}, stops: true},
		{name: "alt+f4", event: window.KeyPress(window.KeyF4, true), stops: true},
		{name: "f4", event: window.KeyPress(window.KeyF4, false)},
		{name: "alt+f4 release", event: window.Event{Kind: window.EventKey, Key: window.KeyF4, Alt: true}},
		{name: "escape", event: window.KeyPress(window.KeyEscape, false)},
		{name: "escape exits", event: window.KeyPress(window.KeyEscape, false), escape: true, stops: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			win := window.NewHeadless(8, 8)
			cfg := testConfig()
			cfg.ExitOnEscape = tt.escape
			l := graphics.New(win, cfg)
			require.True(t, l.Tick())

			win.Queue(tt.event)
			assert.Equal(t, !tt.stops, l.Tick())
			if tt.stops {
				assert.Equal(t, graphics.StateStopped, l.State())
				assert.Equal(t, 1, win.Presents())
			}
		})
	}
}

func TestLoopResizeFollowsWindow(t *testing.T) {
	win := window.NewHeadless(100, 50)
	l := graphics.New(win, testConfig())

	assert.Equal(t, 1280, l.Framebuffer().Width(), "default size until the first resize")
	require.True(t, l.Tick())
	assert.Equal(t, 100, l.Framebuffer().Width())
	assert.Equal(t, 50, l.Framebuffer().Height())

	win.Queue(window.Resize(30, 20))
	require.True(t, l.Tick())
	assert.Equal(t, 30*20*4, l.Framebuffer().Len())

	// A minimised window reports 0x0: nothing is presented but the loop runs.
	presents := win.Presents()
	win.Queue(window.Resize(0, 0))
	require.True(t, l.Tick())
	assert.True(t, l.Framebuffer().Empty())
	assert.Equal(t, presents, win.Presents())

	assert.Equal(t, uint64(4), l.Stats().Resizes)
}

type failingProvider struct{ fail bool }

func (p *failingProvider) Alloc(n int) ([]byte, error) {
	if p.fail {
		return nil, errors.New("no memory")
	}
	return make([]byte, n), nil
}

func (p *failingProvider) Free([]byte) error { return nil }

func TestLoopSurvivesAllocationFailure(t *testing.T) {
	p := &failingProvider{fail: true}
	win := window.NewHeadless(16, 16)
	r := &countingRenderer{}
	cfg := testConfig()
	cfg.Provider = p
	cfg.Renderer = r
	l := graphics.New(win, cfg)

	require.True(t, l.Tick())
	assert.True(t, l.Framebuffer().Empty())
	assert.Equal(t, 1, r.calls, "renderer is still called and must cope with an empty buffer")
	assert.Equal(t, 0, win.Presents())
	assert.Equal(t, uint64(2), l.Stats().ResizeErrors)

	p.fail = false
	win.Queue(window.Resize(16, 16))
	require.True(t, l.Tick())
	assert.Equal(t, 1, win.Presents())
}

func TestLoopPaintPresentsAgain(t *testing.T) {
	win := window.NewHeadless(4, 4)
	l := graphics.New(win, testConfig())
	require.True(t, l.Tick())
	require.Equal(t, 1, win.Presents())

	win.Queue(window.Event{Kind: window.EventPaint})
	require.True(t, l.Tick())
	assert.Equal(t, 3, win.Presents())
	assert.Equal(t, uint64(3), l.Stats().Presented)
}

func TestLoopAdvancesOffsets(t *testing.T) {
	win := window.NewHeadless(4, 4)
	r := &countingRenderer{}
	cfg := testConfig()
	cfg.Renderer = r
	cfg.Step = 3
	l := graphics.New(win, cfg)

	for i := 0; i < 4; i++ {
		require.True(t, l.Tick())
	}
	require.Len(t, r.states, 4)
	for i, s := range r.states {
		assert.Equal(t, uint64(i), s.Frame)
		assert.Equal(t, 3*i, s.XOffset)
		assert.Equal(t, 0, s.YOffset)
	}
	assert.Equal(t, uint64(4), l.RunState().Frame)
}

func TestLoopGamepadEffects(t *testing.T) {
	d := &padDriver{states: map[int]input.State{
		0: {Buttons: input.Buttons(input.ButtonA).With(input.ButtonB).With(input.ButtonDPadUp)},
		2: {LeftStick: input.Stick{X: 1, Y: -0.5}},
	}}
	win := window.NewHeadless(4, 4)
	r := &countingRenderer{}
	cfg := testConfig()
	cfg.Renderer = r
	cfg.Driver = d
	l := graphics.New(win, cfg)

	require.True(t, l.Tick())
	s := r.states[0]
	assert.Equal(t, 1+2+4, s.YOffset)
	assert.Equal(t, 8, s.XOffset)
	assert.Equal(t, input.Vibration{Low: 60000, High: 60000}, s.Rumble[0])
	assert.Equal(t, []vibeCall{{0, input.Vibration{Low: 60000, High: 60000}}}, d.vibes)

	// Releasing B sends one stop request, then nothing.
	d.states[0] = input.State{}
	d.vibes = nil
	require.True(t, l.Tick())
	require.True(t, l.Tick())
	assert.Equal(t, []vibeCall{{0, input.Vibration{}}}, d.vibes)

	d.states[3] = input.State{Buttons: input.Buttons(input.ButtonStart).With(input.ButtonBack)}
	assert.False(t, l.Tick())
	assert.Equal(t, "start+back", l.StopReason())
}

func TestLoopCloseStopsRumble(t *testing.T) {
	d := &padDriver{states: map[int]input.State{
		0: {Buttons: input.Buttons(input.ButtonB)},
	}}
	cfg := testConfig()
	cfg.Driver = d
	l := graphics.New(window.NewHeadless(4, 4), cfg)
	require.True(t, l.Tick())

	d.vibes = nil
	require.NoError(t, l.Close())
	assert.Equal(t, []vibeCall{{0, input.Vibration{}}}, d.vibes)
	assert.True(t, l.Framebuffer().Empty())
	assert.Equal(t, graphics.StateStopped, l.State())
}

func TestLoopKeyboard(t *testing.T) {
	win := window.NewHeadless(4, 4)
	r := &countingRenderer{}
	cfg := testConfig()
	cfg.Renderer = r
	cfg.Step = 0
	l := graphics.New(win, cfg)

	win.Queue(window.KeyPress(window.KeyW, false))
	require.True(t, l.Tick())
	assert.Equal(t, graphics.KeyStatePressed, l.KeyState(window.KeyW))

	win.Queue(window.KeyPress(window.KeyW, false))
	require.True(t, l.Tick())
	assert.Equal(t, graphics.KeyStateRepeated, l.KeyState(window.KeyW))

	require.True(t, l.Tick())
	assert.Equal(t, graphics.KeyStateDown, l.KeyState(window.KeyW))

	win.Queue(window.KeyRelease(window.KeyW))
	require.True(t, l.Tick())
	assert.Equal(t, graphics.KeyStateReleased, l.KeyState(window.KeyW))
	assert.False(t, l.KeyState(window.KeyW).IsDown())

	// Step 0 falls back to the default step of 1.
	assert.Equal(t, 3, r.states[2].YOffset)
	assert.Equal(t, 3, r.states[3].YOffset)

	win.Queue(window.KeyPress(window.KeySpace, false))
	require.True(t, l.Tick())
	assert.Equal(t, graphics.RunState{Frame: 4}, r.states[4])
	assert.Equal(t, graphics.KeyStateUp, l.KeyState(window.KeyUnknown))
}

func TestRunFrameLimit(t *testing.T) {
	win := window.NewHeadless(32, 16)
	cfg := testConfig()
	cfg.MaxFrames = 10
	l := graphics.New(win, cfg)

	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, "frame limit", l.StopReason())
	assert.Equal(t, uint64(10), l.RunState().Frame)
	assert.Equal(t, 10, win.Presents())

	img := win.LastFrame()
	require.NotNil(t, img)
	// The last frame rendered with XOffset 9.
	c := img.RGBAAt(1, 2)
	assert.Equal(t, uint8(10), c.B)
	assert.Equal(t, uint8(2), c.G)
	assert.Equal(t, uint8(0), c.R)
}

func TestRunPaced(t *testing.T) {
	cfg := testConfig()
	cfg.MaxFrames = 3
	cfg.FrameRate = 1000
	l := graphics.New(window.NewHeadless(4, 4), cfg)
	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, uint64(3), l.Stats().Rendered)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := graphics.New(window.NewHeadless(4, 4), testConfig())
	err := l.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, graphics.StateStopped, l.State())
	assert.Equal(t, uint64(1), l.Stats().Rendered)
}

func TestRunStopsOnClose(t *testing.T) {
	win := window.NewHeadless(4, 4)
	win.At(3, window.Event{Kind: window.EventClose})
	l := graphics.New(win, testConfig())

	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, "close", l.StopReason())
	assert.Equal(t, 3, win.Presents())
}

func TestStepEnforcesFrameLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxFrames = 3
	l := graphics.New(window.NewHeadless(4, 4), cfg)

	ctx := context.Background()
	assert.True(t, l.Step(ctx))
	assert.True(t, l.Step(ctx))
	assert.False(t, l.Step(ctx))
	assert.Equal(t, "frame limit", l.StopReason())
	assert.False(t, l.Step(ctx))
	assert.Equal(t, uint64(3), l.Stats().Rendered)
}

func TestStepStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := graphics.New(window.NewHeadless(4, 4), testConfig())

	assert.True(t, l.Step(ctx))
	cancel()
	assert.False(t, l.Step(ctx))
	assert.Equal(t, "cancelled", l.StopReason())
	assert.Equal(t, graphics.StateStopped, l.State())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", graphics.StateRunning.String())
	assert.Equal(t, "stopped", graphics.StateStopped.String())
}
