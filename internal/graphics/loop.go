package graphics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tinyrange/blitwin/internal/framebuffer"
	"github.com/tinyrange/blitwin/internal/input"
	"github.com/tinyrange/blitwin/internal/present"
	"github.com/tinyrange/blitwin/internal/window"
)

// Config controls a Loop. The zero value of every field except Renderer,
// Driver and Logger means "use the default".
type Config struct {
	// Width and Height size the framebuffer until the first resize event.
	Width, Height int
	// Slots is the number of gamepad slots sampled each tick.
	Slots int
	// Step is how far XOffset advances per tick.
	Step int
	// FrameRate paces Run to a fixed timestep; 0 free-runs.
	FrameRate int
	// MaxFrames stops Run after that many ticks; 0 means no limit.
	MaxFrames uint64
	// ExitOnEscape makes Escape stop the loop. Alt+F4 always does.
	ExitOnEscape bool

	Provider framebuffer.Provider
	Renderer Renderer
	Driver   input.Driver
	Logger   *slog.Logger
}

// DefaultConfig returns the settings used by the command line.
func DefaultConfig() Config {
	return Config{
		Width:  1280,
		Height: 720,
		Slots:  input.MaxSlots,
		Step:   1,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.Slots <= 0 {
		c.Slots = d.Slots
	}
	if c.Step == 0 {
		c.Step = d.Step
	}
	if c.Renderer == nil {
		c.Renderer = Gradient{}
	}
	if c.Driver == nil {
		c.Driver = input.Stub{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Loop owns the framebuffer, presenter, poller and run state. It must be
// driven from a single goroutine.
type Loop struct {
	cfg       Config
	win       Window
	fb        *framebuffer.Framebuffer
	presenter *present.Presenter
	poller    *input.Poller
	renderer  Renderer
	log       *slog.Logger

	state  State
	reason string
	run    RunState
	keys   keyboard
	stats  Stats

	events []window.Event
	snaps  []input.Snapshot
}

// New prepares a loop over win. A failure to allocate the initial
// framebuffer is logged and leaves it empty until the next resize.
func New(win Window, cfg Config) *Loop {
	cfg = cfg.withDefaults()
	l := &Loop{
		cfg:       cfg,
		win:       win,
		fb:        framebuffer.New(cfg.Provider),
		presenter: present.New(cfg.Provider),
		poller:    input.NewPoller(cfg.Driver, cfg.Slots, cfg.Logger),
		renderer:  cfg.Renderer,
		log:       cfg.Logger,
		state:     StateRunning,
	}
	l.resize(cfg.Width, cfg.Height)
	return l
}

func (l *Loop) State() State { return l.state }

// StopReason describes what stopped the loop.
func (l *Loop) StopReason() string { return l.reason }

// RunState returns a copy of the current run state.
func (l *Loop) RunState() RunState { return l.run }

func (l *Loop) Stats() Stats { return l.stats }

// Framebuffer exposes the buffer rendered each tick.
func (l *Loop) Framebuffer() *framebuffer.Framebuffer { return l.fb }

// KeyState reports the state of key during the current tick.
func (l *Loop) KeyState(key window.Key) KeyState { return l.keys.state(key) }

// Stop moves the loop to StateStopped. Later calls keep the first reason.
func (l *Loop) Stop(reason string) {
	if l.state == StateStopped {
		return
	}
	l.state = StateStopped
	l.reason = reason
	l.log.Info("loop stopped", "reason", reason, "frame", l.run.Frame)
}

// Tick runs one iteration: drain events, sample input, render, present,
// advance. It returns false once the loop is stopped, in which case no
// rendering or presenting happened.
func (l *Loop) Tick() bool {
	if l.state == StateStopped {
		return false
	}
	l.stats.Ticks++

	l.keys.beginFrame()
	l.events = l.win.Drain(l.events[:0])
	for _, ev := range l.events {
		l.handle(ev)
	}
	if l.state == StateStopped {
		return false
	}

	l.applyKeyboard()
	l.applyGamepads()
	if l.state == StateStopped {
		return false
	}

	l.renderer.Render(l.fb, l.run)
	l.stats.Rendered++

	l.present()

	l.run.XOffset += l.cfg.Step
	l.run.Frame++
	return true
}

const reasonCancelled = "cancelled"

// Step runs one Tick, then stops the loop once the frame limit is reached
// or ctx is done. Hosts that own their own event loop call Step instead
// of Run.
func (l *Loop) Step(ctx context.Context) bool {
	if !l.Tick() {
		return false
	}
	if l.cfg.MaxFrames > 0 && l.run.Frame >= l.cfg.MaxFrames {
		l.Stop("frame limit")
		return false
	}
	if ctx.Err() != nil {
		l.Stop(reasonCancelled)
		return false
	}
	return true
}

// Run steps until the loop stops or ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	var period time.Duration
	if l.cfg.FrameRate > 0 {
		period = time.Second / time.Duration(l.cfg.FrameRate)
	}
	next := time.Now()

	for l.Step(ctx) {
		if period == 0 {
			continue
		}

		next = next.Add(period)
		wait := time.Until(next)
		if wait <= 0 {
			// Running behind: drop the debt instead of bursting to catch up.
			next = time.Now()
			continue
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			l.Stop(reasonCancelled)
		case <-t.C:
		}
	}
	if l.reason == reasonCancelled {
		return ctx.Err()
	}
	return nil
}

// Close stops any rumble still requested and releases pixel memory.
func (l *Loop) Close() error {
	l.Stop("closed")
	for slot, v := range l.run.Rumble {
		if v != (input.Vibration{}) {
			l.poller.Rumble(slot, input.Vibration{})
			l.run.Rumble[slot] = input.Vibration{}
		}
	}
	return errors.Join(l.fb.Close(), l.presenter.Close())
}

func (l *Loop) handle(ev window.Event) {
	switch ev.Kind {
	case window.EventResize:
		l.resize(ev.Width, ev.Height)
	case window.EventClose, window.EventDestroy, window.EventQuit:
		l.Stop(ev.Kind.String())
	case window.EventPaint:
		if l.state == StateRunning {
			l.present()
		}
	case window.EventKey:
		l.keys.apply(ev)
		if !ev.Down {
			return
		}
		if ev.Key == window.KeyF4 && ev.Alt {
			l.Stop("alt+f4")
		}
		if ev.Key == window.KeyEscape && l.cfg.ExitOnEscape {
			l.Stop("escape")
		}
	}
}

func (l *Loop) resize(width, height int) {
	l.stats.Resizes++
	if err := l.fb.Resize(width, height); err != nil {
		l.stats.ResizeErrors++
		l.log.Warn("framebuffer resize failed, rendering nothing until the next resize",
			"width", width, "height", height, "err", err)
		return
	}
	l.log.Debug("framebuffer resized", "width", width, "height", height, "bytes", l.fb.Len())
}

func (l *Loop) present() {
	if l.fb.Empty() {
		return
	}
	w, h := l.win.ClientSize()
	if err := l.presenter.Blit(l.fb, l.win, w, h); err != nil {
		l.stats.PresentErrors++
		if l.stats.PresentErrors == 1 {
			l.log.Warn("present failed", "err", err)
		} else {
			l.log.Debug("present failed", "err", err)
		}
		return
	}
	if w > 0 && h > 0 {
		l.stats.Presented++
	}
}
