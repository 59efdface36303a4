//go:build cgo || windows

// Package ebitenhost runs the frame loop inside an ebiten game, for
// platforms where the native window layer is unavailable.
package ebitenhost

import (
	"context"
	"errors"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/tinyrange/blitwin/internal/framebuffer"
	"github.com/tinyrange/blitwin/internal/graphics"
	"github.com/tinyrange/blitwin/internal/window"
)

// Available reports whether this build can open an ebiten window.
const Available = true

// Run opens a window and steps a loop built from cfg once per ebiten
// update until the loop stops, its frame limit is reached or ctx is done.
// A nil cfg.Driver selects ebiten's gamepads.
func Run(ctx context.Context, title string, cfg graphics.Config) (*graphics.Loop, error) {
	if cfg.Driver == nil {
		cfg.Driver = NewGamepads()
	}
	h := &host{width: cfg.Width, height: cfg.Height}
	loop := graphics.New(h, cfg)

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)
	if cfg.FrameRate > 0 {
		ebiten.SetTPS(cfg.FrameRate)
	} else {
		ebiten.SetTPS(ebiten.SyncWithFPS)
	}

	err := ebiten.RunGame(&game{ctx: ctx, h: h, loop: loop, poll: h.poll})
	if errors.Is(err, ebiten.Termination) {
		err = ctx.Err()
	}
	return loop, err
}

// host is the graphics.Window side of the game.
type host struct {
	width, height int
	pending       []window.Event

	img  *ebiten.Image
	rgba []byte
	keys []ebiten.Key
}

func (h *host) Drain(dst []window.Event) []window.Event {
	dst = append(dst, h.pending...)
	h.pending = h.pending[:0]
	return dst
}

func (h *host) ClientSize() (int, int) { return h.width, h.height }

// Present converts the frame to RGBA and uploads it; Draw shows it.
func (h *host) Present(pixels []byte, width, height, pitch int) error {
	if width == 0 || height == 0 {
		return nil
	}
	h.toRGBA(pixels, width, height, pitch)
	if h.img == nil || h.img.Bounds().Dx() != width || h.img.Bounds().Dy() != height {
		if h.img != nil {
			h.img.Deallocate()
		}
		h.img = ebiten.NewImage(width, height)
	}
	h.img.WritePixels(h.rgba)
	return nil
}

// toRGBA fills h.rgba with the tightly packed RGBA form of a BGRX frame
// whose rows are pitch bytes apart.
func (h *host) toRGBA(pixels []byte, width, height, pitch int) {
	row := width * framebuffer.BytesPerPixel
	n := row * height
	if cap(h.rgba) < n {
		h.rgba = make([]byte, n)
	}
	h.rgba = h.rgba[:n]
	for y := 0; y < height; y++ {
		framebuffer.SwizzleToRGBA(h.rgba[y*row:(y+1)*row], pixels[y*pitch:y*pitch+row])
	}
}

// poll queues a close request and the key transitions of this update.
func (h *host) poll() {
	if ebiten.IsWindowBeingClosed() {
		h.pending = append(h.pending, window.Event{Kind: window.EventClose})
	}
	alt := ebiten.IsKeyPressed(ebiten.KeyAlt)
	h.keys = inpututil.AppendJustPressedKeys(h.keys[:0])
	for _, k := range h.keys {
		h.pending = append(h.pending, window.KeyPress(translateKey(k), alt))
	}
	h.keys = inpututil.AppendJustReleasedKeys(h.keys[:0])
	for _, k := range h.keys {
		h.pending = append(h.pending, window.KeyRelease(translateKey(k)))
	}
}

type game struct {
	ctx  context.Context
	h    *host
	loop *graphics.Loop
	poll func()
}

func (g *game) Update() error {
	if g.poll != nil {
		g.poll()
	}
	if !g.loop.Step(g.ctx) {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.h.img != nil {
		screen.DrawImage(g.h.img, nil)
	}
}

// Layout keeps one framebuffer pixel per window pixel and turns size
// changes into resize events.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.h.width || outsideHeight != g.h.height {
		g.h.width, g.h.height = outsideWidth, outsideHeight
		g.h.pending = append(g.h.pending, window.Resize(outsideWidth, outsideHeight))
	}
	return outsideWidth, outsideHeight
}

func translateKey(k ebiten.Key) window.Key {
	switch k {
	case ebiten.KeyEscape:
		return window.KeyEscape
	case ebiten.KeyF4:
		return window.KeyF4
	case ebiten.KeyArrowUp:
		return window.KeyUp
	case ebiten.KeyArrowDown:
		return window.KeyDown
	case ebiten.KeyArrowLeft:
		return window.KeyLeft
	case ebiten.KeyArrowRight:
		return window.KeyRight
	case ebiten.KeyW:
		return window.KeyW
	case ebiten.KeyA:
		return window.KeyA
	case ebiten.KeyS:
		return window.KeyS
	case ebiten.KeyD:
		return window.KeyD
	case ebiten.KeySpace:
		return window.KeySpace
	}
	return window.KeyUnknown
}
