// Package present copies a framebuffer onto a display surface, stretching
// it to fill the surface.
package present

import (
	"fmt"

	"golang.org/x/image/draw"

	"github.com/tinyrange/blitwin/internal/framebuffer"
)

// Surface is the display side of a blit. Pixels arrive as top-down rows of
// 32-bit [B][G][R][pad] words, pitch bytes apart.
type Surface interface {
	Present(pixels []byte, width, height, pitch int) error
}

// Presenter owns the scratch buffer a stretched frame is scaled into.
type Presenter struct {
	scratch *framebuffer.Framebuffer
	scaler  draw.Scaler
}

// New returns a Presenter whose scratch memory comes from p.
func New(p framebuffer.Provider) *Presenter {
	return &Presenter{
		scratch: framebuffer.New(p),
		scaler:  draw.NearestNeighbor,
	}
}

// Blit presents fb on s at targetWidth x targetHeight. The x and y scale
// factors are independent, so the frame always fills the target.
//
// An empty framebuffer or target is a successful no-op. fb is not modified.
func (p *Presenter) Blit(fb *framebuffer.Framebuffer, s Surface, targetWidth, targetHeight int) error {
	if fb.Empty() || targetWidth <= 0 || targetHeight <= 0 {
		return nil
	}

	if fb.Width() == targetWidth && fb.Height() == targetHeight {
		return s.Present(fb.Bytes(), fb.Width(), fb.Height(), fb.Pitch())
	}

	if p.scratch.Width() != targetWidth || p.scratch.Height() != targetHeight {
		if err := p.scratch.Resize(targetWidth, targetHeight); err != nil {
			return fmt.Errorf("present: scratch buffer: %w", err)
		}
	}

	dst := p.scratch.RawImage()
	src := fb.RawImage()
	p.scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return s.Present(p.scratch.Bytes(), targetWidth, targetHeight, p.scratch.Pitch())
}

// Close releases the scratch buffer.
func (p *Presenter) Close() error {
	return p.scratch.Close()
}

