package graphics

import "github.com/tinyrange/blitwin/internal/framebuffer"

// Gradient is the reference renderer. Each pixel is (green<<8)|blue with
// blue = (x+XOffset)&0xff and green = (y+YOffset)&0xff; red and pad are 0.
type Gradient struct{}

func (Gradient) Render(fb *framebuffer.Framebuffer, s RunState) {
	if fb.Empty() {
		return
	}
	for y := 0; y < fb.Height(); y++ {
		row := fb.Row(y)
		green := byte(y + s.YOffset)
		for x := 0; x < fb.Width(); x++ {
			px := row[x*framebuffer.BytesPerPixel : (x+1)*framebuffer.BytesPerPixel]
			px[0] = byte(x + s.XOffset)
			px[1] = green
			px[2] = 0
			px[3] = 0
		}
	}
}
