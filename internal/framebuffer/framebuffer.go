// Package framebuffer implements the CPU-writable pixel buffer that is
// rendered into every frame and then presented to a window.
//
// Pixels are 32-bit little-endian words laid out as bytes [B][G][R][pad],
// row-major and top-down. This is the layout both GDI (32-bit BI_RGB DIBs)
// and X11 (24-bit depth ZPixmap) accept without conversion.
package framebuffer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
)

// BytesPerPixel is fixed for every framebuffer.
const BytesPerPixel = 4

// MaxBytes bounds a framebuffer to what a DIB section can describe.
const MaxBytes = math.MaxInt32

var (
	// ErrInvalidSize is returned by Resize for negative dimensions or a
	// buffer larger than MaxBytes.
	ErrInvalidSize = errors.New("framebuffer: invalid size")
	// ErrAllocation is returned by Resize when the provider cannot supply memory.
	ErrAllocation = errors.New("framebuffer: allocation failed")
)

// Compression mirrors the BITMAPINFOHEADER biCompression field.
type Compression uint32

const (
	// CompressionRGB is an uncompressed bitmap (BI_RGB).
	CompressionRGB Compression = 0
)

// PixelFormat describes the memory layout handed to the display.
type PixelFormat struct {
	BitCount    uint16
	Compression Compression
	// TopDown is true when row 0 is the topmost visible row. GDI expresses
	// this with a negative bitmap height.
	TopDown bool
}

// DIBHeight returns the height as a DIB header would record it.
func (f PixelFormat) DIBHeight(height int) int32 {
	if f.TopDown {
		return -int32(height)
	}
	return int32(height)
}

// Format is the only pixel format a Framebuffer uses.
var Format = PixelFormat{
	BitCount:    BytesPerPixel * 8,
	Compression: CompressionRGB,
	TopDown:     true,
}

// Framebuffer owns one region of pixel memory obtained from a Provider.
// The zero size is valid and means the buffer is empty.
type Framebuffer struct {
	provider Provider

	width  int
	height int
	pitch  int
	memory []byte
}

// New returns an empty framebuffer that will take memory from p. A nil
// provider selects PageProvider.
func New(p Provider) *Framebuffer {
	if p == nil {
		p = PageProvider()
	}
	return &Framebuffer{provider: p}
}

// Resize releases the current memory and allocates width*height*4 bytes.
//
// If the allocation fails the framebuffer is left empty and the error is
// returned; it never keeps the previous memory around.
func (fb *Framebuffer) Resize(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if width > 0 && height > MaxBytes/BytesPerPixel/width {
		return fmt.Errorf("%w: %dx%d exceeds %d bytes", ErrInvalidSize, width, height, MaxBytes)
	}

	if err := fb.release(); err != nil {
		return err
	}

	size := width * height * BytesPerPixel
	if size == 0 {
		fb.width, fb.height, fb.pitch = width, height, width*BytesPerPixel
		return nil
	}

	mem, err := fb.provider.Alloc(size)
	if err != nil {
		return fmt.Errorf("%w: %dx%d (%d bytes): %w", ErrAllocation, width, height, size, err)
	}
	if len(mem) != size {
		_ = fb.provider.Free(mem)
		return fmt.Errorf("%w: provider returned %d bytes, want %d", ErrAllocation, len(mem), size)
	}

	fb.memory = mem
	fb.width = width
	fb.height = height
	fb.pitch = width * BytesPerPixel
	return nil
}

func (fb *Framebuffer) release() error {
	mem := fb.memory
	fb.memory = nil
	fb.width, fb.height, fb.pitch = 0, 0, 0
	if mem == nil {
		return nil
	}
	if err := fb.provider.Free(mem); err != nil {
		return fmt.Errorf("framebuffer: release: %w", err)
	}
	return nil
}

// Close releases the memory. The framebuffer may be resized again afterwards.
func (fb *Framebuffer) Close() error {
	return fb.release()
}

func (fb *Framebuffer) Width() int  { return fb.width }
func (fb *Framebuffer) Height() int { return fb.height }
func (fb *Framebuffer) Pitch() int  { return fb.pitch }

// Len is the size of the pixel memory in bytes.
func (fb *Framebuffer) Len() int { return len(fb.memory) }

// Bytes exposes the pixel memory. The slice is invalidated by Resize and Close.
func (fb *Framebuffer) Bytes() []byte { return fb.memory }

// Format returns the pixel format descriptor.
func (fb *Framebuffer) Format() PixelFormat { return Format }

// Empty reports whether there is nothing to render or present.
func (fb *Framebuffer) Empty() bool {
	return fb.width == 0 || fb.height == 0 || len(fb.memory) == 0
}

// PixelOffset returns the byte offset of pixel (x, y). The caller must keep
// 0 <= x < Width() and 0 <= y < Height().
func (fb *Framebuffer) PixelOffset(x, y int) int {
	return y*fb.pitch + x*BytesPerPixel
}

// SetPixel stores a 0xPPRRGGBB word at (x, y).
func (fb *Framebuffer) SetPixel(x, y int, v uint32) {
	off := fb.PixelOffset(x, y)
	binary.LittleEndian.PutUint32(fb.memory[off:off+BytesPerPixel], v)
}

// Pixel reads the 0xPPRRGGBB word at (x, y).
func (fb *Framebuffer) Pixel(x, y int) uint32 {
	off := fb.PixelOffset(x, y)
	return binary.LittleEndian.Uint32(fb.memory[off : off+BytesPerPixel])
}

// Row returns the bytes of row y.
func (fb *Framebuffer) Row(y int) []byte {
	off := y * fb.pitch
	return fb.memory[off : off+fb.pitch]
}

// RawImage wraps the memory in an *image.RGBA without copying. The channel
// names do not match the byte order (R holds blue), so the view is only
// suitable for byte-exact operations such as nearest-neighbour scaling.
func (fb *Framebuffer) RawImage() *image.RGBA {
	return &image.RGBA{
		Pix:    fb.memory,
		Stride: fb.pitch,
		Rect:   image.Rect(0, 0, fb.width, fb.height),
	}
}

// ToRGBA converts the buffer into an opaque RGBA image.
func (fb *Framebuffer) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
	SwizzleToRGBA(img.Pix, fb.memory)
	return img
}

// SwizzleToRGBA converts B,G,R,X pixels in src into R,G,B,A pixels in dst
// with alpha forced to 0xff. Both slices hold whole pixels; the shorter
// one bounds the conversion.
func SwizzleToRGBA(dst, src []byte) {
	n := min(len(dst), len(src))
	n -= n % BytesPerPixel
	for i := 0; i < n; i += BytesPerPixel {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = 0xff
	}
}
