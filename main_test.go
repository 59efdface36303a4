package main

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyrange/blitwin/internal/framebuffer"
	"github.com/tinyrange/blitwin/internal/graphics"
	"github.com/tinyrange/blitwin/internal/window"
)

func TestRunHeadlessScreenshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	err := run(context.Background(), options{
		backend:    backendHeadless,
		width:      64,
		height:     32,
		frames:     5,
		screenshot: path,
	})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())

	// Frame 4 was rendered with XOffset 4.
	r, g, b, a := img.At(10, 3).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, uint32(3*0x101), g)
	assert.Equal(t, uint32(14*0x101), b)
	assert.Equal(t, uint32(0xffff), a)
}

func TestRunUnknownBackend(t *testing.T) {
	err := run(context.Background(), options{backend: "vulkan", width: 8, height: 8})
	assert.ErrorContains(t, err, `unknown backend "vulkan"`)
}

func TestRootCommandPrintsErrorsOnce(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--backend", "vulkan"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		opts = options{}
	})

	err := rootCmd.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, `unknown backend "vulkan"`)
	assert.Empty(t, out.String())
}

var errFree = errors.New("free failed")

// leakyProvider allocates from the heap but cannot release.
type leakyProvider struct{}

func (leakyProvider) Alloc(n int) ([]byte, error) { return make([]byte, n), nil }
func (leakyProvider) Free([]byte) error { return errFree }

func TestCloseLoopReportsReleaseFailure(t *testing.T) {
	newLoop := func() *graphics.Loop {
		cfg := graphics.DefaultConfig()
		cfg.Width, cfg.Height = 4, 4
		cfg.Provider = leakyProvider{}
		return graphics.New(window.NewHeadless(4, 4), cfg)
	}

	err := closeLoop(newLoop(), nil)
	assert.ErrorIs(t, err, errFree)
	assert.ErrorContains(t, err, "release framebuffer")

	// An earlier failure wins over the release error.
	runErr := errors.New("render failed")
	assert.Equal(t, runErr, closeLoop(newLoop(), runErr))

	clean := graphics.New(window.NewHeadless(4, 4), graphics.Config{Provider: framebuffer.HeapProvider()})
	assert.NoError(t, closeLoop(clean, nil))
}
