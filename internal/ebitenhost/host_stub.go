//go:build !cgo && !windows

package ebitenhost

import (
	"context"
	"errors"

	"github.com/tinyrange/blitwin/internal/graphics"
)

// Available reports whether this build can open an ebiten window.
const Available = false

func Run(context.Context, string, graphics.Config) (*graphics.Loop, error) {
	return nil, errors.New("ebiten host requires cgo (build with CGO_ENABLED=1)")
}
