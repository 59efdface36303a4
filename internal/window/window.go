// Package window provides the OS windows the main loop draws into. Each
// platform file implements New; Headless works everywhere.
package window

import (
	"errors"

	"github.com/tinyrange/blitwin/internal/present"
)

// ErrUnsupported is returned by New on platforms without a native window.
var ErrUnsupported = errors.New("window: no native window on this platform")

type Window interface {
	present.Surface

	// Drain appends every pending event to dst without blocking.
	Drain(dst []Event) []Event
	// ClientSize is the drawable area in pixels.
	ClientSize() (width, height int)
	Close()
}
