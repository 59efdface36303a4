package input

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoDriver is returned by platforms that have no live driver at all.
var ErrNoDriver = errors.New("input: no gamepad driver for this platform")

// Opener loads the driver library called name.
type Opener func(name string) (Driver, error)

// Resolve tries each candidate once, newest first, and returns the first
// driver that opens. When every candidate fails it returns Stub; there is
// no later retry.
func Resolve(candidates []string, open Opener, log *slog.Logger) Driver {
	if log == nil {
		log = slog.Default()
	}
	var errs []error
	for _, name := range candidates {
		d, err := open(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		log.Info("gamepad driver loaded", "library", name)
		return d
	}
	log.Info("gamepad driver unavailable, controllers report disconnected", "err", errors.Join(errs...))
	return Stub{}
}

// Load resolves the platform's live driver.
func Load(log *slog.Logger) Driver {
	return Resolve(libraryCandidates, openLibrary, log)
}
