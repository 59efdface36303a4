//go:build !linux && !windows

package window

// New has no native implementation here; use the ebiten or headless host.
func New(string, int, int) (Window, error) {
	return nil, ErrUnsupported
}
