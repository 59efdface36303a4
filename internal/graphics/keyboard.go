package graphics

import "github.com/tinyrange/blitwin/internal/window"

type KeyState int

const (
	// The key was pressed this frame
	KeyStatePressed KeyState = iota
	// The key is currently down
	KeyStateDown
	// The key was released this frame
	KeyStateReleased
	// The key is currently up
	KeyStateUp
	// The key is being held down (repeated)
	KeyStateRepeated
)

func (ks KeyState) IsDown() bool {
	return ks == KeyStatePressed || ks == KeyStateDown || ks == KeyStateRepeated
}

const keyCount = int(window.KeySpace) + 1

// keyboard folds key events into per-frame key states.
type keyboard struct {
	down     [keyCount]bool
	pressed  [keyCount]bool
	released [keyCount]bool
	repeated [keyCount]bool
}

// beginFrame clears the edge flags from the previous frame.
func (k *keyboard) beginFrame() {
	k.pressed = [keyCount]bool{}
	k.released = [keyCount]bool{}
	k.repeated = [keyCount]bool{}
}

func (k *keyboard) apply(ev window.Event) {
	i := int(ev.Key)
	if i <= 0 || i >= keyCount {
		return
	}
	switch {
	case ev.Down && k.down[i]:
		k.repeated[i] = true
	case ev.Down:
		k.down[i] = true
		k.pressed[i] = true
	case k.down[i]:
		k.down[i] = false
		k.released[i] = true
	}
}

func (k *keyboard) state(key window.Key) KeyState {
	i := int(key)
	if i <= 0 || i >= keyCount {
		return KeyStateUp
	}
	switch {
	case k.pressed[i]:
		return KeyStatePressed
	case k.released[i]:
		return KeyStateReleased
	case k.repeated[i]:
		return KeyStateRepeated
	case k.down[i]:
		return KeyStateDown
	}
	return KeyStateUp
}
