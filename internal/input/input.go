// Package input samples gamepads through a Driver that is resolved once at
// startup. When no driver library can be loaded the Stub driver is used and
// every controller reads as disconnected.
package input

import (
	"errors"
	"log/slog"
)

// MaxSlots is the number of controller slots the poller samples.
const MaxSlots = 4

// ErrNotConnected is returned by Driver.State for an empty slot.
var ErrNotConnected = errors.New("input: controller not connected")

// Button is a bit in Buttons.
type Button uint16

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonX
	ButtonY
	ButtonLeftShoulder
	ButtonRightShoulder
	ButtonDPadUp
	ButtonDPadDown
	ButtonDPadLeft
	ButtonDPadRight
	ButtonStart
	ButtonBack
)

// Buttons is the set of buttons held during a sample.
type Buttons uint16

func (b Buttons) Has(btn Button) bool { return b&Buttons(btn) != 0 }

// With returns b with btn added.
func (b Buttons) With(btn Button) Buttons { return b | Buttons(btn) }

// Stick is a normalised analog stick position in [-1, 1]; +Y is up.
type Stick struct {
	X, Y float32
}

// State is what a driver reports for a connected controller.
type State struct {
	Buttons   Buttons
	LeftStick Stick
}

// Vibration holds force-feedback motor speeds.
type Vibration struct {
	Low  uint16
	High uint16
}

// Driver is the capability the poller depends on.
type Driver interface {
	// State returns the controller state, or ErrNotConnected.
	State(slot int) (State, error)
	// Vibrate sets the motor speeds for slot.
	Vibrate(slot int, v Vibration) error
}

// Snapshot is one slot's input for one tick.
type Snapshot struct {
	Connected bool
	State
}

// Stub is the driver used when no input library is available.
type Stub struct{}

func (Stub) State(int) (State, error)     { return State{}, ErrNotConnected }
func (Stub) Vibrate(int, Vibration) error { return nil }

// Poller samples controller slots and never reports a failure to its
// caller: an error from the driver is a disconnected slot.
type Poller struct {
	driver Driver
	slots  int
	log    *slog.Logger
}

// NewPoller wraps d. slots is clamped to [0, MaxSlots]; a nil driver is
// replaced by Stub.
func NewPoller(d Driver, slots int, log *slog.Logger) *Poller {
	if d == nil {
		d = Stub{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Poller{driver: d, slots: max(0, min(slots, MaxSlots)), log: log}
}

// Slots is the number of slots Sample accepts.
func (p *Poller) Slots() int { return p.slots }

// Driver returns the driver in use.
func (p *Poller) Driver() Driver { return p.driver }

// Sample reads one slot. Out of range slots and driver errors yield the
// zero Snapshot.
func (p *Poller) Sample(slot int) Snapshot {
	if slot < 0 || slot >= p.slots {
		return Snapshot{}
	}
	st, err := p.driver.State(slot)
	if err != nil {
		if !errors.Is(err, ErrNotConnected) {
			p.log.Debug("controller query failed", "slot", slot, "err", err)
		}
		return Snapshot{}
	}
	return Snapshot{Connected: true, State: st}
}

// SampleAll reads every slot into dst, reusing its storage.
func (p *Poller) SampleAll(dst []Snapshot) []Snapshot {
	dst = dst[:0]
	for slot := 0; slot < p.slots; slot++ {
		dst = append(dst, p.Sample(slot))
	}
	return dst
}

// Rumble drives the motors of slot. Failures are ignored.
func (p *Poller) Rumble(slot int, v Vibration) {
	if slot < 0 || slot >= p.slots {
		return
	}
	if err := p.driver.Vibrate(slot, v); err != nil {
		p.log.Debug("controller vibrate failed", "slot", slot, "err", err)
	}
}
