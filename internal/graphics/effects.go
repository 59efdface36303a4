package graphics

import (
	"github.com/tinyrange/blitwin/internal/input"
	"github.com/tinyrange/blitwin/internal/window"
)

const (
	// stickSpeed is the offset change per tick at full stick deflection.
	stickSpeed = 8

	rumbleSpeed = 60000
)

var rumbleOn = input.Vibration{Low: rumbleSpeed, High: rumbleSpeed}

// applyKeyboard scrolls with WASD or the arrow keys and recentres on Space.
func (l *Loop) applyKeyboard() {
	if l.keys.state(window.KeyW).IsDown() || l.keys.state(window.KeyUp).IsDown() {
		l.run.YOffset++
	}
	if l.keys.state(window.KeyS).IsDown() || l.keys.state(window.KeyDown).IsDown() {
		l.run.YOffset--
	}
	if l.keys.state(window.KeyA).IsDown() || l.keys.state(window.KeyLeft).IsDown() {
		l.run.XOffset++
	}
	if l.keys.state(window.KeyD).IsDown() || l.keys.state(window.KeyRight).IsDown() {
		l.run.XOffset--
	}
	if l.keys.state(window.KeySpace) == KeyStatePressed {
		l.run.XOffset, l.run.YOffset = 0, 0
	}
}

// applyGamepads samples every slot and folds the held buttons into the
// run state. Disconnected slots contribute nothing.
func (l *Loop) applyGamepads() {
	l.snaps = l.poller.SampleAll(l.snaps[:0])
	for slot, s := range l.snaps {
		var vib input.Vibration
		if s.Connected {
			b := s.Buttons
			if b.Has(input.ButtonDPadUp) {
				l.run.YOffset++
			}
			if b.Has(input.ButtonDPadDown) {
				l.run.YOffset--
			}
			if b.Has(input.ButtonDPadLeft) {
				l.run.XOffset++
			}
			if b.Has(input.ButtonDPadRight) {
				l.run.XOffset--
			}
			if b.Has(input.ButtonLeftShoulder) {
				l.run.XOffset -= l.cfg.Step
			}
			if b.Has(input.ButtonRightShoulder) {
				l.run.XOffset += l.cfg.Step
			}
			if b.Has(input.ButtonA) {
				l.run.YOffset += 2
			}
			if b.Has(input.ButtonB) {
				vib = rumbleOn
			}
			l.run.XOffset += int(s.LeftStick.X * stickSpeed)
			l.run.YOffset -= int(s.LeftStick.Y * stickSpeed)

			if b.Has(input.ButtonStart) && b.Has(input.ButtonBack) {
				l.Stop("start+back")
			}
		}

		// Drivers with timed rumble need the request refreshed while held.
		if vib != (input.Vibration{}) || l.run.Rumble[slot] != (input.Vibration{}) {
			l.poller.Rumble(slot, vib)
		}
		l.run.Rumble[slot] = vib
	}
}
