//go:build cgo || windows

package ebitenhost

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/tinyrange/blitwin/internal/input"
)

const (
	axisDeadzone   = 0.24
	rumbleDuration = 100 * time.Millisecond
)

var standardButtons = [...]struct {
	sb  ebiten.StandardGamepadButton
	btn input.Button
}{
	{ebiten.StandardGamepadButtonRightBottom, input.ButtonA},
	{ebiten.StandardGamepadButtonRightRight, input.ButtonB},
	{ebiten.StandardGamepadButtonRightLeft, input.ButtonX},
	{ebiten.StandardGamepadButtonRightTop, input.ButtonY},
	{ebiten.StandardGamepadButtonFrontTopLeft, input.ButtonLeftShoulder},
	{ebiten.StandardGamepadButtonFrontTopRight, input.ButtonRightShoulder},
	{ebiten.StandardGamepadButtonLeftTop, input.ButtonDPadUp},
	{ebiten.StandardGamepadButtonLeftBottom, input.ButtonDPadDown},
	{ebiten.StandardGamepadButtonLeftLeft, input.ButtonDPadLeft},
	{ebiten.StandardGamepadButtonLeftRight, input.ButtonDPadRight},
	{ebiten.StandardGamepadButtonCenterRight, input.ButtonStart},
	{ebiten.StandardGamepadButtonCenterLeft, input.ButtonBack},
}

// Gamepads is an input.Driver over ebiten's gamepad API. Slot n is the
// n-th connected gamepad. It only works while ebiten is running a game.
type Gamepads struct {
	ids []ebiten.GamepadID
}

func NewGamepads() *Gamepads { return &Gamepads{} }

func (g *Gamepads) id(slot int) (ebiten.GamepadID, error) {
	g.ids = ebiten.AppendGamepadIDs(g.ids[:0])
	if slot < 0 || slot >= len(g.ids) {
		return 0, input.ErrNotConnected
	}
	id := g.ids[slot]
	if !ebiten.IsStandardGamepadLayoutAvailable(id) {
		return 0, fmt.Errorf("gamepad %q has no standard layout: %w", ebiten.GamepadName(id), input.ErrNotConnected)
	}
	return id, nil
}

func (g *Gamepads) State(slot int) (input.State, error) {
	id, err := g.id(slot)
	if err != nil {
		return input.State{}, err
	}

	var st input.State
	for _, b := range standardButtons {
		if ebiten.IsStandardGamepadButtonPressed(id, b.sb) {
			st.Buttons = st.Buttons.With(b.btn)
		}
	}
	st.LeftStick = input.Stick{
		X: deadzone(ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)),
		Y: -deadzone(ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)),
	}
	return st, nil
}

func (g *Gamepads) Vibrate(slot int, v input.Vibration) error {
	id, err := g.id(slot)
	if err != nil {
		return err
	}
	ebiten.VibrateGamepad(id, &ebiten.VibrateGamepadOptions{
		Duration:        rumbleDuration,
		StrongMagnitude: float64(v.Low) / 65535,
		WeakMagnitude:   float64(v.High) / 65535,
	})
	return nil
}

func deadzone(v float64) float32 {
	if v > -axisDeadzone && v < axisDeadzone {
		return 0
	}
	return float32(v)
}
