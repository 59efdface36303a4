//go:build windows

package input

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const errorDeviceNotConnected = 1167

// Newest first; xinput9_1_0 ships with every Windows since Vista.
var libraryCandidates = []string{"xinput1_4.dll", "xinput9_1_0.dll", "xinput1_3.dll"}

// xinputState mirrors XINPUT_STATE.
type xinputState struct {
	PacketNumber uint32
	Gamepad      xinputGamepad
}

// xinputVibration mirrors XINPUT_VIBRATION.
type xinputVibration struct {
	LeftMotorSpeed  uint16
	RightMotorSpeed uint16
}

type xinputDriver struct {
	getState *windows.LazyProc
	setState *windows.LazyProc
}

func openLibrary(name string) (Driver, error) {
	dll := windows.NewLazySystemDLL(name)
	if err := dll.Load(); err != nil {
		return nil, err
	}
	d := &xinputDriver{
		getState: dll.NewProc("XInputGetState"),
		setState: dll.NewProc("XInputSetState"),
	}
	for _, p := range []*windows.LazyProc{d.getState, d.setState} {
		if err := p.Find(); err != nil {
			return nil, fmt.Errorf("missing procedure %q: %w", p.Name, err)
		}
	}
	return d, nil
}

func (d *xinputDriver) State(slot int) (State, error) {
	var st xinputState
	ret, _, _ := d.getState.Call(uintptr(slot), uintptr(unsafe.Pointer(&st)))
	switch ret {
	case 0:
		return st.Gamepad.state(), nil
	case errorDeviceNotConnected:
		return State{}, ErrNotConnected
	default:
		return State{}, fmt.Errorf("XInputGetState(%d): %w", slot, windows.Errno(ret))
	}
}

func (d *xinputDriver) Vibrate(slot int, v Vibration) error {
	vib := xinputVibration{LeftMotorSpeed: v.Low, RightMotorSpeed: v.High}
	ret, _, _ := d.setState.Call(uintptr(slot), uintptr(unsafe.Pointer(&vib)))
	if ret != 0 {
		return fmt.Errorf("XInputSetState(%d): %w", slot, windows.Errno(ret))
	}
	return nil
}
