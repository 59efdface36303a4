//go:build linux || darwin

package input

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/ebitengine/purego"
)

const (
	sdlInitGameController = 0x00002000

	sdlButtonA             = 0
	sdlButtonB             = 1
	sdlButtonX             = 2
	sdlButtonY             = 3
	sdlButtonBack          = 4
	sdlButtonStart         = 6
	sdlButtonLeftShoulder  = 9
	sdlButtonRightShoulder = 10
	sdlButtonDPadUp        = 11
	sdlButtonDPadDown      = 12
	sdlButtonDPadLeft      = 13
	sdlButtonDPadRight     = 14

	sdlAxisLeftX = 0
	sdlAxisLeftY = 1

	// Long enough to bridge two ticks; every tick refreshes the request.
	rumbleMillis = 100
)

var libraryCandidates = sdlCandidates()

func sdlCandidates() []string {
	if runtime.GOOS == "darwin" {
		return []string{"libSDL2-2.0.0.dylib", "libSDL2.dylib"}
	}
	return []string{"libSDL2-2.0.so.0", "libSDL2.so"}
}

var sdlButtons = [...]struct {
	id  int32
	btn Button
}{
	{sdlButtonA, ButtonA},
	{sdlButtonB, ButtonB},
	{sdlButtonX, ButtonX},
	{sdlButtonY, ButtonY},
	{sdlButtonLeftShoulder, ButtonLeftShoulder},
	{sdlButtonRightShoulder, ButtonRightShoulder},
	{sdlButtonDPadUp, ButtonDPadUp},
	{sdlButtonDPadDown, ButtonDPadDown},
	{sdlButtonDPadLeft, ButtonDPadLeft},
	{sdlButtonDPadRight, ButtonDPadRight},
	{sdlButtonStart, ButtonStart},
	{sdlButtonBack, ButtonBack},
}

// sdlDriver reads controllers through the SDL2 GameController API. Slot n
// is joystick index n.
type sdlDriver struct {
	initSystem    func(uint32) int32
	getError      func() string
	numJoysticks  func() int32
	isController  func(int32) int32
	open          func(int32) uintptr
	update        func()
	attached      func(uintptr) int32
	button        func(uintptr, int32) uint8
	axis          func(uintptr, int32) int16
	rumble        func(uintptr, uint16, uint16, uint32) int32
	closeControls func(uintptr)

	controllers [MaxSlots]uintptr
}

func openLibrary(name string) (Driver, error) {
	lib, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, err
	}

	d := &sdlDriver{}
	syms := []struct {
		fn   any
		name string
	}{
		{&d.initSystem, "SDL_Init"},
		{&d.getError, "SDL_GetError"},
		{&d.numJoysticks, "SDL_NumJoysticks"},
		{&d.isController, "SDL_IsGameController"},
		{&d.open, "SDL_GameControllerOpen"},
		{&d.update, "SDL_GameControllerUpdate"},
		{&d.attached, "SDL_GameControllerGetAttached"},
		{&d.button, "SDL_GameControllerGetButton"},
		{&d.axis, "SDL_GameControllerGetAxis"},
		{&d.rumble, "SDL_GameControllerRumble"},
		{&d.closeControls, "SDL_GameControllerClose"},
	}
	for _, s := range syms {
		if _, err := purego.Dlsym(lib, s.name); err != nil {
			purego.Dlclose(lib)
			return nil, fmt.Errorf("missing symbol %q: %w", s.name, err)
		}
		purego.RegisterLibFunc(s.fn, lib, s.name)
	}

	if d.initSystem(sdlInitGameController) != 0 {
		err := errors.New(d.getError())
		purego.Dlclose(lib)
		return nil, fmt.Errorf("SDL_Init: %w", err)
	}
	return d, nil
}

// controller returns the open handle for slot, opening it on first use and
// dropping it once the device is unplugged.
func (d *sdlDriver) controller(slot int) uintptr {
	if slot < 0 || slot >= MaxSlots {
		return 0
	}
	c := d.controllers[slot]
	if c != 0 && d.attached(c) == 0 {
		d.closeControls(c)
		c = 0
	}
	if c == 0 && int32(slot) < d.numJoysticks() && d.isController(int32(slot)) != 0 {
		c = d.open(int32(slot))
	}
	d.controllers[slot] = c
	return c
}

func (d *sdlDriver) State(slot int) (State, error) {
	d.update()
	c := d.controller(slot)
	if c == 0 {
		return State{}, ErrNotConnected
	}

	var st State
	for _, b := range sdlButtons {
		if d.button(c, b.id) != 0 {
			st.Buttons = st.Buttons.With(b.btn)
		}
	}
	st.LeftStick = Stick{
		X: normaliseAxis(d.axis(c, sdlAxisLeftX), xinputLeftThumbDeadzone),
		Y: -normaliseAxis(d.axis(c, sdlAxisLeftY), xinputLeftThumbDeadzone),
	}
	return st, nil
}

func (d *sdlDriver) Vibrate(slot int, v Vibration) error {
	c := d.controller(slot)
	if c == 0 {
		return ErrNotConnected
	}
	if d.rumble(c, v.Low, v.High, rumbleMillis) != 0 {
		return fmt.Errorf("SDL_GameControllerRumble(%d): %s", slot, d.getError())
	}
	return nil
}
