package input

// XInput wButtons bits.
const (
	xinputDPadUp        = 0x0001
	xinputDPadDown      = 0x0002
	xinputDPadLeft      = 0x0004
	xinputDPadRight     = 0x0008
	xinputStart         = 0x0010
	xinputBack          = 0x0020
	xinputLeftShoulder  = 0x0100
	xinputRightShoulder = 0x0200
	xinputA             = 0x1000
	xinputB             = 0x2000
	xinputX             = 0x4000
	xinputY             = 0x8000

	// XINPUT_GAMEPAD_LEFT_THUMB_DEADZONE
	xinputLeftThumbDeadzone = 7849
)

var xinputButtons = [...]struct {
	mask uint16
	btn  Button
}{
	{xinputA, ButtonA},
	{xinputB, ButtonB},
	{xinputX, ButtonX},
	{xinputY, ButtonY},
	{xinputLeftShoulder, ButtonLeftShoulder},
	{xinputRightShoulder, ButtonRightShoulder},
	{xinputDPadUp, ButtonDPadUp},
	{xinputDPadDown, ButtonDPadDown},
	{xinputDPadLeft, ButtonDPadLeft},
	{xinputDPadRight, ButtonDPadRight},
	{xinputStart, ButtonStart},
	{xinputBack, ButtonBack},
}

// xinputGamepad mirrors XINPUT_GAMEPAD.
type xinputGamepad struct {
	Buttons      uint16
	LeftTrigger  uint8
	RightTrigger uint8
	ThumbLX      int16
	ThumbLY      int16
	ThumbRX      int16
	ThumbRY      int16
}

func (g xinputGamepad) state() State {
	var st State
	for _, b := range xinputButtons {
		if g.Buttons&b.mask != 0 {
			st.Buttons = st.Buttons.With(b.btn)
		}
	}
	st.LeftStick = Stick{
		X: normaliseAxis(g.ThumbLX, xinputLeftThumbDeadzone),
		Y: normaliseAxis(g.ThumbLY, xinputLeftThumbDeadzone),
	}
	return st
}

// normaliseAxis maps a signed 16-bit axis onto [-1, 1], treating values
// inside the deadzone as centred.
func normaliseAxis(v int16, deadzone int16) float32 {
	if v > -deadzone && v < deadzone {
		return 0
	}
	if v < 0 {
		return float32(v) / 32768
	}
	return float32(v) / 32767
}
