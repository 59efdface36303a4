package window

import "fmt"

// Key represents a keyboard key. Only the keys the loop reacts to are
// named; everything else arrives as KeyUnknown.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyF4
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyW
	KeyA
	KeyS
	KeyD
	KeySpace
)

// EventKind identifies what an Event carries.
type EventKind int

const (
	// EventResize reports a new client size in Width and Height.
	EventResize EventKind = iota + 1
	// EventClose is a user request to close the window.
	EventClose
	// EventDestroy means the window is gone.
	EventDestroy
	// EventQuit is the platform asking the application to exit.
	EventQuit
	// EventPaint asks for the current frame to be shown again.
	EventPaint
	// EventKey is a key transition.
	EventKey
)

func (k EventKind) String() string {
	switch k {
	case EventResize:
		return "resize"
	case EventClose:
		return "close"
	case EventDestroy:
		return "destroy"
	case EventQuit:
		return "quit"
	case EventPaint:
		return "paint"
	case EventKey:
		return "key"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

type Event struct {
	Kind EventKind

	Width, Height int

	Key  Key
	Down bool
	// Alt is set when the Alt modifier was held.
	Alt bool
}

func Resize(width, height int) Event { return Event{Kind: EventResize, Width: width, Height: height} }

// KeyPress is a key going down, with Alt held or not.
func KeyPress(k Key, alt bool) Event { return Event{Kind: EventKey, Key: k, Down: true, Alt: alt} }

func KeyRelease(k Key) Event { return Event{Kind: EventKey, Key: k} }
