//go:build linux

package window

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

const (
	keyPressMask        = 1 << 0
	keyReleaseMask      = 1 << 1
	exposureMask        = 1 << 15
	structureNotifyMask = 1 << 17

	keyPress        = 2
	keyRelease      = 3
	expose          = 12
	destroyNotify   = 17
	configureNotify = 22
	clientMessage   = 33

	zPixmap  = 2
	mod1Mask = 1 << 3

	xkEscape = 0xff1b
	xkF4     = 0xffc1
	xkLeft   = 0xff51
	xkUp     = 0xff52
	xkRight  = 0xff53
	xkDown   = 0xff54
	xkSpace  = 0x0020
	xkA      = 0x0061
	xkD      = 0x0064
	xkS      = 0x0073
	xkW      = 0x0077
)

type xclientMessage struct {
	Type        int32
	Serial      uint64
	SendEvent   int32
	Display     uintptr
	Window      uintptr
	MessageType uintptr
	Format      int32
	Data        [5]uint64
}

// Mirrors XConfigureEvent.
type xconfigureEvent struct {
	Type             int32
	Serial           uint64
	SendEvent        int32
	Display          uintptr
	Event            uintptr
	Window           uintptr
	X, Y             int32
	Width, Height    int32
	BorderWidth      int32
	Above            uintptr
	OverrideRedirect int32
}

// Mirrors XKeyEvent.
type xkeyEvent struct {
	Type       int32
	Serial     uint64
	SendEvent  int32
	Display    uintptr
	Window     uintptr
	Root       uintptr
	Subwindow  uintptr
	Time       uint64
	X, Y       int32
	XRoot      int32
	YRoot      int32
	State      uint32
	Keycode    uint32
	SameScreen int32
}

var (
	x11lib uintptr

	xOpenDisplay        func(*byte) uintptr
	xDefaultScreen      func(uintptr) int32
	xRootWindow         func(uintptr, int32) uintptr
	xDefaultVisual      func(uintptr, int32) uintptr
	xDefaultDepth       func(uintptr, int32) int32
	xDefaultGC          func(uintptr, int32) uintptr
	xBlackPixel         func(uintptr, int32) uint64
	xCreateSimpleWindow func(uintptr, uintptr, int32, int32, uint32, uint32, uint32, uint64, uint64) uintptr
	xMapWindow          func(uintptr, uintptr) int32
	xStoreName          func(uintptr, uintptr, *byte) int32
	xInternAtom         func(uintptr, *byte, int32) uintptr
	xSetWMProtocols     func(uintptr, uintptr, *uintptr, int32) int32
	xSelectInput        func(uintptr, uintptr, int64)
	xPending            func(uintptr) int32
	xNextEvent          func(uintptr, unsafe.Pointer)
	xLookupKeysym       func(unsafe.Pointer, int32) uint64
	xGetGeometry        func(uintptr, uintptr, *uintptr, *int32, *int32, *uint32, *uint32, *uint32, *uint32) int32
	xCreateImage        func(uintptr, uintptr, uint32, int32, int32, *byte, uint32, uint32, int32, int32) uintptr
	xPutImage           func(uintptr, uintptr, uintptr, uintptr, int32, int32, int32, int32, uint32, uint32) int32
	xFree               func(uintptr) int32
	xFlush              func(uintptr) int32
	xDestroyWindow      func(uintptr, uintptr) int32
	xCloseDisplay       func(uintptr) int32
)

type x11Window struct {
	display  uintptr
	window   uintptr
	visual   uintptr
	gc       uintptr
	depth    int32
	wmDelete uintptr

	width, height int
	pending       []Event
}

// New opens an X11 window that accepts 32-bit software frames.
func New(title string, width, height int) (Window, error) {
	runtime.LockOSThread()
	if err := ensureLibs(); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}

	dpy := xOpenDisplay(nil)
	if dpy == 0 {
		runtime.UnlockOSThread()
		return nil, errors.New("XOpenDisplay failed")
	}

	screen := xDefaultScreen(dpy)
	depth := xDefaultDepth(dpy, screen)
	if depth != 24 && depth != 32 {
		xCloseDisplay(dpy)
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("unsupported X11 visual depth %d", depth)
	}

	black := xBlackPixel(dpy, screen)
	win := xCreateSimpleWindow(
		dpy, xRootWindow(dpy, screen),
		0, 0,
		uint32(width), uint32(height),
		0, black, black,
	)
	if win == 0 {
		xCloseDisplay(dpy)
		runtime.UnlockOSThread()
		return nil, errors.New("XCreateSimpleWindow failed")
	}
	xSelectInput(dpy, win, exposureMask|structureNotifyMask|keyPressMask|keyReleaseMask)

	titleBytes := append([]byte(title), 0)
	xStoreName(dpy, win, &titleBytes[0])

	wmDelete := xInternAtom(dpy, cString("WM_DELETE_WINDOW"), 0)
	xSetWMProtocols(dpy, win, &wmDelete, 1)
	xMapWindow(dpy, win)

	w := &x11Window{
		display:  dpy,
		window:   win,
		visual:   xDefaultVisual(dpy, screen),
		gc:       xDefaultGC(dpy, screen),
		depth:    depth,
		wmDelete: wmDelete,
		width:    width,
		height:   height,
		pending:  []Event{Resize(width, height)},
	}
	slog.Debug("x11 window created", "width", width, "height", height, "depth", depth)
	return w, nil
}

func (w *x11Window) Close() {
	if w.window != 0 {
		xDestroyWindow(w.display, w.window)
		w.window = 0
	}
	if w.display != 0 {
		xCloseDisplay(w.display)
		w.display = 0
	}
	runtime.UnlockOSThread()
}

func (w *x11Window) Drain(dst []Event) []Event {
	dst = append(dst, w.pending...)
	w.pending = w.pending[:0]
	if w.display == 0 {
		return dst
	}

	for xPending(w.display) > 0 {
		var ev [192]byte
		xNextEvent(w.display, unsafe.Pointer(&ev[0]))
		etype := *(*int32)(unsafe.Pointer(&ev[0]))
		switch etype {
		case clientMessage:
			cm := (*xclientMessage)(unsafe.Pointer(&ev[0]))
			if cm.Format == 32 && cm.Data[0] == uint64(w.wmDelete) {
				dst = append(dst, Event{Kind: EventClose})
			}
		case destroyNotify:
			dst = append(dst, Event{Kind: EventDestroy})
		case configureNotify:
			ce := (*xconfigureEvent)(unsafe.Pointer(&ev[0]))
			// Moves arrive as ConfigureNotify too.
			if int(ce.Width) != w.width || int(ce.Height) != w.height {
				w.width, w.height = int(ce.Width), int(ce.Height)
				dst = append(dst, Resize(w.width, w.height))
			}
		case expose:
			dst = append(dst, Event{Kind: EventPaint})
		case keyPress, keyRelease:
			ke := (*xkeyEvent)(unsafe.Pointer(&ev[0]))
			dst = append(dst, Event{
				Kind: EventKey,
				Key:  translateKeysym(xLookupKeysym(unsafe.Pointer(&ev[0]), 0)),
				Down: etype == keyPress,
				Alt:  ke.State&mod1Mask != 0,
			})
		}
	}
	return dst
}

func (w *x11Window) ClientSize() (int, int) {
	var root uintptr
	var x, y int32
	var width, height uint32
	var border, depth uint32
	if w.display == 0 || xGetGeometry(w.display, w.window, &root, &x, &y, &width, &height, &border, &depth) == 0 {
		return 0, 0
	}
	return int(width), int(height)
}

// Present uploads the frame with XPutImage. The [B][G][R][pad] layout is
// the ZPixmap layout of 24 and 32 bit TrueColor visuals.
func (w *x11Window) Present(pixels []byte, width, height, pitch int) error {
	if w.display == 0 || width == 0 || height == 0 {
		return nil
	}
	img := xCreateImage(
		w.display, w.visual, uint32(w.depth), zPixmap, 0,
		&pixels[0], uint32(width), uint32(height),
		32, int32(pitch),
	)
	if img == 0 {
		return errors.New("XCreateImage failed")
	}
	xPutImage(w.display, w.window, w.gc, img, 0, 0, 0, 0, uint32(width), uint32(height))
	// XFree releases the XImage header only; the pixels stay ours.
	xFree(img)
	xFlush(w.display)
	return nil
}

func translateKeysym(sym uint64) Key {
	switch sym {
	case xkEscape:
		return KeyEscape
	case xkF4:
		return KeyF4
	case xkUp:
		return KeyUp
	case xkDown:
		return KeyDown
	case xkLeft:
		return KeyLeft
	case xkRight:
		return KeyRight
	case xkW:
		return KeyW
	case xkA:
		return KeyA
	case xkS:
		return KeyS
	case xkD:
		return KeyD
	case xkSpace:
		return KeySpace
	}
	return KeyUnknown
}

func ensureLibs() error {
	if x11lib != 0 {
		return nil
	}
	lib, err := purego.Dlopen("libX11.so.6", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
	if err != nil {
		return err
	}
	x11lib = lib
	registerX11()
	return nil
}

func registerX11() {
	purego.RegisterLibFunc(&xOpenDisplay, x11lib, "XOpenDisplay")
	purego.RegisterLibFunc(&xDefaultScreen, x11lib, "XDefaultScreen")
	purego.RegisterLibFunc(&xRootWindow, x11lib, "XRootWindow")
	purego.RegisterLibFunc(&xDefaultVisual, x11lib, "XDefaultVisual")
	purego.RegisterLibFunc(&xDefaultDepth, x11lib, "XDefaultDepth")
	purego.RegisterLibFunc(&xDefaultGC, x11lib, "XDefaultGC")
	purego.RegisterLibFunc(&xBlackPixel, x11lib, "XBlackPixel")
	purego.RegisterLibFunc(&xCreateSimpleWindow, x11lib, "XCreateSimpleWindow")
	purego.RegisterLibFunc(&xMapWindow, x11lib, "XMapWindow")
	purego.RegisterLibFunc(&xStoreName, x11lib, "XStoreName")
	purego.RegisterLibFunc(&xInternAtom, x11lib, "XInternAtom")
	purego.RegisterLibFunc(&xSetWMProtocols, x11lib, "XSetWMProtocols")
	purego.RegisterLibFunc(&xSelectInput, x11lib, "XSelectInput")
	purego.RegisterLibFunc(&xPending, x11lib, "XPending")
	purego.RegisterLibFunc(&xNextEvent, x11lib, "XNextEvent")
	purego.RegisterLibFunc(&xLookupKeysym, x11lib, "XLookupKeysym")
	purego.RegisterLibFunc(&xGetGeometry, x11lib, "XGetGeometry")
	purego.RegisterLibFunc(&xCreateImage, x11lib, "XCreateImage")
	purego.RegisterLibFunc(&xPutImage, x11lib, "XPutImage")
	purego.RegisterLibFunc(&xFree, x11lib, "XFree")
	purego.RegisterLibFunc(&xFlush, x11lib, "XFlush")
	purego.RegisterLibFunc(&xDestroyWindow, x11lib, "XDestroyWindow")
	purego.RegisterLibFunc(&xCloseDisplay, x11lib, "XCloseDisplay")
}

func cString(s string) *byte {
	b := append([]byte(s), 0)
	return &b[0]
}
